package driven

import (
	"context"

	"github.com/hubmirror/hubmirror/internal/domain/model"
)

// The mirror stores below share the same contract: Upsert is an atomic
// insert-or-replace keyed by the entity's natural key (commits are keyed by
// the (sha, repository id) pair, everything else by the remote id), replacing
// all other fields with the supplied record. DeleteByUser removes every
// record carrying the given owning-user scope and is used by the remove and
// resync flows. Each call is independent; no cross-store transaction exists
// or is needed, because natural-key upserts are idempotent and safe to retry.

// OrgStore persists mirrored organizations.
type OrgStore interface {
	Upsert(ctx context.Context, org model.Organization) error
	ListByUser(ctx context.Context, userID int64) ([]model.Organization, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// RepoStore persists mirrored repositories.
type RepoStore interface {
	Upsert(ctx context.Context, repo model.Repository) error
	ListByUser(ctx context.Context, userID int64) ([]model.Repository, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// CommitStore persists mirrored commits.
type CommitStore interface {
	Upsert(ctx context.Context, commit model.Commit) error
	ListByUser(ctx context.Context, userID int64) ([]model.Commit, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// PullStore persists mirrored pull requests.
type PullStore interface {
	Upsert(ctx context.Context, pull model.PullRequest) error
	ListByUser(ctx context.Context, userID int64) ([]model.PullRequest, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// IssueStore persists mirrored issues.
type IssueStore interface {
	Upsert(ctx context.Context, issue model.Issue) error
	ListByUser(ctx context.Context, userID int64) ([]model.Issue, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// ChangelogStore persists mirrored issue-event changelog entries.
type ChangelogStore interface {
	Upsert(ctx context.Context, event model.ChangelogEvent) error
	ListByUser(ctx context.Context, userID int64) ([]model.ChangelogEvent, error)
	DeleteByUser(ctx context.Context, userID int64) error
}

// MemberStore persists mirrored organization members.
type MemberStore interface {
	Upsert(ctx context.Context, member model.Member) error
	ListByUser(ctx context.Context, userID int64) ([]model.Member, error)
	DeleteByUser(ctx context.Context, userID int64) error
}
