package github

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	gh "github.com/google/go-github/v82/github"

	"github.com/hubmirror/hubmirror/internal/domain/model"
)

// ErrMalformedRecord indicates a remote payload is missing its natural key
// (remote id or commit sha) and cannot be mirrored. Such records are skipped
// individually; they never abort the page they arrived on.
var ErrMalformedRecord = errors.New("malformed remote record")

// The normalize functions below convert raw go-github payloads into canonical
// records. Optional nested objects (assignee, commit stats, pull-request
// marker) are read through go-github's nil-safe getters, so an absent parent
// key degrades to "field not present" rather than a panic. Owning-user and
// repository scope fields are left zero for the caller to assign.

func normalizeOrganization(org *gh.Organization) (model.Organization, error) {
	if org.GetID() == 0 {
		return model.Organization{}, fmt.Errorf("organization missing id: %w", ErrMalformedRecord)
	}

	return model.Organization{
		GitHubID:    org.GetID(),
		Login:       org.GetLogin(),
		Name:        org.GetName(),
		Description: org.GetDescription(),
		URL:         org.GetURL(),
		AvatarURL:   org.GetAvatarURL(),
		CreatedAt:   org.GetCreatedAt().Time,
		UpdatedAt:   org.GetUpdatedAt().Time,
	}, nil
}

func normalizeRepository(repo *gh.Repository) (model.Repository, error) {
	if repo.GetID() == 0 {
		return model.Repository{}, fmt.Errorf("repository missing id: %w", ErrMalformedRecord)
	}

	return model.Repository{
		GitHubID:        repo.GetID(),
		Name:            repo.GetName(),
		FullName:        repo.GetFullName(),
		Description:     repo.GetDescription(),
		Private:         repo.GetPrivate(),
		OwnerLogin:      repo.GetOwner().GetLogin(),
		OwnerID:         repo.GetOwner().GetID(),
		HTMLURL:         repo.GetHTMLURL(),
		CloneURL:        repo.GetCloneURL(),
		Language:        repo.GetLanguage(),
		StargazersCount: repo.GetStargazersCount(),
		WatchersCount:   repo.GetWatchersCount(),
		ForksCount:      repo.GetForksCount(),
		OpenIssuesCount: repo.GetOpenIssuesCount(),
		DefaultBranch:   repo.GetDefaultBranch(),
		CreatedAt:       repo.GetCreatedAt().Time,
		UpdatedAt:       repo.GetUpdatedAt().Time,
		PushedAt:        timestampPtr(repo.PushedAt),
	}, nil
}

// normalizeRepositories maps a page of raw repositories, skipping malformed
// entries so a single bad record cannot abort the page.
func normalizeRepositories(repos []*gh.Repository) []model.Repository {
	out := make([]model.Repository, 0, len(repos))
	for _, repo := range repos {
		normalized, err := normalizeRepository(repo)
		if err != nil {
			slog.Warn("skipping malformed repository record", "error", err)
			continue
		}
		out = append(out, normalized)
	}
	return out
}

func normalizeCommit(commit *gh.RepositoryCommit) (model.Commit, error) {
	if commit.GetSHA() == "" {
		return model.Commit{}, fmt.Errorf("commit missing sha: %w", ErrMalformedRecord)
	}

	detail := commit.GetCommit()

	c := model.Commit{
		SHA:            commit.GetSHA(),
		Message:        detail.GetMessage(),
		AuthorName:     detail.GetAuthor().GetName(),
		AuthorEmail:    detail.GetAuthor().GetEmail(),
		AuthorDate:     detail.GetAuthor().GetDate().Time,
		CommitterName:  detail.GetCommitter().GetName(),
		CommitterEmail: detail.GetCommitter().GetEmail(),
		CommitterDate:  detail.GetCommitter().GetDate().Time,
		HTMLURL:        commit.GetHTMLURL(),
	}

	// Change stats only appear on commit detail payloads, never on list pages.
	if stats := commit.GetStats(); stats != nil {
		c.Additions = intRef(stats.GetAdditions())
		c.Deletions = intRef(stats.GetDeletions())
		c.TotalChanges = intRef(stats.GetTotal())
	}

	return c, nil
}

func normalizePullRequest(pr *gh.PullRequest) (model.PullRequest, error) {
	if pr.GetID() == 0 {
		return model.PullRequest{}, fmt.Errorf("pull request missing id: %w", ErrMalformedRecord)
	}

	out := model.PullRequest{
		GitHubID:    pr.GetID(),
		Number:      pr.GetNumber(),
		Title:       pr.GetTitle(),
		Body:        pr.GetBody(),
		State:       pr.GetState(),
		AuthorLogin: pr.GetUser().GetLogin(),
		AuthorID:    pr.GetUser().GetID(),
		HTMLURL:     pr.GetHTMLURL(),
		HeadRef:     pr.GetHead().GetRef(),
		BaseRef:     pr.GetBase().GetRef(),
		CreatedAt:   pr.GetCreatedAt().Time,
		UpdatedAt:   pr.GetUpdatedAt().Time,
		ClosedAt:    timestampPtr(pr.ClosedAt),
		MergedAt:    timestampPtr(pr.MergedAt),
	}

	if assignee := pr.GetAssignee(); assignee != nil {
		out.AssigneeLogin = strRef(assignee.GetLogin())
		out.AssigneeID = int64Ref(assignee.GetID())
	}

	return out, nil
}

func normalizeIssue(issue *gh.Issue) (model.Issue, error) {
	if issue.GetID() == 0 {
		return model.Issue{}, fmt.Errorf("issue missing id: %w", ErrMalformedRecord)
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labels = append(labels, label.GetName())
	}

	out := model.Issue{
		GitHubID:    issue.GetID(),
		Number:      issue.GetNumber(),
		Title:       issue.GetTitle(),
		Body:        issue.GetBody(),
		State:       issue.GetState(),
		AuthorLogin: issue.GetUser().GetLogin(),
		AuthorID:    issue.GetUser().GetID(),
		Labels:      labels,
		HTMLURL:     issue.GetHTMLURL(),
		CreatedAt:   issue.GetCreatedAt().Time,
		UpdatedAt:   issue.GetUpdatedAt().Time,
		ClosedAt:    timestampPtr(issue.ClosedAt),

		// The issues feed conflates issues and pull requests; the marker's
		// presence flags an item the caller must not store as an issue.
		IsPullRequest: issue.PullRequestLinks != nil,
	}

	if assignee := issue.GetAssignee(); assignee != nil {
		out.AssigneeLogin = strRef(assignee.GetLogin())
		out.AssigneeID = int64Ref(assignee.GetID())
	}

	return out, nil
}

func normalizeChangelogEvent(ev *gh.IssueEvent, issueNumber int) (model.ChangelogEvent, error) {
	if ev.GetID() == 0 {
		return model.ChangelogEvent{}, fmt.Errorf("issue event missing id: %w", ErrMalformedRecord)
	}

	out := model.ChangelogEvent{
		GitHubID:    ev.GetID(),
		Event:       ev.GetEvent(),
		ActorLogin:  ev.GetActor().GetLogin(),
		ActorID:     ev.GetActor().GetID(),
		CreatedAt:   ev.GetCreatedAt().Time,
		IssueNumber: issueNumber,
	}

	if issue := ev.GetIssue(); issue != nil && issue.GetID() != 0 {
		out.IssueID = int64Ref(issue.GetID())
	}

	return out, nil
}

// normalizeMember maps a compact member-list payload. The members endpoint
// returns only login/id/avatar; profile fields stay nil until enriched.
func normalizeMember(user *gh.User) (model.Member, error) {
	if user.GetID() == 0 {
		return model.Member{}, fmt.Errorf("member missing id: %w", ErrMalformedRecord)
	}

	return model.Member{
		GitHubID:  user.GetID(),
		Login:     user.GetLogin(),
		AvatarURL: user.GetAvatarURL(),
		HTMLURL:   user.GetHTMLURL(),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// timestampPtr converts an optional go-github timestamp to *time.Time,
// passing absence through as nil rather than a zero time.
func timestampPtr(ts *gh.Timestamp) *time.Time {
	if ts == nil {
		return nil
	}
	t := ts.Time
	return &t
}

func strRef(s string) *string { return &s }

func intRef(v int) *int { return &v }

func int64Ref(v int64) *int64 { return &v }
