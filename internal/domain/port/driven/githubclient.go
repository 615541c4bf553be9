// Package driven declares the ports implemented by driven adapters.
package driven

import (
	"context"

	"github.com/hubmirror/hubmirror/internal/domain/model"
)

// GitHubClient is the driven port for the GitHub REST API, bound to a single
// user's credential.
//
// Paginated methods perform exactly one HTTP request for the given page and
// return that page's records. The caller drives pages 1, 2, 3, ... and stops
// when a page comes back with fewer than perPage items; the adapter never
// interprets pagination link headers. Owning-user and repository scope fields
// on returned records are zero -- the caller assigns them before storing.
type GitHubClient interface {
	// FetchAuthenticatedUser returns the identity of the credential's owner.
	FetchAuthenticatedUser(ctx context.Context) (model.ConnectedAccount, error)

	// FetchOrganizations returns the user's organization list. The remote
	// caps this list, so it is a single unpaginated call.
	FetchOrganizations(ctx context.Context) ([]model.Organization, error)

	FetchUserRepos(ctx context.Context, page, perPage int) ([]model.Repository, error)
	FetchOrgRepos(ctx context.Context, org string, page, perPage int) ([]model.Repository, error)
	FetchCommits(ctx context.Context, owner, repo string, page, perPage int) ([]model.Commit, error)
	FetchPulls(ctx context.Context, owner, repo string, page, perPage int) ([]model.PullRequest, error)

	// FetchIssues returns the raw issues feed for the page, including items
	// that are actually pull requests (flagged via Issue.IsPullRequest).
	// Returning them keeps the page count honest for pagination termination;
	// the caller filters them out before storing.
	FetchIssues(ctx context.Context, owner, repo string, page, perPage int) ([]model.Issue, error)

	// FetchIssueEvents returns the event timeline for one issue as a single
	// call.
	FetchIssueEvents(ctx context.Context, owner, repo string, issueNumber int) ([]model.ChangelogEvent, error)

	FetchOrgMembers(ctx context.Context, org string, page, perPage int) ([]model.Member, error)
}
