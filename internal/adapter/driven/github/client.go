// Package github implements the GitHubClient port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// userAgent identifies this service on every API call.
const userAgent = "hubmirror"

// Compile-time interface satisfaction check.
var _ driven.GitHubClient = (*Client)(nil)

// RemoteError is returned for any non-success response from the GitHub API.
// It carries the HTTP status code and response body so callers can decide
// whether to abort or skip; the client itself never retries.
type RemoteError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("github api status %d: %s", e.StatusCode, e.Body)
}

// Client implements the driven.GitHubClient port, bound to one user's bearer
// token. Each list method performs a single page fetch; pagination is driven
// entirely by the caller via page/perPage, never by Link headers.
type Client struct {
	gh *gh.Client
}

// NewClient creates a GitHub API client with an httpcache memory transport
// (ETag-based conditional request caching) under go-github with token auth.
// There is no rate-limit or retry middleware: a failed call is terminal for
// that call.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	client := gh.NewClient(cacheTransport.Client()).WithAuthToken(token)
	client.UserAgent = userAgent

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base
// URL. This constructor is intended for testing, allowing injection of an
// httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	client.UserAgent = userAgent

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// FetchAuthenticatedUser returns the identity of the token's owner.
func (c *Client) FetchAuthenticatedUser(ctx context.Context) (model.ConnectedAccount, error) {
	user, resp, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return model.ConnectedAccount{}, remoteErr("fetching authenticated user", resp, err)
	}

	if user.GetID() == 0 {
		return model.ConnectedAccount{}, fmt.Errorf("authenticated user: %w", ErrMalformedRecord)
	}

	return model.ConnectedAccount{
		ID:    user.GetID(),
		Login: user.GetLogin(),
		Email: user.GetEmail(),
	}, nil
}

// FetchOrganizations returns the user's organization list in a single call.
func (c *Client) FetchOrganizations(ctx context.Context) ([]model.Organization, error) {
	orgs, resp, err := c.gh.Organizations.List(ctx, "", nil)
	if err != nil {
		return nil, remoteErr("listing organizations", resp, err)
	}

	out := make([]model.Organization, 0, len(orgs))
	for _, org := range orgs {
		normalized, err := normalizeOrganization(org)
		if err != nil {
			slog.Warn("skipping malformed organization record", "error", err)
			continue
		}
		out = append(out, normalized)
	}

	return out, nil
}

// FetchUserRepos returns one page of the user's own repositories.
func (c *Client) FetchUserRepos(ctx context.Context, page, perPage int) ([]model.Repository, error) {
	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	repos, resp, err := c.gh.Repositories.ListByAuthenticatedUser(ctx, opts)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing user repositories (page %d)", page), resp, err)
	}
	logPage(resp, "user repos", page, len(repos))

	return normalizeRepositories(repos), nil
}

// FetchOrgRepos returns one page of an organization's repositories.
func (c *Client) FetchOrgRepos(ctx context.Context, org string, page, perPage int) ([]model.Repository, error) {
	opts := &gh.RepositoryListByOrgOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	repos, resp, err := c.gh.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing repositories for org %s (page %d)", org, page), resp, err)
	}
	logPage(resp, org+" repos", page, len(repos))

	return normalizeRepositories(repos), nil
}

// FetchCommits returns one page of a repository's commits.
func (c *Client) FetchCommits(ctx context.Context, owner, repo string, page, perPage int) ([]model.Commit, error) {
	opts := &gh.CommitsListOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	commits, resp, err := c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing commits for %s/%s (page %d)", owner, repo, page), resp, err)
	}
	logPage(resp, owner+"/"+repo+"/commits", page, len(commits))

	out := make([]model.Commit, 0, len(commits))
	for _, commit := range commits {
		normalized, err := normalizeCommit(commit)
		if err != nil {
			slog.Warn("skipping malformed commit record", "repo", owner+"/"+repo, "error", err)
			continue
		}
		out = append(out, normalized)
	}

	return out, nil
}

// FetchPulls returns one page of a repository's pull requests (all states).
func (c *Client) FetchPulls(ctx context.Context, owner, repo string, page, perPage int) ([]model.PullRequest, error) {
	opts := &gh.PullRequestListOptions{
		State:       "all",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	pulls, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing pull requests for %s/%s (page %d)", owner, repo, page), resp, err)
	}
	logPage(resp, owner+"/"+repo+"/pulls", page, len(pulls))

	out := make([]model.PullRequest, 0, len(pulls))
	for _, pull := range pulls {
		normalized, err := normalizePullRequest(pull)
		if err != nil {
			slog.Warn("skipping malformed pull request record", "repo", owner+"/"+repo, "error", err)
			continue
		}
		out = append(out, normalized)
	}

	return out, nil
}

// FetchIssues returns one page of a repository's issues feed (all states).
// Items that are actually pull requests are returned flagged, not dropped, so
// the raw page count still drives pagination termination.
func (c *Client) FetchIssues(ctx context.Context, owner, repo string, page, perPage int) ([]model.Issue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "all",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing issues for %s/%s (page %d)", owner, repo, page), resp, err)
	}
	logPage(resp, owner+"/"+repo+"/issues", page, len(issues))

	out := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		normalized, err := normalizeIssue(issue)
		if err != nil {
			slog.Warn("skipping malformed issue record", "repo", owner+"/"+repo, "error", err)
			continue
		}
		out = append(out, normalized)
	}

	return out, nil
}

// FetchIssueEvents returns the event timeline for one issue in a single call.
func (c *Client) FetchIssueEvents(ctx context.Context, owner, repo string, issueNumber int) ([]model.ChangelogEvent, error) {
	events, resp, err := c.gh.Issues.ListIssueEvents(ctx, owner, repo, issueNumber, nil)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing events for %s/%s#%d", owner, repo, issueNumber), resp, err)
	}
	logPage(resp, fmt.Sprintf("%s/%s#%d/events", owner, repo, issueNumber), 0, len(events))

	out := make([]model.ChangelogEvent, 0, len(events))
	for _, ev := range events {
		normalized, err := normalizeChangelogEvent(ev, issueNumber)
		if err != nil {
			slog.Warn("skipping malformed issue event record", "repo", owner+"/"+repo, "issue", issueNumber, "error", err)
			continue
		}
		out = append(out, normalized)
	}

	return out, nil
}

// FetchOrgMembers returns one page of an organization's members.
func (c *Client) FetchOrgMembers(ctx context.Context, org string, page, perPage int) ([]model.Member, error) {
	opts := &gh.ListMembersOptions{
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}

	members, resp, err := c.gh.Organizations.ListMembers(ctx, org, opts)
	if err != nil {
		return nil, remoteErr(fmt.Sprintf("listing members for org %s (page %d)", org, page), resp, err)
	}
	logPage(resp, org+"/members", page, len(members))

	out := make([]model.Member, 0, len(members))
	for _, member := range members {
		normalized, err := normalizeMember(member)
		if err != nil {
			slog.Warn("skipping malformed member record", "org", org, "error", err)
			continue
		}
		out = append(out, normalized)
	}

	return out, nil
}

// remoteErr wraps a go-github error, preserving status code and response body
// in a RemoteError when the failure came from a non-success HTTP response.
func remoteErr(op string, resp *gh.Response, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return fmt.Errorf("%s: %w", op, &RemoteError{
			StatusCode: ghErr.Response.StatusCode,
			Body:       ghErr.Message,
		})
	}
	if resp != nil && resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %w", op, &RemoteError{StatusCode: resp.StatusCode})
	}
	return fmt.Errorf("%s: %w", op, err)
}

// logPage logs one API page fetch with the remaining rate limit.
func logPage(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
	)
}
