// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// ClientFactory builds a GitHub client bound to one user's access token.
type ClientFactory func(token string) driven.GitHubClient

// SyncService orchestrates a full mirror run for one user: organizations and
// their members, the user's own repositories, organization repositories, and
// per-repository commits, pull requests, issues, and issue changelogs.
//
// Error handling is deliberately two-tiered. Stage-level failures (listing
// organizations, fetching a repository page, reading stored organizations)
// abort the run, because continuing would mirror an arbitrary slice of the
// account. Item-level failures (one repository, one member page, one issue's
// events) are logged and skipped so a single bad record cannot starve the
// rest of the run.
type SyncService struct {
	clientFor    ClientFactory
	integrations driven.IntegrationStore
	orgs         driven.OrgStore
	repos        driven.RepoStore
	commits      driven.CommitStore
	pulls        driven.PullStore
	issues       driven.IssueStore
	changelogs   driven.ChangelogStore
	members      driven.MemberStore
	pageSize     int
}

// NewSyncService creates a SyncService. pageSize is the per-page item count
// requested from GitHub; a short page terminates each pagination loop.
func NewSyncService(
	clientFor ClientFactory,
	integrations driven.IntegrationStore,
	orgs driven.OrgStore,
	repos driven.RepoStore,
	commits driven.CommitStore,
	pulls driven.PullStore,
	issues driven.IssueStore,
	changelogs driven.ChangelogStore,
	members driven.MemberStore,
	pageSize int,
) *SyncService {
	return &SyncService{
		clientFor:    clientFor,
		integrations: integrations,
		orgs:         orgs,
		repos:        repos,
		commits:      commits,
		pulls:        pulls,
		issues:       issues,
		changelogs:   changelogs,
		members:      members,
		pageSize:     pageSize,
	}
}

// SyncAll runs a complete mirror pass for the user and stamps the
// integration's last-sync time on success. It returns
// driven.ErrIntegrationNotFound when the user has no integration.
func (s *SyncService) SyncAll(ctx context.Context, userID int64) error {
	integration, err := s.integrations.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading integration: %w", err)
	}
	if integration == nil {
		return driven.ErrIntegrationNotFound
	}

	client := s.clientFor(integration.AccessToken)
	start := time.Now()

	if err := s.syncOrganizations(ctx, client, userID); err != nil {
		return fmt.Errorf("syncing organizations: %w", err)
	}

	if err := s.syncUserRepos(ctx, client, userID); err != nil {
		return fmt.Errorf("syncing user repositories: %w", err)
	}

	if err := s.syncOrgRepos(ctx, client, userID); err != nil {
		return fmt.Errorf("syncing organization repositories: %w", err)
	}

	if err := s.integrations.SetLastSync(ctx, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("stamping last sync: %w", err)
	}

	slog.Info("sync complete",
		"user_id", userID,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// syncOrganizations mirrors the user's organization list and, per
// organization, its member roster. Member failures are per-org and do not
// abort the stage.
func (s *SyncService) syncOrganizations(ctx context.Context, client driven.GitHubClient, userID int64) error {
	orgs, err := client.FetchOrganizations(ctx)
	if err != nil {
		return err
	}

	for _, org := range orgs {
		org.UserID = userID
		if err := s.orgs.Upsert(ctx, org); err != nil {
			return fmt.Errorf("upserting organization %s: %w", org.Login, err)
		}

		if err := s.syncOrgMembers(ctx, client, userID, org.Login); err != nil {
			slog.Error("org member sync failed", "org", org.Login, "error", err)
		}
	}

	slog.Info("organizations synced", "user_id", userID, "count", len(orgs))
	return nil
}

func (s *SyncService) syncOrgMembers(ctx context.Context, client driven.GitHubClient, userID int64, org string) error {
	return s.eachPage(ctx, func(page int) (int, error) {
		members, err := client.FetchOrgMembers(ctx, org, page, s.pageSize)
		if err != nil {
			return 0, err
		}
		for _, member := range members {
			member.UserID = userID
			if err := s.members.Upsert(ctx, member); err != nil {
				slog.Error("upsert member failed", "org", org, "member", member.Login, "error", err)
			}
		}
		return len(members), nil
	})
}

// syncUserRepos mirrors repositories owned by the authenticated user.
func (s *SyncService) syncUserRepos(ctx context.Context, client driven.GitHubClient, userID int64) error {
	return s.eachPage(ctx, func(page int) (int, error) {
		repos, err := client.FetchUserRepos(ctx, page, s.pageSize)
		if err != nil {
			return 0, err
		}
		for _, repo := range repos {
			if err := s.processRepository(ctx, client, userID, repo); err != nil {
				slog.Error("repository sync failed", "repo", repo.FullName, "error", err)
			}
		}
		return len(repos), nil
	})
}

// syncOrgRepos mirrors repositories of every stored organization. The stored
// org list is the source of truth (not a refetch), so the stage composes with
// whatever syncOrganizations just wrote.
func (s *SyncService) syncOrgRepos(ctx context.Context, client driven.GitHubClient, userID int64) error {
	orgs, err := s.orgs.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing stored organizations: %w", err)
	}

	for _, org := range orgs {
		err := s.eachPage(ctx, func(page int) (int, error) {
			repos, err := client.FetchOrgRepos(ctx, org.Login, page, s.pageSize)
			if err != nil {
				return 0, err
			}
			for _, repo := range repos {
				if err := s.processRepository(ctx, client, userID, repo); err != nil {
					slog.Error("repository sync failed", "repo", repo.FullName, "error", err)
				}
			}
			return len(repos), nil
		})
		if err != nil {
			return fmt.Errorf("organization %s: %w", org.Login, err)
		}
	}

	return nil
}

// processRepository upserts one repository record, then mirrors its commits,
// pull requests, and issues concurrently. The three branches are independent:
// one failing does not cancel the others, and branch failures are logged
// without failing the repository.
func (s *SyncService) processRepository(ctx context.Context, client driven.GitHubClient, userID int64, repo model.Repository) error {
	repo.UserID = userID
	if err := s.repos.Upsert(ctx, repo); err != nil {
		return fmt.Errorf("upserting repository: %w", err)
	}

	var wg sync.WaitGroup
	branches := []struct {
		name string
		run  func(context.Context) error
	}{
		{"commits", func(ctx context.Context) error {
			return s.syncCommits(ctx, client, userID, repo)
		}},
		{"pulls", func(ctx context.Context) error {
			return s.syncPulls(ctx, client, userID, repo)
		}},
		{"issues", func(ctx context.Context) error {
			return s.syncIssues(ctx, client, userID, repo)
		}},
	}

	for _, branch := range branches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := branch.run(ctx); err != nil {
				slog.Error("branch sync failed", "repo", repo.FullName, "branch", branch.name, "error", err)
			}
		}()
	}
	wg.Wait()

	return nil
}

func (s *SyncService) syncCommits(ctx context.Context, client driven.GitHubClient, userID int64, repo model.Repository) error {
	return s.eachPage(ctx, func(page int) (int, error) {
		commits, err := client.FetchCommits(ctx, repo.OwnerLogin, repo.Name, page, s.pageSize)
		if err != nil {
			return 0, err
		}
		for _, commit := range commits {
			commit.UserID = userID
			commit.RepositoryID = repo.GitHubID
			commit.RepositoryName = repo.FullName
			if err := s.commits.Upsert(ctx, commit); err != nil {
				slog.Error("upsert commit failed", "repo", repo.FullName, "sha", commit.SHA, "error", err)
			}
		}
		return len(commits), nil
	})
}

func (s *SyncService) syncPulls(ctx context.Context, client driven.GitHubClient, userID int64, repo model.Repository) error {
	return s.eachPage(ctx, func(page int) (int, error) {
		pulls, err := client.FetchPulls(ctx, repo.OwnerLogin, repo.Name, page, s.pageSize)
		if err != nil {
			return 0, err
		}
		for _, pull := range pulls {
			pull.UserID = userID
			pull.RepositoryID = repo.GitHubID
			pull.RepositoryName = repo.FullName
			if err := s.pulls.Upsert(ctx, pull); err != nil {
				slog.Error("upsert pull failed", "repo", repo.FullName, "number", pull.Number, "error", err)
			}
		}
		return len(pulls), nil
	})
}

// syncIssues mirrors the repository's issues and, per stored issue, its event
// changelog. The raw feed includes pull requests; those items count toward
// pagination but are never stored.
func (s *SyncService) syncIssues(ctx context.Context, client driven.GitHubClient, userID int64, repo model.Repository) error {
	return s.eachPage(ctx, func(page int) (int, error) {
		issues, err := client.FetchIssues(ctx, repo.OwnerLogin, repo.Name, page, s.pageSize)
		if err != nil {
			return 0, err
		}
		for _, issue := range issues {
			if issue.IsPullRequest {
				continue
			}
			issue.UserID = userID
			issue.RepositoryID = repo.GitHubID
			issue.RepositoryName = repo.FullName
			if err := s.issues.Upsert(ctx, issue); err != nil {
				slog.Error("upsert issue failed", "repo", repo.FullName, "number", issue.Number, "error", err)
				continue
			}

			if err := s.syncIssueEvents(ctx, client, userID, repo, issue); err != nil {
				slog.Error("issue changelog sync failed", "repo", repo.FullName, "number", issue.Number, "error", err)
			}
		}
		return len(issues), nil
	})
}

func (s *SyncService) syncIssueEvents(ctx context.Context, client driven.GitHubClient, userID int64, repo model.Repository, issue model.Issue) error {
	events, err := client.FetchIssueEvents(ctx, repo.OwnerLogin, repo.Name, issue.Number)
	if err != nil {
		return err
	}

	for _, ev := range events {
		ev.UserID = userID
		ev.RepositoryID = repo.GitHubID
		ev.RepositoryName = repo.FullName
		if ev.IssueID == nil {
			id := issue.GitHubID
			ev.IssueID = &id
		}
		if err := s.changelogs.Upsert(ctx, ev); err != nil {
			slog.Error("upsert changelog event failed", "repo", repo.FullName, "event", ev.GitHubID, "error", err)
		}
	}

	return nil
}

// eachPage calls fetch with page numbers 1, 2, 3, ... until a page returns
// fewer items than the configured page size, which marks the end of the
// remote collection.
func (s *SyncService) eachPage(ctx context.Context, fetch func(page int) (int, error)) error {
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		count, err := fetch(page)
		if err != nil {
			return err
		}
		if count < s.pageSize {
			return nil
		}
	}
}
