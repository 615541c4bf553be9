package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// ResyncResult reports how many records of each collection are mirrored after
// a resync completes.
type ResyncResult struct {
	Organizations int `json:"organizations"`
	Repositories  int `json:"repositories"`
	Commits       int `json:"commits"`
	PullRequests  int `json:"pull_requests"`
	Issues        int `json:"issues"`
	Changelogs    int `json:"changelogs"`
	Members       int `json:"members"`
}

// IntegrationService manages the lifecycle of a user's GitHub link: creating
// it after the OAuth exchange, reporting its status, wiping it, and running a
// fresh resync.
type IntegrationService struct {
	clientFor    ClientFactory
	integrations driven.IntegrationStore
	orgs         driven.OrgStore
	repos        driven.RepoStore
	commits      driven.CommitStore
	pulls        driven.PullStore
	issues       driven.IssueStore
	changelogs   driven.ChangelogStore
	members      driven.MemberStore
	sync         *SyncService
}

// NewIntegrationService creates an IntegrationService sharing the sync
// orchestrator's stores.
func NewIntegrationService(
	clientFor ClientFactory,
	integrations driven.IntegrationStore,
	orgs driven.OrgStore,
	repos driven.RepoStore,
	commits driven.CommitStore,
	pulls driven.PullStore,
	issues driven.IssueStore,
	changelogs driven.ChangelogStore,
	members driven.MemberStore,
	sync *SyncService,
) *IntegrationService {
	return &IntegrationService{
		clientFor:    clientFor,
		integrations: integrations,
		orgs:         orgs,
		repos:        repos,
		commits:      commits,
		pulls:        pulls,
		issues:       issues,
		changelogs:   changelogs,
		members:      members,
		sync:         sync,
	}
}

// Connect resolves the access token's owner, upserts the Integration anchor
// record, and starts the first mirror run in the background. Reconnecting an
// already-linked account replaces the stored token and keeps the mirrored
// data.
func (s *IntegrationService) Connect(ctx context.Context, token string) (model.Integration, error) {
	account, err := s.clientFor(token).FetchAuthenticatedUser(ctx)
	if err != nil {
		return model.Integration{}, fmt.Errorf("resolving token owner: %w", err)
	}

	integration := model.Integration{
		UserID:      account.ID,
		Username:    account.Login,
		Email:       account.Email,
		AccessToken: token,
		Status:      model.IntegrationActive,
		ConnectedAt: time.Now().UTC(),
	}

	if err := s.integrations.Upsert(ctx, integration); err != nil {
		return model.Integration{}, fmt.Errorf("storing integration: %w", err)
	}

	// The first sync can take minutes on large accounts, so it runs detached
	// from the callback request's lifetime.
	go func(userID int64) {
		bg := context.WithoutCancel(ctx)
		if err := s.sync.SyncAll(bg, userID); err != nil {
			slog.Error("initial sync failed", "user_id", userID, "error", err)
		}
	}(integration.UserID)

	slog.Info("integration connected", "user_id", integration.UserID, "username", integration.Username)
	return integration, nil
}

// Status returns the user's Integration, or driven.ErrIntegrationNotFound.
func (s *IntegrationService) Status(ctx context.Context, userID int64) (*model.Integration, error) {
	integration, err := s.integrations.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading integration: %w", err)
	}
	if integration == nil {
		return nil, driven.ErrIntegrationNotFound
	}
	return integration, nil
}

// Remove deletes the Integration record and every mirrored record scoped to
// the user.
func (s *IntegrationService) Remove(ctx context.Context, userID int64) error {
	integration, err := s.integrations.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("loading integration: %w", err)
	}
	if integration == nil {
		return driven.ErrIntegrationNotFound
	}

	if err := s.wipeMirroredData(ctx, userID); err != nil {
		return err
	}
	if err := s.integrations.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting integration: %w", err)
	}

	slog.Info("integration removed", "user_id", userID)
	return nil
}

// Resync wipes the user's mirrored data, runs a full mirror pass, and reports
// the resulting record counts. The Integration record itself survives the
// wipe so the access token is retained.
func (s *IntegrationService) Resync(ctx context.Context, userID int64) (*ResyncResult, error) {
	integration, err := s.integrations.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading integration: %w", err)
	}
	if integration == nil {
		return nil, driven.ErrIntegrationNotFound
	}

	if err := s.wipeMirroredData(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.sync.SyncAll(ctx, userID); err != nil {
		return nil, fmt.Errorf("resync: %w", err)
	}

	return s.countMirroredData(ctx, userID)
}

// wipeMirroredData removes every mirrored record scoped to the user,
// dependents first. Each store's delete is independent; a failure aborts the
// wipe so the caller never reports a clean slate it does not have.
func (s *IntegrationService) wipeMirroredData(ctx context.Context, userID int64) error {
	deletes := []struct {
		name string
		fn   func(context.Context, int64) error
	}{
		{"changelogs", s.changelogs.DeleteByUser},
		{"issues", s.issues.DeleteByUser},
		{"pull requests", s.pulls.DeleteByUser},
		{"commits", s.commits.DeleteByUser},
		{"repositories", s.repos.DeleteByUser},
		{"members", s.members.DeleteByUser},
		{"organizations", s.orgs.DeleteByUser},
	}

	for _, d := range deletes {
		if err := d.fn(ctx, userID); err != nil {
			return fmt.Errorf("deleting %s: %w", d.name, err)
		}
	}
	return nil
}

func (s *IntegrationService) countMirroredData(ctx context.Context, userID int64) (*ResyncResult, error) {
	var result ResyncResult

	orgs, err := s.orgs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting organizations: %w", err)
	}
	result.Organizations = len(orgs)

	repos, err := s.repos.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting repositories: %w", err)
	}
	result.Repositories = len(repos)

	commits, err := s.commits.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting commits: %w", err)
	}
	result.Commits = len(commits)

	pulls, err := s.pulls.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting pull requests: %w", err)
	}
	result.PullRequests = len(pulls)

	issues, err := s.issues.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting issues: %w", err)
	}
	result.Issues = len(issues)

	changelogs, err := s.changelogs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting changelogs: %w", err)
	}
	result.Changelogs = len(changelogs)

	members, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting members: %w", err)
	}
	result.Members = len(members)

	return &result, nil
}
