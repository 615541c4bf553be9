package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// mockStore is an in-memory store keyed by the entity's natural key. It
// satisfies the mirror store ports for whichever record type it is
// instantiated with.
type mockStore[T any] struct {
	mu        sync.Mutex
	items     map[string]T
	keyFn     func(T) string
	userFn    func(T) int64
	upsertErr error
	listErr   error
	deleteErr error
}

func newMockStore[T any](keyFn func(T) string, userFn func(T) int64) *mockStore[T] {
	return &mockStore[T]{items: map[string]T{}, keyFn: keyFn, userFn: userFn}
}

func (s *mockStore[T]) Upsert(_ context.Context, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.items[s.keyFn(item)] = item
	return nil
}

func (s *mockStore[T]) ListByUser(_ context.Context, userID int64) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []T
	for _, item := range s.items {
		if s.userFn(item) == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *mockStore[T]) DeleteByUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for key, item := range s.items {
		if s.userFn(item) == userID {
			delete(s.items, key)
		}
	}
	return nil
}

func (s *mockStore[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// mockStores bundles one mock per mirror collection.
type mockStores struct {
	orgs       *mockStore[model.Organization]
	repos      *mockStore[model.Repository]
	commits    *mockStore[model.Commit]
	pulls      *mockStore[model.PullRequest]
	issues     *mockStore[model.Issue]
	changelogs *mockStore[model.ChangelogEvent]
	members    *mockStore[model.Member]
}

func newMockStores() *mockStores {
	return &mockStores{
		orgs: newMockStore(
			func(o model.Organization) string { return fmt.Sprint(o.GitHubID) },
			func(o model.Organization) int64 { return o.UserID },
		),
		repos: newMockStore(
			func(r model.Repository) string { return fmt.Sprint(r.GitHubID) },
			func(r model.Repository) int64 { return r.UserID },
		),
		commits: newMockStore(
			func(c model.Commit) string { return fmt.Sprintf("%s@%d", c.SHA, c.RepositoryID) },
			func(c model.Commit) int64 { return c.UserID },
		),
		pulls: newMockStore(
			func(p model.PullRequest) string { return fmt.Sprint(p.GitHubID) },
			func(p model.PullRequest) int64 { return p.UserID },
		),
		issues: newMockStore(
			func(i model.Issue) string { return fmt.Sprint(i.GitHubID) },
			func(i model.Issue) int64 { return i.UserID },
		),
		changelogs: newMockStore(
			func(e model.ChangelogEvent) string { return fmt.Sprint(e.GitHubID) },
			func(e model.ChangelogEvent) int64 { return e.UserID },
		),
		members: newMockStore(
			func(m model.Member) string { return fmt.Sprint(m.GitHubID) },
			func(m model.Member) int64 { return m.UserID },
		),
	}
}

// mockIntegrationStore is an in-memory IntegrationStore.
type mockIntegrationStore struct {
	mu           sync.Mutex
	integrations map[int64]model.Integration
	getErr       error
	lastSyncErr  error
}

var _ driven.IntegrationStore = (*mockIntegrationStore)(nil)

func newMockIntegrationStore() *mockIntegrationStore {
	return &mockIntegrationStore{integrations: map[int64]model.Integration{}}
}

func (s *mockIntegrationStore) Upsert(_ context.Context, in model.Integration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.integrations[in.UserID] = in
	return nil
}

func (s *mockIntegrationStore) GetByUserID(_ context.Context, userID int64) (*model.Integration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	in, ok := s.integrations[userID]
	if !ok {
		return nil, nil
	}
	return &in, nil
}

func (s *mockIntegrationStore) SetLastSync(_ context.Context, userID int64, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSyncErr != nil {
		return s.lastSyncErr
	}
	in, ok := s.integrations[userID]
	if !ok {
		return driven.ErrIntegrationNotFound
	}
	in.LastSyncAt = &t
	s.integrations[userID] = in
	return nil
}

func (s *mockIntegrationStore) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.integrations, userID)
	return nil
}

func (s *mockIntegrationStore) lastSync(userID int64) *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.integrations[userID]
	if !ok {
		return nil
	}
	return in.LastSyncAt
}

// mockGitHubClient implements the GitHub port with function hooks. Hooks left
// nil return an empty result. Call counts are recorded per method.
type mockGitHubClient struct {
	mu    sync.Mutex
	calls map[string]int

	fetchAuthenticatedUser func(ctx context.Context) (model.ConnectedAccount, error)
	fetchOrganizations     func(ctx context.Context) ([]model.Organization, error)
	fetchUserRepos         func(ctx context.Context, page, perPage int) ([]model.Repository, error)
	fetchOrgRepos          func(ctx context.Context, org string, page, perPage int) ([]model.Repository, error)
	fetchCommits           func(ctx context.Context, owner, repo string, page, perPage int) ([]model.Commit, error)
	fetchPulls             func(ctx context.Context, owner, repo string, page, perPage int) ([]model.PullRequest, error)
	fetchIssues            func(ctx context.Context, owner, repo string, page, perPage int) ([]model.Issue, error)
	fetchIssueEvents       func(ctx context.Context, owner, repo string, issueNumber int) ([]model.ChangelogEvent, error)
	fetchOrgMembers        func(ctx context.Context, org string, page, perPage int) ([]model.Member, error)
}

var _ driven.GitHubClient = (*mockGitHubClient)(nil)

func newMockGitHubClient() *mockGitHubClient {
	return &mockGitHubClient{calls: map[string]int{}}
}

func (m *mockGitHubClient) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

func (m *mockGitHubClient) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockGitHubClient) FetchAuthenticatedUser(ctx context.Context) (model.ConnectedAccount, error) {
	m.record("FetchAuthenticatedUser")
	if m.fetchAuthenticatedUser == nil {
		return model.ConnectedAccount{}, nil
	}
	return m.fetchAuthenticatedUser(ctx)
}

func (m *mockGitHubClient) FetchOrganizations(ctx context.Context) ([]model.Organization, error) {
	m.record("FetchOrganizations")
	if m.fetchOrganizations == nil {
		return nil, nil
	}
	return m.fetchOrganizations(ctx)
}

func (m *mockGitHubClient) FetchUserRepos(ctx context.Context, page, perPage int) ([]model.Repository, error) {
	m.record("FetchUserRepos")
	if m.fetchUserRepos == nil {
		return nil, nil
	}
	return m.fetchUserRepos(ctx, page, perPage)
}

func (m *mockGitHubClient) FetchOrgRepos(ctx context.Context, org string, page, perPage int) ([]model.Repository, error) {
	m.record("FetchOrgRepos")
	if m.fetchOrgRepos == nil {
		return nil, nil
	}
	return m.fetchOrgRepos(ctx, org, page, perPage)
}

func (m *mockGitHubClient) FetchCommits(ctx context.Context, owner, repo string, page, perPage int) ([]model.Commit, error) {
	m.record("FetchCommits")
	if m.fetchCommits == nil {
		return nil, nil
	}
	return m.fetchCommits(ctx, owner, repo, page, perPage)
}

func (m *mockGitHubClient) FetchPulls(ctx context.Context, owner, repo string, page, perPage int) ([]model.PullRequest, error) {
	m.record("FetchPulls")
	if m.fetchPulls == nil {
		return nil, nil
	}
	return m.fetchPulls(ctx, owner, repo, page, perPage)
}

func (m *mockGitHubClient) FetchIssues(ctx context.Context, owner, repo string, page, perPage int) ([]model.Issue, error) {
	m.record("FetchIssues")
	if m.fetchIssues == nil {
		return nil, nil
	}
	return m.fetchIssues(ctx, owner, repo, page, perPage)
}

func (m *mockGitHubClient) FetchIssueEvents(ctx context.Context, owner, repo string, issueNumber int) ([]model.ChangelogEvent, error) {
	m.record("FetchIssueEvents")
	if m.fetchIssueEvents == nil {
		return nil, nil
	}
	return m.fetchIssueEvents(ctx, owner, repo, issueNumber)
}

func (m *mockGitHubClient) FetchOrgMembers(ctx context.Context, org string, page, perPage int) ([]model.Member, error) {
	m.record("FetchOrgMembers")
	if m.fetchOrgMembers == nil {
		return nil, nil
	}
	return m.fetchOrgMembers(ctx, org, page, perPage)
}

// newTestSyncService wires a SyncService over the given mocks.
func newTestSyncService(client *mockGitHubClient, integrations *mockIntegrationStore, stores *mockStores, pageSize int) *SyncService {
	return NewSyncService(
		func(string) driven.GitHubClient { return client },
		integrations,
		stores.orgs,
		stores.repos,
		stores.commits,
		stores.pulls,
		stores.issues,
		stores.changelogs,
		stores.members,
		pageSize,
	)
}

// newTestIntegrationService wires an IntegrationService over the given mocks.
func newTestIntegrationService(client *mockGitHubClient, integrations *mockIntegrationStore, stores *mockStores, sync *SyncService) *IntegrationService {
	return NewIntegrationService(
		func(string) driven.GitHubClient { return client },
		integrations,
		stores.orgs,
		stores.repos,
		stores.commits,
		stores.pulls,
		stores.issues,
		stores.changelogs,
		stores.members,
		sync,
	)
}
