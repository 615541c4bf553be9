package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

const testUserID = int64(42)

func seedIntegration(t *testing.T, store *mockIntegrationStore) {
	t.Helper()
	err := store.Upsert(context.Background(), model.Integration{
		UserID:      testUserID,
		Username:    "octocat",
		AccessToken: "gho_test",
		Status:      model.IntegrationActive,
		ConnectedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func repoPage(start, count int) []model.Repository {
	out := make([]model.Repository, 0, count)
	for i := 0; i < count; i++ {
		n := start + i
		out = append(out, model.Repository{
			GitHubID:   int64(1000 + n),
			Name:       fmt.Sprintf("repo-%d", n),
			FullName:   fmt.Sprintf("acme/repo-%d", n),
			OwnerLogin: "acme",
			OwnerID:    1,
		})
	}
	return out
}

func TestSyncAll_NoIntegration(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	svc := newTestSyncService(client, integrations, stores, 100)

	err := svc.SyncAll(context.Background(), testUserID)
	require.ErrorIs(t, err, driven.ErrIntegrationNotFound)
}

func TestSyncAll_PaginatesUntilShortPage(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	// Pages of 100, 100, then 37: the loop must stop after the short page.
	client.fetchUserRepos = func(_ context.Context, page, perPage int) ([]model.Repository, error) {
		require.Equal(t, 100, perPage)
		switch page {
		case 1, 2:
			return repoPage((page-1)*100, 100), nil
		case 3:
			return repoPage(200, 37), nil
		default:
			t.Fatalf("unexpected page %d", page)
			return nil, nil
		}
	}

	svc := newTestSyncService(client, integrations, stores, 100)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	assert.Equal(t, 3, client.callCount("FetchUserRepos"))
	assert.Equal(t, 237, stores.repos.count())
}

func TestSyncAll_EmptyFirstPageStopsImmediately(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	svc := newTestSyncService(client, integrations, stores, 100)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	assert.Equal(t, 1, client.callCount("FetchUserRepos"))
	assert.Equal(t, 0, stores.repos.count())
}

func TestSyncAll_AssignsScopeFields(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchUserRepos = func(_ context.Context, page, _ int) ([]model.Repository, error) {
		if page > 1 {
			return nil, nil
		}
		return repoPage(0, 1), nil
	}
	client.fetchCommits = func(_ context.Context, _, _ string, page, _ int) ([]model.Commit, error) {
		if page > 1 {
			return nil, nil
		}
		return []model.Commit{{SHA: "abc123", Message: "init"}}, nil
	}

	svc := newTestSyncService(client, integrations, stores, 100)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	repos, err := stores.repos.ListByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, repos, 1)

	commits, err := stores.commits.ListByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, int64(1000), commits[0].RepositoryID)
	assert.Equal(t, "acme/repo-0", commits[0].RepositoryName)
	assert.Equal(t, testUserID, commits[0].UserID)
}

func TestSyncAll_PullRequestMarkedIssuesNotStored(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchUserRepos = func(_ context.Context, page, _ int) ([]model.Repository, error) {
		if page > 1 {
			return nil, nil
		}
		return repoPage(0, 1), nil
	}
	// A full page dominated by PR-marked items must still advance pagination.
	client.fetchIssues = func(_ context.Context, _, _ string, page, _ int) ([]model.Issue, error) {
		switch page {
		case 1:
			return []model.Issue{
				{GitHubID: 1, Number: 1, IsPullRequest: true},
				{GitHubID: 2, Number: 2, IsPullRequest: true},
			}, nil
		case 2:
			return []model.Issue{{GitHubID: 3, Number: 3}}, nil
		default:
			t.Fatalf("unexpected page %d", page)
			return nil, nil
		}
	}

	svc := newTestSyncService(client, integrations, stores, 2)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	assert.Equal(t, 2, client.callCount("FetchIssues"))
	assert.Equal(t, 1, stores.issues.count())
}

func TestSyncAll_BranchFailureDoesNotAbortSiblings(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchUserRepos = func(_ context.Context, page, _ int) ([]model.Repository, error) {
		if page > 1 {
			return nil, nil
		}
		return repoPage(0, 1), nil
	}
	client.fetchCommits = func(context.Context, string, string, int, int) ([]model.Commit, error) {
		return nil, errors.New("commits endpoint down")
	}
	client.fetchPulls = func(_ context.Context, _, _ string, page, _ int) ([]model.PullRequest, error) {
		if page > 1 {
			return nil, nil
		}
		return []model.PullRequest{{GitHubID: 900, Number: 1}}, nil
	}
	client.fetchIssues = func(_ context.Context, _, _ string, page, _ int) ([]model.Issue, error) {
		if page > 1 {
			return nil, nil
		}
		return []model.Issue{{GitHubID: 600, Number: 1}}, nil
	}

	svc := newTestSyncService(client, integrations, stores, 100)

	// The run still succeeds: branch failures are logged, not propagated.
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	assert.Equal(t, 0, stores.commits.count())
	assert.Equal(t, 1, stores.pulls.count())
	assert.Equal(t, 1, stores.issues.count())
	assert.NotNil(t, integrations.lastSync(testUserID))
}

func TestSyncAll_OrganizationStageFailureAbortsRun(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchOrganizations = func(context.Context) ([]model.Organization, error) {
		return nil, errors.New("orgs endpoint down")
	}

	svc := newTestSyncService(client, integrations, stores, 100)

	err := svc.SyncAll(context.Background(), testUserID)
	require.Error(t, err)
	assert.Equal(t, 0, client.callCount("FetchUserRepos"))
	assert.Nil(t, integrations.lastSync(testUserID))
}

func TestSyncAll_MemberFailureDoesNotAbortRun(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchOrganizations = func(context.Context) ([]model.Organization, error) {
		return []model.Organization{{GitHubID: 10, Login: "acme"}}, nil
	}
	client.fetchOrgMembers = func(context.Context, string, int, int) ([]model.Member, error) {
		return nil, errors.New("members endpoint down")
	}

	svc := newTestSyncService(client, integrations, stores, 100)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	assert.Equal(t, 1, stores.orgs.count())
	assert.NotNil(t, integrations.lastSync(testUserID))
}

func TestSyncAll_OrgReposDrivenByStoredOrgs(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchOrganizations = func(context.Context) ([]model.Organization, error) {
		return []model.Organization{{GitHubID: 10, Login: "acme"}}, nil
	}
	var orgsSeen []string
	client.fetchOrgRepos = func(_ context.Context, org string, page, _ int) ([]model.Repository, error) {
		if page > 1 {
			return nil, nil
		}
		orgsSeen = append(orgsSeen, org)
		return []model.Repository{{GitHubID: 2000, Name: "infra", FullName: "acme/infra", OwnerLogin: "acme"}}, nil
	}

	svc := newTestSyncService(client, integrations, stores, 100)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	assert.Equal(t, []string{"acme"}, orgsSeen)
	assert.Equal(t, 1, stores.repos.count())
}

func TestSyncAll_IssueEventsFetchedPerStoredIssue(t *testing.T) {
	client := newMockGitHubClient()
	integrations := newMockIntegrationStore()
	stores := newMockStores()
	seedIntegration(t, integrations)

	client.fetchUserRepos = func(_ context.Context, page, _ int) ([]model.Repository, error) {
		if page > 1 {
			return nil, nil
		}
		return repoPage(0, 1), nil
	}
	client.fetchIssues = func(_ context.Context, _, _ string, page, _ int) ([]model.Issue, error) {
		if page > 1 {
			return nil, nil
		}
		return []model.Issue{
			{GitHubID: 600, Number: 7},
			{GitHubID: 601, Number: 8, IsPullRequest: true},
		}, nil
	}
	client.fetchIssueEvents = func(_ context.Context, _, _ string, issueNumber int) ([]model.ChangelogEvent, error) {
		require.Equal(t, 7, issueNumber)
		return []model.ChangelogEvent{{GitHubID: 5000, Event: "labeled", IssueNumber: issueNumber}}, nil
	}

	svc := newTestSyncService(client, integrations, stores, 100)
	require.NoError(t, svc.SyncAll(context.Background(), testUserID))

	// Only the real issue gets a changelog pass; the PR-marked item does not.
	assert.Equal(t, 1, client.callCount("FetchIssueEvents"))

	events, err := stores.changelogs.ListByUser(context.Background(), testUserID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.NotNil(t, events[0].IssueID)
	assert.Equal(t, int64(600), *events[0].IssueID)
	assert.Equal(t, int64(1000), events[0].RepositoryID)
}
