package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubmirror/hubmirror/internal/domain/model"
)

func makeRepository(githubID, userID int64, fullName string) model.Repository {
	now := time.Date(2026, 1, 11, 9, 0, 0, 0, time.UTC)
	return model.Repository{
		GitHubID:        githubID,
		Name:            "widgets",
		FullName:        fullName,
		Description:     "widget factory",
		Private:         false,
		OwnerLogin:      "acme",
		OwnerID:         100,
		HTMLURL:         "https://github.com/" + fullName,
		CloneURL:        "https://github.com/" + fullName + ".git",
		Language:        "Go",
		StargazersCount: 5,
		DefaultBranch:   "main",
		CreatedAt:       now,
		UpdatedAt:       now,
		UserID:          userID,
	}
}

func TestRepoRepo_UpsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeRepository(1, 42, "acme/widgets")))

	repos, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "acme/widgets", repos[0].FullName)
	assert.Equal(t, "Go", repos[0].Language)
	assert.Nil(t, repos[0].PushedAt)
}

func TestRepoRepo_PushedAtRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	r := makeRepository(1, 42, "acme/widgets")
	pushedAt := time.Date(2026, 1, 22, 18, 0, 0, 0, time.UTC)
	r.PushedAt = &pushedAt
	require.NoError(t, repo.Upsert(ctx, r))

	repos, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	require.NotNil(t, repos[0].PushedAt)
	assert.True(t, repos[0].PushedAt.Equal(pushedAt))
}

func TestRepoRepo_ResyncedRepoUpdatesCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	r := makeRepository(1, 42, "acme/widgets")
	require.NoError(t, repo.Upsert(ctx, r))

	r.StargazersCount = 9
	r.OpenIssuesCount = 3
	require.NoError(t, repo.Upsert(ctx, r))

	repos, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, 9, repos[0].StargazersCount)
	assert.Equal(t, 3, repos[0].OpenIssuesCount)
}

func TestRepoRepo_DeleteByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepoRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeRepository(1, 42, "acme/widgets")))
	require.NoError(t, repo.Upsert(ctx, makeRepository(2, 77, "acme/gadgets")))

	require.NoError(t, repo.DeleteByUser(ctx, 42))

	mine, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := repo.ListByUser(ctx, 77)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}
