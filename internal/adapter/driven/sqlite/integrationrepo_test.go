package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

func makeIntegration(userID int64) model.Integration {
	return model.Integration{
		UserID:      userID,
		Username:    "octocat",
		Email:       "octocat@example.com",
		AccessToken: "gho_testtoken",
		Status:      model.IntegrationActive,
		ConnectedAt: time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestIntegrationRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeIntegration(42)))

	got, err := repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "octocat", got.Username)
	assert.Equal(t, "gho_testtoken", got.AccessToken)
	assert.Equal(t, model.IntegrationActive, got.Status)
	assert.True(t, got.ConnectedAt.Equal(time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)))
	assert.Nil(t, got.LastSyncAt)
}

func TestIntegrationRepo_GetMissingReturnsNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db)

	got, err := repo.GetByUserID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIntegrationRepo_UpsertReplacesToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db)
	ctx := context.Background()

	in := makeIntegration(42)
	require.NoError(t, repo.Upsert(ctx, in))

	// Reconnecting replaces the token without creating a second record.
	in.AccessToken = "gho_rotated"
	require.NoError(t, repo.Upsert(ctx, in))

	got, err := repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "gho_rotated", got.AccessToken)
}

func TestIntegrationRepo_SetLastSync(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeIntegration(42)))

	stamp := time.Date(2026, 2, 2, 15, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetLastSync(ctx, 42, stamp))

	got, err := repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got.LastSyncAt)
	assert.True(t, got.LastSyncAt.Equal(stamp))
}

func TestIntegrationRepo_SetLastSyncMissingUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db)

	err := repo.SetLastSync(context.Background(), 999, time.Now().UTC())
	require.ErrorIs(t, err, driven.ErrIntegrationNotFound)
}

func TestIntegrationRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIntegrationRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeIntegration(42)))
	require.NoError(t, repo.Delete(ctx, 42))

	got, err := repo.GetByUserID(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}
