package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubmirror/hubmirror/internal/domain/model"
)

func makeIssue(githubID, userID int64, number int) model.Issue {
	now := time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC)
	return model.Issue{
		GitHubID:       githubID,
		Number:         number,
		Title:          "panic on empty input",
		Body:           "steps to reproduce...",
		State:          "open",
		AuthorLogin:    "octocat",
		AuthorID:       42,
		Labels:         []string{"bug", "good first issue"},
		HTMLURL:        "https://github.com/acme/widgets/issues/1",
		CreatedAt:      now,
		UpdatedAt:      now,
		RepositoryID:   1,
		RepositoryName: "acme/widgets",
		UserID:         userID,
	}
}

func TestIssueRepo_LabelsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, makeIssue(500, 42, 1)))

	issues, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{"bug", "good first issue"}, issues[0].Labels)
}

func TestIssueRepo_NilLabelsStoredAsEmptyList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	issue := makeIssue(500, 42, 1)
	issue.Labels = nil
	require.NoError(t, repo.Upsert(ctx, issue))

	issues, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, []string{}, issues[0].Labels)
}

func TestIssueRepo_AssigneeAndClosedAtNullable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	open := makeIssue(500, 42, 1)
	require.NoError(t, repo.Upsert(ctx, open))

	closed := makeIssue(501, 42, 2)
	login := "hubber"
	assigneeID := int64(77)
	closedAt := time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC)
	closed.State = "closed"
	closed.AssigneeLogin = &login
	closed.AssigneeID = &assigneeID
	closed.ClosedAt = &closedAt
	require.NoError(t, repo.Upsert(ctx, closed))

	issues, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	byNumber := map[int]model.Issue{}
	for _, issue := range issues {
		byNumber[issue.Number] = issue
	}

	assert.Nil(t, byNumber[1].AssigneeLogin)
	assert.Nil(t, byNumber[1].ClosedAt)

	require.NotNil(t, byNumber[2].AssigneeLogin)
	assert.Equal(t, "hubber", *byNumber[2].AssigneeLogin)
	require.NotNil(t, byNumber[2].ClosedAt)
	assert.True(t, byNumber[2].ClosedAt.Equal(closedAt))
}

func TestIssueRepo_UpsertReplacesState(t *testing.T) {
	db := setupTestDB(t)
	repo := NewIssueRepo(db)
	ctx := context.Background()

	issue := makeIssue(500, 42, 1)
	require.NoError(t, repo.Upsert(ctx, issue))

	issue.State = "closed"
	require.NoError(t, repo.Upsert(ctx, issue))

	issues, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "closed", issues[0].State)
}
