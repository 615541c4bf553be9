package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IssueStore = (*IssueRepo)(nil)

// IssueRepo is the SQLite implementation of the IssueStore port.
type IssueRepo struct {
	db *DB
}

// NewIssueRepo creates a new IssueRepo backed by the given DB.
func NewIssueRepo(db *DB) *IssueRepo {
	return &IssueRepo{db: db}
}

// Upsert inserts or replaces an issue keyed by its remote id. Labels are
// serialized as a JSON array in the TEXT column.
func (r *IssueRepo) Upsert(ctx context.Context, issue model.Issue) error {
	const query = `
		INSERT INTO issues (
			github_id, number, title, body, state, author_login, author_id,
			assignee_login, assignee_id, labels, html_url,
			created_at, updated_at, closed_at,
			repository_id, repository_name, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			body = excluded.body,
			state = excluded.state,
			author_login = excluded.author_login,
			author_id = excluded.author_id,
			assignee_login = excluded.assignee_login,
			assignee_id = excluded.assignee_id,
			labels = excluded.labels,
			html_url = excluded.html_url,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at,
			repository_id = excluded.repository_id,
			repository_name = excluded.repository_name,
			user_id = excluded.user_id
	`

	labels := issue.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return fmt.Errorf("marshal labels: %w", err)
	}

	_, err = r.db.Writer.ExecContext(ctx, query,
		issue.GitHubID, issue.Number, issue.Title, issue.Body, issue.State,
		issue.AuthorLogin, issue.AuthorID, nullableStr(issue.AssigneeLogin),
		nullableInt64(issue.AssigneeID), string(labelsJSON), issue.HTMLURL,
		fmtTime(issue.CreatedAt), fmtTime(issue.UpdatedAt), fmtTimePtr(issue.ClosedAt),
		issue.RepositoryID, issue.RepositoryName, issue.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert issue %s#%d: %w", issue.RepositoryName, issue.Number, err)
	}

	return nil
}

// ListByUser returns all issues mirrored for the user, newest first.
func (r *IssueRepo) ListByUser(ctx context.Context, userID int64) ([]model.Issue, error) {
	const query = `
		SELECT github_id, number, title, body, state, author_login, author_id,
		       assignee_login, assignee_id, labels, html_url,
		       created_at, updated_at, closed_at,
		       repository_id, repository_name, user_id
		FROM issues
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		var issue model.Issue
		var assigneeLogin sql.NullString
		var assigneeID sql.NullInt64
		var labelsJSON, createdAt, updatedAt string
		var closedAt sql.NullString

		err := rows.Scan(&issue.GitHubID, &issue.Number, &issue.Title, &issue.Body,
			&issue.State, &issue.AuthorLogin, &issue.AuthorID, &assigneeLogin,
			&assigneeID, &labelsJSON, &issue.HTMLURL, &createdAt, &updatedAt,
			&closedAt, &issue.RepositoryID, &issue.RepositoryName, &issue.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}

		issue.AssigneeLogin = strPtr(assigneeLogin)
		issue.AssigneeID = int64Ptr(assigneeID)

		if err := json.Unmarshal([]byte(labelsJSON), &issue.Labels); err != nil {
			return nil, fmt.Errorf("unmarshal labels: %w", err)
		}

		if issue.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if issue.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		if issue.ClosedAt, err = parseTimePtr(closedAt); err != nil {
			return nil, fmt.Errorf("parse closed_at: %w", err)
		}

		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}

	return issues, nil
}

// DeleteByUser removes all issues mirrored for the user.
func (r *IssueRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM issues WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete issues for user %d: %w", userID, err)
	}

	return nil
}
