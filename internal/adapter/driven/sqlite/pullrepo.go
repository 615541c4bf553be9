package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PullStore = (*PullRepo)(nil)

// PullRepo is the SQLite implementation of the PullStore port.
type PullRepo struct {
	db *DB
}

// NewPullRepo creates a new PullRepo backed by the given DB.
func NewPullRepo(db *DB) *PullRepo {
	return &PullRepo{db: db}
}

// Upsert inserts or replaces a pull request keyed by its remote id.
func (r *PullRepo) Upsert(ctx context.Context, pr model.PullRequest) error {
	const query = `
		INSERT INTO pull_requests (
			github_id, number, title, body, state, author_login, author_id,
			assignee_login, assignee_id, html_url, head_ref, base_ref,
			created_at, updated_at, closed_at, merged_at,
			repository_id, repository_name, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			number = excluded.number,
			title = excluded.title,
			body = excluded.body,
			state = excluded.state,
			author_login = excluded.author_login,
			author_id = excluded.author_id,
			assignee_login = excluded.assignee_login,
			assignee_id = excluded.assignee_id,
			html_url = excluded.html_url,
			head_ref = excluded.head_ref,
			base_ref = excluded.base_ref,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			closed_at = excluded.closed_at,
			merged_at = excluded.merged_at,
			repository_id = excluded.repository_id,
			repository_name = excluded.repository_name,
			user_id = excluded.user_id
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		pr.GitHubID, pr.Number, pr.Title, pr.Body, pr.State, pr.AuthorLogin, pr.AuthorID,
		nullableStr(pr.AssigneeLogin), nullableInt64(pr.AssigneeID), pr.HTMLURL,
		pr.HeadRef, pr.BaseRef, fmtTime(pr.CreatedAt), fmtTime(pr.UpdatedAt),
		fmtTimePtr(pr.ClosedAt), fmtTimePtr(pr.MergedAt),
		pr.RepositoryID, pr.RepositoryName, pr.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert pull request %s#%d: %w", pr.RepositoryName, pr.Number, err)
	}

	return nil
}

// ListByUser returns all pull requests mirrored for the user, newest first.
func (r *PullRepo) ListByUser(ctx context.Context, userID int64) ([]model.PullRequest, error) {
	const query = `
		SELECT github_id, number, title, body, state, author_login, author_id,
		       assignee_login, assignee_id, html_url, head_ref, base_ref,
		       created_at, updated_at, closed_at, merged_at,
		       repository_id, repository_name, user_id
		FROM pull_requests
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list pull requests: %w", err)
	}
	defer rows.Close()

	var pulls []model.PullRequest
	for rows.Next() {
		var pr model.PullRequest
		var assigneeLogin sql.NullString
		var assigneeID sql.NullInt64
		var createdAt, updatedAt string
		var closedAt, mergedAt sql.NullString

		err := rows.Scan(&pr.GitHubID, &pr.Number, &pr.Title, &pr.Body, &pr.State,
			&pr.AuthorLogin, &pr.AuthorID, &assigneeLogin, &assigneeID, &pr.HTMLURL,
			&pr.HeadRef, &pr.BaseRef, &createdAt, &updatedAt, &closedAt, &mergedAt,
			&pr.RepositoryID, &pr.RepositoryName, &pr.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan pull request: %w", err)
		}

		pr.AssigneeLogin = strPtr(assigneeLogin)
		pr.AssigneeID = int64Ptr(assigneeID)

		if pr.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if pr.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		if pr.ClosedAt, err = parseTimePtr(closedAt); err != nil {
			return nil, fmt.Errorf("parse closed_at: %w", err)
		}
		if pr.MergedAt, err = parseTimePtr(mergedAt); err != nil {
			return nil, fmt.Errorf("parse merged_at: %w", err)
		}

		pulls = append(pulls, pr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pull requests: %w", err)
	}

	return pulls, nil
}

// DeleteByUser removes all pull requests mirrored for the user.
func (r *PullRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM pull_requests WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete pull requests for user %d: %w", userID, err)
	}

	return nil
}

// nullableStr maps a *string to its value or SQL NULL.
func nullableStr(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullableInt64 maps a *int64 to its value or SQL NULL.
func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
