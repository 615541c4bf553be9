package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommitStore = (*CommitRepo)(nil)

// CommitRepo is the SQLite implementation of the CommitStore port.
type CommitRepo struct {
	db *DB
}

// NewCommitRepo creates a new CommitRepo backed by the given DB.
func NewCommitRepo(db *DB) *CommitRepo {
	return &CommitRepo{db: db}
}

// Upsert inserts or replaces a commit keyed by the (sha, repository_id) pair.
func (r *CommitRepo) Upsert(ctx context.Context, c model.Commit) error {
	const query = `
		INSERT INTO commits (
			sha, message, author_name, author_email, author_date,
			committer_name, committer_email, committer_date, html_url,
			repository_id, repository_name, additions, deletions, total_changes, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sha, repository_id) DO UPDATE SET
			message = excluded.message,
			author_name = excluded.author_name,
			author_email = excluded.author_email,
			author_date = excluded.author_date,
			committer_name = excluded.committer_name,
			committer_email = excluded.committer_email,
			committer_date = excluded.committer_date,
			html_url = excluded.html_url,
			repository_name = excluded.repository_name,
			additions = excluded.additions,
			deletions = excluded.deletions,
			total_changes = excluded.total_changes,
			user_id = excluded.user_id
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		c.SHA, c.Message, c.AuthorName, c.AuthorEmail, fmtTime(c.AuthorDate),
		c.CommitterName, c.CommitterEmail, fmtTime(c.CommitterDate), c.HTMLURL,
		c.RepositoryID, c.RepositoryName, nullableInt(c.Additions), nullableInt(c.Deletions),
		nullableInt(c.TotalChanges), c.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert commit %s in %s: %w", c.SHA, c.RepositoryName, err)
	}

	return nil
}

// ListByUser returns all commits mirrored for the user, newest author date first.
func (r *CommitRepo) ListByUser(ctx context.Context, userID int64) ([]model.Commit, error) {
	const query = `
		SELECT sha, message, author_name, author_email, author_date,
		       committer_name, committer_email, committer_date, html_url,
		       repository_id, repository_name, additions, deletions, total_changes, user_id
		FROM commits
		WHERE user_id = ?
		ORDER BY author_date DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var commits []model.Commit
	for rows.Next() {
		var c model.Commit
		var authorDate, committerDate string
		var additions, deletions, total sql.NullInt64

		err := rows.Scan(&c.SHA, &c.Message, &c.AuthorName, &c.AuthorEmail, &authorDate,
			&c.CommitterName, &c.CommitterEmail, &committerDate, &c.HTMLURL,
			&c.RepositoryID, &c.RepositoryName, &additions, &deletions, &total, &c.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}

		if c.AuthorDate, err = parseTime(authorDate); err != nil {
			return nil, fmt.Errorf("parse author_date: %w", err)
		}
		if c.CommitterDate, err = parseTime(committerDate); err != nil {
			return nil, fmt.Errorf("parse committer_date: %w", err)
		}

		c.Additions = intPtr(additions)
		c.Deletions = intPtr(deletions)
		c.TotalChanges = intPtr(total)

		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate commits: %w", err)
	}

	return commits, nil
}

// DeleteByUser removes all commits mirrored for the user.
func (r *CommitRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM commits WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete commits for user %d: %w", userID, err)
	}

	return nil
}

// nullableInt maps a *int to its value or SQL NULL.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
