package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ChangelogStore = (*ChangelogRepo)(nil)

// ChangelogRepo is the SQLite implementation of the ChangelogStore port.
type ChangelogRepo struct {
	db *DB
}

// NewChangelogRepo creates a new ChangelogRepo backed by the given DB.
func NewChangelogRepo(db *DB) *ChangelogRepo {
	return &ChangelogRepo{db: db}
}

// Upsert inserts or replaces a changelog event keyed by its remote id.
func (r *ChangelogRepo) Upsert(ctx context.Context, ev model.ChangelogEvent) error {
	const query = `
		INSERT INTO changelog_events (
			github_id, event, actor_login, actor_id, created_at,
			issue_id, issue_number, repository_id, repository_name, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			event = excluded.event,
			actor_login = excluded.actor_login,
			actor_id = excluded.actor_id,
			created_at = excluded.created_at,
			issue_id = excluded.issue_id,
			issue_number = excluded.issue_number,
			repository_id = excluded.repository_id,
			repository_name = excluded.repository_name,
			user_id = excluded.user_id
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		ev.GitHubID, ev.Event, ev.ActorLogin, ev.ActorID, fmtTime(ev.CreatedAt),
		nullableInt64(ev.IssueID), ev.IssueNumber, ev.RepositoryID, ev.RepositoryName, ev.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert changelog event %d: %w", ev.GitHubID, err)
	}

	return nil
}

// ListByUser returns all changelog events mirrored for the user, newest first.
func (r *ChangelogRepo) ListByUser(ctx context.Context, userID int64) ([]model.ChangelogEvent, error) {
	const query = `
		SELECT github_id, event, actor_login, actor_id, created_at,
		       issue_id, issue_number, repository_id, repository_name, user_id
		FROM changelog_events
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list changelog events: %w", err)
	}
	defer rows.Close()

	var events []model.ChangelogEvent
	for rows.Next() {
		var ev model.ChangelogEvent
		var createdAt string
		var issueID sql.NullInt64

		err := rows.Scan(&ev.GitHubID, &ev.Event, &ev.ActorLogin, &ev.ActorID,
			&createdAt, &issueID, &ev.IssueNumber, &ev.RepositoryID,
			&ev.RepositoryName, &ev.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan changelog event: %w", err)
		}

		ev.IssueID = int64Ptr(issueID)

		if ev.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate changelog events: %w", err)
	}

	return events, nil
}

// DeleteByUser removes all changelog events mirrored for the user.
func (r *ChangelogRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM changelog_events WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete changelog events for user %d: %w", userID, err)
	}

	return nil
}
