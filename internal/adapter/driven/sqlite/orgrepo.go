package sqlite

import (
	"context"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.OrgStore = (*OrgRepo)(nil)

// OrgRepo is the SQLite implementation of the OrgStore port.
type OrgRepo struct {
	db *DB
}

// NewOrgRepo creates a new OrgRepo backed by the given DB.
func NewOrgRepo(db *DB) *OrgRepo {
	return &OrgRepo{db: db}
}

// Upsert inserts or replaces an organization keyed by its remote id.
func (r *OrgRepo) Upsert(ctx context.Context, org model.Organization) error {
	const query = `
		INSERT INTO organizations (github_id, login, name, description, url, avatar_url, created_at, updated_at, user_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			description = excluded.description,
			url = excluded.url,
			avatar_url = excluded.avatar_url,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			user_id = excluded.user_id
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		org.GitHubID, org.Login, org.Name, org.Description, org.URL, org.AvatarURL,
		fmtTime(org.CreatedAt), fmtTime(org.UpdatedAt), org.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert organization %s: %w", org.Login, err)
	}

	return nil
}

// ListByUser returns all organizations mirrored for the user, ordered by login.
func (r *OrgRepo) ListByUser(ctx context.Context, userID int64) ([]model.Organization, error) {
	const query = `
		SELECT github_id, login, name, description, url, avatar_url, created_at, updated_at, user_id
		FROM organizations
		WHERE user_id = ?
		ORDER BY login
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []model.Organization
	for rows.Next() {
		var org model.Organization
		var createdAt, updatedAt string

		err := rows.Scan(&org.GitHubID, &org.Login, &org.Name, &org.Description,
			&org.URL, &org.AvatarURL, &createdAt, &updatedAt, &org.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}

		if org.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if org.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}

		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}

	return orgs, nil
}

// DeleteByUser removes all organizations mirrored for the user.
func (r *OrgRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM organizations WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete organizations for user %d: %w", userID, err)
	}

	return nil
}
