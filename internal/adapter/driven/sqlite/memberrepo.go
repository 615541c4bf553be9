package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MemberStore = (*MemberRepo)(nil)

// MemberRepo is the SQLite implementation of the MemberStore port.
type MemberRepo struct {
	db *DB
}

// NewMemberRepo creates a new MemberRepo backed by the given DB.
func NewMemberRepo(db *DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// Upsert inserts or replaces an organization member keyed by its remote id.
func (r *MemberRepo) Upsert(ctx context.Context, m model.Member) error {
	const query = `
		INSERT INTO members (
			github_id, login, name, email, bio, avatar_url, html_url,
			company, location, created_at, updated_at,
			public_repos, public_gists, followers, following, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			login = excluded.login,
			name = excluded.name,
			email = excluded.email,
			bio = excluded.bio,
			avatar_url = excluded.avatar_url,
			html_url = excluded.html_url,
			company = excluded.company,
			location = excluded.location,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			public_repos = excluded.public_repos,
			public_gists = excluded.public_gists,
			followers = excluded.followers,
			following = excluded.following,
			user_id = excluded.user_id
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		m.GitHubID, m.Login, nullableStr(m.Name), nullableStr(m.Email), nullableStr(m.Bio),
		m.AvatarURL, m.HTMLURL, nullableStr(m.Company), nullableStr(m.Location),
		fmtTimePtr(m.CreatedAt), fmtTime(m.UpdatedAt),
		m.PublicRepos, m.PublicGists, m.Followers, m.Following, m.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert member %s: %w", m.Login, err)
	}

	return nil
}

// ListByUser returns all members mirrored for the user, ordered by login.
func (r *MemberRepo) ListByUser(ctx context.Context, userID int64) ([]model.Member, error) {
	const query = `
		SELECT github_id, login, name, email, bio, avatar_url, html_url,
		       company, location, created_at, updated_at,
		       public_repos, public_gists, followers, following, user_id
		FROM members
		WHERE user_id = ?
		ORDER BY login
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		var name, email, bio, company, location, createdAt sql.NullString
		var updatedAt string

		err := rows.Scan(&m.GitHubID, &m.Login, &name, &email, &bio,
			&m.AvatarURL, &m.HTMLURL, &company, &location, &createdAt, &updatedAt,
			&m.PublicRepos, &m.PublicGists, &m.Followers, &m.Following, &m.UserID)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}

		m.Name = strPtr(name)
		m.Email = strPtr(email)
		m.Bio = strPtr(bio)
		m.Company = strPtr(company)
		m.Location = strPtr(location)

		if m.CreatedAt, err = parseTimePtr(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}

		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return members, nil
}

// DeleteByUser removes all members mirrored for the user.
func (r *MemberRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM members WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete members for user %d: %w", userID, err)
	}

	return nil
}
