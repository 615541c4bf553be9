package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RepoStore = (*RepoRepo)(nil)

// RepoRepo is the SQLite implementation of the RepoStore port.
type RepoRepo struct {
	db *DB
}

// NewRepoRepo creates a new RepoRepo backed by the given DB.
func NewRepoRepo(db *DB) *RepoRepo {
	return &RepoRepo{db: db}
}

// Upsert inserts or replaces a repository keyed by its remote id.
func (r *RepoRepo) Upsert(ctx context.Context, repo model.Repository) error {
	const query = `
		INSERT INTO repositories (
			github_id, name, full_name, description, private, owner_login, owner_id,
			html_url, clone_url, language, stargazers_count, watchers_count,
			forks_count, open_issues_count, default_branch, created_at, updated_at,
			pushed_at, user_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(github_id) DO UPDATE SET
			name = excluded.name,
			full_name = excluded.full_name,
			description = excluded.description,
			private = excluded.private,
			owner_login = excluded.owner_login,
			owner_id = excluded.owner_id,
			html_url = excluded.html_url,
			clone_url = excluded.clone_url,
			language = excluded.language,
			stargazers_count = excluded.stargazers_count,
			watchers_count = excluded.watchers_count,
			forks_count = excluded.forks_count,
			open_issues_count = excluded.open_issues_count,
			default_branch = excluded.default_branch,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			pushed_at = excluded.pushed_at,
			user_id = excluded.user_id
	`

	private := 0
	if repo.Private {
		private = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		repo.GitHubID, repo.Name, repo.FullName, repo.Description, private,
		repo.OwnerLogin, repo.OwnerID, repo.HTMLURL, repo.CloneURL, repo.Language,
		repo.StargazersCount, repo.WatchersCount, repo.ForksCount, repo.OpenIssuesCount,
		repo.DefaultBranch, fmtTime(repo.CreatedAt), fmtTime(repo.UpdatedAt),
		fmtTimePtr(repo.PushedAt), repo.UserID,
	)
	if err != nil {
		return fmt.Errorf("upsert repository %s: %w", repo.FullName, err)
	}

	return nil
}

// ListByUser returns all repositories mirrored for the user, ordered by full name.
func (r *RepoRepo) ListByUser(ctx context.Context, userID int64) ([]model.Repository, error) {
	const query = `
		SELECT github_id, name, full_name, description, private, owner_login, owner_id,
		       html_url, clone_url, language, stargazers_count, watchers_count,
		       forks_count, open_issues_count, default_branch, created_at, updated_at,
		       pushed_at, user_id
		FROM repositories
		WHERE user_id = ?
		ORDER BY full_name
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *repo)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repositories: %w", err)
	}

	return repos, nil
}

// DeleteByUser removes all repositories mirrored for the user.
func (r *RepoRepo) DeleteByUser(ctx context.Context, userID int64) error {
	const query = `DELETE FROM repositories WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete repositories for user %d: %w", userID, err)
	}

	return nil
}

func scanRepository(s scanner) (*model.Repository, error) {
	var repo model.Repository
	var private int
	var createdAt, updatedAt string
	var pushedAt sql.NullString

	err := s.Scan(
		&repo.GitHubID, &repo.Name, &repo.FullName, &repo.Description, &private,
		&repo.OwnerLogin, &repo.OwnerID, &repo.HTMLURL, &repo.CloneURL, &repo.Language,
		&repo.StargazersCount, &repo.WatchersCount, &repo.ForksCount, &repo.OpenIssuesCount,
		&repo.DefaultBranch, &createdAt, &updatedAt, &pushedAt, &repo.UserID,
	)
	if err != nil {
		return nil, err
	}

	repo.Private = private != 0

	if repo.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if repo.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if repo.PushedAt, err = parseTimePtr(pushedAt); err != nil {
		return nil, fmt.Errorf("parse pushed_at: %w", err)
	}

	return &repo, nil
}
