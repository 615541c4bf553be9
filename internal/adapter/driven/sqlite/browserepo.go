package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BrowseStore = (*BrowseRepo)(nil)

// collectionSpec describes one browsable collection: its backing table, the
// columns substring search applies to, and the default sort column.
type collectionSpec struct {
	table         string
	searchColumns []string
	defaultSort   string
	columns       []string // Whitelist for sort_by and equality filters.
}

// collections maps public collection names to their schema. Column whitelists
// keep user-supplied sort/filter input out of SQL identifiers.
var collections = map[string]collectionSpec{
	"organizations": {
		table:         "organizations",
		searchColumns: []string{"login", "name", "description"},
		defaultSort:   "id",
		columns: []string{"id", "github_id", "login", "name", "description", "url",
			"avatar_url", "created_at", "updated_at", "user_id"},
	},
	"repositories": {
		table:         "repositories",
		searchColumns: []string{"name", "full_name", "description", "language"},
		defaultSort:   "id",
		columns: []string{"id", "github_id", "name", "full_name", "description", "private",
			"owner_login", "owner_id", "html_url", "clone_url", "language",
			"stargazers_count", "watchers_count", "forks_count", "open_issues_count",
			"default_branch", "created_at", "updated_at", "pushed_at", "user_id"},
	},
	"commits": {
		table:         "commits",
		searchColumns: []string{"message", "author_name", "author_email"},
		defaultSort:   "created_at",
		columns: []string{"id", "sha", "message", "author_name", "author_email", "author_date",
			"committer_name", "committer_email", "committer_date", "html_url",
			"repository_id", "repository_name", "additions", "deletions",
			"total_changes", "user_id"},
	},
	"pull_requests": {
		table:         "pull_requests",
		searchColumns: []string{"title", "body", "author_login"},
		defaultSort:   "created_at",
		columns: []string{"id", "github_id", "number", "title", "body", "state", "author_login",
			"author_id", "assignee_login", "assignee_id", "html_url", "head_ref",
			"base_ref", "created_at", "updated_at", "closed_at", "merged_at",
			"repository_id", "repository_name", "user_id"},
	},
	"issues": {
		table:         "issues",
		searchColumns: []string{"title", "body", "author_login"},
		defaultSort:   "created_at",
		columns: []string{"id", "github_id", "number", "title", "body", "state", "author_login",
			"author_id", "assignee_login", "assignee_id", "labels", "html_url",
			"created_at", "updated_at", "closed_at", "repository_id",
			"repository_name", "user_id"},
	},
	"changelogs": {
		table:         "changelog_events",
		searchColumns: []string{"event", "actor_login"},
		defaultSort:   "id",
		columns: []string{"id", "github_id", "event", "actor_login", "actor_id", "created_at",
			"issue_id", "issue_number", "repository_id", "repository_name", "user_id"},
	},
	"members": {
		table:         "members",
		searchColumns: []string{"login", "name", "bio", "company", "location"},
		defaultSort:   "id",
		columns: []string{"id", "github_id", "login", "name", "email", "bio", "avatar_url",
			"html_url", "company", "location", "created_at", "updated_at",
			"public_repos", "public_gists", "followers", "following", "user_id"},
	},
}

// searchOrder fixes the iteration order of the global search response.
var searchOrder = []string{"organizations", "repositories", "commits", "pull_requests", "issues", "members"}

// BrowseRepo is the SQLite implementation of the generic BrowseStore port.
type BrowseRepo struct {
	db *DB
}

// NewBrowseRepo creates a new BrowseRepo backed by the given DB.
func NewBrowseRepo(db *DB) *BrowseRepo {
	return &BrowseRepo{db: db}
}

// Browse returns one page of records from the named collection, applying
// optional search, equality filters, and sorting. Reads go through the reader
// pool and may observe a sync in progress.
func (r *BrowseRepo) Browse(ctx context.Context, collection string, opts driven.BrowseOptions) (*driven.BrowseResult, error) {
	spec, ok := collections[collection]
	if !ok {
		return nil, fmt.Errorf("browse %q: %w", collection, driven.ErrUnknownCollection)
	}

	where, args, err := buildWhere(spec, opts)
	if err != nil {
		return nil, fmt.Errorf("browse %q: %w", collection, err)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM " + spec.table + where
	if err := r.db.Reader.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %q: %w", collection, err)
	}

	sortCol := spec.defaultSort
	// The commits table has no created_at column; its default sort is the
	// author date.
	if collection == "commits" && sortCol == "created_at" {
		sortCol = "author_date"
	}
	if opts.SortBy != "" {
		if !columnAllowed(spec, opts.SortBy) {
			return nil, fmt.Errorf("browse %q: sort_by %q: %w", collection, opts.SortBy, driven.ErrInvalidBrowseField)
		}
		sortCol = opts.SortBy
	}

	direction := "DESC"
	if strings.EqualFold(opts.SortOrder, "asc") {
		direction = "ASC"
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf("SELECT * FROM %s%s ORDER BY %s %s LIMIT ? OFFSET ?",
		spec.table, where, sortCol, direction)
	queryArgs := append(append([]any{}, args...), limit, offset)

	items, err := r.queryMaps(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("browse %q: %w", collection, err)
	}

	return &driven.BrowseResult{Items: items, TotalItems: total}, nil
}

// Search runs the per-collection substring search across all searchable
// collections.
func (r *BrowseRepo) Search(ctx context.Context, query string, limit int) (map[string][]map[string]any, error) {
	if limit < 1 {
		limit = 50
	}

	results := make(map[string][]map[string]any, len(searchOrder))
	for _, name := range searchOrder {
		spec := collections[name]

		conds := make([]string, 0, len(spec.searchColumns))
		args := make([]any, 0, len(spec.searchColumns)+1)
		for _, col := range spec.searchColumns {
			conds = append(conds, col+" LIKE ? ESCAPE '\\'")
			args = append(args, likePattern(query))
		}
		args = append(args, limit)

		q := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT ?", spec.table, strings.Join(conds, " OR "))
		items, err := r.queryMaps(ctx, q, args...)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", name, err)
		}
		results[name] = items
	}

	return results, nil
}

// buildWhere assembles the WHERE clause for search plus equality filters.
func buildWhere(spec collectionSpec, opts driven.BrowseOptions) (string, []any, error) {
	var conds []string
	var args []any

	if opts.Search != "" {
		searchConds := make([]string, 0, len(spec.searchColumns))
		for _, col := range spec.searchColumns {
			searchConds = append(searchConds, col+" LIKE ? ESCAPE '\\'")
			args = append(args, likePattern(opts.Search))
		}
		conds = append(conds, "("+strings.Join(searchConds, " OR ")+")")
	}

	for field, value := range opts.Filters {
		if !columnAllowed(spec, field) {
			return "", nil, fmt.Errorf("filter %q: %w", field, driven.ErrInvalidBrowseField)
		}
		conds = append(conds, field+" = ?")
		args = append(args, value)
	}

	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// queryMaps executes a query and scans every row into a column-keyed map.
func (r *BrowseRepo) queryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	items := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		item := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			item[col] = v
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return items, nil
}

// columnAllowed reports whether the column belongs to the collection schema.
func columnAllowed(spec collectionSpec, col string) bool {
	for _, c := range spec.columns {
		if c == col {
			return true
		}
	}
	return false
}

// likePattern wraps a search term for case-insensitive substring matching,
// escaping LIKE metacharacters in the user input.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
