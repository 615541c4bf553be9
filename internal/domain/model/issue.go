package model

import "time"

// Issue is a mirrored repository issue. The GitHub issues feed conflates
// issues and pull requests; items carrying a pull-request marker are flagged
// via IsPullRequest and must never be stored as issues.
type Issue struct {
	GitHubID       int64
	Number         int
	Title          string
	Body           string
	State          string
	AuthorLogin    string
	AuthorID       int64
	AssigneeLogin  *string
	AssigneeID     *int64
	Labels         []string
	HTMLURL        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
	RepositoryID   int64
	RepositoryName string
	UserID         int64

	// Transient field populated during GitHub fetch, not persisted.
	IsPullRequest bool
}
