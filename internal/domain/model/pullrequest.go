package model

import "time"

// PullRequest is a mirrored pull request.
type PullRequest struct {
	GitHubID       int64
	Number         int
	Title          string
	Body           string
	State          string
	AuthorLogin    string
	AuthorID       int64
	AssigneeLogin  *string
	AssigneeID     *int64
	HTMLURL        string
	HeadRef        string
	BaseRef        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ClosedAt       *time.Time
	MergedAt       *time.Time
	RepositoryID   int64
	RepositoryName string
	UserID         int64
}
