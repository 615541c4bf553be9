package model

import "time"

// Repository is a mirrored GitHub repository, either owned by the user
// directly or by one of their organizations.
type Repository struct {
	GitHubID        int64
	Name            string
	FullName        string
	Description     string
	Private         bool
	OwnerLogin      string
	OwnerID         int64
	HTMLURL         string
	CloneURL        string
	Language        string
	StargazersCount int
	WatchersCount   int
	ForksCount      int
	OpenIssuesCount int
	DefaultBranch   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PushedAt        *time.Time // Nil for repositories that were never pushed to.
	UserID          int64
}
