package model

import "time"

// Organization is a GitHub organization the authorizing user belongs to.
type Organization struct {
	GitHubID    int64
	Login       string
	Name        string
	Description string
	URL         string
	AvatarURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      int64 // Owning-user scope; assigned by the sync orchestrator.
}
