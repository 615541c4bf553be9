package model

import "time"

// Member is an organization member. The members list endpoint returns only a
// compact profile, so most fields stay nil until a future enrichment pass.
type Member struct {
	GitHubID    int64
	Login       string
	Name        *string
	Email       *string
	Bio         *string
	AvatarURL   string
	HTMLURL     string
	Company     *string
	Location    *string
	CreatedAt   *time.Time
	UpdatedAt   time.Time
	PublicRepos int
	PublicGists int
	Followers   int
	Following   int
	UserID      int64
}
