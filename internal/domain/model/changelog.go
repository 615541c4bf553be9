package model

import "time"

// ChangelogEvent is one entry of an issue's event timeline (labeled, closed,
// assigned, ...).
type ChangelogEvent struct {
	GitHubID       int64
	Event          string
	ActorLogin     string
	ActorID        int64
	CreatedAt      time.Time
	IssueID        *int64 // Absent on some event payloads.
	IssueNumber    int
	RepositoryID   int64
	RepositoryName string
	UserID         int64
}
