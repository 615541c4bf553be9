package model

import "time"

// Commit is a mirrored repository commit. The upsert key is the (SHA,
// RepositoryID) pair: the same SHA can legitimately appear in several
// repositories (forks), so SHA alone is not unique.
type Commit struct {
	SHA            string
	Message        string
	AuthorName     string
	AuthorEmail    string
	AuthorDate     time.Time
	CommitterName  string
	CommitterEmail string
	CommitterDate  time.Time
	HTMLURL        string
	RepositoryID   int64
	RepositoryName string
	Additions      *int // Change stats are only present on detail payloads.
	Deletions      *int
	TotalChanges   *int
	UserID         int64
}
