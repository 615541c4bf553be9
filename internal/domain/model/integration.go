// Package model contains the canonical records mirrored from GitHub.
package model

import "time"

// IntegrationStatus describes the lifecycle state of a user's GitHub link.
type IntegrationStatus string

const (
	IntegrationActive IntegrationStatus = "active"
)

// Integration is the per-user anchor record created when the OAuth flow
// completes. UserID is the GitHub numeric id of the authorizing account and
// scopes every other mirrored record.
type Integration struct {
	UserID      int64
	Username    string
	Email       string
	AccessToken string
	Status      IntegrationStatus
	ConnectedAt time.Time
	LastSyncAt  *time.Time // Nil until the first successful resync.
}

// ConnectedAccount is the identity returned by the authenticated-user
// endpoint during the OAuth callback.
type ConnectedAccount struct {
	ID    int64
	Login string
	Email string
}
