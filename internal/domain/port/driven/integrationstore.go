package driven

import (
	"context"
	"errors"
	"time"

	"github.com/hubmirror/hubmirror/internal/domain/model"
)

// ErrIntegrationNotFound indicates no Integration record exists for the
// requested user.
var ErrIntegrationNotFound = errors.New("integration not found")

// IntegrationStore persists the per-user Integration anchor record.
type IntegrationStore interface {
	// Upsert inserts or replaces the Integration keyed by UserID.
	Upsert(ctx context.Context, integration model.Integration) error

	// GetByUserID returns the Integration for the user, or nil, nil when
	// none exists.
	GetByUserID(ctx context.Context, userID int64) (*model.Integration, error)

	// SetLastSync stamps the last successful sync completion time.
	SetLastSync(ctx context.Context, userID int64, t time.Time) error

	// Delete removes the Integration record for the user.
	Delete(ctx context.Context, userID int64) error
}
