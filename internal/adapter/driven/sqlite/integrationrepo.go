package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hubmirror/hubmirror/internal/domain/model"
	"github.com/hubmirror/hubmirror/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IntegrationStore = (*IntegrationRepo)(nil)

// IntegrationRepo is the SQLite implementation of the IntegrationStore port.
type IntegrationRepo struct {
	db *DB
}

// NewIntegrationRepo creates a new IntegrationRepo backed by the given DB.
func NewIntegrationRepo(db *DB) *IntegrationRepo {
	return &IntegrationRepo{db: db}
}

// Upsert inserts or replaces the Integration keyed by user_id.
func (r *IntegrationRepo) Upsert(ctx context.Context, in model.Integration) error {
	const query = `
		INSERT INTO integrations (user_id, username, email, access_token, status, connected_at, last_sync_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			access_token = excluded.access_token,
			status = excluded.status,
			connected_at = excluded.connected_at,
			last_sync_at = excluded.last_sync_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		in.UserID, in.Username, in.Email, in.AccessToken, string(in.Status),
		fmtTime(in.ConnectedAt), fmtTimePtr(in.LastSyncAt),
	)
	if err != nil {
		return fmt.Errorf("upsert integration for user %d: %w", in.UserID, err)
	}

	return nil
}

// GetByUserID returns the Integration for the user, or nil, nil when none
// exists.
func (r *IntegrationRepo) GetByUserID(ctx context.Context, userID int64) (*model.Integration, error) {
	const query = `
		SELECT user_id, username, email, access_token, status, connected_at, last_sync_at
		FROM integrations
		WHERE user_id = ?
	`

	var in model.Integration
	var status, connectedAt string
	var lastSyncAt sql.NullString

	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(
		&in.UserID, &in.Username, &in.Email, &in.AccessToken, &status, &connectedAt, &lastSyncAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get integration for user %d: %w", userID, err)
	}

	in.Status = model.IntegrationStatus(status)

	if in.ConnectedAt, err = parseTime(connectedAt); err != nil {
		return nil, fmt.Errorf("parse connected_at: %w", err)
	}
	if in.LastSyncAt, err = parseTimePtr(lastSyncAt); err != nil {
		return nil, fmt.Errorf("parse last_sync_at: %w", err)
	}

	return &in, nil
}

// SetLastSync stamps the last successful sync completion time.
func (r *IntegrationRepo) SetLastSync(ctx context.Context, userID int64, t time.Time) error {
	const query = `UPDATE integrations SET last_sync_at = ? WHERE user_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, fmtTime(t), userID)
	if err != nil {
		return fmt.Errorf("set last_sync_at for user %d: %w", userID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set last_sync_at for user %d: %w", userID, driven.ErrIntegrationNotFound)
	}

	return nil
}

// Delete removes the Integration record for the user.
func (r *IntegrationRepo) Delete(ctx context.Context, userID int64) error {
	const query = `DELETE FROM integrations WHERE user_id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("delete integration for user %d: %w", userID, err)
	}

	return nil
}
