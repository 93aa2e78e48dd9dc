package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lexicalmathical/notehub/internal/models"
)

// GetCursor returns the sync cursor for a repository, or nil if the
// repository has never completed a full sync pass.
func (db *DB) GetCursor(repoID int64) (*models.SyncCursor, error) {
	query := `SELECT last_synced_at, last_seen_update FROM sync_cursors WHERE repository_id = ?`

	var (
		cursor         models.SyncCursor
		lastSeenUpdate sql.NullTime
	)
	err := db.QueryRow(query, repoID).Scan(&cursor.LastSyncedAt, &lastSeenUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}
	if lastSeenUpdate.Valid {
		cursor.LastSeenUpdate = lastSeenUpdate.Time
	}

	return &cursor, nil
}

// SetCursor records the completion of a sync pass for a repository. Callers
// must only invoke this after every page of the pass has been drained; an
// aborted pass leaves the previous cursor in place.
func (db *DB) SetCursor(repoID int64, cursor *models.SyncCursor) error {
	query := `
	INSERT INTO sync_cursors (repository_id, last_synced_at, last_seen_update)
	VALUES (?, ?, ?)
	ON CONFLICT(repository_id) DO UPDATE SET
		last_synced_at = excluded.last_synced_at,
		last_seen_update = excluded.last_seen_update
	`

	var lastSeenUpdate interface{}
	if !cursor.LastSeenUpdate.IsZero() {
		lastSeenUpdate = cursor.LastSeenUpdate
	}

	_, err := db.Exec(query, repoID, cursor.LastSyncedAt, lastSeenUpdate)
	if err != nil {
		return fmt.Errorf("failed to set sync cursor: %w", err)
	}

	return nil
}
