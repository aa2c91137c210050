package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"
)

// GetSettings loads the capacity settings singleton. Returns ErrNotFound when
// no row has been written yet.
func (db *DB) GetSettings(ctx context.Context) (*models.CapacitySettings, error) {
	var payload string
	var updatedAt time.Time
	var version int64
	err := db.QueryRowContext(ctx,
		`SELECT payload, updated_at, version FROM settings WHERE id = 1`).
		Scan(&payload, &updatedAt, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	settings := models.DefaultCapacitySettings()
	if err := json.Unmarshal([]byte(payload), settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	settings.UpdatedAt = updatedAt
	settings.Version = version
	return settings, nil
}

// InsertSettings writes the first settings row. Fails if one already exists,
// so concurrent initializers resolve to a single winner.
func (db *DB) InsertSettings(ctx context.Context, settings *models.CapacitySettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	now := time.Now()
	_, err = db.ExecContext(ctx,
		`INSERT INTO settings (id, payload, updated_at, version) VALUES (1, ?, ?, 1)`,
		string(payload), now)
	if err != nil {
		return fmt.Errorf("insert settings: %w", err)
	}
	settings.UpdatedAt = now
	settings.Version = 1
	return nil
}

// SaveSettings replaces the singleton with a versioned update.
func (db *DB) SaveSettings(ctx context.Context, settings *models.CapacitySettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	now := time.Now()
	result, err := db.ExecContext(ctx,
		`UPDATE settings SET payload = ?, updated_at = ?, version = version + 1
         WHERE id = 1 AND version = ?`,
		string(payload), now, settings.Version)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	settings.UpdatedAt = now
	settings.Version++
	return nil
}
