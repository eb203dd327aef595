package repository

import (
	"context"
	"fmt"

	"sc2monitor/ingestion/internal/models"
)

// LogRepository is the database log sink: warnings and errors are mirrored
// into the logs table so they can be inspected without shell access to the
// worker host.
type LogRepository struct {
	db *Database
}

// Insert stores one log entry.
func (r *LogRepository) Insert(ctx context.Context, entry *models.LogEntry) error {
	query := `
		INSERT INTO logs (logger, level, trace, msg)
		VALUES ($1, $2, $3, $4)
		RETURNING id, logged_at
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		entry.Logger, entry.Level, entry.Trace, entry.Message,
	).Scan(&entry.ID, &entry.LoggedAt)

	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	return nil
}
