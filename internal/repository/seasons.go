package repository

import (
	"context"
	"errors"
	"fmt"

	"sc2monitor/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
)

// SeasonRepository handles season database operations
type SeasonRepository struct {
	db *Database
}

// Upsert inserts or updates a season, keyed on (season_id, server).
func (r *SeasonRepository) Upsert(ctx context.Context, season *models.Season) error {
	query := `
		INSERT INTO seasons (season_id, server, year, number, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (season_id, server) DO UPDATE SET
			year = EXCLUDED.year,
			number = EXCLUDED.number,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time
		RETURNING id
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		season.SeasonID, int(season.Server), season.Year, season.Number,
		season.Start, season.End,
	).Scan(&season.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert season: %w", err)
	}

	return nil
}

// Current returns the latest season recorded for a server.
func (r *SeasonRepository) Current(ctx context.Context, server models.Server) (*models.Season, error) {
	query := `
		SELECT id, season_id, server, year, number, start_time, end_time
		FROM seasons
		WHERE server = $1
		ORDER BY season_id DESC
		LIMIT 1
	`

	var season models.Season
	err := r.db.Pool.QueryRow(ctx, query, int(server)).Scan(
		&season.ID, &season.SeasonID, &season.Server, &season.Year,
		&season.Number, &season.Start, &season.End,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("no season recorded for server %s", server)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current season: %w", err)
	}

	return &season, nil
}
