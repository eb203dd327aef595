package repository

import (
	"context"
	"fmt"
	"time"

	"sc2monitor/ingestion/internal/models"
)

// MatchRepository handles match database operations
type MatchRepository struct {
	db *Database
}

// Insert stores one match for a player.
func (r *MatchRepository) Insert(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (player_id, result, played_at, mmr, mmr_change, guess)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		match.PlayerID, int(match.Result), match.PlayedAt,
		match.MMR, match.MMRChange, match.Guess,
	).Scan(&match.ID)

	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}

	return nil
}

// LatestPlayedAt returns the timestamp of the most recent stored match for a
// player, or the zero time when none exist. Used to skip history entries that
// were already ingested.
func (r *MatchRepository) LatestPlayedAt(ctx context.Context, playerID int) (time.Time, error) {
	query := `
		SELECT COALESCE(MAX(played_at), 'epoch'::timestamptz)
		FROM matches
		WHERE player_id = $1
	`

	var latest time.Time
	if err := r.db.Pool.QueryRow(ctx, query, playerID).Scan(&latest); err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest match time: %w", err)
	}
	return latest, nil
}

// ListByPlayer returns the stored matches of a player, newest first.
func (r *MatchRepository) ListByPlayer(ctx context.Context, playerID int, limit int) ([]*models.Match, error) {
	query := `
		SELECT id, player_id, result, played_at, mmr, mmr_change, guess
		FROM matches
		WHERE player_id = $1
		ORDER BY played_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		var match models.Match
		if err := rows.Scan(
			&match.ID, &match.PlayerID, &match.Result, &match.PlayedAt,
			&match.MMR, &match.MMRChange, &match.Guess,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &match)
	}

	return matches, rows.Err()
}

// Prune deletes matches older than the cutoff, returning the number removed.
func (r *MatchRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM matches WHERE played_at < $1`

	tag, err := r.db.Pool.Exec(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune matches: %w", err)
	}
	return tag.RowsAffected(), nil
}
