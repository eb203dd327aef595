package repository

import (
	"context"
	"errors"
	"fmt"

	"sc2monitor/ingestion/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PlayerRepository handles player database operations
type PlayerRepository struct {
	db *Database
}

// Create inserts a new monitored player.
func (r *PlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (
			player_id, realm, server, name, race, ladder_id, league,
			mmr, wins, losses
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, refreshed
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		player.PlayerID, player.Realm, int(player.Server), player.Name,
		int(player.Race), player.LadderID, int(player.League),
		player.MMR, player.Wins, player.Losses,
	).Scan(&player.ID, &player.Refreshed)

	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	log.Debug().
		Int("id", player.ID).
		Int("player_id", player.PlayerID).
		Str("server", player.Server.Short()).
		Msg("Player created")

	return nil
}

// Upsert inserts or updates a player, keyed on (player_id, realm, server,
// race): one profile can ladder with several races and each shows up as its
// own row.
func (r *PlayerRepository) Upsert(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (
			player_id, realm, server, name, race, ladder_id, league,
			mmr, wins, losses, ladder_joined, last_active_season
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (player_id, realm, server, race) DO UPDATE SET
			name = EXCLUDED.name,
			ladder_id = EXCLUDED.ladder_id,
			league = EXCLUDED.league,
			mmr = EXCLUDED.mmr,
			wins = EXCLUDED.wins,
			losses = EXCLUDED.losses,
			ladder_joined = EXCLUDED.ladder_joined,
			last_active_season = EXCLUDED.last_active_season,
			refreshed = NOW()
		RETURNING id, refreshed
	`

	err := r.db.Pool.QueryRow(
		ctx, query,
		player.PlayerID, player.Realm, int(player.Server), player.Name,
		int(player.Race), player.LadderID, int(player.League),
		player.MMR, player.Wins, player.Losses,
		player.LadderJoined, player.LastActiveSeason,
	).Scan(&player.ID, &player.Refreshed)

	if err != nil {
		return fmt.Errorf("failed to upsert player: %w", err)
	}

	return nil
}

// GetByID retrieves a player by its database ID
func (r *PlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `
		SELECT id, player_id, realm, server, name, race, ladder_id, league,
		       mmr, wins, losses, refreshed, last_played, ladder_joined,
		       last_active_season
		FROM players
		WHERE id = $1
	`

	var player models.Player
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&player.ID, &player.PlayerID, &player.Realm, &player.Server,
		&player.Name, &player.Race, &player.LadderID, &player.League,
		&player.MMR, &player.Wins, &player.Losses, &player.Refreshed,
		&player.LastPlayed, &player.LadderJoined, &player.LastActiveSeason,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player not found: id=%d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// List returns all monitored players.
func (r *PlayerRepository) List(ctx context.Context) ([]*models.Player, error) {
	query := `
		SELECT id, player_id, realm, server, name, race, ladder_id, league,
		       mmr, wins, losses, refreshed, last_played, ladder_joined,
		       last_active_season
		FROM players
		ORDER BY id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var player models.Player
		if err := rows.Scan(
			&player.ID, &player.PlayerID, &player.Realm, &player.Server,
			&player.Name, &player.Race, &player.LadderID, &player.League,
			&player.MMR, &player.Wins, &player.Losses, &player.Refreshed,
			&player.LastPlayed, &player.LadderJoined, &player.LastActiveSeason,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &player)
	}

	return players, rows.Err()
}

// ListProfiles returns the distinct profiles among all monitored players.
// Several race rows of one profile collapse into a single entry.
func (r *PlayerRepository) ListProfiles(ctx context.Context) ([]models.ProfileRef, error) {
	query := `
		SELECT DISTINCT player_id, realm, server
		FROM players
		ORDER BY server, realm, player_id
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.ProfileRef
	for rows.Next() {
		var p models.ProfileRef
		var server int
		if err := rows.Scan(&p.ProfileID, &p.Realm, &server); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		p.Server = models.ServerFromID(server)
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// TouchLastPlayed updates the last_played timestamp of a player row.
func (r *PlayerRepository) TouchLastPlayed(ctx context.Context, id int) error {
	query := `UPDATE players SET last_played = NOW() WHERE id = $1`

	if _, err := r.db.Pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch player %d: %w", id, err)
	}
	return nil
}
