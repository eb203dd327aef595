// Command addplayer registers a player for monitoring from a profile URL.
// Both the current starcraft2.com and the legacy battle.net URL shapes are
// accepted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"sc2monitor/ingestion/internal/client"
	"sc2monitor/ingestion/internal/config"
	"sc2monitor/ingestion/internal/models"
	"sc2monitor/ingestion/internal/repository"

	"github.com/rs/zerolog/log"
)

func main() {
	name := flag.String("name", "", "display name to record for the player")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: addplayer [-name NAME] PROFILE_URL")
		os.Exit(2)
	}

	profile, err := client.ParseProfileURL(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("Could not parse profile URL")
	}

	ctx := context.Background()
	cfg := config.MustLoad()

	db, err := repository.NewDatabase(ctx, repository.Config{
		Host:     cfg.DatabaseHost,
		Port:     strconv.Itoa(cfg.DatabasePort),
		User:     cfg.DatabaseUser,
		Password: cfg.DatabasePassword,
		Database: cfg.DatabaseName,
		SSLMode:  cfg.DatabaseSSLMode,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Health(ctx); err != nil {
		log.Fatal().Err(err).Msg("Database health check failed")
	}

	// The poll loop fills in ladder standing, race rows and history on its
	// next cycle; the seed row just has to identify the profile.
	player := &models.Player{
		PlayerID: profile.ProfileID,
		Realm:    profile.Realm,
		Server:   profile.Server,
		Name:     *name,
		Race:     models.RaceRandom,
	}
	if err := db.Players.Upsert(ctx, player); err != nil {
		log.Fatal().Err(err).Msg("Failed to register player")
	}

	log.Info().
		Int("id", player.ID).
		Str("profile", profile.String()).
		Msg("Player registered")
}
