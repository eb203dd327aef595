package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sc2monitor/ingestion/internal/cache"
	"sc2monitor/ingestion/internal/client"
	"sc2monitor/ingestion/internal/config"
	"sc2monitor/ingestion/internal/metrics"
	"sc2monitor/ingestion/internal/models"
	"sc2monitor/ingestion/internal/repository"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler manages the background ingestion tasks:
// - poll every monitored profile on a fixed interval
// - refresh the current season nightly
// Per-player failures skip that player and continue; an auth failure aborts
// the whole cycle since every later request would fail the same way.
type Scheduler struct {
	cfg      *config.Config
	client   *client.Client
	db       *repository.Database
	cache    *cache.RedisCache
	cron     *cron.Cron
	ticker   *time.Ticker
	stopChan chan struct{}
	pollDone chan struct{}
}

// NewScheduler creates a new scheduler instance. The cache may be nil, in
// which case season lookups go straight to the API.
func NewScheduler(cfg *config.Config, apiClient *client.Client, db *repository.Database, redisCache *cache.RedisCache) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		client:   apiClient,
		db:       db,
		cache:    redisCache,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
		pollDone: make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.SeasonRefreshCron, func() {
		log.Info().Msg("Running nightly maintenance...")
		if err := s.refreshSeasons(ctx); err != nil {
			log.Error().Err(err).Msg("Season refresh failed")
		}
		s.pruneMatches(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule season refresh: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.SeasonRefreshCron).
		Msg("Season refresh scheduled")

	s.ticker = time.NewTicker(s.cfg.PollInterval)
	log.Info().
		Dur("interval", s.cfg.PollInterval).
		Msg("Player polling started")

	go s.pollLoop(ctx)

	return nil
}

// Stop stops the scheduler. It blocks until a running cron job and the poll
// loop have finished, so no cycle is still logging or writing afterwards.
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	close(s.stopChan)
	if s.ticker != nil {
		s.ticker.Stop()
		<-s.pollDone
	}

	log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer close(s.pollDone)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Context cancelled, stopping player polling")
			return
		case <-s.stopChan:
			log.Info().Msg("Stop signal received, stopping player polling")
			return
		case <-s.ticker.C:
			if err := s.pollPlayers(ctx); err != nil {
				log.Error().Err(err).Msg("Poll cycle failed")
			}
		}
	}
}

// pollPlayers runs one ingestion cycle over all monitored profiles.
func (s *Scheduler) pollPlayers(ctx context.Context) error {
	start := time.Now()

	// Credentials may have been rotated out-of-band.
	if err := s.client.ReadConfig(ctx); err != nil {
		metrics.RecordPollCycle("error", time.Since(start).Seconds())
		return fmt.Errorf("failed to re-read api config: %w", err)
	}

	profiles, err := s.db.Players.ListProfiles(ctx)
	if err != nil {
		metrics.RecordPollCycle("error", time.Since(start).Seconds())
		return fmt.Errorf("failed to list profiles: %w", err)
	}
	metrics.PlayersMonitored.Set(float64(len(profiles)))

	if len(profiles) == 0 {
		log.Debug().Msg("No profiles to poll")
		metrics.RecordPollCycle("success", time.Since(start).Seconds())
		return nil
	}

	// Bounded parallelism: each in-flight profile only suspends on network
	// I/O, so a small semaphore is enough to keep the cycle short without
	// hammering the API.
	sem := make(chan struct{}, s.cfg.PollConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var authFailed bool

	for _, profile := range profiles {
		mu.Lock()
		aborted := authFailed
		mu.Unlock()
		if aborted {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(p models.ProfileRef) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := s.updateProfile(ctx, p); err != nil {
				var authErr *client.AuthError
				if errors.As(err, &authErr) {
					// Fatal for this cycle; no point polling the rest.
					mu.Lock()
					authFailed = true
					mu.Unlock()
					log.Error().Err(err).Msg("Authentication failed, aborting cycle")
					metrics.RecordError("scheduler", "auth")
					return
				}
				log.Error().Err(err).Str("profile", p.String()).Msg("Failed to update profile")
				metrics.RecordError("scheduler", "update_profile")
			}
		}(profile)
	}

	wg.Wait()

	status := "success"
	if authFailed {
		status = "auth_error"
	}
	metrics.RecordPollCycle(status, time.Since(start).Seconds())
	log.Info().
		Int("profiles", len(profiles)).
		Dur("duration", time.Since(start)).
		Msg("Poll cycle complete")

	if authFailed {
		return fmt.Errorf("poll cycle aborted: authentication failed")
	}
	return nil
}

// updateProfile refreshes the ladder standings and match history of one
// profile. A reconciliation failure on one ladder skips that ladder only.
func (s *Scheduler) updateProfile(ctx context.Context, profile models.ProfileRef) error {
	season, err := s.currentSeason(ctx, profile.Server)
	if err != nil {
		return err
	}

	metaName, err := s.profileDisplayName(ctx, profile)
	if err != nil {
		return err
	}

	ladders, err := s.client.GetLadders(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to fetch ladder memberships: %w", err)
	}

	for ladderID := range ladders {
		scan, err := s.client.GetLadderData(ctx, profile, ladderID)
		if err != nil {
			var authErr *client.AuthError
			if errors.As(err, &authErr) {
				return err
			}
			log.Warn().Err(err).
				Str("profile", profile.String()).
				Int("ladder_id", ladderID).
				Msg("Skipping ladder")
			continue
		}

		for scan.Next() {
			entry := scan.Entry()
			if err := s.storeLadderEntry(ctx, profile, season, metaName, entry); err != nil {
				log.Error().Err(err).
					Str("profile", profile.String()).
					Int("ladder_id", ladderID).
					Msg("Failed to store ladder entry")
			}
		}
		if err := scan.Err(); err != nil {
			// Entries already stored above stay valid; only the rest of this
			// ladder is lost.
			log.Warn().Err(err).
				Str("profile", profile.String()).
				Int("ladder_id", ladderID).
				Msg("Ladder reconciliation failed")
			metrics.RecordError("scheduler", "reconcile")
		}
	}

	if err := s.ingestMatchHistory(ctx, profile); err != nil {
		return err
	}

	return nil
}

// storeLadderEntry upserts the player row for one reconciled ladder entry.
// The metadata display name wins over the ladder one when available.
func (s *Scheduler) storeLadderEntry(ctx context.Context, profile models.ProfileRef, season *models.Season, metaName string, entry models.LadderEntry) error {
	name := entry.Name
	if metaName != "" {
		name = metaName
	}

	player := &models.Player{
		PlayerID: profile.ProfileID,
		Realm:    profile.Realm,
		Server:   profile.Server,
		Name:     name,
		Race:     entry.Race,
		LadderID: entry.LadderID,
		League:   entry.League,
		MMR:      entry.MMR,
		Wins:     entry.Wins,
		Losses:   entry.Losses,
	}
	player.LadderJoined.Time = entry.Joined
	player.LadderJoined.Valid = true
	if season != nil {
		player.LastActiveSeason.Int32 = int32(season.SeasonID)
		player.LastActiveSeason.Valid = true
	}

	return s.db.Players.Upsert(ctx, player)
}

// profileDisplayName returns the metadata display name of a profile, clan tag
// included, via the cache when available. A missing or failed metadata lookup
// yields the empty string and the ladder name is used instead; only an auth
// failure is surfaced.
func (s *Scheduler) profileDisplayName(ctx context.Context, profile models.ProfileRef) (string, error) {
	cacheKey := fmt.Sprintf("metadata:%s", profile)

	if s.cache != nil {
		var name string
		if err := s.cache.Get(ctx, cacheKey, &name); err == nil {
			return name, nil
		}
	}

	meta, err := s.client.GetMetadata(ctx, profile)
	if err != nil {
		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			return "", err
		}
		log.Warn().Err(err).Str("profile", profile.String()).Msg("Failed to fetch profile metadata")
		return "", nil
	}

	name := metadataName(meta)
	if s.cache != nil && name != "" {
		if err := s.cache.Set(ctx, cacheKey, name, s.cfg.CacheTTLMetadata); err != nil {
			log.Warn().Err(err).Msg("Failed to cache profile metadata")
		}
	}
	return name, nil
}

// metadataName composes the display name from a metadata payload, "[TAG] Name"
// when a clan tag is present.
func metadataName(meta map[string]any) string {
	name, _ := meta["name"].(string)
	if name == "" {
		return ""
	}
	if tag, _ := meta["clanTag"].(string); tag != "" {
		return fmt.Sprintf("[%s] %s", tag, name)
	}
	return name
}

// ingestMatchHistory appends match history entries newer than what is
// already stored. History entries carry no race, so they are attached to the
// profile's highest-rated row.
func (s *Scheduler) ingestMatchHistory(ctx context.Context, profile models.ProfileRef) error {
	history, err := s.client.GetMatchHistory(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to fetch match history: %w", err)
	}
	if len(history) == 0 {
		return nil
	}

	row, err := s.primaryRow(ctx, profile)
	if err != nil || row == nil {
		return err
	}

	latest, err := s.db.Matches.LatestPlayedAt(ctx, row.ID)
	if err != nil {
		return err
	}

	ingested := 0
	for _, m := range history {
		if !m.PlayedAt.After(latest) {
			continue
		}
		match := &models.Match{
			PlayerID: row.ID,
			Result:   m.Result,
			PlayedAt: m.PlayedAt,
			MMR:      row.MMR,
		}
		if err := s.db.Matches.Insert(ctx, match); err != nil {
			return err
		}
		ingested++
	}

	if ingested > 0 {
		metrics.MatchesIngestedTotal.Add(float64(ingested))
		if err := s.db.Players.TouchLastPlayed(ctx, row.ID); err != nil {
			return err
		}
		log.Debug().
			Str("profile", profile.String()).
			Int("count", ingested).
			Msg("Matches ingested")
	}
	return nil
}

// primaryRow returns the highest-rated stored row of a profile, or nil when
// the profile has no rows yet.
func (s *Scheduler) primaryRow(ctx context.Context, profile models.ProfileRef) (*models.Player, error) {
	players, err := s.db.Players.List(ctx)
	if err != nil {
		return nil, err
	}

	var best *models.Player
	for _, p := range players {
		if p.Profile() != profile {
			continue
		}
		if best == nil || p.MMR > best.MMR {
			best = p
		}
	}
	return best, nil
}

// currentSeason returns the current season for a server, via the cache when
// available. A season fetch failure is not fatal to the profile update.
func (s *Scheduler) currentSeason(ctx context.Context, server models.Server) (*models.Season, error) {
	cacheKey := fmt.Sprintf("season:%s", server.Short())

	if s.cache != nil {
		var season models.Season
		if err := s.cache.Get(ctx, cacheKey, &season); err == nil {
			return &season, nil
		}
	}

	season, err := s.client.GetSeason(ctx, server)
	if err != nil {
		var authErr *client.AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		log.Warn().Err(err).Str("server", server.String()).Msg("Failed to fetch season")
		return nil, nil
	}

	if err := s.db.Seasons.Upsert(ctx, season); err != nil {
		log.Error().Err(err).Msg("Failed to store season")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, season, s.cfg.CacheTTLSeason); err != nil {
			log.Warn().Err(err).Msg("Failed to cache season")
		}
	}
	return season, nil
}

// pruneMatches drops match rows older than the retention window.
func (s *Scheduler) pruneMatches(ctx context.Context) {
	if s.cfg.MatchRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.cfg.MatchRetention)
	removed, err := s.db.Matches.Prune(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Match pruning failed")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Msg("Old matches pruned")
	}
}

// refreshSeasons re-fetches the season of every server that has monitored
// profiles, bypassing the cache.
func (s *Scheduler) refreshSeasons(ctx context.Context) error {
	profiles, err := s.db.Players.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	servers := make(map[models.Server]struct{})
	for _, p := range profiles {
		servers[p.Server] = struct{}{}
	}

	for server := range servers {
		season, err := s.client.GetSeason(ctx, server)
		if err != nil {
			log.Error().Err(err).Str("server", server.String()).Msg("Failed to refresh season")
			continue
		}
		if err := s.db.Seasons.Upsert(ctx, season); err != nil {
			log.Error().Err(err).Msg("Failed to store season")
			continue
		}
		if s.cache != nil {
			cacheKey := fmt.Sprintf("season:%s", server.Short())
			if err := s.cache.Set(ctx, cacheKey, season, s.cfg.CacheTTLSeason); err != nil {
				log.Warn().Err(err).Msg("Failed to cache season")
			}
		}
		log.Info().
			Str("server", server.String()).
			Int("season_id", season.SeasonID).
			Msg("Season refreshed")
	}

	return nil
}
