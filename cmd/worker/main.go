package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"sc2monitor/ingestion/internal/cache"
	"sc2monitor/ingestion/internal/client"
	"sc2monitor/ingestion/internal/config"
	"sc2monitor/ingestion/internal/logging"
	"sc2monitor/ingestion/internal/metrics"
	"sc2monitor/ingestion/internal/repository"
	"sc2monitor/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.MustLoad()
	setupLogger(cfg)

	log.Info().Msg("Starting SC2 ladder monitor ingestion worker")
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

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

	if cfg.EnableDBLogSink {
		hook := logging.NewDBHook(db.Logs)
		defer hook.Close()
		log.Logger = log.Logger.Hook(hook)
		log.Info().Msg("Database log sink enabled")
	}

	// Seed API credentials from the environment when provided; the config
	// table stays authoritative afterwards.
	seedCredentials(ctx, cfg, db)

	apiClient := client.NewClient(db.Config, client.Config{
		Timeout: cfg.BnetAPITimeout,
	})
	if err := apiClient.ReadConfig(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to read API credentials")
	}
	log.Info().Msg("Battle.net API client initialized")

	redisCache, err := cache.NewRedisCache(cache.Config{
		Host:     cfg.RedisHost,
		Port:     strconv.Itoa(cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		redisCache = nil
	} else {
		defer redisCache.Close()
		log.Info().Msg("Redis cache connected")
	}

	if cfg.EnableMetrics {
		go startMetricsServer(strconv.Itoa(cfg.MetricsPort))
	}

	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	sched := scheduler.NewScheduler(cfg, apiClient, db, redisCache)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	<-ctx.Done()
	sched.Stop()
	log.Info().Msg("Worker stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func seedCredentials(ctx context.Context, cfg *config.Config, db *repository.Database) {
	if cfg.BnetAPIKey != "" {
		if err := db.Config.Set(ctx, "api_key", cfg.BnetAPIKey); err != nil {
			log.Error().Err(err).Msg("Failed to seed api_key")
		}
	}
	if cfg.BnetAPISecret != "" {
		if err := db.Config.Set(ctx, "api_secret", cfg.BnetAPISecret); err != nil {
			log.Error().Err(err).Msg("Failed to seed api_secret")
		}
	}
}

func startMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.Info().Str("port", port).Msg("Metrics server listening")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
