package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"hangmantrainer/internal/cache"
	"hangmantrainer/internal/config"
	"hangmantrainer/internal/database"
	"hangmantrainer/internal/handlers"
	"hangmantrainer/internal/logging"
	"hangmantrainer/internal/publisher"
	"hangmantrainer/internal/repository"
	"hangmantrainer/internal/results"
	"hangmantrainer/internal/security"
	"hangmantrainer/internal/service"
	"hangmantrainer/internal/wordbank"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("Database connection established")

	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Persisted state
	blobs := repository.NewBlobRepository(db)
	bank, err := wordbank.NewBank(ctx, blobs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load word configuration")
	}
	store, err := results.NewStore(ctx, blobs)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load results")
	}
	log.Info().Int("results", store.Len()).Msg("Results loaded")

	remote, closeCache := buildWordProvider(cfg)
	defer closeCache()

	collectors, closeCollectors := buildCollectors(ctx, cfg)
	defer closeCollectors()
	pub := publisher.New(cfg.PublishTimeout, collectors)
	log.Info().Strs("collectors", pub.Collectors()).Msg("Result publisher ready")

	// Security
	tokenSecret := cfg.TokenSecret
	if tokenSecret == "" {
		log.Warn().Msg("TOKEN_SECRET not set, player tokens will not survive a restart")
		tokenSecret = security.RandomSecret()
	}
	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		csrfSecret = security.RandomSecret()
	}
	if cfg.AdminPasswordHash == "" {
		log.Warn().Msg("ADMIN_PASSWORD_HASH not set, admin API disabled")
	}
	tokens := security.NewTokenIssuer(tokenSecret, cfg.TokenTTL)
	csrf := security.NewCSRF(csrfSecret)
	limiter := security.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	// Initialize services
	games := service.NewGameService(bank, remote, store, pub, tokens, cfg.SessionIdleTimeout)
	admin := service.NewAdminService(bank, remote, store)
	backup := service.NewBackupService(db)

	// Initialize handlers
	middleware := handlers.NewMiddleware(csrf, limiter, tokens, cfg.AdminPasswordHash)
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, middleware,
		handlers.NewGameHandler(games, csrf),
		handlers.NewEventsHandler(games),
		handlers.NewWordsHandler(bank),
		handlers.NewAdminHandler(admin, backup),
	)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background idle session cleanup
	go games.RunReaper(ctx, time.Minute)

	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if err := pub.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Gave up waiting for result deliveries")
	}
}

// buildWordProvider returns the remote provider when one is configured, with its optional Redis cache
func buildWordProvider(cfg *config.Config) (*wordbank.RemoteProvider, func()) {
	if cfg.WordProvider.URL == "" {
		return nil, func() {}
	}

	var c wordbank.Cache
	closeCache := func() {}
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, word cache disabled")
		} else {
			c = rc
			closeCache = func() { rc.Close() }
		}
	}

	log.Info().Str("url", cfg.WordProvider.URL).Bool("cached", c != nil).Msg("Using remote word provider")
	return wordbank.NewRemoteProvider(cfg.WordProvider, c), closeCache
}

// buildCollectors creates every configured collector. A collector that fails to connect is skipped.
func buildCollectors(ctx context.Context, cfg *config.Config) ([]publisher.Collector, func()) {
	var (
		collectors []publisher.Collector
		closers    []func() error
	)

	if cfg.Sheets.Endpoint != "" {
		collectors = append(collectors, publisher.NewSheetsCollector(cfg.Sheets.Endpoint, nil))
	}

	email, err := publisher.NewEmailCollector(ctx, cfg.Email)
	if err != nil {
		log.Warn().Err(err).Msg("Email collector disabled")
	} else if email.IsEnabled() {
		collectors = append(collectors, email)
	}

	if cfg.AMQP.URL != "" {
		queue, err := publisher.NewQueueCollector(cfg.AMQP)
		if err != nil {
			log.Warn().Err(err).Msg("Queue collector disabled")
		} else {
			collectors = append(collectors, queue)
			closers = append(closers, queue.Close)
		}
	}

	if cfg.S3.Endpoint != "" {
		object, err := publisher.NewObjectCollector(ctx, cfg.S3)
		if err != nil {
			log.Warn().Err(err).Msg("Object collector disabled")
		} else {
			collectors = append(collectors, object)
		}
	}

	if cfg.ResultsDir != "" {
		if err := os.MkdirAll(cfg.ResultsDir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", cfg.ResultsDir).Msg("File collector disabled")
		} else {
			collectors = append(collectors, publisher.NewFileCollector(cfg.ResultsDir))
		}
	}

	return collectors, func() {
		for _, c := range closers {
			c()
		}
	}
}
