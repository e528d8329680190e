package main

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"Murmur/internal/api/middleware"
	"Murmur/internal/api/routes"
	"Murmur/internal/config"
	"Murmur/internal/core/accounts"
	"Murmur/internal/core/blobs"
	"Murmur/internal/core/feed"
	"Murmur/internal/core/likes"
	"Murmur/internal/core/posts"
	postgresRepo "Murmur/internal/db/postgres"
	"Murmur/internal/events"
	"Murmur/internal/web"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("Failed to close database connection: %v", closeErr)
		}
	}()

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}
	logger.Info("connected to database")

	if err := postgresRepo.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	logger.Info("migrations completed")

	// Change notifications: Postgres LISTEN/NOTIFY by default, NATS when configured.
	// In postgres mode the database trigger is the publisher.
	var (
		publisher events.Publisher = events.Discard
		notifier  interface {
			feed.Notifier
			io.Closer
		}
	)
	switch cfg.ChangeFeed {
	case config.ChangeFeedNATS:
		nc, err := events.Connect(cfg.NatsURL, logger)
		if err != nil {
			log.Fatal("Failed to connect to NATS:", err)
		}
		defer nc.Close()

		publisher = events.NewNATSPublisher(nc, logger)
		natsNotifier, err := events.NewNATSNotifier(nc, logger)
		if err != nil {
			log.Fatal("Failed to subscribe to post changes:", err)
		}
		notifier = natsNotifier
	default:
		pqNotifier, err := postgresRepo.NewNotifier(cfg.DatabaseURL, logger)
		if err != nil {
			log.Fatal("Failed to listen for post changes:", err)
		}
		notifier = pqNotifier
	}
	defer func() {
		if closeErr := notifier.Close(); closeErr != nil {
			logger.Warn("failed to close change notifier", "error", closeErr)
		}
	}()

	// Initialize repositories and services
	accountRepo := postgresRepo.NewAccountRepository(db)
	postRepo := postgresRepo.NewPostRepository(db)

	blobStore, err := blobs.NewFileStore(cfg.BlobDir, cfg.PublicURL, logger)
	if err != nil {
		log.Fatal("Failed to initialize blob storage:", err)
	}

	tokens := accounts.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	accountService := accounts.NewService(accountRepo, tokens, logger)
	postService := posts.NewService(postRepo, blobStore, publisher, cfg.MaxUploadBytes, logger)
	likeService := likes.NewService(postRepo, publisher, logger)

	// One live query per process; every HTTP and websocket reader shares the store
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feedQuery := posts.ListQuery{OrderBy: posts.OrderBy(cfg.FeedOrder), Limit: cfg.FeedLimit}
	feedStore := feed.NewStore(feed.NewLiveQuery(postService, notifier, logger), feedQuery, logger)
	if err := feedStore.Start(ctx); err != nil {
		log.Fatal("Failed to start feed subscription:", err)
	}
	defer feedStore.Unsubscribe()

	cookies, err := middleware.NewCookieSessions(cfg.SessionSecret, !cfg.IsLocal())
	if err != nil {
		log.Fatal("Failed to initialize sessions:", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(cookies, accountService)

	templates, err := web.NewTemplates()
	if err != nil {
		log.Fatal("Failed to load templates:", err)
	}

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	limiter, closeLimiter := newLimiter(cfg, logger)
	defer closeLimiter()
	r.Use(middleware.RateLimit(limiter, logger))

	routes.RegisterHealthRoutes(r, feedStore)
	routes.RegisterAuthRoutes(r, accountService, cookies, authMiddleware)
	routes.RegisterPostRoutes(r, postService, cfg.MaxUploadBytes, authMiddleware)
	routes.RegisterLikeRoutes(r, likeService, authMiddleware)
	routes.RegisterFeedRoutes(r, feedStore, nil, logger)
	routes.RegisterBlobRoutes(r, blobStore.Handler())
	routes.RegisterWebRoutes(r, web.NewHandlers(templates, feedStore, cookies), authMiddleware)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("Murmur server starting",
		"port", cfg.Port,
		"public_url", cfg.PublicURL,
		"change_feed", cfg.ChangeFeed,
		"feed_order", feedQuery.OrderBy)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Server error: %v", err)
	}
}

// newLogger installs a readable text handler locally and JSON in production
func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// newLimiter shares counters through Redis when REDIS_ADDR is set
func newLimiter(cfg config.Config, logger *slog.Logger) (middleware.Limiter, func()) {
	if cfg.RedisAddr == "" {
		rl := middleware.NewMemoryLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow)
		return rl, rl.Close
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// The limiter fails open, so an unreachable Redis only disables limiting
		logger.Warn("redis unreachable, rate limits not enforced until it answers", "addr", cfg.RedisAddr, "error", err)
	}
	return middleware.NewRedisLimiter(client, cfg.RateLimitRequests, cfg.RateLimitWindow), func() {
		if err := client.Close(); err != nil {
			logger.Warn("failed to close redis client", "error", err)
		}
	}
}
