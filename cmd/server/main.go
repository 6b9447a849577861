package main // Entry point package

import (
	"context"
	"log" // Logging library
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelara/design-portal/internal/config"   // Internal config loader
	"github.com/avelara/design-portal/internal/database" // MySQL pool and migrations
	"github.com/avelara/design-portal/internal/handler"
	"github.com/avelara/design-portal/internal/logger"
	"github.com/avelara/design-portal/internal/metrics"
	"github.com/avelara/design-portal/internal/middleware"
	"github.com/avelara/design-portal/internal/queue"
	"github.com/avelara/design-portal/internal/repository"
	"github.com/avelara/design-portal/internal/router" // Internal router setup
	"github.com/avelara/design-portal/internal/storage"
)

func main() {
	// Load a .env file when present; real environments set vars directly.
	_ = godotenv.Load()
	logger.SetupDefault(os.Stdout)

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	if err := database.RunMigrations(cfg.MigrateURL()); err != nil {
		// A failed migration leaves queries to surface schema errors
		// with remediation text; do not crash a running fleet over it.
		log.Printf("migrations: %v", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	ctx := context.Background()
	store, err := storage.New(ctx, config.LoadStorageConfig())
	if err != nil {
		log.Fatalf("storage init: %v", err)
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	requests := repository.NewRequestRepo(db)
	assets := repository.NewAssetRepo(db)

	// Prune refresh tokens whose expiry passed long ago. Validation
	// ignores them anyway; this keeps the table from growing unbounded.
	go func() {
		for {
			if n, err := tokens.DeleteExpired(ctx, 30*24*time.Hour); err != nil {
				log.Printf("token prune: %v", err)
			} else if n > 0 {
				log.Printf("token prune: removed %d expired rows", n)
			}
			time.Sleep(12 * time.Hour)
		}
	}()

	authH := handler.NewAuthHandler(cfg, users, tokens, profiles, collector)
	profileH := handler.NewProfileHandler(profiles)
	requestH := handler.NewRequestHandler(cfg, requests, collector)
	assetH := handler.NewAssetHandler(assets, store, collector)
	uploadH := handler.NewUploadHandler(store)

	e := echo.New() // Create Echo instance

	// Redis-backed rate limiting and response caching degrade to no-ops
	// when Redis is unreachable.
	rdb := config.NewRedisClient()
	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, db, reg)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPortal(e, cfg.JWTSecret, profileH, requestH, assetH, uploadH, rl, cache)

	// Durable audit trail for sign-in/sign-out events.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartAuthConsumer(cfg.AMQPURL); err != nil {
				log.Printf("auth consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
