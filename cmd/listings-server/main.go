// Command listings-server serves the property listing API with a Redis
// cache-aside layer in front of the relational store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/propstack/listings/internal/api"
	"github.com/propstack/listings/internal/config"
	"github.com/propstack/listings/internal/database"
	"github.com/propstack/listings/pkg/cache"
	"github.com/propstack/listings/pkg/logging"
	"github.com/propstack/listings/pkg/property"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Server.LogLevel),
		Pretty: cfg.Server.LogPretty,
		Output: os.Stderr,
	})
	log := logging.NewLogger("listings-server")

	ctx := context.Background()

	// Relational store: source of truth.
	db, err := database.Open(ctx, cfg.Database, logging.NewLogger("database"))
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Cache backend: connect at startup, no teardown mid-process.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// The cache is an optimization, not a source of truth: reads fall
		// through to the database while Redis is down.
		log.Warn().Err(err).Str("address", cfg.Redis.Address).
			Msg("redis unreachable, serving degraded until it recovers")
	} else {
		log.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
	}

	store := cache.NewRedisStore(redisClient)
	repo := property.NewGormRepository(db)
	accessor := cache.NewAccessor(store, repo, logging.NewLogger("cache"))
	invalidator := cache.NewInvalidator(store, logging.NewLogger("cache"))
	reporter := cache.NewReporter(store, logging.NewLogger("cache"))
	service := property.NewService(repo, invalidator, logging.NewLogger("property"))

	if cfg.Cache.WarmOnStart {
		if count, err := accessor.Warm(ctx, cfg.Cache.WarmLocations...); err != nil {
			log.Warn().Err(err).Msg("startup cache warm failed")
		} else {
			log.Info().Int("properties", count).Msg("startup cache warm complete")
		}
	}

	handlers := api.NewHandlers(
		accessor, repo, service, invalidator, reporter,
		cfg.Cache.WarmLocations, logging.NewLogger("api"),
	)
	router := api.NewRouter(handlers, store, logging.NewLogger("response-cache"))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("starting listings server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
