package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BurntNail/denim/internal/config"
	"github.com/BurntNail/denim/internal/db"
	"github.com/BurntNail/denim/internal/jobs"
	"github.com/BurntNail/denim/internal/logging"
	"github.com/BurntNail/denim/internal/session"
)

// registryd owns the registry schema: it migrates on boot and runs the
// session purge loop. Request handling lives in a separate service
// that talks to the same database.
func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()

	migrator := db.NewMigrator(pool)
	applied, err := migrator.Up(ctx)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	version, err := migrator.Version(ctx)
	if err != nil {
		logger.Fatal("migration version check failed", zap.Error(err))
	}
	logger.Info("schema ready", zap.Int("version", version), zap.Int("applied", applied))

	var sessions session.Store
	switch cfg.SessionBackend {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis ping failed", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
		sessions = session.NewRedisStore(redisClient)
	default:
		sessions = session.NewPostgresStore(pool)
	}

	jobs.StartSessionPurgeJob(ctx, cfg, sessions, logger)
	logger.Info("registryd running", zap.String("session_backend", cfg.SessionBackend))

	<-ctx.Done()
	logger.Info("shutting down")
}
