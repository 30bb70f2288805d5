package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	if err := database.Migrate(ctx, db, cfg.DatabaseURL, logger); err != nil {
		return err
	}

	deps := router.Dependencies{
		Config:  cfg,
		DB:      db,
		Auth:    service.NewAuthService(db, cfg.JWTSecret),
		Metrics: middleware.NewMetrics(),
		Logger:  logger,
	}

	images, mediaDir, err := storage.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}
	deps.Images, deps.MediaDir = images, mediaDir

	limits := middleware.RateLimitConfig{Window: cfg.RateWindow, Limit: cfg.RateLimit, KeyPrefix: "foodgram:recipes"}
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisPassword, logger)
		if err != nil {
			logger.Warn("redis unavailable, falling back to in-memory rate limiting", zap.Error(err))
			deps.Limiter = middleware.NewMemoryLimiter(limits)
		} else {
			defer rdb.Close()
			deps.Limiter = middleware.NewRedisLimiter(rdb, limits)
		}
	} else {
		deps.Limiter = middleware.NewMemoryLimiter(limits)
	}

	srv := server.New(cfg.Addr(), router.SetupRouter(deps), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})
	g.Go(func() error {
		watchDatabase(gctx, db, logger)
		return nil
	})
	err = g.Wait()

	if sqlDB, dbErr := db.DB(); dbErr == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server stopped")
	return err
}

// watchDatabase logs failed health checks until ctx is done.
func watchDatabase(ctx context.Context, db *gorm.DB, logger *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := database.HealthCheck(checkCtx, db); err != nil && ctx.Err() == nil {
				logger.Warn("database health check failed", zap.Error(err))
			}
			cancel()
		}
	}
}
