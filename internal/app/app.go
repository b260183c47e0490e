package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/embedkit/embedkit/internal/config"
	"github.com/embedkit/embedkit/internal/httpserver"
	"github.com/embedkit/embedkit/internal/httpserver/deps"
	"github.com/embedkit/embedkit/internal/logger"
	"github.com/embedkit/embedkit/internal/redis"
	"github.com/embedkit/embedkit/internal/scheduler"
	"github.com/embedkit/embedkit/internal/service"
	"github.com/embedkit/embedkit/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	services    *service.Registry
	cleaner     *scheduler.Cleaner
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Widget limits: built-in defaults, optionally overridden from file
	limits, err := config.LoadLimits(cfg.LimitsFile)
	if err != nil {
		loggerClient.Errorf("Failed to load widget limits: %v", err)
		os.Exit(1)
	}
	if cfg.LimitsFile != "" {
		loggerClient.Info("widget limits loaded",
			logger.String("file", cfg.LimitsFile))
	}

	services := service.NewRegistry(redisClient, service.Config{
		Counter: service.CounterConfig{
			Ceiling:  limits.Counter.Ceiling,
			DedupTTL: limits.Counter.DedupTTL.Std(),
		},
		Like: service.LikeConfig{
			Ceiling:   limits.Like.Ceiling,
			MarkerTTL: limits.Like.MarkerTTL.Std(),
		},
		Ranking: service.RankingConfig{
			DefaultMaxEntries: limits.Ranking.DefaultMaxEntries,
			MaxEntriesCap:     limits.Ranking.MaxEntriesCap,
			CooldownTTL:       limits.Ranking.CooldownTTL.Std(),
		},
		BBS: service.BBSConfig{
			DefaultPageSize:    limits.BBS.DefaultPageSize,
			PageSizeCap:        limits.BBS.PageSizeCap,
			DefaultMaxMessages: limits.BBS.DefaultMaxMessages,
			MaxMessagesCap:     limits.BBS.MaxMessagesCap,
			CooldownTTL:        limits.BBS.CooldownTTL.Std(),
		},
	}, loggerClient)

	// Cleanup sweep across all four widget kinds
	cleaner := scheduler.NewCleaner(
		[]scheduler.Sweepable{
			services.Counter,
			services.Like,
			services.Ranking,
			services.BBS,
		},
		loggerClient,
		cfg.SweepInterval,
		cfg.SweepRetention,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:     loggerClient,
		StartTime:  time.Now(),
		Version:    version.Version,
		Commit:     version.Commit,
		BuildDate:  version.BuildDate,
		GoVersion:  version.GoVersion,
		TimeNow:    time.Now,
		TrustProxy: cfg.TrustProxy,
		Redis:      redisClient,
		Services:   services,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		services:    services,
		cleaner:     cleaner,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting embedkit v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("embedkit %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start cleanup sweep
	if err := a.cleaner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cleanup sweep: %w", err)
	}
	a.logger.Info("cleanup sweep started",
		logger.Duration("interval", a.cfg.SweepInterval),
		logger.Duration("retention", a.cfg.SweepRetention))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.cleaner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ embedkit stopped cleanly")
	return nil
}
