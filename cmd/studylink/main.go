package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cacheredis "github.com/studylink-app/studylink/internal/cache/redis"
	corecfg "github.com/studylink-app/studylink/internal/core/config"
	"github.com/studylink-app/studylink/internal/core/storage/postgres"
	"github.com/studylink-app/studylink/internal/feed"
	"github.com/studylink-app/studylink/internal/hashtag"
	"github.com/studylink-app/studylink/internal/leaderboard"
	"github.com/studylink-app/studylink/internal/learning"
	"github.com/studylink-app/studylink/internal/migrations"
	"github.com/studylink-app/studylink/internal/server"
)

func main() {
	configPath := flag.String("config", "studylink.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "boards", len(cfg.Boards), "addr", fmtAddr(cfg.Server.Host, cfg.Server.Port))

	// 2. Initialize Storage (PostgreSQL)
	dbAdapter, err := postgres.NewAdapter(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
	)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer dbAdapter.Close()

	// 2.1. Run Database Migrations
	if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Cache (Redis). Connectivity is required at boot even
	// though individual calls later degrade to the durable store.
	dialTimeout, _ := cfg.Redis.DialTimeoutDuration()
	opTimeout, _ := cfg.Redis.OpTimeoutDuration()
	cacheClient, err := cacheredis.NewClient(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
		dialTimeout,
		opTimeout,
	)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheClient.Close()

	scoreStore := cacheredis.NewScoreAdapter(cacheClient)
	feedStore := cacheredis.NewFeedAdapter(cacheClient)

	// 4. Initialize Durable Adapters
	eventStore, err := postgres.NewEngagementAdapter(dbAdapter.DB())
	if err != nil {
		slog.Error("Failed to prepare engagement statements", "error", err)
		os.Exit(1)
	}
	defer eventStore.Close()

	notificationStore := postgres.NewNotificationAdapter(dbAdapter.DB())
	hashtagStore := postgres.NewHashtagAdapter(dbAdapter.DB())
	sessionStore := postgres.NewSessionAdapter(dbAdapter.DB())
	goalStore := postgres.NewGoalAdapter(dbAdapter.DB())

	// 5. Initialize Services
	leaderboardSvc := leaderboard.NewService(
		cfg.Boards,
		scoreStore,
		eventStore,
		cfg.Ranking.DayBoundaryOffsetHours,
		cfg.Ranking.TimezoneOffsetHours,
	)

	feedSvc := feed.NewService(feedStore, notificationStore, cfg.Feed.Cap)

	hashtagSvc := hashtag.NewService(
		hashtagStore,
		leaderboardSvc,
		cfg.Ranking.TrendingBoard,
		cfg.Ranking.DayBoundaryOffsetHours,
		cfg.Ranking.TimezoneOffsetHours,
	)

	learningSvc := learning.NewService(
		sessionStore,
		goalStore,
		leaderboardSvc,
		cfg.Ranking.WeeklyLearningBoard,
	)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), dbAdapter, cacheClient, cfg.Server.Mode)
	leaderboardSvc.RegisterRoutes(srv.Engine)
	feedSvc.RegisterRoutes(srv.Engine)
	hashtagSvc.RegisterRoutes(srv.Engine)
	learningSvc.RegisterRoutes(srv.Engine)

	// 7. Start Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
