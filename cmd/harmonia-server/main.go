package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/config"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/httpapi"
	"harmonia/internal/media"
	"harmonia/internal/player"
	"harmonia/internal/provider"
	fsprovider "harmonia/internal/providers/filesystem"
	"harmonia/internal/queue"
	"harmonia/internal/stream"
	syncengine "harmonia/internal/sync"
)

func main() {
	configPath := os.Getenv("HARMONIA_CONFIG_PATH")
	if configPath == "" {
		configPath = "harmonia.json"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatal("failed to load configuration: ", err)
		}
		defaults := config.Defaults()
		cfg = &defaults
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logger.Sync()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	cacheStore := cache.New(rdb, logger)

	bus := eventbus.New()
	registry := provider.NewRegistry()
	lib := media.NewLibrary(db, registry, bus, cacheStore, logger)

	coordinator := stream.NewCoordinator(registry, database.NewLoudnessStore(db), cfg.Stream, logger)
	queues := queue.NewManager(lib, coordinator, logger)
	players := player.NewManager(queues, bus, logger)
	players.StartPolling()
	defer players.StopPolling()

	engine := syncengine.NewEngine(lib, registry, bus, logger, time.Duration(cfg.Sync.IntervalSeconds)*time.Second)
	engine.Start()
	defer engine.Stop()

	if root := os.Getenv("HARMONIA_MUSIC_DIR"); root != "" {
		fs := fsprovider.New("filesystem_local", fsprovider.NewLocalBackend(root), logger)
		if err := fs.OnStart(context.Background()); err != nil {
			logger.Warn("local filesystem provider failed to start", zap.Error(err))
		} else {
			registry.Register(fs)
			if err := fs.WatchChanges(func() {
				engine.SyncProvider(context.Background(), fs)
			}); err != nil {
				logger.Warn("filesystem change watch unavailable", zap.Error(err))
			}
		}
	}

	hub := player.NewWSHub(bus, logger)
	defer hub.Close()

	api := httpapi.New(lib, players, coordinator, hub, logger)
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      api.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("control surface listening", zap.String("addr", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", zap.Error(err))
	}

	for _, p := range registry.All() {
		if err := p.OnStop(context.Background()); err != nil {
			logger.Warn("provider stop failed", zap.String("instance", p.InstanceID()), zap.Error(err))
		}
	}
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	return zcfg.Build()
}
