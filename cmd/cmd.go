package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/fleetsync/internal/pkg/auth"
	"github.com/anicoll/fleetsync/internal/pkg/cache"
	"github.com/anicoll/fleetsync/internal/pkg/config"
	"github.com/anicoll/fleetsync/internal/pkg/database"
	"github.com/anicoll/fleetsync/internal/pkg/database/migration"
	"github.com/anicoll/fleetsync/internal/pkg/metrics"
	"github.com/anicoll/fleetsync/internal/pkg/mqtt"
	"github.com/anicoll/fleetsync/internal/pkg/publisher"
	"github.com/anicoll/fleetsync/internal/pkg/router"
	"github.com/anicoll/fleetsync/internal/pkg/server"
	"github.com/anicoll/fleetsync/pkg/sealer"
)

const cleanupSchedule = "0 3 * * *"

var errCron = errors.New("cron error")

func SyncCommand(ctx *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(ctx, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return run(ctx.Context, cfg)
}

// applyFlags overrides the environment with flags given on the command line.
func applyFlags(ctx *cli.Context, cfg *config.Config) {
	setString := func(name string, dst *string) {
		if ctx.IsSet(name) {
			*dst = ctx.String(name)
		}
	}
	setString("host", &cfg.ServerCfg.Host)
	setString("username", &cfg.ServerCfg.Username)
	setString("password", &cfg.ServerCfg.Password)
	setString("mqtt-host", &cfg.MqttCfg.Host)
	setString("mqtt-user", &cfg.MqttCfg.Username)
	setString("mqtt-pass", &cfg.MqttCfg.Password)
	setString("redis-addr", &cfg.RedisCfg.Addr)
	setString("database-url", &cfg.DatabaseURL)
	setString("log-level", &cfg.LogLevel)
	setString("http-addr", &cfg.HTTPAddr)
	setString("metrics-addr", &cfg.MetricsAddr)
	if ctx.IsSet("ssl") {
		cfg.ServerCfg.Ssl = ctx.Bool("ssl")
	}
	if ctx.IsSet("show-errors") {
		cfg.ShowErrors = ctx.Bool("show-errors")
	}
}

func newLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = lvl
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// tokenStore persists the session token to disk when a cache path is set.
func tokenStore(cfg config.ServerConfig) (auth.Store, error) {
	if cfg.TokenCachePath == "" {
		return &auth.MemoryStore{}, nil
	}
	key, err := sealer.ParseKey(cfg.TokenCacheKey)
	if err != nil {
		return nil, fmt.Errorf("token cache key: %w", err)
	}
	return auth.NewFileStore(cfg.TokenCachePath, key), nil
}

func run(ctx context.Context, cfg *config.Config) error {
	errorChan := make(chan error, 100)

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	store, err := tokenStore(cfg.ServerCfg)
	if err != nil {
		return err
	}

	metrics.Init(prometheus.DefaultRegisterer)
	engine := router.NewEngine(cfg, store, logger)
	pub := publisher.New(engine.Graph, engine.Views, publisher.WithLogger(logger.Named("publisher")))

	deps := server.Deps{
		Status:    engine.Router,
		Graph:     engine.Graph,
		Views:     engine.Views,
		Hydrator:  engine.Hydrator,
		Actions:   engine.Actions,
		Schedules: engine.Schedules,
		Refresher: engine,
		Session:   engine.Auth,
	}

	if cfg.MqttCfg.Host != "" {
		svc := mqtt.New(mqtt.NewClient(cfg.MqttCfg.Host, cfg.MqttCfg.Username, cfg.MqttCfg.Password))
		if err := svc.Connect(); err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		defer svc.Close()
		if err := pub.RegisterPublisher("mqtt", svc); err != nil {
			return err
		}
	}

	if cfg.RedisCfg.Addr != "" {
		client := cache.NewClient(cfg.RedisCfg.Addr, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
		defer client.Close()
		if err := pub.RegisterPublisher("redis", cache.New(cache.NewRedisHashStore(client))); err != nil {
			return err
		}
	}

	eg, ctx := errgroup.WithContext(ctx)

	if cfg.DatabaseURL != "" {
		if err := migration.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		db, err := database.NewDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer db.Close()
		if err := pub.RegisterJournal("postgres", db); err != nil {
			return err
		}
		deps.History = db

		eg.Go(func() error {
			return cronDbCleanup(ctx, db, cfg.Retention, errorChan)
		})
	}

	eg.Go(func() error {
		return engine.Run(ctx)
	})

	eg.Go(func() error {
		return pub.Run(ctx)
	})

	eg.Go(func() error {
		return metrics.Serve(ctx, cfg.MetricsAddr, prometheus.DefaultGatherer)
	})

	eg.Go(func() error {
		return server.New(deps).Serve(ctx, cfg.HTTPAddr)
	})

	eg.Go(func() error {
		// handle any async errors from service
		for {
			select {
			case err := <-errorChan:
				if errors.Is(err, errCron) {
					logger.Error("cron error", zap.Error(err))
					return err
				}
				logger.Warn("async error", zap.Error(err))
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

type cleaner interface {
	Cleanup(ctx context.Context, retention time.Duration) error
}

// cronDbCleanup trims the journal once at start and then nightly until ctx
// is done.
func cronDbCleanup(ctx context.Context, db cleaner, retention time.Duration, errChan chan<- error) error {
	if err := db.Cleanup(ctx, retention); err != nil {
		return err
	}

	c := cron.New()
	if _, err := c.AddFunc(cleanupSchedule, func() {
		if err := db.Cleanup(ctx, retention); err != nil {
			zap.L().Error("error cleaning up database", zap.Error(err))
			errChan <- fmt.Errorf("%w: %w", errCron, err)
			return
		}
		zap.L().Info("journal cleaned up", zap.Duration("retention", retention))
	}); err != nil {
		return err
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
