package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/felixrdev/grant-tagging-system/internal/config"
	"github.com/felixrdev/grant-tagging-system/internal/db"
	"github.com/felixrdev/grant-tagging-system/internal/db/memory"
	dbRedis "github.com/felixrdev/grant-tagging-system/internal/db/redis"
	logpkg "github.com/felixrdev/grant-tagging-system/internal/logger"
	"github.com/felixrdev/grant-tagging-system/internal/metrics"
	"github.com/felixrdev/grant-tagging-system/internal/repository/listing"
	"github.com/felixrdev/grant-tagging-system/internal/schema"
	"github.com/felixrdev/grant-tagging-system/internal/transport/grantapi"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/catalog"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/discovery"
	healthuc "github.com/felixrdev/grant-tagging-system/internal/usecase/health"
	"github.com/felixrdev/grant-tagging-system/internal/usecase/intake"
	"github.com/felixrdev/grant-tagging-system/internal/version"
)

// globalFlags are the persistent root flags.
type globalFlags struct {
	env      string
	config   string
	apiURL   string
	logLevel string
	logFile  string
}

// app is the composition root shared by every command.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	store   db.Store
	gateway *grantapi.Client
	catalog *catalog.Service
	intake  *intake.Service
	health  *healthuc.Service
}

// logTarget picks where logs go. The HTTP bridge logs to stderr like any
// service; every other command keeps stdout and stderr for its own output.
type logTarget int

const (
	logToFile logTarget = iota
	logToStderr
)

func loadConfig(f *globalFlags) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if f.config != "" {
		cfg, err = config.LoadFile(f.config)
	} else {
		cfg, err = config.Load(f.env)
	}
	if err != nil {
		return config.Config{}, err
	}

	if f.apiURL != "" {
		cfg.API.BaseURL = f.apiURL
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Logging.File = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, f *globalFlags, target logTarget) (*app, error) {
	cfg, err := loadConfig(f)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var logger *zap.Logger
	if target == logToStderr {
		logger, err = logpkg.NewLogger(f.env, cfg.Logging.Level)
	} else {
		logger, err = logpkg.NewFileLogger(f.env, cfg.Logging.Level, cfg.Logging.File)
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Debug("Starting grants client",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", f.env),
		zap.String("api", cfg.API.BaseURL),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	store, err := newStore(ctx, cfg.Cache, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	metrics.RegisterClientMetrics()

	gw, err := grantapi.NewClient(&grantapi.Config{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout(),
		UserAgent:  version.UserAgent(),
		Logger:     logger,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		store.Close()
		_ = logger.Sync()
		return nil, fmt.Errorf("create gateway: %w", err)
	}

	validator := schema.New()
	cache := listing.New(store, cfg.Cache.KeyPrefix, listing.Metrics{
		Lookups:       metrics.CacheTotal,
		Invalidations: metrics.CacheInvalidationsTotal,
	}, logger)
	cat := catalog.New(gw, cache, validator, logger)

	return &app{
		env:     f.env,
		cfg:     cfg,
		logger:  logger,
		store:   store,
		gateway: gw,
		catalog: cat,
		intake:  intake.New(cat, validator, logger),
		health:  healthuc.New(gw, store),
	}, nil
}

// newStore builds the listing cache backend for the configured driver.
func newStore(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	var (
		store db.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverMemory:
		store = memory.NewStore()
	case config.DriverValkey, config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:      cfg.Addrs,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			Standalone: len(cfg.Addrs) == 1,
		})
	default:
		err = fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}

	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache store not ready: %w", err)
	}
	logger.Debug("Cache store ready", zap.String("driver", cfg.Driver))
	return store, nil
}

// newController builds a discovery controller over the app's services.
func (a *app) newController(opts ...discovery.Option) *discovery.Controller {
	base := []discovery.Option{
		discovery.WithDebounce(a.cfg.Search.Debounce()),
		discovery.WithLogger(a.logger),
		discovery.WithMetrics(discovery.Metrics{
			Responses: metrics.SearchResponsesTotal,
			Issued:    metrics.SearchRequestsIssued,
		}),
	}
	return discovery.New(a.gateway, a.catalog, append(base, opts...)...)
}

func (a *app) Close() {
	a.store.Close()
	_ = a.logger.Sync()
}
