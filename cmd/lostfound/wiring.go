package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/config"
	"github.com/gcbaptista/go-lostfound/internal/engine"
	"github.com/gcbaptista/go-lostfound/internal/logger"
	"github.com/gcbaptista/go-lostfound/internal/metrics"
	"github.com/gcbaptista/go-lostfound/internal/notify"
	"github.com/gcbaptista/go-lostfound/internal/records"
	"github.com/gcbaptista/go-lostfound/store"
	badgerstore "github.com/gcbaptista/go-lostfound/store/badger"
	"github.com/gcbaptista/go-lostfound/store/postgres"
)

// components is everything a command may need, built from one configuration.
type components struct {
	cfg      config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	store    store.Store
	engine   *engine.Engine
	records  *records.Service
	notifier *notify.Notifier
}

// resolveConfig loads the --config file (or the defaults) and applies the
// global flag overrides on top.
func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if c.IsSet("driver") {
		cfg.Store.Driver = c.String("driver")
	}
	if c.IsSet("store-path") {
		cfg.Store.Path = c.String("store-path")
	}
	if c.IsSet("snapshot") {
		cfg.Store.Snapshot = c.String("snapshot")
	}
	if c.IsSet("dsn") {
		cfg.Store.DSN = c.String("dsn")
	}
	if c.IsSet("strategy") {
		cfg.Matcher.Strategy = c.String("strategy")
	}
	if c.IsSet("log-env") {
		cfg.Logging.Env = c.String("log-env")
	}
	if c.IsSet("log-level") {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("port") {
		cfg.HTTP.Port = c.Int("port")
	}
	if c.IsSet("notify") {
		cfg.Notify.Enabled = c.Bool("notify")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore opens the record store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemoryStore(cfg.Snapshot, log.Named("store"))
	case config.DriverBadger:
		return badgerstore.Open(cfg.Path, cfg.Path == "", log)
	case config.DriverPostgres:
		st, err := postgres.Open(ctx, cfg.DSN, log)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			_ = st.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// build wires the configuration, logger, store, engine, record service and notifier.
func build(c *cli.Context) (*components, error) {
	cfg, err := resolveConfig(c)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Logging.Env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	st, err := openStore(c.Context, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	m := metrics.New(prometheus.NewRegistry())

	strategy, err := engine.NewStrategy(cfg.Matcher.Strategy)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	opts := []engine.Option{
		engine.WithStrategy(strategy),
		engine.WithLogger(log.Named("engine")),
		engine.WithMetrics(m),
	}
	if cfg.Matcher.PoolSize > 0 {
		opts = append(opts, engine.WithPoolSize(cfg.Matcher.PoolSize))
	}
	eng, err := engine.New(st, opts...)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc, err := records.NewService(st,
		records.WithObserver(eng),
		records.WithLogger(log.Named("records")),
	)
	if err != nil {
		eng.Release()
		_ = st.Close()
		return nil, err
	}

	notifier := notify.NewNotifier(notify.NewLogDispatcher(log.Named("notify")), cfg.Notify.Enabled)

	log.Debug("components ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("strategy", eng.StrategyName()),
		zap.Bool("notify", cfg.Notify.Enabled),
	)

	return &components{
		cfg:      cfg,
		logger:   log,
		metrics:  m,
		store:    st,
		engine:   eng,
		records:  svc,
		notifier: notifier,
	}, nil
}

// Close releases the engine, closes the store and flushes the logger.
func (cs *components) Close() {
	cs.engine.Release()
	if err := cs.store.Close(); err != nil {
		cs.logger.Error("failed to close store", zap.Error(err))
	}
	_ = cs.logger.Sync()
}
