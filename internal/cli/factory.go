package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/coach"
	"github.com/aretw0/coach/internal/config"
	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/pkg/adapters/memory"
	"github.com/aretw0/coach/pkg/adapters/redis"
	"github.com/aretw0/coach/pkg/observability"
	"github.com/aretw0/coach/pkg/persistence/middleware"
	"github.com/aretw0/coach/pkg/ports"
)

// NewLogger builds the process logger. Debug forces the debug level;
// quiet surfaces (the interactive chat) pass a nil config to get a no-op logger.
func NewLogger(cfg *config.Config, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	if cfg == nil {
		return logging.NewNop()
	}
	level, err := cfg.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.NewWithOptions(logging.Options{Level: level, Format: cfg.LogFormat})
}

// EngineOptions selects the table and the hooks of an engine.
type EngineOptions struct {
	Table   string
	Logger  *slog.Logger
	Metrics *observability.Metrics
	Debug   bool
}

// NewEngine builds an engine with standard CLI conventions: lifecycle logging
// in debug mode and metrics hooks when a collector set is given.
func NewEngine(opts EngineOptions) (*coach.Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	engineOpts := []coach.Option{coach.WithLogger(logger)}
	if opts.Debug {
		engineOpts = append(engineOpts, coach.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}
	if opts.Metrics != nil {
		engineOpts = append(engineOpts, coach.WithLifecycleHooks(opts.Metrics.Hooks()))
	}

	engine, err := coach.New(opts.Table, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	logger.Debug("response table loaded", "table", engine.Name, "nodes", engine.Table().Len())
	return engine, nil
}

// Backend is a session store plus the optional distributed locker that goes with it.
type Backend struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker
	Close  func() error
}

// NewBackend selects the session store named by cfg.Store.
// The redis backend is pinged before it is returned. When an encryption key is
// configured the store is wrapped so sessions are sealed at rest.
func NewBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	backend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.EncryptionKey == "" {
		return backend, nil
	}

	keys, err := middleware.ParseKeys(cfg.EncryptionKey, cfg.EncryptionFallbackKeys)
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("invalid COACH_ENCRYPTION_KEY: %w", err)
	}
	mw, err := middleware.NewEncryptionMiddleware(keys)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	backend.Store = middleware.Chain(backend.Store, mw)
	logger.Info("session encryption enabled", "fallback_keys", len(keys.FallbackKeys))
	return backend, nil
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Store {
	case config.StoreRedis:
		store, err := redis.New(cfg.RedisURL,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.SessionTTL),
		)
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Client().Close()
			return nil, fmt.Errorf("redis unreachable: %w", err)
		}
		logger.Info("using redis session store", "prefix", store.Prefix(), "ttl", cfg.SessionTTL)
		return &Backend{
			Store:  store,
			Locker: redis.NewLocker(store.Client(), store.LockPrefix()),
			Close:  store.Client().Close,
		}, nil
	default:
		logger.Info("using in-memory session store")
		return &Backend{
			Store: memory.NewStore(),
			Close: func() error { return nil },
		}, nil
	}
}
