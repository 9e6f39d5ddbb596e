package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dmitrymomot/sessionkit/pkg/badger"
	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/clientip"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/environment"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/metrics"
	"github.com/dmitrymomot/sessionkit/pkg/mongo"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/requestid"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Store backends selectable through SESSION_STORE.
const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMongo    = "mongo"
	backendBadger   = "badger"
)

type appConfig struct {
	Env         string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_SERVICE_NAME" envDefault:"sessiond"`
	Store       string `env:"SESSION_STORE" envDefault:"memory"`
	AutoMigrate bool   `env:"SESSION_STORE_AUTO_MIGRATE" envDefault:"false"`
}

// app holds the wired dependencies shared by the commands.
type app struct {
	env      environment.Environment
	log      *slog.Logger
	store    session.Store
	manager  *session.Manager
	registry *prometheus.Registry
	checks   []httpserver.Check
	closers  []func(context.Context) error
}

func loadAppConfig() (appConfig, environment.Environment, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, "", err
	}
	env, err := environment.Parse(cfg.Env)
	if err != nil {
		return cfg, "", err
	}
	return cfg, env, nil
}

func newLogger(env environment.Environment, service string) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(env, service),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			clientip.LoggerExtractor(),
			environment.LoggerExtractor(),
		),
	)
}

// newApp opens the configured store and builds the session manager.
// withManager is false for commands that only talk to the store.
func newApp(ctx context.Context, withManager bool) (*app, error) {
	cfg, env, err := loadAppConfig()
	if err != nil {
		return nil, err
	}

	a := &app{
		env:      env,
		log:      newLogger(env, cfg.ServiceName),
		registry: prometheus.NewRegistry(),
	}
	logger.SetAsDefault(a.log)

	if err := a.openStore(ctx, cfg); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	if !withManager {
		return a, nil
	}

	if err := a.buildManager(); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) buildManager() error {
	var sessCfg session.Config
	if err := config.Load(&sessCfg); err != nil {
		return err
	}
	var cookieCfg cookie.Config
	if err := config.Load(&cookieCfg); err != nil {
		return err
	}
	if a.env.IsProduction() {
		cookieCfg.Secure = true
		sessCfg.SecureCookies = true
	}

	cookies, err := cookie.NewFromConfig(cookieCfg)
	if err != nil {
		return fmt.Errorf("cookie manager: %w", err)
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder, err := metrics.NewRecorder(a.registry)
	if err != nil {
		return err
	}

	a.manager = session.NewFromConfig(sessCfg,
		session.WithStore(a.store),
		session.WithCookieManager(cookies),
		session.WithRecorder(recorder),
		session.WithLogger(a.log),
	)
	if err := a.manager.Ready(); err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return a.manager.Close() })
	return nil
}

func (a *app) openStore(ctx context.Context, appCfg appConfig) error {
	backend := strings.ToLower(appCfg.Store)
	log := a.log.With(logger.Store(backend))

	switch backend {
	case backendMemory:
		a.store = session.NewMemoryStore()

	case backendPostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		if appCfg.AutoMigrate {
			if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
				return err
			}
		}
		a.store = pg.NewSessionStore(pool, pg.WithTable(cfg.SessionTable))
		a.checks = append(a.checks, httpserver.Check{Name: backend, Fn: pg.Healthcheck(pool)})

	case backendRedis:
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		a.store = redis.NewSessionStoreFromConfig(client, cfg)
		a.checks = append(a.checks, httpserver.Check{Name: backend, Fn: redis.Healthcheck(client)})

	case backendMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Disconnect)
		store := mongo.NewSessionStore(client.Database(cfg.Database).Collection(cfg.SessionCollection))
		if err := store.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.store = store
		a.checks = append(a.checks, httpserver.Check{Name: backend, Fn: mongo.Healthcheck(client)})

	case backendBadger:
		var cfg badger.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		db, err := badger.Open(cfg, log)
		if err != nil {
			return err
		}
		gcCtx, stopGC := context.WithCancel(context.WithoutCancel(ctx))
		go badger.RunGC(gcCtx, db, cfg.GCInterval, cfg.GCThreshold, log)
		a.closers = append(a.closers, func(context.Context) error {
			stopGC()
			return db.Close()
		})
		a.checks = append(a.checks, httpserver.Check{Name: backend, Fn: badger.Healthcheck(db)})
		a.store = badger.NewSessionStore(db, badger.WithKeyPrefix(cfg.KeyPrefix))

	default:
		return fmt.Errorf("unknown session store %q", backend)
	}

	log.InfoContext(ctx, "session store ready")
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
