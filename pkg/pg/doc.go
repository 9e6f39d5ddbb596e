// Package pg connects to PostgreSQL with pgx/v5, applies goose migrations
// and stores session records.
//
// # Building blocks
//
//   - Config – environment driven settings (github.com/caarlos0/env) for the
//     pool, connection retries, migrations and the session table name.
//   - Connect – opens a *pgxpool.Pool, retrying while the database starts.
//   - Migrate – applies the embedded session table migration plus an
//     optional directory of application migrations.
//   - Healthcheck – a func(context.Context) error for readiness probes.
//   - SessionStore – a session.Store and session.Pruner backed by a table.
//
// # Usage
//
//	cfg, err := config.Load[pg.Config]()
//	if err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
//
//	manager := session.New(
//	    session.WithStore(pg.NewSessionStore(pool, pg.WithTable(cfg.SessionTable))),
//	    session.WithCookieManager(cookieMgr),
//	)
//
// # Concurrency
//
// Update is a single UPDATE ... WHERE version = $n statement, so two
// requests writing the same record cannot both succeed with the same
// version. last_access only moves forward (GREATEST).
//
// # Error Handling
//
// IsNotFoundError and IsDuplicateKeyError classify pgx errors. The store
// translates them into session.ErrRecordNotFound and session.ErrRecordExists.
package pg
