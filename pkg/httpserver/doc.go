// Package httpserver runs an http.Server bound to a context and provides
// liveness and readiness handlers.
//
// Run serves until its context is canceled, drains open connections within
// the shutdown timeout and then runs the WithOnShutdown hooks, so the
// session manager and store pools close after the last request finished.
// Signal handling is left to the caller:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//	    httpserver.WithLogger(log),
//	    httpserver.WithOnShutdown(func(context.Context) error { return manager.Close() }),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
package httpserver
