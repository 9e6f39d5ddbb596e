package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/httpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the session API on HTTP_ADDR. The record store is chosen with
SESSION_STORE (memory, postgres, redis, mongo or badger).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}

		var httpCfg httpserver.Config
		if err := config.Load(&httpCfg); err != nil {
			_ = a.Close(ctx)
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			httpCfg.Addr = addr
		}

		srv := httpserver.NewFromConfig(httpCfg,
			httpserver.WithLogger(a.log),
			httpserver.WithOnShutdown(a.Close),
		)
		return srv.Run(ctx, newRouter(a))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address, overrides HTTP_ADDR")
}
