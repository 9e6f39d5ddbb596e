package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres session table",
	Long: `Applies the embedded goose migration that creates the session table,
followed by any migrations found in PG_MIGRATIONS_PATH.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		_, env, err := loadAppConfig()
		if err != nil {
			return err
		}
		log := newLogger(env, "sessiond")

		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
