package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete session records idle for longer than the idle timeout",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		idle, _ := cmd.Flags().GetDuration("idle")
		if idle <= 0 {
			var sessCfg session.Config
			if err := config.Load(&sessCfg); err != nil {
				return err
			}
			idle = sessCfg.IdleTimeout
		}
		if idle <= 0 {
			return errors.New("idle timeout not set: pass --idle or SESSION_IDLE_TIMEOUT")
		}

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		pruner, ok := a.store.(session.Pruner)
		if !ok {
			return fmt.Errorf("store %T cannot prune", a.store)
		}
		n, err := pruner.DeleteIdle(ctx, time.Now().Add(-idle))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d idle sessions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().Duration("idle", 0, "idle cutoff, overrides SESSION_IDLE_TIMEOUT")
}
