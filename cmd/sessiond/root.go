package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/sessionkit/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:           "sessiond",
	Short:         "Server-side HTTP sessions backed by a pluggable record store",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		files, _ := cmd.Flags().GetStringSlice("env-file")
		if len(files) == 0 {
			return nil
		}
		return config.LoadEnv(files...)
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", nil, "dotenv files to load before reading configuration")
}
