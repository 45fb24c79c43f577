package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the euthd CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "euthd",
		Short: "euthd - gesture-based authentication service",
		Long: `euthd turns a stream of classified facial gestures (blinks, neutral
intervals, and reset shakes) into symbolic password attempts and verifies
them against a stored credential digest.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())

	return cmd
}
