// Package main provides the entry point for the pricepivot CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/use-agent/pricepivot/config"
	"github.com/use-agent/pricepivot/rules"
)

const version = "0.1.0"

// NewRootCmd creates the root command for pricepivot.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pricepivot",
		Short: "Marketplace price collection and cross-source comparison",
		Long: `pricepivot samples marketplace catalog pages, extracts in-class product
records, deduplicates them and computes per-source price statistics,
price-band histograms and cross-source divergence rankings.

Collection survives page faults and crashes: increments are persisted as
they are collected, and "pricepivot pivot" can aggregate straight from the
increment log of an interrupted run.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewPivotCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogger configures slog from the LogConfig. --verbose forces debug.
func initLogger(cfg config.LogConfig, verbose bool) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// loadRules resolves category rules from a YAML file or a built-in preset.
func loadRules(rulesPath, category string) (*rules.CategoryRules, error) {
	if rulesPath != "" {
		return rules.Load(rulesPath)
	}
	return rules.Preset(category)
}

func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}
