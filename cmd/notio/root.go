package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alfaphoenix/notio/internal/config"
	"github.com/alfaphoenix/notio/internal/logger"
	"github.com/alfaphoenix/notio/internal/store"
)

// newRootCmd builds the notio command tree.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "notio",
		Short:         "Notes backend with sharing, tags and a Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newUserCmd(&configPath),
	)
	return root
}

// env is what every subcommand needs: settings, a logger and the store.
type env struct {
	cfg   config.Config
	log   zerolog.Logger
	store *store.Store

	logCloser io.Closer
}

// setup loads configuration and opens the logger and the store.
func setup(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, closer, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	st, err := store.Open(store.Config{Driver: cfg.DatabaseDriver, DSN: cfg.DatabaseURL})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: st, logCloser: closer}, nil
}

// close releases the store and the log file.
func (e *env) close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn().Err(err).Msg("close store")
	}
	_ = e.logCloser.Close()
}

// newMigrateCmd builds the command that migrates the schema.
func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.store.Migrate(contextOf(cmd)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

// contextOf returns the command context or a background one.
func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
