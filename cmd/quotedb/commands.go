package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/joestump/quotedb/internal/config"
	"github.com/joestump/quotedb/internal/db"
	"github.com/joestump/quotedb/internal/logging"
	"github.com/joestump/quotedb/internal/seed"
)

// env is what every subcommand runs against.
type env struct {
	cfg config.Config
	db  *db.DB
	log zerolog.Logger
}

func (e *env) migrateOptions() db.MigrateOptions {
	return db.MigrateOptions{Verbose: e.cfg.Verbose}
}

// loggedError marks an error that has already been written to the log.
type loggedError struct {
	err error
}

func (e loggedError) Error() string { return e.err.Error() }
func (e loggedError) Unwrap() error { return e.err }

// withStore loads configuration, opens the store and runs fn against it.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	cfg := config.Load()

	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	driver, err := cfg.Store()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return loggedError{err}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	log.Debug().Str("driver", string(driver)).Msg("connecting to database")
	database, err := db.Open(ctx, driver, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("failed to open database")
		return loggedError{fmt.Errorf("failed to open database: %w", err)}
	}
	defer database.Close() //nolint:errcheck

	if err := fn(ctx, &env{cfg: cfg, db: database, log: log}); err != nil {
		log.Error().Err(err).Str("command", cmd.CommandPath()).Msg("command failed")
		return loggedError{err}
	}
	return nil
}

const adoptsLegacyNote = "\n\nCreates the goose_db_version table if it is missing, " +
	"adopting versions recorded in a legacy schema_migrations table."

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage schema migrations",
	}

	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(ctx context.Context, e *env) error {
					_, err := e.db.Migrate(ctx, e.migrateOptions(), e.log)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(ctx context.Context, e *env) error {
					_, err := e.db.Rollback(ctx, e.migrateOptions(), e.log)
					return err
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show every migration and whether it is applied",
			Long:  "Show every migration and whether it is applied." + adoptsLegacyNote,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(ctx context.Context, e *env) error {
					statuses, err := e.db.Status(ctx, e.log)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied " + s.AppliedAt.UTC().Format(time.RFC3339)
						}
						fmt.Fprintf(out, "%d  %-32s  %s\n", s.Version, s.Source, state)
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Long:  "Print the current schema version." + adoptsLegacyNote,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withStore(cmd, func(ctx context.Context, e *env) error {
					v, err := e.db.Version(ctx, e.log)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), v)
					return nil
				})
			},
		},
	)
	return migrateCmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the example quotes (appends on every run)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, e *env) error {
				return runSeed(ctx, cmd, e)
			})
		},
	}
}

func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Apply pending migrations, then seed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, e *env) error {
				if _, err := e.db.Migrate(ctx, e.migrateOptions(), e.log); err != nil {
					return err
				}
				return runSeed(ctx, cmd, e)
			})
		},
	}
}

func runSeed(ctx context.Context, cmd *cobra.Command, e *env) error {
	report, err := seed.Run(ctx, e.db, cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	e.log.Info().Ints64("ids", report.Inserted).Int("total", report.Count).Msg("seeded quotes")
	return nil
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print every application table and its columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, e *env) error {
				tables, err := e.db.Tables(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, t := range tables {
					fmt.Fprintf(out, "%s: %s\n", t.Name, strings.Join(t.Columns, ", "))
				}
				return nil
			})
		},
	}
}
