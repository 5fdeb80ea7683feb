package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joestump/quotedb/internal/config"
	"github.com/joestump/quotedb/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes the command line in args. Errors a subcommand has not already
// logged (bad flags, unknown commands, bad log level) are logged here once.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.As(err, new(loggedError)) {
		log, _ := logging.New(stderr, "")
		log.Error().Err(err).Msg("command failed")
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quotedb",
		Short:         "Migrate and seed the quotes database",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	f.String("driver", "sqlite", "database driver (sqlite or postgres)")
	f.String("dsn", "quotedb.db", "SQLite file path or PostgreSQL connection URL")
	f.String("log-level", "info", "log level (debug, info, warn, error)")
	f.Bool("verbose", false, "print goose output for every migration statement")

	// Viper keys use underscores (log_level) so they match the env var
	// suffix after stripping the QUOTEDB_ prefix.
	bindFlag := func(viperKey, flagName string) {
		_ = viper.BindPFlag(viperKey, f.Lookup(flagName))
	}
	bindFlag("driver", "driver")
	bindFlag("dsn", "dsn")
	bindFlag("log_level", "log-level")
	bindFlag("verbose", "verbose")

	// QUOTEDB_DSN -> "dsn", QUOTEDB_LOG_LEVEL -> "log_level", etc.
	viper.SetEnvPrefix("QUOTEDB")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newSetupCmd(),
		newSchemaCmd(),
	)
	return rootCmd
}
