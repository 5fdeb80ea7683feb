package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

// MigrationStatus describes one embedded migration and whether it has been
// applied to the connected store.
type MigrationStatus struct {
	Version   int64
	Source    string
	Applied   bool
	AppliedAt *time.Time
}

// MigrateOptions tunes the goose provider.
type MigrateOptions struct {
	// Verbose turns on goose's own per-statement output.
	Verbose bool
}

func (d *DB) dialect() goose.Dialect {
	if d.driver == DriverPostgres {
		return goose.DialectPostgres
	}
	return goose.DialectSQLite3
}

func (d *DB) migrationDir() string {
	return "migrations/" + string(d.driver)
}

// provider builds a goose provider over the embedded migrations for the
// connected dialect. Versions recorded by a legacy schema_migrations table
// are adopted before goose creates its own version table.
func (d *DB) provider(ctx context.Context, opts MigrateOptions, log zerolog.Logger) (*goose.Provider, error) {
	fsys, err := fs.Sub(migrationFS, d.migrationDir())
	if err != nil {
		return nil, fmt.Errorf("migration fs: %w", err)
	}

	p, err := goose.NewProvider(d.dialect(), d.conn, fsys, goose.WithVerbose(opts.Verbose))
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}

	known := make([]int64, 0, len(p.ListSources()))
	for _, s := range p.ListSources() {
		known = append(known, s.Version)
	}
	adopted, err := d.adoptLegacyVersions(ctx, known)
	if err != nil {
		return nil, fmt.Errorf("adopt legacy versions: %w", err)
	}
	if len(adopted) > 0 {
		log.Info().Ints64("versions", adopted).Msg("adopted versions from schema_migrations")
	}

	return p, nil
}

// Migrate applies every pending migration, each in its own transaction, and
// returns the versions it applied in order.
func (d *DB) Migrate(ctx context.Context, opts MigrateOptions, log zerolog.Logger) ([]int64, error) {
	p, err := d.provider(ctx, opts, log)
	if err != nil {
		return nil, err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate up: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		log.Info().
			Int64("version", r.Source.Version).
			Str("file", r.Source.Path).
			Dur("duration", r.Duration).
			Msg("applied migration")
		applied = append(applied, r.Source.Version)
	}
	if len(applied) == 0 {
		log.Info().Msg("no pending migrations")
	}
	return applied, nil
}

// Rollback reverts the most recently applied migration and returns its
// version. It returns 0 when nothing is applied.
func (d *DB) Rollback(ctx context.Context, opts MigrateOptions, log zerolog.Logger) (int64, error) {
	p, err := d.provider(ctx, opts, log)
	if err != nil {
		return 0, err
	}

	r, err := p.Down(ctx)
	if errors.Is(err, goose.ErrNoNextVersion) {
		log.Info().Msg("no migration to roll back")
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migrate down: %w", err)
	}

	log.Info().
		Int64("version", r.Source.Version).
		Str("file", r.Source.Path).
		Dur("duration", r.Duration).
		Msg("rolled back migration")
	return r.Source.Version, nil
}

// Status lists every embedded migration in version order. Like every goose
// call it creates goose_db_version when missing, so versions from a legacy
// schema_migrations table are adopted first; otherwise the new empty table
// would block adoption and goose would re-apply them.
func (d *DB) Status(ctx context.Context, log zerolog.Logger) ([]MigrationStatus, error) {
	p, err := d.provider(ctx, MigrateOptions{}, log)
	if err != nil {
		return nil, err
	}

	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		ms := MigrationStatus{
			Version: s.Source.Version,
			Source:  s.Source.Path,
			Applied: s.State == goose.StateApplied,
		}
		if ms.Applied {
			at := s.AppliedAt
			ms.AppliedAt = &at
		}
		out = append(out, ms)
	}
	return out, nil
}

// Version returns the highest applied migration version, or 0 for an
// unmigrated store. It adopts legacy versions and creates goose_db_version
// for the same reason as Status.
func (d *DB) Version(ctx context.Context, log zerolog.Logger) (int64, error) {
	p, err := d.provider(ctx, MigrateOptions{}, log)
	if err != nil {
		return 0, err
	}

	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate version: %w", err)
	}
	return v, nil
}
