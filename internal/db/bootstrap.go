package db

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const (
	legacyVersionTable = "schema_migrations"
	gooseVersionTable  = "goose_db_version"
)

// adoptLegacyVersions copies applied versions from a schema_migrations table
// (one string version per row) into a new goose_db_version table so goose
// does not re-apply them. Only versions listed in known are copied. It does
// nothing when there is no legacy table or goose already tracks the store.
func (d *DB) adoptLegacyVersions(ctx context.Context, known []int64) ([]int64, error) {
	exists, err := d.tableExists(ctx, d.conn, legacyVersionTable)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil // Fresh database, nothing to adopt
	}

	exists, err = d.tableExists(ctx, d.conn, gooseVersionTable)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil // Already adopted
	}

	versions, err := d.legacyVersions(ctx, known)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin adoption: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, d.gooseTableDDL()); err != nil {
		return nil, fmt.Errorf("create %s: %w", gooseVersionTable, err)
	}

	// goose seeds its table with version 0 when it creates it.
	insert := d.rebind(`INSERT INTO goose_db_version (version_id, is_applied) VALUES (?, ?)`)
	for _, v := range append([]int64{0}, versions...) {
		if _, err := tx.ExecContext(ctx, insert, v, true); err != nil {
			return nil, fmt.Errorf("insert goose version %d: %w", v, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adoption: %w", err)
	}
	return versions, nil
}

// legacyVersions reads schema_migrations and keeps the versions goose knows
// about, sorted ascending.
func (d *DB) legacyVersions(ctx context.Context, known []int64) ([]int64, error) {
	rows, err := d.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read legacy versions: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var versions []int64
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan legacy version: %w", err)
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw.String), 10, 64)
		if err != nil || !slices.Contains(known, v) {
			continue
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read legacy versions: %w", err)
	}

	slices.Sort(versions)
	return slices.Compact(versions), nil
}

func (d *DB) gooseTableDDL() string {
	if d.driver == DriverPostgres {
		return `CREATE TABLE goose_db_version (
			id integer PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY,
			version_id bigint NOT NULL,
			is_applied boolean NOT NULL,
			tstamp timestamp NOT NULL DEFAULT now()
		)`
	}
	return `CREATE TABLE goose_db_version (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		version_id INTEGER NOT NULL,
		is_applied INTEGER NOT NULL,
		tstamp TIMESTAMP DEFAULT (datetime('now'))
	)`
}
