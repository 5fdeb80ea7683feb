package db

import (
	"context"
	"fmt"
)

// Table is an application table and its columns in declaration order.
type Table struct {
	Name    string
	Columns []string
}

// Tables lists the application tables, sorted by name. Migration tracking
// tables are left out.
func (d *DB) Tables(ctx context.Context) ([]Table, error) {
	var query string
	switch d.driver {
	case DriverPostgres:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			AND table_name NOT IN ('goose_db_version', 'schema_migrations')
			ORDER BY table_name`
	default:
		query = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			AND name NOT IN ('goose_db_version', 'schema_migrations')
			ORDER BY name`
	}

	rows, err := d.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan table: %w", err)
		}
		names = append(names, name)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	// SQLite allows a single open connection, so columns are read only after
	// the table cursor is closed.
	tables := make([]Table, 0, len(names))
	for _, name := range names {
		cols, err := d.Columns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}
	return tables, nil
}

// Columns returns the column names of table in declaration order. It returns
// an empty slice for a table that does not exist.
func (d *DB) Columns(ctx context.Context, table string) ([]string, error) {
	var query string
	switch d.driver {
	case DriverPostgres:
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`
	default:
		query = `SELECT name FROM pragma_table_info(?) ORDER BY cid`
	}

	rows, err := d.conn.QueryContext(ctx, d.rebind(query), table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close() //nolint:errcheck

	cols := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}
