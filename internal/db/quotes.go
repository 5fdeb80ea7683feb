package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quote is a row of the quotes table.
type Quote struct {
	ID        int64
	Body      string
	Author    string
	Year      *int // nil when the year is unknown
	Verified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attributes renders every column of q as space separated key=value pairs in
// column order. Strings are quoted and a missing year renders as nil.
func (q Quote) Attributes() string {
	year := "nil"
	if q.Year != nil {
		year = strconv.Itoa(*q.Year)
	}
	fields := []string{
		"id=" + strconv.FormatInt(q.ID, 10),
		"body=" + strconv.Quote(q.Body),
		"author=" + strconv.Quote(q.Author),
		"year=" + year,
		"verified=" + strconv.FormatBool(q.Verified),
		"created_at=" + q.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at=" + q.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	return strings.Join(fields, " ")
}

const quoteColumns = `id, body, author, year, verified, created_at, updated_at`

// scanQuote reads a quotes row. Rows written without body, author or
// verified (older stores had no column defaults) read as "", "" and false.
func scanQuote(scanner interface{ Scan(...any) error }, q *Quote) error {
	var (
		body, author sql.NullString
		verified     sql.NullBool
	)
	if err := scanner.Scan(&q.ID, &body, &author, &q.Year, &verified, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return err
	}
	q.Body = body.String
	q.Author = author.String
	q.Verified = verified.Bool
	return nil
}

func (d *DB) insertQuote(ctx context.Context, x queryer, q *Quote) (int64, error) {
	now := d.now().UTC()
	var id int64
	err := x.QueryRowContext(ctx, d.rebind(
		`INSERT INTO quotes (body, author, year, verified, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		q.Body, q.Author, q.Year, q.Verified, now, now,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	return id, nil
}

// InsertQuote stores a quote, stamping created_at and updated_at, and
// returns its ID.
func (d *DB) InsertQuote(ctx context.Context, q *Quote) (int64, error) {
	return d.insertQuote(ctx, d.conn, q)
}

// InsertQuotes stores every quote in a single transaction and returns their
// IDs in order. Nothing is stored if any insert fails.
func (d *DB) InsertQuotes(ctx context.Context, quotes []Quote) ([]int64, error) {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert quotes: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ids := make([]int64, 0, len(quotes))
	for i := range quotes {
		id, err := d.insertQuote(ctx, tx, &quotes[i])
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert quotes: %w", err)
	}
	return ids, nil
}

// CountQuotes returns the number of rows in quotes.
func (d *DB) CountQuotes(ctx context.Context) (int, error) {
	var n int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count quotes: %w", err)
	}
	return n, nil
}

// FirstQuote returns the quote with the lowest ID, or nil when the table is
// empty.
func (d *DB) FirstQuote(ctx context.Context) (*Quote, error) {
	q := &Quote{}
	row := d.conn.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes ORDER BY id ASC LIMIT 1`)
	if err := scanQuote(row, q); errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("first quote: %w", err)
	}
	return q, nil
}

// ListQuotes returns up to limit quotes ordered by ID.
func (d *DB) ListQuotes(ctx context.Context, limit int) ([]Quote, error) {
	rows, err := d.conn.QueryContext(ctx,
		d.rebind(`SELECT `+quoteColumns+` FROM quotes ORDER BY id ASC LIMIT ?`), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := scanQuote(rows, &q); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}
