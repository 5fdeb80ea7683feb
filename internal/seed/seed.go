// Package seed loads the example quotes into a migrated store.
package seed

import (
	"context"
	"fmt"
	"io"

	"github.com/joestump/quotedb/internal/db"
)

// Store is the part of the record layer the seed loader writes to.
type Store interface {
	InsertQuotes(ctx context.Context, quotes []db.Quote) ([]int64, error)
	CountQuotes(ctx context.Context) (int, error)
	FirstQuote(ctx context.Context) (*db.Quote, error)
}

// Report summarises one seed run.
type Report struct {
	Inserted []int64
	Count    int
	First    *db.Quote
}

// Quotes returns the seed rows in insertion order. Each call returns a fresh
// slice.
func Quotes() []db.Quote {
	year := 1997
	return []db.Quote{
		{
			Body:     "Health nuts are going to feel stupid one day, lying around in hospitals dying of nothing.",
			Author:   "Redd Foxx",
			Year:     nil,
			Verified: true,
		},
		{
			Body:     "Wherever you go, there you are.",
			Author:   "Buckaroo Bonzai",
			Year:     &year,
			Verified: false,
		},
	}
}

// Run inserts the seed quotes and writes the row count and the first quote's
// attributes to w. Rows are appended on every call; there is no existence
// check.
func Run(ctx context.Context, store Store, w io.Writer) (*Report, error) {
	ids, err := store.InsertQuotes(ctx, Quotes())
	if err != nil {
		return nil, fmt.Errorf("insert seed quotes: %w", err)
	}

	count, err := store.CountQuotes(ctx)
	if err != nil {
		return nil, err
	}
	first, err := store.FirstQuote(ctx)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, fmt.Errorf("no quotes after seeding")
	}

	if _, err := fmt.Fprintf(w, "Count of quotes in the database: %d\n", count); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if _, err := fmt.Fprintf(w, "Attributes of first quote in the database: %s\n", first.Attributes()); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	return &Report{Inserted: ids, Count: count, First: first}, nil
}
