package seed

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joestump/quotedb/internal/db"
)

const (
	foxxBody   = "Health nuts are going to feel stupid one day, lying around in hospitals dying of nothing."
	bonzaiBody = "Wherever you go, there you are."
)

func migratedStore(t *testing.T) *db.DB {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Migrate(ctx, db.MigrateOptions{}, zerolog.Nop())
	require.NoError(t, err)
	return d
}

func TestRunInsertsBothQuotes(t *testing.T) {
	d := migratedStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	report, err := Run(ctx, d, &out)
	require.NoError(t, err)

	assert.Len(t, report.Inserted, 2)
	assert.Equal(t, 2, report.Count)

	quotes, err := d.ListQuotes(ctx, 10)
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, foxxBody, quotes[0].Body)
	assert.Equal(t, "Redd Foxx", quotes[0].Author)
	assert.Nil(t, quotes[0].Year)
	assert.True(t, quotes[0].Verified)

	assert.Equal(t, bonzaiBody, quotes[1].Body)
	assert.Equal(t, "Buckaroo Bonzai", quotes[1].Author)
	require.NotNil(t, quotes[1].Year)
	assert.Equal(t, 1997, *quotes[1].Year)
	assert.False(t, quotes[1].Verified)

	for _, q := range quotes {
		assert.False(t, q.CreatedAt.IsZero())
		assert.True(t, q.CreatedAt.Equal(q.UpdatedAt))
	}

	posts, err := d.CountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, posts)
}

func TestRunReport(t *testing.T) {
	d := migratedStore(t)

	var out bytes.Buffer
	report, err := Run(context.Background(), d, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Count of quotes in the database: 2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Attributes of first quote in the database: id="))
	assert.Contains(t, lines[1], `author="Redd Foxx" year=nil verified=true`)
	assert.Equal(t, "Attributes of first quote in the database: "+report.First.Attributes(), lines[1])
}

func TestRunTwiceDuplicates(t *testing.T) {
	d := migratedStore(t)
	ctx := context.Background()

	_, err := Run(ctx, d, &bytes.Buffer{})
	require.NoError(t, err)

	var out bytes.Buffer
	report, err := Run(ctx, d, &out)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Count)
	assert.True(t, strings.HasPrefix(out.String(), "Count of quotes in the database: 4\n"))
	assert.Equal(t, foxxBody, report.First.Body, "first row is still the first inserted")

	posts, err := d.CountPosts(ctx)
	require.NoError(t, err)
	assert.Zero(t, posts)
}

func TestRunAfterRowWithoutVerified(t *testing.T) {
	d := migratedStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := d.Conn().Exec(
		`INSERT INTO quotes (body, author, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		"earlier", "someone", now, now,
	)
	require.NoError(t, err)

	var out bytes.Buffer
	report, err := Run(ctx, d, &out)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Count)
	assert.Equal(t, "earlier", report.First.Body)
	assert.False(t, report.First.Verified)
	assert.Contains(t, out.String(), `author="someone" year=nil verified=false`)
}

func TestRunWithoutSchemaFails(t *testing.T) {
	ctx := context.Background()
	d, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "empty.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	var out bytes.Buffer
	_, err = Run(ctx, d, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such table")
	assert.Empty(t, out.String())
}

func TestQuotesReturnsFreshSlice(t *testing.T) {
	a := Quotes()
	a[0].Author = "changed"
	*a[1].Year = 2000

	b := Quotes()
	assert.Equal(t, "Redd Foxx", b[0].Author)
	assert.Equal(t, 1997, *b[1].Year)
}

type failingStore struct {
	err error
}

func (f failingStore) InsertQuotes(context.Context, []db.Quote) ([]int64, error) { return nil, f.err }
func (f failingStore) CountQuotes(context.Context) (int, error)                  { return 0, nil }
func (f failingStore) FirstQuote(context.Context) (*db.Quote, error)             { return nil, nil }

func TestRunPropagatesStoreError(t *testing.T) {
	boom := errors.New("boom")

	_, err := Run(context.Background(), failingStore{err: boom}, &bytes.Buffer{})
	require.ErrorIs(t, err, boom)
}
