package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Post is a row of the posts table. Nothing in this module writes posts.
type Post struct {
	ID        int64
	Body      string
	Author    string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CountPosts returns the number of rows in posts.
func (d *DB) CountPosts(ctx context.Context) (int, error) {
	var n int
	if err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// ListPosts returns up to limit posts ordered by ID.
func (d *DB) ListPosts(ctx context.Context, limit int) ([]Post, error) {
	rows, err := d.conn.QueryContext(ctx, d.rebind(
		`SELECT id, body, author, published, created_at, updated_at FROM posts ORDER BY id ASC LIMIT ?`), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var posts []Post
	for rows.Next() {
		var (
			p            Post
			body, author sql.NullString
			published    sql.NullBool
		)
		if err := rows.Scan(&p.ID, &body, &author, &published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Body, p.Author, p.Published = body.String, author.String, published.Bool
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
