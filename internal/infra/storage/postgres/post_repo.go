package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/vietddude/postfeed/internal/core/domain"
)

const postColumns = "author, caption, avatar, image, image_alt, place, published_at, likes, comments"

// PostRepo implements storage.PostRepository using PostgreSQL.
type PostRepo struct {
	db    *DB
	table string
}

// NewPostRepo creates a new PostgreSQL post repository reading from table
// (posts when empty).
func NewPostRepo(db *DB, table string) *PostRepo {
	if table == "" {
		table = "posts"
	}
	return &PostRepo{db: db, table: pq.QuoteIdentifier(table)}
}

func listQuery(table string, limit int) (string, []any) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY position, id", postColumns, table)
	if limit > 0 {
		return q + " LIMIT $1", []any{limit}
	}
	return q, nil
}

// List returns posts in feed order.
func (r *PostRepo) List(ctx context.Context, limit int) ([]domain.Post, error) {
	q, args := listQuery(r.table, limit)

	var posts []domain.Post
	if err := r.db.SelectContext(ctx, &posts, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// SaveBatch appends posts after the current last position.
func (r *PostRepo) SaveBatch(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var next int
	if err := tx.GetContext(ctx, &next,
		fmt.Sprintf("SELECT COALESCE(MAX(position), -1) + 1 FROM %s", r.table)); err != nil {
		return fmt.Errorf("failed to read last position: %w", err)
	}

	insert := fmt.Sprintf(
		"INSERT INTO %s (position, %s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		r.table, postColumns,
	)
	for i, p := range posts {
		if _, err := tx.ExecContext(ctx, insert,
			next+i, p.Author, p.Caption, p.Avatar, p.Image, p.ImageAlt, p.Place, p.Time, p.Likes, p.Comments,
		); err != nil {
			return fmt.Errorf("failed to insert post: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit posts: %w", err)
	}
	return nil
}

// Count returns the number of stored posts.
func (r *PostRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}
