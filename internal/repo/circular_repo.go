package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/tenclo/intradesk/internal/model"
	"github.com/tenclo/intradesk/internal/pkg/dbutil"
	appErr "github.com/tenclo/intradesk/internal/pkg/errors"
)

type CircularRepo struct {
	db *sql.DB
}

func NewCircularRepo(db *sql.DB) *CircularRepo {
	return &CircularRepo{db: db}
}

// Create inserts the record and fills in the assigned id.
func (r *CircularRepo) Create(ctx context.Context, c *model.Circular) error {
	const query = `
		INSERT INTO circulars (headline, file_urls, content, published_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	row := r.db.QueryRowContext(ctx, query, c.Headline, pq.Array(c.FileURLs), c.Content, c.PublishedAt)
	return row.Scan(&c.ID)
}

func (r *CircularRepo) GetByID(ctx context.Context, id int64) (*model.Circular, error) {
	const query = `
		SELECT id, headline, file_urls, content, published_at, embedding IS NOT NULL
		FROM circulars
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)
	var c model.Circular
	var urls []string
	if err := row.Scan(&c.ID, &c.Headline, pq.Array(&urls), &c.Content, &c.PublishedAt, &c.HasEmbedding); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	c.FileURLs = urls
	return &c, nil
}

func (r *CircularRepo) List(ctx context.Context, limit, offset int) ([]model.Circular, error) {
	where := map[string]interface{}{
		"_orderby": "published_at desc, id desc",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("circulars",
		where, []string{"id", "headline", "file_urls", "published_at", "embedding IS NOT NULL"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Circular
	for rows.Next() {
		var c model.Circular
		var urls []string
		if err := rows.Scan(&c.ID, &c.Headline, pq.Array(&urls), &c.PublishedAt, &c.HasEmbedding); err != nil {
			return nil, err
		}
		c.FileURLs = urls
		items = append(items, c)
	}
	return items, rows.Err()
}

// SetContent stores the extracted text for later re-embedding. Best effort,
// does not touch the embedding column.
func (r *CircularRepo) SetContent(ctx context.Context, id int64, content string) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{"content": content}
	sqlStr, args, err := builder.BuildUpdate("circulars", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *CircularRepo) SetEmbedding(ctx context.Context, id int64, embedding []float32) error {
	const query = `UPDATE circulars SET embedding = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pgvector.NewVector(embedding), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

// ListMissingEmbeddings returns records the backfill job should re-embed.
func (r *CircularRepo) ListMissingEmbeddings(ctx context.Context, limit int) ([]model.Circular, error) {
	const query = `
		SELECT id, headline, file_urls, content, published_at
		FROM circulars
		WHERE embedding IS NULL
		ORDER BY published_at ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.Circular
	for rows.Next() {
		var c model.Circular
		var urls []string
		if err := rows.Scan(&c.ID, &c.Headline, pq.Array(&urls), &c.Content, &c.PublishedAt); err != nil {
			return nil, err
		}
		c.FileURLs = urls
		items = append(items, c)
	}
	return items, rows.Err()
}

// SearchHit is one nearest-neighbor result row. Distance is L2 distance in
// the stored embedding space.
type SearchHit struct {
	ID          int64
	Headline    string
	FileURLs    []string
	PublishedAt time.Time
	Distance    float64
}

// SearchByEmbedding runs an exact k-NN scan over embedded circulars.
// Records without an embedding are excluded, ties on distance rank the most
// recent record first.
func (r *CircularRepo) SearchByEmbedding(ctx context.Context, embedding []float32, k int) ([]SearchHit, error) {
	const query = `
		SELECT id, headline, file_urls, published_at, embedding <-> $1 AS distance
		FROM circulars
		WHERE embedding IS NOT NULL
		ORDER BY distance ASC, published_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		var urls []string
		if err := rows.Scan(&hit.ID, &hit.Headline, pq.Array(&urls), &hit.PublishedAt, &hit.Distance); err != nil {
			return nil, err
		}
		hit.FileURLs = urls
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}
