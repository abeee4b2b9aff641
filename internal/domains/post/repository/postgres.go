package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/post"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/logger"
)

const (
	postCacheKeyPrefix = "post:"
	postCacheTTL       = 5 * time.Minute

	postColumns = `id, publication_id, author_id, title, body, cover_image_url,
		is_published, is_paid, published_at, created_at, updated_at`
)

type postgresPostRepository struct {
	db    *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresPostRepository(db *pgxpool.Pool, cache cache.Cache) post.Repository {
	return &postgresPostRepository{db: db, cache: cache}
}

func (r *postgresPostRepository) Create(ctx context.Context, p *post.Post) (uuid.UUID, error) {
	query := `
		INSERT INTO posts (publication_id, author_id, title, body, is_paid)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query,
		p.PublicationID, p.AuthorID, p.Title, p.Body, p.IsPaid,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create post: %w", err)
	}
	return id, nil
}

func (r *postgresPostRepository) FindByID(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	cacheKey := postCacheKeyPrefix + id.String()

	var cached post.Post
	if found, err := r.cache.Get(ctx, cacheKey, &cached); err == nil && found {
		return &cached, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM posts WHERE id = $1`, postColumns)

	p, err := r.scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, p, postCacheTTL); err != nil {
		logger.Warn("Failed to cache post", map[string]interface{}{
			"post_id": id.String(),
			"error":   err.Error(),
		})
	}
	return p, nil
}

func (r *postgresPostRepository) Update(ctx context.Context, p *post.Post) error {
	query := `
		UPDATE posts
		SET title = $2, body = $3, is_paid = $4, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, p.ID, p.Title, p.Body, p.IsPaid)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return post.ErrPostNotFound
	}

	r.invalidate(ctx, p.ID)
	return nil
}

func (r *postgresPostRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return post.ErrPostNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

// SetPublished là state transition duy nhất đụng tới published_at.
// The CASE keeps published_at from being overwritten on republish: it is
// stamped only when flipping to published while still NULL.
func (r *postgresPostRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*post.Post, error) {
	query := fmt.Sprintf(`
		UPDATE posts
		SET is_published = $2,
		    published_at = CASE WHEN $2 = TRUE AND published_at IS NULL THEN NOW() ELSE published_at END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING %s`, postColumns)

	p, err := r.scanPost(r.db.QueryRow(ctx, query, id, published))
	if err != nil {
		return nil, err
	}

	r.invalidate(ctx, id)
	return p, nil
}

func (r *postgresPostRepository) ListByPublication(ctx context.Context, publicationID uuid.UUID, publishedOnly bool, limit, offset int) ([]*post.Post, int64, error) {
	where := `WHERE publication_id = $1`
	if publishedOnly {
		where += ` AND is_published = TRUE`
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM posts ` + where
	if err := r.db.QueryRow(ctx, countQuery, publicationID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM posts %s
		ORDER BY COALESCE(published_at, created_at) DESC
		LIMIT $2 OFFSET $3`, postColumns, where)

	rows, err := r.db.Query(ctx, query, publicationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*post.Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, total, nil
}

func (r *postgresPostRepository) SetCoverImage(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE posts SET cover_image_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("failed to set cover image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return post.ErrPostNotFound
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *postgresPostRepository) invalidate(ctx context.Context, id uuid.UUID) {
	if err := r.cache.Delete(ctx, postCacheKeyPrefix+id.String()); err != nil {
		logger.Warn("Failed to invalidate post cache", map[string]interface{}{
			"post_id": id.String(),
			"error":   err.Error(),
		})
	}
}

func (r *postgresPostRepository) scanPost(row pgx.Row) (*post.Post, error) {
	var p post.Post
	err := row.Scan(
		&p.ID, &p.PublicationID, &p.AuthorID, &p.Title, &p.Body, &p.CoverImageURL,
		&p.IsPublished, &p.IsPaid, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, post.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return &p, nil
}
