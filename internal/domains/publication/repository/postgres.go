package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	publication "newsletter-backend/internal/domains/publication"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/database"
	"newsletter-backend/pkg/logger"
)

const pgUniqueViolation = "23505"

const publicationCacheTTL = 5 * time.Minute

type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) publication.Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

const publicationColumns = `
	id, name, slug, description, owner_id, monthly_price, currency, created_at, updated_at
`

func scanPublication(row pgx.Row) (*publication.Publication, error) {
	var p publication.Publication
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.OwnerID,
		&p.MonthlyPrice, &p.Currency, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, publication.ErrPublicationNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) Create(ctx context.Context, p *publication.Publication) (uuid.UUID, error) {
	query := `
		INSERT INTO publications (
			name, slug, description, owner_id, monthly_price, currency, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		p.Name, p.Slug, p.Description, p.OwnerID,
		p.MonthlyPrice, p.Currency, p.CreatedAt, p.UpdatedAt,
	).Scan(&id)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uuid.Nil, publication.ErrSlugAlreadyExists
		}
		return uuid.Nil, err
	}

	return id, nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*publication.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE id = $1`
	return scanPublication(r.pool.QueryRow(ctx, query, id))
}

// FindBySlug tìm theo slug với cache-aside - đây là hot path của public pages
func (r *postgresRepository) FindBySlug(ctx context.Context, slug string) (*publication.Publication, error) {
	cacheKey := fmt.Sprintf("publication:slug:%s", slug)

	var cached publication.Publication
	found, err := r.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		logger.Warn("publication cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if found {
		return &cached, nil
	}

	query := `SELECT ` + publicationColumns + ` FROM publications WHERE slug = $1`
	p, err := scanPublication(r.pool.QueryRow(ctx, query, slug))
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, p, publicationCacheTTL); err != nil {
		logger.Warn("publication cache write failed", map[string]interface{}{"error": err.Error()})
	}

	return p, nil
}

func (r *postgresRepository) Update(ctx context.Context, p *publication.Publication) error {
	// Lấy slug cũ để invalidate cache sau khi rename
	var oldSlug string
	if err := r.pool.QueryRow(ctx, `SELECT slug FROM publications WHERE id = $1`, p.ID).Scan(&oldSlug); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return publication.ErrPublicationNotFound
		}
		return err
	}

	query := `
		UPDATE publications
		SET name = $2, slug = $3, description = $4, monthly_price = $5, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, p.ID, p.Name, p.Slug, p.Description, p.MonthlyPrice)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return publication.ErrSlugAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return publication.ErrPublicationNotFound
	}

	r.invalidateSlugs(ctx, oldSlug, p.Slug)
	return nil
}

// Delete xóa publication cùng toàn bộ posts, subscriptions và delivery log
// trong một transaction. Tránh rely vào FK cascade để migration đơn giản hơn.
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var slug string
	if err := r.pool.QueryRow(ctx, `SELECT slug FROM publications WHERE id = $1`, id).Scan(&slug); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return publication.ErrPublicationNotFound
		}
		return err
	}

	err := database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM deliveries
			WHERE post_id IN (SELECT id FROM posts WHERE publication_id = $1)`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM subscriptions WHERE publication_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE publication_id = $1`, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM publications WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return publication.ErrPublicationNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateSlugs(ctx, slug)
	return nil
}

func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]publication.Publication, error) {
	query := `SELECT ` + publicationColumns + ` FROM publications WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []publication.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *postgresRepository) invalidateSlugs(ctx context.Context, slugs ...string) {
	keys := make([]string, 0, len(slugs))
	for _, s := range slugs {
		keys = append(keys, fmt.Sprintf("publication:slug:%s", s))
	}
	if err := r.cache.Delete(ctx, keys...); err != nil {
		logger.Warn("publication cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}
