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

	user "newsletter-backend/internal/domains/user"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/logger"
)

// pgUniqueViolation là PostgreSQL error code cho unique constraint violation
const pgUniqueViolation = "23505"

const userCacheTTL = 5 * time.Minute

// postgresRepository là concrete implementation của user.Repository.
// Private struct, expose qua interface - dễ swap và mock.
type postgresRepository struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

// NewPostgresRepository tạo repository instance.
// Return interface thay vì concrete type (Dependency Inversion).
func NewPostgresRepository(pool *pgxpool.Pool, cache cache.Cache) user.Repository {
	return &postgresRepository{
		pool:  pool,
		cache: cache,
	}
}

const userColumns = `
	id, email, password_hash, full_name, bio,
	is_verified, verification_token, verification_sent_at, verification_token_expires_at,
	last_login_at, created_at, updated_at
`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Bio,
		&u.IsVerified, &u.VerificationToken, &u.VerificationSentAt, &u.VerificationTokenExpiresAt,
		&u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *postgresRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	query := `
		INSERT INTO users (
			email, password_hash, full_name,
			is_verified, verification_token, verification_sent_at,
			verification_token_expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	var userID uuid.UUID
	err := r.pool.QueryRow(ctx, query,
		u.Email,
		u.PasswordHash,
		u.FullName,
		u.IsVerified,
		u.VerificationToken,
		u.VerificationSentAt,
		u.VerificationTokenExpiresAt,
		u.CreatedAt,
		u.UpdatedAt,
	).Scan(&userID)

	if err != nil {
		// Map PostgreSQL unique violation thành domain error
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uuid.Nil, user.ErrEmailAlreadyExists
		}
		return uuid.Nil, err
	}

	return userID, nil
}

// FindByID tìm user theo UUID với Redis caching (cache-aside pattern)
func (r *postgresRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	cacheKey := fmt.Sprintf("user:%s", id.String())

	var cached user.User
	found, err := r.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		// Cache failure không critical - fall through to DB
		logger.Warn("user cache read failed", map[string]interface{}{"error": err.Error()})
	}
	if found {
		return &cached, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, u, userCacheTTL); err != nil {
		logger.Warn("user cache write failed", map[string]interface{}{"error": err.Error()})
	}

	return u, nil
}

func (r *postgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *postgresRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET full_name = $2, bio = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, u.ID, u.FullName, u.Bio)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return r.invalidate(ctx, u.ID)
}

func (r *postgresRepository) FindByVerificationToken(ctx context.Context, token string) (*user.User, error) {
	// Token chỉ valid khi chưa hết hạn
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE verification_token = $1
		  AND verification_token_expires_at > NOW()
	`

	u, err := scanUser(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

func (r *postgresRepository) MarkAsVerified(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE,
		    verification_token = NULL,
		    verification_token_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return r.invalidate(ctx, userID)
}

func (r *postgresRepository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET verification_token = $2,
		    verification_sent_at = NOW(),
		    verification_token_expires_at = $3,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}

	return r.invalidate(ctx, userID)
}

func (r *postgresRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *postgresRepository) PurgeExpiredVerificationTokens(ctx context.Context) (int64, error) {
	query := `
		UPDATE users
		SET verification_token = NULL,
		    verification_token_expires_at = NULL
		WHERE verification_token IS NOT NULL
		  AND verification_token_expires_at <= NOW()
	`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	return exists, err
}

func (r *postgresRepository) invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := r.cache.Delete(ctx, fmt.Sprintf("user:%s", userID.String())); err != nil {
		logger.Warn("user cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
	return nil
}
