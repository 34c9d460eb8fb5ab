package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/domain"
)

const uniqueViolation = "23505"

// UserRepositoryPG implements domain.UserRepository.
type UserRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository backed by PostgreSQL.
func NewUserRepository(pool *pgxpool.Pool) *UserRepositoryPG {
	return &UserRepositoryPG{pool: pool}
}

// Create inserts a new user record.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) error {
	query := `
INSERT INTO users (id, email, hashed_password, full_name, api_key, monthly_request_limit, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING created_at, updated_at;
`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.FullName,
		user.APIKey,
		user.MonthlyLimit,
		user.IsActive,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

const userColumns = `id, email, hashed_password, full_name, api_key, monthly_request_limit, is_active, created_at, updated_at`

func (r *UserRepositoryPG) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.FullName,
		&u.APIKey,
		&u.MonthlyLimit,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1;`, id))
}

// GetByEmail fetches a user by email.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1;`, email))
}

// GetByAPIKey fetches a user by exact API-key match.
func (r *UserRepositoryPG) GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE api_key = $1;`, apiKey))
}

// RotateAPIKey replaces the stored API key. The old value stops resolving as
// soon as this update commits.
func (r *UserRepositoryPG) RotateAPIKey(ctx context.Context, userID, newKey string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET api_key = $2, updated_at = NOW() WHERE id = $1;
`, userID, newKey)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetMonthlyLimit adjusts a user's monthly request quota.
func (r *UserRepositoryPG) SetMonthlyLimit(ctx context.Context, userID string, limit int) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET monthly_request_limit = $2, updated_at = NOW() WHERE id = $1;
`, userID, limit)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
