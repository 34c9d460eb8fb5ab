package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sasbridge/internal/domain"
)

// UsageRepositoryPG implements domain.UsageRepository over a usage_periods
// table with a UNIQUE (user_id, year, month) constraint.
type UsageRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewUsageRepository creates a new usage ledger backed by PostgreSQL.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepositoryPG {
	return &UsageRepositoryPG{pool: pool}
}

// Admit ensures the period row exists and then performs the
// check-then-increment as one conditional UPDATE. The uniqueness constraint
// makes lazy creation idempotent under concurrent first requests, and the
// WHERE clause on the update means a rejected request never increments the
// counter and concurrent admissions cannot overshoot the limit.
func (r *UsageRepositoryPG) Admit(ctx context.Context, userID string, period domain.Period, limit int) (int, error) {
	_, err := r.pool.Exec(ctx, `
INSERT INTO usage_periods (id, user_id, year, month, request_count)
VALUES (gen_random_uuid(), $1, $2, $3, 0)
ON CONFLICT (user_id, year, month) DO NOTHING;
`, userID, period.Year, int(period.Month))
	if err != nil {
		return 0, err
	}

	var count int
	err = r.pool.QueryRow(ctx, `
UPDATE usage_periods
SET request_count = request_count + 1
WHERE user_id = $1 AND year = $2 AND month = $3 AND request_count < $4
RETURNING request_count;
`, userID, period.Year, int(period.Month), limit).Scan(&count)
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	used, err := r.Current(ctx, userID, period)
	if err != nil {
		return 0, err
	}
	return 0, &domain.RateLimitError{Used: used, Limit: limit, ResetAt: period.NextReset()}
}

// Current returns the request count recorded for the period, 0 when no row
// exists yet.
func (r *UsageRepositoryPG) Current(ctx context.Context, userID string, period domain.Period) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
SELECT request_count FROM usage_periods WHERE user_id = $1 AND year = $2 AND month = $3;
`, userID, period.Year, int(period.Month)).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}
