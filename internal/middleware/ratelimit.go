package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"sasbridge/internal/domain"
	"sasbridge/internal/infra"
)

// RateLimitConfig wires the monthly request limiter.
type RateLimitConfig struct {
	Usage  domain.UsageRepository
	Now    func() time.Time
	Logger infra.Logger
}

// RateLimit admits or rejects one request unit against the caller's monthly
// quota. Must run after Authenticate. The check-then-increment is a single
// conditional update inside the usage repository, so concurrent requests
// from one user cannot overshoot the limit.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
				return
			}

			period := domain.PeriodOf(now())
			count, err := cfg.Usage.Admit(r.Context(), user.ID, period, user.MonthlyLimit)
			if err != nil {
				var limitErr *domain.RateLimitError
				if errors.As(err, &limitErr) {
					setRateLimitHeaders(w, user.MonthlyLimit, 0, limitErr.ResetAt)
					w.Header().Set("Retry-After", strconv.FormatInt(int64(limitErr.ResetAt.Sub(now()).Seconds()), 10))
					writeJSONError(w, http.StatusTooManyRequests, "rate_limited",
						fmt.Sprintf("monthly limit (%d) exceeded: %d requests used, try again next month", limitErr.Limit, limitErr.Used))
					return
				}
				cfg.Logger.Error().Err(err).Str("user_id", user.ID).Msg("usage ledger admit failed")
				writeJSONError(w, http.StatusInternalServerError, "internal", "usage accounting unavailable")
				return
			}

			remaining := user.MonthlyLimit - count
			if remaining < 0 {
				remaining = 0
			}
			setRateLimitHeaders(w, user.MonthlyLimit, remaining, period.NextReset())
			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, limit, remaining int, reset time.Time) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
}
