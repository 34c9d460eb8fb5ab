package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"sasbridge/internal/auth"
	"sasbridge/internal/domain"
	"sasbridge/internal/infra"
)

const (
	// APIKeyHeader carries the opaque API-key credential.
	APIKeyHeader = "X-API-Key"

	userCtxKey contextKey = "auth_user"
)

// IdentityCache is the optional Redis-backed shortcut for API-key lookups.
// A nil cache means every lookup goes to the user repository.
type IdentityCache interface {
	GetIdentity(ctx context.Context, apiKey string) (string, error)
	SetIdentity(ctx context.Context, apiKey, userID string) error
}

// AuthConfig wires the credential resolver.
type AuthConfig struct {
	Secret string
	Users  domain.UserRepository
	Cache  IdentityCache
	Now    func() time.Time
	Logger infra.Logger
}

// Authenticate resolves a request's credential — an X-API-Key header or an
// Authorization bearer token — to exactly one active user and stores it in
// the request context. It never touches the usage ledger; admission is the
// rate limiter's job.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, cfg, now())
			if err != nil {
				if !errors.Is(err, domain.ErrNotAuthenticated) {
					cfg.Logger.Debug().Err(err).Msg("credential resolution failed")
				}
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "not authenticated")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

func resolveUser(r *http.Request, cfg AuthConfig, now time.Time) (*domain.User, error) {
	if apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader)); apiKey != "" {
		if user, err := resolveAPIKey(r.Context(), cfg, apiKey); err == nil {
			return user, nil
		}
	}

	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			claims, err := auth.VerifyToken(cfg.Secret, strings.TrimSpace(parts[1]), now)
			if err != nil {
				return nil, err
			}
			user, err := cfg.Users.GetByID(r.Context(), claims.Sub)
			if err != nil {
				return nil, err
			}
			if !user.IsActive {
				return nil, domain.ErrInactiveUser
			}
			return user, nil
		}
	}

	return nil, domain.ErrNotAuthenticated
}

func resolveAPIKey(ctx context.Context, cfg AuthConfig, apiKey string) (*domain.User, error) {
	if cfg.Cache != nil {
		if userID, err := cfg.Cache.GetIdentity(ctx, apiKey); err == nil && userID != "" {
			user, err := cfg.Users.GetByID(ctx, userID)
			// The cached identity is only trusted while the key still
			// matches; a rotated key must stop resolving immediately.
			if err == nil && user.IsActive && user.APIKey == apiKey {
				return user, nil
			}
		}
	}

	user, err := cfg.Users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}
	if cfg.Cache != nil {
		_ = cfg.Cache.SetIdentity(ctx, apiKey, user.ID)
	}
	return user, nil
}

// ContextWithUser stores an authenticated user in the context.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userCtxKey).(*domain.User); ok {
		return u
	}
	return nil
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}
