package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sasbridge/internal/domain"
	"sasbridge/internal/infra"
	"sasbridge/internal/middleware"
)

// IdentityInvalidator drops a cached API-key identity. Satisfied by
// *cache.Cache; nil when Redis is not configured.
type IdentityInvalidator interface {
	DeleteIdentity(ctx context.Context, apiKey string) error
}

// App bundles the handler dependencies.
type App struct {
	Users    domain.UserRepository
	Projects domain.ProjectRepository
	Tasks    domain.TaskRepository
	Usage    domain.UsageRepository
	Comments domain.CommentRepository
	Workflow domain.WorkflowRepository

	Cache     IdentityInvalidator
	Logger    infra.Logger
	JWTSecret string
	Now       func() time.Time

	// DefaultLimit is the monthly quota assigned at registration; zero
	// falls back to domain.DefaultMonthlyLimit.
	DefaultLimit int
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) defaultLimit() int {
	if a.DefaultLimit > 0 {
		return a.DefaultLimit
	}
	return domain.DefaultMonthlyLimit
}

func (a *App) currentUser(r *http.Request) *domain.User {
	return middleware.UserFromContext(r.Context())
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}
