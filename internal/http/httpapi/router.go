package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"sasbridge/internal/domain"
	"sasbridge/internal/http/handlers"
	"sasbridge/internal/infra"
	"sasbridge/internal/middleware"
)

// RouterConfig wires the middleware chain around the handlers.
type RouterConfig struct {
	App            *handlers.App
	Users          domain.UserRepository
	Usage          domain.UsageRepository
	IdentityCache  middleware.IdentityCache
	JWTSecret      string
	AllowedOrigins []string
	CountryLookup  middleware.CountryLookup
	Logger         infra.Logger
	Now            func() time.Time
}

// NewRouter builds the full HTTP surface. Register, login and the health
// probe are public; everything else sits behind the credential resolver and
// the monthly rate limiter, in that order.
func NewRouter(cfg RouterConfig) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger, cfg.CountryLookup))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	app := cfg.App

	r.Get("/healthz", app.Health)
	r.Post("/api/auth/register", app.AuthRegister)
	r.Post("/api/auth/login", app.AuthLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(middleware.AuthConfig{
			Secret: cfg.JWTSecret,
			Users:  cfg.Users,
			Cache:  cfg.IdentityCache,
			Now:    cfg.Now,
			Logger: cfg.Logger,
		}))
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Usage:  cfg.Usage,
			Now:    cfg.Now,
			Logger: cfg.Logger,
		}))

		r.Route("/api/auth", func(r chi.Router) {
			r.Get("/me", app.Me)
			r.Get("/usage", app.AuthUsage)
			r.Post("/regenerate-api-key", app.AuthRegenerateAPIKey)
		})

		r.Route("/api/projects", func(r chi.Router) {
			r.Post("/", app.ProjectsCreate)
			r.Get("/", app.ProjectsList)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", app.ProjectsGet)
				r.Patch("/", app.ProjectsUpdate)
				r.Delete("/", app.ProjectsDelete)
				r.Post("/files", app.ProjectsUploadFiles)
				r.Get("/tasks", app.ProjectsListTasks)
				r.Post("/translate", app.ProjectsTranslate)
				r.Get("/export", app.ProjectsExport)
				r.Get("/workflow", app.ProjectsWorkflow)
				r.Patch("/workflow/{stepID}", app.WorkflowStepUpdate)
			})
		})

		r.Route("/api/tasks/{id}", func(r chi.Router) {
			r.Get("/", app.TasksGet)
			r.Patch("/", app.TasksUpdate)
			r.Post("/regenerate", app.TasksRegenerate)
			r.Post("/comments", app.CommentsCreate)
			r.Patch("/comments/{commentID}", app.CommentsResolve)
		})

		r.Get("/api/dashboard", app.Dashboard)
	})

	return r
}
