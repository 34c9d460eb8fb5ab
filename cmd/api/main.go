package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sasbridge/internal/adapter/repo"
	"sasbridge/internal/cache"
	"sasbridge/internal/db"
	"sasbridge/internal/http/handlers"
	"sasbridge/internal/http/httpapi"
	"sasbridge/internal/infra"
	"sasbridge/internal/infra/geoip"
	"sasbridge/internal/middleware"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	var identityCache *cache.Cache
	if cfg.RedisURL != "" {
		identityCache, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer identityCache.Close()
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	var countryLookup middleware.CountryLookup
	if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	users := repo.NewUserRepository(pool)
	usage := repo.NewUsageRepository(pool)

	app := &handlers.App{
		Users:        users,
		Projects:     repo.NewProjectRepository(pool),
		Tasks:        repo.NewTaskRepository(pool),
		Usage:        usage,
		Comments:     repo.NewCommentRepository(pool),
		Workflow:     repo.NewWorkflowRepository(pool),
		Logger:       logger,
		JWTSecret:    cfg.JWTSecret,
		DefaultLimit: cfg.DefaultLimit,
	}
	var identity middleware.IdentityCache
	if identityCache != nil {
		app.Cache = identityCache
		identity = identityCache
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		App:            app,
		Users:          users,
		Usage:          usage,
		IdentityCache:  identity,
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		CountryLookup:  countryLookup,
		Logger:         logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("api listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
