package main

import (
	"context"
	"net/http"
	"os"

	"github.com/pulseboard/backend/internal/api"
	"github.com/pulseboard/backend/internal/auth"
	"github.com/pulseboard/backend/internal/cache"
	"github.com/pulseboard/backend/internal/config"
	"github.com/pulseboard/backend/internal/db"
	"github.com/pulseboard/backend/internal/health"
	"github.com/pulseboard/backend/internal/logger"
	"github.com/pulseboard/backend/internal/middleware"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), "server")
	logger.SetDefault(log)

	database, err := db.New(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	if err != nil {
		log.Error(ctx, "failed to connect to database", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	var postCache *cache.Cache
	if cfg.RedisAddr != "" {
		postCache, err = cache.New(cfg.RedisAddr)
		if err != nil {
			// The cache is an optimization; run without it.
			log.Warn(ctx, "cache unavailable, continuing without it", map[string]any{
				"addr":  cfg.RedisAddr,
				"error": err.Error(),
			})
			postCache = nil
		} else {
			defer postCache.Close()
		}
	}

	userRepo := db.NewUserRepository(database)
	postRepo := db.NewPostRepository(database)
	voteRepo := db.NewVoteRepository(database)

	authService, err := auth.NewService(userRepo, cfg.JWTSecret, cfg.JWTAlgorithm, cfg.AccessTokenTTL)
	if err != nil {
		log.Error(ctx, "invalid auth configuration", err)
		os.Exit(1)
	}

	checker := health.NewChecker(database.DB, postCache.Client())

	router := api.NewRouter(
		auth.NewHandlers(authService),
		authService,
		api.NewPostHandlers(postRepo, postCache),
		api.NewVoteHandlers(postRepo, voteRepo, postCache),
		checker.Handler(),
	)

	handler := middleware.Chain(router,
		middleware.RequestID,
		middleware.Logging(log.WithComponent("http")),
		middleware.CORS(cfg.AllowedOrigins),
	)

	log.Info(ctx, "starting server", map[string]any{"addr": cfg.ServerAddr})
	if err := http.ListenAndServe(cfg.ServerAddr, handler); err != nil {
		log.Error(ctx, "server failed", err)
		os.Exit(1)
	}
}
