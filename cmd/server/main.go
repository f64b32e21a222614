package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/tilefront/api/internal/auth"
	"github.com/freeeve/tilefront/api/internal/config"
	"github.com/freeeve/tilefront/api/internal/handler"
	"github.com/freeeve/tilefront/api/internal/logger"
	"github.com/freeeve/tilefront/api/internal/middleware"
	"github.com/freeeve/tilefront/api/internal/repository/postgres"
	redisrepo "github.com/freeeve/tilefront/api/internal/repository/redis"
	"github.com/freeeve/tilefront/api/internal/service"
	"github.com/freeeve/tilefront/api/pkg/conquest"
)

func main() {
	logger.Init()
	cfg := config.Load()
	log.Info().Str("databaseURL", cfg.DatabaseURL).Msg("Config loaded")

	tuning, err := loadTuning(cfg.TuningFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.TuningFile).Msg("Failed to load tuning")
	}

	// Database
	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Database connection failed")
	}
	defer db.Close()

	// Redis
	redisClient, err := redisrepo.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClient.Close()

	// Repos
	userRepo := postgres.NewUserRepo(db)
	gameRepo := postgres.NewGameRepo(db)
	eventRepo := postgres.NewEventRepo(db)
	snapRepo, err := postgres.NewSnapshotRepo(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Snapshot repo init failed")
	}

	// Auth
	jwtMgr := auth.NewJWTManager(cfg.JWTSecret)
	googleOAuth := auth.NewGoogleOAuth(
		os.Getenv("GOOGLE_CLIENT_ID"),
		os.Getenv("GOOGLE_CLIENT_SECRET"),
		os.Getenv("GOOGLE_REDIRECT_URL"),
	)

	// WebSocket hub
	wsHub := handler.NewHub()

	// Simulation runners and lobby service
	runnerMgr := service.NewRunnerManager(gameRepo, snapRepo, eventRepo, redisClient,
		wsHub, tuning, cfg.SnapshotIntervalTicks, log.Logger)
	gameSvc := service.NewGameService(gameRepo, userRepo, runnerMgr)

	// Handlers
	authHandler := handler.NewAuthHandler(googleOAuth, jwtMgr, userRepo)
	userHandler := handler.NewUserHandler(userRepo)
	gameHandler := handler.NewGameHandler(gameSvc, eventRepo, snapRepo, redisClient)
	wsHandler := handler.NewWSHandler(wsHub, jwtMgr, gameRepo, redisClient)

	// Router
	mux := http.NewServeMux()
	authMw := auth.Middleware(jwtMgr)

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth (public)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)
	mux.HandleFunc("POST /auth/refresh", authHandler.RefreshToken)
	mux.HandleFunc("GET /auth/dev", authHandler.DevLogin)

	// Protected API routes
	api := http.NewServeMux()
	api.HandleFunc("GET /users/me", userHandler.GetMe)
	api.HandleFunc("PATCH /users/me", userHandler.UpdateMe)
	api.HandleFunc("GET /users/{id}", userHandler.GetUser)
	api.HandleFunc("POST /games", gameHandler.CreateGame)
	api.HandleFunc("GET /games", gameHandler.ListGames)
	api.HandleFunc("GET /games/{id}", gameHandler.GetGame)
	api.HandleFunc("GET /games/{id}/state", gameHandler.GetGameState)
	api.HandleFunc("GET /games/{id}/events", gameHandler.GetGameEvents)
	api.HandleFunc("POST /games/{id}/join", gameHandler.JoinGame)
	api.HandleFunc("POST /games/{id}/bots", gameHandler.AddBot)
	api.HandleFunc("POST /games/{id}/start", gameHandler.StartGame)
	api.HandleFunc("POST /games/{id}/stop", gameHandler.StopGame)
	api.HandleFunc("DELETE /games/{id}", gameHandler.DeleteGame)
	api.HandleFunc("PATCH /games/{id}/players/{userId}/bot-difficulty", gameHandler.UpdateBotDifficulty)

	mux.Handle("/api/v1/", http.StripPrefix("/api/v1", authMw(api)))

	// WebSocket (auth via query param, not middleware)
	mux.HandleFunc("GET /api/v1/ws", wsHandler.ServeWS)

	// Apply global middleware
	root := middleware.Chain(mux, middleware.Logger, middleware.CORS("*"), middleware.JSON)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Resume games that were live when the previous process stopped.
	if err := runnerMgr.Recover(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to recover active games (non-fatal)")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	// Checkpoint every live simulation before exiting so the next process
	// can pick them up.
	runnerMgr.Shutdown(shutdownCtx)
	log.Info().Msg("Server stopped")
}

func loadTuning(path string) (*conquest.Tuning, error) {
	if path == "" {
		return conquest.DefaultTuning(), nil
	}
	return conquest.LoadTuningFile(path)
}
