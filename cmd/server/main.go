package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"viralib-backend/internal/config"
	"viralib-backend/internal/database"
	"viralib-backend/internal/handlers"
	"viralib-backend/internal/logger"
	"viralib-backend/internal/middleware"
	"viralib-backend/internal/repository"
	"viralib-backend/internal/router"
	"viralib-backend/internal/services"
	"viralib-backend/internal/websocket"
	"viralib-backend/internal/worker"
)

func main() {
	// ──── Step 1: Config & Logging ────
	cfg := config.Load()
	log := logger.New(cfg.Env)
	log.Info("starting Viralib backend")

	// ──── Step 2: PostgreSQL ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info("PostgreSQL connected")

	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}
	log.Info("database migrations applied")

	// ──── Step 3: Redis ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Redis connection failed")
	}
	defer redisClients.Close()
	log.Info("Redis connected")

	// ──── Repositories ────
	videoRepo := repository.NewVideoRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 4: Pipeline Services ────
	analyzer, err := services.NewAnalyzer(cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.WithError(err).Fatal("Gemini client initialization failed")
	}
	defer analyzer.Close()
	log.Info("Gemini client initialized")

	downloader := services.NewDownloader(cfg.DownloadTimeout, cfg.MaxVideoBytes)
	uploadSession := services.NewUploadSession(cfg.GeminiAPIKey, cfg.GeminiUploadBase, cfg.UploadPollEvery, cfg.UploadPollRetries)
	pipeline := services.NewPipeline(downloader, uploadSession, analyzer, redisClients.Main, log)

	// ──── Step 5: Import Worker Pool ────
	workerPool := worker.NewPool(redisClients.Main, pipeline, videoRepo, jobRepo, log, cfg.ImportWorkers)
	workerPool.Start()

	// ──── Step 6: HTTP Surface ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret, log)

	analyzeHandler := handlers.NewAnalyzeHandler(pipeline, videoRepo, redisClients.Main, cfg.AnalysisCacheTTL, log)
	videosHandler := handlers.NewVideosHandler(videoRepo, analyzer, log)
	jobsHandler := handlers.NewJobsHandler(jobRepo, redisClients.Main, log)

	r := router.New(jwtAuth, analyzeHandler, videosHandler, jobsHandler, wsHub, cfg.FrontendURL)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
		// No WriteTimeout: one analyze request legitimately blocks for the
		// whole download + upload + poll + model round trip.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("shutting down")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Infof("Viralib backend ready on http://localhost:%s", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("server error")
	}
}
