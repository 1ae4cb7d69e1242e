package main

import (
	"context"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursenova-backend/internal/config"
	"coursenova-backend/internal/database"
	"coursenova-backend/internal/handlers"
	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/middleware"
	"coursenova-backend/internal/repository"
	"coursenova-backend/internal/router"
	"coursenova-backend/internal/services"
	"coursenova-backend/internal/websocket"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		stdlog.Fatalf("✗ Logger initialization failed: %v", err)
	}
	defer log.Sync()

	log.Info("🚀 Starting CourseNova Backend...")
	log.Info("✓ Environment variables loaded", "env", cfg.Env)

	ctx := context.Background()

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, database.PoolSize{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		log.Fatal("✗ PostgreSQL connection failed", "error", err)
	}
	defer pool.Close()
	log.Info("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal("✗ Redis connection failed", "error", err)
	}
	defer redisClients.Close()
	log.Info("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations", log); err != nil {
		log.Fatal("✗ Database migration failed", "error", err)
	}
	log.Info("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	courseRepo := repository.NewCourseRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	enrollmentRepo := repository.NewEnrollmentRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	bookmarkRepo := repository.NewBookmarkRepo(pool)
	userRepo := repository.NewUserRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(ctx, cfg, log)
	if err != nil {
		log.Fatal("✗ Gemini client initialization failed", "error", err)
	}
	defer geminiService.Close()
	log.Info("✓ Gemini client initialized", "model", cfg.GeminiModel)

	// ──── Step 6: Initialize Enrichment Sources ────
	enricher := buildEnricher(ctx, cfg, redisClients, log)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	notifier := services.NewNotifier(redisClients.Main, log)
	locker := services.NewRedisLocker(redisClients.Main)
	generator := services.NewCourseGenerator(geminiService, enricher, notifier, cfg.GeminiModel, log)

	// ──── Initialize Handlers ────
	h := router.Handlers{
		Course:     handlers.NewCourseHandler(courseRepo, generator, locker, notifier, log),
		Quiz:       handlers.NewQuizHandler(courseRepo, quizRepo, generator, enrollmentRepo, log),
		Enrollment: handlers.NewEnrollmentHandler(courseRepo, enrollmentRepo, log),
		Note:       handlers.NewNoteHandler(courseRepo, noteRepo, bookmarkRepo, log),
		Dashboard:  handlers.NewDashboardHandler(enrollmentRepo, userRepo, log),
	}

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth, cfg.FrontendURL, log)
	log.Info("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	generateLimiter := middleware.NewRateLimiter(cfg.GenerateRequestsPerMin, time.Minute)
	r := router.New(jwtAuth, h, generateLimiter, wsHub, cfg.FrontendURL)

	// A course request holds the connection for the whole LLM round trip.
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.GenerationTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down...")
		wsHub.Shutdown()
		generateLimiter.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Info(fmt.Sprintf("✓ CourseNova Backend ready on http://localhost:%s", cfg.Port))
	log.Info(fmt.Sprintf("  API: http://localhost:%s/api/v1", cfg.Port))
	log.Info(fmt.Sprintf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("Server error", "error", err)
	}
}

// buildEnricher wires whichever enrichment sources have credentials. Sources
// left nil degrade to empty results.
func buildEnricher(ctx context.Context, cfg *config.Config, redisClients *database.RedisClients, log *logger.Logger) *services.Enricher {
	var (
		articles services.ArticleSearcher
		videos   services.VideoSearcher
		images   services.ImageSearcher
	)

	if cfg.NewsAPIKey != "" {
		articles = services.NewNewsSearcher(cfg.NewsAPIKey)
		log.Info("✓ NewsAPI article search enabled")
	} else {
		log.Warn("✗ NEWS_API_KEY not set, articles disabled")
	}

	if cfg.YouTubeAPIKey != "" {
		yt, err := services.NewYouTubeSearcher(ctx, cfg.YouTubeAPIKey)
		if err != nil {
			log.Warn("✗ YouTube client initialization failed, videos disabled", "error", err)
		} else {
			videos = yt
			log.Info("✓ YouTube video search enabled")
		}
	} else {
		log.Warn("✗ YOUTUBE_API_KEY not set, videos disabled")
	}

	if cfg.ImageSearchEnabled() {
		img, err := services.NewImageSearch(ctx, cfg.GoogleSearchAPIKey, cfg.GoogleSearchCX)
		if err != nil {
			log.Warn("✗ Image search initialization failed, placeholder images only", "error", err)
		} else {
			images = img
			log.Info("✓ Google image search enabled")
		}
	} else {
		log.Warn("✗ GOOGLE_SEARCH_API_KEY/GOOGLE_SEARCH_CX not set, placeholder images only")
	}

	cache := services.NewRedisEnrichmentCache(redisClients.Main, cfg.EnrichmentCacheTTL, log)
	return services.NewEnricher(articles, videos, images, cache, cfg.EnrichmentTimeout, log)
}
