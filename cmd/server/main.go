package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"refyn-backend/internal/config"
	"refyn-backend/internal/course"
	"refyn-backend/internal/database"
	"refyn-backend/internal/handlers"
	"refyn-backend/internal/middleware"
	"refyn-backend/internal/repository"
	"refyn-backend/internal/router"
	"refyn-backend/internal/services"
	"refyn-backend/internal/websocket"
	"refyn-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Refyn Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	mediaRepo := repository.NewMediaRepo(pool)
	critiqueRepo := repository.NewCritiqueRepo(pool)
	noteRepo := repository.NewNoteRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	locationRepo := repository.NewLocationRepo(pool)
	jobRepo := repository.NewJobRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		critiqueRepo,
		courseRepo,
		jobRepo,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini Flash client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	emailService := services.NewEmailService(cfg)
	extractService := services.NewExtractService()
	authService := services.NewAuthService(userRepo, redisClients.Queue, emailService, cfg.JWTSecret)
	planService := services.NewPlanService(mediaRepo, critiqueRepo, courseRepo)
	placesService := services.NewPlacesService(cfg.PlacesAPIKey)
	sessionStore := course.NewSessionStore()

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	mediaHandler := handlers.NewMediaHandler(mediaRepo, userRepo, planService, cfg.StoragePath)
	critiqueHandler := handlers.NewCritiqueHandler(critiqueRepo, mediaRepo, userRepo, jobRepo, planService, geminiService, redisClients.Queue)
	noteHandler := handlers.NewNoteHandler(noteRepo, critiqueRepo)
	courseHandler := handlers.NewCourseHandler(courseRepo, noteRepo, userRepo, jobRepo, planService, sessionStore, redisClients.Queue)
	sessionHandler := handlers.NewCourseSessionHandler(courseRepo, sessionStore)
	locationHandler := handlers.NewLocationHandler(locationRepo, placesService)
	userHandler := handlers.NewUserHandler(userRepo, authService, planService)
	adminHandler := handlers.NewAdminHandler(pool, userRepo)
	jobHandler := handlers.NewJobHandler(jobRepo)

	// ──── Step 6: Start Job Worker Pool ────
	workerPool := worker.NewPool(
		redisClients.Queue,
		geminiService,
		extractService,
		emailService,
		userRepo,
		jobRepo,
		mediaRepo,
		critiqueRepo,
		noteRepo,
		courseRepo,
		cfg.WorkerCount,
	)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	scheduler := services.NewScheduler(userRepo, critiqueRepo, courseRepo, emailService)
	scheduler.Start()
	log.Println("✓ Engagement scheduler started")

	// ──── Step 7: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		mediaHandler,
		critiqueHandler,
		noteHandler,
		courseHandler,
		sessionHandler,
		locationHandler,
		userHandler,
		adminHandler,
		jobHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()
		scheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Refyn Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
