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

	"quizbot/internal/config"
	"quizbot/internal/database"
	"quizbot/internal/discord"
	"quizbot/internal/handlers"
	"quizbot/internal/llm"
	"quizbot/internal/middleware"
	"quizbot/internal/repository"
	"quizbot/internal/router"
	"quizbot/internal/services"
	"quizbot/internal/session"
)

func runBot() {
	log.Println("🚀 Starting quiz bot...")
	ctx := context.Background()

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("✗ Invalid configuration: %v", err)
	}
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	rdb, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer rdb.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	quizRepo := repository.NewQuizRepo(pool)
	performanceRepo := repository.NewPerformanceRepo(pool)
	studySessionRepo := repository.NewStudySessionRepo(pool)

	// Study timers do not survive a restart
	if n, err := studySessionRepo.CancelStale(ctx); err != nil {
		log.Printf("✗ Could not cancel stale study sessions: %v", err)
	} else if n > 0 {
		log.Printf("✓ Cancelled %d study session(s) left running by a previous process", n)
	}

	// ──── Step 5: Initialize Language Model ────
	provider, err := llm.NewProvider(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("✗ LLM provider initialization failed: %v", err)
	}
	log.Printf("✓ LLM provider %s ready (%s)", cfg.LLM.Provider, provider.ModelID())

	// ──── Initialize Services ────
	aiService := services.NewAIService(provider, cfg.ResponseLanguage, cfg.LLMTimeout)
	historyService := services.NewHistoryService(performanceRepo, studySessionRepo)
	planCache := services.NewPlanCache(rdb)
	commandLimiter := middleware.NewRateLimiter(rdb, "command", cfg.CommandRateLimit, cfg.CommandRateWindow)
	httpLimiter := middleware.NewRateLimiter(rdb, "http", 60, time.Minute)

	// ──── Step 6: Session Registries ────
	quizSessions := session.NewQuizManager()
	studySessions := session.NewStudySessionManager(studySessionRepo, aiService, session.WallClock)
	log.Println("✓ Session registries ready")

	// ──── Step 7: Connect Discord Bot ────
	bot, err := discord.New(cfg.DiscordToken, cfg.DiscordGuildID, cfg.CommandGroup, discord.Deps{
		AI:            aiService,
		Users:         userRepo,
		Quizzes:       quizRepo,
		Performance:   performanceRepo,
		History:       historyService,
		Plans:         planCache,
		StudyRecords:  studySessionRepo,
		Limiter:       commandLimiter,
		QuizSessions:  quizSessions,
		StudySessions: studySessions,
	})
	if err != nil {
		log.Fatalf("✗ Discord bot initialization failed: %v", err)
	}
	if err := bot.Open(); err != nil {
		log.Fatalf("✗ Discord connection failed: %v", err)
	}
	log.Printf("✓ Discord bot connected (command group /%s)", cfg.CommandGroup)

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		handlers.NewHealthHandler(pool, rdb),
		handlers.NewStatsHandler(quizSessions, studySessions),
		httpLimiter,
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
		studySessions.Shutdown()
		if err := bot.Close(); err != nil {
			log.Printf("Discord close error: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Quiz bot ready, ops endpoint on http://localhost:%s", cfg.Port)
	log.Printf("  Health: http://localhost:%s/healthz", cfg.Port)
	log.Printf("  Stats:  http://localhost:%s/api/v1/stats", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
