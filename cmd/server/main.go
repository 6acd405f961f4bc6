package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/talentgate/assess-backend/internal/config"
	"github.com/talentgate/assess-backend/internal/database"
	"github.com/talentgate/assess-backend/internal/handler"
	"github.com/talentgate/assess-backend/internal/identity"
	"github.com/talentgate/assess-backend/internal/logger"
	"github.com/talentgate/assess-backend/internal/question"
	"github.com/talentgate/assess-backend/internal/repository"
	"github.com/talentgate/assess-backend/internal/router"
	"github.com/talentgate/assess-backend/internal/service"
	"github.com/talentgate/assess-backend/internal/session"
	"github.com/talentgate/assess-backend/internal/submit"
	"github.com/talentgate/assess-backend/internal/validator"
	"github.com/talentgate/assess-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Assess Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	candidateRepo := repository.NewCandidateRepository(pool)
	sessionRepo := repository.NewAssessmentSessionRepository(pool)

	// ─── Identity Resolution ───────────────────────────────────────────
	// Session-scoped Redis copy first, then the applicant record.
	identityCache := identity.NewRedisStore(rdb)
	resolver := identity.NewResolver(identityCache, candidateRepo, log)

	// ─── Submission Pipeline ───────────────────────────────────────────
	recorder := submit.NewQueueRecorder(rdb)
	pipeline := submit.NewPipeline(cfg.ReviewURL, cfg.ResultURL, cfg.NotifyURL, cfg.SubmitTimeout, recorder, log)

	// ─── Session Engine ────────────────────────────────────────────────
	manager := session.NewManager(session.Config{
		SessionDuration: cfg.SessionDuration,
		LowTimeAt:       cfg.LowTimeAt,
		PassThreshold:   cfg.PassThreshold,
		MaxTabSwitches:  cfg.MaxTabSwitches,
		WarningDuration: cfg.WarningDuration,
		DisqualifyGrace: cfg.DisqualifyGrace,
	}, pipeline, log)

	// ─── Initialize Services ───────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	loader := question.NewLoader(cfg.QuestionSourceURL, nil, log)
	assessmentService := service.NewAssessmentService(cfg, resolver, identityCache, loader, manager, sessionRepo, rdb, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Assessment: handler.NewAssessmentHandler(assessmentService, log),
		WS:         handler.NewWSHandler(assessmentService, manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ──────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	resultWorker := worker.NewResultWorker(pool, rdb, log)
	eventWorker := worker.NewEventWorker(pool, rdb, log)

	go resultWorker.Start(workerCtx)
	go eventWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Tear down live session engines. In-flight finalizations are cut off;
	// their results remain recoverable from the Redis queues.
	manager.StopAll()

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
