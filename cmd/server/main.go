package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/examcore/internal/authstub"
	"github.com/stemsi/examcore/internal/clock"
	"github.com/stemsi/examcore/internal/config"
	"github.com/stemsi/examcore/internal/database"
	"github.com/stemsi/examcore/internal/eventbus"
	"github.com/stemsi/examcore/internal/grading"
	"github.com/stemsi/examcore/internal/httpapi"
	"github.com/stemsi/examcore/internal/logger"
	"github.com/stemsi/examcore/internal/router"
	"github.com/stemsi/examcore/internal/scheduler"
	"github.com/stemsi/examcore/internal/sessionapi"
	"github.com/stemsi/examcore/internal/sessionengine"
	"github.com/stemsi/examcore/internal/store"
	"github.com/stemsi/examcore/internal/tokenminter"
	"github.com/stemsi/examcore/internal/validator"
	"github.com/stemsi/examcore/internal/wsadapter"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("grader_engine", cfg.GraderEngine).
		Msg("Starting ExamCore")

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

	// ─── Core collaborators ─────────────────────────────────────────────
	st := store.New(pool)
	clk := clock.New()
	minter := tokenminter.New()
	bus := eventbus.New()
	issuer := authstub.New(cfg.JWTSecret, cfg.JWTExpiry)

	// ─── Grader selection ───────────────────────────────────────────────
	lexicalGrader := grading.NewLexicalGrader(cfg.LexicalKeywordWeight, cfg.LexicalSimilarityWeight, cfg.LexicalSimilarityThresh)
	var freeTextGrader grading.Grader = lexicalGrader
	if cfg.GraderEngine == "llm" {
		if cfg.LLMAPIKey == "" {
			log.Warn().Msg("grader.engine=llm but LLM_API_KEY is empty, falling back to lexical grader")
		} else {
			freeTextGrader = grading.NewLLMGrader(cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxRetries, log)
		}
	}

	// ─── Scheduler + Engine ─────────────────────────────────────────────
	// The scheduler's AutoSubmitFunc/SweepFunc close over a not-yet-assigned
	// engine pointer; engine construction needs the scheduler, so the two
	// are wired in this order rather than either depending on the other's
	// zero value.
	var engine *sessionengine.Engine
	sweepInterval := time.Duration(cfg.SweeperIntervalSec) * time.Second
	sched := scheduler.New(rdb, clk, log, sweepInterval,
		func(autoSubmitCtx context.Context, sessionID uuid.UUID) {
			engine.AutoSubmit(autoSubmitCtx, sessionID)
		},
		func(sweepCtx context.Context) ([]uuid.UUID, error) {
			return engine.SweepExpired(sweepCtx)
		},
	)
	engine = sessionengine.New(st, clk, minter, bus, sched, rdb, freeTextGrader, log)

	api := sessionapi.New(engine, log)
	wsAdapter := wsadapter.New(engine, bus, cfg.AllowedOrigins, log)

	// ─── Initialize Handlers ────────────────────────────────────────────
	handlers := &router.Handlers{
		Session:       httpapi.NewSessionHandler(api, st),
		AdminExam:     httpapi.NewAdminExamHandler(st),
		AdminQuestion: httpapi.NewAdminQuestionHandler(st),
		AdminGrade:    httpapi.NewAdminGradeHandler(st),
		WS:            wsAdapter,
	}

	// ─── Start Background Scheduler ─────────────────────────────────────
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	go sched.Run(schedulerCtx)

	// ─── Setup Router ───────────────────────────────────────────────────
	r := router.SetupRouter(issuer, handlers, cfg)

	// ─── Create HTTP Server ─────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ──────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ──────────────────────────────────────────────
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

	// 2. Stop the scheduler.
	schedulerCancel()
	time.Sleep(500 * time.Millisecond)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
