package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourname/sleepcoach/internal"
	"github.com/yourname/sleepcoach/internal/agent"
	"github.com/yourname/sleepcoach/internal/api"
	"github.com/yourname/sleepcoach/internal/config"
	"github.com/yourname/sleepcoach/internal/ollama"
	"github.com/yourname/sleepcoach/internal/service"
	"github.com/yourname/sleepcoach/internal/storage"
)

type app struct {
	logger     internal.Logger
	submission *service.Submission
	sleepRepo  storage.SleepEntryRepository
}

func (a *app) Logger() internal.Logger                 { return a.logger }
func (a *app) Submission() *service.Submission         { return a.submission }
func (a *app) SleepRepo() storage.SleepEntryRepository { return a.sleepRepo }

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		repo      storage.SleepEntryRepository
		closeRepo func() error
	)
	switch cfg.DBType {
	case "postgres":
		repo, closeRepo, err = storage.NewPostgresRepository(ctx, cfg.DBDSN, logger)
	default:
		repo, closeRepo, err = storage.NewFileRepository(cfg.FileSleep, logger)
	}
	if err != nil {
		logger.Fatalf("failed to init storage (%s): %v", cfg.DBType, err)
	}

	client := ollama.NewHTTPClient(cfg.OllamaURL, logger)
	analyzer := agent.NewAnalyzer(client, cfg.AnalyzerModel, logger)
	coach := agent.NewCoach(client, cfg.CoachModel, logger)
	submission := service.NewSubmission(repo, analyzer, coach, logger)

	router := api.NewRouter(&app{
		logger:     logger,
		submission: submission,
		sleepRepo:  repo,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logger.Infof("server running on %s (analyzer=%s coach=%s storage=%s)",
			cfg.ListenAddr, cfg.AnalyzerModel, cfg.CoachModel, cfg.DBType)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	if err := closeRepo(); err != nil {
		logger.Errorf("storage shutdown: %v", err)
	}
}
