package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/garlic-tiger/internal/config"
	"github.com/jwebster45206/garlic-tiger/internal/handlers"
	"github.com/jwebster45206/garlic-tiger/internal/logger"
	"github.com/jwebster45206/garlic-tiger/internal/middleware"
	"github.com/jwebster45206/garlic-tiger/internal/services"
	"github.com/jwebster45206/garlic-tiger/internal/services/events"
	"github.com/jwebster45206/garlic-tiger/internal/storage"
	"github.com/jwebster45206/garlic-tiger/pkg/progress"
	"github.com/jwebster45206/garlic-tiger/pkg/quiz"
	"golang.org/x/sync/errgroup"
)

type quizPackSource interface {
	GetQuizPack(ctx context.Context) (*quiz.Pack, error)
}

// loadQuizPack fetches the pack and rejects one that cannot carry a player
// through a full quest.
func loadQuizPack(ctx context.Context, src quizPackSource) (*quiz.Pack, error) {
	pack, err := src.GetQuizPack(ctx)
	if err != nil {
		return nil, err
	}
	if err := pack.Validate(progress.TotalGarlics); err != nil {
		return nil, fmt.Errorf("invalid quiz pack: %w", err)
	}
	return pack, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Garlic Tiger API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"encounter_threshold", cfg.EncounterThreshold,
		"session_ttl", cfg.SessionTTL)

	store, err := storage.NewRedisStorage(storage.Options{
		RedisURL:   cfg.RedisURL,
		DataDir:    cfg.DataDir,
		QuizFile:   cfg.QuizFile,
		SessionTTL: cfg.SessionTTL,
	}, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Load the quiz pack up front so a broken pack fails the deploy, not a player.
	pack, err := loadQuizPack(storageCtx, store)
	if err != nil {
		log.Error("Failed to load quiz pack", "error", err)
		os.Exit(1)
	}
	log.Info("Quiz pack loaded", "name", pack.Name, "quizzes", pack.Len())

	airtable := services.NewAirtableService(services.AirtableConfig{
		APIKey:    cfg.AirtableAPIKey,
		BaseID:    cfg.AirtableBaseID,
		TableName: cfg.AirtableTableName,
		BaseURL:   cfg.AirtableBaseURL,
	}, log)
	if !airtable.Configured() {
		log.Warn("Airtable is not configured; /api/subscribe will return a configuration error")
	}

	broadcaster := events.NewBroadcaster(store.Client(), log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, airtable, log))
	mux.Handle("/api/subscribe", handlers.NewSubscribeHandler(airtable, cfg.SubscribeSource, log))

	sessionHandler := handlers.NewSessionHandler(store, broadcaster, handlers.SessionOptions{
		EncounterThreshold: cfg.EncounterThreshold,
	}, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(store.Client(), log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the events endpoint streams
		IdleTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Server is shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
