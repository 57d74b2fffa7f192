package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlas-develop/clinic-assistant/internal/api/router"
	"github.com/atlas-develop/clinic-assistant/internal/booking"
	"github.com/atlas-develop/clinic-assistant/internal/clients"
	appconfig "github.com/atlas-develop/clinic-assistant/internal/config"
	"github.com/atlas-develop/clinic-assistant/internal/conversation"
	"github.com/atlas-develop/clinic-assistant/internal/dialog"
	"github.com/atlas-develop/clinic-assistant/internal/llm"
	"github.com/atlas-develop/clinic-assistant/internal/notify"
	"github.com/atlas-develop/clinic-assistant/internal/observability/metrics"
	"github.com/atlas-develop/clinic-assistant/internal/retrieval"
	"github.com/atlas-develop/clinic-assistant/internal/transcript"
	"github.com/atlas-develop/clinic-assistant/internal/transport"
	"github.com/atlas-develop/clinic-assistant/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic assistant",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	turnMetrics := metrics.NewTurnMetrics(registry)

	// Storage layer
	directory := clients.NewRepository(pool)
	dialogStore := dialog.NewStore(pool, cfg.DialogWindow, cfg.GPTPriceIn, cfg.GPTPriceOut)
	bookingRepo := booking.NewRepository(pool)
	bookingSvc := booking.NewService(bookingRepo, directory, logger)

	// Model and retrieval
	openaiClient := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.GPTModel, cfg.EmbeddingModel)
	chunkSource := retrieval.NewPostgresSource(pool)
	index := retrieval.NewIndex(openaiClient, chunkSource, cfg.RetrievalTopK, logger)

	// Side channels
	sender := transport.NewHTTPSender(cfg.TransportSendURL, logger)
	notifier := notify.NewService(sender, cfg.SupportGroupID, logger)

	var transcripts *transcript.Queue
	if cfg.SheetsSpreadsheetID != "" {
		writer, err := transcript.NewSheetsWriter(ctx, cfg.SheetsCredentialFile, cfg.SheetsSpreadsheetID)
		if err != nil {
			logger.Error("transcript sink disabled", "error", err)
		} else {
			transcripts = transcript.NewQueue(writer, cfg.TranscriptQueueSize, logger)
			go transcripts.Run(ctx)
		}
	}

	persona := conversation.LoadSystemPrompt(cfg.SystemPromptPath, logger)
	var sink conversation.TranscriptSink
	if transcripts != nil {
		sink = transcripts
	}
	svc := conversation.NewService(
		directory, dialogStore, bookingSvc, openaiClient, index, notifier, sink,
		persona,
		conversation.ServiceConfig{
			Temperature:    float32(cfg.GPTTemperature),
			DailyLimit:     cfg.DailyLimit,
			UnlimitedUsers: cfg.UnlimitedUsers,
			SupportGroupID: cfg.SupportGroupID,
		},
		turnMetrics, logger)

	conversationHandler := conversation.NewHandler(svc, logger)

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversationHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
