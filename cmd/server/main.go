package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docseg/docseg/internal/api"
	"github.com/docseg/docseg/internal/config"
	"github.com/docseg/docseg/internal/extract"
	"github.com/docseg/docseg/internal/index"
	"github.com/docseg/docseg/internal/pathstore"
	"github.com/docseg/docseg/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	ps := pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)
	claude := extract.NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)

	// Optional vector index, backed by Ollama embeddings.
	var idx *index.Index
	if cfg.IndexEnabled() {
		idx, err = index.New(cfg.IndexPath, index.OllamaEmbedding(cfg.OllamaURL, cfg.OllamaEmbedModel))
		if err != nil {
			log.Error("failed to open vector index", "path", cfg.IndexPath, "error", err)
			os.Exit(1)
		}
		log.Info("vector index enabled", "path", cfg.IndexPath, "model", cfg.OllamaEmbedModel, "chunks", idx.Count())
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, claude, ps, idx, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, claude, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		claude.Close()
		ps.Close()
	}()

	log.Info("starting docseg", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
