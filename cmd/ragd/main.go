package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/emmystark/Rag-chatbot/internal/chunker"
	"github.com/emmystark/Rag-chatbot/internal/config"
	"github.com/emmystark/Rag-chatbot/internal/index"
	"github.com/emmystark/Rag-chatbot/internal/loader"
	logpkg "github.com/emmystark/Rag-chatbot/internal/logger"
	"github.com/emmystark/Rag-chatbot/internal/metrics"
	chiTransport "github.com/emmystark/Rag-chatbot/internal/transport/chi"
	ollamaTransport "github.com/emmystark/Rag-chatbot/internal/transport/ollama"
	openaiTransport "github.com/emmystark/Rag-chatbot/internal/transport/openai"
	healthuc "github.com/emmystark/Rag-chatbot/internal/usecase/health"
	ingestuc "github.com/emmystark/Rag-chatbot/internal/usecase/ingest"
	queryuc "github.com/emmystark/Rag-chatbot/internal/usecase/query"
	"github.com/emmystark/Rag-chatbot/internal/version"
)

// embedder is the engine-facing embedding provider contract.
type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	HealthCheck(ctx context.Context) error
}

// generator is the engine-facing generation provider contract.
type generator interface {
	Generate(ctx context.Context, prompt string, image []byte) string
}

func main() {
	// Local development keeps API keys in .env
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rag-chatbot API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("index_path", cfg.Storage.IndexPath),
		zap.String("embedding_driver", cfg.Embedding.Driver),
		zap.String("generation_driver", cfg.Generation.Driver),
	)

	// Open the durable vector index
	idx, err := index.Open(cfg.Storage.IndexPath)
	if err != nil {
		logger.Fatal("Failed to open vector index", zap.Error(err))
	}
	defer idx.Close()

	metrics.RegisterInferenceMetrics()

	// Build providers — composition root
	embed := buildEmbedder(cfg, logger)
	gen := buildGenerator(cfg, logger)

	logger.Info("Providers created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("vision_model", cfg.Generation.VisionModel),
	)

	// Create use case services
	split := chunker.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	ingestSvc := ingestuc.New(loader.New(), split, embed, idx, loader.Supported, logger)
	querySvc := queryuc.New(embed, idx, gen, cfg.Retrieval.TopK, logger)
	healthSvc := healthuc.New(idx, embed)

	// Startup auto-loading of a document folder
	if cfg.Ingest.AutoloadDir != "" {
		report, err := ingestSvc.IngestDir(context.Background(), cfg.Ingest.AutoloadDir)
		if err != nil {
			logger.Warn("Autoload failed", zap.String("dir", cfg.Ingest.AutoloadDir), zap.Error(err))
		} else {
			logger.Info("Autoload complete",
				zap.String("dir", cfg.Ingest.AutoloadDir),
				zap.Int("files", report.Files),
				zap.Int("chunks", report.Chunks),
				zap.Int("failed", report.Failed),
			)
		}
	}

	server := chiTransport.NewServer(ingestSvc, querySvc, healthSvc, chiTransport.Config{
		UploadDir:   cfg.Storage.UploadDir,
		MaxUploadMB: cfg.HTTP.MaxUploadMB,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Supported:   loader.Supported,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func buildEmbedder(cfg config.Config, logger *zap.Logger) embedder {
	switch cfg.Embedding.Driver {
	case "openai":
		return openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
	default:
		return ollamaTransport.NewEmbedder(&ollamaTransport.EmbedderConfig{
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
			Timeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
			Logger:  logger,
		})
	}
}

func buildGenerator(cfg config.Config, logger *zap.Logger) generator {
	switch cfg.Generation.Driver {
	case "openai":
		return openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
			APIKey:      cfg.Generation.APIKey,
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			VisionModel: cfg.Generation.VisionModel,
			Temperature: cfg.Generation.Temperature,
			Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
			Logger:      logger,
		})
	default:
		return ollamaTransport.NewGenerator(&ollamaTransport.GeneratorConfig{
			BaseURL:     cfg.Generation.BaseURL,
			Model:       cfg.Generation.Model,
			VisionModel: cfg.Generation.VisionModel,
			Temperature: cfg.Generation.Temperature,
			NumCtx:      cfg.Generation.NumCtx,
			Timeout:     time.Duration(cfg.Generation.TimeoutSec) * time.Second,
			Logger:      logger,
		})
	}
}
