package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognisync/cognisync-api/internal/analysis"
	"github.com/cognisync/cognisync-api/internal/api"
	"github.com/cognisync/cognisync-api/internal/config"
	"github.com/cognisync/cognisync-api/internal/cryptox"
	"github.com/cognisync/cognisync-api/internal/filestore"
	"github.com/cognisync/cognisync-api/internal/repository/postgres"
	"github.com/cognisync/cognisync-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)

	// Field and file encryption
	cipher, err := cryptox.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("failed to initialize encryption: %v", err)
	}

	// File storage backend
	var files filestore.Store
	switch cfg.StorageBackend {
	case "s3":
		files, err = filestore.NewS3(context.Background(), cfg)
		if err != nil {
			log.Fatalf("failed to initialize s3 storage: %v", err)
		}
	default:
		files = filestore.NewLocal(cfg.UploadDir, cipher)
	}

	// Analysis backend is optional; without an API key uploads are
	// stored and stay pending.
	var analyzer analysis.Analyzer
	if cfg.OpenAIAPIKey != "" {
		analyzer = analysis.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, analysis.WithModel(cfg.OpenAIModel))
	} else {
		log.Println("OPENAI_API_KEY not set, analysis disabled")
	}

	// Initialize services
	services := service.NewServices(repos, files, cipher, analyzer, cfg)

	// Initialize router
	router := api.NewRouter(services, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
