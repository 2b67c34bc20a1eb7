package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/database"
	"document-rag-platform/internal/logger"
	"document-rag-platform/middleware"
	"document-rag-platform/routes"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	// Connection manager for the vector store
	connections := database.NewConnectionManager(cfg.MongoURI)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		connections.Close(ctx)
	}()

	// Completion provider client, shared across requests
	completer, err := ai.NewCompletionClient(cfg)
	if err != nil {
		log.Fatal("Failed to initialize completion client:", err)
	}
	defer completer.Close()

	// Queue client for async ingestion, when enabled. Ping Redis up
	// front so a bad queue configuration fails at startup instead of on
	// the first oversized batch.
	var queueClient *asynq.Client
	if cfg.AsyncEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			log.Fatal("Failed to reach Redis for async ingestion:", err)
		}
		cancel()
		rdb.Close()

		queueClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer queueClient.Close()
	}

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupAdminRoutes(router, cfg, connections)
	routes.SetupIngestRoutes(router, cfg, connections, queueClient)
	routes.SetupQueryRoutes(router, cfg, connections, completer)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}
