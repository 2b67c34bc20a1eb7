package main

import (
	"context"
	"log"
	"time"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/database"
	"document-rag-platform/internal/logger"
	"document-rag-platform/internal/queue"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	connections := database.NewConnectionManager(cfg.MongoURI)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		connections.Close(ctx)
	}()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"ingest": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("Task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(cfg, connections)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskIngestBatch, processor.ProcessIngestBatch)

	logger.Info("Starting ingestion worker", "concurrency", cfg.WorkerConcurrency, "redis", redisOpt.Addr)

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
