package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/database"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
	"document-rag-platform/services"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskIngestBatch = "documents:ingest"

// IngestBatchPayload carries one queued ingestion batch. File content
// stays base64-encoded until the coordinator decodes it.
type IngestBatchPayload struct {
	ConnectionURI string              `json:"connection_uri,omitempty"`
	Database      string              `json:"database"`
	Collection    string              `json:"collection"`
	Provider      string              `json:"provider,omitempty"`
	Files         []models.IngestFile `json:"files"`
}

func NewIngestBatchTask(payload IngestBatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestBatch,
		data,
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

// TaskProcessor runs queued batches through the same ingestion
// coordinator the sync path uses.
type TaskProcessor struct {
	cfg         *config.Config
	connections *database.ConnectionManager
}

func NewTaskProcessor(cfg *config.Config, connections *database.ConnectionManager) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, connections: connections}
}

func (p *TaskProcessor) ProcessIngestBatch(ctx context.Context, t *asynq.Task) error {
	var payload IngestBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	dbName := payload.Database
	if dbName == "" {
		dbName = p.cfg.DBName
	}
	collection := payload.Collection
	if collection == "" {
		collection = p.cfg.Collection
	}

	logger.Info("Processing queued ingestion batch", "database", dbName, "collection", collection, "files", len(payload.Files))

	client, err := p.connections.Client(ctx, payload.ConnectionURI)
	if err != nil {
		// Bad connection strings do not heal on retry.
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	embedder, err := ai.NewEmbeddingClient(p.cfg, payload.Provider)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	db := client.Database(dbName)
	resolver := services.NewSchemaResolver(db)
	ingestion := services.NewIngestionService(db, resolver, services.NewExtractor(),
		services.NewChunker(p.cfg.MaxChunkSize, p.cfg.ChunkOverlap), embedder, p.cfg.EmbeddingConcurrency)

	resp, err := ingestion.Ingest(ctx, collection, payload.Files)
	if err != nil {
		var mismatch *models.DimensionMismatchError
		if errors.As(err, &mismatch) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	logger.Info("Queued ingestion batch done",
		"collection", collection,
		"new_documents", resp.Totals.NewDocuments,
		"new_chunks", resp.Totals.NewChunks)
	return nil
}
