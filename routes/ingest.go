package routes

import (
	"net/http"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/database"
	"document-rag-platform/internal/logger"
	"document-rag-platform/internal/queue"
	"document-rag-platform/models"
	"document-rag-platform/services"
	"document-rag-platform/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// SetupIngestRoutes registers the document ingestion endpoint. Batches
// larger than the sync processing limit are queued for the worker when
// async ingestion is enabled.
func SetupIngestRoutes(router *gin.Engine, cfg *config.Config, connections *database.ConnectionManager, queueClient *asynq.Client) {
	router.POST("/documents/ingest", func(c *gin.Context) {
		var req models.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if len(req.Files) == 0 {
			utils.RespondWithBadRequest(c, "No files supplied", nil)
			return
		}
		dbName, collection := resolveNames(cfg, req.Database, req.Collection)

		if cfg.AsyncEnabled && queueClient != nil && payloadSize(req.Files) > cfg.SyncProcessingLimit {
			task, err := queue.NewIngestBatchTask(queue.IngestBatchPayload{
				ConnectionURI: req.ConnectionURI,
				Database:      dbName,
				Collection:    collection,
				Provider:      req.Provider,
				Files:         req.Files,
			})
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to build ingestion task", gin.H{"error": err.Error()})
				return
			}
			info, err := queueClient.Enqueue(task)
			if err != nil {
				utils.RespondWithInternalError(c, "Failed to enqueue ingestion batch", gin.H{"error": err.Error()})
				return
			}
			logger.Info("Ingestion batch queued", "task_id", info.ID, "files", len(req.Files))
			c.JSON(http.StatusAccepted, models.AsyncIngestResponse{
				TaskID:  info.ID,
				Queued:  len(req.Files),
				Message: "batch queued for background ingestion",
			})
			return
		}

		embedder, err := ai.NewEmbeddingClient(cfg, req.Provider)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		client, err := connections.Client(c.Request.Context(), req.ConnectionURI)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		db := client.Database(dbName)
		ingestion := services.NewIngestionService(db, services.NewSchemaResolver(db),
			services.NewExtractor(), services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
			embedder, cfg.EmbeddingConcurrency)

		resp, err := ingestion.Ingest(c.Request.Context(), collection, req.Files)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	})
}

// payloadSize estimates the decoded size of a batch; content arrives
// base64-encoded at 4/3 of its raw length.
func payloadSize(files []models.IngestFile) int64 {
	var total int64
	for _, f := range files {
		total += int64(len(f.Content)) * 3 / 4
	}
	return total
}
