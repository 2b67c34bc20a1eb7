package routes

import (
	"net/http"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/config"
	"document-rag-platform/internal/database"
	"document-rag-platform/models"
	"document-rag-platform/services"
	"document-rag-platform/utils"

	"github.com/gin-gonic/gin"
)

// SetupQueryRoutes registers the retrieval-augmented question endpoint.
func SetupQueryRoutes(router *gin.Engine, cfg *config.Config, connections *database.ConnectionManager, completer ai.Completer) {
	router.POST("/query", func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		dbName, collection := resolveNames(cfg, req.Database, req.Collection)

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
		retrieval := services.NewRetrievalService(db, services.NewSchemaResolver(db), embedder, cfg.VectorIndexName)

		result, err := retrieval.Retrieve(c.Request.Context(), collection, req.Question, req.TopK)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		answer, err := services.NewSynthesizer(completer).Synthesize(c.Request.Context(), req.Question, result.ContextText)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.QueryResponse{
			Answer:             answer,
			ContextText:        result.ContextText,
			Sources:            result.Sources,
			NumRetrievedChunks: len(result.Chunks),
		})
	})
}
