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

// SetupAdminRoutes registers index lifecycle and stats endpoints.
func SetupAdminRoutes(router *gin.Engine, cfg *config.Config, connections *database.ConnectionManager) {
	router.POST("/index", func(c *gin.Context) {
		var req models.IndexRequest
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
		manager := services.NewIndexManager(db, services.NewSchemaResolver(db), cfg.VectorIndexName)

		var schema *models.CollectionSchema
		if req.Reset {
			schema, err = manager.ResetAndIndex(c.Request.Context(), collection, embedder.Provider(), embedder.Dimension())
		} else {
			schema, err = manager.EnsureIndex(c.Request.Context(), collection, embedder.Provider(), embedder.Dimension())
		}
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.IndexResponse{
			FieldPath: schema.FieldPath,
			Dimension: schema.Dimension,
			Reset:     req.Reset,
		})
	})

	router.GET("/collections/stats", func(c *gin.Context) {
		dbName, collection := resolveNames(cfg, c.Query("database"), c.Query("collection"))

		client, err := connections.Client(c.Request.Context(), c.Query("connection_uri"))
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}

		db := client.Database(dbName)
		stats := services.NewStatsService(db, services.NewSchemaResolver(db))

		result, err := stats.CollectionStats(c.Request.Context(), collection)
		if err != nil {
			utils.RespondWithPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})
}
