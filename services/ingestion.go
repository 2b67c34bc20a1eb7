package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// IngestionService runs the dispatcher -> chunker -> embedder pipeline
// per file and persists chunk records. Files are processed sequentially;
// chunk embeddings within one file fan out through a bounded worker
// pool. Chunks are append-only: nothing here ever deletes them.
type IngestionService struct {
	db          *mongo.Database
	resolver    *SchemaResolver
	extractor   *Extractor
	chunker     *Chunker
	embedder    ai.Embedder
	concurrency int
}

func NewIngestionService(db *mongo.Database, resolver *SchemaResolver, extractor *Extractor,
	chunker *Chunker, embedder ai.Embedder, concurrency int) *IngestionService {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &IngestionService{
		db:          db,
		resolver:    resolver,
		extractor:   extractor,
		chunker:     chunker,
		embedder:    embedder,
		concurrency: concurrency,
	}
}

// Ingest processes a batch of uploaded files against one collection.
// Per-file failures are collected in the stats; they never abort the
// remaining files. The whole batch is refused up front only when the
// collection's recorded dimension disagrees with the active provider.
func (s *IngestionService) Ingest(ctx context.Context, collection string, files []models.IngestFile) (*models.IngestResponse, error) {
	schema, err := s.resolver.Resolve(ctx, collection)
	if err != nil {
		return nil, err
	}
	if schema.Dimension > 0 && schema.Dimension != s.embedder.Dimension() {
		return nil, &models.DimensionMismatchError{
			Collection: collection,
			Stored:     schema.Dimension,
			Provider:   s.embedder.Provider(),
			Configured: s.embedder.Dimension(),
		}
	}

	chunkColl := s.db.Collection(collection)
	existingChunks, err := chunkColl.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	resp := &models.IngestResponse{
		IngestedDocuments: []string{},
		PerFileStats:      make([]models.FileStats, 0, len(files)),
		FieldPath:         schema.FieldPath,
	}

	for _, file := range files {
		stats := s.ingestFile(ctx, collection, schema.FieldPath, file)
		resp.PerFileStats = append(resp.PerFileStats, stats)
		if stats.Status == models.FileStatusIngested {
			resp.IngestedDocuments = append(resp.IngestedDocuments, stats.Source)
			resp.Totals.NewDocuments++
			resp.Totals.NewChunks += stats.Chunks
		}
	}

	resp.Totals.ExistingChunks = existingChunks
	resp.Totals.TotalChunks = existingChunks + int64(resp.Totals.NewChunks)

	// First successful ingestion fixes the collection's dimension.
	if schema.Dimension == 0 && resp.Totals.NewChunks > 0 {
		schema.Database = s.db.Name()
		schema.Collection = collection
		schema.Dimension = s.embedder.Dimension()
		schema.Provider = s.embedder.Provider()
		if schema.CreatedAt.IsZero() {
			schema.CreatedAt = time.Now()
		}
		if err := s.resolver.Save(ctx, schema); err != nil {
			logger.Warn("Failed to record collection schema", "collection", collection, "error", err)
		}
	}

	return resp, nil
}

func (s *IngestionService) ingestFile(ctx context.Context, collection, fieldPath string, file models.IngestFile) models.FileStats {
	start := time.Now()
	stats := models.FileStats{Source: file.Name}
	fail := func(err error) models.FileStats {
		stats.Status = models.FileStatusFailed
		stats.Error = err.Error()
		stats.DurationMS = time.Since(start).Milliseconds()
		logger.Error("File ingestion failed", "file", file.Name, "error", err)
		return stats
	}

	fileType, err := s.extractor.FileType(file.Name)
	if err != nil {
		return fail(err)
	}
	stats.FileType = fileType

	data, err := base64.StdEncoding.DecodeString(file.Content)
	if err != nil {
		return fail(fmt.Errorf("invalid base64 content: %w", err))
	}

	sources := s.db.Collection(SourcesCollection(collection))

	// Reserve the source name first; the unique index makes this the
	// dedup check. A duplicate key is the idempotent skip outcome.
	reservation := models.SourceDocument{
		Source:     file.Name,
		FileType:   fileType,
		Status:     models.SourceStatusProcessing,
		IngestedAt: time.Now(),
	}
	res, err := sources.InsertOne(ctx, reservation)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			stats.Status = models.FileStatusSkipped
			stats.DurationMS = time.Since(start).Milliseconds()
			logger.Info("Source already ingested, skipping", "file", file.Name)
			return stats
		}
		return fail(err)
	}
	release := func() {
		if _, delErr := sources.DeleteOne(ctx, bson.M{"_id": res.InsertedID}); delErr != nil {
			logger.Warn("Failed to release source reservation", "file", file.Name, "error", delErr)
		}
	}

	units, degraded, err := s.extractor.Extract(data, file.Name)
	if err != nil {
		release()
		return fail(err)
	}
	stats.Degraded = degraded

	chunks := s.chunker.Split(units, file.Name, fileType)

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		release()
		return fail(err)
	}

	if len(chunks) > 0 {
		docs := make([]interface{}, len(chunks))
		for i, chunk := range chunks {
			docs[i] = bson.M{
				"text":     chunk.Text,
				fieldPath:  vectors[i],
				"metadata": chunk.Metadata,
			}
		}
		if _, err := s.db.Collection(collection).InsertMany(ctx, docs); err != nil {
			release()
			return fail(err)
		}
	}

	_, err = sources.UpdateOne(ctx,
		bson.M{"_id": res.InsertedID},
		bson.M{"$set": bson.M{
			"status":       models.SourceStatusCompleted,
			"total_chunks": len(chunks),
			"ingested_at":  time.Now(),
		}})
	if err != nil {
		logger.Warn("Failed to finalize source record", "file", file.Name, "error", err)
	}

	stats.Status = models.FileStatusIngested
	stats.Chunks = len(chunks)
	stats.DurationMS = time.Since(start).Milliseconds()
	logger.Info("File ingested", "file", file.Name, "chunks", len(chunks), "degraded", degraded)
	return stats
}

// embedChunks embeds all chunks of one file through a bounded worker
// pool so a single huge file cannot exhaust outbound connections or the
// provider's rate limit.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vec, err := s.embedder.Embed(gctx, chunk.Text)
			if err != nil {
				return err
			}
			if len(vec) != s.embedder.Dimension() {
				return &models.EmbeddingProviderError{
					Provider: s.embedder.Provider(),
					Message:  fmt.Sprintf("expected %d-dimensional vector, got %d", s.embedder.Dimension(), len(vec)),
				}
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}
