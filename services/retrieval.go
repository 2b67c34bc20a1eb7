package services

import (
	"context"
	"fmt"
	"strings"

	"document-rag-platform/internal/ai"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	// DefaultTopK is how many chunks ground an answer.
	DefaultTopK = 3
	// CandidatePool is how many ANN candidates the index considers
	// internally before ranking the top k.
	CandidatePool = 100
)

// RetrievalService embeds a question, runs an approximate
// nearest-neighbor search against the collection's vector field and
// assembles a ranked, citation-tagged context.
type RetrievalService struct {
	db        *mongo.Database
	resolver  *SchemaResolver
	embedder  ai.Embedder
	indexName string
}

func NewRetrievalService(db *mongo.Database, resolver *SchemaResolver, embedder ai.Embedder, indexName string) *RetrievalService {
	return &RetrievalService{db: db, resolver: resolver, embedder: embedder, indexName: indexName}
}

// Retrieve returns the top-k chunks for a question. The configured
// provider's dimension is validated against the collection before any
// embedding or store call; a mismatch fails fast. An empty result is
// not an error: the context falls back to the sentinel string.
func (s *RetrievalService) Retrieve(ctx context.Context, collection, question string, k int) (*models.RetrievalResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

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
	if schema.Dimension == 0 {
		// Nothing ingested yet; skip the store round-trip.
		return emptyResult(), nil
	}

	queryVector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.indexName},
			{Key: "path", Value: schema.FieldPath},
			{Key: "queryVector", Value: queryVector},
			{Key: "numCandidates", Value: CandidatePool},
			{Key: "limit", Value: k},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "text", Value: 1},
			{Key: "metadata", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chunks []models.RetrievedChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return emptyResult(), nil
	}

	contextText, sources := BuildContext(chunks)
	logger.Debug("Retrieved chunks", "collection", collection, "count", len(chunks))

	return &models.RetrievalResult{
		Chunks:      chunks,
		ContextText: contextText,
		Sources:     sources,
	}, nil
}

func emptyResult() *models.RetrievalResult {
	return &models.RetrievalResult{
		Chunks:      []models.RetrievedChunk{},
		ContextText: models.NoRelevantDocuments,
		Sources:     []string{},
	}
}

// BuildContext renders retrieved chunks into a context block, each
// chunk prefixed with its citation tag, and returns the tags.
func BuildContext(chunks []models.RetrievedChunk) (string, []string) {
	var sb strings.Builder
	sources := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		label := CitationLabel(i+1, chunk.Metadata)
		sources = append(sources, label)

		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(label)
		sb.WriteString("\n")
		sb.WriteString(chunk.Text)
	}

	return sb.String(), sources
}

// CitationLabel formats one chunk's citation tag, e.g.
// "[Source 2: report.pdf (pdf), page 4]".
func CitationLabel(position int, md models.ChunkMetadata) string {
	label := fmt.Sprintf("[Source %d: %s (%s)", position, md.Source, md.FileType)
	switch {
	case md.Page > 0:
		label += fmt.Sprintf(", page %d", md.Page)
	case md.Sheet != "":
		label += fmt.Sprintf(", sheet %s", md.Sheet)
	case md.Slide > 0:
		label += fmt.Sprintf(", slide %d", md.Slide)
	}
	return label + "]"
}
