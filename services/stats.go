package services

import (
	"context"

	"document-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StatsService summarizes a collection: document and chunk counts,
// per-type breakdown and the active embedding schema.
type StatsService struct {
	db       *mongo.Database
	resolver *SchemaResolver
}

func NewStatsService(db *mongo.Database, resolver *SchemaResolver) *StatsService {
	return &StatsService{db: db, resolver: resolver}
}

func (s *StatsService) CollectionStats(ctx context.Context, collection string) (*models.CollectionStats, error) {
	schema, err := s.resolver.Resolve(ctx, collection)
	if err != nil {
		return nil, err
	}

	totalChunks, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	sources := s.db.Collection(SourcesCollection(collection))
	totalDocuments, err := sources.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	uniqueSources, err := s.db.Collection(collection).Distinct(ctx, "metadata.source", bson.M{})
	if err != nil {
		return nil, err
	}

	typeCounts, err := countByType(ctx, sources)
	if err != nil {
		return nil, err
	}

	return &models.CollectionStats{
		TotalDocuments:     totalDocuments,
		TotalChunks:        totalChunks,
		UniqueSources:      len(uniqueSources),
		DocumentTypeCounts: typeCounts,
		EmbeddingDimension: schema.Dimension,
		EmbeddingFieldPath: schema.FieldPath,
	}, nil
}

func countByType(ctx context.Context, sources *mongo.Collection) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$file_type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := sources.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		FileType string `bson:"_id"`
		Count    int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.FileType] = row.Count
	}
	return counts, nil
}
