package services

import (
	"context"
	"errors"
	"time"

	"document-rag-platform/internal/logger"
	"document-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo server error codes we branch on.
const (
	codeUnauthorized       = 13
	codeNamespaceExists    = 48
	codeIndexAlreadyExists = 68
)

// IndexManager owns the vector-index lifecycle of a collection: the
// chunk collection, its source registry with the dedup constraint, the
// Atlas vector search index and the schema record.
type IndexManager struct {
	db        *mongo.Database
	resolver  *SchemaResolver
	indexName string
}

func NewIndexManager(db *mongo.Database, resolver *SchemaResolver, indexName string) *IndexManager {
	return &IndexManager{db: db, resolver: resolver, indexName: indexName}
}

// SourcesCollection is the per-collection source registry name.
func SourcesCollection(collection string) string {
	return collection + "_sources"
}

// EnsureIndex creates the collection, its dedup index and the vector
// search index if absent, leaving existing data untouched. Creating an
// index that already exists is not an error. The schema record is
// written with the resolved field path and the provider's dimension.
func (m *IndexManager) EnsureIndex(ctx context.Context, collection, provider string, dimension int) (*models.CollectionSchema, error) {
	schema, err := m.resolver.Resolve(ctx, collection)
	if err != nil {
		return nil, err
	}
	if schema.Dimension > 0 && schema.Dimension != dimension {
		return nil, &models.DimensionMismatchError{
			Collection: collection,
			Stored:     schema.Dimension,
			Provider:   provider,
			Configured: dimension,
		}
	}

	if err := m.db.CreateCollection(ctx, collection); err != nil && !hasErrorCode(err, codeNamespaceExists) {
		return nil, err
	}

	sources := m.db.Collection(SourcesCollection(collection))
	_, err = sources.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "source", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		if hasErrorCode(err, codeUnauthorized) {
			return nil, &models.IndexPermissionError{Index: SourcesCollection(collection) + ".source", Cause: err}
		}
		return nil, err
	}

	if err := m.createVectorIndex(ctx, collection, schema.FieldPath, dimension); err != nil {
		return nil, err
	}

	schema.Database = m.db.Name()
	schema.Collection = collection
	schema.Dimension = dimension
	schema.Provider = provider
	if schema.CreatedAt.IsZero() {
		schema.CreatedAt = time.Now()
	}
	if err := m.resolver.Save(ctx, schema); err != nil {
		return nil, err
	}

	logger.Info("Vector index ensured", "collection", collection, "field", schema.FieldPath, "dimension", dimension)
	return schema, nil
}

// ResetAndIndex drops the chunk collection, its source registry and the
// schema record, then recreates everything from scratch. This is the
// only operation that deletes chunks.
func (m *IndexManager) ResetAndIndex(ctx context.Context, collection, provider string, dimension int) (*models.CollectionSchema, error) {
	if err := m.db.Collection(collection).Drop(ctx); err != nil {
		return nil, err
	}
	if err := m.db.Collection(SourcesCollection(collection)).Drop(ctx); err != nil {
		return nil, err
	}
	if err := m.resolver.Delete(ctx, collection); err != nil {
		return nil, err
	}

	logger.Info("Collection reset", "collection", collection)
	return m.EnsureIndex(ctx, collection, provider, dimension)
}

func (m *IndexManager) createVectorIndex(ctx context.Context, collection, fieldPath string, dimension int) error {
	definition := bson.D{{Key: "fields", Value: bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: fieldPath},
			{Key: "numDimensions", Value: dimension},
			{Key: "similarity", Value: "cosine"},
		},
	}}}

	_, err := m.db.Collection(collection).SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: definition,
		Options:    options.SearchIndexes().SetName(m.indexName).SetType("vectorSearch"),
	})
	if err != nil {
		if indexExists(err) {
			logger.Debug("Vector index already exists", "collection", collection, "index", m.indexName)
			return nil
		}
		if hasErrorCode(err, codeUnauthorized) {
			return &models.IndexPermissionError{Index: m.indexName, Cause: err}
		}
		return err
	}
	return nil
}

func hasErrorCode(err error, code int) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == int32(code)
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorCode(code)
	}
	return false
}

func indexExists(err error) bool {
	if hasErrorCode(err, codeIndexAlreadyExists) {
		return true
	}
	var srvErr mongo.ServerError
	return errors.As(err, &srvErr) && srvErr.HasErrorMessage("Duplicate Index")
}
