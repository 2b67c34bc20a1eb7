package services

import (
	"context"
	"errors"
	"time"

	"document-rag-platform/internal/logger"
	"document-rag-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SchemaRegistryCollection holds one CollectionSchema record per chunk
// collection in the same database.
const SchemaRegistryCollection = "collection_schemas"

// SchemaResolver determines which field holds vectors and what
// dimension a collection expects. The registry record is authoritative;
// field sniffing survives only as a compat path for collections written
// before the registry existed, and its result is backfilled.
type SchemaResolver struct {
	db *mongo.Database
}

func NewSchemaResolver(db *mongo.Database) *SchemaResolver {
	return &SchemaResolver{db: db}
}

// PickFieldPath returns the highest-priority candidate that is present,
// or the default when none is.
func PickFieldPath(present map[string]bool) string {
	for _, candidate := range models.EmbeddingFieldCandidates {
		if present[candidate] {
			return candidate
		}
	}
	return models.DefaultEmbeddingField
}

// Resolve returns the collection's schema. For an empty collection with
// no registry record it returns the default field path with dimension 0
// (unknown until first ingestion).
func (r *SchemaResolver) Resolve(ctx context.Context, collection string) (*models.CollectionSchema, error) {
	registry := r.db.Collection(SchemaRegistryCollection)

	var schema models.CollectionSchema
	err := registry.FindOne(ctx, bson.M{"collection": collection}).Decode(&schema)
	if err == nil {
		return &schema, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// Pre-registry collection: sniff the stored documents once and
	// backfill the registry with what we find.
	fieldPath, dimension, err := r.sniff(ctx, collection)
	if err != nil {
		return nil, err
	}

	schema = models.CollectionSchema{
		Database:   r.db.Name(),
		Collection: collection,
		FieldPath:  fieldPath,
		Dimension:  dimension,
		CreatedAt:  time.Now(),
	}
	if dimension > 0 {
		if err := r.Save(ctx, &schema); err != nil {
			logger.Warn("Failed to backfill schema registry", "collection", collection, "error", err)
		}
	}
	return &schema, nil
}

// ResolveFieldPath is the single-value convenience form of Resolve.
func (r *SchemaResolver) ResolveFieldPath(ctx context.Context, collection string) (string, error) {
	schema, err := r.Resolve(ctx, collection)
	if err != nil {
		return "", err
	}
	return schema.FieldPath, nil
}

// sniff queries the collection for the first document carrying each
// known field name in priority order. First match wins; an empty or
// unrecognized collection yields the default field with dimension 0.
func (r *SchemaResolver) sniff(ctx context.Context, collection string) (string, int, error) {
	coll := r.db.Collection(collection)

	for _, candidate := range models.EmbeddingFieldCandidates {
		var doc bson.M
		err := coll.FindOne(ctx, bson.M{candidate: bson.M{"$exists": true}},
			options.FindOne().SetProjection(bson.M{candidate: 1})).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return "", 0, err
		}
		return candidate, vectorLength(doc[candidate]), nil
	}

	return models.DefaultEmbeddingField, 0, nil
}

// Save upserts the registry record for a collection.
func (r *SchemaResolver) Save(ctx context.Context, schema *models.CollectionSchema) error {
	registry := r.db.Collection(SchemaRegistryCollection)
	_, err := registry.UpdateOne(ctx,
		bson.M{"collection": schema.Collection},
		bson.M{"$set": schema},
		options.Update().SetUpsert(true))
	return err
}

// Delete removes the registry record; used by destructive resets.
func (r *SchemaResolver) Delete(ctx context.Context, collection string) error {
	registry := r.db.Collection(SchemaRegistryCollection)
	_, err := registry.DeleteOne(ctx, bson.M{"collection": collection})
	return err
}

func vectorLength(value interface{}) int {
	switch v := value.(type) {
	case primitive.A:
		return len(v)
	case []float64:
		return len(v)
	case []float32:
		return len(v)
	case []interface{}:
		return len(v)
	default:
		return 0
	}
}
