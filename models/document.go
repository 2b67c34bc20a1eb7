package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Known embedding field names, highest priority first. Collections
// written by older deployments may carry "vector"; the resolver picks
// the first name with existing documents and falls back to the default.
var EmbeddingFieldCandidates = []string{"embeddingVector", "embedding", "vector"}

const DefaultEmbeddingField = "embedding"

// SourceDocument is the per-file registry record and the unit of
// deduplication. A unique index on "source" makes the reservation
// insert the dedup check.
type SourceDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Source      string             `bson:"source" json:"source"`
	FileType    string             `bson:"file_type" json:"file_type"`
	TotalChunks int                `bson:"total_chunks" json:"total_chunks"`
	Status      string             `bson:"status" json:"status"` // processing, completed
	IngestedAt  time.Time          `bson:"ingested_at" json:"ingested_at"`
}

const (
	SourceStatusProcessing = "processing"
	SourceStatusCompleted  = "completed"
)

// ChunkMetadata locates a chunk within its source file. Page, sheet and
// slide locators are 1-based within the file.
type ChunkMetadata struct {
	Source      string `bson:"source" json:"source"`
	FileType    string `bson:"file_type" json:"file_type"`
	Page        int    `bson:"page,omitempty" json:"page,omitempty"`
	Sheet       string `bson:"sheet,omitempty" json:"sheet,omitempty"`
	Slide       int    `bson:"slide,omitempty" json:"slide,omitempty"`
	ChunkIndex  int    `bson:"chunk_index" json:"chunk_index"`
	TotalChunks int    `bson:"total_chunks" json:"total_chunks"`
}

// Chunk is what the pipeline produces per text window before the
// embedding field is attached under the collection's resolved name.
type Chunk struct {
	Text     string
	Metadata ChunkMetadata
}

// ExtractedUnit is one logical sub-unit of a file as returned by the
// format dispatcher: a PDF page, a spreadsheet sheet, or a whole file.
type ExtractedUnit struct {
	Text  string
	Page  int    // 1-based, PDF only
	Sheet string // sheet name, spreadsheets only
	Slide int    // 1-based first slide of the unit, decks only
}

// CollectionSchema is the explicit per-collection schema record kept in
// the schema registry collection. It is written once at index creation
// and re-derived only after a destructive reset.
type CollectionSchema struct {
	Database   string    `bson:"database" json:"database"`
	Collection string    `bson:"collection" json:"collection"`
	FieldPath  string    `bson:"field_path" json:"field_path"`
	Dimension  int       `bson:"dimension" json:"dimension"`
	Provider   string    `bson:"provider" json:"provider"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}

// RetrievedChunk is one ANN hit with its similarity score.
type RetrievedChunk struct {
	Text     string        `bson:"text" json:"text"`
	Metadata ChunkMetadata `bson:"metadata" json:"metadata"`
	Score    float64       `bson:"score" json:"score"`
}

// RetrievalResult is ephemeral: ranked chunks plus the assembled,
// citation-tagged context. Never persisted.
type RetrievalResult struct {
	Chunks      []RetrievedChunk
	ContextText string
	Sources     []string
}

// NoRelevantDocuments is the sentinel context used when the search
// returns nothing; the synthesizer still runs against it.
const NoRelevantDocuments = "No relevant documents found in the knowledge base."

// FileStats is the per-file outcome of an ingestion batch.
type FileStats struct {
	Source     string `json:"source"`
	FileType   string `json:"file_type"`
	Status     string `json:"status"` // ingested, skipped, failed
	Chunks     int    `json:"chunks"`
	Degraded   bool   `json:"degraded,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

const (
	FileStatusIngested = "ingested"
	FileStatusSkipped  = "skipped"
	FileStatusFailed   = "failed"
)

// IngestTotals aggregates an ingestion batch.
type IngestTotals struct {
	NewDocuments   int   `json:"new_documents"`
	NewChunks      int   `json:"new_chunks"`
	ExistingChunks int64 `json:"existing_chunks"`
	TotalChunks    int64 `json:"total_chunks"`
}

// CollectionStats summarizes a collection for the stats endpoint.
type CollectionStats struct {
	TotalDocuments     int64            `json:"total_documents"`
	TotalChunks        int64            `json:"total_chunks"`
	UniqueSources      int              `json:"unique_sources"`
	DocumentTypeCounts map[string]int64 `json:"document_type_counts"`
	EmbeddingDimension int              `json:"embedding_dimension"`
	EmbeddingFieldPath string           `json:"embedding_field_path"`
}
