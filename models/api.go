package models

// IndexRequest creates or resets the vector index for a collection.
type IndexRequest struct {
	ConnectionURI string `json:"connection_uri,omitempty"`
	Database      string `json:"database,omitempty"`
	Collection    string `json:"collection,omitempty"`
	Provider      string `json:"provider,omitempty"`
	Reset         bool   `json:"reset"`
}

type IndexResponse struct {
	FieldPath string `json:"field_path"`
	Dimension int    `json:"dimension"`
	Reset     bool   `json:"reset"`
}

// IngestFile is one uploaded file; content is base64-encoded.
type IngestFile struct {
	Name    string `json:"name" binding:"required"`
	Type    string `json:"type,omitempty"`
	Content string `json:"content" binding:"required"`
}

type IngestRequest struct {
	ConnectionURI string       `json:"connection_uri,omitempty"`
	Database      string       `json:"database,omitempty"`
	Collection    string       `json:"collection,omitempty"`
	Provider      string       `json:"provider,omitempty"`
	Files         []IngestFile `json:"files" binding:"required"`
}

type IngestResponse struct {
	IngestedDocuments []string     `json:"ingested_documents"`
	PerFileStats      []FileStats  `json:"per_file_stats"`
	Totals            IngestTotals `json:"totals"`
	FieldPath         string       `json:"field_path"`
}

// AsyncIngestResponse is returned when the batch was queued instead of
// processed inline.
type AsyncIngestResponse struct {
	TaskID  string `json:"task_id"`
	Queued  int    `json:"queued_files"`
	Message string `json:"message"`
}

type QueryRequest struct {
	ConnectionURI string `json:"connection_uri,omitempty"`
	Database      string `json:"database,omitempty"`
	Collection    string `json:"collection,omitempty"`
	Provider      string `json:"provider,omitempty"`
	Question      string `json:"question" binding:"required"`
	TopK          int    `json:"top_k,omitempty"`
}

type QueryResponse struct {
	Answer             string   `json:"answer"`
	ContextText        string   `json:"context_text"`
	Sources            []string `json:"sources"`
	NumRetrievedChunks int      `json:"num_retrieved_chunks"`
}
