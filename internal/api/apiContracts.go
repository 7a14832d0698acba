package api

import "time"

type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNotFound   ErrorKind = "not_found"
	ErrorKindConflict   ErrorKind = "conflict"
	ErrorKindUpstream   ErrorKind = "upstream"
	ErrorKindInternal   ErrorKind = "internal"
)

type APIError struct {
	Kind      ErrorKind `json:"kind" example:"validation"`
	Message   string    `json:"message" example:"question is required"`
	Retryable bool      `json:"retryable" example:"false"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// requests---------------------

type QueryRequest struct {
	Question      string `json:"question" validate:"required"`
	SessionId     string `json:"session_id,omitempty"`
	TopK          int    `json:"top_k,omitempty"`
	ContextBudget int    `json:"context_budget,omitempty"`
}

// responses--------------------

type IngestResponse struct {
	DocumentId string `json:"document_id"`
	StatusURL  string `json:"status_url"`
}

type StatusResponse struct {
	DocumentId    string    `json:"document_id"`
	Name          string    `json:"doc_name"`
	Status        string    `json:"status" example:"ready"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ChunkCount    int       `json:"chunk_count"`
	Encoding      string    `json:"encoding,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

type SourceRef struct {
	Ref        int    `json:"ref" example:"1"`
	DocumentId string `json:"document_id"`
	ChunkId    string `json:"chunk_id"`
	Excerpt    string `json:"excerpt"`
}

type QueryResponse struct {
	Answer     string      `json:"answer"`
	Sources    []SourceRef `json:"sources,omitempty"`
	Confidence float32     `json:"confidence"`
	SessionId  string      `json:"session_id"`
	NoContext  bool        `json:"no_context,omitempty"`
}

type DeleteResponse struct {
	DocumentId     string `json:"document_id"`
	VectorsRemoved int    `json:"vectors_removed"`
}

type StatsResponse struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	IndexSize int `json:"index_size"`
}
