package jobModel

import (
	"context"
	"errors"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
)

// Job is a queued ingestion request. The job id is the document id so the
// caller can poll /documents/{id}/status with the id returned at upload time.
type Job struct {
	DocumentId  string              `json:"document_id"`
	TraceId     string              `json:"trace_id"`
	FileName    string              `json:"file_name"`
	FilePath    string              `json:"file_path"`
	Format      commonModels.DocType `json:"format"`
	CreatedTime time.Time           `json:"created_time"`
}

var ErrSessionNotFound = errors.New("session not found")

var ErrDocumentNotFound = errors.New("document not found")

type DocumentStore interface {
	Save(ctx context.Context, doc commonModels.Document) error
	Get(ctx context.Context, documentId string) (commonModels.Document, bool)
	SetStatus(ctx context.Context, documentId string, status commonModels.DocStatus, reason string) error
	SetReady(ctx context.Context, documentId string, chunkCount int, encoding string) error
	Delete(ctx context.Context, documentId string) bool
	Counts(ctx context.Context) (documents int, chunks int, err error)
}

type SessionStore interface {
	// GetOrCreate returns the session for id, creating a fresh one when id is
	// empty or unknown.
	GetOrCreate(ctx context.Context, sessionId string) (commonModels.Session, error)
	// Append fails with ErrSessionNotFound for unknown ids.
	Append(ctx context.Context, sessionId string, role commonModels.Role, text string) error
	History(ctx context.Context, sessionId string, limit int) ([]commonModels.Message, error)
	ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error)
}
