package adapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/rahulsamant37/rag-foundation/internal/api"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/internal/rag"
	"github.com/rahulsamant37/rag-foundation/internal/rag/chunker"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding"
	"github.com/rahulsamant37/rag-foundation/internal/rag/extract"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm"
	"github.com/rahulsamant37/rag-foundation/internal/rag/retrieval"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
)

func TestToAPIError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantStatus    int
		wantKind      api.ErrorKind
		wantRetryable bool
	}{
		{
			name:       "document not found",
			err:        jobModel.ErrDocumentNotFound,
			wantStatus: http.StatusNotFound,
			wantKind:   api.ErrorKindNotFound,
		},
		{
			name:       "session not found",
			err:        jobModel.ErrSessionNotFound,
			wantStatus: http.StatusNotFound,
			wantKind:   api.ErrorKindNotFound,
		},
		{
			name:          "ingest in flight",
			err:           rag.ErrIngestInFlight,
			wantStatus:    http.StatusConflict,
			wantKind:      api.ErrorKindConflict,
			wantRetryable: true,
		},
		{
			name:       "invalid query",
			err:        vectorindex.ErrInvalidQuery,
			wantStatus: http.StatusBadRequest,
			wantKind:   api.ErrorKindValidation,
		},
		{
			name:       "bad chunk config",
			err:        &chunker.InvalidChunkConfigError{Size: 10, Overlap: 20},
			wantStatus: http.StatusBadRequest,
			wantKind:   api.ErrorKindValidation,
		},
		{
			name:       "dimension mismatch",
			err:        &vectorindex.DimensionMismatchError{Want: 768, Got: 3},
			wantStatus: http.StatusBadRequest,
			wantKind:   api.ErrorKindValidation,
		},
		{
			name:       "unsupported format",
			err:        extract.ErrUnsupportedFormat,
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   api.ErrorKindValidation,
		},
		{
			name:       "corrupt document",
			err:        &extract.CorruptDocumentError{Filename: "bad.pdf", Err: errors.New("truncated")},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   api.ErrorKindValidation,
		},
		{
			name:          "transient embedding failure",
			err:           &embedding.EmbeddingError{Op: "embed", Transient: true, Err: errors.New("429")},
			wantStatus:    http.StatusServiceUnavailable,
			wantKind:      api.ErrorKindUpstream,
			wantRetryable: true,
		},
		{
			name:          "transient generation failure",
			err:           &llm.AnswerGenerationError{Transient: true, Err: errors.New("overloaded")},
			wantStatus:    http.StatusServiceUnavailable,
			wantKind:      api.ErrorKindUpstream,
			wantRetryable: true,
		},
		{
			name:       "terminal embedding failure",
			err:        &embedding.EmbeddingError{Op: "embed", Err: errors.New("bad key")},
			wantStatus: http.StatusBadGateway,
			wantKind:   api.ErrorKindUpstream,
		},
		{
			name:       "retrieval failure",
			err:        &retrieval.RetrievalError{Stage: "search", Err: errors.New("broken")},
			wantStatus: http.StatusBadGateway,
			wantKind:   api.ErrorKindUpstream,
		},
		{
			name:       "unknown error stays opaque",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantKind:   api.ErrorKindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := ToAPIError(tt.err)
			if status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", status, tt.wantStatus)
			}
			if resp.Error.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", resp.Error.Kind, tt.wantKind)
			}
			if resp.Error.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", resp.Error.Retryable, tt.wantRetryable)
			}
			if resp.Error.Message == "" {
				t.Error("Message is empty")
			}
		})
	}

	t.Run("internal message never leaks details", func(t *testing.T) {
		_, resp := ToAPIError(errors.New("password=hunter2"))
		if resp.Error.Message != "Internal Server Error" {
			t.Errorf("Message = %q", resp.Error.Message)
		}
	})
}

func TestToQueryResponse(t *testing.T) {
	result := rag.QueryResult{
		Answer: "grounded answer [S1]",
		Sources: []commonModels.Citation{
			{Ref: 1, DocumentId: "doc-1", ChunkId: "c1", Excerpt: "excerpt"},
		},
		Confidence: 0.83,
		SessionId:  "session-1",
	}

	resp := ToQueryResponse(result)
	if resp.Answer != result.Answer || resp.SessionId != "session-1" {
		t.Errorf("Response = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Ref != 1 || resp.Sources[0].ChunkId != "c1" {
		t.Errorf("Sources = %+v", resp.Sources)
	}
	if resp.NoContext {
		t.Error("NoContext set unexpectedly")
	}
}

func TestToIngestResponse(t *testing.T) {
	resp := ToIngestResponse("doc-42")
	if resp.DocumentId != "doc-42" {
		t.Errorf("DocumentId = %s", resp.DocumentId)
	}
	if resp.StatusURL != "documents/doc-42/status" {
		t.Errorf("StatusURL = %s", resp.StatusURL)
	}
}
