package adapter

import (
	"errors"
	"fmt"
	"net/http"

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

func ToIngestResponse(documentId string) api.IngestResponse {
	return api.IngestResponse{
		DocumentId: documentId,
		StatusURL:  fmt.Sprintf("documents/%s/status", documentId),
	}
}

func ToStatusResponse(doc commonModels.Document) api.StatusResponse {
	return api.StatusResponse{
		DocumentId:    doc.Id,
		Name:          doc.Name,
		Status:        string(doc.Status),
		FailureReason: doc.FailureReason,
		ChunkCount:    doc.ChunkCount,
		Encoding:      doc.Encoding,
		UploadedAt:    doc.UploadedAt,
	}
}

func ToQueryResponse(result rag.QueryResult) api.QueryResponse {
	sources := make([]api.SourceRef, 0, len(result.Sources))
	for _, c := range result.Sources {
		sources = append(sources, api.SourceRef{
			Ref:        c.Ref,
			DocumentId: c.DocumentId,
			ChunkId:    c.ChunkId,
			Excerpt:    c.Excerpt,
		})
	}
	return api.QueryResponse{
		Answer:     result.Answer,
		Sources:    sources,
		Confidence: result.Confidence,
		SessionId:  result.SessionId,
		NoContext:  result.NoContext,
	}
}

func ToDeleteResponse(documentId string, removed int) api.DeleteResponse {
	return api.DeleteResponse{DocumentId: documentId, VectorsRemoved: removed}
}

func ToStatsResponse(stats rag.Stats) api.StatsResponse {
	return api.StatsResponse{
		Documents: stats.Documents,
		Chunks:    stats.Chunks,
		IndexSize: stats.IndexSize,
	}
}

func NewErrorResponse(kind api.ErrorKind, message string, retryable bool) api.ErrorResponse {
	return api.ErrorResponse{Error: api.APIError{Kind: kind, Message: message, Retryable: retryable}}
}

// ToAPIError folds the internal error taxonomy into the wire-level kinds and
// picks the matching HTTP status. Unknown errors stay opaque internals.
func ToAPIError(err error) (int, api.ErrorResponse) {
	var (
		chunkErr   *chunker.InvalidChunkConfigError
		dimErr     *vectorindex.DimensionMismatchError
		corruptErr *extract.CorruptDocumentError
	)

	switch {
	case errors.Is(err, jobModel.ErrDocumentNotFound):
		return http.StatusNotFound, NewErrorResponse(api.ErrorKindNotFound, "document not found", false)
	case errors.Is(err, jobModel.ErrSessionNotFound):
		return http.StatusNotFound, NewErrorResponse(api.ErrorKindNotFound, "session not found", false)
	case errors.Is(err, rag.ErrIngestInFlight):
		return http.StatusConflict, NewErrorResponse(api.ErrorKindConflict, "document operation already in progress", true)
	case errors.Is(err, vectorindex.ErrInvalidQuery),
		errors.As(err, &chunkErr),
		errors.As(err, &dimErr):
		return http.StatusBadRequest, NewErrorResponse(api.ErrorKindValidation, err.Error(), false)
	case errors.Is(err, extract.ErrUnsupportedFormat),
		errors.As(err, &corruptErr):
		return http.StatusUnprocessableEntity, NewErrorResponse(api.ErrorKindValidation, err.Error(), false)
	case embedding.IsTransient(err), llm.IsTransient(err):
		return http.StatusServiceUnavailable, NewErrorResponse(api.ErrorKindUpstream, "upstream model unavailable", true)
	}

	var embErr *embedding.EmbeddingError
	var genErr *llm.AnswerGenerationError
	var retErr *retrieval.RetrievalError
	if errors.As(err, &embErr) || errors.As(err, &genErr) || errors.As(err, &retErr) {
		return http.StatusBadGateway, NewErrorResponse(api.ErrorKindUpstream, "upstream dependency failed", false)
	}

	return http.StatusInternalServerError, NewErrorResponse(api.ErrorKindInternal, "Internal Server Error", false)
}
