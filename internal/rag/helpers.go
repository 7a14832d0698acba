package rag

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/internal/metrics"
	"github.com/rahulsamant37/rag-foundation/internal/rag/chunker"
	"github.com/rahulsamant37/rag-foundation/internal/rag/extract"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

// executeExtractionStep pulls the text out of the uploaded file and cuts it
// into chunks. Offsets are global across pages: page two starts where page
// one ended in the concatenated stream.
func (s *service) executeExtractionStep(ctx context.Context, job jobModel.Job) ([]commonModels.DocChunk, string, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("text_extraction", time.Since(start)) }()

	result, err := extract.Extract(job.FilePath, job.Format)
	if err != nil {
		return nil, "", err
	}

	var chunks []commonModels.DocChunk
	offsetBase := 0
	seq := 0
	for _, page := range result.Pages {
		windows, err := chunker.Split(page.Content, config.ChunkSize, config.ChunkOverlap)
		if err != nil {
			return nil, "", err
		}
		for _, w := range windows {
			chunks = append(chunks, commonModels.DocChunk{
				DocumentId:  job.DocumentId,
				ChunkId:     uuid.NewString(),
				Seq:         seq,
				Text:        w.Text,
				StartOffset: offsetBase + w.Start,
				EndOffset:   offsetBase + w.End,
				PageNum:     page.Number,
				Overlap:     config.ChunkOverlap,
			})
			seq++
		}
		if len(windows) > 0 {
			offsetBase += windows[len(windows)-1].End
		}
	}
	return chunks, result.Encoding, nil
}

func (s *service) executeEmbeddingStep(ctx context.Context, chunks []commonModels.DocChunk) ([][]float32, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return s.embedder.EmbedBatch(ctx, texts)
}

// executeIndexStep replaces the document's vectors: the old ones go first so
// a re-ingest never leaves stale chunks searchable.
func (s *service) executeIndexStep(ctx context.Context, documentId string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_insert", time.Since(start)) }()

	if _, err := s.index.DeleteByDocument(ctx, documentId); err != nil {
		return err
	}

	entries := make([]vectorindex.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = vectorindex.Entry{
			DocumentId:  c.DocumentId,
			ChunkId:     c.ChunkId,
			Seq:         c.Seq,
			PageNum:     c.PageNum,
			Text:        c.Text,
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
		}
	}
	return s.index.Insert(ctx, entries, vectors)
}

func (s *service) executeRetrievalStep(ctx context.Context, question string, history []commonModels.Message, k int) ([]commonModels.SearchResult, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.retriever.Retrieve(ctx, question, history, k, config.SimilarityThreshold)
}

func (s *service) executeSynthesisStep(ctx context.Context, question, contextBlock string, history []commonModels.Message, citations []commonModels.Citation, results []commonModels.SearchResult) (llm.Answer, error) {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.synth.Synthesize(ctx, question, contextBlock, history, citations, results)
}

func (s *service) failIngest(ctx context.Context, job jobModel.Job, cause error, log *logger_i.Logger) error {
	log.Error("INGESTION_FAILURE", "error", cause)
	s.cleanupUpload(job.FilePath, log)
	if err := s.documents.SetStatus(ctx, job.DocumentId, commonModels.StatusFailed, cause.Error()); err != nil {
		log.Error("failed recording ingestion failure", "error", err)
	}
	return cause
}

func (s *service) cleanupUpload(path string, log *logger_i.Logger) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Error("Error removing file", "path", path, "error", err)
	}
}

const noContextAnswer = "I could not find relevant information in the ingested documents to answer this question."

// noContextResult is the honest empty-handed reply; the turn is still
// recorded so the conversation keeps its shape.
func (s *service) noContextResult(ctx context.Context, sessionId, question string, log *logger_i.Logger) QueryResult {
	s.recordTurn(ctx, sessionId, question, noContextAnswer, log)
	return QueryResult{
		Answer:    noContextAnswer,
		SessionId: sessionId,
		NoContext: true,
	}
}

func (s *service) recordTurn(ctx context.Context, sessionId, question, answer string, log *logger_i.Logger) {
	if err := s.sessions.Append(ctx, sessionId, commonModels.RoleUser, question); err != nil {
		log.Error("failed appending user turn", "error", err)
		return
	}
	if err := s.sessions.Append(ctx, sessionId, commonModels.RoleAssistant, answer); err != nil {
		log.Error("failed appending assistant turn", "error", err)
	}
}
