package rag

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/internal/metrics"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding"
	"github.com/rahulsamant37/rag-foundation/internal/rag/llm"
	"github.com/rahulsamant37/rag-foundation/internal/rag/retrieval"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

/*
ARCHITECTURE NOTE: OPAQUE INTERFACE PATTERN
---------------------------------------------------------

1. Service (Interface):
  - This is the PUBLIC contract the workers and handlers call.
  - It defines the "behavior", not the wiring.

2. service (Private Struct):
  - This is the PRIVATE implementation.
  - It holds the state (index, stores, model clients).
  - It is lowercase so external packages cannot reach our internal
    dependencies directly.

3. Pointer Receiver (*service):
  - By defining methods on (*service), the struct IMPLICITLY satisfies
    the Service interface.

4. Dependency Injection (NewService):
  - The constructor links the private struct to the public interface,
    so tests swap real stores and model clients for mocks without
    touching the callers.
*/

// ErrIngestInFlight rejects a second ingestion of the same document while
// the first is still running.
var ErrIngestInFlight = errors.New("document ingestion already in flight")

type QueryRequest struct {
	Question      string
	SessionId     string
	K             int
	ContextBudget int
}

type QueryResult struct {
	Answer     string
	Sources    []commonModels.Citation
	Confidence float32
	SessionId  string
	NoContext  bool
}

type Stats struct {
	Documents int
	Chunks    int
	IndexSize int
}

type Service interface {
	IngestDocument(ctx context.Context, job jobModel.Job) error
	ProcessQuery(ctx context.Context, req QueryRequest) (QueryResult, error)
	DeleteDocument(ctx context.Context, documentId string) (int, error)
	Stats(ctx context.Context) (Stats, error)
	PersistIndex(ctx context.Context) error
}

type service struct {
	index     vectorindex.Index
	embedder  embedding.Embedder
	retriever *retrieval.Engine
	synth     *llm.Synthesizer
	documents jobModel.DocumentStore
	sessions  jobModel.SessionStore
	logger    *logger_i.Logger

	inFlightMu sync.Mutex
	inFlight   map[string]struct{}
}

func NewService(index vectorindex.Index, embedder embedding.Embedder, synth *llm.Synthesizer, documents jobModel.DocumentStore, sessions jobModel.SessionStore) Service {
	return &service{
		index:     index,
		embedder:  embedder,
		retriever: retrieval.NewEngine(embedder, index, config.QueryHistoryTurns),
		synth:     synth,
		documents: documents,
		sessions:  sessions,
		logger:    logger_i.NewLogger("RAG Service :"),
		inFlight:  make(map[string]struct{}),
	}
}

func (s *service) ProcessQuery(ctx context.Context, req QueryRequest) (QueryResult, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	processContext, cancel := context.WithTimeout(ctx, config.QueryTimeout)
	defer cancel()

	if req.K <= 0 {
		req.K = config.DefaultTopK
	}
	if req.ContextBudget <= 0 {
		req.ContextBudget = config.DefaultContextBudget
	}

	session, err := s.sessions.GetOrCreate(processContext, req.SessionId)
	if err != nil {
		return QueryResult{}, err
	}
	history, err := s.sessions.History(processContext, session.Id, 2*config.QueryHistoryTurns)
	if err != nil && !errors.Is(err, jobModel.ErrSessionNotFound) {
		log.Error("failed loading session history", "error", err)
		history = nil
	}

	results, err := s.executeRetrievalStep(processContext, req.Question, history, req.K)
	if errors.Is(err, retrieval.ErrNoRelevantContext) {
		return s.noContextResult(processContext, session.Id, req.Question, log), nil
	}
	if err != nil {
		return QueryResult{}, err
	}

	contextBlock, citations := retrieval.AssembleContext(results, req.ContextBudget)
	if contextBlock == "" {
		// every surviving chunk was larger than the budget
		return s.noContextResult(processContext, session.Id, req.Question, log), nil
	}

	answer, err := s.executeSynthesisStep(processContext, req.Question, contextBlock, history, citations, results)
	if err != nil {
		return QueryResult{}, err
	}

	s.recordTurn(processContext, session.Id, req.Question, answer.Text, log)
	return QueryResult{
		Answer:     answer.Text,
		Sources:    answer.Sources,
		Confidence: answer.Confidence,
		SessionId:  session.Id,
	}, nil
}

// IngestDocument runs the full pipeline for one uploaded file. At most one
// ingestion per document id runs at a time; re-ingesting a known id replaces
// its vectors. A failed document never leaves partial vectors behind.
func (s *service) IngestDocument(ctx context.Context, job jobModel.Job) error {
	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("document_ingestion", time.Since(start)) }()
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", job.DocumentId)

	if !s.tryAcquire(job.DocumentId) {
		return ErrIngestInFlight
	}
	defer s.release(job.DocumentId)

	processContext, cancel := context.WithTimeout(ctx, config.IngestTimeout)
	defer cancel()

	if err := s.documents.SetStatus(processContext, job.DocumentId, commonModels.StatusProcessing, ""); err != nil {
		return err
	}

	chunks, encoding, err := s.executeExtractionStep(processContext, job)
	if err != nil {
		return s.failIngest(processContext, job, err, log)
	}

	if len(chunks) == 0 {
		log.Warn("document has no extractable text", "file", job.FileName)
		s.cleanupUpload(job.FilePath, log)
		if _, err := s.index.DeleteByDocument(processContext, job.DocumentId); err != nil {
			return s.failIngest(processContext, job, err, log)
		}
		return s.documents.SetReady(processContext, job.DocumentId, 0, encoding)
	}

	vectors, err := s.executeEmbeddingStep(processContext, chunks)
	if err != nil {
		return s.failIngest(processContext, job, err, log)
	}

	if err := s.executeIndexStep(processContext, job.DocumentId, chunks, vectors); err != nil {
		return s.failIngest(processContext, job, err, log)
	}

	s.cleanupUpload(job.FilePath, log)
	if err := s.documents.SetReady(processContext, job.DocumentId, len(chunks), encoding); err != nil {
		return err
	}
	log.Info("document ingested", "chunks", len(chunks))
	return nil
}

// DeleteDocument removes the record and every indexed vector of the
// document. Deleting an id mid-ingestion is rejected like a duplicate
// ingest.
func (s *service) DeleteDocument(ctx context.Context, documentId string) (int, error) {
	if !s.tryAcquire(documentId) {
		return 0, ErrIngestInFlight
	}
	defer s.release(documentId)

	if _, found := s.documents.Get(ctx, documentId); !found {
		return 0, jobModel.ErrDocumentNotFound
	}
	removed, err := s.index.DeleteByDocument(ctx, documentId)
	if err != nil {
		return 0, err
	}
	s.documents.Delete(ctx, documentId)
	s.logger.Info("document deleted", "documentId", documentId, "vectorsRemoved", removed)
	return removed, nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	documents, chunks, err := s.documents.Counts(ctx)
	if err != nil {
		return Stats{}, err
	}
	size, err := s.index.Size(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Documents: documents, Chunks: chunks, IndexSize: size}, nil
}

func (s *service) PersistIndex(ctx context.Context) error {
	return s.index.Persist(ctx)
}

func (s *service) tryAcquire(documentId string) bool {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	if _, busy := s.inFlight[documentId]; busy {
		return false
	}
	s.inFlight[documentId] = struct{}{}
	return true
}

func (s *service) release(documentId string) {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	delete(s.inFlight, documentId)
}
