package rag_test

import (
	"context"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
)

// Function-field mocks: each test wires only the calls it cares about and a
// nil field means the test never expects that call.

type MockIndex struct {
	InsertFunc           func(ctx context.Context, entries []vectorindex.Entry, vectors [][]float32) error
	SearchFunc           func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error)
	DeleteByDocumentFunc func(ctx context.Context, documentId string) (int, error)
	SizeFunc             func(ctx context.Context) (int, error)
	PersistFunc          func(ctx context.Context) error
	LoadFunc             func(ctx context.Context) (int, error)
}

func (m *MockIndex) Insert(ctx context.Context, entries []vectorindex.Entry, vectors [][]float32) error {
	return m.InsertFunc(ctx, entries, vectors)
}

func (m *MockIndex) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
	return m.SearchFunc(ctx, vector, k, minScore)
}

func (m *MockIndex) DeleteByDocument(ctx context.Context, documentId string) (int, error) {
	if m.DeleteByDocumentFunc == nil {
		return 0, nil
	}
	return m.DeleteByDocumentFunc(ctx, documentId)
}

func (m *MockIndex) Size(ctx context.Context) (int, error) {
	if m.SizeFunc == nil {
		return 0, nil
	}
	return m.SizeFunc(ctx)
}

func (m *MockIndex) Persist(ctx context.Context) error {
	if m.PersistFunc == nil {
		return nil
	}
	return m.PersistFunc(ctx)
}

func (m *MockIndex) Load(ctx context.Context) (int, error) {
	if m.LoadFunc == nil {
		return 0, nil
	}
	return m.LoadFunc(ctx)
}

type MockEmbedder struct {
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)
	EmbedBatchFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *MockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.EmbedQueryFunc(ctx, text)
}

func (m *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return m.EmbedBatchFunc(ctx, texts)
}

func (m *MockEmbedder) Dimension() int { return 3 }

type MockProvider struct {
	GenerateFunc func(ctx context.Context, system, user string) (string, error)
}

func (m *MockProvider) Generate(ctx context.Context, system, user string) (string, error) {
	return m.GenerateFunc(ctx, system, user)
}

func (m *MockProvider) Retryable(err error) bool { return false }

type MockDocumentStore struct {
	SaveFunc      func(ctx context.Context, doc commonModels.Document) error
	GetFunc       func(ctx context.Context, documentId string) (commonModels.Document, bool)
	SetStatusFunc func(ctx context.Context, documentId string, status commonModels.DocStatus, reason string) error
	SetReadyFunc  func(ctx context.Context, documentId string, chunkCount int, encoding string) error
	DeleteFunc    func(ctx context.Context, documentId string) bool
	CountsFunc    func(ctx context.Context) (int, int, error)
}

func (m *MockDocumentStore) Save(ctx context.Context, doc commonModels.Document) error {
	if m.SaveFunc == nil {
		return nil
	}
	return m.SaveFunc(ctx, doc)
}

func (m *MockDocumentStore) Get(ctx context.Context, documentId string) (commonModels.Document, bool) {
	return m.GetFunc(ctx, documentId)
}

func (m *MockDocumentStore) SetStatus(ctx context.Context, documentId string, status commonModels.DocStatus, reason string) error {
	if m.SetStatusFunc == nil {
		return nil
	}
	return m.SetStatusFunc(ctx, documentId, status, reason)
}

func (m *MockDocumentStore) SetReady(ctx context.Context, documentId string, chunkCount int, encoding string) error {
	if m.SetReadyFunc == nil {
		return nil
	}
	return m.SetReadyFunc(ctx, documentId, chunkCount, encoding)
}

func (m *MockDocumentStore) Delete(ctx context.Context, documentId string) bool {
	if m.DeleteFunc == nil {
		return true
	}
	return m.DeleteFunc(ctx, documentId)
}

func (m *MockDocumentStore) Counts(ctx context.Context) (int, int, error) {
	return m.CountsFunc(ctx)
}

type MockSessionStore struct {
	GetOrCreateFunc func(ctx context.Context, sessionId string) (commonModels.Session, error)
	AppendFunc      func(ctx context.Context, sessionId string, role commonModels.Role, text string) error
	HistoryFunc     func(ctx context.Context, sessionId string, limit int) ([]commonModels.Message, error)
	ExpireIdleFunc  func(ctx context.Context, olderThan time.Duration) (int, error)
}

func (m *MockSessionStore) GetOrCreate(ctx context.Context, sessionId string) (commonModels.Session, error) {
	if m.GetOrCreateFunc == nil {
		return commonModels.Session{Id: sessionId}, nil
	}
	return m.GetOrCreateFunc(ctx, sessionId)
}

func (m *MockSessionStore) Append(ctx context.Context, sessionId string, role commonModels.Role, text string) error {
	if m.AppendFunc == nil {
		return nil
	}
	return m.AppendFunc(ctx, sessionId, role, text)
}

func (m *MockSessionStore) History(ctx context.Context, sessionId string, limit int) ([]commonModels.Message, error) {
	if m.HistoryFunc == nil {
		return nil, nil
	}
	return m.HistoryFunc(ctx, sessionId, limit)
}

func (m *MockSessionStore) ExpireIdle(ctx context.Context, olderThan time.Duration) (int, error) {
	if m.ExpireIdleFunc == nil {
		return 0, nil
	}
	return m.ExpireIdleFunc(ctx, olderThan)
}
