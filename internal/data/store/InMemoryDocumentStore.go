package store

import (
	"context"
	"sync"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var inMemLogger = logger_i.NewLogger("InMem DocumentStore")

type InMemoryDocumentStore struct {
	docMutex *sync.RWMutex
	docMap   map[string]commonModels.Document
}

func InitInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		docMutex: new(sync.RWMutex),
		docMap:   make(map[string]commonModels.Document),
	}
}

func (store *InMemoryDocumentStore) Save(ctx context.Context, doc commonModels.Document) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()
	store.docMap[doc.Id] = doc
	inMemLogger.Debug("saved document", "documentId", doc.Id)
	return nil
}

func (store *InMemoryDocumentStore) Get(ctx context.Context, documentId string) (commonModels.Document, bool) {
	store.docMutex.RLock()
	defer store.docMutex.RUnlock()
	result, found := store.docMap[documentId]
	return result, found
}

func (store *InMemoryDocumentStore) SetStatus(ctx context.Context, documentId string, status commonModels.DocStatus, reason string) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()
	doc, found := store.docMap[documentId]
	if !found {
		return jobModel.ErrDocumentNotFound
	}
	doc.Status = status
	doc.FailureReason = reason
	store.docMap[documentId] = doc
	return nil
}

func (store *InMemoryDocumentStore) SetReady(ctx context.Context, documentId string, chunkCount int, encoding string) error {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()
	doc, found := store.docMap[documentId]
	if !found {
		return jobModel.ErrDocumentNotFound
	}
	doc.Status = commonModels.StatusReady
	doc.FailureReason = ""
	doc.ChunkCount = chunkCount
	doc.Encoding = encoding
	store.docMap[documentId] = doc
	return nil
}

func (store *InMemoryDocumentStore) Delete(ctx context.Context, documentId string) bool {
	store.docMutex.Lock()
	defer store.docMutex.Unlock()
	_, found := store.docMap[documentId]
	delete(store.docMap, documentId)
	return found
}

func (store *InMemoryDocumentStore) Counts(ctx context.Context) (int, int, error) {
	store.docMutex.RLock()
	defer store.docMutex.RUnlock()
	chunks := 0
	for _, doc := range store.docMap {
		chunks += doc.ChunkCount
	}
	return len(store.docMap), chunks, nil
}
