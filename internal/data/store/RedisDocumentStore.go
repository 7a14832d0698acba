package store

import (
	"context"
	"encoding/json"

	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/data/redisStore"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

const docKeyPrefix = "doc:"
const docIdSetKey = "documents"

// RedisDocumentStore keeps each document as JSON under doc:<id> and tracks
// the known ids in a set so Counts does not need a keyspace scan.
type RedisDocumentStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisDocumentStore(ctx context.Context) *RedisDocumentStore {
	rs := redisStore.GetRedisStore(ctx, config.RedisDocumentStore)
	if rs == nil {
		return nil
	}
	return &RedisDocumentStore{
		store:  rs,
		logger: logger_i.NewLogger("DocumentStore"),
	}
}

func (s *RedisDocumentStore) Save(ctx context.Context, doc commonModels.Document) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "documentId", doc.Id)
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, docKeyPrefix+doc.Id, data, config.RedisDocumentStoreTTL); err != nil {
		return err
	}
	if err := s.store.SetAdd(ctx, docIdSetKey, doc.Id); err != nil {
		return err
	}
	log.Debug("saved document to Redis")
	return nil
}

func (s *RedisDocumentStore) Get(ctx context.Context, documentId string) (commonModels.Document, bool) {
	var doc commonModels.Document
	val, err := s.store.Get(ctx, docKeyPrefix+documentId)
	if s.store.IsNil(err) || err != nil {
		return doc, false
	}
	if err := json.Unmarshal([]byte(val), &doc); err != nil {
		s.logger.Error("corrupt document record", "documentId", documentId, "error", err)
		return doc, false
	}
	return doc, true
}

func (s *RedisDocumentStore) SetStatus(ctx context.Context, documentId string, status commonModels.DocStatus, reason string) error {
	doc, found := s.Get(ctx, documentId)
	if !found {
		return jobModel.ErrDocumentNotFound
	}
	doc.Status = status
	doc.FailureReason = reason
	return s.Save(ctx, doc)
}

func (s *RedisDocumentStore) SetReady(ctx context.Context, documentId string, chunkCount int, encoding string) error {
	doc, found := s.Get(ctx, documentId)
	if !found {
		return jobModel.ErrDocumentNotFound
	}
	doc.Status = commonModels.StatusReady
	doc.FailureReason = ""
	doc.ChunkCount = chunkCount
	doc.Encoding = encoding
	return s.Save(ctx, doc)
}

func (s *RedisDocumentStore) Delete(ctx context.Context, documentId string) bool {
	_, found := s.Get(ctx, documentId)
	if err := s.store.Del(ctx, docKeyPrefix+documentId); err != nil {
		s.logger.Error("Error deleting document from Redis", "documentId", documentId, "error", err)
		return false
	}
	if err := s.store.SetRemove(ctx, docIdSetKey, documentId); err != nil {
		s.logger.Error("Error removing document id from set", "documentId", documentId, "error", err)
	}
	return found
}

// Counts walks the id set and sums chunk counts. Ids whose record expired
// are dropped from the set as a side effect.
func (s *RedisDocumentStore) Counts(ctx context.Context) (int, int, error) {
	ids, err := s.store.SetMembers(ctx, docIdSetKey)
	if err != nil {
		return 0, 0, err
	}
	documents := 0
	chunks := 0
	for _, id := range ids {
		doc, found := s.Get(ctx, id)
		if !found {
			_ = s.store.SetRemove(ctx, docIdSetKey, id)
			continue
		}
		documents++
		chunks += doc.ChunkCount
	}
	return documents, chunks, nil
}

func TestDocumentStore(store *redisStore.Store) *RedisDocumentStore {
	return &RedisDocumentStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
