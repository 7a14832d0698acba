package qdrantindex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qdrant/go-client/qdrant"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logger *logger_i.Logger
var qdrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingDimension)

// Index stores vectors in a Qdrant collection configured for cosine
// distance, so its scores rank identically to the in-memory backend.
// Durability is Qdrant's own; Persist and Load are no-ops.
type Index struct {
	client     *qdrant.Client
	collection string
}

func GetQdrantIndex(ctx context.Context) vectorindex.Index {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient(ctx)
		if res != nil {
			qdrantInstance = res
			go closeQdrant(ctx, qdrantInstance)
		}
	})

	if qdrantInstance == nil {
		return nil
	}
	return &Index{client: qdrantInstance, collection: config.QdrantCollection}
}

func newClient(ctx context.Context) *qdrant.Client {
	host := config.Env("QDRANT_HOST", config.QdrantHost)
	port := config.EnvInt("QDRANT_PORT", config.QdrantGrpcPort)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil
	}

	if err := ensureCollection(ctx, client, config.QdrantCollection); err != nil {
		logger.Error("could not create collection: ", "collectionName", config.QdrantCollection, "error:", err)
		return nil
	}
	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
}

func ensureCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *Index) Insert(ctx context.Context, entries []vectorindex.Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("mismatch: got %d entries but %d vectors", len(entries), len(vectors))
	}
	for _, v := range vectors {
		if uint64(len(v)) != dimension {
			return &vectorindex.DimensionMismatchError{Want: int(dimension), Got: len(v)}
		}
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(e.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":      e.Text,
				"document_id":  e.DocumentId,
				"chunk_id":     e.ChunkId,
				"seq":          int64(e.Seq),
				"page_num":     int64(e.PageNum),
				"start_offset": int64(e.StartOffset),
				"end_offset":   int64(e.EndOffset),
			}),
		}
	}

	_, err := db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: db.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *Index) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k=%d", vectorindex.ErrInvalidQuery, k)
	}
	if uint64(len(vector)) != dimension {
		return nil, &vectorindex.DimensionMismatchError{Want: int(dimension), Got: len(vector)}
	}
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	query := &qdrant.QueryPoints{
		CollectionName: db.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if minScore != vectorindex.NoThreshold {
		query.ScoreThreshold = qdrant.PtrOf(minScore)
	}

	result, err := db.client.Query(ctx, query)
	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	results := make([]commonModels.SearchResult, 0, len(result))
	for rank, hit := range result {
		results = append(results, commonModels.SearchResult{
			DocumentId: hit.Payload["document_id"].GetStringValue(),
			ChunkId:    hit.Payload["chunk_id"].GetStringValue(),
			Seq:        int(hit.Payload["seq"].GetIntegerValue()),
			PageNum:    int(hit.Payload["page_num"].GetIntegerValue()),
			Text:       hit.Payload["content"].GetStringValue(),
			Score:      hit.Score,
			Rank:       rank + 1,
		})
	}
	return results, nil
}

func (db *Index) DeleteByDocument(ctx context.Context, documentId string) (int, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("document_id", documentId),
		},
	}

	count, err := db.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}

	_, err = db.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: db.collection,
		Points:         qdrant.NewPointsSelectorFilter(filter),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant delete failed: %w", err)
	}
	return int(count), nil
}

func (db *Index) Size(ctx context.Context) (int, error) {
	count, err := db.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: db.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (db *Index) Persist(ctx context.Context) error { return nil }

func (db *Index) Load(ctx context.Context) (int, error) {
	return db.Size(ctx)
}
