package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logger = logger_i.NewLogger("VectorIndex")

// Flat is an in-memory exact-scan index. Vectors are L2-normalised on insert
// so similarity is a plain dot product equal to cosine similarity; scores of
// 1 mean identical direction, higher is closer.
//
// A single RWMutex guards the parallel entries/vectors slices: searches take
// the read lock and run concurrently, mutations take the write lock.
type Flat struct {
	mu        sync.RWMutex
	dimension int
	dir       string
	entries   []Entry
	vectors   [][]float32
}

func NewFlat(dimension int, dir string) *Flat {
	return &Flat{dimension: dimension, dir: dir}
}

// Insert validates the whole batch before touching the index, so a bad
// vector leaves nothing behind.
func (f *Flat) Insert(ctx context.Context, entries []Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("mismatch: got %d entries but %d vectors", len(entries), len(vectors))
	}
	normalised := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != f.dimension {
			return &DimensionMismatchError{Want: f.dimension, Got: len(v)}
		}
		normalised[i] = normalise(v)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
	f.vectors = append(f.vectors, normalised...)
	return nil
}

// Search returns up to k entries scoring at least minScore, ordered by
// descending similarity. Equal scores keep insertion order. Pass NoThreshold
// to disable filtering. An empty index yields zero results, not an error.
func (f *Flat) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidQuery, k)
	}
	if len(vector) != f.dimension {
		return nil, &DimensionMismatchError{Want: f.dimension, Got: len(vector)}
	}
	query := normalise(vector)

	f.mu.RLock()
	defer f.mu.RUnlock()

	type scored struct {
		pos   int
		score float32
	}
	var hits []scored
	for i, v := range f.vectors {
		s := dot(query, v)
		if s >= minScore {
			hits = append(hits, scored{pos: i, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	results := make([]commonModels.SearchResult, 0, len(hits))
	for rank, h := range hits {
		e := f.entries[h.pos]
		results = append(results, commonModels.SearchResult{
			DocumentId: e.DocumentId,
			ChunkId:    e.ChunkId,
			Seq:        e.Seq,
			PageNum:    e.PageNum,
			Text:       e.Text,
			Score:      h.score,
			Rank:       rank + 1,
		})
	}
	return results, nil
}

// DeleteByDocument removes every vector of the document in one critical
// section; concurrent searches see either all of them or none.
func (f *Flat) DeleteByDocument(ctx context.Context, documentId string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := 0
	removed := 0
	for i := range f.entries {
		if f.entries[i].DocumentId == documentId {
			removed++
			continue
		}
		f.entries[kept] = f.entries[i]
		f.vectors[kept] = f.vectors[i]
		kept++
	}
	f.entries = f.entries[:kept]
	f.vectors = f.vectors[:kept]

	if removed > 0 {
		logger.Debug("deleted document vectors", "documentId", documentId, "removed", removed)
	}
	return removed, nil
}

func (f *Flat) Size(ctx context.Context) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries), nil
}

func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		copy(out, v)
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
