package vectorindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
)

// NoThreshold disables score filtering on Search. Cosine scores live in
// [-1, 1], so any sentinel below that range works.
const NoThreshold float32 = -2

var ErrInvalidQuery = errors.New("invalid search query")

// DimensionMismatchError reports a vector whose width does not match the
// index. Inserting or querying with the wrong width is always a caller bug.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: want %d, got %d", e.Want, e.Got)
}

// Entry is the metadata stored alongside each vector.
type Entry struct {
	DocumentId  string
	ChunkId     string
	Seq         int
	PageNum     int
	Text        string
	StartOffset int
	EndOffset   int
}

// Index is the vector store behind retrieval. Insert is all-or-nothing per
// batch; Search returns results ordered by descending similarity with ranks
// assigned from 1.
type Index interface {
	Insert(ctx context.Context, entries []Entry, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error)
	DeleteByDocument(ctx context.Context, documentId string) (int, error)
	Size(ctx context.Context) (int, error)
	Persist(ctx context.Context) error
	Load(ctx context.Context) (int, error)
}
