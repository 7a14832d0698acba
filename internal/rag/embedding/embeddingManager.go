package embedding

import (
	"context"
	"errors"
	"fmt"
)

// Embedder is the contract the core consumes. Implementations return one
// vector per input, in input order, or fail the whole batch.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Remote is the raw provider capability the Gateway wraps.
type Remote interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Retryable(err error) bool
}

// EmbeddingError wraps an upstream embedding failure. Transient failures are
// worth retrying at a higher level; terminal ones (auth, malformed request,
// wrong vector shape) are not.
type EmbeddingError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s failed: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// IsTransient reports whether err is an EmbeddingError marked retryable.
func IsTransient(err error) bool {
	var ee *EmbeddingError
	return errors.As(err, &ee) && ee.Transient
}
