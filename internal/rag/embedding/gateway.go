package embedding

import (
	"context"
	"fmt"

	"github.com/rahulsamant37/rag-foundation/internal/rag/backoff"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logger = logger_i.NewLogger("Embedding")

// Gateway wraps a Remote provider with batching, retry and shape validation.
// A batch either yields one validated vector per input or fails as a whole;
// callers never see partial results.
type Gateway struct {
	remote    Remote
	dimension int
	batchSize int
	policy    backoff.Policy
}

func NewGateway(remote Remote, dimension, batchSize int, policy backoff.Policy) *Gateway {
	if batchSize < 1 {
		batchSize = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool { return remote.Retryable(err) }
	}
	return &Gateway{
		remote:    remote,
		dimension: dimension,
		batchSize: batchSize,
		policy:    policy,
	}
}

func (g *Gateway) Dimension() int { return g.dimension }

func (g *Gateway) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch splits texts into provider-sized sub-batches and embeds them
// sequentially. Each sub-batch is retried independently; the first sub-batch
// that exhausts its retries fails the whole call.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += g.batchSize {
		end := start + g.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		var vectors [][]float32
		err := g.policy.Do(ctx, func(ctx context.Context) error {
			var callErr error
			vectors, callErr = g.remote.Embed(ctx, batch)
			return callErr
		})
		if err != nil {
			logger.Error("embedding batch failed", "offset", start, "size", len(batch), "error", err)
			return nil, &EmbeddingError{Op: "embed", Transient: g.remote.Retryable(err), Err: err}
		}
		if err := g.validate(batch, vectors); err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// validate rejects responses with the wrong cardinality or vector width. A
// provider returning malformed shapes is a terminal error, not a retry case.
func (g *Gateway) validate(batch []string, vectors [][]float32) error {
	if len(vectors) != len(batch) {
		return &EmbeddingError{
			Op:  "embed",
			Err: fmt.Errorf("provider returned %d vectors for %d inputs", len(vectors), len(batch)),
		}
	}
	for i, v := range vectors {
		if len(v) != g.dimension {
			return &EmbeddingError{
				Op:  "embed",
				Err: fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), g.dimension),
			}
		}
	}
	return nil
}
