package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/rag/embedding"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logger = logger_i.NewLogger("Retrieval")

// ErrNoRelevantContext signals that nothing in the index cleared the
// similarity threshold. Callers surface this honestly instead of letting the
// model improvise an answer.
var ErrNoRelevantContext = errors.New("no relevant context found")

type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Engine embeds a question and ranks stored chunks against it. When
// historyTurns > 0 the last turns of conversation are prepended to the query
// text before embedding, so follow-up questions like "what about its price?"
// resolve against what was just discussed.
type Engine struct {
	embedder     embedding.Embedder
	index        vectorindex.Index
	historyTurns int
}

func NewEngine(embedder embedding.Embedder, index vectorindex.Index, historyTurns int) *Engine {
	return &Engine{embedder: embedder, index: index, historyTurns: historyTurns}
}

// Retrieve returns the top-k chunks scoring at least minScore, descending.
// It returns ErrNoRelevantContext when the index has content but nothing
// clears the threshold, and also when the index is empty.
func (e *Engine) Retrieve(ctx context.Context, question string, history []commonModels.Message, k int, minScore float32) ([]commonModels.SearchResult, error) {
	query := e.augment(question, history)

	vector, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, &RetrievalError{Stage: "embed", Err: err}
	}

	results, err := e.index.Search(ctx, vector, k, minScore)
	if err != nil {
		return nil, &RetrievalError{Stage: "search", Err: err}
	}
	if len(results) == 0 {
		return nil, ErrNoRelevantContext
	}

	logger.Debug("retrieved chunks", "count", len(results), "topScore", results[0].Score)
	return results, nil
}

// augment prefixes the question with the most recent history turns, oldest
// first, so the embedded query carries the conversational referents.
func (e *Engine) augment(question string, history []commonModels.Message) string {
	if e.historyTurns <= 0 || len(history) == 0 {
		return question
	}
	turns := history
	if len(turns) > e.historyTurns {
		turns = turns[len(turns)-e.historyTurns:]
	}

	var b strings.Builder
	for _, m := range turns {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	b.WriteString(question)
	return b.String()
}
