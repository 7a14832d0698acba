package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/rag/vectorindex"
)

type mockEmbedder struct {
	EmbedQueryFunc func(ctx context.Context, text string) ([]float32, error)
}

func (m *mockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return m.EmbedQueryFunc(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := m.EmbedQueryFunc(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedder) Dimension() int { return 3 }

type mockIndex struct {
	SearchFunc func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error)
}

func (m *mockIndex) Insert(ctx context.Context, entries []vectorindex.Entry, vectors [][]float32) error {
	return nil
}

func (m *mockIndex) Search(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
	return m.SearchFunc(ctx, vector, k, minScore)
}

func (m *mockIndex) DeleteByDocument(ctx context.Context, documentId string) (int, error) {
	return 0, nil
}

func (m *mockIndex) Size(ctx context.Context) (int, error) { return 0, nil }

func (m *mockIndex) Persist(ctx context.Context) error { return nil }

func (m *mockIndex) Load(ctx context.Context) (int, error) { return 0, nil }

func passthroughEmbedder(captured *string) *mockEmbedder {
	return &mockEmbedder{
		EmbedQueryFunc: func(ctx context.Context, text string) ([]float32, error) {
			*captured = text
			return []float32{1, 0, 0}, nil
		},
	}
}

func someResults() []commonModels.SearchResult {
	return []commonModels.SearchResult{
		{DocumentId: "doc1", ChunkId: "c1", Score: 0.9, Rank: 1, Text: "relevant text"},
		{DocumentId: "doc1", ChunkId: "c2", Score: 0.6, Rank: 2, Text: "less relevant"},
	}
}

func TestRetrieve_Success(t *testing.T) {
	var embedded string
	index := &mockIndex{
		SearchFunc: func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
			if k != 5 {
				t.Errorf("Search k = %d, want 5", k)
			}
			if minScore != 0.3 {
				t.Errorf("Search minScore = %f, want 0.3", minScore)
			}
			return someResults(), nil
		},
	}
	engine := NewEngine(passthroughEmbedder(&embedded), index, 0)

	results, err := engine.Retrieve(context.Background(), "what is the refund policy?", nil, 5, 0.3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if embedded != "what is the refund policy?" {
		t.Errorf("Embedded query = %q, want the bare question", embedded)
	}
}

func TestRetrieve_HistoryAugmentation(t *testing.T) {
	history := []commonModels.Message{
		{Role: commonModels.RoleUser, Text: "tell me about the Falcon 9", At: time.Now()},
		{Role: commonModels.RoleAssistant, Text: "The Falcon 9 is a reusable rocket.", At: time.Now()},
		{Role: commonModels.RoleUser, Text: "who builds it?", At: time.Now()},
		{Role: commonModels.RoleAssistant, Text: "SpaceX builds it.", At: time.Now()},
	}

	t.Run("recent turns prefix the query oldest first", func(t *testing.T) {
		var embedded string
		index := &mockIndex{
			SearchFunc: func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
				return someResults(), nil
			},
		}
		engine := NewEngine(passthroughEmbedder(&embedded), index, 2)

		_, err := engine.Retrieve(context.Background(), "what does it cost?", history, 5, 0.3)
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}

		if !strings.HasSuffix(embedded, "what does it cost?") {
			t.Errorf("Question must come last, got %q", embedded)
		}
		if !strings.Contains(embedded, "user: who builds it?") {
			t.Errorf("Missing recent user turn in %q", embedded)
		}
		if !strings.Contains(embedded, "assistant: SpaceX builds it.") {
			t.Errorf("Missing recent assistant turn in %q", embedded)
		}
		if strings.Contains(embedded, "Falcon 9 is a reusable") {
			t.Errorf("Older turns beyond the window leaked into %q", embedded)
		}
		userPos := strings.Index(embedded, "who builds it?")
		assistantPos := strings.Index(embedded, "SpaceX builds it.")
		if userPos > assistantPos {
			t.Error("History turns are not oldest first")
		}
	})

	t.Run("zero history turns embeds the bare question", func(t *testing.T) {
		var embedded string
		index := &mockIndex{
			SearchFunc: func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
				return someResults(), nil
			},
		}
		engine := NewEngine(passthroughEmbedder(&embedded), index, 0)

		_, err := engine.Retrieve(context.Background(), "what does it cost?", history, 5, 0.3)
		if err != nil {
			t.Fatalf("Retrieve failed: %v", err)
		}
		if embedded != "what does it cost?" {
			t.Errorf("Embedded query = %q, want the bare question", embedded)
		}
	})
}

func TestRetrieve_NoRelevantContext(t *testing.T) {
	var embedded string
	index := &mockIndex{
		SearchFunc: func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
			return nil, nil
		},
	}
	engine := NewEngine(passthroughEmbedder(&embedded), index, 0)

	_, err := engine.Retrieve(context.Background(), "anything", nil, 5, 0.3)
	if !errors.Is(err, ErrNoRelevantContext) {
		t.Errorf("Expected ErrNoRelevantContext, got %v", err)
	}
}

func TestRetrieve_StageErrors(t *testing.T) {
	t.Run("embed failure", func(t *testing.T) {
		embedder := &mockEmbedder{
			EmbedQueryFunc: func(ctx context.Context, text string) ([]float32, error) {
				return nil, errors.New("provider down")
			},
		}
		engine := NewEngine(embedder, &mockIndex{}, 0)

		_, err := engine.Retrieve(context.Background(), "q", nil, 5, 0.3)
		var re *RetrievalError
		if !errors.As(err, &re) || re.Stage != "embed" {
			t.Errorf("Expected embed-stage RetrievalError, got %v", err)
		}
	})

	t.Run("search failure", func(t *testing.T) {
		var embedded string
		index := &mockIndex{
			SearchFunc: func(ctx context.Context, vector []float32, k int, minScore float32) ([]commonModels.SearchResult, error) {
				return nil, errors.New("index broken")
			},
		}
		engine := NewEngine(passthroughEmbedder(&embedded), index, 0)

		_, err := engine.Retrieve(context.Background(), "q", nil, 5, 0.3)
		var re *RetrievalError
		if !errors.As(err, &re) || re.Stage != "search" {
			t.Errorf("Expected search-stage RetrievalError, got %v", err)
		}
	})
}

func TestAssembleContext(t *testing.T) {
	results := []commonModels.SearchResult{
		{DocumentId: "doc1", ChunkId: "c1", Text: strings.Repeat("a", 50)},
		{DocumentId: "doc1", ChunkId: "c2", Text: strings.Repeat("b", 500)},
		{DocumentId: "doc2", ChunkId: "c3", Text: strings.Repeat("c", 40)},
	}

	t.Run("oversized chunk skipped not truncated", func(t *testing.T) {
		block, citations := AssembleContext(results, 120)
		if strings.Contains(block, "b") {
			t.Error("Oversized chunk should be skipped entirely")
		}
		if !strings.Contains(block, "[S1] "+strings.Repeat("a", 50)) {
			t.Error("First chunk missing")
		}
		if !strings.Contains(block, "[S2] "+strings.Repeat("c", 40)) {
			t.Error("Later smaller chunk should still be taken")
		}
		if len(citations) != 2 {
			t.Fatalf("Expected 2 citations, got %d", len(citations))
		}
		if citations[0].ChunkId != "c1" || citations[1].ChunkId != "c3" {
			t.Errorf("Citations cover wrong chunks: %+v", citations)
		}
		if citations[0].Ref != 1 || citations[1].Ref != 2 {
			t.Errorf("Citation refs not numbered in inclusion order: %+v", citations)
		}
	})

	t.Run("budget counts markers and separators", func(t *testing.T) {
		// "[S1] " + 50 a's = 55 runes; budget one short of that
		block, citations := AssembleContext(results[:1], 54)
		if block != "" || len(citations) != 0 {
			t.Errorf("Chunk over budget by its marker should be skipped, got %q", block)
		}

		block, citations = AssembleContext(results[:1], 55)
		if len(citations) != 1 {
			t.Errorf("Chunk exactly at budget should fit, got %q", block)
		}
	})

	t.Run("blocks separated by blank line", func(t *testing.T) {
		block, _ := AssembleContext([]commonModels.SearchResult{results[0], results[2]}, 1000)
		want := "[S1] " + strings.Repeat("a", 50) + "\n\n[S2] " + strings.Repeat("c", 40)
		if block != want {
			t.Errorf("Assembled block = %q, want %q", block, want)
		}
	})

	t.Run("excerpt truncated", func(t *testing.T) {
		long := []commonModels.SearchResult{{DocumentId: "doc1", ChunkId: "c1", Text: strings.Repeat("x", 300)}}
		_, citations := AssembleContext(long, 1000)
		if len(citations) != 1 {
			t.Fatalf("Expected 1 citation, got %d", len(citations))
		}
		runes := []rune(citations[0].Excerpt)
		if len(runes) != 161 || runes[160] != '…' {
			t.Errorf("Excerpt not truncated to 160 runes + ellipsis, got %d runes", len(runes))
		}
	})

	t.Run("empty results", func(t *testing.T) {
		block, citations := AssembleContext(nil, 1000)
		if block != "" || len(citations) != 0 {
			t.Errorf("Expected empty context, got %q / %v", block, citations)
		}
	})
}
