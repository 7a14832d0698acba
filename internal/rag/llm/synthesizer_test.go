package llm

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/rag/backoff"
)

type mockProvider struct {
	GenerateFunc  func(ctx context.Context, system, user string) (string, error)
	RetryableFunc func(err error) bool
	calls         int
}

func (m *mockProvider) Generate(ctx context.Context, system, user string) (string, error) {
	m.calls++
	return m.GenerateFunc(ctx, system, user)
}

func (m *mockProvider) Retryable(err error) bool {
	if m.RetryableFunc == nil {
		return false
	}
	return m.RetryableFunc(err)
}

func fastPolicy() backoff.Policy {
	return backoff.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func testCitations() []commonModels.Citation {
	return []commonModels.Citation{
		{Ref: 1, DocumentId: "doc1", ChunkId: "c1", Excerpt: "first"},
		{Ref: 2, DocumentId: "doc1", ChunkId: "c2", Excerpt: "second"},
		{Ref: 3, DocumentId: "doc2", ChunkId: "c3", Excerpt: "third"},
	}
}

func TestBuildPrompt(t *testing.T) {
	history := []commonModels.Message{
		{Role: commonModels.RoleUser, Text: "hello"},
		{Role: commonModels.RoleAssistant, Text: "hi there"},
	}

	t.Run("full layout", func(t *testing.T) {
		got := BuildPrompt("what now?", "[S1] some context", history)
		want := "Conversation so far:\n" +
			"user: hello\n" +
			"assistant: hi there\n" +
			"\n" +
			"Context:\n" +
			"[S1] some context" +
			"\n\nUser Question: what now?"
		if got != want {
			t.Errorf("BuildPrompt = %q, want %q", got, want)
		}
	})

	t.Run("no history omits the conversation block", func(t *testing.T) {
		got := BuildPrompt("q", "ctx", nil)
		if strings.Contains(got, "Conversation so far") {
			t.Errorf("Empty history should omit conversation block: %q", got)
		}
		if !strings.HasPrefix(got, "Context:\n") {
			t.Errorf("Prompt should start at the context block: %q", got)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a := BuildPrompt("q", "ctx", history)
		b := BuildPrompt("q", "ctx", history)
		if a != b {
			t.Error("Same inputs produced different prompts")
		}
	})
}

func TestConfidence(t *testing.T) {
	approx := func(got, want float32) bool {
		return math.Abs(float64(got-want)) < 1e-5
	}

	t.Run("empty results score zero", func(t *testing.T) {
		if c := Confidence(nil); c != 0 {
			t.Errorf("Confidence(nil) = %f, want 0", c)
		}
	})

	t.Run("single strong match", func(t *testing.T) {
		c := Confidence([]commonModels.SearchResult{{Score: 0.9}})
		if !approx(c, 0.7*0.9+0.3*(1.0/3)) {
			t.Errorf("Confidence = %f", c)
		}
	})

	t.Run("support saturates at three results", func(t *testing.T) {
		three := Confidence([]commonModels.SearchResult{{Score: 0.8}, {Score: 0.5}, {Score: 0.4}})
		five := Confidence([]commonModels.SearchResult{{Score: 0.8}, {Score: 0.5}, {Score: 0.4}, {Score: 0.3}, {Score: 0.3}})
		if !approx(three, five) {
			t.Errorf("Support should saturate: three=%f five=%f", three, five)
		}
		if !approx(three, 0.7*0.8+0.3) {
			t.Errorf("Confidence = %f", three)
		}
	})

	t.Run("monotonic in top score", func(t *testing.T) {
		low := Confidence([]commonModels.SearchResult{{Score: 0.4}})
		high := Confidence([]commonModels.SearchResult{{Score: 0.9}})
		if low >= high {
			t.Errorf("Confidence not monotonic: %f >= %f", low, high)
		}
	})

	t.Run("clamped to one", func(t *testing.T) {
		c := Confidence([]commonModels.SearchResult{{Score: 1.5}, {Score: 1.5}, {Score: 1.5}})
		if c > 1 {
			t.Errorf("Confidence = %f, want <= 1", c)
		}
	})
}

func TestSynthesize_CitationFiltering(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		wantChunks []string
	}{
		{
			name:       "cited subset kept",
			answer:     "The policy allows refunds [S1] within 30 days [S3].",
			wantChunks: []string{"c1", "c3"},
		},
		{
			name:       "no markers keeps everything",
			answer:     "The policy allows refunds within 30 days.",
			wantChunks: []string{"c1", "c2", "c3"},
		},
		{
			name:       "unknown markers keep everything",
			answer:     "See [S9] for details.",
			wantChunks: []string{"c1", "c2", "c3"},
		},
		{
			name:       "repeated marker counted once",
			answer:     "Refunds [S2] are allowed [S2].",
			wantChunks: []string{"c2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{
				GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
					return tt.answer, nil
				},
			}
			synth := NewSynthesizer(provider, "system prompt", fastPolicy())

			answer, err := synth.Synthesize(context.Background(), "q", "[S1] a\n\n[S2] b\n\n[S3] c", nil, testCitations(), []commonModels.SearchResult{{Score: 0.8}})
			if err != nil {
				t.Fatalf("Synthesize failed: %v", err)
			}
			if len(answer.Sources) != len(tt.wantChunks) {
				t.Fatalf("Got %d sources, want %d", len(answer.Sources), len(tt.wantChunks))
			}
			for i, chunkId := range tt.wantChunks {
				if answer.Sources[i].ChunkId != chunkId {
					t.Errorf("Source %d = %s, want %s", i, answer.Sources[i].ChunkId, chunkId)
				}
			}
		})
	}
}

func TestSynthesize_RetriesTransientFailure(t *testing.T) {
	flaky := errors.New("model overloaded")
	attempts := 0
	provider := &mockProvider{
		GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
			attempts++
			if attempts < 2 {
				return "", flaky
			}
			return "recovered answer", nil
		},
		RetryableFunc: func(err error) bool { return errors.Is(err, flaky) },
	}
	synth := NewSynthesizer(provider, "system", fastPolicy())

	answer, err := synth.Synthesize(context.Background(), "q", "ctx", nil, nil, nil)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if answer.Text != "recovered answer" {
		t.Errorf("Answer = %q", answer.Text)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestSynthesize_ProviderFailure(t *testing.T) {
	t.Run("terminal error surfaces non-transient", func(t *testing.T) {
		provider := &mockProvider{
			GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
				return "", errors.New("content blocked")
			},
		}
		synth := NewSynthesizer(provider, "system", fastPolicy())

		_, err := synth.Synthesize(context.Background(), "q", "ctx", nil, nil, nil)
		var genErr *AnswerGenerationError
		if !errors.As(err, &genErr) {
			t.Fatalf("Expected AnswerGenerationError, got %v", err)
		}
		if genErr.Transient {
			t.Error("Terminal failure flagged transient")
		}
		if provider.calls != 1 {
			t.Errorf("Terminal error must not retry, got %d calls", provider.calls)
		}
	})

	t.Run("exhausted retries surface transient", func(t *testing.T) {
		provider := &mockProvider{
			GenerateFunc: func(ctx context.Context, system, user string) (string, error) {
				return "", errors.New("rate limited")
			},
			RetryableFunc: func(err error) bool { return true },
		}
		synth := NewSynthesizer(provider, "system", fastPolicy())

		_, err := synth.Synthesize(context.Background(), "q", "ctx", nil, nil, nil)
		if !IsTransient(err) {
			t.Errorf("Exhausted transient failure should report transient, got %v", err)
		}
		if provider.calls != 3 {
			t.Errorf("Expected 3 attempts, got %d", provider.calls)
		}
	})
}
