package llm

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/rag/backoff"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logger = logger_i.NewLogger("Synthesizer")

var sourceMarker = regexp.MustCompile(`\[S(\d+)\]`)

// Answer is a synthesized response with the citations that back it and a
// confidence derived from retrieval scores, never from the model's own
// self-assessment.
type Answer struct {
	Text       string
	Sources    []commonModels.Citation
	Confidence float32
}

// Synthesizer drives a Provider with a deterministic prompt: the same
// question, history and context always produce the same prompt text.
type Synthesizer struct {
	provider Provider
	system   string
	policy   backoff.Policy
}

func NewSynthesizer(provider Provider, system string, policy backoff.Policy) *Synthesizer {
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool { return provider.Retryable(err) }
	}
	return &Synthesizer{provider: provider, system: system, policy: policy}
}

// BuildPrompt lays out history, context and question in a fixed order. The
// context block carries [S#] markers the model is instructed to cite.
func BuildPrompt(question, contextBlock string, history []commonModels.Message) string {
	var b strings.Builder
	if len(history) > 0 {
		b.WriteString("Conversation so far:\n")
		for _, m := range history {
			b.WriteString(string(m.Role))
			b.WriteString(": ")
			b.WriteString(m.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Context:\n")
	b.WriteString(contextBlock)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(question)
	return b.String()
}

// Synthesize generates an answer grounded in the assembled context.
// Citations are trimmed to the [S#] markers the answer actually uses; an
// answer citing nothing keeps every contributing source.
func (s *Synthesizer) Synthesize(ctx context.Context, question, contextBlock string, history []commonModels.Message, citations []commonModels.Citation, results []commonModels.SearchResult) (Answer, error) {
	prompt := BuildPrompt(question, contextBlock, history)

	var text string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		text, genErr = s.provider.Generate(ctx, s.system, prompt)
		return genErr
	})
	if err != nil {
		logger.Error("generation failed", "error", err)
		return Answer{}, &AnswerGenerationError{Transient: s.provider.Retryable(err), Err: err}
	}

	return Answer{
		Text:       text,
		Sources:    citedSources(text, citations),
		Confidence: Confidence(results),
	}, nil
}

// Confidence scores an answer from its retrieval evidence: mostly the best
// match's similarity, topped up by how many supporting chunks were found.
func Confidence(results []commonModels.SearchResult) float32 {
	if len(results) == 0 {
		return 0
	}
	top := results[0].Score
	for _, r := range results[1:] {
		if r.Score > top {
			top = r.Score
		}
	}
	support := float32(len(results)) / 3
	if support > 1 {
		support = 1
	}
	c := 0.7*top + 0.3*support
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return c
}

func citedSources(text string, citations []commonModels.Citation) []commonModels.Citation {
	matches := sourceMarker.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return citations
	}
	cited := make(map[int]bool, len(matches))
	for _, m := range matches {
		ref, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		cited[ref] = true
	}

	var kept []commonModels.Citation
	for _, c := range citations {
		if cited[c.Ref] {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		// markers referenced nothing we included, keep everything
		return citations
	}
	return kept
}
