package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider turns a system instruction and user prompt into model text.
// Streaming providers re-assemble their chunks internally; callers always
// see the complete answer.
type Provider interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Retryable(err error) bool
}

// AnswerGenerationError wraps a model failure during answer synthesis.
type AnswerGenerationError struct {
	Transient bool
	Err       error
}

func (e *AnswerGenerationError) Error() string {
	return fmt.Sprintf("answer generation failed: %v", e.Err)
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }

// IsTransient reports whether err is an AnswerGenerationError marked retryable.
func IsTransient(err error) bool {
	var ae *AnswerGenerationError
	return errors.As(err, &ae) && ae.Transient
}
