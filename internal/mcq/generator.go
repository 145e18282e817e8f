package mcq

import (
	"context"
	"errors"
)

// ErrGeneration marks a failed completion request: the backend was
// unreachable, answered with a non-success status, or broke the stream.
var ErrGeneration = errors.New("mcq: generation failed")

// Generator produces the full completion text for a prompt.
//
// Implementations stream the answer and concatenate it; the returned string
// is the text in arrival order.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f GeneratorFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
