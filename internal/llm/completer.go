package llm

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("llm returned no content")

// Request is a single-turn completion request.
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer is the transport a provider implements. Client builds every
// pipeline step on top of it.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
