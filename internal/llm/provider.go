package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// Provider constants
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Options selects and tunes a provider.
type Options struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Retry    RetryConfig
}

// NewCompleter creates the transport for the provider name.
// Returns an error if the provider is unknown or the API key is empty.
func NewCompleter(opts Options) (Completer, error) {
	switch opts.Provider {
	case ProviderAnthropic:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicClient(opts.APIKey, opts.Model), nil

	case ProviderOpenRouter:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required for OpenRouter provider")
		}
		return NewOpenRouterClient(opts.APIKey, opts.BaseURL, opts.Model), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: anthropic, openrouter, mock)", opts.Provider)
	}
}

// NewClient creates the pipeline LLM client for the provider, with retries.
// The mock provider returns a MockClient that answers every step with Empty.
func NewClient(opts Options, logger *zap.Logger) (domain.LLMClient, error) {
	if opts.Provider == ProviderMock {
		return NewMockClient(), nil
	}
	c, err := NewCompleter(opts)
	if err != nil {
		return nil, err
	}
	return NewLLMClient(NewRetrying(c, opts.Retry, logger.Named("llm"))), nil
}
