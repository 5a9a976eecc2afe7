package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Harshitk-cp/jungclaude/internal/buildconfig"
)

const openRouterModel = "x-ai/grok-4-fast"

// OpenRouterClient talks to any OpenAI-compatible chat completions endpoint.
// OpenRouter is the default, which is how the agent reaches Grok.
type OpenRouterClient struct {
	client *openai.Client
	model  string
}

func NewOpenRouterClient(apiKey, baseURL, model string) *OpenRouterClient {
	if model == "" {
		model = openRouterModel
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHeader("X-Title", "jungclaude"),
		option.WithHeader("User-Agent", buildconfig.UserAgent()),
	)
	return &OpenRouterClient{client: &client, model: model}
}

func (c *OpenRouterClient) Complete(ctx context.Context, r Request) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(r.Prompt),
		},
		MaxTokens:   openai.Int(int64(r.MaxTokens)),
		Temperature: openai.Float(r.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: ProviderOpenRouter, Code: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
