package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

func fixed(answer string) (*[]Request, Completer) {
	var calls []Request
	return &calls, CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		calls = append(calls, req)
		return answer, nil
	})
}

func TestClient_ExtractFragments_PromptCarriesContext(t *testing.T) {
	calls, c := fixed(`{"fragments": [{"type": "valor", "content": "values honesty", "quote": "honesty matters", "emotional_weight": 0.6}]}`)
	client := NewLLMClient(c)

	res, err := client.ExtractFragments(context.Background(), domain.Conversation{
		UserInput:       "honesty matters to me but I lied again",
		AIResponse:      "tell me more",
		TensionLevel:    7,
		AffectiveCharge: 60,
	})
	require.NoError(t, err)
	require.True(t, res.Ok())
	assert.Equal(t, "values honesty", res.Value[0].Content)

	require.Len(t, *calls, 1)
	prompt := (*calls)[0].Prompt
	assert.Contains(t, prompt, "honesty matters to me but I lied again")
	assert.Contains(t, prompt, "7.0/10")
	assert.Contains(t, prompt, "12 characters")
}

func TestClient_Synthesize_AcceptsLegacyKeys(t *testing.T) {
	_, c := fixed(`{"full_message": "I keep thinking about the locked door.", "symbol": "a locked door", "question": "who holds the key?", "depth_score": 0.8}`)
	client := NewLLMClient(c)

	res, err := client.Synthesize(context.Background(), domain.SynthesisRequest{UserName: "Admin", Tension: domain.Tension{ID: 3}})
	require.NoError(t, err)
	require.True(t, res.Ok())
	assert.Equal(t, "I keep thinking about the locked door.", res.Value.Message())
	assert.Equal(t, "a locked door", res.Value.Image())
	assert.Equal(t, "who holds the key?", res.Value.QuestionText())
}

func TestClient_Synthesize_MissingMessageIsParseError(t *testing.T) {
	_, c := fixed(`{"core_image": "a bridge", "depth_score": 0.4}`)
	client := NewLLMClient(c)

	res, err := client.Synthesize(context.Background(), domain.SynthesisRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionParseError, res.Kind)
}

func TestClient_ChooseResearchTopic_DeclinedIsEmpty(t *testing.T) {
	_, c := fixed(`{"should_research": false, "topic": ""}`)
	client := NewLLMClient(c)

	res, err := client.ChooseResearchTopic(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionEmpty, res.Kind)
}

func TestClient_TransportErrorIsReturned(t *testing.T) {
	boom := errors.New("connection refused")
	client := NewLLMClient(CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		return "", boom
	}))

	_, err := client.DetectTensions(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
}
