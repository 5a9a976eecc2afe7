package llm

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Set the response fields to control what each method returns.
type MockClient struct {
	mu sync.Mutex

	ExtractFragmentsResponse    domain.ExtractionResult[[]domain.FragmentCandidate]
	ExtractFragmentsError       error
	DetectTensionsResponse      domain.ExtractionResult[[]domain.TensionCandidate]
	DetectTensionsError         error
	SynthesizeResponse          domain.ExtractionResult[domain.Synthesis]
	SynthesizeError             error
	ValidateNoveltyResponse     domain.ExtractionResult[domain.Novelty]
	ValidateNoveltyError        error
	ExtractIdentityResponse     domain.ExtractionResult[domain.IdentityExtraction]
	ExtractIdentityError        error
	GenerateDreamResponse       domain.ExtractionResult[domain.DreamDraft]
	GenerateDreamError          error
	InterpretDreamResponse      domain.ExtractionResult[string]
	InterpretDreamError         error
	ChooseResearchTopicResponse domain.ExtractionResult[domain.ResearchTopic]
	ChooseResearchTopicError    error
	WriteArticleResponse        domain.ExtractionResult[string]
	WriteArticleError           error

	// Call tracking for assertions
	ExtractFragmentsCalls    []domain.Conversation
	DetectTensionsCalls      []struct{ Recent, Historical []domain.Fragment }
	SynthesizeCalls          []domain.SynthesisRequest
	ValidateNoveltyCalls     []string
	ExtractIdentityCalls     []domain.Conversation
	GenerateDreamCalls       []string
	InterpretDreamCalls      []string
	ChooseResearchTopicCalls int
	WriteArticleCalls        []string
}

// NewMockClient answers every step with Empty.
func NewMockClient() *MockClient {
	return &MockClient{
		ExtractFragmentsResponse:    domain.EmptyExtraction[[]domain.FragmentCandidate](),
		DetectTensionsResponse:      domain.EmptyExtraction[[]domain.TensionCandidate](),
		SynthesizeResponse:          domain.EmptyExtraction[domain.Synthesis](),
		ValidateNoveltyResponse:     domain.Extracted(domain.Novelty{IsNovel: true, NoveltyScore: 0.9}),
		ExtractIdentityResponse:     domain.EmptyExtraction[domain.IdentityExtraction](),
		GenerateDreamResponse:       domain.EmptyExtraction[domain.DreamDraft](),
		InterpretDreamResponse:      domain.EmptyExtraction[string](),
		ChooseResearchTopicResponse: domain.EmptyExtraction[domain.ResearchTopic](),
		WriteArticleResponse:        domain.EmptyExtraction[string](),
	}
}

func (c *MockClient) ExtractFragments(ctx context.Context, conv domain.Conversation) (domain.ExtractionResult[[]domain.FragmentCandidate], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ExtractFragmentsCalls = append(c.ExtractFragmentsCalls, conv)
	return c.ExtractFragmentsResponse, c.ExtractFragmentsError
}

func (c *MockClient) DetectTensions(ctx context.Context, recent, historical []domain.Fragment) (domain.ExtractionResult[[]domain.TensionCandidate], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DetectTensionsCalls = append(c.DetectTensionsCalls, struct{ Recent, Historical []domain.Fragment }{recent, historical})
	return c.DetectTensionsResponse, c.DetectTensionsError
}

func (c *MockClient) Synthesize(ctx context.Context, req domain.SynthesisRequest) (domain.ExtractionResult[domain.Synthesis], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SynthesizeCalls = append(c.SynthesizeCalls, req)
	return c.SynthesizeResponse, c.SynthesizeError
}

func (c *MockClient) ValidateNovelty(ctx context.Context, candidate string, previous []domain.Insight) (domain.ExtractionResult[domain.Novelty], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ValidateNoveltyCalls = append(c.ValidateNoveltyCalls, candidate)
	return c.ValidateNoveltyResponse, c.ValidateNoveltyError
}

func (c *MockClient) ExtractIdentity(ctx context.Context, conv domain.Conversation) (domain.ExtractionResult[domain.IdentityExtraction], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ExtractIdentityCalls = append(c.ExtractIdentityCalls, conv)
	return c.ExtractIdentityResponse, c.ExtractIdentityError
}

func (c *MockClient) GenerateDream(ctx context.Context, identityContext string, fragments []domain.Fragment) (domain.ExtractionResult[domain.DreamDraft], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.GenerateDreamCalls = append(c.GenerateDreamCalls, identityContext)
	return c.GenerateDreamResponse, c.GenerateDreamError
}

func (c *MockClient) InterpretDream(ctx context.Context, narrative string) (domain.ExtractionResult[string], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.InterpretDreamCalls = append(c.InterpretDreamCalls, narrative)
	return c.InterpretDreamResponse, c.InterpretDreamError
}

func (c *MockClient) ChooseResearchTopic(ctx context.Context, conversations []domain.Conversation) (domain.ExtractionResult[domain.ResearchTopic], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ChooseResearchTopicCalls++
	return c.ChooseResearchTopicResponse, c.ChooseResearchTopicError
}

func (c *MockClient) WriteArticle(ctx context.Context, topic string) (domain.ExtractionResult[string], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.WriteArticleCalls = append(c.WriteArticleCalls, topic)
	return c.WriteArticleResponse, c.WriteArticleError
}

var _ domain.LLMClient = (*MockClient)(nil)
var _ domain.LLMClient = (*Client)(nil)
