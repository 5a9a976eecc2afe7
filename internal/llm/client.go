package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// Client implements domain.LLMClient on top of any Completer.
type Client struct {
	completer Completer
}

func NewLLMClient(c Completer) *Client {
	return &Client{completer: c}
}

type fragmentEnvelope struct {
	Fragments []domain.FragmentCandidate `json:"fragments"`
}

type tensionEnvelope struct {
	Tensions []domain.TensionCandidate `json:"tensions"`
}

func (c *Client) ExtractFragments(ctx context.Context, conv domain.Conversation) (domain.ExtractionResult[[]domain.FragmentCandidate], error) {
	prompt := fmt.Sprintf(fragmentExtractionPrompt,
		conv.UserInput,
		conv.TensionLevel,
		conv.AffectiveCharge,
		len([]rune(conv.AIResponse)),
		schemaOf[fragmentEnvelope]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 1000, Temperature: 0.3})
	if err != nil {
		return domain.ExtractionResult[[]domain.FragmentCandidate]{}, fmt.Errorf("extract fragments: %w", err)
	}
	return decodeList(raw, func(e fragmentEnvelope) []domain.FragmentCandidate { return e.Fragments }), nil
}

func (c *Client) DetectTensions(ctx context.Context, recent, historical []domain.Fragment) (domain.ExtractionResult[[]domain.TensionCandidate], error) {
	prompt := fmt.Sprintf(tensionDetectionPrompt,
		formatFragments(recent),
		formatFragments(historical),
		schemaOf[tensionEnvelope]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 1500, Temperature: 0.3})
	if err != nil {
		return domain.ExtractionResult[[]domain.TensionCandidate]{}, fmt.Errorf("detect tensions: %w", err)
	}
	return decodeList(raw, func(e tensionEnvelope) []domain.TensionCandidate { return e.Tensions }), nil
}

func (c *Client) Synthesize(ctx context.Context, req domain.SynthesisRequest) (domain.ExtractionResult[domain.Synthesis], error) {
	t := req.Tension
	prompt := fmt.Sprintf(synthesisPrompt,
		req.UserName,
		req.DaysOld,
		t.EvidenceCount,
		t.TensionType,
		t.PoleA.Content,
		t.PoleB.Content,
		t.Description,
		t.Intensity,
		t.MaturityScore,
		orNone(req.IdentityContext),
		formatConversations(req.RecentConversations, 200),
		schemaOf[synthesisAnswer]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 800, Temperature: 0.7})
	if err != nil {
		return domain.ExtractionResult[domain.Synthesis]{}, fmt.Errorf("synthesize tension %d: %w", t.ID, err)
	}

	res := decode[domain.Synthesis](raw)
	if res.Ok() && strings.TrimSpace(res.Value.Message()) == "" {
		return domain.ExtractionFailed[domain.Synthesis](raw, fmt.Errorf("synthesis has no message")), nil
	}
	return res, nil
}

// synthesisAnswer is the shape requested from the model; domain.Synthesis also
// accepts the legacy keys.
type synthesisAnswer struct {
	InternalThought  string  `json:"internal_thought"`
	CoreImage        string  `json:"core_image"`
	InternalQuestion string  `json:"internal_question"`
	DepthScore       float64 `json:"depth_score"`
}

func (c *Client) ValidateNovelty(ctx context.Context, candidate string, previous []domain.Insight) (domain.ExtractionResult[domain.Novelty], error) {
	var sb strings.Builder
	for _, p := range previous {
		sb.WriteString("- ")
		sb.WriteString(p.InsightContent)
		sb.WriteString("\n\n")
	}
	prompt := fmt.Sprintf(noveltyPrompt, candidate, sb.String(), schemaOf[domain.Novelty]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 300, Temperature: 0.3})
	if err != nil {
		return domain.ExtractionResult[domain.Novelty]{}, fmt.Errorf("validate novelty: %w", err)
	}
	return decode[domain.Novelty](raw), nil
}

func (c *Client) ExtractIdentity(ctx context.Context, conv domain.Conversation) (domain.ExtractionResult[domain.IdentityExtraction], error) {
	prompt := fmt.Sprintf(identityExtractionPrompt, conv.UserInput, conv.AIResponse, schemaOf[domain.IdentityExtraction]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 2000, Temperature: 0.3})
	if err != nil {
		return domain.ExtractionResult[domain.IdentityExtraction]{}, fmt.Errorf("extract identity: %w", err)
	}

	res := decode[domain.IdentityExtraction](raw)
	if res.Ok() && res.Value.Elements() == 0 {
		return domain.EmptyExtraction[domain.IdentityExtraction](), nil
	}
	return res, nil
}

func (c *Client) GenerateDream(ctx context.Context, identityContext string, fragments []domain.Fragment) (domain.ExtractionResult[domain.DreamDraft], error) {
	var sb strings.Builder
	sb.WriteString("=== HUMAN FRAGMENTS ===\n")
	for _, f := range fragments {
		fmt.Fprintf(&sb, "- %s (tension: %.1f, weight: %.2f)\n", f.Content, f.TensionLevel, f.EmotionalWeight)
	}
	prompt := fmt.Sprintf(dreamPrompt, orNone(identityContext), sb.String(), schemaOf[domain.DreamDraft]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 800, Temperature: 0.8})
	if err != nil {
		return domain.ExtractionResult[domain.DreamDraft]{}, fmt.Errorf("generate dream: %w", err)
	}

	res := decode[domain.DreamDraft](raw)
	if res.Ok() && strings.TrimSpace(res.Value.Narrative) == "" {
		return domain.EmptyExtraction[domain.DreamDraft](), nil
	}
	return res, nil
}

func (c *Client) InterpretDream(ctx context.Context, narrative string) (domain.ExtractionResult[string], error) {
	raw, err := c.completer.Complete(ctx, Request{
		Prompt:      fmt.Sprintf(dreamInterpretationPrompt, narrative),
		MaxTokens:   300,
		Temperature: 0.3,
	})
	if err != nil {
		return domain.ExtractionResult[string]{}, fmt.Errorf("interpret dream: %w", err)
	}
	return text(raw), nil
}

func (c *Client) ChooseResearchTopic(ctx context.Context, conversations []domain.Conversation) (domain.ExtractionResult[domain.ResearchTopic], error) {
	prompt := fmt.Sprintf(researchTopicPrompt, formatConversations(conversations, 300), schemaOf[domain.ResearchTopic]())

	raw, err := c.completer.Complete(ctx, Request{Prompt: prompt, MaxTokens: 300, Temperature: 0.5})
	if err != nil {
		return domain.ExtractionResult[domain.ResearchTopic]{}, fmt.Errorf("choose research topic: %w", err)
	}

	res := decode[domain.ResearchTopic](raw)
	if res.Ok() && (!res.Value.ShouldResearch || strings.TrimSpace(res.Value.Topic) == "") {
		return domain.EmptyExtraction[domain.ResearchTopic](), nil
	}
	return res, nil
}

func (c *Client) WriteArticle(ctx context.Context, topic string) (domain.ExtractionResult[string], error) {
	raw, err := c.completer.Complete(ctx, Request{
		Prompt:      fmt.Sprintf(articlePrompt, topic),
		MaxTokens:   1000,
		Temperature: 0.6,
	})
	if err != nil {
		return domain.ExtractionResult[string]{}, fmt.Errorf("write article: %w", err)
	}
	return text(raw), nil
}

func formatFragments(fragments []domain.Fragment) string {
	if len(fragments) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, f := range fragments {
		fmt.Fprintf(&sb, "[ID %d] %s: %s", f.ID, f.FragmentType, f.Content)
		if f.SourceQuote != "" {
			fmt.Fprintf(&sb, " (quote: %q)", f.SourceQuote)
		}
		fmt.Fprintf(&sb, " [weight %.2f]\n", f.EmotionalWeight)
	}
	return sb.String()
}

func formatConversations(convs []domain.Conversation, maxChars int) string {
	if len(convs) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, c := range convs {
		fmt.Fprintf(&sb, "User: %s...\n\n", truncate(c.UserInput, maxChars))
	}
	return sb.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
