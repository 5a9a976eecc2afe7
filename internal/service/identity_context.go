package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/store"
)

const (
	contextCoreAttributes = 5
	contextContradictions = 3
	contextPossibleSelves = 3
)

// IdentityContextBuilder assembles the agent's current self-model for prompts.
type IdentityContextBuilder struct {
	agentInstance  string
	core           domain.CoreAttributeStore
	contradictions domain.IdentityContradictionStore
	narrative      domain.NarrativeStore
	selves         domain.PossibleSelfStore
	logger         *zap.Logger
}

func NewIdentityContextBuilder(
	agentInstance string,
	core domain.CoreAttributeStore,
	contradictions domain.IdentityContradictionStore,
	narrative domain.NarrativeStore,
	selves domain.PossibleSelfStore,
	logger *zap.Logger,
) *IdentityContextBuilder {
	return &IdentityContextBuilder{
		agentInstance:  agentInstance,
		core:           core,
		contradictions: contradictions,
		narrative:      narrative,
		selves:         selves,
		logger:         logger,
	}
}

func (b *IdentityContextBuilder) Build(ctx context.Context) (*domain.IdentityContext, error) {
	attrs, err := b.core.ListCurrent(ctx, b.agentInstance, contextCoreAttributes)
	if err != nil {
		return nil, fmt.Errorf("list core attributes: %w", err)
	}
	contradictions, err := b.contradictions.ListActive(ctx, b.agentInstance, contextContradictions)
	if err != nil {
		return nil, fmt.Errorf("list contradictions: %w", err)
	}
	selves, err := b.selves.ListActive(ctx, b.agentInstance, contextPossibleSelves)
	if err != nil {
		return nil, fmt.Errorf("list possible selves: %w", err)
	}
	chapter, err := b.narrative.Current(ctx, b.agentInstance)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("current chapter: %w", err)
	}

	return &domain.IdentityContext{
		CoreAttributes: attrs,
		Contradictions: contradictions,
		CurrentChapter: chapter,
		PossibleSelves: selves,
	}, nil
}

// Summary renders the identity context as prompt text. Errors degrade to an
// empty summary.
func (b *IdentityContextBuilder) Summary(ctx context.Context) string {
	ic, err := b.Build(ctx)
	if err != nil {
		b.logger.Warn("failed to build identity context", zap.Error(err))
		return ""
	}
	return FormatIdentityContext(ic)
}

func FormatIdentityContext(ic *domain.IdentityContext) string {
	if ic == nil {
		return ""
	}
	var sb strings.Builder

	if len(ic.CoreAttributes) > 0 {
		sb.WriteString("Core identity:\n")
		for _, a := range ic.CoreAttributes {
			fmt.Fprintf(&sb, "- [%s] %s (certainty %.2f)\n", a.AttributeType, a.Content, a.Certainty)
		}
	}
	if len(ic.Contradictions) > 0 {
		sb.WriteString("Active contradictions:\n")
		for _, c := range ic.Contradictions {
			fmt.Fprintf(&sb, "- %s <-> %s (tension %.2f)\n", c.PoleA, c.PoleB, c.TensionLevel)
		}
	}
	if ic.CurrentChapter != nil {
		fmt.Fprintf(&sb, "Current chapter: %s", ic.CurrentChapter.ChapterName)
		if ic.CurrentChapter.DominantTheme != "" {
			fmt.Fprintf(&sb, " (theme: %s)", ic.CurrentChapter.DominantTheme)
		}
		sb.WriteString("\n")
	}
	if len(ic.PossibleSelves) > 0 {
		sb.WriteString("Possible selves:\n")
		for _, p := range ic.PossibleSelves {
			fmt.Fprintf(&sb, "- %s: %s (vividness %.2f)\n", p.SelfType, p.Description, p.Vividness)
		}
	}
	return strings.TrimSpace(sb.String())
}
