package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// BridgeResult counts what each bridge direction transferred.
type BridgeResult struct {
	TensionsExported     int      `json:"tensions_exported"`
	InsightsExported     int      `json:"insights_exported"`
	InsightsDeduplicated int      `json:"insights_deduplicated"`
	SelvesCreated        int      `json:"selves_created"`
	SelvesDeduplicated   int      `json:"selves_deduplicated"`
	ContradictionsFed    int      `json:"contradictions_fed"`
	Errors               []string `json:"errors,omitempty"`
}

func (r *BridgeResult) Total() int {
	return r.TensionsExported + r.InsightsExported + r.SelvesCreated + r.ContradictionsFed
}

// IdentityBridgeService synchronizes rumination material with the agent's
// identity tables in both directions.
type IdentityBridgeService struct {
	cfg            config.Rumination
	tensions       domain.TensionStore
	insights       domain.InsightStore
	fragments      domain.FragmentStore
	contradictions domain.IdentityContradictionStore
	bridge         domain.BridgeStore
	logs           domain.RuminationLogStore
	logger         *zap.Logger
	now            func() time.Time
}

func NewIdentityBridgeService(
	cfg config.Rumination,
	tensions domain.TensionStore,
	insights domain.InsightStore,
	fragments domain.FragmentStore,
	contradictions domain.IdentityContradictionStore,
	bridge domain.BridgeStore,
	logs domain.RuminationLogStore,
	logger *zap.Logger,
) *IdentityBridgeService {
	return &IdentityBridgeService{
		cfg:            cfg,
		tensions:       tensions,
		insights:       insights,
		fragments:      fragments,
		contradictions: contradictions,
		bridge:         bridge,
		logs:           logs,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdentityBridgeService) SetClock(now func() time.Time) {
	s.now = now
}

// Sync runs the four transfers. A failing direction is logged and the
// remaining directions still run.
func (s *IdentityBridgeService) Sync(ctx context.Context) (*BridgeResult, error) {
	result := &BridgeResult{}

	steps := []struct {
		name string
		run  func(context.Context, *BridgeResult) error
	}{
		{"tensions_to_contradictions", s.exportTensions},
		{"insights_to_core", s.exportInsights},
		{"fragments_to_possible_selves", s.adoptRecurringFragments},
		{"contradictions_to_tensions", s.feedContradictions},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := step.run(ctx, result); err != nil {
			s.logger.Error("identity bridge step failed", zap.String("step", step.name), zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", step.name, err))
		}
	}

	s.logger.Info("identity bridge complete",
		zap.Int("tensions_exported", result.TensionsExported),
		zap.Int("insights_exported", result.InsightsExported),
		zap.Int("selves_created", result.SelvesCreated),
		zap.Int("contradictions_fed", result.ContradictionsFed))
	recordLog(ctx, s.logs, s.logger, domain.RuminationLog{
		UserID:    s.cfg.AdminUserID,
		Phase:     domain.PhaseBridge,
		Operation: "sync",
		OutputSummary: fmt.Sprintf("%d tensions, %d insights, %d selves, %d fed back",
			result.TensionsExported, result.InsightsExported, result.SelvesCreated, result.ContradictionsFed),
	})
	return result, nil
}

func (s *IdentityBridgeService) exportTensions(ctx context.Context, result *BridgeResult) error {
	tensions, err := s.tensions.ListExportable(ctx, s.cfg.AdminUserID, s.cfg.MinMaturityForExport)
	if err != nil {
		return err
	}
	for _, t := range tensions {
		c := &domain.Contradiction{
			AgentInstance:     s.cfg.AgentInstance,
			PoleA:             t.PoleA.Content,
			PoleB:             t.PoleB.Content,
			ContradictionType: string(t.TensionType),
			TensionLevel:      t.Intensity,
			Salience:          t.MaturityScore,
			Status:            domain.ContradictionUnresolved,
			Origin:            "rumination",
			FirstDetectedAt:   s.now(),
			LastActivatedAt:   s.now(),
		}
		outcome, err := s.bridge.ExportTension(ctx, t.ID, c)
		if err != nil {
			s.logger.Warn("failed to export tension", zap.Int64("tension_id", t.ID), zap.Error(err))
			continue
		}
		if outcome == domain.ClaimInserted {
			result.TensionsExported++
			s.logger.Debug("tension exported", zap.Int64("tension_id", t.ID), zap.Int64("contradiction_id", c.ID))
		}
	}
	return nil
}

func (s *IdentityBridgeService) exportInsights(ctx context.Context, result *BridgeResult) error {
	insights, err := s.insights.ListExportable(ctx, s.cfg.AdminUserID)
	if err != nil {
		return err
	}
	for _, in := range insights {
		a := &domain.CoreAttribute{
			AgentInstance:             s.cfg.AgentInstance,
			AttributeType:             ClassifyAttribute(in.InsightContent, in.SymbolicInterpretation),
			Content:                   in.InsightContent,
			Certainty:                 s.cfg.SymbolicInsightCertainty,
			FirstCrystallizedAt:       s.now(),
			SupportingConversationIDs: []int64{},
			EmergedInRelationTo:       "rumination",
		}
		outcome, err := s.bridge.ExportInsight(ctx, in.ID, a)
		if err != nil {
			s.logger.Warn("failed to export insight", zap.Int64("insight_id", in.ID), zap.Error(err))
			continue
		}
		switch outcome {
		case domain.ClaimInserted:
			result.InsightsExported++
		case domain.ClaimDeduplicated:
			result.InsightsDeduplicated++
		}
	}
	return nil
}

func (s *IdentityBridgeService) adoptRecurringFragments(ctx context.Context, result *BridgeResult) error {
	recurring, err := s.fragments.ListRecurring(ctx, s.cfg.AdminUserID, s.cfg.MinRecurrenceForSelf, s.cfg.MinChargeForSelf)
	if err != nil {
		return err
	}
	for _, r := range recurring {
		selfType := domain.SelfLost
		if r.AvgWeight > s.cfg.FearedSelfCharge {
			selfType = domain.SelfFeared
		}
		p := &domain.PossibleSelf{
			AgentInstance:      s.cfg.AgentInstance,
			SelfType:           selfType,
			Description:        r.Content,
			Vividness:          math.Min(0.9, 0.5+0.1*float64(r.Occurrences)),
			Likelihood:         r.AvgWeight,
			MotivationalImpact: "avoidance",
			EmotionalValence:   "negative",
			Status:             "active",
			FirstImaginedAt:    s.now(),
		}
		outcome, err := s.bridge.AdoptPossibleSelf(ctx, p)
		if err != nil {
			s.logger.Warn("failed to adopt possible self", zap.String("description", summarize(r.Content)), zap.Error(err))
			continue
		}
		switch outcome {
		case domain.ClaimInserted:
			result.SelvesCreated++
		case domain.ClaimDeduplicated:
			result.SelvesDeduplicated++
		}
	}
	return nil
}

func (s *IdentityBridgeService) feedContradictions(ctx context.Context, result *BridgeResult) error {
	since := s.now().Add(-time.Duration(s.cfg.FeedbackActivityWindowDays) * 24 * time.Hour)
	candidates, err := s.contradictions.ListFeedbackCandidates(ctx, s.cfg.AgentInstance, s.cfg.MinTensionForFeedback, since)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		now := s.now()
		t := &domain.Tension{
			UserID:          s.cfg.AdminUserID,
			TensionType:     domain.IdentityTensionType(c.ContradictionType),
			PoleA:           domain.Pole{Content: c.PoleA},
			PoleB:           domain.Pole{Content: c.PoleB},
			Description:     fmt.Sprintf("Identity contradiction: %s vs %s", c.PoleA, c.PoleB),
			Intensity:       c.TensionLevel,
			Status:          domain.TensionActive,
			EvidenceCount:   1,
			FirstDetectedAt: now,
			LastEvidenceAt:  &now,
		}
		outcome, err := s.bridge.FeedContradiction(ctx, c.ID, t)
		if err != nil {
			s.logger.Warn("failed to feed contradiction", zap.Int64("contradiction_id", c.ID), zap.Error(err))
			continue
		}
		if outcome == domain.ClaimInserted {
			result.ContradictionsFed++
		}
	}
	return nil
}

var attributeKeywords = []struct {
	attr  domain.AttributeType
	words []string
}{
	{domain.AttributeContinuity, []string{"always", "consistently", "since", "sempre", "consistentemente", "desde"}},
	{domain.AttributeBoundary, []string{"i am not", "i don't", "i avoid", "não sou", "não faço", "evito"}},
	{domain.AttributeValue, []string{"i value", "i prioritize", "matters", "valorizo", "priorizo", "importa"}},
	{domain.AttributeRole, []string{"role", "function", "as a", "papel", "função", "como"}},
}

// ClassifyAttribute picks a core attribute type from keywords in the symbolic
// interpretation, or in the content when there is none.
func ClassifyAttribute(content, symbolic string) domain.AttributeType {
	text := symbolic
	if strings.TrimSpace(text) == "" {
		text = content
	}
	text = strings.ToLower(text)
	for _, k := range attributeKeywords {
		for _, w := range k.words {
			if strings.Contains(text, w) {
				return k.attr
			}
		}
	}
	return domain.AttributeTrait
}
