package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/store"
)

// IdentityConsolidationResult summarizes one consolidation run.
type IdentityConsolidationResult struct {
	ConversationsFound     int `json:"conversations_found"`
	ConversationsProcessed int `json:"conversations_processed"`
	ConversationsSkipped   int `json:"conversations_skipped"`
	Failures               int `json:"failures"`
	CoreCreated            int `json:"core_created"`
	CoreReaffirmed         int `json:"core_reaffirmed"`
	ContradictionsCreated  int `json:"contradictions_created"`
	SelvesCreated          int `json:"selves_created"`
	SelvesRevised          int `json:"selves_revised"`
	ChaptersOpened         int `json:"chapters_opened"`
	ScenesAdded            int `json:"scenes_added"`
	AgencyEvents           int `json:"agency_events"`
}

// IdentityConsolidationService reads recent admin conversations and folds what
// the agent revealed about itself into the identity tables.
type IdentityConsolidationService struct {
	cfg            config.Rumination
	conversations  domain.ConversationStore
	extractions    domain.IdentityExtractionStore
	core           domain.CoreAttributeStore
	contradictions domain.IdentityContradictionStore
	selves         domain.PossibleSelfStore
	narrative      domain.NarrativeStore
	agency         domain.AgencyStore
	llmClient      domain.LLMClient
	logger         *zap.Logger
	now            func() time.Time
}

func NewIdentityConsolidationService(
	cfg config.Rumination,
	conversations domain.ConversationStore,
	extractions domain.IdentityExtractionStore,
	core domain.CoreAttributeStore,
	contradictions domain.IdentityContradictionStore,
	selves domain.PossibleSelfStore,
	narrative domain.NarrativeStore,
	agency domain.AgencyStore,
	llmClient domain.LLMClient,
	logger *zap.Logger,
) *IdentityConsolidationService {
	return &IdentityConsolidationService{
		cfg:            cfg,
		conversations:  conversations,
		extractions:    extractions,
		core:           core,
		contradictions: contradictions,
		selves:         selves,
		narrative:      narrative,
		agency:         agency,
		llmClient:      llmClient,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdentityConsolidationService) SetClock(now func() time.Time) {
	s.now = now
}

// Run processes admin conversations from the last two consolidation
// intervals that have not been extracted yet.
func (s *IdentityConsolidationService) Run(ctx context.Context) (*IdentityConsolidationResult, error) {
	result := &IdentityConsolidationResult{}
	since := s.now().Add(-2 * hours(s.cfg.ConsolidationIntervalHours))

	convs, err := s.conversations.ListUnextracted(ctx, s.cfg.AdminUserID, s.cfg.AgentInstance, since, s.cfg.MaxConversationsPerRun)
	if err != nil {
		return nil, fmt.Errorf("list unextracted conversations: %w", err)
	}
	result.ConversationsFound = len(convs)
	if len(convs) == 0 {
		s.logger.Info("no new conversations for identity consolidation")
		return result, nil
	}

	for _, conv := range convs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		claimed, err := s.extractions.Claim(ctx, conv.ID, s.cfg.AgentInstance, s.now())
		if err != nil {
			s.logger.Error("failed to claim conversation", zap.Int64("conversation_id", conv.ID), zap.Error(err))
			result.Failures++
			continue
		}
		if !claimed {
			result.ConversationsSkipped++
			continue
		}
		s.processConversation(ctx, conv, result)
	}

	s.logger.Info("identity consolidation complete",
		zap.Int("found", result.ConversationsFound),
		zap.Int("processed", result.ConversationsProcessed),
		zap.Int("failures", result.Failures),
		zap.Int("core_created", result.CoreCreated),
		zap.Int("contradictions", result.ContradictionsCreated))
	return result, nil
}

func (s *IdentityConsolidationService) processConversation(ctx context.Context, conv domain.Conversation, result *IdentityConsolidationResult) {
	start := time.Now()
	rec := &domain.IdentityExtractionRecord{
		ConversationID: conv.ID,
		AgentInstance:  s.cfg.AgentInstance,
	}
	defer func() {
		rec.ProcessingTimeMs = time.Since(start).Milliseconds()
		rec.ExtractedAt = s.now()
		if err := s.extractions.Complete(ctx, rec); err != nil {
			s.logger.Warn("failed to complete extraction record", zap.Int64("conversation_id", conv.ID), zap.Error(err))
		}
	}()

	extraction, err := s.llmClient.ExtractIdentity(ctx, conv)
	if err != nil {
		s.logger.Warn("identity extraction failed", zap.Int64("conversation_id", conv.ID), zap.Error(err))
		rec.Error = err.Error()
		result.Failures++
		return
	}
	switch extraction.Kind {
	case domain.ExtractionParseError:
		s.logger.Warn("identity extraction unparsable", zap.Int64("conversation_id", conv.ID), zap.Error(extraction.Err))
		rec.Error = extraction.String()
		result.Failures++
		return
	case domain.ExtractionEmpty:
		result.ConversationsProcessed++
		return
	}

	rec.ElementsCount = extraction.Value.Elements()
	if err := s.store(ctx, conv, extraction.Value, result); err != nil {
		s.logger.Error("failed to store identity elements", zap.Int64("conversation_id", conv.ID), zap.Error(err))
		rec.Error = err.Error()
		result.Failures++
		return
	}
	result.ConversationsProcessed++
}

func (s *IdentityConsolidationService) store(ctx context.Context, conv domain.Conversation, ex domain.IdentityExtraction, result *IdentityConsolidationResult) error {
	now := s.now()
	agent := s.cfg.AgentInstance

	for _, n := range ex.Nuclear {
		if n.Certainty < s.cfg.MinCertaintyForNuclear || strings.TrimSpace(n.Content) == "" {
			continue
		}
		existing, err := s.core.FindCurrentByContent(ctx, agent, n.Content)
		switch {
		case err == nil:
			if err := s.core.Reaffirm(ctx, existing.ID, conv.ID, now); err != nil {
				return fmt.Errorf("reaffirm core attribute: %w", err)
			}
			result.CoreReaffirmed++
			continue
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("find core attribute: %w", err)
		}

		attrType := domain.AttributeType(n.Type)
		if !domain.ValidAttributeType(n.Type) {
			attrType = domain.AttributeTrait
		}
		relation := n.Context
		if relation == "" {
			relation = "admin"
		}
		err = s.core.Create(ctx, &domain.CoreAttribute{
			AgentInstance:             agent,
			AttributeType:             attrType,
			Content:                   n.Content,
			Certainty:                 n.Certainty,
			FirstCrystallizedAt:       now,
			LastReaffirmedAt:          now,
			SupportingConversationIDs: []int64{conv.ID},
			EmergedInRelationTo:       relation,
		})
		if err != nil && !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("create core attribute: %w", err)
		}
		if err == nil {
			result.CoreCreated++
		}
	}

	for _, c := range ex.Contradictions {
		if c.TensionLevel < s.cfg.MinTensionForContradiction {
			continue
		}
		err := s.contradictions.Create(ctx, &domain.Contradiction{
			AgentInstance:             agent,
			PoleA:                     c.PoleA,
			PoleB:                     c.PoleB,
			ContradictionType:         c.Type,
			TensionLevel:              c.TensionLevel,
			Salience:                  c.TensionLevel,
			Status:                    domain.ContradictionUnresolved,
			Origin:                    "conversation",
			FirstDetectedAt:           now,
			LastActivatedAt:           now,
			SupportingConversationIDs: []int64{conv.ID},
		})
		if err != nil {
			return fmt.Errorf("create contradiction: %w", err)
		}
		result.ContradictionsCreated++
	}

	for _, p := range ex.PossibleSelves {
		if p.Vividness < s.cfg.MinVividnessForPossibleSelf || !domain.ValidSelfType(p.SelfType) {
			continue
		}
		existing, err := s.selves.FindActiveByDescription(ctx, agent, p.Description)
		switch {
		case err == nil:
			if p.Vividness > existing.Vividness {
				if err := s.selves.UpdateVividness(ctx, existing.ID, p.Vividness, now); err != nil {
					return fmt.Errorf("update possible self: %w", err)
				}
				result.SelvesRevised++
			}
			continue
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("find possible self: %w", err)
		}

		selfType := domain.SelfType(p.SelfType)
		if err := s.selves.Create(ctx, &domain.PossibleSelf{
			AgentInstance:      agent,
			SelfType:           selfType,
			Description:        p.Description,
			Vividness:          p.Vividness,
			Likelihood:         0.5,
			MotivationalImpact: selfType.MotivationalImpact(),
			Status:             "active",
			FirstImaginedAt:    now,
		}); err != nil {
			return fmt.Errorf("create possible self: %w", err)
		}
		result.SelvesCreated++
	}

	for _, n := range ex.Narrative {
		if err := s.applyNarrative(ctx, n.ChapterHint, n.Theme, n.KeyScene, now, result); err != nil {
			return err
		}
	}

	for _, a := range ex.Agency {
		if strings.TrimSpace(a.Event) == "" {
			continue
		}
		if err := s.agency.Create(ctx, &domain.AgencyEvent{
			AgentInstance:    agent,
			EventDescription: a.Event,
			ConversationID:   conv.ID,
			EventDate:        now,
			AgencyType:       a.AgencyType,
			Locus:            a.Locus,
			Responsibility:   a.Responsibility,
			ImpactOnIdentity: a.Impact,
		}); err != nil {
			return fmt.Errorf("create agency event: %w", err)
		}
		result.AgencyEvents++
	}
	return nil
}

// applyNarrative extends the current chapter when the theme matches and
// otherwise opens a new chapter, closing the current one.
func (s *IdentityConsolidationService) applyNarrative(ctx context.Context, hint, theme, scene string, now time.Time, result *IdentityConsolidationResult) error {
	if strings.TrimSpace(hint) == "" && strings.TrimSpace(theme) == "" {
		return nil
	}

	current, err := s.narrative.Current(ctx, s.cfg.AgentInstance)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("current chapter: %w", err)
	}

	if current != nil && sameTheme(current.DominantTheme, theme) {
		if scene == "" {
			return nil
		}
		if err := s.narrative.AppendKeyScene(ctx, current.ID, scene); err != nil {
			return fmt.Errorf("append key scene: %w", err)
		}
		result.ScenesAdded++
		return nil
	}

	name := hint
	if name == "" {
		name = theme
	}
	chapter := &domain.NarrativeChapter{
		AgentInstance: s.cfg.AgentInstance,
		ChapterName:   name,
		PeriodStart:   now,
		DominantTheme: theme,
		AgencyLevel:   0.5,
	}
	if scene != "" {
		chapter.KeyScenes = []string{scene}
	}
	if err := s.narrative.Open(ctx, chapter); err != nil {
		return fmt.Errorf("open chapter: %w", err)
	}
	result.ChaptersOpened++
	return nil
}

func sameTheme(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
