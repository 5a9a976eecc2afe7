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

var ErrNotAdmin = errors.New("rumination is limited to the admin user")

// Skip reasons reported in phase results.
const (
	SkipNotAdmin       = "not_admin"
	SkipLowTension     = "low_tension"
	SkipTooFewFrags    = "too_few_fragments"
	SkipTensionCap     = "open_tension_limit"
	SkipLLMUnavailable = "llm_unavailable"
	SkipParseError     = "parse_error"
	SkipUserActive     = "user_active"
	SkipCooldown       = "cooldown"
	SkipWeeklyLimit    = "weekly_limit"
	SkipNoReadyInsight = "no_ready_insight"
	SkipAlreadyClaimed = "already_claimed"
)

const (
	maxUnprocessedForDetection = 10
	maxHistoricalForDetection  = 20
	maxNewEvidenceFragments    = 20
	synthesisContextConvs      = 5
	maxPreviousInsights        = 5
	defaultDepthScore          = 0.5
	defaultNoveltyScore        = 0.8
	archiveMaturityCeiling     = 0.2
)

// IngestResult reports what one conversation contributed to the fragment pool.
type IngestResult struct {
	ConversationID int64   `json:"conversation_id"`
	FragmentIDs    []int64 `json:"fragment_ids"`
	Extraction     string  `json:"extraction,omitempty"`
	Skipped        string  `json:"skipped,omitempty"`
}

type DetectionResult struct {
	FragmentsAnalyzed int     `json:"fragments_analyzed"`
	TensionIDs        []int64 `json:"tension_ids"`
	Skipped           string  `json:"skipped,omitempty"`
}

type SynthesisResult struct {
	InsightIDs []int64 `json:"insight_ids"`
	Rejected   int     `json:"rejected"`
	Failed     int     `json:"failed"`
}

type DigestResult struct {
	Detection         *DetectionResult `json:"detection,omitempty"`
	TensionsProcessed int              `json:"tensions_processed"`
	Matured           int              `json:"matured"`
	Archived          int              `json:"archived"`
	Ready             int              `json:"ready"`
	Synthesis         *SynthesisResult `json:"synthesis,omitempty"`
}

type DeliveryResult struct {
	InsightID int64  `json:"insight_id,omitempty"`
	Claimed   bool   `json:"claimed"`
	Sent      bool   `json:"sent"`
	Skipped   string `json:"skipped,omitempty"`
}

// IdentitySummarizer renders the agent's current self-model for prompts.
type IdentitySummarizer interface {
	Summary(ctx context.Context) string
}

// RuminationService moves conversation material through the
// fragment → tension → insight lifecycle for the admin user.
type RuminationService struct {
	cfg           config.Rumination
	conversations domain.ConversationStore
	fragments     domain.FragmentStore
	tensions      domain.TensionStore
	insights      domain.InsightStore
	logs          domain.RuminationLogStore
	llmClient     domain.LLMClient
	notifier      domain.Notifier
	identity      IdentitySummarizer
	logger        *zap.Logger
	now           func() time.Time
}

func NewRuminationService(
	cfg config.Rumination,
	conversations domain.ConversationStore,
	fragments domain.FragmentStore,
	tensions domain.TensionStore,
	insights domain.InsightStore,
	logs domain.RuminationLogStore,
	llmClient domain.LLMClient,
	notifier domain.Notifier,
	identity IdentitySummarizer,
	logger *zap.Logger,
) *RuminationService {
	return &RuminationService{
		cfg:           cfg,
		conversations: conversations,
		fragments:     fragments,
		tensions:      tensions,
		insights:      insights,
		logs:          logs,
		llmClient:     llmClient,
		notifier:      notifier,
		identity:      identity,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *RuminationService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *RuminationService) AdminUserID() string {
	return s.cfg.AdminUserID
}

func (s *RuminationService) isAdmin(userID string) bool {
	return userID == s.cfg.AdminUserID
}

// Ingest extracts fragments from one conversation. Model failures are logged
// and reported in the result, never returned as errors.
func (s *RuminationService) Ingest(ctx context.Context, conv domain.Conversation) (*IngestResult, error) {
	result := &IngestResult{ConversationID: conv.ID, FragmentIDs: []int64{}}

	if !s.isAdmin(conv.UserID) {
		result.Skipped = SkipNotAdmin
		return result, nil
	}
	if conv.TensionLevel < s.cfg.MinTensionLevel {
		s.logger.Debug("conversation below tension threshold",
			zap.Int64("conversation_id", conv.ID),
			zap.Float64("tension_level", conv.TensionLevel))
		result.Skipped = SkipLowTension
		return result, nil
	}

	extraction, err := s.llmClient.ExtractFragments(ctx, conv)
	if err != nil {
		s.logger.Warn("fragment extraction failed", zap.Int64("conversation_id", conv.ID), zap.Error(err))
		result.Skipped = SkipLLMUnavailable
		s.record(ctx, domain.RuminationLog{
			UserID: conv.UserID, Phase: domain.PhaseIngestion, Operation: "extract_fragments",
			InputSummary: summarize(conv.UserInput), OutputSummary: "llm error: " + err.Error(),
		})
		return result, nil
	}
	result.Extraction = extraction.Kind.String()

	switch extraction.Kind {
	case domain.ExtractionParseError:
		s.logger.Warn("fragment extraction returned malformed output",
			zap.Int64("conversation_id", conv.ID), zap.Error(extraction.Err))
	case domain.ExtractionEmpty:
		s.logger.Info("no fragments in conversation", zap.Int64("conversation_id", conv.ID))
	case domain.ExtractionSuccess:
		for _, cand := range extraction.Value {
			if len(result.FragmentIDs) >= s.cfg.MaxFragmentsPerConversation {
				break
			}
			if cand.EmotionalWeight < s.cfg.MinEmotionalWeight || strings.TrimSpace(cand.Content) == "" {
				continue
			}
			if !domain.ValidFragmentType(cand.Type) {
				s.logger.Debug("skipping fragment with unknown type", zap.String("type", cand.Type))
				continue
			}
			f := &domain.Fragment{
				UserID:               conv.UserID,
				FragmentType:         domain.FragmentType(cand.Type),
				Content:              cand.Content,
				SourceQuote:          cand.Quote,
				Context:              cand.Context,
				EmotionalWeight:      cand.EmotionalWeight,
				TensionLevel:         conv.TensionLevel,
				SourceConversationID: conv.ID,
				CreatedAt:            s.now(),
			}
			if err := s.fragments.Create(ctx, f); err != nil {
				return result, fmt.Errorf("create fragment: %w", err)
			}
			result.FragmentIDs = append(result.FragmentIDs, f.ID)
		}
		s.logger.Info("fragments ingested",
			zap.Int64("conversation_id", conv.ID),
			zap.Int("proposed", len(extraction.Value)),
			zap.Int("stored", len(result.FragmentIDs)))
	}

	s.record(ctx, domain.RuminationLog{
		UserID:              conv.UserID,
		Phase:               domain.PhaseIngestion,
		Operation:           "extract_fragments",
		InputSummary:        summarize(conv.UserInput),
		OutputSummary:       fmt.Sprintf("%s: %d fragments", extraction.Kind, len(result.FragmentIDs)),
		AffectedFragmentIDs: result.FragmentIDs,
	})
	return result, nil
}

// DetectTensions pairs unprocessed fragments into tensions.
func (s *RuminationService) DetectTensions(ctx context.Context, userID string) (*DetectionResult, error) {
	result := &DetectionResult{TensionIDs: []int64{}}
	if !s.isAdmin(userID) {
		result.Skipped = SkipNotAdmin
		return result, nil
	}

	recent, err := s.fragments.ListUnprocessed(ctx, userID, maxUnprocessedForDetection)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed fragments: %w", err)
	}
	result.FragmentsAnalyzed = len(recent)
	if len(recent) < 2 {
		result.Skipped = SkipTooFewFrags
		return result, nil
	}

	open, err := s.tensions.CountOpen(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count open tensions: %w", err)
	}
	capacity := s.cfg.MaxOpenTensionsPerUser - open
	if capacity <= 0 {
		s.logger.Info("open tension limit reached", zap.String("user_id", userID), zap.Int("open", open))
		result.Skipped = SkipTensionCap
		return result, nil
	}

	historical, err := s.fragments.ListProcessed(ctx, userID, maxHistoricalForDetection)
	if err != nil {
		return nil, fmt.Errorf("list processed fragments: %w", err)
	}

	detection, err := s.llmClient.DetectTensions(ctx, recent, historical)
	if err != nil {
		s.logger.Warn("tension detection failed", zap.String("user_id", userID), zap.Error(err))
		result.Skipped = SkipLLMUnavailable
		return result, nil
	}
	if detection.Kind == domain.ExtractionParseError {
		s.logger.Warn("tension detection returned malformed output", zap.Error(detection.Err))
		result.Skipped = SkipParseError
		return result, nil
	}

	for _, cand := range detection.Value {
		if len(result.TensionIDs) >= capacity {
			break
		}
		if !domain.ValidTensionType(cand.Type) || cand.Intensity < s.cfg.MinIntensityForTension {
			continue
		}
		t := tensionFromCandidate(userID, cand, s.now())
		if err := s.tensions.Create(ctx, t); err != nil {
			return result, fmt.Errorf("create tension: %w", err)
		}
		result.TensionIDs = append(result.TensionIDs, t.ID)
	}

	ids := make([]int64, len(recent))
	for i, f := range recent {
		ids[i] = f.ID
	}
	if err := s.fragments.MarkProcessed(ctx, ids); err != nil {
		return result, fmt.Errorf("mark fragments processed: %w", err)
	}

	s.logger.Info("tensions detected",
		zap.String("user_id", userID),
		zap.Int("fragments", len(recent)),
		zap.Int("tensions", len(result.TensionIDs)))
	s.record(ctx, domain.RuminationLog{
		UserID:              userID,
		Phase:               domain.PhaseDetection,
		Operation:           "detect_tensions",
		InputSummary:        fmt.Sprintf("%d fragments", len(recent)),
		OutputSummary:       fmt.Sprintf("%d tensions", len(result.TensionIDs)),
		AffectedFragmentIDs: ids,
		AffectedTensionIDs:  result.TensionIDs,
	})
	return result, nil
}

func tensionFromCandidate(userID string, cand domain.TensionCandidate, now time.Time) *domain.Tension {
	typeA, typeB := poleTypes(domain.TensionType(cand.Type))
	t := &domain.Tension{
		UserID:          userID,
		TensionType:     domain.TensionType(cand.Type),
		PoleA:           domain.Pole{Content: cand.PoleA.Content, Type: string(typeA), FragmentIDs: cand.PoleA.FragmentIDs},
		PoleB:           domain.Pole{Content: cand.PoleB.Content, Type: string(typeB), FragmentIDs: cand.PoleB.FragmentIDs},
		Description:     cand.Description,
		Intensity:       cand.Intensity,
		Status:          domain.TensionActive,
		FirstDetectedAt: now,
		LastEvidenceAt:  &now,
	}
	t.EvidenceCount = len(t.FragmentIDs())
	return t
}

func poleTypes(t domain.TensionType) (domain.FragmentType, domain.FragmentType) {
	switch t {
	case domain.TensionValueBehavior:
		return domain.FragmentValue, domain.FragmentBehavior
	case domain.TensionDesireFear:
		return domain.FragmentDesire, domain.FragmentFear
	}
	return "", ""
}

// Digest runs one digestion cycle: detect new tensions, revisit the tensions
// that were open before detection, then synthesize whatever is ready.
func (s *RuminationService) Digest(ctx context.Context, userID string) (*DigestResult, error) {
	if !s.isAdmin(userID) {
		return &DigestResult{}, nil
	}

	snapshot, err := s.tensions.ListByStatus(ctx, userID, domain.TensionActive, domain.TensionMaturing)
	if err != nil {
		return nil, fmt.Errorf("list open tensions: %w", err)
	}

	result := &DigestResult{}
	detection, err := s.DetectTensions(ctx, userID)
	if err != nil {
		s.logger.Error("tension detection failed", zap.String("user_id", userID), zap.Error(err))
	}
	result.Detection = detection

	weights := s.weights()
	gate := s.gate()
	var revisited []int64

	for i := range snapshot {
		t := snapshot[i]
		now := s.now()

		if n := s.countNewEvidence(ctx, t); n > 0 {
			t.EvidenceCount += n
			t.LastEvidenceAt = &now
		}

		maturity := t.Maturity(now, weights)
		days := t.DaysOld(now)

		switch {
		case gate.Allows(maturity, days, t.EvidenceCount):
			t.Status = domain.TensionReady
			result.Ready++
		// Fed-in identity tensions have no pole types, so they never gather
		// evidence; they retire on staleness alone.
		case (maturity < archiveMaturityCeiling || t.FromIdentity()) && t.DaysSinceEvidence(now) > s.cfg.DaysToArchive:
			t.Status = domain.TensionArchived
			result.Archived++
		default:
			t.Status = domain.TensionMaturing
			result.Matured++
		}

		t.MaturityScore = maturity
		t.RevisitCount++
		t.LastRevisitedAt = &now

		if err := s.tensions.UpdateDigest(ctx, &t); err != nil {
			if errors.Is(err, store.ErrConflict) {
				s.logger.Debug("tension changed during digest", zap.Int64("tension_id", t.ID))
				continue
			}
			s.logger.Error("failed to update tension", zap.Int64("tension_id", t.ID), zap.Error(err))
			continue
		}
		result.TensionsProcessed++
		revisited = append(revisited, t.ID)

		s.logger.Debug("tension revisited",
			zap.Int64("tension_id", t.ID),
			zap.Float64("maturity", maturity),
			zap.Int("days_old", days),
			zap.Int("evidence", t.EvidenceCount),
			zap.String("status", string(t.Status)))
	}

	s.logger.Info("digest complete",
		zap.String("user_id", userID),
		zap.Int("processed", result.TensionsProcessed),
		zap.Int("ready", result.Ready),
		zap.Int("archived", result.Archived))
	s.record(ctx, domain.RuminationLog{
		UserID:             userID,
		Phase:              domain.PhaseDigestion,
		Operation:          "digest",
		OutputSummary:      fmt.Sprintf("%d tensions processed, %d ready, %d archived", result.TensionsProcessed, result.Ready, result.Archived),
		AffectedTensionIDs: revisited,
	})

	synthesis, err := s.Synthesize(ctx, userID)
	if err != nil {
		s.logger.Error("synthesis failed", zap.String("user_id", userID), zap.Error(err))
	}
	result.Synthesis = synthesis
	return result, nil
}

// countNewEvidence counts fragments newer than the last revisit whose type
// matches one of the tension's poles. The pole's own fragments do not count.
func (s *RuminationService) countNewEvidence(ctx context.Context, t domain.Tension) int {
	if s.cfg.FaithfulEvidenceCount {
		return 0
	}
	types := make(map[domain.FragmentType]struct{}, 2)
	for _, pt := range []string{t.PoleA.Type, t.PoleB.Type} {
		if pt != "" {
			types[domain.FragmentType(pt)] = struct{}{}
		}
	}
	if len(types) == 0 {
		return 0
	}

	fresh, err := s.fragments.ListSince(ctx, t.UserID, t.LastTouchedAt(), maxNewEvidenceFragments)
	if err != nil {
		s.logger.Warn("failed to load new evidence", zap.Int64("tension_id", t.ID), zap.Error(err))
		return 0
	}

	own := make(map[int64]struct{})
	for _, id := range t.FragmentIDs() {
		own[id] = struct{}{}
	}
	n := 0
	for _, f := range fresh {
		if _, mine := own[f.ID]; mine {
			continue
		}
		if _, match := types[f.FragmentType]; match {
			n++
		}
	}
	return n
}

// Synthesize turns ready tensions into insights. A tension whose synthesis
// fails or is rejected as repetitive stays ready for the next cycle.
func (s *RuminationService) Synthesize(ctx context.Context, userID string) (*SynthesisResult, error) {
	result := &SynthesisResult{InsightIDs: []int64{}}
	if !s.isAdmin(userID) {
		return result, nil
	}

	ready, err := s.tensions.ListReady(ctx, userID, s.cfg.MaxSynthesesPerCycle)
	if err != nil {
		return nil, fmt.Errorf("list ready tensions: %w", err)
	}
	if len(ready) == 0 {
		s.logger.Debug("no tensions ready for synthesis", zap.String("user_id", userID))
		return result, nil
	}

	recentConvs, err := s.conversations.ListRecentByUser(ctx, userID, synthesisContextConvs)
	if err != nil {
		s.logger.Warn("failed to load recent conversations", zap.Error(err))
	}
	identity := ""
	if s.identity != nil {
		identity = s.identity.Summary(ctx)
	}

	gate := s.gate()
	for _, t := range ready {
		now := s.now()
		days := t.DaysOld(now)
		if !gate.Allows(t.MaturityScore, days, t.EvidenceCount) {
			s.logger.Info("ready tension no longer passes synthesis gate",
				zap.Int64("tension_id", t.ID),
				zap.Float64("maturity", t.MaturityScore),
				zap.Int("evidence", t.EvidenceCount))
			continue
		}

		id, outcome := s.synthesizeTension(ctx, t, days, recentConvs, identity)
		switch outcome {
		case synthesisCreated:
			result.InsightIDs = append(result.InsightIDs, id)
		case synthesisRejected:
			result.Rejected++
		case synthesisFailed:
			result.Failed++
		}
	}

	s.logger.Info("synthesis complete",
		zap.String("user_id", userID),
		zap.Int("insights", len(result.InsightIDs)),
		zap.Int("rejected", result.Rejected),
		zap.Int("failed", result.Failed))
	return result, nil
}

type synthesisOutcome int

const (
	synthesisFailed synthesisOutcome = iota
	synthesisRejected
	synthesisCreated
	synthesisRaced
)

func (s *RuminationService) synthesizeTension(ctx context.Context, t domain.Tension, days int, convs []domain.Conversation, identity string) (int64, synthesisOutcome) {
	log := s.logger.With(zap.Int64("tension_id", t.ID))

	synth, err := s.llmClient.Synthesize(ctx, domain.SynthesisRequest{
		UserName:            "Admin",
		Tension:             t,
		DaysOld:             days,
		RecentConversations: convs,
		IdentityContext:     identity,
	})
	if err != nil {
		log.Warn("synthesis call failed", zap.Error(err))
		return 0, synthesisFailed
	}
	if !synth.Ok() || strings.TrimSpace(synth.Value.Message()) == "" {
		log.Warn("synthesis returned no usable message", zap.String("result", synth.String()))
		return 0, synthesisFailed
	}

	message := synth.Value.Message()
	novel, score := s.checkNovelty(ctx, t.UserID, message)
	if !novel {
		log.Info("insight rejected as repetitive", zap.Float64("novelty", score))
		s.record(ctx, domain.RuminationLog{
			UserID: t.UserID, Phase: domain.PhaseSynthesis, Operation: "novelty_rejected",
			InputSummary: fmt.Sprintf("tension %d", t.ID), OutputSummary: fmt.Sprintf("novelty %.2f", score),
			AffectedTensionIDs: []int64{t.ID},
		})
		return 0, synthesisRejected
	}

	depth := synth.Value.DepthScore
	if depth <= 0 {
		depth = defaultDepthScore
	}
	level := domain.SynthesisReflective
	if synth.Value.Image() != "" {
		level = domain.SynthesisSymbolic
	}

	in := &domain.Insight{
		UserID:                 t.UserID,
		SourceTensionID:        t.ID,
		InsightContent:         message,
		SymbolicInterpretation: synth.Value.Image(),
		Question:               synth.Value.QuestionText(),
		SynthesisLevel:         level,
		DepthScore:             depth,
		NoveltyScore:           score,
		MaturationDays:         days,
		Status:                 domain.InsightReady,
		CrystallizedAt:         s.now(),
	}
	if err := s.insights.CreateFromTension(ctx, in); err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Info("tension already synthesized by another run")
			return 0, synthesisRaced
		}
		log.Error("failed to store insight", zap.Error(err))
		return 0, synthesisFailed
	}

	log.Info("insight crystallized",
		zap.Int64("insight_id", in.ID),
		zap.String("level", string(level)),
		zap.Float64("depth", depth))
	s.record(ctx, domain.RuminationLog{
		UserID:             t.UserID,
		Phase:              domain.PhaseSynthesis,
		Operation:          "synthesize",
		InputSummary:       fmt.Sprintf("tension %d", t.ID),
		OutputSummary:      fmt.Sprintf("insight %d", in.ID),
		AffectedTensionIDs: []int64{t.ID},
		AffectedInsightIDs: []int64{in.ID},
	})
	return in.ID, synthesisCreated
}

// checkNovelty compares a candidate against recent insights. The first insight
// is always novel, and a model failure lets the candidate through.
func (s *RuminationService) checkNovelty(ctx context.Context, userID, message string) (bool, float64) {
	since := s.now().Add(-time.Duration(s.cfg.NoveltyWindowDays) * 24 * time.Hour)
	previous, err := s.insights.ListRecent(ctx, userID, since, maxPreviousInsights)
	if err != nil {
		s.logger.Warn("failed to load previous insights", zap.Error(err))
		return true, defaultNoveltyScore
	}
	if len(previous) == 0 {
		return true, defaultNoveltyScore
	}

	verdict, err := s.llmClient.ValidateNovelty(ctx, message, previous)
	if err != nil {
		s.logger.Warn("novelty validation failed, accepting insight", zap.Error(err))
		return true, defaultNoveltyScore
	}
	if !verdict.Ok() {
		s.logger.Warn("novelty validation unparsable, accepting insight", zap.String("result", verdict.String()))
		return true, defaultNoveltyScore
	}
	return verdict.Value.NoveltyScore >= s.cfg.MinNoveltyScore, verdict.Value.NoveltyScore
}

// Deliver pushes the best ready insight to the admin when every delivery
// condition holds. The insight is claimed before sending, so concurrent
// callers deliver it at most once.
func (s *RuminationService) Deliver(ctx context.Context, userID string) (*DeliveryResult, error) {
	result := &DeliveryResult{}
	if !s.isAdmin(userID) {
		result.Skipped = SkipNotAdmin
		return result, nil
	}

	now := s.now()
	reason, err := s.deliveryBlocked(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		s.logger.Debug("delivery skipped", zap.String("reason", reason))
		result.Skipped = reason
		return result, nil
	}

	in, err := s.insights.NextReady(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("next ready insight: %w", err)
	}
	if in == nil {
		result.Skipped = SkipNoReadyInsight
		return result, nil
	}
	result.InsightID = in.ID

	claimed, err := s.insights.ClaimDelivery(ctx, in.ID, now)
	if err != nil {
		return nil, fmt.Errorf("claim insight %d: %w", in.ID, err)
	}
	if !claimed {
		result.Skipped = SkipAlreadyClaimed
		return result, nil
	}
	result.Claimed = true

	message := deliveryMessage(*in)
	output := fmt.Sprintf("insight %d delivered", in.ID)
	if err := s.notifier.SendMessage(ctx, message); err != nil {
		s.logger.Warn("insight send failed, not retrying", zap.Int64("insight_id", in.ID), zap.Error(err))
		output = fmt.Sprintf("insight %d claimed, send failed: %v", in.ID, err)
	} else {
		result.Sent = true
	}

	proactive := &domain.Conversation{
		UserID:     userID,
		UserInput:  "[RUMINATED INSIGHT - PROACTIVE]",
		AIResponse: message,
		Platform:   domain.PlatformProactiveRumination,
		SessionID:  fmt.Sprintf("rumination_%d", in.ID),
		CreatedAt:  now,
	}
	if err := s.conversations.Create(ctx, proactive); err != nil {
		s.logger.Warn("failed to save proactive conversation", zap.Int64("insight_id", in.ID), zap.Error(err))
	}

	s.logger.Info("insight delivery finished",
		zap.Int64("insight_id", in.ID),
		zap.Bool("sent", result.Sent),
		zap.Int("maturation_days", in.MaturationDays))
	s.record(ctx, domain.RuminationLog{
		UserID:             userID,
		Phase:              domain.PhaseDelivery,
		Operation:          "deliver",
		OutputSummary:      output,
		AffectedInsightIDs: []int64{in.ID},
	})
	return result, nil
}

func (s *RuminationService) deliveryBlocked(ctx context.Context, userID string, now time.Time) (string, error) {
	lastSeen, err := s.conversations.LastUserActivity(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("last user activity: %w", err)
	}
	if lastSeen != nil && now.Sub(*lastSeen) < hours(s.cfg.InactivityThresholdHours) {
		return SkipUserActive, nil
	}

	lastDelivery, err := s.insights.LastDeliveredAt(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("last delivery: %w", err)
	}
	if lastDelivery != nil && now.Sub(*lastDelivery) < hours(s.cfg.CooldownHours) {
		return SkipCooldown, nil
	}

	week, err := s.insights.CountDeliveredSince(ctx, userID, now.Add(-7*24*time.Hour))
	if err != nil {
		return "", fmt.Errorf("count weekly deliveries: %w", err)
	}
	if week >= s.cfg.MaxInsightsPerWeek {
		return SkipWeeklyLimit, nil
	}
	return "", nil
}

func deliveryMessage(in domain.Insight) string {
	var sb strings.Builder
	sb.WriteString(in.InsightContent)
	if in.Question != "" && !strings.Contains(in.InsightContent, in.Question) {
		sb.WriteString("\n\n")
		sb.WriteString(in.Question)
	}
	return sb.String()
}

// Stats summarizes the pipeline for userID.
func (s *RuminationService) Stats(ctx context.Context, userID string) (*domain.RuminationStats, error) {
	if !s.isAdmin(userID) {
		return nil, ErrNotAdmin
	}
	total, unprocessed, err := s.fragments.Count(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count fragments: %w", err)
	}
	tensions, err := s.tensions.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count tensions: %w", err)
	}
	insights, err := s.insights.CountByStatus(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count insights: %w", err)
	}
	last, err := s.insights.LastDeliveredAt(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("last delivery: %w", err)
	}
	return &domain.RuminationStats{
		UserID:               userID,
		FragmentsTotal:       total,
		FragmentsUnprocessed: unprocessed,
		TensionsByStatus:     tensions,
		InsightsByStatus:     insights,
		LastDeliveryAt:       last,
	}, nil
}

func (s *RuminationService) weights() domain.MaturityWeights {
	w := s.cfg.MaturityWeights
	return domain.MaturityWeights{
		Time:       w.Time,
		Evidence:   w.Evidence,
		Revisit:    w.Revisit,
		Connection: w.Connection,
		Intensity:  w.Intensity,
	}
}

func (s *RuminationService) gate() domain.SynthesisGate {
	return domain.SynthesisGate{
		MinMaturity: s.cfg.MinMaturityForSynthesis,
		MinDays:     s.cfg.MinDaysForSynthesis,
		MinEvidence: s.cfg.MinEvidenceForSynthesis,
	}
}

// record writes a diagnostic row. Failures are logged only.
func (s *RuminationService) record(ctx context.Context, l domain.RuminationLog) {
	recordLog(ctx, s.logs, s.logger, l)
}

func recordLog(ctx context.Context, logs domain.RuminationLogStore, logger *zap.Logger, l domain.RuminationLog) {
	if logs == nil {
		return
	}
	if err := logs.Create(ctx, &l); err != nil {
		logger.Warn("failed to write rumination log",
			zap.String("phase", string(l.Phase)),
			zap.String("operation", l.Operation),
			zap.Error(err))
	}
}

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}

func summarize(s string) string {
	const limit = 120
	r := []rune(strings.TrimSpace(s))
	if len(r) <= limit {
		return string(r)
	}
	return string(r[:limit]) + "..."
}
