package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

const (
	dreamFragmentWindow   = 24 * time.Hour
	dreamFallbackFrags    = 5
	dreamWindowFragsLimit = 50
	imagePromptMaxChars   = 800
	imageBaseURL          = "https://image.pollinations.ai/prompt/"
	dreamMaterialPrefix   = "[DREAM MATERIAL] An image came to my mind: "
)

// Ingester feeds a conversation into the fragment pool.
type Ingester interface {
	Ingest(ctx context.Context, conv domain.Conversation) (*IngestResult, error)
}

type DreamResult struct {
	DreamID       int64  `json:"dream_id,omitempty"`
	SymbolicTheme string `json:"symbolic_theme,omitempty"`
	Insight       bool   `json:"insight"`
	ImageURL      string `json:"image_url,omitempty"`
	ImageSent     bool   `json:"image_sent"`
	FedBack       bool   `json:"fed_back"`
	Skipped       string `json:"skipped,omitempty"`
}

// DreamService turns recent fragments into a symbolic dream and feeds the dream
// back into rumination as synthetic material.
type DreamService struct {
	cfg           config.Rumination
	fragments     domain.FragmentStore
	dreams        domain.DreamStore
	conversations domain.ConversationStore
	ingester      Ingester
	llmClient     domain.LLMClient
	notifier      domain.Notifier
	identity      IdentitySummarizer
	logs          domain.RuminationLogStore
	shareImages   bool
	logger        *zap.Logger
	now           func() time.Time
}

func NewDreamService(
	cfg config.Rumination,
	fragments domain.FragmentStore,
	dreams domain.DreamStore,
	conversations domain.ConversationStore,
	ingester Ingester,
	llmClient domain.LLMClient,
	notifier domain.Notifier,
	identity IdentitySummarizer,
	logs domain.RuminationLogStore,
	shareImages bool,
	logger *zap.Logger,
) *DreamService {
	return &DreamService{
		cfg:           cfg,
		fragments:     fragments,
		dreams:        dreams,
		conversations: conversations,
		ingester:      ingester,
		llmClient:     llmClient,
		notifier:      notifier,
		identity:      identity,
		logs:          logs,
		shareImages:   shareImages,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *DreamService) SetClock(now func() time.Time) {
	s.now = now
}

// Generate produces one dream for userID. Only storage failures are returned.
func (s *DreamService) Generate(ctx context.Context, userID string) (*DreamResult, error) {
	result := &DreamResult{}
	if userID != s.cfg.AdminUserID {
		result.Skipped = SkipNotAdmin
		return result, nil
	}

	fragments, err := s.material(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		s.logger.Info("not enough material to dream", zap.String("user_id", userID))
		result.Skipped = SkipTooFewFrags
		return result, nil
	}

	var identity string
	if s.identity != nil {
		identity = s.identity.Summary(ctx)
	}

	draft, err := s.llmClient.GenerateDream(ctx, identity, fragments)
	if err != nil {
		s.logger.Warn("dream generation failed", zap.Error(err))
		result.Skipped = SkipLLMUnavailable
		return result, nil
	}
	if !draft.Ok() || draft.Value.Narrative == "" {
		s.logger.Warn("dream generation returned no narrative", zap.String("extraction", draft.String()))
		result.Skipped = SkipParseError
		return result, nil
	}

	dream := &domain.Dream{
		UserID:        userID,
		DreamContent:  draft.Value.Narrative,
		SymbolicTheme: draft.Value.SymbolicTheme,
		CreatedAt:     s.now(),
	}
	if err := s.dreams.Create(ctx, dream); err != nil {
		return nil, fmt.Errorf("create dream: %w", err)
	}
	result.DreamID = dream.ID
	result.SymbolicTheme = dream.SymbolicTheme
	s.logger.Info("dream generated", zap.Int64("dream_id", dream.ID), zap.String("theme", dream.SymbolicTheme))

	result.Insight = s.interpret(ctx, dream)
	result.ImageURL, result.ImageSent = s.illustrate(ctx, dream)
	result.FedBack = s.feedBack(ctx, dream)

	recordLog(ctx, s.logs, s.logger, domain.RuminationLog{
		UserID:        userID,
		Phase:         domain.PhaseDream,
		Operation:     "generate_dream",
		InputSummary:  fmt.Sprintf("%d fragments", len(fragments)),
		OutputSummary: summarize(dream.SymbolicTheme + ": " + dream.DreamContent),
	})
	return result, nil
}

// material returns the last day's fragments, or the latest few when the day was quiet.
func (s *DreamService) material(ctx context.Context, userID string) ([]domain.Fragment, error) {
	fragments, err := s.fragments.ListSince(ctx, userID, s.now().Add(-dreamFragmentWindow), dreamWindowFragsLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent fragments: %w", err)
	}
	if len(fragments) > 0 {
		return fragments, nil
	}

	fragments, err = s.fragments.ListRecent(ctx, userID, dreamFallbackFrags)
	if err != nil {
		return nil, fmt.Errorf("list fallback fragments: %w", err)
	}
	return fragments, nil
}

func (s *DreamService) interpret(ctx context.Context, dream *domain.Dream) bool {
	res, err := s.llmClient.InterpretDream(ctx, dream.DreamContent)
	if err != nil {
		s.logger.Warn("dream interpretation failed", zap.Int64("dream_id", dream.ID), zap.Error(err))
		return false
	}
	if !res.Ok() {
		return false
	}
	if err := s.dreams.UpdateInsight(ctx, dream.ID, res.Value); err != nil {
		s.logger.Error("failed to store dream insight", zap.Int64("dream_id", dream.ID), zap.Error(err))
		return false
	}
	dream.ExtractedInsight = res.Value
	return true
}

func (s *DreamService) illustrate(ctx context.Context, dream *domain.Dream) (string, bool) {
	prompt := DreamImagePrompt(dream.SymbolicTheme, dream.DreamContent)
	imageURL := DreamImageURL(prompt, dream.ID)

	if err := s.dreams.UpdateImage(ctx, dream.ID, imageURL, prompt); err != nil {
		s.logger.Error("failed to store dream image", zap.Int64("dream_id", dream.ID), zap.Error(err))
		return "", false
	}
	if !s.shareImages || s.notifier == nil {
		return imageURL, false
	}

	caption := "🌙 " + dream.SymbolicTheme
	if dream.ExtractedInsight != "" {
		caption += "\n\n" + dream.ExtractedInsight
	}
	if err := s.notifier.SendPhoto(ctx, imageURL, caption); err != nil {
		s.logger.Warn("failed to share dream image", zap.Int64("dream_id", dream.ID), zap.Error(err))
		return imageURL, false
	}
	return imageURL, true
}

// feedBack stores the dream as a synthetic conversation and ingests it.
func (s *DreamService) feedBack(ctx context.Context, dream *domain.Dream) bool {
	if s.ingester == nil {
		return false
	}
	conv := &domain.Conversation{
		UserID:          dream.UserID,
		UserInput:       dreamMaterialPrefix + dream.DreamContent,
		TensionLevel:    1.0,
		AffectiveCharge: 1.0,
		Platform:        domain.PlatformDream,
		SessionID:       fmt.Sprintf("dream_%d", dream.ID),
		CreatedAt:       s.now(),
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		s.logger.Error("failed to store dream conversation", zap.Int64("dream_id", dream.ID), zap.Error(err))
		return false
	}
	res, err := s.ingester.Ingest(ctx, *conv)
	if err != nil {
		s.logger.Error("failed to ingest dream", zap.Int64("dream_id", dream.ID), zap.Error(err))
		return false
	}
	s.logger.Info("dream fed back to rumination",
		zap.Int64("dream_id", dream.ID),
		zap.Int("fragments", len(res.FragmentIDs)))
	return true
}

func DreamImagePrompt(theme, content string) string {
	return fmt.Sprintf("A surrealist, deeply symbolic and highly artistic painting representing the Jungian theme of '%s'. "+
		"The image should depict: %s. Style: Oil painting, dark, mysterious, ethereal, psychologically heavy, masterpiece.",
		theme, content)
}

// DreamImageURL builds a deterministic image URL; the seed is derived from the dream id.
func DreamImageURL(prompt string, dreamID int64) string {
	r := []rune(prompt)
	if len(r) > imagePromptMaxChars {
		r = r[:imagePromptMaxChars]
	}
	return fmt.Sprintf("%s%s?width=1024&height=1024&nologo=true&seed=%d",
		imageBaseURL, url.PathEscape(string(r)), dreamID*42)
}
