package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

const (
	scholarConversations = 15
	researchRepeatWindow = 7 * 24 * time.Hour
	researchExcerptChars = 500
	researchSource       = "LLM Knowledge Base"
)

// Scholar skip reasons.
const (
	SkipNoConversations = "no_conversations"
	SkipNothingToStudy  = "nothing_to_study"
	SkipRecentlyStudied = "recently_studied"
)

type ScholarResult struct {
	ResearchID int64  `json:"research_id,omitempty"`
	Topic      string `json:"topic,omitempty"`
	Skipped    string `json:"skipped,omitempty"`
}

// ScholarService picks a topic from recent conversations and writes a
// synthetic article about it.
type ScholarService struct {
	cfg           config.Rumination
	conversations domain.ConversationStore
	research      domain.ResearchStore
	llmClient     domain.LLMClient
	logs          domain.RuminationLogStore
	logger        *zap.Logger
	now           func() time.Time
}

func NewScholarService(
	cfg config.Rumination,
	conversations domain.ConversationStore,
	research domain.ResearchStore,
	llmClient domain.LLMClient,
	logs domain.RuminationLogStore,
	logger *zap.Logger,
) *ScholarService {
	return &ScholarService{
		cfg:           cfg,
		conversations: conversations,
		research:      research,
		llmClient:     llmClient,
		logs:          logs,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *ScholarService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ScholarService) Study(ctx context.Context, userID string) (*ScholarResult, error) {
	result := &ScholarResult{}
	if userID != s.cfg.AdminUserID {
		result.Skipped = SkipNotAdmin
		return result, nil
	}

	convs, err := s.conversations.ListRecentByUser(ctx, userID, scholarConversations)
	if err != nil {
		return nil, fmt.Errorf("list recent conversations: %w", err)
	}
	if len(convs) == 0 {
		result.Skipped = SkipNoConversations
		return result, nil
	}

	choice, err := s.llmClient.ChooseResearchTopic(ctx, convs)
	if err != nil {
		s.logger.Warn("research topic selection failed", zap.Error(err))
		result.Skipped = SkipLLMUnavailable
		return result, nil
	}
	if !choice.Ok() {
		s.logger.Info("nothing worth studying today", zap.String("extraction", choice.String()))
		result.Skipped = SkipNothingToStudy
		return result, nil
	}
	topic := strings.TrimSpace(choice.Value.Topic)
	result.Topic = topic

	exists, err := s.research.ExistsSince(ctx, userID, topic, s.now().Add(-researchRepeatWindow))
	if err != nil {
		return nil, fmt.Errorf("check recent research: %w", err)
	}
	if exists {
		s.logger.Info("topic already studied this week", zap.String("topic", topic))
		result.Skipped = SkipRecentlyStudied
		return result, nil
	}

	article, err := s.llmClient.WriteArticle(ctx, topic)
	if err != nil {
		s.logger.Warn("research article failed", zap.String("topic", topic), zap.Error(err))
		result.Skipped = SkipLLMUnavailable
		return result, nil
	}
	if !article.Ok() {
		result.Skipped = SkipParseError
		return result, nil
	}

	r := &domain.Research{
		UserID:             userID,
		Topic:              topic,
		SourceURL:          researchSource,
		RawExcerpt:         excerpt(article.Value, researchExcerptChars),
		SynthesizedInsight: article.Value,
		CreatedAt:          s.now(),
	}
	if err := s.research.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create research: %w", err)
	}
	result.ResearchID = r.ID
	s.logger.Info("research stored", zap.Int64("research_id", r.ID), zap.String("topic", topic))

	recordLog(ctx, s.logs, s.logger, domain.RuminationLog{
		UserID:        userID,
		Phase:         domain.PhaseScholar,
		Operation:     "conduct_research",
		InputSummary:  topic,
		OutputSummary: summarize(article.Value),
	})
	return result, nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
