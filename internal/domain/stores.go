package domain

import (
	"context"
	"time"
)

type ConversationStore interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]Conversation, error)
	// LastUserActivity ignores synthetic conversations. Returns nil when the user never spoke.
	LastUserActivity(ctx context.Context, userID string) (*time.Time, error)
	ListUnextracted(ctx context.Context, userID, agentInstance string, since time.Time, limit int) ([]Conversation, error)
}

type FragmentStore interface {
	Create(ctx context.Context, f *Fragment) error
	GetByIDs(ctx context.Context, ids []int64) ([]Fragment, error)
	ListUnprocessed(ctx context.Context, userID string, limit int) ([]Fragment, error)
	ListProcessed(ctx context.Context, userID string, limit int) ([]Fragment, error)
	ListSince(ctx context.Context, userID string, since time.Time, limit int) ([]Fragment, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]Fragment, error)
	MarkProcessed(ctx context.Context, ids []int64) error
	ListRecurring(ctx context.Context, userID string, minOccurrences int, minAvgWeight float64) ([]RecurringFragment, error)
	Count(ctx context.Context, userID string) (total int, unprocessed int, err error)
}

type TensionStore interface {
	Create(ctx context.Context, t *Tension) error
	GetByID(ctx context.Context, id int64) (*Tension, error)
	ListByStatus(ctx context.Context, userID string, statuses ...TensionStatus) ([]Tension, error)
	// ListReady orders by maturity then intensity, highest first.
	ListReady(ctx context.Context, userID string, limit int) ([]Tension, error)
	CountOpen(ctx context.Context, userID string) (int, error)
	// UpdateDigest persists the fields the digest phase recomputes.
	UpdateDigest(ctx context.Context, t *Tension) error
	ListExportable(ctx context.Context, userID string, minMaturity float64) ([]Tension, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}

type InsightStore interface {
	// CreateFromTension inserts the insight and marks its source tension
	// synthesized in one transaction.
	CreateFromTension(ctx context.Context, in *Insight) error
	ListRecent(ctx context.Context, userID string, since time.Time, limit int) ([]Insight, error)
	GetByID(ctx context.Context, id int64) (*Insight, error)
	// NextReady returns the deepest, then oldest, ready insight or nil.
	NextReady(ctx context.Context, userID string) (*Insight, error)
	LastDeliveredAt(ctx context.Context, userID string) (*time.Time, error)
	CountDeliveredSince(ctx context.Context, userID string, since time.Time) (int, error)
	// ClaimDelivery flips ready to delivered. It reports false when another
	// caller already claimed the insight.
	ClaimDelivery(ctx context.Context, id int64, at time.Time) (bool, error)
	ListExportable(ctx context.Context, userID string) ([]Insight, error)
	CountByStatus(ctx context.Context, userID string) (map[string]int, error)
}

type RuminationLogStore interface {
	Create(ctx context.Context, l *RuminationLog) error
	ListRecent(ctx context.Context, userID string, limit int) ([]RuminationLog, error)
}

type CoreAttributeStore interface {
	Create(ctx context.Context, a *CoreAttribute) error
	FindCurrentByContent(ctx context.Context, agentInstance, content string) (*CoreAttribute, error)
	Reaffirm(ctx context.Context, id, conversationID int64, at time.Time) error
	ListCurrent(ctx context.Context, agentInstance string, limit int) ([]CoreAttribute, error)
}

type IdentityContradictionStore interface {
	Create(ctx context.Context, c *Contradiction) error
	ListActive(ctx context.Context, agentInstance string, limit int) ([]Contradiction, error)
	// ListFeedbackCandidates skips contradictions that were themselves exported from a tension.
	ListFeedbackCandidates(ctx context.Context, agentInstance string, minTension float64, activeSince time.Time) ([]Contradiction, error)
}

type PossibleSelfStore interface {
	Create(ctx context.Context, p *PossibleSelf) error
	FindActiveByDescription(ctx context.Context, agentInstance, description string) (*PossibleSelf, error)
	UpdateVividness(ctx context.Context, id int64, vividness float64, at time.Time) error
	ListActive(ctx context.Context, agentInstance string, limit int) ([]PossibleSelf, error)
}

type NarrativeStore interface {
	Current(ctx context.Context, agentInstance string) (*NarrativeChapter, error)
	List(ctx context.Context, agentInstance string) ([]NarrativeChapter, error)
	// Open closes the current chapter (if any) and starts c as the next one.
	Open(ctx context.Context, c *NarrativeChapter) error
	AppendKeyScene(ctx context.Context, id int64, scene string) error
}

type AgencyStore interface {
	Create(ctx context.Context, e *AgencyEvent) error
}

type IdentityExtractionStore interface {
	// Claim inserts the processed marker for a conversation. It reports false
	// when the conversation was already claimed.
	Claim(ctx context.Context, conversationID int64, agentInstance string, at time.Time) (bool, error)
	Complete(ctx context.Context, rec *IdentityExtractionRecord) error
}

type ClaimOutcome int

const (
	ClaimSkipped ClaimOutcome = iota
	ClaimInserted
	ClaimDeduplicated
)

// BridgeStore runs each bridge transfer as one transaction: marker check,
// target insert and marker update commit or roll back together.
type BridgeStore interface {
	ExportTension(ctx context.Context, tensionID int64, c *Contradiction) (ClaimOutcome, error)
	ExportInsight(ctx context.Context, insightID int64, a *CoreAttribute) (ClaimOutcome, error)
	AdoptPossibleSelf(ctx context.Context, p *PossibleSelf) (ClaimOutcome, error)
	FeedContradiction(ctx context.Context, contradictionID int64, t *Tension) (ClaimOutcome, error)
}

type DreamStore interface {
	Create(ctx context.Context, d *Dream) error
	UpdateInsight(ctx context.Context, id int64, insight string) error
	UpdateImage(ctx context.Context, id int64, url, prompt string) error
	ListRecent(ctx context.Context, userID string, limit int) ([]Dream, error)
}

type ResearchStore interface {
	Create(ctx context.Context, r *Research) error
	ExistsSince(ctx context.Context, userID, topic string, since time.Time) (bool, error)
}

// SynthesisRequest carries everything the synthesis prompt needs.
type SynthesisRequest struct {
	UserName            string
	Tension             Tension
	DaysOld             int
	RecentConversations []Conversation
	IdentityContext     string
}

// LLMClient is the set of model-backed steps. A returned error means the
// model could not be reached; malformed answers surface as a ParseError result.
type LLMClient interface {
	ExtractFragments(ctx context.Context, conv Conversation) (ExtractionResult[[]FragmentCandidate], error)
	DetectTensions(ctx context.Context, recent, historical []Fragment) (ExtractionResult[[]TensionCandidate], error)
	Synthesize(ctx context.Context, req SynthesisRequest) (ExtractionResult[Synthesis], error)
	ValidateNovelty(ctx context.Context, candidate string, previous []Insight) (ExtractionResult[Novelty], error)
	ExtractIdentity(ctx context.Context, conv Conversation) (ExtractionResult[IdentityExtraction], error)
	GenerateDream(ctx context.Context, identityContext string, fragments []Fragment) (ExtractionResult[DreamDraft], error)
	InterpretDream(ctx context.Context, narrative string) (ExtractionResult[string], error)
	ChooseResearchTopic(ctx context.Context, conversations []Conversation) (ExtractionResult[ResearchTopic], error)
	WriteArticle(ctx context.Context, topic string) (ExtractionResult[string], error)
}

// Notifier pushes messages to the admin's chat.
type Notifier interface {
	SendMessage(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, imageURL, caption string) error
}
