package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/llm"
	"github.com/Harshitk-cp/jungclaude/internal/store"
)

const adminID = "admin-1"

var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
	photos   []string
	err      error
}

func (n *fakeNotifier) SendMessage(ctx context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	return nil
}

func (n *fakeNotifier) SendPhoto(ctx context.Context, imageURL, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.photos = append(n.photos, imageURL)
	return nil
}

func (n *fakeNotifier) sent() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

var errSendFailed = errors.New("telegram unavailable")

// harness wires every service against one SQLite file and a mock model.
type harness struct {
	t   *testing.T
	db  *sql.DB
	cfg config.Rumination
	now time.Time

	llm      *llm.MockClient
	notifier *fakeNotifier

	conversations  *store.ConversationStore
	fragments      *store.FragmentStore
	tensions       *store.TensionStore
	insights       *store.InsightStore
	logs           *store.RuminationLogStore
	core           *store.CoreAttributeStore
	contradictions *store.IdentityContradictionStore
	selves         *store.PossibleSelfStore
	narrative      *store.NarrativeStore
	agency         *store.AgencyStore
	extractions    *store.IdentityExtractionStore
	dreams         *store.DreamStore
	research       *store.ResearchStore

	identity      *IdentityContextBuilder
	rumination    *RuminationService
	bridge        *IdentityBridgeService
	consolidation *IdentityConsolidationService
	dream         *DreamService
	scholar       *ScholarService
}

func newHarness(t *testing.T, opts ...func(*config.Rumination)) *harness {
	t.Helper()

	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "data", "jung.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.DefaultRumination()
	cfg.AdminUserID = adminID
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &harness{
		t:              t,
		db:             db,
		cfg:            cfg,
		now:            baseTime,
		llm:            llm.NewMockClient(),
		notifier:       &fakeNotifier{},
		conversations:  store.NewConversationStore(db),
		fragments:      store.NewFragmentStore(db),
		tensions:       store.NewTensionStore(db),
		insights:       store.NewInsightStore(db),
		logs:           store.NewRuminationLogStore(db),
		core:           store.NewCoreAttributeStore(db),
		contradictions: store.NewIdentityContradictionStore(db),
		selves:         store.NewPossibleSelfStore(db),
		narrative:      store.NewNarrativeStore(db),
		agency:         store.NewAgencyStore(db),
		extractions:    store.NewIdentityExtractionStore(db),
		dreams:         store.NewDreamStore(db),
		research:       store.NewResearchStore(db),
	}
	logger := zap.NewNop()
	clock := func() time.Time { return h.now }

	h.identity = NewIdentityContextBuilder(cfg.AgentInstance, h.core, h.contradictions, h.narrative, h.selves, logger)
	h.rumination = NewRuminationService(cfg, h.conversations, h.fragments, h.tensions, h.insights, h.logs,
		h.llm, h.notifier, h.identity, logger)
	h.rumination.SetClock(clock)
	h.bridge = NewIdentityBridgeService(cfg, h.tensions, h.insights, h.fragments, h.contradictions,
		store.NewBridgeStore(db), h.logs, logger)
	h.bridge.SetClock(clock)
	h.consolidation = NewIdentityConsolidationService(cfg, h.conversations, h.extractions, h.core,
		h.contradictions, h.selves, h.narrative, h.agency, h.llm, logger)
	h.consolidation.SetClock(clock)
	h.dream = NewDreamService(cfg, h.fragments, h.dreams, h.conversations, h.rumination, h.llm,
		h.notifier, h.identity, h.logs, true, logger)
	h.dream.SetClock(clock)
	h.scholar = NewScholarService(cfg, h.conversations, h.research, h.llm, h.logs, logger)
	h.scholar.SetClock(clock)
	return h
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
}

func (h *harness) conversation(input string, tension float64, at time.Time) domain.Conversation {
	h.t.Helper()
	c := &domain.Conversation{
		UserID:       adminID,
		UserInput:    input,
		AIResponse:   "I hear you.",
		TensionLevel: tension,
		Platform:     domain.PlatformTelegram,
		CreatedAt:    at,
	}
	require.NoError(h.t, h.conversations.Create(context.Background(), c))
	return *c
}

func (h *harness) fragment(ft domain.FragmentType, content string, weight float64, at time.Time) domain.Fragment {
	h.t.Helper()
	f := &domain.Fragment{
		UserID:          adminID,
		FragmentType:    ft,
		Content:         content,
		EmotionalWeight: weight,
		TensionLevel:    1.5,
		Processed:       true,
		CreatedAt:       at,
	}
	require.NoError(h.t, h.fragments.Create(context.Background(), f))
	return *f
}

// tension stores a value/behavior tension detected three days ago.
func (h *harness) tension(mod func(*domain.Tension)) domain.Tension {
	h.t.Helper()
	t := &domain.Tension{
		UserID:          adminID,
		TensionType:     domain.TensionValueBehavior,
		PoleA:           domain.Pole{Content: "values honesty", Type: string(domain.FragmentValue)},
		PoleB:           domain.Pole{Content: "avoids hard conversations", Type: string(domain.FragmentBehavior)},
		Description:     "says one thing, does another",
		Intensity:       0.8,
		Status:          domain.TensionActive,
		FirstDetectedAt: h.now.Add(-3 * 24 * time.Hour),
	}
	if mod != nil {
		mod(t)
	}
	require.NoError(h.t, h.tensions.Create(context.Background(), t))
	return *t
}

// readyInsight stores a ready tension and crystallizes it into an insight.
func (h *harness) readyInsight(content, symbol string, depth float64, at time.Time) domain.Insight {
	h.t.Helper()
	t := h.tension(func(t *domain.Tension) {
		t.Status = domain.TensionReady
		t.MaturityScore = 0.8
		t.EvidenceCount = 3
	})
	level := domain.SynthesisReflective
	if symbol != "" {
		level = domain.SynthesisSymbolic
	}
	in := &domain.Insight{
		UserID:                 adminID,
		SourceTensionID:        t.ID,
		InsightContent:         content,
		SymbolicInterpretation: symbol,
		Question:               "What would it cost to say it?",
		SynthesisLevel:         level,
		DepthScore:             depth,
		NoveltyScore:           0.8,
		MaturationDays:         3,
		CrystallizedAt:         at,
	}
	require.NoError(h.t, h.insights.CreateFromTension(context.Background(), in))
	return *in
}

func (h *harness) reload(id int64) *domain.Tension {
	h.t.Helper()
	t, err := h.tensions.GetByID(context.Background(), id)
	require.NoError(h.t, err)
	return t
}
