package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

func TestIngest_NonAdminIsIgnored(t *testing.T) {
	h := newHarness(t)
	conv := domain.Conversation{ID: 7, UserID: "someone-else", TensionLevel: 3}

	res, err := h.rumination.Ingest(context.Background(), conv)
	require.NoError(t, err)

	assert.Equal(t, SkipNotAdmin, res.Skipped)
	assert.Empty(t, h.llm.ExtractFragmentsCalls)
}

func TestIngest_LowTensionSkipsModel(t *testing.T) {
	h := newHarness(t)
	conv := h.conversation("what a nice day", 0.2, h.now)

	res, err := h.rumination.Ingest(context.Background(), conv)
	require.NoError(t, err)

	assert.Equal(t, SkipLowTension, res.Skipped)
	assert.Empty(t, h.llm.ExtractFragmentsCalls)
}

func TestIngest_AppliesThresholdsAndCap(t *testing.T) {
	h := newHarness(t)
	conv := h.conversation("long rant", 2.0, h.now)

	candidates := []domain.FragmentCandidate{
		{Type: "valor", Content: "honesty matters", EmotionalWeight: 0.9},
		{Type: "medo", Content: "fear of rejection", EmotionalWeight: 0.1},
		{Type: "nonsense", Content: "unknown type", EmotionalWeight: 0.9},
		{Type: "desejo", Content: "", EmotionalWeight: 0.9},
	}
	for i := 0; i < 6; i++ {
		candidates = append(candidates, domain.FragmentCandidate{Type: "emoção", Content: "anger", EmotionalWeight: 0.5})
	}
	h.llm.ExtractFragmentsResponse = domain.Extracted(candidates)

	res, err := h.rumination.Ingest(context.Background(), conv)
	require.NoError(t, err)

	assert.Len(t, res.FragmentIDs, h.cfg.MaxFragmentsPerConversation)
	total, unprocessed, err := h.fragments.Count(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, 5, unprocessed)
}

func TestIngest_ModelFailureIsReportedNotReturned(t *testing.T) {
	h := newHarness(t)
	conv := h.conversation("hard day", 2.0, h.now)
	h.llm.ExtractFragmentsError = errors.New("connection refused")

	res, err := h.rumination.Ingest(context.Background(), conv)
	require.NoError(t, err)
	assert.Equal(t, SkipLLMUnavailable, res.Skipped)

	logs, err := h.logs.ListRecent(context.Background(), adminID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.PhaseIngestion, logs[0].Phase)
}

func TestScenario_IngestThenDigestCreatesActiveTension(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	conv := h.conversation("I value honesty but I lied to my brother again", 2.0, h.now)

	h.llm.ExtractFragmentsResponse = domain.Extracted([]domain.FragmentCandidate{
		{Type: "valor", Content: "values honesty", EmotionalWeight: 0.8},
		{Type: "comportamento", Content: "lied to brother", EmotionalWeight: 0.7},
	})
	ingested, err := h.rumination.Ingest(ctx, conv)
	require.NoError(t, err)
	require.Len(t, ingested.FragmentIDs, 2)

	h.llm.DetectTensionsResponse = domain.Extracted([]domain.TensionCandidate{{
		Type:        "valor_comportamento",
		PoleA:       domain.PoleCandidate{Content: "values honesty", FragmentIDs: ingested.FragmentIDs[:1]},
		PoleB:       domain.PoleCandidate{Content: "lied to brother", FragmentIDs: ingested.FragmentIDs[1:]},
		Description: "honesty vs lying",
		Intensity:   0.7,
	}})

	h.advance(time.Hour)
	digest, err := h.rumination.Digest(ctx, adminID)
	require.NoError(t, err)
	require.NotNil(t, digest.Detection)
	require.Len(t, digest.Detection.TensionIDs, 1)
	assert.Zero(t, digest.TensionsProcessed)

	tension := h.reload(digest.Detection.TensionIDs[0])
	assert.Equal(t, domain.TensionActive, tension.Status)
	assert.Equal(t, 2, tension.EvidenceCount)
	assert.Equal(t, string(domain.FragmentValue), tension.PoleA.Type)

	_, unprocessed, err := h.fragments.Count(ctx, adminID)
	require.NoError(t, err)
	assert.Zero(t, unprocessed)
}

func TestScenario_DigestStoresExpectedMaturity(t *testing.T) {
	h := newHarness(t)
	seeded := h.tension(func(t *domain.Tension) {
		t.FirstDetectedAt = h.now.Add(-10 * 24 * time.Hour)
		t.EvidenceCount = 5
		t.RevisitCount = 4
		t.Intensity = 0.8
	})

	_, err := h.rumination.Digest(context.Background(), adminID)
	require.NoError(t, err)

	got := h.reload(seeded.ID)
	assert.InDelta(t, 0.81, got.MaturityScore, 0.01)
	assert.Equal(t, 5, got.RevisitCount)
	// synthesis returns nothing from the mock, so the tension waits for the next cycle
	assert.Equal(t, domain.TensionReady, got.Status)
}

func TestDigest_GateIsAStrictConjunction(t *testing.T) {
	h := newHarness(t)
	seeded := h.tension(func(t *domain.Tension) {
		t.FirstDetectedAt = h.now.Add(-10 * 24 * time.Hour)
		t.RevisitCount = 4
		t.Intensity = 1.0
		t.ConnectedTensionIDs = []int64{90, 91, 92}
	})

	_, err := h.rumination.Digest(context.Background(), adminID)
	require.NoError(t, err)

	got := h.reload(seeded.ID)
	assert.GreaterOrEqual(t, got.MaturityScore, h.cfg.MinMaturityForSynthesis)
	assert.Zero(t, got.EvidenceCount)
	assert.Equal(t, domain.TensionMaturing, got.Status)
}

func TestDigest_ArchivesStaleTension(t *testing.T) {
	h := newHarness(t)
	seeded := h.tension(func(t *domain.Tension) {
		t.FirstDetectedAt = h.now.Add(-20 * 24 * time.Hour)
		t.Intensity = 0.1
	})
	// time factor saturates, so only a weightless tension stays under the ceiling
	h.rumination.cfg.MaturityWeights = config.MaturityWeights{Time: 0, Evidence: 0.4, Revisit: 0.2, Connection: 0.2, Intensity: 0.2}

	_, err := h.rumination.Digest(context.Background(), adminID)
	require.NoError(t, err)

	assert.Equal(t, domain.TensionArchived, h.reload(seeded.ID).Status)
}

func TestDigest_NewEvidenceCounting(t *testing.T) {
	tests := []struct {
		name     string
		faithful bool
		want     int
	}{
		{"fixed counts matching fragments", false, 1},
		{"faithful never counts", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(c *config.Rumination) { c.FaithfulEvidenceCount = tt.faithful })
			seeded := h.tension(nil)
			h.fragment(domain.FragmentValue, "honesty again", 0.8, h.now.Add(-24*time.Hour))
			h.fragment(domain.FragmentFear, "unrelated fear", 0.8, h.now.Add(-24*time.Hour))
			h.fragment(domain.FragmentBehavior, "too old to count", 0.8, h.now.Add(-5*24*time.Hour))

			_, err := h.rumination.Digest(context.Background(), adminID)
			require.NoError(t, err)

			assert.Equal(t, tt.want, h.reload(seeded.ID).EvidenceCount)
		})
	}
}

func TestSynthesize_CreatesSymbolicInsight(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	seeded := h.tension(func(t *domain.Tension) {
		t.Status = domain.TensionReady
		t.MaturityScore = 0.7
		t.EvidenceCount = 3
	})
	h.llm.SynthesizeResponse = domain.Extracted(domain.Synthesis{
		InternalThought:  "You keep the truth for yourself, like a coin you never spend.",
		CoreImage:        "an unspent coin",
		InternalQuestion: "Who are you protecting?",
		DepthScore:       0.85,
	})

	res, err := h.rumination.Synthesize(ctx, adminID)
	require.NoError(t, err)
	require.Len(t, res.InsightIDs, 1)
	assert.Empty(t, h.llm.ValidateNoveltyCalls, "first insight needs no novelty check")

	in, err := h.insights.GetByID(ctx, res.InsightIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.SynthesisSymbolic, in.SynthesisLevel)
	assert.Equal(t, domain.InsightReady, in.Status)
	assert.Equal(t, 3, in.MaturationDays)
	assert.Equal(t, domain.TensionSynthesized, h.reload(seeded.ID).Status)

	require.Len(t, h.llm.SynthesizeCalls, 1)
	assert.Equal(t, 3, h.llm.SynthesizeCalls[0].DaysOld)
}

func TestSynthesize_RepetitiveInsightLeavesTensionReady(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.readyInsight("You hide behind politeness.", "", 0.6, h.now.Add(-24*time.Hour))
	seeded := h.tension(func(t *domain.Tension) {
		t.Status = domain.TensionReady
		t.MaturityScore = 0.9
		t.EvidenceCount = 3
	})
	h.llm.SynthesizeResponse = domain.Extracted(domain.Synthesis{FullMessage: "You hide behind good manners."})
	h.llm.ValidateNoveltyResponse = domain.Extracted(domain.Novelty{IsNovel: false, NoveltyScore: 0.3})

	res, err := h.rumination.Synthesize(ctx, adminID)
	require.NoError(t, err)

	assert.Empty(t, res.InsightIDs)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, domain.TensionReady, h.reload(seeded.ID).Status)
}

func TestSynthesize_ParseErrorLeavesTensionReady(t *testing.T) {
	h := newHarness(t)
	seeded := h.tension(func(t *domain.Tension) {
		t.Status = domain.TensionReady
		t.MaturityScore = 0.9
		t.EvidenceCount = 3
	})
	h.llm.SynthesizeResponse = domain.ExtractionFailed[domain.Synthesis]("not json", errors.New("invalid character"))

	res, err := h.rumination.Synthesize(context.Background(), adminID)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, domain.TensionReady, h.reload(seeded.ID).Status)
}

func TestScenario_DeliverTwiceSendsOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	in := h.readyInsight("You carry your father's silence.", "a locked drawer", 0.8, h.now.Add(-time.Hour))

	first, err := h.rumination.Deliver(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, first.Claimed)
	assert.True(t, first.Sent)
	assert.Equal(t, in.ID, first.InsightID)

	second, err := h.rumination.Deliver(ctx, adminID)
	require.NoError(t, err)
	assert.False(t, second.Claimed)
	assert.Equal(t, SkipCooldown, second.Skipped)

	assert.Equal(t, 1, h.notifier.sent())
	got, err := h.insights.GetByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InsightDelivered, got.Status)
	require.NotNil(t, got.DeliveredAt)

	// the proactive message is not user activity
	last, err := h.conversations.LastUserActivity(ctx, adminID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestDeliver_ConcurrentCallersDeliverOnce(t *testing.T) {
	h := newHarness(t)
	h.readyInsight("You are tired of being strong.", "", 0.7, h.now.Add(-time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.rumination.Deliver(context.Background(), adminID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, h.notifier.sent())
}

func TestDeliver_SendFailureStillClaims(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	in := h.readyInsight("You wait for permission.", "", 0.7, h.now.Add(-time.Hour))
	h.notifier.err = errSendFailed

	res, err := h.rumination.Deliver(ctx, adminID)
	require.NoError(t, err)
	assert.True(t, res.Claimed)
	assert.False(t, res.Sent)

	got, err := h.insights.GetByID(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InsightDelivered, got.Status)
}

func TestDeliver_BlockedWhileUserActive(t *testing.T) {
	h := newHarness(t)
	h.readyInsight("You rehearse every goodbye.", "", 0.7, h.now.Add(-time.Hour))
	h.conversation("just checking in", 0.1, h.now.Add(-2*time.Hour))

	res, err := h.rumination.Deliver(context.Background(), adminID)
	require.NoError(t, err)

	assert.Equal(t, SkipUserActive, res.Skipped)
	assert.Zero(t, h.notifier.sent())
}

func TestDeliver_WeeklyLimit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, func(c *config.Rumination) { c.MaxInsightsPerWeek = 1 })
	h.readyInsight("first", "", 0.9, h.now.Add(-time.Hour))
	h.readyInsight("second", "", 0.5, h.now.Add(-time.Hour))

	_, err := h.rumination.Deliver(ctx, adminID)
	require.NoError(t, err)
	h.advance(2 * 24 * time.Hour)

	res, err := h.rumination.Deliver(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, SkipWeeklyLimit, res.Skipped)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.fragment(domain.FragmentDoubt, "am I enough", 0.6, h.now)
	h.tension(nil)

	_, err := h.rumination.Stats(ctx, "stranger")
	assert.ErrorIs(t, err, ErrNotAdmin)

	stats, err := h.rumination.Stats(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FragmentsTotal)
	assert.Equal(t, 1, stats.TensionsByStatus[string(domain.TensionActive)])
	assert.Nil(t, stats.LastDeliveryAt)
}
