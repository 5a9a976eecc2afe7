package service

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

func TestDream_GenerateStoresIllustratesAndFeedsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.fragment(domain.FragmentFear, "fear of being forgotten", 0.9, h.now.Add(-2*time.Hour))
	h.llm.GenerateDreamResponse = domain.Extracted(domain.DreamDraft{
		Narrative:     "A house with no doors slowly filling with water.",
		SymbolicTheme: "the sealed house",
	})
	h.llm.InterpretDreamResponse = domain.Extracted("You have closed every exit so no one can leave you.")

	res, err := h.dream.Generate(ctx, adminID)
	require.NoError(t, err)
	require.NotZero(t, res.DreamID)
	assert.True(t, res.Insight)
	assert.True(t, res.ImageSent)
	assert.True(t, res.FedBack)

	dreams, err := h.dreams.ListRecent(ctx, adminID, 5)
	require.NoError(t, err)
	require.Len(t, dreams, 1)
	d := dreams[0]
	assert.Equal(t, "the sealed house", d.SymbolicTheme)
	assert.NotEmpty(t, d.ExtractedInsight)
	assert.Contains(t, d.ImagePrompt, "Jungian theme of 'the sealed house'")
	assert.Equal(t, res.ImageURL, d.ImageURL)
	assert.True(t, strings.HasSuffix(d.ImageURL, "&seed="+strconv.FormatInt(d.ID*42, 10)))

	require.Len(t, h.notifier.photos, 1)

	require.Len(t, h.llm.ExtractFragmentsCalls, 1)
	fed := h.llm.ExtractFragmentsCalls[0]
	assert.Equal(t, domain.PlatformDream, fed.Platform)
	assert.True(t, strings.HasPrefix(fed.UserInput, "[DREAM MATERIAL]"))
	assert.Equal(t, 1.0, fed.TensionLevel)

	last, err := h.conversations.LastUserActivity(ctx, adminID)
	require.NoError(t, err)
	assert.Nil(t, last, "dreams are not user activity")
}

func TestDream_FallsBackToOlderFragments(t *testing.T) {
	h := newHarness(t)
	h.fragment(domain.FragmentDesire, "wants to be seen", 0.7, h.now.Add(-72*time.Hour))
	h.llm.GenerateDreamResponse = domain.Extracted(domain.DreamDraft{Narrative: "A stage with no audience.", SymbolicTheme: "the empty theatre"})

	res, err := h.dream.Generate(context.Background(), adminID)
	require.NoError(t, err)

	assert.Empty(t, res.Skipped)
	assert.Len(t, h.llm.GenerateDreamCalls, 1)
}

func TestDream_NoMaterialSkips(t *testing.T) {
	h := newHarness(t)

	res, err := h.dream.Generate(context.Background(), adminID)
	require.NoError(t, err)

	assert.Equal(t, SkipTooFewFrags, res.Skipped)
	assert.Empty(t, h.llm.GenerateDreamCalls)
}

func TestDream_EmptyDraftSkips(t *testing.T) {
	h := newHarness(t)
	h.fragment(domain.FragmentDoubt, "doubts the path", 0.6, h.now.Add(-time.Hour))

	res, err := h.dream.Generate(context.Background(), adminID)
	require.NoError(t, err)

	assert.Equal(t, SkipParseError, res.Skipped)
	dreams, err := h.dreams.ListRecent(context.Background(), adminID, 5)
	require.NoError(t, err)
	assert.Empty(t, dreams)
}

func TestDreamImageURL(t *testing.T) {
	long := strings.Repeat("a", 1000)
	u := DreamImageURL(long, 7)

	assert.True(t, strings.HasPrefix(u, "https://image.pollinations.ai/prompt/"+strings.Repeat("a", 800)+"?"))
	assert.True(t, strings.HasSuffix(u, "width=1024&height=1024&nologo=true&seed=294"))

	assert.Contains(t, DreamImageURL("dark water", 1), "dark%20water")
}

func TestScholar_StudiesOncePerWeek(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.conversation("I keep projecting my anger onto others", 1.5, h.now.Add(-time.Hour))
	h.llm.ChooseResearchTopicResponse = domain.Extracted(domain.ResearchTopic{ShouldResearch: true, Topic: "Shadow in Jung"})
	h.llm.WriteArticleResponse = domain.Extracted(strings.Repeat("é", 600))

	res, err := h.scholar.Study(ctx, adminID)
	require.NoError(t, err)
	require.NotZero(t, res.ResearchID)

	var source, excerpt, article string
	require.NoError(t, h.db.QueryRowContext(ctx,
		`SELECT source_url, raw_excerpt, synthesized_insight FROM external_research WHERE id = ?`, res.ResearchID,
	).Scan(&source, &excerpt, &article))
	assert.Equal(t, "LLM Knowledge Base", source)
	assert.Equal(t, 500, len([]rune(excerpt)))
	assert.Equal(t, 600, len([]rune(article)))

	h.advance(3 * 24 * time.Hour)
	h.llm.ChooseResearchTopicResponse = domain.Extracted(domain.ResearchTopic{ShouldResearch: true, Topic: "shadow in jung"})
	res, err = h.scholar.Study(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, SkipRecentlyStudied, res.Skipped)
	assert.Len(t, h.llm.WriteArticleCalls, 1)

	h.advance(5 * 24 * time.Hour)
	res, err = h.scholar.Study(ctx, adminID)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
}

func TestScholar_Skips(t *testing.T) {
	h := newHarness(t)

	res, err := h.scholar.Study(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, SkipNoConversations, res.Skipped)

	h.conversation("small talk", 0.1, h.now)
	res, err = h.scholar.Study(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, SkipNothingToStudy, res.Skipped)
	assert.Empty(t, h.llm.WriteArticleCalls)

	res, err = h.scholar.Study(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Equal(t, SkipNotAdmin, res.Skipped)
}
