package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

func TestDecode_StripsFencesAndProse(t *testing.T) {
	raw := "Here you go:\n```json\n{\"is_novel\": true, \"novelty_score\": 0.7, \"reason\": \"new image\"}\n```"

	res := decode[domain.Novelty](raw)
	require.True(t, res.Ok(), res.String())
	assert.Equal(t, 0.7, res.Value.NoveltyScore)
	assert.True(t, res.Value.IsNovel)
}

func TestDecode_EmptyAnswer(t *testing.T) {
	res := decode[domain.Novelty]("   ")
	assert.Equal(t, domain.ExtractionEmpty, res.Kind)
}

func TestDecode_Malformed(t *testing.T) {
	res := decode[domain.Novelty](`{"novelty_score": "high"`)
	assert.Equal(t, domain.ExtractionParseError, res.Kind)
	assert.Error(t, res.Err)
	assert.NotEmpty(t, res.Raw)
}

func TestDecodeList_EmptyListIsEmpty(t *testing.T) {
	res := decodeList(`{"fragments": []}`, func(e fragmentEnvelope) []domain.FragmentCandidate { return e.Fragments })
	assert.Equal(t, domain.ExtractionEmpty, res.Kind)
}

func TestDecodeList_Success(t *testing.T) {
	raw := `{"fragments": [{"type": "medo", "content": "fears being left", "quote": "I am afraid", "emotional_weight": 0.8}]}`
	res := decodeList(raw, func(e fragmentEnvelope) []domain.FragmentCandidate { return e.Fragments })
	require.True(t, res.Ok())
	require.Len(t, res.Value, 1)
	assert.Equal(t, "medo", res.Value[0].Type)
}

func TestSchemaOf_DescribesFields(t *testing.T) {
	s := schemaOf[domain.ResearchTopic]()
	assert.Contains(t, s, "should_research")
	assert.Contains(t, s, "topic")
	// cached
	assert.Equal(t, s, schemaOf[domain.ResearchTopic]())
}
