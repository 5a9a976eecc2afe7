package domain

import "time"

type FragmentType string

const (
	FragmentValue         FragmentType = "valor"
	FragmentDesire        FragmentType = "desejo"
	FragmentFear          FragmentType = "medo"
	FragmentBehavior      FragmentType = "comportamento"
	FragmentContradiction FragmentType = "contradição"
	FragmentEmotion       FragmentType = "emoção"
	FragmentBelief        FragmentType = "crença"
	FragmentDoubt         FragmentType = "dúvida"
)

func ValidFragmentType(t string) bool {
	switch FragmentType(t) {
	case FragmentValue, FragmentDesire, FragmentFear, FragmentBehavior,
		FragmentContradiction, FragmentEmotion, FragmentBelief, FragmentDoubt:
		return true
	}
	return false
}

// Fragment is an emotionally weighted snippet extracted from a conversation.
// Fragments are immutable except for the Processed flag set by tension detection.
type Fragment struct {
	ID                   int64        `json:"id"`
	UserID               string       `json:"user_id"`
	FragmentType         FragmentType `json:"fragment_type"`
	Content              string       `json:"content"`
	SourceQuote          string       `json:"source_quote,omitempty"`
	Context              string       `json:"context,omitempty"`
	EmotionalWeight      float64      `json:"emotional_weight"`
	TensionLevel         float64      `json:"tension_level"`
	SourceConversationID int64        `json:"source_conversation_id"`
	Processed            bool         `json:"processed"`
	CreatedAt            time.Time    `json:"created_at"`
}

// FragmentCandidate is a fragment as proposed by the extraction model, before
// thresholds are applied.
type FragmentCandidate struct {
	Type            string  `json:"type"`
	Content         string  `json:"content"`
	Quote           string  `json:"quote"`
	EmotionalWeight float64 `json:"emotional_weight"`
	Context         string  `json:"context"`
}

// RecurringFragment groups fragments that share the same content.
type RecurringFragment struct {
	Content     string  `json:"content"`
	Occurrences int     `json:"occurrences"`
	AvgWeight   float64 `json:"avg_weight"`
}
