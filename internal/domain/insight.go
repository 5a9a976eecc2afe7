package domain

import "time"

type InsightStatus string

const (
	InsightReady     InsightStatus = "ready"
	InsightDelivered InsightStatus = "delivered"
)

func ValidInsightStatus(s string) bool {
	switch InsightStatus(s) {
	case InsightReady, InsightDelivered:
		return true
	}
	return false
}

// CanTransition enforces that delivery is one-way.
func (s InsightStatus) CanTransition(to InsightStatus) bool {
	return s == InsightReady && to == InsightDelivered
}

type SynthesisLevel string

const (
	SynthesisSymbolic   SynthesisLevel = "symbolic"
	SynthesisReflective SynthesisLevel = "reflective"
)

// Insight is the symbolic output of a matured tension.
type Insight struct {
	ID                     int64          `json:"id"`
	UserID                 string         `json:"user_id"`
	SourceTensionID        int64          `json:"source_tension_id"`
	InsightContent         string         `json:"insight_content"`
	SymbolicInterpretation string         `json:"symbolic_interpretation"`
	Question               string         `json:"question"`
	SynthesisLevel         SynthesisLevel `json:"synthesis_level"`
	DepthScore             float64        `json:"depth_score"`
	NoveltyScore           float64        `json:"novelty_score"`
	MaturationDays         int            `json:"maturation_days"`
	Status                 InsightStatus  `json:"status"`
	CrystallizedAt         time.Time      `json:"crystallized_at"`
	DeliveredAt            *time.Time     `json:"delivered_at,omitempty"`
	ExportedToIdentityID   *int64         `json:"exported_to_identity_id,omitempty"`
}

// Synthesis is the parsed output of the synthesis model. Both the current and
// legacy key spellings are accepted.
type Synthesis struct {
	InternalThought  string  `json:"internal_thought"`
	FullMessage      string  `json:"full_message"`
	CoreImage        string  `json:"core_image"`
	Symbol           string  `json:"symbol"`
	InternalQuestion string  `json:"internal_question"`
	Question         string  `json:"question"`
	DepthScore       float64 `json:"depth_score"`
}

// Message returns the insight body regardless of which key the model used.
func (s Synthesis) Message() string {
	if s.InternalThought != "" {
		return s.InternalThought
	}
	return s.FullMessage
}

func (s Synthesis) Image() string {
	if s.CoreImage != "" {
		return s.CoreImage
	}
	return s.Symbol
}

func (s Synthesis) QuestionText() string {
	if s.InternalQuestion != "" {
		return s.InternalQuestion
	}
	return s.Question
}

// Novelty is the novelty model's verdict on a candidate insight.
type Novelty struct {
	IsNovel      bool    `json:"is_novel"`
	NoveltyScore float64 `json:"novelty_score"`
	Reason       string  `json:"reason"`
}
