package domain

import "time"

type AttributeType string

const (
	AttributeTrait      AttributeType = "trait"
	AttributeValue      AttributeType = "value"
	AttributeBoundary   AttributeType = "boundary"
	AttributeContinuity AttributeType = "continuity"
	AttributeRole       AttributeType = "role"
)

func ValidAttributeType(t string) bool {
	switch AttributeType(t) {
	case AttributeTrait, AttributeValue, AttributeBoundary, AttributeContinuity, AttributeRole:
		return true
	}
	return false
}

// CoreAttribute is a versioned belief the agent holds about itself. Superseded
// attributes keep their row with IsCurrent=false.
type CoreAttribute struct {
	ID                        int64         `json:"id"`
	AgentInstance             string        `json:"agent_instance"`
	AttributeType             AttributeType `json:"attribute_type"`
	Content                   string        `json:"content"`
	Certainty                 float64       `json:"certainty"`
	IsCurrent                 bool          `json:"is_current"`
	FirstCrystallizedAt       time.Time     `json:"first_crystallized_at"`
	LastReaffirmedAt          time.Time     `json:"last_reaffirmed_at"`
	SupportingConversationIDs []int64       `json:"supporting_conversation_ids"`
	EmergedInRelationTo       string        `json:"emerged_in_relation_to"`
}

type ContradictionStatus string

const (
	ContradictionUnresolved  ContradictionStatus = "unresolved"
	ContradictionIntegrating ContradictionStatus = "integrating"
	ContradictionIntegrated  ContradictionStatus = "integrated"
)

// Contradiction mirrors a Tension in the identity namespace.
type Contradiction struct {
	ID                        int64               `json:"id"`
	AgentInstance             string              `json:"agent_instance"`
	PoleA                     string              `json:"pole_a"`
	PoleB                     string              `json:"pole_b"`
	ContradictionType         string              `json:"contradiction_type"`
	TensionLevel              float64             `json:"tension_level"`
	Salience                  float64             `json:"salience"`
	Status                    ContradictionStatus `json:"status"`
	Origin                    string              `json:"origin"`
	SourceTensionID           *int64              `json:"source_tension_id,omitempty"`
	FedToRumination           bool                `json:"fed_to_rumination"`
	FirstDetectedAt           time.Time           `json:"first_detected_at"`
	LastActivatedAt           time.Time           `json:"last_activated_at"`
	SupportingConversationIDs []int64             `json:"supporting_conversation_ids"`
}

type SelfType string

const (
	SelfIdeal  SelfType = "ideal"
	SelfFeared SelfType = "feared"
	SelfOught  SelfType = "ought"
	SelfLost   SelfType = "lost"
)

func ValidSelfType(t string) bool {
	switch SelfType(t) {
	case SelfIdeal, SelfFeared, SelfOught, SelfLost:
		return true
	}
	return false
}

// MotivationalImpact is approach for selves the agent moves toward, avoidance otherwise.
func (t SelfType) MotivationalImpact() string {
	if t == SelfIdeal || t == SelfOught {
		return "approach"
	}
	return "avoidance"
}

// PossibleSelf is an imagined future or past version of the agent.
type PossibleSelf struct {
	ID                 int64     `json:"id"`
	AgentInstance      string    `json:"agent_instance"`
	SelfType           SelfType  `json:"self_type"`
	Description        string    `json:"description"`
	Vividness          float64   `json:"vividness"`
	Likelihood         float64   `json:"likelihood"`
	MotivationalImpact string    `json:"motivational_impact"`
	EmotionalValence   string    `json:"emotional_valence"`
	Status             string    `json:"status"`
	FirstImaginedAt    time.Time `json:"first_imagined_at"`
	LastRevisedAt      time.Time `json:"last_revised_at"`
}

// NarrativeChapter is a period of the agent's self-story. The current chapter
// has no PeriodEnd.
type NarrativeChapter struct {
	ID            int64      `json:"id"`
	AgentInstance string     `json:"agent_instance"`
	ChapterName   string     `json:"chapter_name"`
	ChapterOrder  int        `json:"chapter_order"`
	PeriodStart   time.Time  `json:"period_start"`
	PeriodEnd     *time.Time `json:"period_end,omitempty"`
	DominantTheme string     `json:"dominant_theme"`
	EmotionalTone string     `json:"emotional_tone,omitempty"`
	DominantLocus string     `json:"dominant_locus,omitempty"`
	AgencyLevel   float64    `json:"agency_level"`
	KeyScenes     []string   `json:"key_scenes"`
}

func (c NarrativeChapter) Current() bool {
	return c.PeriodEnd == nil
}

// AgencyEvent is a remembered moment of choice or constraint.
type AgencyEvent struct {
	ID               int64     `json:"id"`
	AgentInstance    string    `json:"agent_instance"`
	EventDescription string    `json:"event_description"`
	ConversationID   int64     `json:"conversation_id"`
	EventDate        time.Time `json:"event_date"`
	AgencyType       string    `json:"agency_type"`
	Locus            string    `json:"locus"`
	Responsibility   float64   `json:"responsibility"`
	ImpactOnIdentity float64   `json:"impact_on_identity"`
}

// IdentityExtractionRecord marks a conversation as processed by identity consolidation.
type IdentityExtractionRecord struct {
	ID               int64     `json:"id"`
	ConversationID   int64     `json:"conversation_id"`
	AgentInstance    string    `json:"agent_instance"`
	ElementsCount    int       `json:"elements_count"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Error            string    `json:"error,omitempty"`
	ExtractedAt      time.Time `json:"extracted_at"`
}

// IdentityExtraction is the identity model's view of one conversation.
type IdentityExtraction struct {
	Nuclear []struct {
		Type      string  `json:"type"`
		Content   string  `json:"content"`
		Certainty float64 `json:"certainty"`
		Context   string  `json:"context"`
	} `json:"nuclear"`
	Narrative []struct {
		ChapterHint string `json:"chapter_hint"`
		Theme       string `json:"theme"`
		KeyScene    string `json:"key_scene"`
	} `json:"narrative"`
	Contradictions []struct {
		PoleA        string  `json:"pole_a"`
		PoleB        string  `json:"pole_b"`
		Type         string  `json:"type"`
		TensionLevel float64 `json:"tension_level"`
	} `json:"contradictions"`
	PossibleSelves []struct {
		SelfType    string  `json:"self_type"`
		Description string  `json:"description"`
		Vividness   float64 `json:"vividness"`
	} `json:"possible_selves"`
	Agency []struct {
		Event          string  `json:"event"`
		AgencyType     string  `json:"agency_type"`
		Locus          string  `json:"locus"`
		Responsibility float64 `json:"responsibility"`
		Impact         float64 `json:"impact"`
	} `json:"agency"`
}

// Elements counts everything the model returned.
func (e IdentityExtraction) Elements() int {
	return len(e.Nuclear) + len(e.Narrative) + len(e.Contradictions) + len(e.PossibleSelves) + len(e.Agency)
}

// IdentityContext is the snapshot used to colour dream and synthesis prompts.
type IdentityContext struct {
	CoreAttributes []CoreAttribute   `json:"core_attributes"`
	Contradictions []Contradiction   `json:"contradictions"`
	CurrentChapter *NarrativeChapter `json:"current_chapter,omitempty"`
	PossibleSelves []PossibleSelf    `json:"possible_selves"`
}
