package domain

import "time"

type RuminationPhase string

const (
	PhaseIngestion RuminationPhase = "ingestion"
	PhaseDetection RuminationPhase = "detection"
	PhaseDigestion RuminationPhase = "digestion"
	PhaseSynthesis RuminationPhase = "synthesis"
	PhaseDelivery  RuminationPhase = "delivery"
	PhaseBridge    RuminationPhase = "identity_bridge"
	PhaseDream     RuminationPhase = "dream"
	PhaseScholar   RuminationPhase = "scholar"
	PhaseIdentity  RuminationPhase = "identity_consolidation"
)

// RuminationLog is a diagnostic record of one phase operation.
type RuminationLog struct {
	ID                  int64           `json:"id"`
	UserID              string          `json:"user_id"`
	Phase               RuminationPhase `json:"phase"`
	Operation           string          `json:"operation"`
	InputSummary        string          `json:"input_summary,omitempty"`
	OutputSummary       string          `json:"output_summary,omitempty"`
	AffectedFragmentIDs []int64         `json:"affected_fragment_ids,omitempty"`
	AffectedTensionIDs  []int64         `json:"affected_tension_ids,omitempty"`
	AffectedInsightIDs  []int64         `json:"affected_insight_ids,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// RuminationStats summarizes pipeline state for one user.
type RuminationStats struct {
	UserID               string         `json:"user_id"`
	FragmentsTotal       int            `json:"fragments_total"`
	FragmentsUnprocessed int            `json:"fragments_unprocessed"`
	TensionsByStatus     map[string]int `json:"tensions_by_status"`
	InsightsByStatus     map[string]int `json:"insights_by_status"`
	LastDeliveryAt       *time.Time     `json:"last_delivery_at,omitempty"`
}
