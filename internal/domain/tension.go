package domain

import "time"

type TensionType string

const (
	TensionValueBehavior TensionType = "valor_comportamento"
	TensionDesireFear    TensionType = "desejo_medo"
)

func ValidTensionType(t string) bool {
	switch TensionType(t) {
	case TensionValueBehavior, TensionDesireFear:
		return true
	}
	return false
}

// IdentityTensionType namespaces a tension fed back from an identity contradiction.
func IdentityTensionType(contradictionType string) TensionType {
	return TensionType("identity_" + contradictionType)
}

type TensionStatus string

const (
	TensionActive      TensionStatus = "active"
	TensionMaturing    TensionStatus = "maturing"
	TensionReady       TensionStatus = "ready"
	TensionSynthesized TensionStatus = "synthesized"
	TensionArchived    TensionStatus = "archived"
	TensionResolved    TensionStatus = "resolved"
)

func ValidTensionStatus(s string) bool {
	switch TensionStatus(s) {
	case TensionActive, TensionMaturing, TensionReady, TensionSynthesized, TensionArchived, TensionResolved:
		return true
	}
	return false
}

// Open reports whether the digest phase still revisits tensions in this status.
func (s TensionStatus) Open() bool {
	return s == TensionActive || s == TensionMaturing
}

// Terminal reports whether the tension left the maturation lifecycle.
func (s TensionStatus) Terminal() bool {
	return s == TensionSynthesized || s == TensionResolved || s == TensionArchived
}

// Pole is one side of a tension.
type Pole struct {
	Content     string  `json:"content"`
	Type        string  `json:"type,omitempty"`
	FragmentIDs []int64 `json:"fragment_ids"`
}

// Tension is an opposition between two poles tracked through maturation.
type Tension struct {
	ID                    int64         `json:"id"`
	UserID                string        `json:"user_id"`
	TensionType           TensionType   `json:"tension_type"`
	PoleA                 Pole          `json:"pole_a"`
	PoleB                 Pole          `json:"pole_b"`
	Description           string        `json:"description"`
	Intensity             float64       `json:"intensity"`
	Status                TensionStatus `json:"status"`
	MaturityScore         float64       `json:"maturity_score"`
	EvidenceCount         int           `json:"evidence_count"`
	RevisitCount          int           `json:"revisit_count"`
	ConnectedTensionIDs   []int64       `json:"connected_tension_ids"`
	FirstDetectedAt       time.Time     `json:"first_detected_at"`
	LastRevisitedAt       *time.Time    `json:"last_revisited_at,omitempty"`
	LastEvidenceAt        *time.Time    `json:"last_evidence_at,omitempty"`
	SynthesisGeneratedAt  *time.Time    `json:"synthesis_generated_at,omitempty"`
	ExportedToIdentityID  *int64        `json:"exported_to_identity_id,omitempty"`
	ExportedAt            *time.Time    `json:"exported_at,omitempty"`
	SourceContradictionID *int64        `json:"source_contradiction_id,omitempty"`
}

// FragmentIDs returns the union of both poles' fragment ids.
func (t Tension) FragmentIDs() []int64 {
	seen := make(map[int64]struct{}, len(t.PoleA.FragmentIDs)+len(t.PoleB.FragmentIDs))
	var ids []int64
	for _, id := range append(append([]int64{}, t.PoleA.FragmentIDs...), t.PoleB.FragmentIDs...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// DaysOld is the number of whole days since detection.
func (t Tension) DaysOld(now time.Time) int {
	return wholeDays(now.Sub(t.FirstDetectedAt))
}

// DaysSinceEvidence falls back to the detection time when no evidence was recorded.
func (t Tension) DaysSinceEvidence(now time.Time) int {
	ref := t.FirstDetectedAt
	if t.LastEvidenceAt != nil {
		ref = *t.LastEvidenceAt
	}
	return wholeDays(now.Sub(ref))
}

// FromIdentity reports whether the tension was fed in from an identity contradiction.
func (t Tension) FromIdentity() bool {
	return t.SourceContradictionID != nil
}

// LastTouchedAt is the reference point for new evidence.
func (t Tension) LastTouchedAt() time.Time {
	if t.LastRevisitedAt != nil {
		return *t.LastRevisitedAt
	}
	return t.FirstDetectedAt
}

func wholeDays(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// TensionCandidate is a tension as proposed by the detection model.
type TensionCandidate struct {
	Type        string        `json:"type"`
	PoleA       PoleCandidate `json:"pole_a"`
	PoleB       PoleCandidate `json:"pole_b"`
	Description string        `json:"description"`
	Intensity   float64       `json:"intensity"`
}

type PoleCandidate struct {
	Content     string  `json:"content"`
	FragmentIDs []int64 `json:"fragment_ids"`
}
