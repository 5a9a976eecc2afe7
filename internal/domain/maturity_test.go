package domain

import (
	"math"
	"testing"
	"time"
)

var defaultWeights = MaturityWeights{Time: 0.25, Evidence: 0.25, Revisit: 0.15, Connection: 0.15, Intensity: 0.20}

func TestMaturityStaysInUnitRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tension Tension
		weights MaturityWeights
	}{
		{"zero tension", Tension{FirstDetectedAt: now}, defaultWeights},
		{"huge counts", Tension{
			FirstDetectedAt:     now.Add(-1000 * 24 * time.Hour),
			EvidenceCount:       math.MaxInt32,
			RevisitCount:        math.MaxInt32,
			ConnectedTensionIDs: []int64{1, 2, 3, 4, 5, 6, 7},
			Intensity:           1,
		}, defaultWeights},
		{"intensity above one", Tension{FirstDetectedAt: now, Intensity: 42}, defaultWeights},
		{"negative intensity", Tension{FirstDetectedAt: now, Intensity: -3}, defaultWeights},
		{"negative counts", Tension{FirstDetectedAt: now, EvidenceCount: -5, RevisitCount: -2}, defaultWeights},
		{"detected in the future", Tension{FirstDetectedAt: now.Add(72 * time.Hour), Intensity: 0.5}, defaultWeights},
		{"unnormalized weights", Tension{
			FirstDetectedAt: now.Add(-30 * 24 * time.Hour),
			EvidenceCount:   9,
			RevisitCount:    9,
			Intensity:       1,
		}, MaturityWeights{Time: 3, Evidence: 3, Revisit: 3, Connection: 3, Intensity: 3}},
		{"negative weights", Tension{FirstDetectedAt: now.Add(-30 * 24 * time.Hour), Intensity: 1},
			MaturityWeights{Time: -1, Intensity: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.tension.Factors(now)
			for name, v := range map[string]float64{
				"time":       f.Time,
				"evidence":   f.Evidence,
				"revisit":    f.Revisit,
				"connection": f.Connection,
				"intensity":  f.Intensity,
			} {
				if v < 0 || v > 1 {
					t.Errorf("%s factor = %v, want within [0,1]", name, v)
				}
			}
			if got := tt.tension.Maturity(now, tt.weights); got < 0 || got > 1 {
				t.Errorf("Maturity() = %v, want within [0,1]", got)
			}
		})
	}
}

func TestMaturitySaturates(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	full := Tension{
		FirstDetectedAt:     now.Add(-7 * 24 * time.Hour),
		EvidenceCount:       5,
		RevisitCount:        4,
		ConnectedTensionIDs: []int64{1, 2, 3},
		Intensity:           1,
	}
	if got := full.Maturity(now, defaultWeights); math.Abs(got-1) > 1e-9 {
		t.Errorf("Maturity() = %v, want 1", got)
	}

	if got := (Tension{FirstDetectedAt: now.Add(72 * time.Hour)}).Factors(now).Time; got != 0 {
		t.Errorf("time factor for future detection = %v, want 0", got)
	}
}

func TestSynthesisGateAllows(t *testing.T) {
	gate := SynthesisGate{MinMaturity: 0.55, MinDays: 1, MinEvidence: 2}

	tests := []struct {
		name     string
		maturity float64
		days     int
		evidence int
		want     bool
	}{
		{"all at threshold", 0.55, 1, 2, true},
		{"all above", 0.9, 5, 8, true},
		{"maturity just below", 0.549, 1, 2, false},
		{"days below", 0.9, 0, 8, false},
		{"evidence below", 0.99, 30, 1, false},
		{"high maturity does not compensate", 1, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gate.Allows(tt.maturity, tt.days, tt.evidence); got != tt.want {
				t.Errorf("Allows(%v, %d, %d) = %v, want %v", tt.maturity, tt.days, tt.evidence, got, tt.want)
			}
		})
	}
}
