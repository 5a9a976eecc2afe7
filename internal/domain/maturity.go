package domain

import "time"

// Saturation points of the maturity factors.
const (
	MaturityTimeDays       = 7.0
	MaturityEvidenceCount  = 5.0
	MaturityRevisitCount   = 4.0
	MaturityConnectionsCap = 3.0
)

// MaturityWeights mirrors config.MaturityWeights without importing config.
type MaturityWeights struct {
	Time       float64
	Evidence   float64
	Revisit    float64
	Connection float64
	Intensity  float64
}

// MaturityFactors are the clamped [0,1] inputs of the maturity score.
type MaturityFactors struct {
	Time       float64 `json:"time"`
	Evidence   float64 `json:"evidence"`
	Revisit    float64 `json:"revisit"`
	Connection float64 `json:"connection"`
	Intensity  float64 `json:"intensity"`
}

// Factors computes each maturity factor for t at now.
func (t Tension) Factors(now time.Time) MaturityFactors {
	return MaturityFactors{
		Time:       clamp01(float64(t.DaysOld(now)) / MaturityTimeDays),
		Evidence:   clamp01(float64(t.EvidenceCount) / MaturityEvidenceCount),
		Revisit:    clamp01(float64(t.RevisitCount) / MaturityRevisitCount),
		Connection: clamp01(float64(len(t.ConnectedTensionIDs)) / MaturityConnectionsCap),
		Intensity:  clamp01(t.Intensity),
	}
}

// Score is the weighted sum of the factors, clamped to [0,1].
func (f MaturityFactors) Score(w MaturityWeights) float64 {
	return clamp01(f.Time*w.Time +
		f.Evidence*w.Evidence +
		f.Revisit*w.Revisit +
		f.Connection*w.Connection +
		f.Intensity*w.Intensity)
}

// Maturity is shorthand for t.Factors(now).Score(w).
func (t Tension) Maturity(now time.Time, w MaturityWeights) float64 {
	return t.Factors(now).Score(w)
}

// SynthesisGate holds the three thresholds a tension must all meet.
type SynthesisGate struct {
	MinMaturity float64
	MinDays     int
	MinEvidence int
}

// Allows is a strict conjunction: no threshold compensates for another.
func (g SynthesisGate) Allows(maturity float64, daysOld, evidence int) bool {
	return maturity >= g.MinMaturity && daysOld >= g.MinDays && evidence >= g.MinEvidence
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
