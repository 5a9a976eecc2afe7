package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// MaturityWeights are the per-factor weights of the maturity score. They must sum to 1.
type MaturityWeights struct {
	Time       float64 `yaml:"time"`
	Evidence   float64 `yaml:"evidence"`
	Revisit    float64 `yaml:"revisit"`
	Connection float64 `yaml:"connection"`
	Intensity  float64 `yaml:"intensity"`
}

func (w MaturityWeights) Sum() float64 {
	return w.Time + w.Evidence + w.Revisit + w.Connection + w.Intensity
}

// Rumination holds every threshold used by the rumination and identity pipelines.
// It is built once at startup and passed to each service constructor.
type Rumination struct {
	AdminUserID   string `yaml:"admin_user_id"`
	AgentInstance string `yaml:"agent_instance"`

	// Ingestion
	MinTensionLevel             float64 `yaml:"min_tension_level"`
	MinEmotionalWeight          float64 `yaml:"min_emotional_weight"`
	MaxFragmentsPerConversation int     `yaml:"max_fragments_per_conversation"`

	// Detection
	MinIntensityForTension float64 `yaml:"min_intensity_for_tension"`
	MaxOpenTensionsPerUser int     `yaml:"max_open_tensions_per_user"`

	// Digestion
	MaturityWeights       MaturityWeights `yaml:"maturity_weights"`
	DaysToArchive         int             `yaml:"days_to_archive"`
	FaithfulEvidenceCount bool            `yaml:"faithful_evidence_count"`

	// Synthesis
	MinMaturityForSynthesis float64 `yaml:"min_maturity_for_synthesis"`
	MinEvidenceForSynthesis int     `yaml:"min_evidence_for_synthesis"`
	MinDaysForSynthesis     int     `yaml:"min_days_for_synthesis"`
	MaxSynthesesPerCycle    int     `yaml:"max_syntheses_per_cycle"`
	MinNoveltyScore         float64 `yaml:"min_novelty_score"`
	NoveltyWindowDays       int     `yaml:"novelty_window_days"`

	// Delivery
	InactivityThresholdHours int `yaml:"inactivity_threshold_hours"`
	CooldownHours            int `yaml:"cooldown_hours"`
	MaxInsightsPerWeek       int `yaml:"max_insights_per_week"`

	// Identity bridge
	MinMaturityForExport        float64 `yaml:"min_maturity_for_export"`
	MinRecurrenceForSelf        int     `yaml:"min_recurrence_for_self"`
	MinChargeForSelf            float64 `yaml:"min_charge_for_self"`
	FearedSelfCharge            float64 `yaml:"feared_self_charge"`
	MinTensionForFeedback       float64 `yaml:"min_tension_for_feedback"`
	FeedbackActivityWindowDays  int     `yaml:"feedback_activity_window_days"`
	SymbolicInsightCertainty    float64 `yaml:"symbolic_insight_certainty"`
	MinCertaintyForNuclear      float64 `yaml:"min_certainty_for_nuclear"`
	MinTensionForContradiction  float64 `yaml:"min_tension_for_contradiction"`
	MinVividnessForPossibleSelf float64 `yaml:"min_vividness_for_possible_self"`
	ConsolidationIntervalHours  int     `yaml:"consolidation_interval_hours"`
	MaxConversationsPerRun      int     `yaml:"max_conversations_per_run"`
}

// DefaultRumination returns the thresholds the agent ships with.
func DefaultRumination() Rumination {
	return Rumination{
		AdminUserID:   "367f9e509e396d51",
		AgentInstance: "jung_v1",

		MinTensionLevel:             0.5,
		MinEmotionalWeight:          0.3,
		MaxFragmentsPerConversation: 5,

		MinIntensityForTension: 0.4,
		MaxOpenTensionsPerUser: 10,

		MaturityWeights: MaturityWeights{
			Time:       0.25,
			Evidence:   0.25,
			Revisit:    0.15,
			Connection: 0.15,
			Intensity:  0.20,
		},
		DaysToArchive: 14,

		MinMaturityForSynthesis: 0.55,
		MinEvidenceForSynthesis: 2,
		MinDaysForSynthesis:     1,
		MaxSynthesesPerCycle:    3,
		MinNoveltyScore:         0.6,
		NoveltyWindowDays:       14,

		InactivityThresholdHours: 12,
		CooldownHours:            24,
		MaxInsightsPerWeek:       3,

		MinMaturityForExport:        0.6,
		MinRecurrenceForSelf:        3,
		MinChargeForSelf:            0.6,
		FearedSelfCharge:            0.75,
		MinTensionForFeedback:       0.7,
		FeedbackActivityWindowDays:  7,
		SymbolicInsightCertainty:    0.75,
		MinCertaintyForNuclear:      0.7,
		MinTensionForContradiction:  0.5,
		MinVividnessForPossibleSelf: 0.6,
		ConsolidationIntervalHours:  6,
		MaxConversationsPerRun:      20,
	}
}

// LoadRumination returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults unchanged.
func LoadRumination(path string) (Rumination, error) {
	cfg := DefaultRumination()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read rumination config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse rumination config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid rumination config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks ranges that would otherwise silently break the pipeline.
func (r Rumination) Validate() error {
	var errs []error

	if r.AdminUserID == "" {
		errs = append(errs, errors.New("admin_user_id is required"))
	}
	if math.Abs(r.MaturityWeights.Sum()-1.0) > 0.001 {
		errs = append(errs, fmt.Errorf("maturity_weights must sum to 1.0, got %.3f", r.MaturityWeights.Sum()))
	}
	for name, v := range map[string]float64{
		"min_maturity_for_synthesis": r.MinMaturityForSynthesis,
		"min_emotional_weight":       r.MinEmotionalWeight,
		"min_intensity_for_tension":  r.MinIntensityForTension,
		"min_novelty_score":          r.MinNoveltyScore,
		"min_maturity_for_export":    r.MinMaturityForExport,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be within [0,1], got %.2f", name, v))
		}
	}
	if r.MaxFragmentsPerConversation <= 0 {
		errs = append(errs, errors.New("max_fragments_per_conversation must be positive"))
	}
	if r.MaxSynthesesPerCycle <= 0 {
		errs = append(errs, errors.New("max_syntheses_per_cycle must be positive"))
	}

	return errors.Join(errs...)
}
