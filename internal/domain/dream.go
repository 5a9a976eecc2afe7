package domain

import "time"

// Dream is a symbolic narrative generated from recent fragments.
type Dream struct {
	ID               int64     `json:"id"`
	UserID           string    `json:"user_id"`
	DreamContent     string    `json:"dream_content"`
	SymbolicTheme    string    `json:"symbolic_theme"`
	ExtractedInsight string    `json:"extracted_insight,omitempty"`
	ImageURL         string    `json:"image_url,omitempty"`
	ImagePrompt      string    `json:"image_prompt,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// DreamDraft is the dream model's output.
type DreamDraft struct {
	Narrative     string `json:"dream_narrative"`
	SymbolicTheme string `json:"symbolic_theme"`
}

// Research is a synthetic article produced by the scholar engine.
type Research struct {
	ID                 int64     `json:"id"`
	UserID             string    `json:"user_id"`
	Topic              string    `json:"topic"`
	SourceURL          string    `json:"source_url"`
	RawExcerpt         string    `json:"raw_excerpt"`
	SynthesizedInsight string    `json:"synthesized_insight"`
	CreatedAt          time.Time `json:"created_at"`
}

// ResearchTopic is the scholar model's decision on whether to research.
type ResearchTopic struct {
	ShouldResearch bool   `json:"should_research"`
	Topic          string `json:"topic"`
}
