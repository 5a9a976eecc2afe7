package domain

import "time"

// Platforms a conversation can originate from.
const (
	PlatformTelegram            = "telegram"
	PlatformWeb                 = "web"
	PlatformProactiveRumination = "proactive_rumination"
	PlatformDream               = "dream"
)

// Conversation is one exchange between a user and the agent. It is the raw
// material for fragment extraction, identity extraction and research topics.
type Conversation struct {
	ID              int64     `json:"id"`
	UserID          string    `json:"user_id"`
	UserInput       string    `json:"user_input"`
	AIResponse      string    `json:"ai_response"`
	TensionLevel    float64   `json:"tension_level"`
	AffectiveCharge float64   `json:"affective_charge"`
	Platform        string    `json:"platform"`
	SessionID       string    `json:"session_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Synthetic reports whether the conversation was produced by the agent itself
// (dreams, proactive deliveries) rather than by a user.
func (c Conversation) Synthetic() bool {
	return c.Platform == PlatformDream || c.Platform == PlatformProactiveRumination
}
