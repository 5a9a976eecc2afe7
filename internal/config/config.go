package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by JUNG_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("JUNG_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabasePath returns the SQLite file path.
// Defaults to "data/jung_hybrid.db" if not set.
func DatabasePath() string {
	p := os.Getenv("DATABASE_PATH")
	if p == "" {
		return "data/jung_hybrid.db"
	}
	return p
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func OpenRouterAPIKey() string {
	return os.Getenv("OPENROUTER_API_KEY")
}

func OpenRouterBaseURL() string {
	u := os.Getenv("OPENROUTER_BASE_URL")
	if u == "" {
		return "https://openrouter.ai/api/v1"
	}
	return u
}

// LLMProvider returns the configured LLM provider.
// Defaults to "anthropic" if not set.
// Valid values: anthropic, openrouter, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "anthropic"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "openrouter":
		return OpenRouterAPIKey()
	case "mock":
		return ""
	default:
		return AnthropicAPIKey()
	}
}

// LLMModel overrides the provider's default model when set.
func LLMModel() string {
	return os.Getenv("LLM_MODEL")
}

func TelegramBotToken() string {
	return os.Getenv("TELEGRAM_BOT_TOKEN")
}

// AdminUserID is the only user whose conversations are ruminated on.
func AdminUserID() string {
	id := os.Getenv("ADMIN_USER_ID")
	if id == "" {
		return "367f9e509e396d51"
	}
	return id
}

// AdminChatID returns the Telegram chat that receives deliveries.
// Returns 0 when unset or malformed; delivery then falls back to logging.
func AdminChatID() int64 {
	id, err := strconv.ParseInt(os.Getenv("ADMIN_CHAT_ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// AdminAPIKey guards the /admin and /v1 routes.
func AdminAPIKey() string {
	return os.Getenv("ADMIN_API_KEY")
}

// RuminationSchedule is the cron expression for the rumination cycle.
// Defaults to every 12 hours.
func RuminationSchedule() string {
	s := os.Getenv("RUMINATION_SCHEDULE")
	if s == "" {
		return "0 */12 * * *"
	}
	return s
}

// BridgeSchedule is the cron expression for identity consolidation + bridge.
// Defaults to every 6 hours.
func BridgeSchedule() string {
	s := os.Getenv("BRIDGE_SCHEDULE")
	if s == "" {
		return "0 */6 * * *"
	}
	return s
}

// RuminationConfigPath points at an optional YAML thresholds file.
func RuminationConfigPath() string {
	return os.Getenv("RUMINATION_CONFIG")
}

// DreamShareImages reports whether dream images are pushed to the admin chat.
func DreamShareImages() bool {
	v, _ := strconv.ParseBool(os.Getenv("DREAM_SHARE_IMAGES"))
	return v
}

// RateLimitRPS returns requests per second limit.
// Defaults to 10 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 10
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if level == "" {
		return "info"
	}
	return level
}
