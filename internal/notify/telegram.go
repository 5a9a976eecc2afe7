// Package notify delivers agent-initiated messages to the admin.
package notify

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
)

// telegramCaptionLimit is Telegram's maximum photo caption length.
const telegramCaptionLimit = 1024

// Telegram sends messages to a single chat through the Bot API.
type Telegram struct {
	bot    *telego.Bot
	chatID int64
	logger *zap.Logger
}

// NewTelegram creates a notifier for chatID. Extra bot options are passed
// through to telego, e.g. telego.WithAPIServer in tests.
func NewTelegram(token string, chatID int64, logger *zap.Logger, opts ...telego.BotOption) (*Telegram, error) {
	opts = append([]telego.BotOption{telego.WithDiscardLogger()}, opts...)
	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	if _, err := t.bot.SendMessage(ctx, tu.Message(tu.ID(t.chatID), text)); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	t.logger.Debug("telegram message sent", zap.Int64("chat_id", t.chatID), zap.Int("length", len(text)))
	return nil
}

func (t *Telegram) SendPhoto(ctx context.Context, url, caption string) error {
	params := tu.Photo(tu.ID(t.chatID), tu.FileFromURL(url))
	if caption != "" {
		params = params.WithCaption(truncateRunes(caption, telegramCaptionLimit))
	}
	if _, err := t.bot.SendPhoto(ctx, params); err != nil {
		return fmt.Errorf("telegram: send photo: %w", err)
	}
	t.logger.Debug("telegram photo sent", zap.Int64("chat_id", t.chatID))
	return nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

// LogNotifier writes outgoing messages to the log instead of sending them.
// It is used when no bot token or admin chat is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendMessage(_ context.Context, text string) error {
	n.logger.Info("notification (no telegram configured)", zap.String("text", text))
	return nil
}

func (n *LogNotifier) SendPhoto(_ context.Context, url, caption string) error {
	n.logger.Info("photo notification (no telegram configured)", zap.String("url", url), zap.String("caption", caption))
	return nil
}

// New picks the Telegram notifier when token and chat are set, else the log notifier.
func New(token string, chatID int64, logger *zap.Logger) (domain.Notifier, error) {
	if token == "" || chatID == 0 {
		logger.Warn("telegram not configured, notifications will only be logged")
		return NewLogNotifier(logger), nil
	}
	return NewTelegram(token, chatID, logger)
}

var (
	_ domain.Notifier = (*Telegram)(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
)
