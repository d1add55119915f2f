package notify

import (
	"context"

	gobot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rxtech-lab/argo-crossover/pkg/errors"
)

// TelegramConfig holds the bot settings. Token is normally taken from TELEGRAM_BOT_TOKEN.
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Token   string `yaml:"token" json:"-" validate:"required_if=Enabled true"`
	ChatID  int64  `yaml:"chat_id" json:"chat_id" validate:"required_if=Enabled true"`
	// APIEndpoint overrides the Bot API URL format, mainly for tests.
	APIEndpoint string `yaml:"api_endpoint" json:"api_endpoint"`
}

type telegramSender interface {
	Send(c gobot.Chattable) (gobot.Message, error)
}

// TelegramNotifier posts every event to one chat.
type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

// NewTelegramNotifier connects to the Bot API, which verifies the token.
func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = gobot.APIEndpoint
	}

	bot, err := gobot.NewBotAPIWithAPIEndpoint(cfg.Token, endpoint)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotificationFailed, "failed to connect telegram bot", err)
	}

	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (n *TelegramNotifier) Notify(_ context.Context, event Event) error {
	msg := gobot.NewMessage(n.chatID, event.Text())
	if _, err := n.bot.Send(msg); err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "failed to send telegram message", err)
	}

	return nil
}
