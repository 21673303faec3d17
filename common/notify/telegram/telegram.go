package telegram

import (
	"fmt"
	"net/http"
	"time"

	tg "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Septrum101/update-ddns/config"
)

type Telegram struct {
	ChatID int64
	Token  string
	// Endpoint overrides tg.APIEndpoint, e.g. for a self-hosted bot API server.
	Endpoint string
	Timeout  time.Duration
}

func (t *Telegram) Webhook(title string, content string) error {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = tg.APIEndpoint
	}
	client := &http.Client{Timeout: t.Timeout}

	bot, err := tg.NewBotAPIWithClient(t.Token, endpoint, client)
	if err != nil {
		return fmt.Errorf("[telegram] %w", err)
	}

	msg := tg.NewMessage(t.ChatID, fmt.Sprintf("#%s\nName: %s\n%s",
		config.AppName,
		title,
		content,
	))
	if _, err = bot.Send(msg); err != nil {
		return fmt.Errorf("[telegram] %w", err)
	}
	return nil
}
