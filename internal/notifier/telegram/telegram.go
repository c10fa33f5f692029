// Package telegram implements a Telegram Bot API notifier
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/notifier"
)

// Telegram implements the Notifier interface for Telegram Bot API
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
}

// New creates a new Telegram notifier
func New(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *Telegram) Name() string {
	return "telegram"
}

func (t *Telegram) Init(cfg notifier.Config) error {
	if token, ok := cfg.Params["bot_token"].(string); ok {
		t.botToken = token
	}
	if chatID, ok := cfg.Params["chat_id"].(string); ok {
		t.chatID = chatID
	}

	if t.botToken == "" {
		return core.WrapErrorf(core.ErrConfigMissing, "telegram: bot_token is required")
	}
	if t.chatID == "" {
		return core.WrapErrorf(core.ErrConfigMissing, "telegram: chat_id is required")
	}

	return nil
}

func (t *Telegram) Send(alert notifier.Alert) error {
	return t.sendMessage(formatAlert(alert))
}

func (t *Telegram) SendBatch(alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%d alerts*\n\n", len(alerts)))

	for i, alert := range alerts {
		sb.WriteString(formatAlert(alert))
		if i < len(alerts)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return t.sendMessage(sb.String())
}

func formatAlert(alert notifier.Alert) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("*%s*", alert.Kind))
	if alert.Ticker != "" {
		sb.WriteString(fmt.Sprintf(" - %s", alert.Ticker))
	}
	sb.WriteString("\n")
	sb.WriteString(alert.Message)
	sb.WriteString("\n")

	for k, v := range alert.Details {
		sb.WriteString(fmt.Sprintf("%s: %v\n", k, v))
	}

	sb.WriteString(alert.At.Format("2006-01-02 15:04:05"))
	return sb.String()
}

func (t *Telegram) sendMessage(text string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	payload := map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, err)
	}

	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return core.WrapError(core.ErrNotifierFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return core.WrapErrorf(core.ErrNotifierFailed, "telegram API status %d: %v", resp.StatusCode, result)
	}

	return nil
}
