package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/notifier"
)

func TestTelegram_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Telegram)(nil)
}

func TestTelegram_Init_RequiresToken(t *testing.T) {
	tg := New("", "")
	err := tg.Init(notifier.Config{Params: map[string]any{"chat_id": "123"}})
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestTelegram_Init_RequiresChatID(t *testing.T) {
	tg := New("", "")
	err := tg.Init(notifier.Config{Params: map[string]any{"bot_token": "tok"}})
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestFormatAlert(t *testing.T) {
	alert := notifier.Alert{
		Kind:    notifier.KindSignalConflict,
		Ticker:  "MSFT",
		Message: "scorers disagree",
		At:      time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
	}

	text := formatAlert(alert)

	for _, want := range []string{"signal_conflict", "MSFT", "scorers disagree"} {
		if !strings.Contains(text, want) {
			t.Errorf("formatted alert missing %q:\n%s", want, text)
		}
	}
}
