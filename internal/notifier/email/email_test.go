package email

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alphatic/alphatic/internal/core"
	"github.com/alphatic/alphatic/internal/notifier"
)

func TestEmail_ImplementsNotifier(t *testing.T) {
	var _ notifier.Notifier = (*Email)(nil)
}

func TestEmail_Init_RequiredFields(t *testing.T) {
	e := New("", 0, "", "", "", nil)
	err := e.Init(notifier.Config{Params: map[string]any{
		"host": "smtp.example.com",
	}})
	if !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected config error without from/to, got %v", err)
	}
}

func TestEmail_Init_Valid(t *testing.T) {
	e := New("", 0, "", "", "", nil)
	err := e.Init(notifier.Config{Params: map[string]any{
		"host": "smtp.example.com",
		"port": 587,
		"from": "alerts@example.com",
		"to":   []string{"ops@example.com"},
	}})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
}

func TestFormatAlert(t *testing.T) {
	alert := notifier.Alert{
		Kind:    notifier.KindConsistencyMismatch,
		Ticker:  "AAPL",
		Message: "portfolio and scan produced different totals",
		Details: map[string]any{"cycle": "abc"},
		At:      time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
	}

	body := formatAlert(alert)

	for _, want := range []string{"consistency_mismatch", "AAPL", "different totals", "cycle: abc", "2024-06-01"} {
		if !strings.Contains(body, want) {
			t.Errorf("formatted alert missing %q:\n%s", want, body)
		}
	}
}
