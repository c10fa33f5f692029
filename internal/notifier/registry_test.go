package notifier

import (
	"errors"
	"testing"
	"time"

	"github.com/alphatic/alphatic/internal/core"
)

// mockNotifier records delivered alerts.
type mockNotifier struct {
	name    string
	sent    []Alert
	batches [][]Alert
	fail    bool
}

func (m *mockNotifier) Name() string          { return m.name }
func (m *mockNotifier) Init(cfg Config) error { return nil }

func (m *mockNotifier) Send(alert Alert) error {
	if m.fail {
		return core.WrapErrorf(core.ErrNotifierFailed, "delivery refused")
	}
	m.sent = append(m.sent, alert)
	return nil
}

func (m *mockNotifier) SendBatch(alerts []Alert) error {
	if m.fail {
		return core.WrapErrorf(core.ErrNotifierFailed, "delivery refused")
	}
	m.batches = append(m.batches, alerts)
	return nil
}

func mismatchAlert() Alert {
	return Alert{
		Kind:    KindConsistencyMismatch,
		Ticker:  "AAPL",
		Message: "portfolio and scan produced different totals",
		Details: map[string]any{"portfolio_total": 3.5, "scan_total": 2.0},
		At:      time.Now(),
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&mockNotifier{name: "webhook"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	err := r.Register(&mockNotifier{name: "webhook"})
	if !errors.Is(err, core.ErrNotifierFailed) {
		t.Errorf("expected duplicate registration error, got %v", err)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockNotifier{name: "webhook"})

	n, err := r.Get("webhook")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if n.Name() != "webhook" {
		t.Errorf("wrong notifier: %s", n.Name())
	}

	if _, err := r.Get("missing"); err == nil {
		t.Error("expected error for unknown notifier")
	}
}

func TestRegistry_NotifyAll(t *testing.T) {
	r := NewRegistry()
	a := &mockNotifier{name: "a"}
	b := &mockNotifier{name: "b"}
	r.Register(a)
	r.Register(b)

	errs := r.NotifyAll(mismatchAlert())
	if len(errs) != 0 {
		t.Errorf("unexpected delivery errors: %v", errs)
	}
	if len(a.sent) != 1 || len(b.sent) != 1 {
		t.Errorf("alert not delivered to all notifiers: a=%d b=%d", len(a.sent), len(b.sent))
	}
}

func TestRegistry_NotifyAll_PartialFailure(t *testing.T) {
	r := NewRegistry()
	good := &mockNotifier{name: "good"}
	bad := &mockNotifier{name: "bad", fail: true}
	r.Register(good)
	r.Register(bad)

	errs := r.NotifyAll(mismatchAlert())

	// One failure is reported, the healthy notifier still delivers.
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if _, ok := errs["bad"]; !ok {
		t.Error("failure should be attributed to the failing notifier")
	}
	if len(good.sent) != 1 {
		t.Error("healthy notifier should still receive the alert")
	}
}

func TestRegistry_NotifyAllBatch(t *testing.T) {
	r := NewRegistry()
	m := &mockNotifier{name: "webhook"}
	r.Register(m)

	alerts := []Alert{mismatchAlert(), {Kind: KindSignalConflict, Ticker: "GOOG", At: time.Now()}}
	errs := r.NotifyAllBatch(alerts)

	if len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
	if len(m.batches) != 1 || len(m.batches[0]) != 2 {
		t.Errorf("batch not delivered intact")
	}
}
