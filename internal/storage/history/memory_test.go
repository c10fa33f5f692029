package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alphatic/alphatic/internal/core"
)

func eval(ticker, callSite string, verdict core.AgreementVerdict, at time.Time) core.Evaluation {
	return core.Evaluation{
		Ticker:    ticker,
		CallSite:  callSite,
		Verdict:   verdict,
		Technical: core.TechnicalScore{Action: core.ActionHold},
		CreatedAt: at,
	}
}

func TestMemoryStore_SaveAndList(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	if err := store.Save(ctx, eval("AAPL", "portfolio", core.VerdictAligned, time.Now())); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	evals, err := store.List(ctx, ListFilter{Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(evals) != 1 {
		t.Errorf("expected 1 evaluation, got %d", len(evals))
	}
}

func TestMemoryStore_ListByCallSite(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	store.Save(ctx, eval("AAPL", "portfolio", core.VerdictAligned, time.Now()))
	store.Save(ctx, eval("GOOG", "scan", core.VerdictMixed, time.Now()))

	evals, _ := store.List(ctx, ListFilter{CallSite: "scan"})
	if len(evals) != 1 {
		t.Errorf("expected 1, got %d", len(evals))
	}
}

func TestMemoryStore_ListByVerdict(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	store.Save(ctx, eval("AAPL", "scan", core.VerdictConflict, time.Now()))
	store.Save(ctx, eval("GOOG", "scan", core.VerdictAligned, time.Now()))
	store.Save(ctx, eval("MSFT", "scan", core.VerdictConflict, time.Now()))

	n, _ := store.Count(ctx, ListFilter{Verdict: core.VerdictConflict})
	if n != 2 {
		t.Errorf("expected 2 conflicts, got %d", n)
	}
}

func TestMemoryStore_ListByTimeRange(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	now := time.Now()
	store.Save(ctx, eval("AAPL", "scan", core.VerdictMixed, now.Add(-2*time.Hour)))
	store.Save(ctx, eval("GOOG", "scan", core.VerdictMixed, now))

	evals, _ := store.List(ctx, ListFilter{From: now.Add(-1 * time.Hour)})
	if len(evals) != 1 {
		t.Errorf("expected 1, got %d", len(evals))
	}
}

func TestMemoryStore_MaxSize(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	store.Save(ctx, eval("A", "scan", core.VerdictMixed, time.Now()))
	store.Save(ctx, eval("B", "scan", core.VerdictMixed, time.Now()))
	store.Save(ctx, eval("C", "scan", core.VerdictMixed, time.Now()))

	evals, _ := store.List(ctx, ListFilter{})
	if len(evals) != 2 {
		t.Errorf("expected 2 (max size), got %d", len(evals))
	}
	if evals[0].Ticker != "B" {
		t.Errorf("oldest surviving evaluation should be B, got %s", evals[0].Ticker)
	}
}

func TestMemoryStore_Latest(t *testing.T) {
	store := NewMemoryStore(100)
	ctx := context.Background()

	now := time.Now()
	store.Save(ctx, eval("AAPL", "portfolio", core.VerdictMixed, now.Add(-time.Hour)))
	store.Save(ctx, eval("AAPL", "scan", core.VerdictAligned, now))

	latest, err := store.Latest(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.CallSite != "scan" {
		t.Errorf("expected most recent save, got call site %s", latest.CallSite)
	}
}

func TestMemoryStore_LatestNotFound(t *testing.T) {
	store := NewMemoryStore(100)

	_, err := store.Latest(context.Background(), "UNKNOWN")
	if !errors.Is(err, core.ErrEvaluationNotFound) {
		t.Errorf("expected ErrEvaluationNotFound, got %v", err)
	}
}
