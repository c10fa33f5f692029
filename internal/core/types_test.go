package core

import (
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestPriceSeries_Closes(t *testing.T) {
	s := PriceSeries{
		Ticker: "SPY",
		Points: []PricePoint{
			{Date: day(0), Close: 100},
			{Date: day(1), Close: 101},
			{Date: day(2), Close: 99},
		},
	}

	closes := s.Closes()
	expected := []float64{100, 101, 99}
	if len(closes) != len(expected) {
		t.Fatalf("expected %d closes, got %d", len(expected), len(closes))
	}
	for i, v := range expected {
		if closes[i] != v {
			t.Errorf("closes[%d] = %f, want %f", i, closes[i], v)
		}
	}
}

func TestPriceSeries_Returns(t *testing.T) {
	s := PriceSeries{
		Points: []PricePoint{
			{Date: day(0), Close: 100},
			{Date: day(1), Close: 110},
			{Date: day(2), Close: 99},
		},
	}

	rets := s.Returns()
	if len(rets) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(rets))
	}
	if rets[0] < 0.0999 || rets[0] > 0.1001 {
		t.Errorf("rets[0] = %f, want ~0.1", rets[0])
	}
	if rets[1] > -0.0999 || rets[1] < -0.1001 {
		t.Errorf("rets[1] = %f, want ~-0.1", rets[1])
	}
}

func TestPriceSeries_ReturnsEmpty(t *testing.T) {
	empty := PriceSeries{}
	if rets := empty.Returns(); len(rets) != 0 {
		t.Errorf("empty series should yield empty returns, got %d", len(rets))
	}

	single := PriceSeries{Points: []PricePoint{{Date: day(0), Close: 100}}}
	if rets := single.Returns(); len(rets) != 0 {
		t.Errorf("single-point series should yield empty returns, got %d", len(rets))
	}
}

func TestPriceSeries_ReturnsZeroPrice(t *testing.T) {
	s := PriceSeries{
		Points: []PricePoint{
			{Date: day(0), Close: 0},
			{Date: day(1), Close: 100},
		},
	}
	// Zero previous close must not divide; it yields a zero return.
	rets := s.Returns()
	if len(rets) != 1 || rets[0] != 0 {
		t.Errorf("expected [0], got %v", rets)
	}
}

func TestPriceSeries_Slice(t *testing.T) {
	s := PriceSeries{
		Ticker: "AGG",
		Points: []PricePoint{
			{Date: day(0), Close: 100},
			{Date: day(1), Close: 101},
			{Date: day(2), Close: 102},
			{Date: day(3), Close: 103},
		},
	}

	sub := s.Slice(day(1), day(2))
	if sub.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", sub.Len())
	}
	if sub.Points[0].Close != 101 || sub.Points[1].Close != 102 {
		t.Errorf("unexpected slice contents: %+v", sub.Points)
	}
	if sub.Ticker != "AGG" {
		t.Errorf("slice should keep ticker, got %s", sub.Ticker)
	}
}

func TestPriceSeries_Validate(t *testing.T) {
	ok := PriceSeries{
		Points: []PricePoint{
			{Date: day(0)}, {Date: day(1)}, {Date: day(2)},
		},
	}
	if err := ok.Validate(); err != nil {
		t.Errorf("expected valid series, got %v", err)
	}

	dup := PriceSeries{
		Ticker: "SPY",
		Points: []PricePoint{
			{Date: day(0)}, {Date: day(1)}, {Date: day(1)},
		},
	}
	if err := dup.Validate(); err == nil {
		t.Error("duplicate dates should fail validation")
	}
}

func TestWindow_Covers(t *testing.T) {
	outer := Window{Start: day(0), End: day(10)}

	tests := []struct {
		name  string
		inner Window
		want  bool
	}{
		{"identical", Window{Start: day(0), End: day(10)}, true},
		{"sub-window", Window{Start: day(2), End: day(8)}, true},
		{"starts earlier", Window{Start: day(-1), End: day(8)}, false},
		{"ends later", Window{Start: day(2), End: day(11)}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := outer.Covers(tc.inner); got != tc.want {
				t.Errorf("Covers = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPriceTable_Tickers(t *testing.T) {
	table := PriceTable{
		Series: map[string]PriceSeries{
			"SPY": {Ticker: "SPY"},
			"AGG": {Ticker: "AGG"},
			"QQQ": {Ticker: "QQQ"},
		},
	}

	got := table.Tickers()
	expected := []string{"AGG", "QQQ", "SPY"}
	for i, sym := range expected {
		if got[i] != sym {
			t.Errorf("tickers[%d] = %s, want %s", i, got[i], sym)
		}
	}
}

func TestAction_Constants(t *testing.T) {
	actions := []Action{ActionBuy, ActionSell, ActionHold}
	expected := []string{"buy", "sell", "hold"}

	for i, a := range actions {
		if string(a) != expected[i] {
			t.Errorf("expected %s, got %s", expected[i], a)
		}
	}
}
