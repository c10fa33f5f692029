package indicator

import (
	"math"
	"testing"
)

func TestSMA_KnownValues(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	got := SMA(prices, 3)

	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("sma[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestSMA_WindowEqualsLength(t *testing.T) {
	got := SMA([]float64{2, 4, 6}, 3)
	if len(got) != 1 || got[0] != 4 {
		t.Fatalf("got %v, want [4]", got)
	}
}

func TestSMA_InsufficientData(t *testing.T) {
	if got := SMA([]float64{1, 2}, 3); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
	if got := SMA([]float64{1, 2, 3}, 0); len(got) != 0 {
		t.Errorf("expected empty result for zero period, got %v", got)
	}
}

func TestSMA_RunningSumStaysAccurate(t *testing.T) {
	// Large values exercise the incremental sum against drift.
	prices := make([]float64, 500)
	for i := range prices {
		prices[i] = 1e6 + float64(i)
	}
	got := SMA(prices, 200)

	last := got[len(got)-1]
	var want float64
	for _, p := range prices[300:] {
		want += p
	}
	want /= 200

	if math.Abs(last-want) > 1e-6 {
		t.Errorf("last sma = %f, want %f", last, want)
	}
}

func TestLast(t *testing.T) {
	if v, ok := Last([]float64{1, 2, 3}); !ok || v != 3 {
		t.Errorf("Last = %f, %v; want 3, true", v, ok)
	}
	if _, ok := Last(nil); ok {
		t.Error("Last(nil) should report not ok")
	}
}
