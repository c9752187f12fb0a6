package indicator

import (
	"math"
	"testing"
)

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	// SMA(3) for [10,11,12,13,14,15]:
	// [0] = (10+11+12)/3 = 11
	// [1] = (11+12+13)/3 = 12
	// [2] = (12+13+14)/3 = 13
	// [3] = (13+14+15)/3 = 14

	expected := []float64{11, 12, 13, 14}

	if len(sma) != len(expected) {
		t.Fatalf("expected %d values, got %d", len(expected), len(sma))
	}

	for i, v := range expected {
		if sma[i] != v {
			t.Errorf("sma[%d] = %f, want %f", i, sma[i], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	prices := []float64{10, 11}
	sma := SMA(prices, 5)

	if len(sma) != 0 {
		t.Errorf("expected empty slice, got %d values", len(sma))
	}
}

func TestVolumeRatio(t *testing.T) {
	volumes := []float64{100, 100, 100, 200}
	// mean of last 4 = 125, last = 200
	got := VolumeRatio(volumes, 4)
	if !almostEqual(got, 1.6, 1e-9) {
		t.Errorf("expected 1.6, got %f", got)
	}
}

func TestVolumeRatio_ShortHistory(t *testing.T) {
	if got := VolumeRatio([]float64{100}, 20); got != 1.0 {
		t.Errorf("expected 1.0 for short history, got %f", got)
	}
	if got := VolumeRatio([]float64{0, 0}, 2); got != 1.0 {
		t.Errorf("expected 1.0 for zero average, got %f", got)
	}
}

func TestHighLow(t *testing.T) {
	highs := []float64{10, 15, 12, 11}
	lows := []float64{5, 7, 6, 8}

	h, l, ok := HighLow(highs, lows, 3)
	if !ok {
		t.Fatal("expected ok")
	}
	if h != 15 || l != 6 {
		t.Errorf("expected 15/6, got %f/%f", h, l)
	}

	if _, _, ok := HighLow(nil, nil, 20); ok {
		t.Error("expected not ok for empty input")
	}
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}
