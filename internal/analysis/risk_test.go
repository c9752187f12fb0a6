package analysis

import (
	"testing"

	"github.com/newthinker/optdesk/internal/core"
)

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name       string
		atr        float64
		adx        float64
		volatility string
		multiplier float64
		strength   string
	}{
		{"high", 3, 30, VolatilityHigh, 0.5, "Strong"},
		{"moderate", 1.5, 22, VolatilityModerate, 0.75, "Moderate"},
		{"low", 0.5, 10, VolatilityLow, 1.0, "Weak"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := AssessRisk(core.Snapshot{Price: core.Float(100), ATR: core.Float(tt.atr), ADX: core.Float(tt.adx)})
			if rc.Volatility != tt.volatility {
				t.Errorf("volatility = %s, want %s", rc.Volatility, tt.volatility)
			}
			if rc.SizeMultiplier != tt.multiplier {
				t.Errorf("multiplier = %f, want %f", rc.SizeMultiplier, tt.multiplier)
			}
			if rc.TrendStrength != tt.strength {
				t.Errorf("strength = %s, want %s", rc.TrendStrength, tt.strength)
			}
		})
	}
}

func TestAssessRisk_Unknown(t *testing.T) {
	rc := AssessRisk(core.Snapshot{Price: core.Float(100)})
	if rc.Volatility != VolatilityUnknown {
		t.Errorf("expected Unknown, got %s", rc.Volatility)
	}
}
