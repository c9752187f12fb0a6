package analysis

import (
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/indicator"
)

// Volatility labels derived from ATR%.
const (
	VolatilityHigh     = "High"
	VolatilityModerate = "Moderate"
	VolatilityLow      = "Low"
	VolatilityUnknown  = "Unknown"
)

// RiskContext summarises volatility and trend strength for sizing advice.
type RiskContext struct {
	ATRPercent     *float64
	Volatility     string
	SizeMultiplier float64
	SizingAdvice   string
	TrendStrength  string
}

// AssessRisk maps ATR% to a volatility label and position size multiplier:
// above 2% is High (0.5x), above 1% is Moderate (0.75x), otherwise Low (1x).
func AssessRisk(s core.Snapshot) RiskContext {
	atrPct := indicator.ATRPercent(s)
	if atrPct == nil || s.ADX == nil {
		return RiskContext{
			ATRPercent:     atrPct,
			Volatility:     VolatilityUnknown,
			SizeMultiplier: 1.0,
			SizingAdvice:   "Insufficient data",
			TrendStrength:  "Unknown",
		}
	}

	rc := RiskContext{ATRPercent: atrPct}
	switch {
	case *atrPct > 2:
		rc.Volatility = VolatilityHigh
		rc.SizeMultiplier = 0.5
		rc.SizingAdvice = "Reduce position size to 50% of normal"
	case *atrPct > 1:
		rc.Volatility = VolatilityModerate
		rc.SizeMultiplier = 0.75
		rc.SizingAdvice = "Use 75% of normal position size"
	default:
		rc.Volatility = VolatilityLow
		rc.SizeMultiplier = 1.0
		rc.SizingAdvice = "Standard position sizing acceptable"
	}

	switch {
	case *s.ADX > StrongADX:
		rc.TrendStrength = "Strong"
	case *s.ADX > WeakADX:
		rc.TrendStrength = "Moderate"
	default:
		rc.TrendStrength = "Weak"
	}
	return rc
}
