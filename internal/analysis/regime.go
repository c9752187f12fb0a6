// Package analysis classifies market regime and scores trade confidence
// from an indicator snapshot.
package analysis

import (
	"fmt"
	"strings"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/indicator"
)

// Regime thresholds. Comparisons are strict where noted.
const (
	StrongADX      = 25.0 // ADX > 25 is trending
	WeakADX        = 20.0 // ADX < 20 is range-bound
	VolatileATRPct = 2.0  // ATR% >= 2.0 is volatile
)

// RegimeResult is the regime label with a short description
type RegimeResult struct {
	Regime      core.Regime
	Description string
	Trend       core.Trend
}

// ClassifyRegime labels the market from ADX, ATR% and trend. Rules are
// evaluated top-down and the first match wins. Any missing input yields
// Unknown.
func ClassifyRegime(adx, atrPct *float64, trend core.Trend) RegimeResult {
	if adx == nil || atrPct == nil || trend == "" {
		return RegimeResult{Regime: core.RegimeUnknown, Description: "Insufficient data", Trend: trend}
	}

	a, v := *adx, *atrPct
	switch {
	case a > StrongADX && v < VolatileATRPct:
		return RegimeResult{Regime: core.RegimeStrongTrend, Description: "Trending cleanly", Trend: trend}
	case a > StrongADX:
		return RegimeResult{Regime: core.RegimeVolatileTrend, Description: "Trending but choppy", Trend: trend}
	case a < WeakADX:
		return RegimeResult{Regime: core.RegimeRangeBound, Description: "Low volatility consolidation", Trend: trend}
	default:
		return RegimeResult{
			Regime:      core.RegimeWeakTrend,
			Description: fmt.Sprintf("Weak trend with %s tilt", strings.ToLower(string(trend))),
			Trend:       trend,
		}
	}
}

// ClassifySnapshot derives trend and ATR% from s and classifies it.
func ClassifySnapshot(s core.Snapshot) RegimeResult {
	return ClassifyRegime(s.ADX, indicator.ATRPercent(s), indicator.Trend(s))
}
