// Package strategy turns an indicator snapshot into an ActionPlan through a
// fixed sequence of gates.
package strategy

import (
	"github.com/newthinker/optdesk/internal/core"
)

// Evaluator produces a plan from a snapshot
type Evaluator interface {
	Evaluate(s core.Snapshot) core.ActionPlan
}

// Config holds the decision thresholds
type Config struct {
	// DirectionalConfidence is the score a trending regime must exceed for LONG/SHORT.
	DirectionalConfidence int `mapstructure:"directional_confidence"`
	// RangeConfidence is the score a range-bound regime must exceed for RANGE_TRADE.
	RangeConfidence int `mapstructure:"range_confidence"`
	// MomentumRSI is the RSI midline for the momentum gate.
	MomentumRSI float64 `mapstructure:"momentum_rsi"`
	// RangeStopPct is the stop distance below the range bottom, as a fraction.
	RangeStopPct float64 `mapstructure:"range_stop_pct"`
	// TightenDivisor sets the tightened stop at reward/TightenDivisor from price.
	TightenDivisor float64 `mapstructure:"tighten_divisor"`
	// StrikeStep is the option strike interval used for suggestions. It is
	// configured once, under options, and copied in.
	StrikeStep float64 `mapstructure:"-"`
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		DirectionalConfidence: 65,
		RangeConfidence:       50,
		MomentumRSI:           50,
		RangeStopPct:          0.005,
		TightenDivisor:        1.5,
		StrikeStep:            100,
	}
}
