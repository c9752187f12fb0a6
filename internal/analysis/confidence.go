package analysis

import (
	"fmt"

	"github.com/newthinker/optdesk/internal/core"
)

// Component weights. The score is the plain sum and is not clamped.
const (
	weightAlignment = 30
	weightStrength  = 25
	weightMomentum  = 25
	weightVolume    = 20

	volumeSurgeRatio = 1.2
)

// ConfidenceScore is the additive 0-100 confidence with its contributing
// factors in evaluation order.
type ConfidenceScore struct {
	Score   int
	Factors []string
}

// ScoreConfidence sums four independent components: trend alignment, trend
// strength, momentum and volume. Missing ADX, RSI or volume ratio score the
// lowest tier of their component.
func ScoreConfidence(trend core.Trend, adx, rsi, volumeRatio *float64) ConfidenceScore {
	var cs ConfidenceScore

	if trend.IsDirectional() {
		cs.add(weightAlignment, fmt.Sprintf("Trend aligned (%s)", trend))
	} else {
		cs.add(10, "No trend alignment")
	}

	switch {
	case adx != nil && *adx > StrongADX:
		cs.add(weightStrength, fmt.Sprintf("Strong trend strength (ADX %.1f)", *adx))
	case adx != nil && *adx > WeakADX:
		cs.add(15, fmt.Sprintf("Moderate trend strength (ADX %.1f)", *adx))
	case adx != nil:
		cs.add(5, fmt.Sprintf("Weak trend strength (ADX %.1f)", *adx))
	default:
		cs.add(5, "Trend strength unavailable")
	}

	cs.add(momentumPoints(trend, rsi))

	if volumeRatio != nil && *volumeRatio > volumeSurgeRatio {
		cs.add(weightVolume, fmt.Sprintf("Volume surge (%.2fx average)", *volumeRatio))
	} else if volumeRatio != nil {
		cs.add(10, fmt.Sprintf("Normal volume (%.2fx average)", *volumeRatio))
	} else {
		cs.add(10, "Volume unavailable")
	}

	return cs
}

func momentumPoints(trend core.Trend, rsi *float64) (int, string) {
	if rsi == nil {
		if trend == core.TrendNeutral {
			return 10, "RSI unavailable"
		}
		return 5, "RSI unavailable"
	}
	r := *rsi

	switch trend {
	case core.TrendBullish:
		switch {
		case r >= 40 && r <= 70:
			return weightMomentum, fmt.Sprintf("RSI %.1f in bullish band", r)
		case r > 70:
			return 10, fmt.Sprintf("RSI %.1f overbought", r)
		default:
			return 5, fmt.Sprintf("RSI %.1f weak for bullish trend", r)
		}
	case core.TrendBearish:
		switch {
		case r >= 30 && r <= 60:
			return weightMomentum, fmt.Sprintf("RSI %.1f in bearish band", r)
		case r < 30:
			return 10, fmt.Sprintf("RSI %.1f oversold", r)
		default:
			return 5, fmt.Sprintf("RSI %.1f strong for bearish trend", r)
		}
	default:
		if r >= 40 && r <= 60 {
			return weightMomentum, fmt.Sprintf("RSI %.1f neutral", r)
		}
		return 10, fmt.Sprintf("RSI %.1f stretched without trend", r)
	}
}

func (c *ConfidenceScore) add(points int, factor string) {
	c.Score += points
	c.Factors = append(c.Factors, fmt.Sprintf("%s (+%d)", factor, points))
}
