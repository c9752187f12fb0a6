package strategy

import (
	"fmt"
	"math"

	"github.com/newthinker/optdesk/internal/analysis"
	"github.com/newthinker/optdesk/internal/core"
)

// candidate is a plan in progress plus the inputs the gates read.
// Gates receive and return candidates by value.
type candidate struct {
	snap   core.Snapshot
	regime analysis.RegimeResult
	lv     levels
	plan   core.ActionPlan
}

type gate func(c candidate) candidate

// reject returns a copy of c downgraded to NO_TRADE with trade fields cleared.
func reject(c candidate, cat core.RejectCategory, reason, invalidation string) candidate {
	c.plan.Decision = core.DecisionNoTrade
	c.plan.RejectCategory = cat
	c.plan.Reason = reason
	c.plan.EntryCondition = "Do not enter"
	c.plan.Target1 = nil
	c.plan.Target2 = nil
	c.plan.StopLoss = nil
	c.plan.RiskReward = nil
	c.plan.Invalidation = invalidation
	return c
}

func (c candidate) directional() bool {
	return c.plan.Decision.IsDirectional()
}

func (e *Engine) requireData(c candidate) candidate {
	s := c.snap
	if s.RSI == nil || s.ADX == nil || s.EMA20 == nil || s.Price == nil {
		return reject(c, core.RejectInsufficientData, "Insufficient data", "Wait for complete indicator data")
	}
	lv, ok := resolveLevels(s)
	if !ok {
		return reject(c, core.RejectInsufficientData, "Insufficient data", "Wait for pivot or support/resistance levels")
	}
	c.lv = lv
	return c
}

func (e *Engine) propose(c candidate) candidate {
	if c.plan.RejectCategory != "" {
		return c
	}
	price := *c.snap.Price
	conf := c.plan.Confidence
	lv := c.lv
	band := fmt.Sprintf("Wait for a clean break of %.2f-%.2f", lv.bottom, lv.top)

	switch c.regime.Regime {
	case core.RegimeStrongTrend, core.RegimeVolatileTrend:
		if !c.regime.Trend.IsDirectional() {
			return reject(c, core.RejectNoDirection, fmt.Sprintf("%s without directional trend", c.regime.Description), band)
		}
		if conf <= e.cfg.DirectionalConfidence {
			return reject(c, core.RejectLowConfidence,
				fmt.Sprintf("Low confidence (%d <= %d)", conf, e.cfg.DirectionalConfidence), band)
		}
		if c.regime.Trend == core.TrendBullish {
			c.plan.Decision = core.DecisionLong
			c.plan.EntryCondition = fmt.Sprintf("Breakout above %.2f or pullback to %.2f", lv.top, lv.pivot)
			c.plan.StopLoss = core.Float(lv.bottom)
			c.plan.Target1 = core.Float(lv.r2)
			c.plan.Target2 = core.Float(lv.r3)
			c.plan.Invalidation = fmt.Sprintf("Close below %.2f", lv.bottom)
		} else {
			c.plan.Decision = core.DecisionShort
			c.plan.EntryCondition = fmt.Sprintf("Breakdown below %.2f or pullback to %.2f", lv.bottom, lv.pivot)
			c.plan.StopLoss = core.Float(lv.top)
			c.plan.Target1 = core.Float(lv.s2)
			c.plan.Target2 = core.Float(lv.s3)
			c.plan.Invalidation = fmt.Sprintf("Close above %.2f", lv.top)
		}
		c.plan.Reason = fmt.Sprintf("%s, %s trend (confidence %d)", c.regime.Description, c.regime.Trend, conf)
		return c

	case core.RegimeRangeBound:
		if conf <= e.cfg.RangeConfidence {
			return reject(c, core.RejectLowConfidence,
				fmt.Sprintf("Low confidence (%d <= %d)", conf, e.cfg.RangeConfidence), band)
		}
		stop := lv.bottom * (1 - e.cfg.RangeStopPct)
		c.plan.Decision = core.DecisionRangeTrade
		c.plan.EntryCondition = fmt.Sprintf("Buy near %.2f / sell near %.2f", lv.bottom, lv.top)
		c.plan.Target1 = core.Float(lv.top)
		c.plan.Target2 = core.Float(lv.pivot)
		c.plan.StopLoss = core.Float(stop)
		c.plan.Invalidation = fmt.Sprintf("Close outside %.2f-%.2f", stop, lv.top)
		c.plan.Reason = fmt.Sprintf("%s around %.2f (confidence %d)", c.regime.Description, price, conf)
		return c

	case core.RegimeWeakTrend:
		return reject(c, core.RejectWeakTrend, c.regime.Description, "Wait for ADX above 25")

	default:
		return reject(c, core.RejectUnknownRegime, "Insufficient data", "Wait for complete indicator data")
	}
}

func (e *Engine) pivotGate(c candidate) candidate {
	if !c.directional() {
		return c
	}
	price := *c.snap.Price
	switch {
	case c.plan.Decision == core.DecisionLong && price <= c.lv.pivot:
		return reject(c, core.RejectCountertrend,
			fmt.Sprintf("Avoid countertrend long: price %.2f at or below pivot %.2f", price, c.lv.pivot),
			fmt.Sprintf("Wait for price above %.2f", c.lv.pivot))
	case c.plan.Decision == core.DecisionShort && price >= c.lv.pivot:
		return reject(c, core.RejectCountertrend,
			fmt.Sprintf("Avoid countertrend short: price %.2f at or above pivot %.2f", price, c.lv.pivot),
			fmt.Sprintf("Wait for price below %.2f", c.lv.pivot))
	}
	return c
}

func (e *Engine) momentumGate(c candidate) candidate {
	if !c.directional() {
		return c
	}
	rsi := *c.snap.RSI
	switch {
	case c.plan.Decision == core.DecisionLong && rsi < e.cfg.MomentumRSI:
		return reject(c, core.RejectMomentum,
			fmt.Sprintf("Momentum not confirming long: RSI %.1f below %.0f", rsi, e.cfg.MomentumRSI),
			fmt.Sprintf("Wait for RSI above %.0f", e.cfg.MomentumRSI))
	case c.plan.Decision == core.DecisionShort && rsi > e.cfg.MomentumRSI:
		return reject(c, core.RejectMomentum,
			fmt.Sprintf("Momentum not confirming short: RSI %.1f above %.0f", rsi, e.cfg.MomentumRSI),
			fmt.Sprintf("Wait for RSI below %.0f", e.cfg.MomentumRSI))
	}
	return c
}

func (e *Engine) slopeGate(c candidate) candidate {
	if !c.directional() {
		return c
	}
	s20, s50 := slopes(c.snap)
	if s20 == nil || s50 == nil {
		return reject(c, core.RejectSlope, "EMA slope unavailable", "Wait for EMA history")
	}
	if c.plan.Decision == core.DecisionLong && (*s20 <= 0 || *s50 <= 0) {
		return reject(c, core.RejectSlope,
			fmt.Sprintf("EMA slopes not rising (EMA20 %.2f, EMA50 %.2f)", *s20, *s50),
			"Wait for rising EMA20 and EMA50")
	}
	if c.plan.Decision == core.DecisionShort && (*s20 >= 0 || *s50 >= 0) {
		return reject(c, core.RejectSlope,
			fmt.Sprintf("EMA slopes not falling (EMA20 %.2f, EMA50 %.2f)", *s20, *s50),
			"Wait for falling EMA20 and EMA50")
	}
	return c
}

// guardRiskReward tightens the stop when risk exceeds reward. The trade is
// kept with an annotated invalidation.
func (e *Engine) guardRiskReward(c candidate) candidate {
	if !c.directional() {
		return c
	}
	price := *c.snap.Price
	reward := math.Abs(*c.plan.Target1 - price)
	risk := math.Abs(price - *c.plan.StopLoss)
	if risk <= reward {
		return c
	}
	div := e.cfg.TightenDivisor
	if div <= 0 {
		div = 1.5
	}
	stop := price - reward/div
	if c.plan.Decision == core.DecisionShort {
		stop = price + reward/div
	}
	c.plan.StopLoss = core.Float(stop)
	c.plan.Invalidation = fmt.Sprintf("Tightened SL: %.2f (risk %.2f exceeded reward %.2f)", stop, risk, reward)
	return c
}

func (e *Engine) riskReward(c candidate) candidate {
	if c.plan.Target1 == nil || c.plan.StopLoss == nil {
		return c
	}
	price := *c.snap.Price
	r := math.Abs(price - *c.plan.StopLoss)
	if r == 0 {
		c.plan.RiskReward = nil
		return c
	}
	c.plan.RiskReward = core.Float(math.Abs(*c.plan.Target1-price) / r)
	return c
}

func (e *Engine) suggestStrike(c candidate) candidate {
	c.plan.Strike = "N/A"
	if !c.directional() {
		return c
	}
	step := e.cfg.StrikeStep
	atm := strikeFor(*c.snap.Price, step)
	if c.plan.Decision == core.DecisionLong {
		c.plan.Strike = fmt.Sprintf("ATM %.0f CE / OTM %.0f CE", atm, atm+step)
	} else {
		c.plan.Strike = fmt.Sprintf("ATM %.0f PE / OTM %.0f PE", atm, atm-step)
	}
	return c
}

func (e *Engine) verdict(c candidate) candidate {
	switch c.plan.Decision {
	case core.DecisionLong:
		c.plan.Verdict = "Bullish continuation"
	case core.DecisionShort:
		c.plan.Verdict = "Bearish continuation"
	case core.DecisionRangeTrade:
		c.plan.Verdict = "Range trade"
	default:
		c.plan.Verdict = "Stand aside"
	}
	return c
}
