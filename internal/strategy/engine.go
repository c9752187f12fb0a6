package strategy

import (
	"math"

	"github.com/newthinker/optdesk/internal/analysis"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/indicator"
	"go.uber.org/zap"
)

// Engine evaluates snapshots into action plans. It holds no per-call state;
// evaluating the same snapshot twice yields the same plan.
type Engine struct {
	cfg    Config
	logger *zap.Logger
	gates  []gate
}

// NewEngine creates a new decision engine
func NewEngine(cfg Config, logger ...*zap.Logger) *Engine {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	e := &Engine{cfg: cfg, logger: l}
	e.gates = []gate{
		e.requireData,
		e.propose,
		e.pivotGate,
		e.momentumGate,
		e.slopeGate,
		e.guardRiskReward,
		e.riskReward,
		e.suggestStrike,
		e.verdict,
	}
	return e
}

// Config returns the engine thresholds
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate runs the gate pipeline. Gates after the proposal can only
// downgrade a plan to NO_TRADE, never upgrade it.
func (e *Engine) Evaluate(s core.Snapshot) core.ActionPlan {
	rg := analysis.ClassifySnapshot(s)
	conf := analysis.ScoreConfidence(rg.Trend, s.ADX, s.RSI, s.VolumeRatio)

	c := candidate{
		snap:   s,
		regime: rg,
		plan: core.ActionPlan{
			Symbol:     s.Symbol,
			Decision:   core.DecisionNoTrade,
			Confidence: conf.Score,
			Factors:    conf.Factors,
			Regime:     rg.Regime,
			Trend:      rg.Trend,
			Price:      s.Price,
		},
	}

	for _, g := range e.gates {
		c = g(c)
	}

	e.logger.Debug("plan evaluated",
		zap.String("symbol", s.Symbol),
		zap.String("decision", string(c.plan.Decision)),
		zap.String("regime", string(c.plan.Regime)),
		zap.Int("confidence", c.plan.Confidence),
		zap.String("reject", string(c.plan.RejectCategory)),
	)
	return c.plan
}

// strikeFor rounds price to the nearest strike step.
func strikeFor(price, step float64) float64 {
	if step <= 0 {
		return price
	}
	return math.Round(price/step) * step
}

var _ Evaluator = (*Engine)(nil)

// slopes returns the one-bar EMA20 and EMA50 slopes.
func slopes(s core.Snapshot) (*float64, *float64) {
	return indicator.Slope(s.EMA20, s.EMA20Prev), indicator.Slope(s.EMA50, s.EMA50Prev)
}
