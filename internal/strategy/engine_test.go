package strategy

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return core.Float(v) }

// bullishSnapshot is a clean strong-trend long setup: confidence 100,
// price above pivot, RSI above 50, both EMAs rising.
func bullishSnapshot() core.Snapshot {
	return core.Snapshot{
		Symbol:      "^BSESN",
		Price:       f(22000),
		RSI:         f(60),
		ADX:         f(30),
		ATR:         f(200),
		EMA20:       f(21900),
		EMA20Prev:   f(21880),
		EMA50:       f(21800),
		EMA50Prev:   f(21790),
		VolumeRatio: f(1.5),
		CPRTop:      f(21950),
		CPRBottom:   f(21850),
		CPRPivot:    f(21900),
		PivotR2:     f(22200),
		PivotR3:     f(22400),
		PivotS2:     f(21600),
		PivotS3:     f(21400),
	}
}

func bearishSnapshot() core.Snapshot {
	return core.Snapshot{
		Symbol:      "^BSESN",
		Price:       f(21000),
		RSI:         f(40),
		ADX:         f(30),
		ATR:         f(200),
		EMA20:       f(21100),
		EMA20Prev:   f(21120),
		EMA50:       f(21200),
		EMA50Prev:   f(21220),
		VolumeRatio: f(1.5),
		CPRTop:      f(21150),
		CPRBottom:   f(21050),
		CPRPivot:    f(21100),
		PivotR2:     f(21400),
		PivotR3:     f(21600),
		PivotS2:     f(20800),
		PivotS3:     f(20600),
	}
}

func assertNoTradeFields(t *testing.T, p core.ActionPlan) {
	t.Helper()
	assert.Equal(t, core.DecisionNoTrade, p.Decision)
	assert.Nil(t, p.Target1)
	assert.Nil(t, p.Target2)
	assert.Nil(t, p.StopLoss)
	assert.Nil(t, p.RiskReward)
	assert.Equal(t, "N/A", p.Strike)
	assert.Equal(t, "Stand aside", p.Verdict)
}

func TestEngine_Long(t *testing.T) {
	e := NewEngine(DefaultConfig())
	p := e.Evaluate(bullishSnapshot())

	require.Equal(t, core.DecisionLong, p.Decision, p.Reason)
	assert.False(t, p.IsRejected())
	assert.Equal(t, core.RegimeStrongTrend, p.Regime)
	assert.Equal(t, core.TrendBullish, p.Trend)
	assert.Equal(t, 100, p.Confidence)
	assert.Len(t, p.Factors, 4)
	assert.Equal(t, 21850.0, *p.StopLoss)
	assert.Equal(t, 22200.0, *p.Target1)
	assert.Equal(t, 22400.0, *p.Target2)
	require.NotNil(t, p.RiskReward)
	assert.Equal(t, 200.0/150.0, *p.RiskReward)
	assert.Equal(t, "ATM 22000 CE / OTM 22100 CE", p.Strike)
	assert.Equal(t, "Bullish continuation", p.Verdict)
	assert.Equal(t, "Close below 21850.00", p.Invalidation)
}

func TestEngine_Short(t *testing.T) {
	e := NewEngine(DefaultConfig())
	p := e.Evaluate(bearishSnapshot())

	require.Equal(t, core.DecisionShort, p.Decision, p.Reason)
	assert.Equal(t, 21150.0, *p.StopLoss)
	assert.Equal(t, 20800.0, *p.Target1)
	assert.Equal(t, 20600.0, *p.Target2)
	assert.Equal(t, 200.0/150.0, *p.RiskReward)
	assert.Equal(t, "ATM 21000 PE / OTM 20900 PE", p.Strike)
	assert.Equal(t, "Bearish continuation", p.Verdict)
}

func TestEngine_Idempotent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	s := bullishSnapshot()

	first, err := json.Marshal(e.Evaluate(s))
	require.NoError(t, err)
	second, err := json.Marshal(e.Evaluate(s))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestEngine_InsufficientData(t *testing.T) {
	e := NewEngine(DefaultConfig())

	drop := map[string]func(*core.Snapshot){
		"rsi":   func(s *core.Snapshot) { s.RSI = nil },
		"adx":   func(s *core.Snapshot) { s.ADX = nil },
		"ema20": func(s *core.Snapshot) { s.EMA20 = nil },
		"price": func(s *core.Snapshot) { s.Price = nil },
	}
	for name, fn := range drop {
		t.Run(name, func(t *testing.T) {
			s := bullishSnapshot()
			fn(&s)
			p := e.Evaluate(s)
			assertNoTradeFields(t, p)
			assert.Equal(t, core.RejectInsufficientData, p.RejectCategory)
			assert.Equal(t, "Insufficient data", p.Reason)
		})
	}
}

func TestEngine_MissingLevels(t *testing.T) {
	s := bullishSnapshot()
	s.CPRTop, s.CPRBottom, s.CPRPivot = nil, nil, nil

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RejectInsufficientData, p.RejectCategory)
}

func TestEngine_MomentumBeforeSlope(t *testing.T) {
	s := bullishSnapshot()
	s.RSI = f(45)
	// falling EMAs would also fail the slope gate
	s.EMA20Prev = f(21950)
	s.EMA50Prev = f(21850)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RejectMomentum, p.RejectCategory)
}

func TestEngine_MomentumShort(t *testing.T) {
	s := bearishSnapshot()
	s.RSI = f(55)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assert.Equal(t, core.RejectMomentum, p.RejectCategory)
}

func TestEngine_PivotGate(t *testing.T) {
	s := bullishSnapshot()
	s.CPRPivot = f(22000)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RejectCountertrend, p.RejectCategory)

	s = bearishSnapshot()
	s.CPRPivot = f(20900)
	p = NewEngine(DefaultConfig()).Evaluate(s)
	assert.Equal(t, core.RejectCountertrend, p.RejectCategory)
}

func TestEngine_SlopeGate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*core.Snapshot)
	}{
		{"ema50 falling", func(s *core.Snapshot) { s.EMA50Prev = f(21810) }},
		{"ema20 flat", func(s *core.Snapshot) { s.EMA20Prev = f(21900) }},
		{"missing prev", func(s *core.Snapshot) { s.EMA50Prev = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := bullishSnapshot()
			tt.modify(&s)
			p := NewEngine(DefaultConfig()).Evaluate(s)
			assertNoTradeFields(t, p)
			assert.Equal(t, core.RejectSlope, p.RejectCategory)
		})
	}
}

func TestEngine_TightenStop(t *testing.T) {
	s := bullishSnapshot()
	s.CPRBottom = f(21700)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	require.Equal(t, core.DecisionLong, p.Decision, p.Reason)

	wantStop := 22000 - 200/1.5
	assert.InDelta(t, wantStop, *p.StopLoss, 1e-9)
	assert.Contains(t, p.Invalidation, "Tightened SL:")
	require.NotNil(t, p.RiskReward)
	assert.InDelta(t, 1.5, *p.RiskReward, 1e-9)
}

func TestEngine_TightenStopShort(t *testing.T) {
	s := bearishSnapshot()
	s.CPRTop = f(21300)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	require.Equal(t, core.DecisionShort, p.Decision, p.Reason)
	assert.InDelta(t, 21000+200/1.5, *p.StopLoss, 1e-9)
	assert.Contains(t, p.Invalidation, "Tightened SL:")
}

// A target sitting on price leaves no reward, so the stop is pulled onto
// price and the ratio is undefined.
func TestEngine_RiskRewardNilWhenStopOnPrice(t *testing.T) {
	long := bullishSnapshot()
	long.PivotR2 = f(22000)
	short := bearishSnapshot()
	short.PivotS2 = f(21000)

	tests := []struct {
		name     string
		snap     core.Snapshot
		decision core.Decision
		price    float64
	}{
		{"long", long, core.DecisionLong, 22000},
		{"short", short, core.DecisionShort, 21000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewEngine(DefaultConfig()).Evaluate(tt.snap)
			require.Equal(t, tt.decision, p.Decision, p.Reason)
			require.NotNil(t, p.StopLoss)
			assert.Equal(t, tt.price, *p.StopLoss)
			assert.Nil(t, p.RiskReward)
			assert.True(t, strings.HasPrefix(p.Invalidation, "Tightened SL"), p.Invalidation)
		})
	}

	// stop off price always yields a ratio
	p := NewEngine(DefaultConfig()).Evaluate(bullishSnapshot())
	require.NotEqual(t, 22000.0, *p.StopLoss)
	assert.NotNil(t, p.RiskReward)
}

// Risk and reward are distances, so a target below a long entry is kept and
// the stop is tightened against it.
func TestEngine_TargetBelowLongEntryKept(t *testing.T) {
	s := bullishSnapshot()
	s.PivotR2 = f(21950)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	require.Equal(t, core.DecisionLong, p.Decision, p.Reason)
	assert.Equal(t, 21950.0, *p.Target1)
	assert.InDelta(t, 22000-50/1.5, *p.StopLoss, 1e-9)
	require.NotNil(t, p.RiskReward)
	assert.InDelta(t, 1.5, *p.RiskReward, 1e-9)
}

func TestEngine_LowConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DirectionalConfidence = 90
	s := bullishSnapshot()
	s.VolumeRatio = f(1.0) // 30+25+25+10 = 90

	p := NewEngine(cfg).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RejectLowConfidence, p.RejectCategory)
	assert.Equal(t, 90, p.Confidence)
}

func TestEngine_NoDirection(t *testing.T) {
	s := bullishSnapshot()
	s.EMA20 = f(22100) // price < EMA20 > EMA50 is neutral

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RejectNoDirection, p.RejectCategory)
}

func TestEngine_WeakTrend(t *testing.T) {
	s := bullishSnapshot()
	s.ADX = f(25)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RegimeWeakTrend, p.Regime)
	assert.Equal(t, core.RejectWeakTrend, p.RejectCategory)
}

func TestEngine_UnknownRegime(t *testing.T) {
	s := bullishSnapshot()
	s.ATR = nil

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RegimeUnknown, p.Regime)
	assert.Equal(t, core.RejectUnknownRegime, p.RejectCategory)
}

func rangeSnapshot() core.Snapshot {
	return core.Snapshot{
		Symbol:      "^BSESN",
		Price:       f(22000),
		RSI:         f(50),
		ADX:         f(15),
		ATR:         f(150),
		EMA20:       f(22050),
		EMA50:       f(21950),
		VolumeRatio: f(1.5),
		CPRTop:      f(22100),
		CPRBottom:   f(21900),
		CPRPivot:    f(22000),
	}
}

func TestEngine_RangeTrade(t *testing.T) {
	p := NewEngine(DefaultConfig()).Evaluate(rangeSnapshot())

	require.Equal(t, core.DecisionRangeTrade, p.Decision, p.Reason)
	assert.Equal(t, core.RegimeRangeBound, p.Regime)
	assert.Equal(t, 60, p.Confidence)
	assert.Equal(t, 22100.0, *p.Target1)
	assert.Equal(t, 22000.0, *p.Target2)
	assert.InDelta(t, 21900*0.995, *p.StopLoss, 1e-9)
	require.NotNil(t, p.RiskReward)
	assert.InDelta(t, 100/(22000-21900*0.995), *p.RiskReward, 1e-9)
	assert.Equal(t, "N/A", p.Strike)
	assert.Equal(t, "Range trade", p.Verdict)
}

func TestEngine_RangeLowConfidence(t *testing.T) {
	s := rangeSnapshot()
	s.VolumeRatio = f(1.0) // 10+5+25+10 = 50

	p := NewEngine(DefaultConfig()).Evaluate(s)
	assertNoTradeFields(t, p)
	assert.Equal(t, core.RejectLowConfidence, p.RejectCategory)
}

func TestEngine_FallbackLevels(t *testing.T) {
	s := bullishSnapshot()
	s.CPRTop, s.CPRBottom, s.CPRPivot = nil, nil, nil
	s.PivotR2, s.PivotR3, s.PivotS2, s.PivotS3 = nil, nil, nil, nil
	s.Resistance = f(22100)
	s.Support = f(21800)

	p := NewEngine(DefaultConfig()).Evaluate(s)
	require.Equal(t, core.DecisionLong, p.Decision, p.Reason)
	assert.Equal(t, 21800.0, *p.StopLoss)
	assert.Equal(t, 22400.0, *p.Target1)
	assert.Equal(t, 22700.0, *p.Target2)
	assert.Equal(t, 2.0, *p.RiskReward)
}

func TestStrikeFor(t *testing.T) {
	tests := []struct {
		price, step, want float64
	}{
		{22049, 100, 22000},
		{22050, 100, 22100},
		{21975, 50, 22000},
		{123.4, 0, 123.4},
	}
	for _, tt := range tests {
		if got := strikeFor(tt.price, tt.step); got != tt.want {
			t.Errorf("strikeFor(%v, %v) = %v, want %v", tt.price, tt.step, got, tt.want)
		}
	}
}
