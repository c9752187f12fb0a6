package core

import "time"

// Quote represents the latest traded price of an underlying
type Quote struct {
	Symbol string
	Price  float64
	Volume int64
	Time   time.Time
	Source string
}

// IsValid checks if the quote has required fields
func (q Quote) IsValid() bool {
	return q.Symbol != "" && q.Price > 0
}

// OHLCV represents a candlestick/bar
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   int64
	Time     time.Time
}

// Decision is the directional outcome of a plan evaluation
type Decision string

const (
	DecisionLong       Decision = "LONG"
	DecisionShort      Decision = "SHORT"
	DecisionRangeTrade Decision = "RANGE_TRADE"
	DecisionNoTrade    Decision = "NO_TRADE"
)

// IsDirectional reports whether the decision opens a LONG or SHORT position.
func (d Decision) IsDirectional() bool {
	return d == DecisionLong || d == DecisionShort
}

// Trend is the EMA alignment label
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendNeutral Trend = "Neutral"
)

// IsDirectional reports whether the trend is Bullish or Bearish.
func (t Trend) IsDirectional() bool {
	return t == TrendBullish || t == TrendBearish
}

// Regime labels the current market condition
type Regime string

const (
	RegimeStrongTrend   Regime = "StrongTrend"
	RegimeVolatileTrend Regime = "VolatileTrend"
	RegimeRangeBound    Regime = "RangeBound"
	RegimeWeakTrend     Regime = "WeakTrend"
	RegimeUnknown       Regime = "Unknown"
)

// IsTrending reports whether the regime supports directional trades.
func (r Regime) IsTrending() bool {
	return r == RegimeStrongTrend || r == RegimeVolatileTrend
}

// Float returns a pointer to v, for building nullable snapshot and plan fields.
func Float(v float64) *float64 {
	return &v
}

// Snapshot is the immutable set of indicator values for the latest bar.
// A nil field means the provider did not supply the value.
type Snapshot struct {
	Symbol string
	Time   time.Time

	Price *float64
	High  *float64
	Low   *float64
	Open  *float64

	RSI        *float64
	MACD       *float64
	MACDSignal *float64
	MACDHist   *float64

	MACDPct       *float64
	MACDPctSignal *float64
	MACDPctHist   *float64
	MACDLog       *float64
	MACDLogSignal *float64
	MACDLogHist   *float64

	BBUpper  *float64
	BBMiddle *float64
	BBLower  *float64

	EMA20     *float64
	EMA50     *float64
	EMA200    *float64
	EMA20Prev *float64 // one bar earlier
	EMA50Prev *float64 // one bar earlier

	ATR    *float64
	ADX    *float64
	StochK *float64
	StochD *float64

	Support    *float64 // 20-bar low
	Resistance *float64 // 20-bar high

	PivotP  *float64
	PivotR1 *float64
	PivotR2 *float64
	PivotR3 *float64
	PivotS1 *float64
	PivotS2 *float64
	PivotS3 *float64

	CPRPivot  *float64
	CPRTop    *float64
	CPRBottom *float64

	VolumeRatio *float64 // current volume / 20-bar average
}

// RejectCategory tags the gate that downgraded a plan to NO_TRADE
type RejectCategory string

const (
	RejectNone             RejectCategory = ""
	RejectInsufficientData RejectCategory = "insufficient_data"
	RejectUnknownRegime    RejectCategory = "unknown_regime"
	RejectWeakTrend        RejectCategory = "weak_trend"
	RejectNoDirection      RejectCategory = "no_direction"
	RejectLowConfidence    RejectCategory = "low_confidence"
	RejectCountertrend     RejectCategory = "countertrend"
	RejectMomentum         RejectCategory = "momentum"
	RejectSlope            RejectCategory = "slope"
)

// ActionPlan is the output of a decision evaluation
type ActionPlan struct {
	Symbol         string         `json:"symbol,omitempty"`
	Decision       Decision       `json:"decision"`
	Reason         string         `json:"reason"`
	RejectCategory RejectCategory `json:"reject_category,omitempty"`
	EntryCondition string         `json:"entry_condition"`
	Target1        *float64       `json:"target_1"`
	Target2        *float64       `json:"target_2"`
	StopLoss       *float64       `json:"stop_loss"`
	Invalidation   string         `json:"invalidation"`
	RiskReward     *float64       `json:"risk_reward"`
	Verdict        string         `json:"verdict"`
	Confidence     int            `json:"confidence"`
	Factors        []string       `json:"factors,omitempty"`
	Regime         Regime         `json:"regime"`
	Trend          Trend          `json:"trend"`
	Price          *float64       `json:"price"`
	Strike         string         `json:"strike_suggestion"`
}

// IsRejected reports whether a gate downgraded the plan.
func (p ActionPlan) IsRejected() bool {
	return p.RejectCategory != RejectNone
}

// OptionType is the contract right
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// Contract is a tradable option contract from a chain source
type Contract struct {
	Symbol      string     `json:"symbol"`
	Premium     float64    `json:"premium"`
	OIChangePct float64    `json:"oi_change_pct"`
	SpreadPct   float64    `json:"spread_pct"`
	Type        OptionType `json:"type,omitempty"`
	Strike      float64    `json:"strike,omitempty"`
}

// Outcome is how a day's trade was closed
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomeProfit Outcome = "profit"
	OutcomeLoss   Outcome = "loss"
)

// TradeStatus is the persisted status of a day's trade
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// TradeDayState is the persisted lifecycle record for one trading day.
type TradeDayState struct {
	TradesExecuted int         `json:"trades_executed"`
	Symbol         string      `json:"symbol,omitempty"`
	EntryPrice     float64     `json:"entry_price,omitempty"`
	Lots           int         `json:"lots,omitempty"`
	Decision       Decision    `json:"decision,omitempty"`
	OrderID        string      `json:"order_id,omitempty"`
	Outcome        Outcome     `json:"outcome,omitempty"`
	ExitPrice      float64     `json:"exit_price,omitempty"`
	ExitReason     string      `json:"exit_reason,omitempty"`
	Status         TradeStatus `json:"status,omitempty"`
	LoggedAt       time.Time   `json:"logged_at"`
	ClosedAt       *time.Time  `json:"closed_at,omitempty"`
}

// IsOpen reports whether an entry was made and not yet closed.
func (s TradeDayState) IsOpen() bool {
	return s.TradesExecuted >= 1 && s.Outcome == OutcomeNone
}
