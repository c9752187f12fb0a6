// Package indicator turns externally computed indicator records into
// core.Snapshot values and derives the few labels the decision rules need.
package indicator

import (
	"github.com/newthinker/optdesk/internal/core"
)

// Record is a name -> nullable value map as produced by an indicator provider.
// JSON null decodes to a nil entry.
type Record map[string]*float64

// Canonical record keys.
const (
	KeyPrice      = "current_price"
	KeyHigh       = "high"
	KeyLow        = "low"
	KeyOpen       = "open"
	KeyRSI        = "rsi"
	KeyMACD       = "macd"
	KeyMACDSignal = "macd_signal"
	KeyMACDHist   = "macd_histogram"
	KeyMACDPct    = "macd_pct"
	KeyMACDPctSig = "macd_pct_signal"
	KeyMACDPctHst = "macd_pct_histogram"
	KeyMACDLog    = "macd_log"
	KeyMACDLogSig = "macd_log_signal"
	KeyMACDLogHst = "macd_log_histogram"
	KeyBBUpper    = "bb_upper"
	KeyBBMiddle   = "bb_middle"
	KeyBBLower    = "bb_lower"
	KeyEMA20      = "ema_20"
	KeyEMA50      = "ema_50"
	KeyEMA200     = "ema_200"
	KeyEMA20Prev  = "ema_20_prev"
	KeyEMA50Prev  = "ema_50_prev"
	KeyATR        = "atr"
	KeyADX        = "adx"
	KeyStochK     = "stoch_k"
	KeyStochD     = "stoch_d"
	KeySupport    = "support"
	KeyResistance = "resistance"
	KeyPivot      = "pivot"
	KeyPivotR1    = "pivot_r1"
	KeyPivotR2    = "pivot_r2"
	KeyPivotR3    = "pivot_r3"
	KeyPivotS1    = "pivot_s1"
	KeyPivotS2    = "pivot_s2"
	KeyPivotS3    = "pivot_s3"
	KeyCPRPivot   = "cpr_pivot"
	KeyCPRTop     = "cpr_top"
	KeyCPRBottom  = "cpr_bottom"
	KeyVolumeRate = "volume_ratio"

	// Prior session OHLC, used to derive pivots when the provider omits them.
	KeyPrevHigh  = "prev_high"
	KeyPrevLow   = "prev_low"
	KeyPrevClose = "prev_close"
)

// FromRecord builds a snapshot. Missing keys stay nil; unknown keys are ignored.
func FromRecord(symbol string, r Record) core.Snapshot {
	get := func(key string) *float64 {
		v, ok := r[key]
		if !ok || v == nil {
			return nil
		}
		c := *v
		return &c
	}

	s := core.Snapshot{
		Symbol:        symbol,
		Price:         get(KeyPrice),
		High:          get(KeyHigh),
		Low:           get(KeyLow),
		Open:          get(KeyOpen),
		RSI:           get(KeyRSI),
		MACD:          get(KeyMACD),
		MACDSignal:    get(KeyMACDSignal),
		MACDHist:      get(KeyMACDHist),
		MACDPct:       get(KeyMACDPct),
		MACDPctSignal: get(KeyMACDPctSig),
		MACDPctHist:   get(KeyMACDPctHst),
		MACDLog:       get(KeyMACDLog),
		MACDLogSignal: get(KeyMACDLogSig),
		MACDLogHist:   get(KeyMACDLogHst),
		BBUpper:       get(KeyBBUpper),
		BBMiddle:      get(KeyBBMiddle),
		BBLower:       get(KeyBBLower),
		EMA20:         get(KeyEMA20),
		EMA50:         get(KeyEMA50),
		EMA200:        get(KeyEMA200),
		EMA20Prev:     get(KeyEMA20Prev),
		EMA50Prev:     get(KeyEMA50Prev),
		ATR:           get(KeyATR),
		ADX:           get(KeyADX),
		StochK:        get(KeyStochK),
		StochD:        get(KeyStochD),
		Support:       get(KeySupport),
		Resistance:    get(KeyResistance),
		PivotP:        get(KeyPivot),
		PivotR1:       get(KeyPivotR1),
		PivotR2:       get(KeyPivotR2),
		PivotR3:       get(KeyPivotR3),
		PivotS1:       get(KeyPivotS1),
		PivotS2:       get(KeyPivotS2),
		PivotS3:       get(KeyPivotS3),
		CPRPivot:      get(KeyCPRPivot),
		CPRTop:        get(KeyCPRTop),
		CPRBottom:     get(KeyCPRBottom),
		VolumeRatio:   get(KeyVolumeRate),
	}

	ph, pl, pc := get(KeyPrevHigh), get(KeyPrevLow), get(KeyPrevClose)
	if ph != nil && pl != nil && pc != nil {
		s = WithPivots(s, *ph, *pl, *pc)
	}
	return s
}

// Trend labels EMA alignment: price > EMA20 > EMA50 is Bullish,
// price < EMA20 < EMA50 is Bearish, anything else (or missing) is Neutral.
func Trend(s core.Snapshot) core.Trend {
	if s.Price == nil || s.EMA20 == nil || s.EMA50 == nil {
		return core.TrendNeutral
	}
	price, e20, e50 := *s.Price, *s.EMA20, *s.EMA50
	switch {
	case price > e20 && e20 > e50:
		return core.TrendBullish
	case price < e20 && e20 < e50:
		return core.TrendBearish
	default:
		return core.TrendNeutral
	}
}

// ATRPercent returns ATR as a percentage of price, or nil when either is
// missing or price is not positive.
func ATRPercent(s core.Snapshot) *float64 {
	if s.ATR == nil || s.Price == nil || *s.Price <= 0 {
		return nil
	}
	return core.Float(*s.ATR / *s.Price * 100)
}

// Slope returns the one-bar change cur - prev, or nil if either is missing.
func Slope(cur, prev *float64) *float64 {
	if cur == nil || prev == nil {
		return nil
	}
	return core.Float(*cur - *prev)
}
