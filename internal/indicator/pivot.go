package indicator

import (
	"github.com/newthinker/optdesk/internal/core"
)

// Pivots holds classic floor pivots and the central pivot range for a session.
type Pivots struct {
	P, R1, R2, R3, S1, S2, S3 float64
	CPRTop, CPRBottom         float64
}

// ComputePivots derives classic pivots and CPR from the prior session's
// high, low and close.
func ComputePivots(high, low, close float64) Pivots {
	p := (high + low + close) / 3
	bc := (high + low) / 2
	tc := 2*p - bc
	if tc < bc {
		tc, bc = bc, tc
	}
	rng := high - low
	return Pivots{
		P:         p,
		R1:        2*p - low,
		S1:        2*p - high,
		R2:        p + rng,
		S2:        p - rng,
		R3:        high + 2*(p-low),
		S3:        low - 2*(high-p),
		CPRTop:    tc,
		CPRBottom: bc,
	}
}

// WithPivots fills any nil pivot and CPR fields of s from the prior session.
// Values already supplied by the provider are kept.
func WithPivots(s core.Snapshot, prevHigh, prevLow, prevClose float64) core.Snapshot {
	pv := ComputePivots(prevHigh, prevLow, prevClose)
	fill := func(dst **float64, v float64) {
		if *dst == nil {
			*dst = core.Float(v)
		}
	}
	fill(&s.PivotP, pv.P)
	fill(&s.PivotR1, pv.R1)
	fill(&s.PivotR2, pv.R2)
	fill(&s.PivotR3, pv.R3)
	fill(&s.PivotS1, pv.S1)
	fill(&s.PivotS2, pv.S2)
	fill(&s.PivotS3, pv.S3)
	fill(&s.CPRPivot, pv.P)
	fill(&s.CPRTop, pv.CPRTop)
	fill(&s.CPRBottom, pv.CPRBottom)
	return s
}

// Enrich fills support/resistance (20-bar), volume ratio and latest price
// from raw bars when the provider left them nil.
func Enrich(s core.Snapshot, bars []core.OHLCV) core.Snapshot {
	if len(bars) == 0 {
		return s
	}
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	vols := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i], vols[i] = b.High, b.Low, float64(b.Volume)
	}
	if s.Support == nil || s.Resistance == nil {
		if h, l, ok := HighLow(highs, lows, 20); ok {
			if s.Resistance == nil {
				s.Resistance = core.Float(h)
			}
			if s.Support == nil {
				s.Support = core.Float(l)
			}
		}
	}
	if s.VolumeRatio == nil {
		s.VolumeRatio = core.Float(VolumeRatio(vols, 20))
	}
	if s.Price == nil {
		s.Price = core.Float(bars[len(bars)-1].Close)
	}
	return s
}
