package strategy

import (
	"github.com/newthinker/optdesk/internal/core"
)

// levels are the execution boundaries and target tiers for one evaluation.
type levels struct {
	top, bottom, pivot float64
	r2, r3, s2, s3     float64
}

// resolveLevels prefers the central pivot range and falls back to the
// support/resistance band. Target tiers fall back to tiers spaced by the
// band width when classic pivots are missing.
func resolveLevels(s core.Snapshot) (levels, bool) {
	var lv levels

	res, sup := s.Resistance, s.Support

	switch {
	case s.CPRTop != nil:
		lv.top = *s.CPRTop
	case res != nil:
		lv.top = *res
	default:
		return lv, false
	}
	switch {
	case s.CPRBottom != nil:
		lv.bottom = *s.CPRBottom
	case sup != nil:
		lv.bottom = *sup
	default:
		return lv, false
	}
	switch {
	case s.CPRPivot != nil:
		lv.pivot = *s.CPRPivot
	case res != nil && sup != nil:
		lv.pivot = (*res + *sup) / 2
	case s.PivotP != nil:
		lv.pivot = *s.PivotP
	default:
		lv.pivot = (lv.top + lv.bottom) / 2
	}

	hi, lo := lv.top, lv.bottom
	if res != nil && sup != nil {
		hi, lo = *res, *sup
	}
	width := hi - lo

	lv.r2 = pick(s.PivotR2, hi+width)
	lv.r3 = pick(s.PivotR3, hi+2*width)
	lv.s2 = pick(s.PivotS2, lo-width)
	lv.s3 = pick(s.PivotS3, lo-2*width)
	return lv, true
}

func pick(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
