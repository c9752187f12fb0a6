package options

import (
	"sort"

	"github.com/newthinker/optdesk/internal/core"
)

// Expiry-day tightening.
const (
	ExpirySpreadFactor = 0.75
	ExpiryOIBump       = 0.05
)

// Bounds are the contract filter limits. Spread and OI change are fractions.
type Bounds struct {
	PremiumMin  float64 `mapstructure:"premium_min"`
	PremiumMax  float64 `mapstructure:"premium_max"`
	MaxSpread   float64 `mapstructure:"max_spread_pct"`
	MinOIChange float64 `mapstructure:"oi_change_pct"`
}

// Effective returns the bounds tightened for expiry day when expiry is set.
func (b Bounds) Effective(expiry bool) Bounds {
	if !expiry {
		return b
	}
	b.MaxSpread *= ExpirySpreadFactor
	b.MinOIChange += ExpiryOIBump
	return b
}

// Admits reports whether c satisfies the premium, spread and OI bounds.
func (b Bounds) Admits(c core.Contract) bool {
	return c.Premium >= b.PremiumMin && c.Premium <= b.PremiumMax &&
		c.SpreadPct <= b.MaxSpread &&
		c.OIChangePct >= b.MinOIChange
}

// Selector picks the cheapest contract that fits the bounds.
type Selector struct {
	bounds Bounds
}

// NewSelector creates a selector. expiry tightens bounds once, here.
func NewSelector(bounds Bounds, expiry bool) *Selector {
	return &Selector{bounds: bounds.Effective(expiry)}
}

// Bounds returns the effective bounds.
func (s *Selector) Bounds() Bounds {
	return s.bounds
}

// TypeFor maps a plan decision to the option type bought for it.
func TypeFor(d core.Decision) (core.OptionType, bool) {
	switch d {
	case core.DecisionLong:
		return core.OptionCall, true
	case core.DecisionShort:
		return core.OptionPut, true
	default:
		return "", false
	}
}

// Select scans contracts in ascending premium order and returns the first
// of the decision's type within bounds. Non-directional decisions and an
// empty match both return false. The input slice is not reordered.
func (s *Selector) Select(decision core.Decision, contracts []core.Contract) (core.Contract, bool) {
	want, ok := TypeFor(decision)
	if !ok {
		return core.Contract{}, false
	}

	sorted := make([]core.Contract, len(contracts))
	copy(sorted, contracts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Premium < sorted[j].Premium
	})

	for _, c := range sorted {
		typ := c.Type
		if typ == "" {
			typ = InferType(c.Symbol)
		}
		if typ != want {
			continue
		}
		if s.bounds.Admits(c) {
			c.Type = typ
			return c, true
		}
	}
	return core.Contract{}, false
}

// ResolvePremium returns the premium of symbol in contracts.
func ResolvePremium(contracts []core.Contract, symbol string) (float64, bool) {
	for _, c := range contracts {
		if c.Symbol == symbol {
			return c.Premium, c.Premium > 0
		}
	}
	return 0, false
}
