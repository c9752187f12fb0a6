package broker

import (
	"fmt"
	"math"
)

// DefaultPerLotBuffer is the per-lot cost cushion for fees and slippage.
const DefaultPerLotBuffer = 50.0

// SizerConfig defines position sizing parameters.
type SizerConfig struct {
	// Capital is the account capital available to the strategy.
	Capital float64
	// AllocationPct is the fraction of capital one entry may use.
	AllocationPct float64
	// LotSize is the contract multiplier in units per lot.
	LotSize int
	// PerLotBuffer is added to the cost of every lot.
	PerLotBuffer float64
}

// SizeResult represents the outcome of a sizing check.
type SizeResult struct {
	// Lots is the whole number of lots affordable.
	Lots int
	// Allowed indicates whether at least one lot fits.
	Allowed bool
	// Reason provides explanation when the entry is skipped.
	Reason string
}

// Sizer converts capital and premium into a lot count.
type Sizer struct {
	config SizerConfig
}

// NewSizer creates a sizer. A non-positive buffer uses DefaultPerLotBuffer.
func NewSizer(config SizerConfig) *Sizer {
	if config.PerLotBuffer <= 0 {
		config.PerLotBuffer = DefaultPerLotBuffer
	}
	return &Sizer{config: config}
}

// Lots returns floor(capital*allocation / (premium*lotSize + buffer)).
// Fewer than one lot is a skip, not an error.
func (s *Sizer) Lots(premium float64) SizeResult {
	if premium <= 0 {
		return SizeResult{Reason: fmt.Sprintf("invalid premium %.2f", premium)}
	}
	if s.config.LotSize <= 0 {
		return SizeResult{Reason: fmt.Sprintf("invalid lot size %d", s.config.LotSize)}
	}

	alloc := s.config.Capital * s.config.AllocationPct
	perLot := premium*float64(s.config.LotSize) + s.config.PerLotBuffer
	lots := int(math.Floor(alloc / perLot))
	if lots < 1 {
		return SizeResult{
			Reason: fmt.Sprintf("insufficient capital: %.2f allocated, %.2f per lot", alloc, perLot),
		}
	}
	return SizeResult{Lots: lots, Allowed: true}
}
