// Package report summarizes realized trades from the persisted state.
package report

import (
	"math"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/storage/state"
)

// Trade is the realized result of one day's last trade.
type Trade struct {
	Date     string        `json:"date"`
	Symbol   string        `json:"symbol"`
	Decision core.Decision `json:"decision"`
	Outcome  core.Outcome  `json:"outcome"`
	// Return is the premium change as a fraction of entry.
	Return float64 `json:"return"`
}

// IsWin reports whether the trade closed in profit.
func (t Trade) IsWin() bool {
	return t.Outcome == core.OutcomeProfit
}

// Stats holds performance statistics. Returns are in percent.
type Stats struct {
	Days          int            `json:"days"`
	OpenTrades    int            `json:"open_trades"`
	ClosedTrades  int            `json:"closed_trades"`
	WinningTrades int            `json:"winning_trades"`
	LosingTrades  int            `json:"losing_trades"`
	WinRate       float64        `json:"win_rate"`
	TotalReturn   float64        `json:"total_return"`
	AvgReturn     float64        `json:"avg_return"`
	MaxDrawdown   float64        `json:"max_drawdown"`
	SharpeRatio   float64        `json:"sharpe_ratio"`
	ByDecision    map[string]int `json:"by_decision,omitempty"`
}

// Trades extracts closed trades from doc in date order. A day with a
// re-entry keeps only its latest trade, so earlier same-day trades are not
// counted.
func Trades(doc state.Document) []Trade {
	var out []Trade
	for _, k := range doc.Keys() {
		d := doc[k]
		if d.Status != core.TradeClosed || d.Outcome == "" || d.EntryPrice <= 0 {
			continue
		}
		out = append(out, Trade{
			Date:     k,
			Symbol:   d.Symbol,
			Decision: d.Decision,
			Outcome:  d.Outcome,
			Return:   (d.ExitPrice - d.EntryPrice) / d.EntryPrice,
		})
	}
	return out
}

// Summarize computes statistics over doc.
func Summarize(doc state.Document) Stats {
	stats := CalculateStats(Trades(doc))
	stats.Days = len(doc)
	for _, d := range doc {
		if d.IsOpen() {
			stats.OpenTrades++
		}
	}
	return stats
}

// CalculateStats computes performance statistics from closed trades.
func CalculateStats(trades []Trade) Stats {
	if len(trades) == 0 {
		return Stats{}
	}

	var winning, losing int
	var totalReturn float64
	returns := make([]float64, 0, len(trades))
	byDecision := make(map[string]int)

	for _, t := range trades {
		returns = append(returns, t.Return)
		totalReturn += t.Return
		byDecision[string(t.Decision)]++
		if t.IsWin() {
			winning++
		} else {
			losing++
		}
	}

	closed := winning + losing
	return Stats{
		ClosedTrades:  closed,
		WinningTrades: winning,
		LosingTrades:  losing,
		WinRate:       float64(winning) / float64(closed) * 100,
		TotalReturn:   totalReturn * 100,
		AvgReturn:     totalReturn / float64(closed) * 100,
		MaxDrawdown:   calculateMaxDrawdown(returns) * 100,
		SharpeRatio:   calculateSharpeRatio(returns),
		ByDecision:    byDecision,
	}
}

// calculateMaxDrawdown finds the largest peak-to-trough decline of the
// compounded return series.
func calculateMaxDrawdown(returns []float64) float64 {
	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= 1 + r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// calculateSharpeRatio annualizes over 252 trading days with a zero
// risk-free rate.
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean * 252 / (stdDev * math.Sqrt(252))
}
