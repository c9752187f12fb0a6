package lifecycle

import (
	"github.com/newthinker/optdesk/internal/core"
)

// Code is the outcome of one cycle.
type Code string

const (
	SkippedWeekend      Code = "skipped_weekend"
	SkippedWindow       Code = "skipped_window"
	DataUnavailable     Code = "data_unavailable"
	Hold                Code = "hold"
	ClosedProfit        Code = "closed_profit"
	ClosedLoss          Code = "closed_loss"
	BlockedDailyTarget  Code = "blocked_daily_target"
	BlockedLossCap      Code = "blocked_loss_cap"
	NoSignal            Code = "no_signal"
	NoContract          Code = "no_contract"
	InsufficientCapital Code = "insufficient_capital"
	OrderFailed         Code = "order_failed"
	StateWriteFailed    Code = "state_write_failed"
	Entered             Code = "entered"
)

// Mutated reports whether a cycle with this code wrote state.
func (c Code) Mutated() bool {
	return c == ClosedProfit || c == ClosedLoss || c == Entered
}

// Result describes what a cycle did.
type Result struct {
	Code    Code   `json:"code"`
	Date    string `json:"date,omitempty"`
	Message string `json:"message,omitempty"`

	Decision   core.Decision `json:"decision,omitempty"`
	Symbol     string        `json:"symbol,omitempty"`
	Premium    float64       `json:"premium,omitempty"`
	EntryPrice float64       `json:"entry_price,omitempty"`
	Lots       int           `json:"lots,omitempty"`
	OrderID    string        `json:"order_id,omitempty"`

	// Plan is set when the cycle evaluated the decision engine.
	Plan *core.ActionPlan `json:"plan,omitempty"`
	// Err is the soft error behind a no-op, if any.
	Err error `json:"-"`
}

