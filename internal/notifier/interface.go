package notifier

import (
	"time"

	"github.com/newthinker/optdesk/internal/core"
)

// Config holds notifier configuration
type Config struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// EventKind distinguishes entries from exits.
type EventKind string

const (
	EventEntry EventKind = "entry"
	EventExit  EventKind = "exit"
)

// Event is a trade lifecycle transition worth telling someone about.
type Event struct {
	Kind       EventKind     `json:"kind"`
	Date       string        `json:"date"`
	Underlying string        `json:"underlying"`
	Symbol     string        `json:"symbol"`
	Decision   core.Decision `json:"decision,omitempty"`
	Lots       int           `json:"lots,omitempty"`
	EntryPrice float64       `json:"entry_price"`
	ExitPrice  float64       `json:"exit_price,omitempty"`
	Outcome    core.Outcome  `json:"outcome,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	OrderID    string        `json:"order_id,omitempty"`
	DryRun     bool          `json:"dry_run"`
	Time       time.Time     `json:"time"`
}

// PnLPct returns the premium change from entry to exit in percent, or 0
// for entries.
func (e Event) PnLPct() float64 {
	if e.Kind != EventExit || e.EntryPrice <= 0 {
		return 0
	}
	return (e.ExitPrice - e.EntryPrice) / e.EntryPrice * 100
}

// Notifier defines the interface for trade event notification
type Notifier interface {
	// Name returns the unique identifier for this notifier
	Name() string

	// Init initializes the notifier with configuration
	Init(cfg Config) error

	// Send delivers a single event
	Send(event Event) error
}
