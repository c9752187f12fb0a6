// Package plan journals every evaluated ActionPlan for later audit.
package plan

import (
	"context"
	"errors"
	"time"

	"github.com/newthinker/optdesk/internal/core"
)

// ErrNotFound is returned when no entry has the requested ID.
var ErrNotFound = errors.New("plan: entry not found")

// Entry is one journaled evaluation.
type Entry struct {
	ID         string          `json:"id"`
	RecordedAt time.Time       `json:"recorded_at"`
	Plan       core.ActionPlan `json:"plan"`
	// Result is the lifecycle outcome of the cycle that produced the plan.
	Result string `json:"result,omitempty"`
}

// Store defines the interface for plan persistence.
type Store interface {
	// Save persists an entry and returns it with its assigned ID.
	Save(ctx context.Context, e Entry) (Entry, error)

	// GetByID retrieves an entry by its ID.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// List retrieves entries matching the filter, oldest first.
	List(ctx context.Context, filter ListFilter) ([]Entry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter defines criteria for listing entries.
type ListFilter struct {
	Symbol   string
	Decision core.Decision
	From     time.Time
	To       time.Time
	Limit    int
	Offset   int
}

func (f ListFilter) matches(e Entry) bool {
	if f.Symbol != "" && e.Plan.Symbol != f.Symbol {
		return false
	}
	if f.Decision != "" && e.Plan.Decision != f.Decision {
		return false
	}
	if !f.From.IsZero() && e.RecordedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.RecordedAt.After(f.To) {
		return false
	}
	return true
}

// page applies offset and limit.
func (f ListFilter) page(result []Entry) []Entry {
	if f.Offset > 0 && f.Offset < len(result) {
		result = result[f.Offset:]
	} else if f.Offset >= len(result) && f.Offset > 0 {
		return []Entry{}
	}

	if f.Limit > 0 && f.Limit < len(result) {
		result = result[:f.Limit]
	}
	return result
}
