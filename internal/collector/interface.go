// Package collector fetches underlying market data.
package collector

import (
	"context"
	"time"

	"github.com/newthinker/optdesk/internal/core"
)

// Collector defines the interface for underlying price sources. A failed
// fetch is a soft error: callers treat it as no data for the cycle.
type Collector interface {
	Name() string

	// FetchQuote returns the latest traded price of symbol.
	FetchQuote(ctx context.Context, symbol string) (*core.Quote, error)
	// FetchHistory returns bars between start and end at interval.
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}
