// Package app runs the trade lifecycle on a fixed interval for long-lived
// deployments.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/optdesk/internal/lifecycle"
	"go.uber.org/zap"
)

// DefaultInterval is the cycle period when none is set.
const DefaultInterval = 5 * time.Minute

// Cycler runs one lifecycle transition. *lifecycle.Manager satisfies it.
type Cycler interface {
	RunCycle(ctx context.Context) lifecycle.Result
}

// App is the daemon orchestrator. Cycles never overlap: they run on the
// Start goroutine only.
type App struct {
	logger   *zap.Logger
	cycler   Cycler
	interval time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	cycles  int
	last    *lifecycle.Result
	lastAt  time.Time
}

// New creates a new App instance
func New(cycler Cycler, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		logger:   logger,
		cycler:   cycler,
		interval: DefaultInterval,
	}
}

// SetInterval sets the cycle interval
func (a *App) SetInterval(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if d > 0 {
		a.interval = d
	}
}

// Start runs a cycle immediately and then on every tick until ctx is done
// or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	interval := a.interval
	a.mu.Unlock()

	a.logger.Info("optdesk daemon starting", zap.Duration("interval", interval))

	a.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("optdesk daemon shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-ticker.C:
			a.RunOnce(ctx)
		}
	}
}

// Stop stops the loop
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// RunOnce performs a single cycle and remembers its result.
func (a *App) RunOnce(ctx context.Context) lifecycle.Result {
	res := a.cycler.RunCycle(ctx)

	a.mu.Lock()
	a.cycles++
	a.last = &res
	a.lastAt = time.Now()
	a.mu.Unlock()

	return res
}

// GetStats returns daemon statistics
func (a *App) GetStats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := map[string]any{
		"running":  a.running,
		"interval": a.interval.String(),
		"cycles":   a.cycles,
	}
	if a.last != nil {
		stats["last_result"] = a.last.Code
		stats["last_date"] = a.last.Date
		stats["last_at"] = a.lastAt.Format(time.RFC3339)
		if a.last.Symbol != "" {
			stats["last_symbol"] = a.last.Symbol
		}
	}
	return stats
}
