package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DryRunBroker acknowledges orders without sending them anywhere.
type DryRunBroker struct {
	mu      sync.Mutex
	orderID int
	orders  []OrderRequest
	now     func() time.Time
	logger  *zap.Logger
}

// NewDryRun creates a dry-run broker.
func NewDryRun(logger ...*zap.Logger) *DryRunBroker {
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &DryRunBroker{orderID: 1000, now: time.Now, logger: l}
}

// Name returns the broker name.
func (d *DryRunBroker) Name() string {
	return "dry-run"
}

// PlaceOrder validates and records the request.
func (d *DryRunBroker) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.orderID++
	d.orders = append(d.orders, req)

	d.logger.Info("[DRY-RUN] order",
		zap.String("side", string(req.Side)),
		zap.Int("lots", req.Lots),
		zap.String("symbol", req.Symbol),
		zap.Float64("price", req.LimitPrice),
	)

	return &OrderResult{
		OrderID:       fmt.Sprintf("DRY-%d", d.orderID),
		ClientOrderID: req.ClientOrderID,
		Status:        OrderStatusDryRun,
		DryRun:        true,
		PlacedAt:      d.now(),
	}, nil
}

// Orders returns a copy of the requests seen so far.
func (d *DryRunBroker) Orders() []OrderRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]OrderRequest, len(d.orders))
	copy(out, d.orders)
	return out
}

var _ Broker = (*DryRunBroker)(nil)
