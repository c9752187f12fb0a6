// Package mocks provides mock implementations of broker interfaces for testing.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newthinker/optdesk/internal/broker"
)

// MockBroker implements the broker.Broker interface for testing.
// It records every request and can be told to fail or reject.
type MockBroker struct {
	mu sync.Mutex

	requests    []broker.OrderRequest
	orderID     int64
	shouldFail  bool
	failMessage string
	reject      bool
}

// New creates a new MockBroker that accepts every valid order.
func New() *MockBroker {
	return &MockBroker{orderID: 5000}
}

// Name returns the broker identifier.
func (m *MockBroker) Name() string {
	return "mock"
}

// PlaceOrder records req and returns an accepted result, an error or a
// rejection depending on configuration.
func (m *MockBroker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (*broker.OrderResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.shouldFail {
		return nil, fmt.Errorf("mock: %s", m.failMessage)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m.orderID++
	status := broker.OrderStatusAccepted
	if m.reject {
		status = broker.OrderStatusRejected
	}
	return &broker.OrderResult{
		OrderID:       fmt.Sprintf("MOCK-%d", m.orderID),
		ClientOrderID: req.ClientOrderID,
		Status:        status,
		PlacedAt:      time.Now(),
	}, nil
}

// SetShouldFail configures whether PlaceOrder returns an error.
func (m *MockBroker) SetShouldFail(shouldFail bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = shouldFail
	m.failMessage = message
}

// SetReject configures whether orders come back rejected.
func (m *MockBroker) SetReject(reject bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reject = reject
}

// Requests returns a copy of the recorded requests.
func (m *MockBroker) Requests() []broker.OrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]broker.OrderRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetOrderCount returns how many requests were seen.
func (m *MockBroker) GetOrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

var _ broker.Broker = (*MockBroker)(nil)
