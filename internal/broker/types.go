// Package broker provides order types, broker implementations and position
// sizing for option entries.
package broker

import (
	"context"
	"errors"
	"time"
)

// Broker-specific errors.
var (
	// ErrInvalidSymbol indicates an invalid or empty symbol.
	ErrInvalidSymbol = errors.New("broker: invalid symbol")
	// ErrInvalidLots indicates a non-positive lot count.
	ErrInvalidLots = errors.New("broker: invalid lot count")
	// ErrInvalidPrice indicates an invalid price for limit orders.
	ErrInvalidPrice = errors.New("broker: invalid price for limit order")
	// ErrInvalidSide indicates an unknown order side.
	ErrInvalidSide = errors.New("broker: invalid order side")
)

// OrderSide represents the direction of an order.
type OrderSide string

const (
	// OrderSideBuy opens a long option position.
	OrderSideBuy OrderSide = "BUY"
	// OrderSideSell closes it.
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of order execution.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Product is the broker product segment.
type Product string

// ProductFNO is the futures and options segment.
const ProductFNO Product = "FNO"

// OrderStatus represents the acknowledgement status of an order.
type OrderStatus string

const (
	// OrderStatusDryRun is returned when no order reached a venue.
	OrderStatusDryRun OrderStatus = "dry-run"
	// OrderStatusAccepted indicates the venue accepted the order.
	OrderStatusAccepted OrderStatus = "accepted"
	// OrderStatusRejected indicates the venue refused the order.
	OrderStatusRejected OrderStatus = "rejected"
)

// OrderRequest represents a request to place an option order.
type OrderRequest struct {
	// Symbol is the contract symbol (e.g., "SENSEX26JAN72000CE").
	Symbol string `json:"symbol"`
	// Side indicates buy or sell.
	Side OrderSide `json:"side"`
	// Lots is the number of lots, not units.
	Lots int `json:"qty"`
	// LimitPrice is the per-unit premium limit.
	LimitPrice float64 `json:"price"`
	// Type specifies the order execution type.
	Type OrderType `json:"order_type"`
	// Product is the segment, always FNO for options.
	Product Product `json:"product"`
	// ClientOrderID is an idempotency key generated by the caller.
	ClientOrderID string `json:"client_order_id,omitempty"`
}

// Validate checks if the order request has valid required fields.
func (r OrderRequest) Validate() error {
	if r.Symbol == "" {
		return ErrInvalidSymbol
	}
	if r.Side != OrderSideBuy && r.Side != OrderSideSell {
		return ErrInvalidSide
	}
	if r.Lots <= 0 {
		return ErrInvalidLots
	}
	if r.Type == OrderTypeLimit && r.LimitPrice <= 0 {
		return ErrInvalidPrice
	}
	return nil
}

// OrderResult is the broker acknowledgement of a placed order.
type OrderResult struct {
	OrderID       string      `json:"order_id"`
	ClientOrderID string      `json:"client_order_id,omitempty"`
	Status        OrderStatus `json:"status"`
	DryRun        bool        `json:"dry_run"`
	Message       string      `json:"message,omitempty"`
	PlacedAt      time.Time   `json:"placed_at"`
}

// Accepted reports whether the order may be recorded as entered.
func (r *OrderResult) Accepted() bool {
	return r != nil && r.Status != OrderStatusRejected
}

// Broker defines the interface for order placement.
type Broker interface {
	// Name returns the broker identifier (e.g., "dry-run", "http").
	Name() string
	// PlaceOrder submits the order. Implementations return an error rather
	// than panicking; callers treat an error or rejected result as no entry.
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
}
