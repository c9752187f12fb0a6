package mocks

import (
	"context"
	"testing"

	"github.com/newthinker/optdesk/internal/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() broker.OrderRequest {
	return broker.OrderRequest{
		Symbol:     "SENSEX26JAN72000CE",
		Side:       broker.OrderSideBuy,
		Lots:       2,
		LimitPrice: 120,
		Type:       broker.OrderTypeLimit,
		Product:    broker.ProductFNO,
	}
}

func TestMockBroker_Accepts(t *testing.T) {
	m := New()
	res, err := m.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	assert.Equal(t, "MOCK-5001", res.OrderID)
	assert.Equal(t, 1, m.GetOrderCount())
}

func TestMockBroker_Fail(t *testing.T) {
	m := New()
	m.SetShouldFail(true, "gateway down")

	res, err := m.PlaceOrder(context.Background(), validRequest())
	assert.Nil(t, res)
	assert.EqualError(t, err, "mock: gateway down")
	assert.Len(t, m.Requests(), 1)
}

func TestMockBroker_Reject(t *testing.T) {
	m := New()
	m.SetReject(true)

	res, err := m.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.False(t, res.Accepted())
}
