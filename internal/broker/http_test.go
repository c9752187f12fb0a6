package broker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/optdesk/internal/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPBroker_PlaceOrder(t *testing.T) {
	var got broker.OrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"order_id":"G-1"}`))
	}))
	defer server.Close()

	b := broker.NewHTTP(server.URL, "secret", time.Second)
	req := broker.OrderRequest{
		Symbol:        "SENSEX26JAN72000PE",
		Side:          broker.OrderSideBuy,
		Lots:          2,
		LimitPrice:    88.4,
		Type:          broker.OrderTypeLimit,
		Product:       broker.ProductFNO,
		ClientOrderID: "cid-1",
	}
	res, err := b.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, req, got)
	assert.Equal(t, "G-1", res.OrderID)
	assert.Equal(t, broker.OrderStatusAccepted, res.Status)
	assert.Equal(t, "cid-1", res.ClientOrderID)
	assert.False(t, res.DryRun)
}

func TestHTTPBroker_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "margin shortfall", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	b := broker.NewHTTP(server.URL, "", time.Second)
	res, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "X", Side: broker.OrderSideBuy, Lots: 1, Type: broker.OrderTypeMarket,
	})
	assert.Nil(t, res)
	assert.ErrorContains(t, err, "422")
}

func TestHTTPBroker_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	b := broker.NewHTTP(server.URL, "", 50*time.Millisecond)
	_, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "X", Side: broker.OrderSideSell, Lots: 1, Type: broker.OrderTypeMarket,
	})
	assert.Error(t, err)
}
