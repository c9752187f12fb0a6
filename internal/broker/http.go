package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HTTPBroker posts orders as JSON to a broker gateway.
type HTTPBroker struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTP creates a broker posting to endpoint with a bearer key.
// A zero timeout defaults to 10 seconds.
func NewHTTP(endpoint, apiKey string, timeout time.Duration, logger ...*zap.Logger) *HTTPBroker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &HTTPBroker{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		logger:   l,
	}
}

// Name returns the broker name.
func (h *HTTPBroker) Name() string {
	return "http"
}

// PlaceOrder submits req and decodes the gateway acknowledgement.
func (h *HTTPBroker) PlaceOrder(ctx context.Context, req OrderRequest) (*OrderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("broker: failed to marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("broker: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("broker: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("broker: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("broker: server returned %d: %s", resp.StatusCode, string(raw))
	}

	var result OrderResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("broker: failed to decode response: %w", err)
	}
	if result.Status == "" {
		result.Status = OrderStatusAccepted
	}
	if result.ClientOrderID == "" {
		result.ClientOrderID = req.ClientOrderID
	}
	if result.PlacedAt.IsZero() {
		result.PlacedAt = time.Now()
	}

	h.logger.Info("order placed",
		zap.String("order_id", result.OrderID),
		zap.String("status", string(result.Status)),
		zap.String("symbol", req.Symbol),
		zap.Int("lots", req.Lots),
	)
	return &result, nil
}

var _ Broker = (*HTTPBroker)(nil)
