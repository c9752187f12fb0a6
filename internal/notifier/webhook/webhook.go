// Package webhook posts trade lifecycle events as JSON to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/newthinker/optdesk/internal/notifier"
)

const defaultTimeout = 10 * time.Second

// payload is the wire body. The event fields are inlined so receivers see a
// flat object; pnl_pct is present on exits only.
type payload struct {
	Type string `json:"type"`
	notifier.Event
	PnLPct *float64 `json:"pnl_pct,omitempty"`
}

func newPayload(e notifier.Event) payload {
	p := payload{Type: "trade_" + string(e.Kind), Event: e}
	if e.Kind == notifier.EventExit {
		pnl := e.PnLPct()
		p.PnLPct = &pnl
	}
	return p
}

type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

func New(url string, headers map[string]string) *Webhook {
	return &Webhook{url: url, headers: headers, client: &http.Client{Timeout: defaultTimeout}}
}

func (w *Webhook) Name() string { return "webhook" }

// Init reads url and headers from params. Headers may arrive as
// map[string]any when decoded by viper.
func (w *Webhook) Init(cfg notifier.Config) error {
	if v, ok := cfg.Params["url"].(string); ok {
		w.url = v
	}
	switch h := cfg.Params["headers"].(type) {
	case map[string]string:
		w.headers = h
	case map[string]any:
		w.headers = make(map[string]string, len(h))
		for k, v := range h {
			w.headers[k] = fmt.Sprint(v)
		}
	}
	if w.url == "" {
		return fmt.Errorf("webhook: url is required")
	}
	if w.client == nil {
		w.client = &http.Client{Timeout: defaultTimeout}
	}
	return nil
}

func (w *Webhook) Send(event notifier.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return w.deliver(ctx, newPayload(event))
}

func (w *Webhook) deliver(ctx context.Context, p payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("webhook: encode %s event: %w", p.Kind, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post %s: %w", p.Kind, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook: %s event rejected with status %d", p.Kind, resp.StatusCode)
	}
	return nil
}
