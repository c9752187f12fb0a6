package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/notifier"
)

var _ notifier.Notifier = (*Webhook)(nil)

// capture starts a server that records the last decoded body and headers.
func capture(t *testing.T, status int) (*httptest.Server, *map[string]any, *http.Header) {
	t.Helper()
	body := map[string]any{}
	hdr := http.Header{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		hdr = r.Header.Clone()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &body, &hdr
}

func TestInit(t *testing.T) {
	w := &Webhook{}
	require.Error(t, w.Init(notifier.Config{Params: map[string]any{}}))

	w = &Webhook{}
	require.NoError(t, w.Init(notifier.Config{Params: map[string]any{
		"url":     "http://example.com/hook",
		"headers": map[string]any{"X-Token": "abc", "X-Retries": 3},
	}}))
	assert.Equal(t, "http://example.com/hook", w.url)
	assert.Equal(t, map[string]string{"X-Token": "abc", "X-Retries": "3"}, w.headers)
	assert.NotNil(t, w.client)
	assert.Equal(t, "webhook", w.Name())
}

func TestSendPayload(t *testing.T) {
	at := time.Date(2026, 10, 19, 10, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   notifier.Event
		want    map[string]any
		missing []string
	}{
		{
			name: "entry",
			event: notifier.Event{
				Kind: notifier.EventEntry, Date: "2026-10-19", Symbol: "SENSEX26JAN72000CE",
				Decision: core.DecisionLong, Lots: 7, EntryPrice: 90, DryRun: true, Time: at,
			},
			want: map[string]any{
				"type": "trade_entry", "kind": "entry", "symbol": "SENSEX26JAN72000CE",
				"lots": float64(7), "entry_price": float64(90), "dry_run": true,
				"time": "2026-10-19T10:05:00Z",
			},
			missing: []string{"outcome", "exit_price", "pnl_pct"},
		},
		{
			name: "exit",
			event: notifier.Event{
				Kind: notifier.EventExit, Symbol: "SENSEX26JAN72000CE",
				EntryPrice: 100, ExitPrice: 70, Outcome: core.OutcomeLoss, Reason: "SL Hit",
			},
			want: map[string]any{
				"type": "trade_exit", "outcome": "loss", "reason": "SL Hit",
				"exit_price": float64(70), "pnl_pct": float64(-30),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, body, hdr := capture(t, http.StatusOK)
			require.NoError(t, New(srv.URL, nil).Send(tt.event))

			assert.Equal(t, "application/json", hdr.Get("Content-Type"))
			for k, v := range tt.want {
				assert.Equal(t, v, (*body)[k], k)
			}
			for _, k := range tt.missing {
				assert.NotContains(t, *body, k)
			}
		})
	}
}

func TestSendHeaders(t *testing.T) {
	srv, _, hdr := capture(t, http.StatusNoContent)
	w := New(srv.URL, map[string]string{"Authorization": "Bearer secret"})

	require.NoError(t, w.Send(notifier.Event{Kind: notifier.EventEntry}))
	assert.Equal(t, "Bearer secret", hdr.Get("Authorization"))
}

func TestSendRejected(t *testing.T) {
	srv, _, _ := capture(t, http.StatusInternalServerError)

	err := New(srv.URL, nil).Send(notifier.Event{Kind: notifier.EventExit})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Error(t, New(url, nil).Send(notifier.Event{Kind: notifier.EventEntry}))
}
