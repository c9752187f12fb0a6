package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
}

func TestRegistry_RecordRequest(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("GET", "GET /api/v1/state/{date}", 200, 50*time.Millisecond)
	reg.RecordRequest("GET", "GET /api/v1/state/{date}", 404, 10*time.Millisecond)

	ok := reg.httpRequestsTotal.WithLabelValues("GET", "GET /api/v1/state/{date}", "2xx")
	if got := testutil.ToFloat64(ok); got != 1 {
		t.Errorf("expected 1 2xx request, got %v", got)
	}
	if got := testutil.CollectAndCount(reg.httpRequestsTotal); got != 2 {
		t.Errorf("expected 2 series, got %d", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		status   int
		expected string
	}{
		{100, "1xx"},
		{200, "2xx"},
		{201, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{0, "unknown"},
		{999, "unknown"},
	}

	for _, tt := range tests {
		if got := statusClass(tt.status); got != tt.expected {
			t.Errorf("statusClass(%d) = %s, want %s", tt.status, got, tt.expected)
		}
	}
}

func TestRegistry_InFlight(t *testing.T) {
	reg := NewRegistry()

	reg.InFlightInc()
	reg.InFlightInc()
	reg.InFlightDec()

	if got := testutil.ToFloat64(reg.httpRequestsInFlight); got != 1 {
		t.Errorf("expected in-flight gauge 1, got %v", got)
	}
}

func TestRegistry_DurationHistogram(t *testing.T) {
	reg := NewRegistry()

	reg.RecordRequest("GET", "GET /healthz", 200, 123*time.Millisecond)

	expected := `
# HELP optdesk_http_request_duration_seconds HTTP request duration in seconds, by matched route
# TYPE optdesk_http_request_duration_seconds histogram
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="0.001"} 0
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="0.005"} 0
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="0.01"} 0
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="0.05"} 0
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="0.1"} 0
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="0.5"} 1
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="1"} 1
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="5"} 1
optdesk_http_request_duration_seconds_bucket{method="GET",route="GET /healthz",le="+Inf"} 1
optdesk_http_request_duration_seconds_sum{method="GET",route="GET /healthz"} 0.123
optdesk_http_request_duration_seconds_count{method="GET",route="GET /healthz"} 1
`
	if err := testutil.CollectAndCompare(reg.httpRequestDuration, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestRegistry_ImplementsGatherer(t *testing.T) {
	var _ prometheus.Gatherer = NewRegistry()
}

func TestRegistry_RecordCycle(t *testing.T) {
	reg := NewRegistry()
	at := time.Date(2026, 10, 19, 4, 30, 0, 0, time.UTC)

	reg.RecordCycle("hold", 250*time.Millisecond, at)
	reg.RecordCycle("hold", 100*time.Millisecond, at)
	reg.RecordCycle("entered", time.Second, at)

	if got := testutil.ToFloat64(reg.cyclesTotal.WithLabelValues("hold")); got != 2 {
		t.Errorf("expected 2 hold cycles, got %v", got)
	}
	if got := testutil.ToFloat64(reg.lastCycle); got != float64(at.Unix()) {
		t.Errorf("expected last cycle %d, got %v", at.Unix(), got)
	}
}

func TestRegistry_RecordDecision(t *testing.T) {
	reg := NewRegistry()

	reg.RecordDecision("LONG", "")
	reg.RecordDecision("NO_TRADE", "momentum")
	reg.RecordDecision("NO_TRADE", "slope")

	if got := testutil.ToFloat64(reg.decisionsTotal.WithLabelValues("NO_TRADE")); got != 2 {
		t.Errorf("expected 2 NO_TRADE decisions, got %v", got)
	}
	if got := testutil.CollectAndCount(reg.rejectionsTotal); got != 2 {
		t.Errorf("expected 2 rejection series, got %d", got)
	}
}

func TestRegistry_RecordTrades(t *testing.T) {
	reg := NewRegistry()

	reg.RecordTradeOpened("LONG", true)
	reg.RecordTradeClosed("profit")
	reg.RecordNotification("webhook", "error")

	if got := testutil.ToFloat64(reg.tradesOpened.WithLabelValues("LONG", "true")); got != 1 {
		t.Errorf("expected 1 dry-run LONG entry, got %v", got)
	}
	if got := testutil.ToFloat64(reg.tradesClosed.WithLabelValues("profit")); got != 1 {
		t.Errorf("expected 1 profit exit, got %v", got)
	}
	if got := testutil.ToFloat64(reg.notificationsTotal.WithLabelValues("webhook", "error")); got != 1 {
		t.Errorf("expected 1 failed notification, got %v", got)
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	reg := NewRegistry()
	reg.RecordCycle("no_signal", time.Second, time.Now())

	path := filepath.Join(t.TempDir(), "optdesk.prom")
	if err := reg.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(data), `optdesk_cycles_total{result="no_signal"} 1`) {
		t.Errorf("textfile missing cycle counter:\n%s", data)
	}
}
