package indicator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/newthinker/optdesk/internal/core"
)

// Provider supplies the indicator snapshot for the latest bar of symbol.
// bars is the recent OHLCV window the caller already fetched; providers may
// use it or ignore it.
type Provider interface {
	Snapshot(ctx context.Context, symbol string, bars []core.OHLCV) (core.Snapshot, error)
}

// FileProvider reads a JSON record from disk. Used when an upstream job
// writes the indicator snapshot before the trading cycle runs.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider reading from path
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (f *FileProvider) Snapshot(ctx context.Context, symbol string, bars []core.OHLCV) (core.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return core.Snapshot{}, core.WrapError(core.ErrDataUnavailable, fmt.Errorf("reading snapshot: %w", err))
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		return core.Snapshot{}, core.WrapError(core.ErrDataUnavailable, err)
	}
	s := Enrich(FromRecord(symbol, rec), bars)
	s.Time = time.Now()
	return s, nil
}

// DecodeRecord parses a JSON object of name -> number|null. Non-numeric
// values are dropped rather than failing the whole record.
func DecodeRecord(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	rec := make(Record, len(raw))
	for k, v := range raw {
		var f *float64
		if err := json.Unmarshal(v, &f); err != nil {
			continue
		}
		rec[k] = f
	}
	return rec, nil
}

// HTTPProvider posts the bar window to an indicator service and decodes the
// returned record.
type HTTPProvider struct {
	url      string
	client   *http.Client
	attempts int
}

// NewHTTPProvider creates a provider for the service at url
func NewHTTPProvider(url string, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPProvider{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		attempts: 3,
	}
}

type snapshotRequest struct {
	Symbol string    `json:"symbol"`
	Bars   []barJSON `json:"bars"`
}

type barJSON struct {
	Time   int64   `json:"t"`
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume int64   `json:"v"`
}

func (p *HTTPProvider) Snapshot(ctx context.Context, symbol string, bars []core.OHLCV) (core.Snapshot, error) {
	req := snapshotRequest{Symbol: symbol, Bars: make([]barJSON, len(bars))}
	for i, b := range bars {
		req.Bars[i] = barJSON{Time: b.Time.Unix(), Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("marshaling request: %w", err)
	}

	var data []byte
	for i := 1; i <= p.attempts; i++ {
		data, err = p.post(ctx, body)
		if err == nil {
			break
		}
		select {
		case <-time.After(time.Duration(i) * 50 * time.Millisecond):
		case <-ctx.Done():
			return core.Snapshot{}, core.WrapError(core.ErrDataUnavailable, ctx.Err())
		}
	}
	if err != nil {
		return core.Snapshot{}, core.WrapError(core.ErrDataUnavailable, err)
	}

	rec, err := DecodeRecord(data)
	if err != nil {
		return core.Snapshot{}, core.WrapError(core.ErrDataUnavailable, err)
	}
	s := Enrich(FromRecord(symbol, rec), bars)
	s.Time = time.Now()
	return s, nil
}

func (p *HTTPProvider) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting snapshot request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return buf.Bytes(), nil
}
