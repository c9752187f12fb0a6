// Package options provides option chain sources and contract selection.
package options

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/optdesk/internal/core"
	"go.uber.org/zap"
)

// DefaultStrikeStep is the strike interval for synthetic chains.
const DefaultStrikeStep = 100.0

// ChainSource supplies the tradable contracts around spot. Sources never
// fail: an unreachable source yields an empty or synthetic chain.
type ChainSource interface {
	Contracts(ctx context.Context, spot float64) []core.Contract
}

// SyntheticChain builds a deterministic chain centred on spot. It is the
// fallback when no live chain is configured or reachable.
type SyntheticChain struct {
	Underlying string
	ExpiryTag  string
	Step       float64
	// Width is the number of strikes on each side of ATM.
	Width int
}

// NewSyntheticChain returns a chain of ATM ± 2 strikes.
func NewSyntheticChain(underlying, expiryTag string, step float64) *SyntheticChain {
	if step <= 0 {
		step = DefaultStrikeStep
	}
	return &SyntheticChain{Underlying: underlying, ExpiryTag: expiryTag, Step: step, Width: 2}
}

// Contracts returns one CE and one PE per strike, or nil when spot is not
// positive.
func (s *SyntheticChain) Contracts(_ context.Context, spot float64) []core.Contract {
	if spot <= 0 {
		return nil
	}
	step := s.Step
	if step <= 0 {
		step = DefaultStrikeStep
	}
	atm := math.Round(spot/step) * step

	out := make([]core.Contract, 0, 2*(2*s.Width+1))
	for i := -s.Width; i <= s.Width; i++ {
		strike := atm + float64(i)*step
		dist := math.Abs(spot - strike)

		var ce, pe float64
		if strike <= spot {
			ce = (spot - strike) + 150 - dist*0.1
		} else {
			ce = math.Max(10, 150-dist*0.5)
		}
		if strike >= spot {
			pe = (strike - spot) + 150 - dist*0.1
		} else {
			pe = math.Max(10, 150-dist*0.5)
		}

		out = append(out,
			s.contract(strike, core.OptionCall, ce),
			s.contract(strike, core.OptionPut, pe),
		)
	}
	return out
}

func (s *SyntheticChain) contract(strike float64, typ core.OptionType, premium float64) core.Contract {
	return core.Contract{
		Symbol:      fmt.Sprintf("%s%s%.0f%s", s.Underlying, s.ExpiryTag, strike, typ),
		Premium:     math.Round(premium*10) / 10,
		OIChangePct: 0.1,
		SpreadPct:   0.01,
		Type:        typ,
		Strike:      strike,
	}
}

// HTTPChain fetches a JSON chain of the form {"contracts": [...]}.
type HTTPChain struct {
	url      string
	client   *http.Client
	fallback ChainSource
	logger   *zap.Logger
}

// NewHTTPChain creates a chain source for url. fallback may be nil, in
// which case failures yield an empty chain.
func NewHTTPChain(url string, timeout time.Duration, fallback ChainSource, logger ...*zap.Logger) *HTTPChain {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	var l *zap.Logger
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	} else {
		l = zap.NewNop()
	}
	return &HTTPChain{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		fallback: fallback,
		logger:   l,
	}
}

// Contracts fetches the live chain. HTML pages, transport errors and bad
// payloads fall back to the synthetic chain when spot is known.
func (h *HTTPChain) Contracts(ctx context.Context, spot float64) []core.Contract {
	if h.url == "" || strings.HasSuffix(h.url, ".html") {
		h.logger.Warn("option chain url unusable, using fallback", zap.String("url", h.url))
		return h.useFallback(ctx, spot)
	}

	contracts, err := h.fetch(ctx)
	if err != nil {
		h.logger.Warn("option chain fetch failed, using fallback", zap.String("url", h.url), zap.Error(err))
		return h.useFallback(ctx, spot)
	}

	h.logger.Debug("option chain fetched", zap.Int("contracts", len(contracts)))
	return contracts
}

func (h *HTTPChain) useFallback(ctx context.Context, spot float64) []core.Contract {
	if h.fallback == nil || spot <= 0 {
		return nil
	}
	return h.fallback.Contracts(ctx, spot)
}

type chainResponse struct {
	Contracts []rawContract `json:"contracts"`
}

type rawContract struct {
	Symbol      string   `json:"symbol"`
	Premium     float64  `json:"premium"`
	OIChangePct float64  `json:"oi_change_pct"`
	SpreadPct   *float64 `json:"spread_pct"`
	Type        string   `json:"type"`
	Strike      float64  `json:"strike"`
}

func (h *HTTPChain) fetch(ctx context.Context) ([]core.Contract, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; optdesk)")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching chain: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return nil, fmt.Errorf("chain url returned an HTML page")
	}

	var result chainResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding chain: %w", err)
	}

	out := make([]core.Contract, 0, len(result.Contracts))
	for _, rc := range result.Contracts {
		// a missing spread must never pass a spread filter
		spread := 1.0
		if rc.SpreadPct != nil {
			spread = *rc.SpreadPct
		}
		typ := core.OptionType(strings.ToUpper(rc.Type))
		if typ != core.OptionCall && typ != core.OptionPut {
			typ = InferType(rc.Symbol)
		}
		out = append(out, core.Contract{
			Symbol:      rc.Symbol,
			Premium:     rc.Premium,
			OIChangePct: rc.OIChangePct,
			SpreadPct:   spread,
			Type:        typ,
			Strike:      rc.Strike,
		})
	}
	return out, nil
}

// InferType reads the option type from the symbol suffix, falling back to
// a substring match. Unknown symbols return "".
func InferType(symbol string) core.OptionType {
	s := strings.ToUpper(symbol)
	switch {
	case strings.HasSuffix(s, "CE"):
		return core.OptionCall
	case strings.HasSuffix(s, "PE"):
		return core.OptionPut
	case strings.Contains(s, "CE"):
		return core.OptionCall
	case strings.Contains(s, "PE"):
		return core.OptionPut
	default:
		return ""
	}
}

var (
	_ ChainSource = (*SyntheticChain)(nil)
	_ ChainSource = (*HTTPChain)(nil)
)
