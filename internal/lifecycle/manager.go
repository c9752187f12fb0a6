// Package lifecycle drives one options trade per day through entry,
// monitoring and exit, persisting state between invocations.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/optdesk/internal/analysis"
	"github.com/newthinker/optdesk/internal/broker"
	"github.com/newthinker/optdesk/internal/collector"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/indicator"
	"github.com/newthinker/optdesk/internal/notifier"
	"github.com/newthinker/optdesk/internal/options"
	"github.com/newthinker/optdesk/internal/storage/plan"
	"github.com/newthinker/optdesk/internal/storage/state"
	"github.com/newthinker/optdesk/internal/strategy"
	"go.uber.org/zap"
)

// Exit reasons recorded on closed trades.
const (
	ReasonStopLoss = "SL Hit"
	ReasonTarget   = "TP Hit"
)

// Config holds the lifecycle parameters.
type Config struct {
	// Underlying is the index symbol the price collector understands.
	Underlying string
	// Interval and Lookback size the bar window handed to the indicator provider.
	Interval string
	Lookback time.Duration
	// StopLossMultiplier and TargetMultiplier are applied to the entry premium.
	StopLossMultiplier float64
	TargetMultiplier   float64
	// LossCap blocks new entries once a loss is booked and this many trades ran.
	LossCap int
	Window  Window
	// Location is the market timezone. Nil loads DefaultTimezone.
	Location *time.Location
	// AllowOutsideWindow lets non-production runs act outside Window.
	AllowOutsideWindow bool
	// FetchTimeout bounds every external call.
	FetchTimeout time.Duration
}

// DefaultConfig returns the standard lifecycle parameters.
func DefaultConfig() Config {
	return Config{
		Underlying:         "^BSESN",
		Interval:           "5m",
		Lookback:           5 * 24 * time.Hour,
		StopLossMultiplier: 0.7,
		TargetMultiplier:   1.5,
		LossCap:            2,
		Window:             DefaultWindow(),
		FetchTimeout:       10 * time.Second,
	}
}

// Recorder receives cycle metrics.
type Recorder interface {
	RecordCycle(result string, duration time.Duration, at time.Time)
	RecordDecision(decision, category string)
	RecordTradeOpened(decision string, dryRun bool)
	RecordTradeClosed(outcome string)
	RecordNotification(notifier, status string)
}

// Announcer fans trade events out to notifiers.
type Announcer interface {
	Names() []string
	NotifyAll(event notifier.Event) map[string]error
}

// Deps are the collaborators of a Manager. Journal, Notifier, Metrics and
// Clock are optional.
type Deps struct {
	State      state.Store
	Prices     collector.Collector
	Indicators indicator.Provider
	Chain      options.ChainSource
	Selector   *options.Selector
	Sizer      *broker.Sizer
	Broker     broker.Broker
	Engine     strategy.Evaluator

	Journal  plan.Store
	Notifier Announcer
	Metrics  Recorder
	Clock    func() time.Time
}

// Manager runs lifecycle cycles. It holds no state between cycles beyond
// what the state store persists.
type Manager struct {
	cfg    Config
	deps   Deps
	logger *zap.Logger
}

// NewManager validates the collaborators and fills in defaults.
func NewManager(cfg Config, deps Deps, logger ...*zap.Logger) (*Manager, error) {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}

	required := []struct {
		name string
		ok   bool
	}{
		{"state", deps.State != nil},
		{"prices", deps.Prices != nil},
		{"indicators", deps.Indicators != nil},
		{"chain", deps.Chain != nil},
		{"selector", deps.Selector != nil},
		{"sizer", deps.Sizer != nil},
		{"broker", deps.Broker != nil},
		{"engine", deps.Engine != nil},
	}
	for _, r := range required {
		if !r.ok {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("lifecycle: %s is required", r.name))
		}
	}

	if cfg.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, core.WrapError(core.ErrConfigInvalid, err)
		}
		cfg.Location = loc
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Manager{cfg: cfg, deps: deps, logger: l}, nil
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// RunCycle evaluates one transition of today's state machine. It never
// returns an error: every path resolves to a Result, and only Entered and
// the Closed codes write state.
func (m *Manager) RunCycle(ctx context.Context) Result {
	started := time.Now()
	now := m.deps.Clock().In(m.cfg.Location)

	res := m.cycle(ctx, now)
	res.Date = state.Key(now, m.cfg.Location)

	m.deps.Metrics.RecordCycle(string(res.Code), time.Since(started), now)

	fields := []zap.Field{
		zap.String("code", string(res.Code)),
		zap.String("date", res.Date),
	}
	if res.Symbol != "" {
		fields = append(fields, zap.String("symbol", res.Symbol))
	}
	if res.Message != "" {
		fields = append(fields, zap.String("message", res.Message))
	}
	if res.Err != nil {
		fields = append(fields, zap.Error(res.Err))
		if code := core.CodeOf(res.Err); code != "" {
			fields = append(fields, zap.String("error_code", code))
		}
	}
	m.logger.Info("cycle complete", fields...)

	return res
}

func (m *Manager) cycle(ctx context.Context, now time.Time) Result {
	if err := ctx.Err(); err != nil {
		return Result{Code: DataUnavailable, Message: "cycle cancelled", Err: err}
	}
	if IsWeekend(now) {
		return Result{Code: SkippedWeekend, Message: now.Weekday().String()}
	}
	if !m.cfg.Window.Contains(now) {
		if !m.cfg.AllowOutsideWindow {
			return Result{Code: SkippedWindow, Message: fmt.Sprintf("%s outside %s", now.Format("15:04:05"), m.cfg.Window)}
		}
		m.logger.Warn("outside trading window, proceeding",
			zap.String("window", m.cfg.Window.String()),
			zap.Time("now", now),
		)
	}

	doc, err := m.deps.State.Load(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrStateCorrupt) {
			return Result{Code: DataUnavailable, Message: "state unavailable", Err: err}
		}
		m.logger.Warn("state unreadable, starting empty", zap.Error(err))
	}
	if doc == nil {
		doc = state.Document{}
	}

	key := state.Key(now, m.cfg.Location)
	day := doc.Day(key)

	if day.IsOpen() {
		return m.monitor(ctx, now, doc, key, day)
	}

	switch {
	case day.Outcome == core.OutcomeProfit:
		return Result{Code: BlockedDailyTarget, Symbol: day.Symbol, Message: "daily target reached"}
	case day.Outcome == core.OutcomeLoss && day.TradesExecuted >= m.cfg.LossCap:
		return Result{Code: BlockedLossCap, Symbol: day.Symbol,
			Message: fmt.Sprintf("max daily losses reached after %d trades", day.TradesExecuted)}
	}

	return m.enter(ctx, now, doc, key, day)
}

func (m *Manager) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.FetchTimeout)
}

func (m *Manager) monitor(ctx context.Context, now time.Time, doc state.Document, key string, day core.TradeDayState) Result {
	res := Result{
		Decision:   day.Decision,
		Symbol:     day.Symbol,
		EntryPrice: day.EntryPrice,
		Lots:       day.Lots,
		OrderID:    day.OrderID,
	}

	qctx, cancel := m.fetchContext(ctx)
	quote, err := m.deps.Prices.FetchQuote(qctx, m.cfg.Underlying)
	cancel()
	if err != nil || quote == nil || quote.Price <= 0 {
		res.Code = DataUnavailable
		res.Message = "could not fetch spot price, holding"
		res.Err = err
		return res
	}

	cctx, cancel := m.fetchContext(ctx)
	contracts := m.deps.Chain.Contracts(cctx, quote.Price)
	cancel()

	premium, ok := options.ResolvePremium(contracts, day.Symbol)
	if !ok {
		res.Code = Hold
		res.Message = "could not resolve current premium, holding"
		return res
	}
	res.Premium = premium

	m.logger.Debug("monitoring open trade",
		zap.String("symbol", day.Symbol),
		zap.Float64("spot", quote.Price),
		zap.Float64("premium", premium),
		zap.Float64("entry", day.EntryPrice),
	)

	switch {
	case premium <= day.EntryPrice*m.cfg.StopLossMultiplier:
		return m.close(ctx, now, doc, key, day, res, core.OutcomeLoss, ReasonStopLoss)
	case premium >= day.EntryPrice*m.cfg.TargetMultiplier:
		return m.close(ctx, now, doc, key, day, res, core.OutcomeProfit, ReasonTarget)
	}

	res.Code = Hold
	res.Message = fmt.Sprintf("premium %.2f within %.2f-%.2f",
		premium, day.EntryPrice*m.cfg.StopLossMultiplier, day.EntryPrice*m.cfg.TargetMultiplier)
	return res
}

func (m *Manager) close(ctx context.Context, now time.Time, doc state.Document, key string, day core.TradeDayState, res Result, outcome core.Outcome, reason string) Result {
	closedAt := now
	day.Outcome = outcome
	day.ExitPrice = res.Premium
	day.ExitReason = reason
	day.Status = core.TradeClosed
	day.ClosedAt = &closedAt
	doc[key] = day

	if err := m.deps.State.Save(ctx, doc); err != nil {
		res.Code = StateWriteFailed
		res.Message = "exit not recorded"
		res.Err = err
		return res
	}

	res.Code = ClosedLoss
	if outcome == core.OutcomeProfit {
		res.Code = ClosedProfit
	}
	res.Message = reason

	ack := m.placeExit(ctx, day, res.Premium)

	m.deps.Metrics.RecordTradeClosed(string(outcome))
	m.announce(notifier.Event{
		Kind:       notifier.EventExit,
		Date:       key,
		Underlying: m.cfg.Underlying,
		Symbol:     day.Symbol,
		Decision:   day.Decision,
		Lots:       day.Lots,
		EntryPrice: day.EntryPrice,
		ExitPrice:  res.Premium,
		Outcome:    outcome,
		Reason:     reason,
		OrderID:    ack.OrderID,
		DryRun:     ack.DryRun,
		Time:       now,
	})
	return res
}

// placeExit sends the closing sell order. The exit is already recorded, so
// failures are logged only.
func (m *Manager) placeExit(ctx context.Context, day core.TradeDayState, premium float64) broker.OrderResult {
	if day.Lots <= 0 {
		m.logger.Warn("no lot count on record, skipping exit order", zap.String("symbol", day.Symbol))
		return broker.OrderResult{}
	}

	req := broker.OrderRequest{
		Symbol:        day.Symbol,
		Side:          broker.OrderSideSell,
		Lots:          day.Lots,
		LimitPrice:    premium,
		Type:          broker.OrderTypeLimit,
		Product:       broker.ProductFNO,
		ClientOrderID: uuid.NewString(),
	}

	octx, cancel := m.fetchContext(ctx)
	defer cancel()
	ack, err := m.deps.Broker.PlaceOrder(octx, req)
	if err != nil || !ack.Accepted() {
		m.logger.Error("exit order failed",
			zap.String("symbol", day.Symbol),
			zap.String("client_order_id", req.ClientOrderID),
			zap.Error(err),
		)
		return broker.OrderResult{}
	}
	return *ack
}

func (m *Manager) enter(ctx context.Context, now time.Time, doc state.Document, key string, day core.TradeDayState) Result {
	hctx, cancel := m.fetchContext(ctx)
	bars, err := m.deps.Prices.FetchHistory(hctx, m.cfg.Underlying, now.Add(-m.cfg.Lookback), now, m.cfg.Interval)
	cancel()
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return Result{Code: DataUnavailable, Message: "no market data", Err: cerr}
		}
		// bars only fill gaps in the snapshot; the provider decides if it can go on
		m.logger.Warn("price history unavailable, evaluating without bars",
			zap.String("underlying", m.cfg.Underlying),
			zap.Error(err),
		)
		bars = nil
	}

	sctx, cancel := m.fetchContext(ctx)
	snap, err := m.deps.Indicators.Snapshot(sctx, m.cfg.Underlying, bars)
	cancel()
	if err != nil {
		return Result{Code: DataUnavailable, Message: "no indicator snapshot", Err: err}
	}

	p := m.deps.Engine.Evaluate(snap)
	m.deps.Metrics.RecordDecision(string(p.Decision), string(p.RejectCategory))

	risk := analysis.AssessRisk(snap)
	m.logger.Info("plan evaluated",
		zap.String("decision", string(p.Decision)),
		zap.String("reason", p.Reason),
		zap.Int("confidence", p.Confidence),
		zap.String("regime", string(p.Regime)),
		zap.String("volatility", risk.Volatility),
		zap.Float64("size_multiplier", risk.SizeMultiplier),
	)

	res := m.tryEntry(ctx, now, doc, key, day, p)
	res.Decision = p.Decision
	res.Plan = &p

	m.record(ctx, now, p, res.Code)
	return res
}

func (m *Manager) tryEntry(ctx context.Context, now time.Time, doc state.Document, key string, day core.TradeDayState, p core.ActionPlan) Result {
	if !p.Decision.IsDirectional() || p.Price == nil {
		return Result{Code: NoSignal, Message: p.Reason}
	}

	cctx, cancel := m.fetchContext(ctx)
	contracts := m.deps.Chain.Contracts(cctx, *p.Price)
	cancel()

	c, ok := m.deps.Selector.Select(p.Decision, contracts)
	if !ok {
		return Result{Code: NoContract, Message: fmt.Sprintf("no candidate among %d contracts passed filters", len(contracts))}
	}

	size := m.deps.Sizer.Lots(c.Premium)
	if !size.Allowed {
		return Result{Code: InsufficientCapital, Symbol: c.Symbol, Premium: c.Premium, Message: size.Reason}
	}

	req := broker.OrderRequest{
		Symbol:        c.Symbol,
		Side:          broker.OrderSideBuy,
		Lots:          size.Lots,
		LimitPrice:    c.Premium,
		Type:          broker.OrderTypeLimit,
		Product:       broker.ProductFNO,
		ClientOrderID: uuid.NewString(),
	}

	octx, cancel := m.fetchContext(ctx)
	ack, err := m.deps.Broker.PlaceOrder(octx, req)
	cancel()
	if err == nil && !ack.Accepted() {
		msg := "no acknowledgement"
		if ack != nil {
			msg = ack.Message
		}
		err = fmt.Errorf("order rejected: %s", msg)
	}
	if err != nil {
		return Result{
			Code:    OrderFailed,
			Symbol:  c.Symbol,
			Premium: c.Premium,
			Lots:    size.Lots,
			Message: "order not placed, state untouched",
			Err:     core.WrapError(core.ErrOrderFailed, err),
		}
	}

	entered := core.TradeDayState{
		TradesExecuted: day.TradesExecuted + 1,
		Symbol:         c.Symbol,
		EntryPrice:     c.Premium,
		Lots:           size.Lots,
		Decision:       p.Decision,
		OrderID:        ack.OrderID,
		Status:         core.TradeOpen,
		LoggedAt:       now,
	}
	doc[key] = entered

	res := Result{
		Symbol:     c.Symbol,
		Premium:    c.Premium,
		EntryPrice: c.Premium,
		Lots:       size.Lots,
		OrderID:    ack.OrderID,
	}
	if err := m.deps.State.Save(ctx, doc); err != nil {
		res.Code = StateWriteFailed
		res.Message = "order placed but entry not recorded"
		res.Err = err
		return res
	}

	res.Code = Entered
	res.Message = fmt.Sprintf("%s %d lot(s) %s @ %.2f", req.Side, size.Lots, c.Symbol, c.Premium)

	m.deps.Metrics.RecordTradeOpened(string(p.Decision), ack.DryRun)
	m.announce(notifier.Event{
		Kind:       notifier.EventEntry,
		Date:       key,
		Underlying: m.cfg.Underlying,
		Symbol:     c.Symbol,
		Decision:   p.Decision,
		Lots:       size.Lots,
		EntryPrice: c.Premium,
		OrderID:    ack.OrderID,
		DryRun:     ack.DryRun,
		Time:       now,
	})
	return res
}

// record journals the evaluated plan. Journal failures never affect the cycle.
func (m *Manager) record(ctx context.Context, now time.Time, p core.ActionPlan, code Code) {
	if m.deps.Journal == nil {
		return
	}
	if _, err := m.deps.Journal.Save(ctx, plan.Entry{RecordedAt: now, Plan: p, Result: string(code)}); err != nil {
		m.logger.Warn("failed to journal plan", zap.Error(err))
	}
}

func (m *Manager) announce(event notifier.Event) {
	if m.deps.Notifier == nil {
		return
	}
	errs := m.deps.Notifier.NotifyAll(event)
	for _, name := range m.deps.Notifier.Names() {
		status := "ok"
		if err, failed := errs[name]; failed {
			status = "error"
			m.logger.Warn("notification failed",
				zap.String("notifier", name),
				zap.String("kind", string(event.Kind)),
				zap.Error(err),
			)
		}
		m.deps.Metrics.RecordNotification(name, status)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordCycle(string, time.Duration, time.Time) {}
func (nopRecorder) RecordDecision(string, string)                {}
func (nopRecorder) RecordTradeOpened(string, bool)               {}
func (nopRecorder) RecordTradeClosed(string)                     {}
func (nopRecorder) RecordNotification(string, string)            {}
