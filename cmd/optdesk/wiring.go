package main

import (
	"fmt"

	"github.com/newthinker/optdesk/internal/broker"
	"github.com/newthinker/optdesk/internal/collector"
	"github.com/newthinker/optdesk/internal/collector/yahoo"
	"github.com/newthinker/optdesk/internal/config"
	"github.com/newthinker/optdesk/internal/indicator"
	"github.com/newthinker/optdesk/internal/lifecycle"
	"github.com/newthinker/optdesk/internal/logger"
	"github.com/newthinker/optdesk/internal/metrics"
	"github.com/newthinker/optdesk/internal/notifier"
	"github.com/newthinker/optdesk/internal/notifier/telegram"
	"github.com/newthinker/optdesk/internal/notifier/webhook"
	"github.com/newthinker/optdesk/internal/options"
	"github.com/newthinker/optdesk/internal/storage/archive"
	"github.com/newthinker/optdesk/internal/storage/plan"
	"github.com/newthinker/optdesk/internal/storage/state"
	"github.com/newthinker/optdesk/internal/strategy"
	"go.uber.org/zap"
)

// readConfig loads the configuration without validating it, for commands
// that only read state or evaluate snapshots.
func readConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if debug {
		cfg.Log.Development = true
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// loadConfig reads and validates the configuration. Validation failures are
// fatal for the run.
func loadConfig() (*config.Config, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.Options{Development: cfg.Log.Development, Level: cfg.Log.Level})
}

// stores opens the state document and, when enabled, the plan journal on
// the configured archive backend.
func stores(cfg *config.Config, log *zap.Logger) (state.Store, plan.Store, error) {
	backend, err := archive.New(cfg.Storage.Archive)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive: %w", err)
	}
	st := state.NewArchiveStore(backend, cfg.Storage.StatePath, log)
	if !cfg.Storage.Journal {
		return st, nil, nil
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	return st, plan.NewArchiveStore(backend, cfg.Storage.JournalPrefix, loc), nil
}

func newProvider(cfg *config.Config) indicator.Provider {
	if cfg.Indicator.Source == config.SourceHTTP {
		return indicator.NewHTTPProvider(cfg.Indicator.URL, cfg.Indicator.Timeout)
	}
	return indicator.NewFileProvider(cfg.Indicator.Path)
}

func newBroker(cfg *config.Config, log *zap.Logger) broker.Broker {
	if cfg.Broker.Mode == config.ModeLive {
		return broker.NewHTTP(cfg.Broker.Endpoint, cfg.Broker.APIKey, cfg.Broker.Timeout, log)
	}
	return broker.NewDryRun(log)
}

func newNotifiers(cfg *config.Config) (*notifier.Registry, error) {
	reg := notifier.NewRegistry()
	for name, nc := range cfg.Notifiers {
		if !nc.Enabled {
			continue
		}
		var n notifier.Notifier
		params := map[string]any{}
		switch name {
		case "telegram":
			n = telegram.New(nc.BotToken, nc.ChatID)
			params["api_base"] = nc.APIBase
		case "webhook":
			n = webhook.New(nc.URL, nc.Headers)
		default:
			return nil, fmt.Errorf("unknown notifier %q", name)
		}
		if err := n.Init(notifier.Config{Type: name, Params: params}); err != nil {
			return nil, err
		}
		if err := reg.Register(n); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newCollector(cfg *config.Config) (collector.Collector, error) {
	reg, err := collector.NewRegistry(yahoo.New())
	if err != nil {
		return nil, err
	}
	return reg.Lookup(cfg.Market.Collector)
}

// buildManager wires every lifecycle collaborator from configuration. st
// and journal come from stores; journal may be nil.
func buildManager(cfg *config.Config, log *zap.Logger, reg *metrics.Registry, st state.Store, journal plan.Store) (*lifecycle.Manager, error) {
	prices, err := newCollector(cfg)
	if err != nil {
		return nil, err
	}
	notifiers, err := newNotifiers(cfg)
	if err != nil {
		return nil, err
	}
	lc, err := cfg.Lifecycle()
	if err != nil {
		return nil, err
	}

	synthetic := options.NewSyntheticChain(cfg.Market.Index, cfg.Options.ExpiryTag, cfg.Options.StrikeStep)

	deps := lifecycle.Deps{
		State:      st,
		Prices:     prices,
		Indicators: newProvider(cfg),
		Chain:      options.NewHTTPChain(cfg.Options.ChainURL, cfg.Trading.FetchTimeout, synthetic, log),
		Selector:   options.NewSelector(cfg.Bounds(), cfg.Options.ExpiryDay),
		Sizer:      broker.NewSizer(cfg.Sizer()),
		Broker:     newBroker(cfg, log),
		Engine:     strategy.NewEngine(cfg.Engine(), log),
		Journal:    journal,
		Notifier:   notifiers,
		Metrics:    reg,
	}

	return lifecycle.NewManager(lc, deps, log)
}
