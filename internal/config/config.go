package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/optdesk/internal/broker"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/lifecycle"
	"github.com/newthinker/optdesk/internal/options"
	"github.com/newthinker/optdesk/internal/storage/archive"
	"github.com/newthinker/optdesk/internal/storage/state"
	"github.com/newthinker/optdesk/internal/strategy"
	"github.com/spf13/viper"
)

// Order modes.
const (
	ModeDry  = "dry"
	ModeLive = "live"
)

// Indicator sources.
const (
	SourceFile = "file"
	SourceHTTP = "http"
)

type Config struct {
	Log       LogConfig                 `mapstructure:"log"`
	Market    MarketConfig              `mapstructure:"market"`
	Trading   TradingConfig             `mapstructure:"trading"`
	Strategy  strategy.Config           `mapstructure:"strategy"`
	Options   OptionsConfig             `mapstructure:"options"`
	Broker    BrokerConfig              `mapstructure:"broker"`
	Indicator IndicatorConfig           `mapstructure:"indicator"`
	Storage   StorageConfig             `mapstructure:"storage"`
	Notifiers map[string]NotifierConfig `mapstructure:"notifiers"`
	Metrics   MetricsConfig             `mapstructure:"metrics"`
	Daemon    DaemonConfig              `mapstructure:"daemon"`
}

type LogConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MarketConfig describes the underlying and where its prices come from.
type MarketConfig struct {
	Timezone     string `mapstructure:"timezone"`
	Underlying   string `mapstructure:"underlying"`
	Index        string `mapstructure:"index"`
	Collector    string `mapstructure:"collector"`
	Interval     string `mapstructure:"interval"`
	LookbackDays int    `mapstructure:"lookback_days"`
}

// TradingConfig holds the lifecycle and sizing parameters.
type TradingConfig struct {
	Window             lifecycle.Window `mapstructure:"window"`
	AllowOutsideWindow bool             `mapstructure:"allow_outside_window"`
	Capital            float64          `mapstructure:"capital"`
	AllocationPct      float64          `mapstructure:"allocation_pct"`
	LotSize            int              `mapstructure:"lot_size"`
	PerLotBuffer       float64          `mapstructure:"per_lot_buffer"`
	StopLossMultiplier float64          `mapstructure:"stop_loss_multiplier"`
	TargetMultiplier   float64          `mapstructure:"target_multiplier"`
	LossCap            int              `mapstructure:"loss_cap"`
	FetchTimeout       time.Duration    `mapstructure:"fetch_timeout"`
}

// OptionsConfig holds the chain source and contract filter settings.
type OptionsConfig struct {
	ChainURL    string  `mapstructure:"chain_url"`
	ExpiryTag   string  `mapstructure:"expiry_tag"`
	ExpiryDay   bool    `mapstructure:"expiry_day"`
	StrikeStep  float64 `mapstructure:"strike_step"`
	PremiumMin  float64 `mapstructure:"premium_min"`
	PremiumMax  float64 `mapstructure:"premium_max"`
	MaxSpread   float64 `mapstructure:"max_spread_pct"`
	MinOIChange float64 `mapstructure:"oi_change_pct"`
}

// BrokerConfig selects dry-run or live order placement.
type BrokerConfig struct {
	Mode     string        `mapstructure:"mode"` // "dry" or "live"
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// IndicatorConfig selects where snapshots come from.
type IndicatorConfig struct {
	Source  string        `mapstructure:"source"` // "file" or "http"
	Path    string        `mapstructure:"path"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds the state document and plan journal locations.
type StorageConfig struct {
	Archive       archive.Config `mapstructure:"archive"`
	StatePath     string         `mapstructure:"state_path"`
	Journal       bool           `mapstructure:"journal"`
	JournalPrefix string         `mapstructure:"journal_prefix"`
}

type NotifierConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	BotToken string            `mapstructure:"bot_token"`
	ChatID   string            `mapstructure:"chat_id"`
	APIBase  string            `mapstructure:"api_base"`
	URL      string            `mapstructure:"url"`
	Headers  map[string]string `mapstructure:"headers"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// TextfilePath, when set, receives a node_exporter textfile after each run.
	TextfilePath string `mapstructure:"textfile_path"`
	// Listen is the daemon's /metrics address.
	Listen string `mapstructure:"listen"`
}

// DaemonConfig holds settings for the long-running daemon.
type DaemonConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// APIKey, when set, is required on /api routes as X-API-Key.
	APIKey string `mapstructure:"api_key"`
}

// envAliases maps config keys to the bare variable names deployments
// already export. The first variable set wins.
var envAliases = map[string][]string{
	"trading.capital":             {"CAPITAL"},
	"trading.allocation_pct":      {"ALLOCATION_PCT"},
	"trading.lot_size":            {"SENSEX_LOT_SIZE", "LOT_SIZE"},
	"trading.window.start.hour":   {"TRADING_START_H"},
	"trading.window.start.minute": {"TRADING_START_M"},
	"trading.window.end.hour":     {"TRADING_END_H"},
	"trading.window.end.minute":   {"TRADING_END_M"},
	"options.premium_min":         {"PREMIUM_MIN"},
	"options.premium_max":         {"PREMIUM_MAX"},
	"options.max_spread_pct":      {"MAX_SPREAD_PCT"},
	"options.oi_change_pct":       {"OI_CHANGE_PCT"},
	"options.expiry_day":          {"IS_EXPIRY_DAY"},
	"options.chain_url":           {"OPTION_CHAIN_URL"},
	"broker.mode":                 {"ORDER_MODE"},
}

// Load reads configuration from file, layered over Defaults and under
// environment overrides. An empty path reads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, names := range envAliases {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.WrapError(core.ErrConfigMissing, fmt.Errorf("reading config: %w", err))
		}
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults. Capital and lot size
// have none and must be configured.
func Defaults() *Config {
	lc := lifecycle.DefaultConfig()
	return &Config{
		Log: LogConfig{Level: "info"},
		Market: MarketConfig{
			Timezone:     lifecycle.DefaultTimezone,
			Underlying:   lc.Underlying,
			Index:        "SENSEX",
			Collector:    "yahoo",
			Interval:     lc.Interval,
			LookbackDays: 5,
		},
		Trading: TradingConfig{
			Window:             lc.Window,
			AllocationPct:      0.6,
			PerLotBuffer:       broker.DefaultPerLotBuffer,
			StopLossMultiplier: lc.StopLossMultiplier,
			TargetMultiplier:   lc.TargetMultiplier,
			LossCap:            lc.LossCap,
			FetchTimeout:       lc.FetchTimeout,
		},
		Strategy: strategy.DefaultConfig(),
		Options: OptionsConfig{
			ExpiryTag:   "26JAN",
			StrikeStep:  options.DefaultStrikeStep,
			PremiumMin:  50,
			PremiumMax:  200,
			MaxSpread:   0.02,
			MinOIChange: 0.08,
		},
		Broker: BrokerConfig{
			Mode:    ModeDry,
			Timeout: 10 * time.Second,
		},
		Indicator: IndicatorConfig{
			Source:  SourceFile,
			Path:    "snapshot.json",
			Timeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Archive:       archive.Config{Backend: "local", Path: "signals"},
			StatePath:     state.DefaultPath,
			Journal:       true,
			JournalPrefix: "plans",
		},
		Metrics: MetricsConfig{
			Listen: ":9090",
		},
		Daemon: DaemonConfig{
			Interval: 5 * time.Minute,
		},
	}
}

// setDefaults registers every leaf of d so environment overrides reach
// keys absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.level", d.Log.Level)

	v.SetDefault("market.timezone", d.Market.Timezone)
	v.SetDefault("market.underlying", d.Market.Underlying)
	v.SetDefault("market.index", d.Market.Index)
	v.SetDefault("market.collector", d.Market.Collector)
	v.SetDefault("market.interval", d.Market.Interval)
	v.SetDefault("market.lookback_days", d.Market.LookbackDays)

	v.SetDefault("trading.window.start.hour", d.Trading.Window.Start.Hour)
	v.SetDefault("trading.window.start.minute", d.Trading.Window.Start.Minute)
	v.SetDefault("trading.window.end.hour", d.Trading.Window.End.Hour)
	v.SetDefault("trading.window.end.minute", d.Trading.Window.End.Minute)
	v.SetDefault("trading.allow_outside_window", d.Trading.AllowOutsideWindow)
	v.SetDefault("trading.capital", d.Trading.Capital)
	v.SetDefault("trading.allocation_pct", d.Trading.AllocationPct)
	v.SetDefault("trading.lot_size", d.Trading.LotSize)
	v.SetDefault("trading.per_lot_buffer", d.Trading.PerLotBuffer)
	v.SetDefault("trading.stop_loss_multiplier", d.Trading.StopLossMultiplier)
	v.SetDefault("trading.target_multiplier", d.Trading.TargetMultiplier)
	v.SetDefault("trading.loss_cap", d.Trading.LossCap)
	v.SetDefault("trading.fetch_timeout", d.Trading.FetchTimeout)

	v.SetDefault("strategy.directional_confidence", d.Strategy.DirectionalConfidence)
	v.SetDefault("strategy.range_confidence", d.Strategy.RangeConfidence)
	v.SetDefault("strategy.momentum_rsi", d.Strategy.MomentumRSI)
	v.SetDefault("strategy.range_stop_pct", d.Strategy.RangeStopPct)
	v.SetDefault("strategy.tighten_divisor", d.Strategy.TightenDivisor)

	v.SetDefault("options.chain_url", d.Options.ChainURL)
	v.SetDefault("options.expiry_tag", d.Options.ExpiryTag)
	v.SetDefault("options.expiry_day", d.Options.ExpiryDay)
	v.SetDefault("options.strike_step", d.Options.StrikeStep)
	v.SetDefault("options.premium_min", d.Options.PremiumMin)
	v.SetDefault("options.premium_max", d.Options.PremiumMax)
	v.SetDefault("options.max_spread_pct", d.Options.MaxSpread)
	v.SetDefault("options.oi_change_pct", d.Options.MinOIChange)

	v.SetDefault("broker.mode", d.Broker.Mode)
	v.SetDefault("broker.endpoint", d.Broker.Endpoint)
	v.SetDefault("broker.api_key", d.Broker.APIKey)
	v.SetDefault("broker.timeout", d.Broker.Timeout)

	v.SetDefault("indicator.source", d.Indicator.Source)
	v.SetDefault("indicator.path", d.Indicator.Path)
	v.SetDefault("indicator.url", d.Indicator.URL)
	v.SetDefault("indicator.timeout", d.Indicator.Timeout)

	v.SetDefault("storage.archive.backend", d.Storage.Archive.Backend)
	v.SetDefault("storage.archive.path", d.Storage.Archive.Path)
	v.SetDefault("storage.archive.s3.bucket", d.Storage.Archive.S3.Bucket)
	v.SetDefault("storage.archive.s3.endpoint", d.Storage.Archive.S3.Endpoint)
	v.SetDefault("storage.archive.s3.region", d.Storage.Archive.S3.Region)
	v.SetDefault("storage.archive.s3.access_key", d.Storage.Archive.S3.AccessKey)
	v.SetDefault("storage.archive.s3.secret_key", d.Storage.Archive.S3.SecretKey)
	v.SetDefault("storage.archive.s3.prefix", d.Storage.Archive.S3.Prefix)
	v.SetDefault("storage.state_path", d.Storage.StatePath)
	v.SetDefault("storage.journal", d.Storage.Journal)
	v.SetDefault("storage.journal_prefix", d.Storage.JournalPrefix)

	v.SetDefault("metrics.textfile_path", d.Metrics.TextfilePath)
	v.SetDefault("metrics.listen", d.Metrics.Listen)

	v.SetDefault("daemon.interval", d.Daemon.Interval)
	v.SetDefault("daemon.api_key", d.Daemon.APIKey)
}

// Validate checks the configuration for errors. Non-positive capital or
// lot size is fatal for the run.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return core.Errorf(core.ErrConfigInvalid, format, args...)
	}
	missing := func(format string, args ...any) error {
		return core.Errorf(core.ErrConfigMissing, format, args...)
	}

	if c.Trading.Capital <= 0 {
		return invalid("capital must be positive, got %.2f", c.Trading.Capital)
	}
	if c.Trading.LotSize <= 0 {
		return invalid("lot_size must be positive, got %d", c.Trading.LotSize)
	}
	if c.Trading.AllocationPct <= 0 || c.Trading.AllocationPct > 1 {
		return invalid("allocation_pct must be in (0, 1], got %f", c.Trading.AllocationPct)
	}
	if c.Trading.StopLossMultiplier <= 0 || c.Trading.StopLossMultiplier >= 1 {
		return invalid("stop_loss_multiplier must be in (0, 1), got %f", c.Trading.StopLossMultiplier)
	}
	if c.Trading.TargetMultiplier <= 1 {
		return invalid("target_multiplier must be above 1, got %f", c.Trading.TargetMultiplier)
	}
	if c.Trading.LossCap < 1 {
		return invalid("loss_cap must be at least 1, got %d", c.Trading.LossCap)
	}
	if err := c.Trading.Window.Validate(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Options.PremiumMin < 0 || c.Options.PremiumMin > c.Options.PremiumMax {
		return invalid("premium range %.2f-%.2f is invalid", c.Options.PremiumMin, c.Options.PremiumMax)
	}
	if c.Options.StrikeStep <= 0 {
		return invalid("strike_step must be positive, got %f", c.Options.StrikeStep)
	}

	if _, err := c.Location(); err != nil {
		return invalid("timezone %q: %v", c.Market.Timezone, err)
	}
	if c.Market.Underlying == "" {
		return missing("market underlying is required")
	}

	switch c.Broker.Mode {
	case ModeDry:
	case ModeLive:
		if c.Broker.Endpoint == "" {
			return missing("broker endpoint required when mode is live")
		}
	default:
		return invalid("broker mode must be %q or %q, got %q", ModeDry, ModeLive, c.Broker.Mode)
	}

	switch c.Indicator.Source {
	case SourceFile:
		if c.Indicator.Path == "" {
			return missing("indicator path required when source is file")
		}
	case SourceHTTP:
		if c.Indicator.URL == "" {
			return missing("indicator url required when source is http")
		}
	default:
		return invalid("indicator source must be %q or %q, got %q", SourceFile, SourceHTTP, c.Indicator.Source)
	}

	if c.Storage.Archive.Backend == "s3" && c.Storage.Archive.S3.Bucket == "" {
		return missing("s3 bucket required when archive backend is s3")
	}

	for name, n := range c.Notifiers {
		if !n.Enabled {
			continue
		}
		switch name {
		case "telegram":
			if n.BotToken == "" || n.ChatID == "" {
				return missing("telegram bot_token and chat_id required")
			}
		case "webhook":
			if n.URL == "" {
				return missing("webhook url required")
			}
		default:
			return invalid("unknown notifier %q", name)
		}
	}

	return nil
}

// Location loads the market timezone.
func (c *Config) Location() (*time.Location, error) {
	tz := c.Market.Timezone
	if tz == "" {
		tz = lifecycle.DefaultTimezone
	}
	return time.LoadLocation(tz)
}

// Lifecycle returns the lifecycle parameters.
func (c *Config) Lifecycle() (lifecycle.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return lifecycle.Config{}, core.WrapError(core.ErrConfigInvalid, err)
	}
	return lifecycle.Config{
		Underlying:         c.Market.Underlying,
		Interval:           c.Market.Interval,
		Lookback:           time.Duration(c.Market.LookbackDays) * 24 * time.Hour,
		StopLossMultiplier: c.Trading.StopLossMultiplier,
		TargetMultiplier:   c.Trading.TargetMultiplier,
		LossCap:            c.Trading.LossCap,
		Window:             c.Trading.Window,
		Location:           loc,
		AllowOutsideWindow: c.Trading.AllowOutsideWindow,
		FetchTimeout:       c.Trading.FetchTimeout,
	}, nil
}

// Sizer returns the position sizing parameters.
func (c *Config) Sizer() broker.SizerConfig {
	return broker.SizerConfig{
		Capital:       c.Trading.Capital,
		AllocationPct: c.Trading.AllocationPct,
		LotSize:       c.Trading.LotSize,
		PerLotBuffer:  c.Trading.PerLotBuffer,
	}
}

// Bounds returns the contract filter limits before expiry tightening.
func (c *Config) Bounds() options.Bounds {
	return options.Bounds{
		PremiumMin:  c.Options.PremiumMin,
		PremiumMax:  c.Options.PremiumMax,
		MaxSpread:   c.Options.MaxSpread,
		MinOIChange: c.Options.MinOIChange,
	}
}

// Engine returns the decision thresholds with the configured strike step.
func (c *Config) Engine() strategy.Config {
	sc := c.Strategy
	sc.StrikeStep = c.Options.StrikeStep
	return sc
}
