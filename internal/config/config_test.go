package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func validConfig() *Config {
	cfg := Defaults()
	cfg.Trading.Capital = 100000
	cfg.Trading.LotSize = 20
	return cfg
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
market:
  underlying: "^NSEI"
  index: NIFTY
trading:
  capital: 250000
  lot_size: 75
  window:
    start: {hour: 9, minute: 30}
    end: {hour: 15, minute: 0}
  fetch_timeout: 5s
options:
  premium_max: 300
broker:
  mode: live
  endpoint: "https://broker.example.com/orders"
storage:
  archive:
    backend: s3
    s3:
      bucket: optdesk-state
      region: ap-south-1
notifiers:
  webhook:
    enabled: true
    url: "https://hooks.example.com/trades"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "^NSEI", cfg.Market.Underlying)
	assert.Equal(t, 250000.0, cfg.Trading.Capital)
	assert.Equal(t, 75, cfg.Trading.LotSize)
	assert.Equal(t, lifecycle.TimeOfDay{Hour: 9, Minute: 30}, cfg.Trading.Window.Start)
	assert.Equal(t, 5*time.Second, cfg.Trading.FetchTimeout)
	assert.Equal(t, 300.0, cfg.Options.PremiumMax)
	assert.Equal(t, 50.0, cfg.Options.PremiumMin, "unset keys keep defaults")
	assert.Equal(t, ModeLive, cfg.Broker.Mode)
	assert.Equal(t, "optdesk-state", cfg.Storage.Archive.S3.Bucket)
	assert.True(t, cfg.Notifiers["webhook"].Enabled)
	assert.Equal(t, 65, cfg.Strategy.DirectionalConfidence)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigMissing))
}

func TestLoad_EnvAliases(t *testing.T) {
	t.Setenv("CAPITAL", "150000")
	t.Setenv("LOT_SIZE", "20")
	t.Setenv("PREMIUM_MIN", "40")
	t.Setenv("ALLOCATION_PCT", "0.5")
	t.Setenv("IS_EXPIRY_DAY", "true")
	t.Setenv("TRADING_START_H", "9")
	t.Setenv("TRADING_START_M", "45")
	t.Setenv("ORDER_MODE", "dry")
	t.Setenv("OPTION_CHAIN_URL", "https://chain.example.com/sensex.json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 150000.0, cfg.Trading.Capital)
	assert.Equal(t, 20, cfg.Trading.LotSize)
	assert.Equal(t, 40.0, cfg.Options.PremiumMin)
	assert.Equal(t, 0.5, cfg.Trading.AllocationPct)
	assert.True(t, cfg.Options.ExpiryDay)
	assert.Equal(t, lifecycle.TimeOfDay{Hour: 9, Minute: 45}, cfg.Trading.Window.Start)
	assert.Equal(t, "https://chain.example.com/sensex.json", cfg.Options.ChainURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LotSizeAliasPrecedence(t *testing.T) {
	t.Setenv("SENSEX_LOT_SIZE", "20")
	t.Setenv("LOT_SIZE", "75")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Trading.LotSize)
}

func TestLoad_NestedEnvOverride(t *testing.T) {
	t.Setenv("BROKER_API_KEY", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.Broker.APIKey)
}

func TestLoad_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("OPTDESK_BOT_TOKEN", "123:abc")
	path := writeConfig(t, `
notifiers:
  telegram:
    enabled: true
    bot_token: "${OPTDESK_BOT_TOKEN}"
    chat_id: "42"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Notifiers["telegram"].BotToken)
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "Asia/Kolkata", cfg.Market.Timezone)
	assert.Equal(t, "^BSESN", cfg.Market.Underlying)
	assert.Equal(t, lifecycle.DefaultWindow(), cfg.Trading.Window)
	assert.Equal(t, 0.6, cfg.Trading.AllocationPct)
	assert.Equal(t, 0.7, cfg.Trading.StopLossMultiplier)
	assert.Equal(t, 1.5, cfg.Trading.TargetMultiplier)
	assert.Equal(t, 2, cfg.Trading.LossCap)
	assert.Equal(t, 100.0, cfg.Options.StrikeStep)
	assert.Equal(t, ModeDry, cfg.Broker.Mode)

	err := cfg.Validate()
	assert.True(t, errors.Is(err, core.ErrConfigInvalid), "defaults carry no capital")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr *core.Error
	}{
		{"valid config", func(c *Config) {}, nil},
		{"zero capital", func(c *Config) { c.Trading.Capital = 0 }, core.ErrConfigInvalid},
		{"negative lot size", func(c *Config) { c.Trading.LotSize = -1 }, core.ErrConfigInvalid},
		{"allocation above one", func(c *Config) { c.Trading.AllocationPct = 1.5 }, core.ErrConfigInvalid},
		{"allocation of one", func(c *Config) { c.Trading.AllocationPct = 1 }, nil},
		{"stop loss at one", func(c *Config) { c.Trading.StopLossMultiplier = 1 }, core.ErrConfigInvalid},
		{"target at one", func(c *Config) { c.Trading.TargetMultiplier = 1 }, core.ErrConfigInvalid},
		{"zero loss cap", func(c *Config) { c.Trading.LossCap = 0 }, core.ErrConfigInvalid},
		{"reversed window", func(c *Config) {
			c.Trading.Window = lifecycle.Window{Start: lifecycle.TimeOfDay{Hour: 15}, End: lifecycle.TimeOfDay{Hour: 9}}
		}, core.ErrConfigInvalid},
		{"premium min above max", func(c *Config) { c.Options.PremiumMin = 300 }, core.ErrConfigInvalid},
		{"zero strike step", func(c *Config) { c.Options.StrikeStep = 0 }, core.ErrConfigInvalid},
		{"bad timezone", func(c *Config) { c.Market.Timezone = "Mars/Olympus" }, core.ErrConfigInvalid},
		{"unknown broker mode", func(c *Config) { c.Broker.Mode = "paper" }, core.ErrConfigInvalid},
		{"live without endpoint", func(c *Config) { c.Broker.Mode = ModeLive }, core.ErrConfigMissing},
		{"http indicator without url", func(c *Config) { c.Indicator.Source = SourceHTTP }, core.ErrConfigMissing},
		{"s3 without bucket", func(c *Config) { c.Storage.Archive.Backend = "s3" }, core.ErrConfigMissing},
		{"telegram without token", func(c *Config) {
			c.Notifiers = map[string]NotifierConfig{"telegram": {Enabled: true, ChatID: "1"}}
		}, core.ErrConfigMissing},
		{"disabled notifier ignored", func(c *Config) {
			c.Notifiers = map[string]NotifierConfig{"telegram": {Enabled: false}}
		}, nil},
		{"unknown notifier", func(c *Config) {
			c.Notifiers = map[string]NotifierConfig{"pager": {Enabled: true}}
		}, core.ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	cfg := validConfig()
	cfg.Options.StrikeStep = 50
	cfg.Market.LookbackDays = 3

	lc, err := cfg.Lifecycle()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Kolkata", lc.Location.String())
	assert.Equal(t, 72*time.Hour, lc.Lookback)
	assert.Equal(t, 2, lc.LossCap)

	assert.Equal(t, 50.0, cfg.Engine().StrikeStep)
	assert.Equal(t, 65, cfg.Engine().DirectionalConfidence)

	sc := cfg.Sizer()
	assert.Equal(t, 100000.0, sc.Capital)
	assert.Equal(t, 20, sc.LotSize)

	b := cfg.Bounds()
	assert.Equal(t, 0.02, b.MaxSpread)
	assert.Equal(t, 0.08, b.MinOIChange)
}
