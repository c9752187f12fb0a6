package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/optdesk/internal/config"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/lifecycle"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args against a config whose local
// archive lives in dir.
func execute(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cfgPath := filepath.Join(dir, "optdesk.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"storage:\n  archive:\n    backend: local\n    path: "+dir+"\n"), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		stateDate = ""
		stateSummary = false
	})
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestStateCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trade_state.json"), []byte(`{
  "2026-10-19": {"trades_executed": 1, "symbol": "SENSEX26JAN72000CE", "entry_price": 120, "lots": 8,
                 "decision": "LONG", "outcome": "loss", "exit_price": 80, "exit_reason": "SL Hit", "status": "CLOSED"}
}`), 0o644))

	out := execute(t, dir, "state")
	assert.Contains(t, out, "DATE")
	assert.Contains(t, out, "SENSEX26JAN72000CE")
	assert.Contains(t, out, "SL Hit")

	out = execute(t, dir, "state", "--date", "2026-10-20")
	assert.Contains(t, out, "no trade state for 2026-10-20")

	out = execute(t, dir, "state", "--summary")
	assert.Contains(t, out, "1 (0 won, 1 lost)")
	assert.Contains(t, out, "-33.3%")
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "snapshot.json")
	require.NoError(t, os.WriteFile(snap, []byte(`{"current_price": 72000, "rsi": null}`), 0o644))

	out := execute(t, dir, "plan", "--snapshot", snap)
	assert.Contains(t, out, `"decision": "NO_TRADE"`)
	assert.Contains(t, out, `"risk"`)
}

func TestPrintResult(t *testing.T) {
	res := lifecycle.Result{
		Code:    lifecycle.OrderFailed,
		Date:    "2026-10-19",
		Symbol:  "SENSEX26JAN72000CE",
		Message: "broker rejected",
		Err:     core.WrapError(core.ErrOrderFailed, errors.New("margin")),
	}

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	jsonOutput = false
	require.NoError(t, printResult(cmd, res))
	assert.Equal(t, "2026-10-19 order_failed SENSEX26JAN72000CE: broker rejected\n", out.String())

	out.Reset()
	jsonOutput = true
	defer func() { jsonOutput = false }()
	require.NoError(t, printResult(cmd, res))
	assert.Contains(t, out.String(), `"code": "order_failed"`)
	assert.Contains(t, out.String(), `"error": "[ORDER_FAILED] order placement failed: margin"`)
}

func TestDefaultLockPath(t *testing.T) {
	cfg := config.Defaults()
	cfg.Storage.Archive.Path = "/var/lib/optdesk"
	assert.Equal(t, filepath.Join("/var/lib/optdesk", ".optdesk.lock"), defaultLockPath(cfg))

	cfg.Storage.Archive.Backend = "s3"
	assert.Equal(t, filepath.Join(os.TempDir(), "optdesk.lock"), defaultLockPath(cfg))

	lockPath = "/run/custom.lock"
	defer func() { lockPath = "" }()
	assert.Equal(t, "/run/custom.lock", defaultLockPath(cfg))
}
