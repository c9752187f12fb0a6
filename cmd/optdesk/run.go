package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/newthinker/optdesk/internal/config"
	"github.com/newthinker/optdesk/internal/lifecycle"
	"github.com/newthinker/optdesk/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one trade lifecycle cycle",
	Long: `Run evaluates today's trade state once: monitor an open trade for its
stop-loss or target, or attempt a new entry when allowed. Overlapping
invocations are serialized with a lock file; a second run exits cleanly.`,
	RunE: runRun,
}

var (
	lockPath     string
	allowOutside bool
	jsonOutput   bool
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&lockPath, "lock", "", "lock file path (default: next to the state file)")
	runCmd.Flags().BoolVar(&allowOutside, "allow-outside-window", false, "act outside the trading window (testing only)")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the cycle result as JSON")
}

// defaultLockPath keeps the lock beside a local state file, or in the
// temp directory when state lives in S3.
func defaultLockPath(cfg *config.Config) string {
	if lockPath != "" {
		return lockPath
	}
	if b := cfg.Storage.Archive.Backend; b == "" || b == "local" {
		return filepath.Join(cfg.Storage.Archive.Path, ".optdesk.lock")
	}
	return filepath.Join(os.TempDir(), "optdesk.lock")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if allowOutside {
		cfg.Trading.AllowOutsideWindow = true
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	path := defaultLockPath(cfg)
	lock, err := acquireLock(path)
	if errors.Is(err, errLocked) {
		log.Warn("previous run still in progress, skipping",
			zap.String("lock", path),
			zap.Int("holder_pid", holder(path)),
		)
		return nil
	}
	if err != nil {
		return err
	}
	defer lock.Release()

	st, journal, err := stores(cfg, log)
	if err != nil {
		return err
	}
	reg := metrics.NewRegistry()
	manager, err := buildManager(cfg, log, reg, st, journal)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res := manager.RunCycle(ctx)

	if err := printResult(cmd, res); err != nil {
		return err
	}

	if cfg.Metrics.TextfilePath != "" {
		if err := reg.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
			log.Warn("failed to write metrics textfile", zap.Error(err))
		}
	}

	if res.Code == lifecycle.StateWriteFailed {
		return fmt.Errorf("cycle %s: %s: %w", res.Code, res.Message, res.Err)
	}
	return nil
}

func printResult(cmd *cobra.Command, res lifecycle.Result) error {
	out := cmd.OutOrStdout()
	if jsonOutput {
		type jsonResult struct {
			lifecycle.Result
			Error string `json:"error,omitempty"`
		}
		jr := jsonResult{Result: res}
		if res.Err != nil {
			jr.Error = res.Err.Error()
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(jr)
	}

	line := fmt.Sprintf("%s %s", res.Date, res.Code)
	if res.Symbol != "" {
		line += " " + res.Symbol
	}
	if res.Message != "" {
		line += ": " + res.Message
	}
	_, err := fmt.Fprintln(out, line)
	return err
}
