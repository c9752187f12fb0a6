package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newthinker/optdesk/internal/api"
	"github.com/newthinker/optdesk/internal/app"
	"github.com/newthinker/optdesk/internal/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the lifecycle on an interval and serve metrics and status",
	Long: `Daemon runs a lifecycle cycle immediately and then every daemon.interval,
holding the run lock for its whole lifetime. It serves /healthz, /metrics
and the read-only /api/v1 routes on metrics.listen.`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().StringVar(&lockPath, "lock", "", "lock file path (default: next to the state file)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	path := defaultLockPath(cfg)
	lock, err := acquireLock(path)
	if errors.Is(err, errLocked) {
		return fmt.Errorf("another optdesk process (pid %d) holds %s", holder(path), path)
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
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	daemon := app.New(manager, log)
	daemon.SetInterval(cfg.Daemon.Interval)

	server, err := api.NewServer(api.Config{
		Addr:   cfg.Metrics.Listen,
		APIKey: cfg.Daemon.APIKey,
	}, api.Dependencies{
		Status:   daemon,
		State:    st,
		Journal:  journal,
		Metrics:  reg,
		Location: loc,
	}, log)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	log.Info("starting optdesk daemon",
		zap.String("listen", cfg.Metrics.Listen),
		zap.Duration("interval", cfg.Daemon.Interval),
		zap.String("underlying", cfg.Market.Underlying),
		zap.String("broker_mode", cfg.Broker.Mode),
	)

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- daemon.Start(ctx)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		runErr = err
		stop()
		<-loopErr
	case <-loopErr:
	}

	log.Info("shutting down optdesk daemon")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	return runErr
}
