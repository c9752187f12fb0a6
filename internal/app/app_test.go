package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/newthinker/optdesk/internal/lifecycle"
)

type mockCycler struct {
	mu    sync.Mutex
	calls int
	code  lifecycle.Code
}

func (m *mockCycler) RunCycle(ctx context.Context) lifecycle.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return lifecycle.Result{Code: m.code, Date: "2026-10-19", Symbol: "SENSEX26JAN72000CE"}
}

func (m *mockCycler) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestApp_New(t *testing.T) {
	app := New(&mockCycler{}, nil)

	if app == nil {
		t.Fatal("expected non-nil app")
	}

	stats := app.GetStats()
	if stats["running"].(bool) {
		t.Error("new app should not be running")
	}
	if stats["cycles"].(int) != 0 {
		t.Error("new app should have no cycles")
	}
	if _, ok := stats["last_result"]; ok {
		t.Error("new app should have no last result")
	}
}

func TestApp_RunOnce(t *testing.T) {
	cycler := &mockCycler{code: lifecycle.Hold}
	app := New(cycler, nil)

	res := app.RunOnce(context.Background())

	if res.Code != lifecycle.Hold {
		t.Errorf("expected hold, got %s", res.Code)
	}
	stats := app.GetStats()
	if stats["cycles"].(int) != 1 {
		t.Errorf("expected 1 cycle, got %v", stats["cycles"])
	}
	if stats["last_result"] != lifecycle.Hold {
		t.Errorf("expected last_result hold, got %v", stats["last_result"])
	}
	if stats["last_symbol"] != "SENSEX26JAN72000CE" {
		t.Errorf("unexpected last_symbol %v", stats["last_symbol"])
	}
}

func TestApp_SetInterval_IgnoresNonPositive(t *testing.T) {
	app := New(&mockCycler{}, nil)
	app.SetInterval(0)
	if app.GetStats()["interval"] != DefaultInterval.String() {
		t.Errorf("expected default interval, got %v", app.GetStats()["interval"])
	}
}

func TestApp_StartStop(t *testing.T) {
	cycler := &mockCycler{code: lifecycle.SkippedWindow}
	app := New(cycler, nil)
	app.SetInterval(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error)
	go func() {
		done <- app.Start(ctx)
	}()

	err := <-done
	if err != context.DeadlineExceeded {
		t.Errorf("expected deadline exceeded, got %v", err)
	}

	if cycler.count() < 2 {
		t.Errorf("expected the immediate cycle plus at least one tick, got %d", cycler.count())
	}

	stats := app.GetStats()
	if stats["running"].(bool) {
		t.Error("app should not be running after stop")
	}
}

func TestApp_Stop(t *testing.T) {
	app := New(&mockCycler{}, nil)
	app.SetInterval(time.Hour)

	done := make(chan error)
	go func() {
		done <- app.Start(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	app.Stop()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestApp_CannotStartTwice(t *testing.T) {
	app := New(&mockCycler{}, nil)
	app.SetInterval(1 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())

	go app.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	err := app.Start(context.Background())
	if err == nil {
		t.Error("expected error when starting twice")
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
}
