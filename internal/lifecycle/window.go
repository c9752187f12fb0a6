package lifecycle

import (
	"fmt"
	"time"
)

// DefaultTimezone is the market the trading day and window are measured in.
const DefaultTimezone = "Asia/Kolkata"

// TimeOfDay is a wall-clock hour and minute.
type TimeOfDay struct {
	Hour   int `mapstructure:"hour"`
	Minute int `mapstructure:"minute"`
}

// Valid reports whether the hour and minute are in range.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// Window is the intraday span in which cycles may act. Both ends are
// inclusive; 14:00:00 is inside a window ending 14:00, 14:00:01 is not.
type Window struct {
	Start TimeOfDay `mapstructure:"start"`
	End   TimeOfDay `mapstructure:"end"`
}

// DefaultWindow returns 10:00-14:00.
func DefaultWindow() Window {
	return Window{Start: TimeOfDay{Hour: 10}, End: TimeOfDay{Hour: 14}}
}

// Validate checks that both ends are valid and start is not after end.
func (w Window) Validate() error {
	if !w.Start.Valid() || !w.End.Valid() {
		return fmt.Errorf("invalid trading window %s-%s", w.Start, w.End)
	}
	if w.Start.Hour*60+w.Start.Minute > w.End.Hour*60+w.End.Minute {
		return fmt.Errorf("trading window start %s is after end %s", w.Start, w.End)
	}
	return nil
}

// Contains reports whether t, already in market time, is inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start.on(t)) && !t.After(w.End.on(t))
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
