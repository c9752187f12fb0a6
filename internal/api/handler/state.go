// Package handler implements the daemon's read-only API endpoints.
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/optdesk/internal/api/response"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/report"
	"github.com/newthinker/optdesk/internal/storage/state"
)

// Day is one state document entry with its date.
type Day struct {
	Date string `json:"date"`
	core.TradeDayState
}

// StateHandler serves the persisted trade state.
type StateHandler struct {
	store state.Store
	loc   *time.Location
	clock func() time.Time
}

// NewStateHandler creates a state handler. Dates are interpreted in loc.
func NewStateHandler(store state.Store, loc *time.Location) *StateHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StateHandler{store: store, loc: loc, clock: time.Now}
}

// List returns every recorded day, oldest first.
func (h *StateHandler) List(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	days := make([]Day, 0, len(doc))
	for _, k := range doc.Keys() {
		days = append(days, Day{Date: k, TradeDayState: doc[k]})
	}
	response.List(w, days, len(days))
}

// Get returns one day. The date "today" resolves in the market timezone.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if date == "today" {
		date = state.Key(h.clock(), h.loc)
	}
	if _, err := time.ParseInLocation(state.DateLayout, date, h.loc); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, fmt.Errorf("date %q: want YYYY-MM-DD", date)))
		return
	}

	doc, err := h.store.Load(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	day, ok := doc[date]
	if !ok {
		response.Error(w, http.StatusNotFound,
			core.WrapError(core.ErrNoData, fmt.Errorf("no trade state for %s", date)))
		return
	}
	response.JSON(w, http.StatusOK, Day{Date: date, TradeDayState: day})
}

// Stats returns performance statistics over the recorded days.
func (h *StateHandler) Stats(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load(r.Context())
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, report.Summarize(doc))
}
