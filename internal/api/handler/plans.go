package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/newthinker/optdesk/internal/api/response"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/storage/plan"
)

// DefaultLimit caps plan listings without an explicit limit.
const DefaultLimit = 50

// PlansHandler serves the plan journal.
type PlansHandler struct {
	store plan.Store
	loc   *time.Location
}

// NewPlansHandler creates a plans handler. Bare dates are interpreted in loc.
func NewPlansHandler(store plan.Store, loc *time.Location) *PlansHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &PlansHandler{store: store, loc: loc}
}

// List returns journal entries matching query parameters: symbol,
// decision, from, to, limit, offset. A bare "to" date includes that day.
func (h *PlansHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	entries, err := h.store.List(r.Context(), filter)
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}

	if entries == nil {
		entries = []plan.Entry{}
	}

	count, err := h.store.Count(r.Context(), filter)
	if err != nil {
		count = len(entries)
	}
	response.List(w, entries, count)
}

// GetByID returns a single journal entry.
func (h *PlansHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := h.store.GetByID(r.Context(), id)
	if errors.Is(err, plan.ErrNotFound) {
		response.Error(w, http.StatusNotFound, core.WrapError(core.ErrNoData, err))
		return
	}
	if err != nil {
		response.Error(w, response.StatusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, e)
}

func (h *PlansHandler) parseFilter(r *http.Request) (plan.ListFilter, error) {
	q := r.URL.Query()
	filter := plan.ListFilter{
		Symbol:   q.Get("symbol"),
		Decision: core.Decision(q.Get("decision")),
		Limit:    DefaultLimit,
	}

	if from := q.Get("from"); from != "" {
		t, _, err := h.parseTime(from)
		if err != nil {
			return filter, err
		}
		filter.From = t
	}
	if to := q.Get("to"); to != "" {
		t, bare, err := h.parseTime(to)
		if err != nil {
			return filter, err
		}
		if bare {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		filter.To = t
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("limit %q: want a non-negative integer", limit)
		}
		filter.Limit = n
	}
	if offset := q.Get("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("offset %q: want a non-negative integer", offset)
		}
		filter.Offset = n
	}
	return filter, nil
}

// parseTime accepts RFC3339 or YYYY-MM-DD; bare reports the latter.
func (h *PlansHandler) parseTime(s string) (t time.Time, bare bool, err error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, h.loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("time %q: want RFC3339 or YYYY-MM-DD", s)
}
