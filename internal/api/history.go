package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/device-inventory/internal/history"
)

// handleDeviceHistory returns one device's records, newest first.
// An unknown device yields an empty array.
func (s *Server) handleDeviceHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.ForDevice(r.Context(), chi.URLParam(r, "device_id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// handleListHistory returns a page of records across all devices.
//
// Query parameters:
//   - action: filter by action (device_checked_out, ...)
//   - user: filter by actor, exact match
//   - limit: page size, default 50, max 200
//   - offset: records to skip
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := history.Filter{
		Action: history.Action(q.Get("action")),
		User:   q.Get("user"),
	}

	var ok bool
	if filter.Limit, ok = intParam(w, q.Get("limit"), "limit"); !ok {
		return
	}
	if filter.Offset, ok = intParam(w, q.Get("offset"), "offset"); !ok {
		return
	}

	res, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	res.Records = nonNil(res.Records)
	writeJSON(w, http.StatusOK, res)
}

// intParam parses an optional non-negative integer query parameter,
// writing a 400 when it is malformed.
func intParam(w http.ResponseWriter, raw, name string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeBadRequest(w, name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
