package history

import (
	"errors"
	"time"
)

// Action identifies what happened to a device.
type Action string

// Recorded actions.
const (
	ActionCreated    Action = "device_created"
	ActionUpdated    Action = "device_updated"
	ActionCheckedOut Action = "device_checked_out"
	ActionCheckedIn  Action = "device_checked_in"
)

// Valid reports whether a is one of the recorded actions.
func (a Action) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionCheckedOut, ActionCheckedIn:
		return true
	}
	return false
}

// SystemUser is the actor recorded when no user is attributable.
const SystemUser = "system"

// Pagination limits for List.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// ErrStorage wraps repository failures surfaced by read operations.
var ErrStorage = errors.New("history: storage failure")

// Record is one audit trail entry.
type Record struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	User      string    `json:"user"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter controls which records List returns.
type Filter struct {
	Action Action // optional
	User   string // optional, exact match
	Limit  int    // default 50, max 200
	Offset int
}

// ListResult is one page of records, newest first.
type ListResult struct {
	Records []Record `json:"records"`
	Total   int      `json:"total"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// normalise clamps the paging fields.
func (f Filter) normalise() Filter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f Filter) matches(r Record) bool {
	if f.Action != "" && r.Action != f.Action {
		return false
	}
	if f.User != "" && r.User != f.User {
		return false
	}
	return true
}
