package device

import (
	"encoding/json"
	"time"
)

// Status is the checkout state of a device.
type Status string

// Device statuses.
const (
	StatusAvailable  Status = "available"
	StatusCheckedOut Status = "checked_out"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusCheckedOut
}

// Device is one tracked piece of hardware.
//
// AssignedUser and CheckOutDate are set exactly when Status is
// StatusCheckedOut.
type Device struct {
	ID           string     `json:"id"`
	DeviceType   string     `json:"device_type"`
	Connectivity string     `json:"connectivity"`
	SerialNumber string     `json:"serial_number"`
	OSVersion    string     `json:"os_version"`
	AssignedUser string     `json:"assigned_user"`
	Status       Status     `json:"status"`
	UsageCount   int        `json:"usage_count"`
	CheckOutDate *time.Time `json:"check_out_date"`
	CreatedAt    time.Time  `json:"created_at"`
	LastUpdated  time.Time  `json:"last_updated"`
}

// Clone returns an independent copy of d.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}
	c := *d
	if d.CheckOutDate != nil {
		t := *d.CheckOutDate
		c.CheckOutDate = &t
	}
	return &c
}

// NewDevice carries the caller-supplied fields for Manager.Create.
// Status defaults to available and UsageCount to zero.
type NewDevice struct {
	DeviceType   string
	Connectivity string
	SerialNumber string
	OSVersion    string
	AssignedUser string
	Status       Status
	UsageCount   int
	CheckOutDate *time.Time
}

// Patch lists the fields Manager.Update may change. Nil fields are left alone.
//
// The remaining columns are accepted so a client can send back a device it
// fetched, but they are never applied: identity and timestamps are fixed,
// and assignment, status and usage change only through Checkout and Checkin.
type Patch struct {
	DeviceType   *string `json:"device_type,omitempty"`
	Connectivity *string `json:"connectivity,omitempty"`
	SerialNumber *string `json:"serial_number,omitempty"`
	OSVersion    *string `json:"os_version,omitempty"`
	UpdatedBy    *string `json:"updated_by,omitempty"`

	ID           json.RawMessage `json:"id,omitempty"`
	AssignedUser json.RawMessage `json:"assigned_user,omitempty"`
	Status       json.RawMessage `json:"status,omitempty"`
	UsageCount   json.RawMessage `json:"usage_count,omitempty"`
	CheckOutDate json.RawMessage `json:"check_out_date,omitempty"`
	CreatedAt    json.RawMessage `json:"created_at,omitempty"`
	LastUpdated  json.RawMessage `json:"last_updated,omitempty"`
}

// Stats summarises the inventory.
type Stats struct {
	Total      int            `json:"total"`
	Available  int            `json:"available"`
	CheckedOut int            `json:"checked_out"`
	ByType     map[string]int `json:"by_type"`
}
