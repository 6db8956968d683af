package events

import (
	"context"
	"time"

	"github.com/nerrad567/device-inventory/internal/history"
)

// EventWriter is the subset of the InfluxDB client used by UsageForwarder.
type EventWriter interface {
	WriteDeviceEvent(deviceID, action string, ts time.Time)
}

// UsageForwarder writes one time-series point per history record.
// Writes are batched by the client, so Notify does not block on the network.
type UsageForwarder struct {
	w EventWriter
}

// NewUsageForwarder creates a forwarder writing through w.
func NewUsageForwarder(w EventWriter) *UsageForwarder {
	return &UsageForwarder{w: w}
}

// Notify implements history.Notifier.
func (f *UsageForwarder) Notify(_ context.Context, rec history.Record) {
	f.w.WriteDeviceEvent(rec.DeviceID, string(rec.Action), rec.Timestamp)
}
