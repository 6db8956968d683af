package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementDeviceEvents is the measurement holding one point per
// device history event.
const MeasurementDeviceEvents = "device_events"

// WriteDeviceEvent records that action happened to deviceID at ts.
// The point carries a count of 1 so usage can be summed per window.
//
// Example:
//
//	client.WriteDeviceEvent("3f1c...", "device_checked_out", time.Now())
func (c *Client) WriteDeviceEvent(deviceID, action string, ts time.Time) {
	c.writePoint(MeasurementDeviceEvents,
		map[string]string{
			"device_id": deviceID,
			"action":    action,
		},
		map[string]interface{}{
			"count": 1,
		},
		ts,
	)
}

// writePoint queues one point. It is a no-op when the client is not connected.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, ts))
}
