// Package influxdb writes device usage time-series to InfluxDB v2.
//
// Each history event (created, updated, checked out, checked in) becomes
// one point in the device_events measurement, tagged by device_id and
// action, so checkout frequency and utilisation can be charted over time.
// Writes are batched and non-blocking; failures surface through SetOnError.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteDeviceEvent(deviceID, "device_checked_out", time.Now())
package influxdb
