// Package events forwards stored history records to external sinks.
//
// Each forwarder implements history.Notifier and is registered on the
// Recorder at startup. Forwarders are best effort: a failed publish or
// write is logged and dropped, and never affects the device mutation
// that produced the record.
//
//   - MQTTForwarder publishes every record as JSON to the broker.
//   - UsageForwarder writes a usage point per record to InfluxDB.
package events
