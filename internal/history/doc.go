// Package history keeps the append-only audit trail of device changes.
//
// Every successful device mutation produces one Record naming the device,
// the acting user and what happened. Records are never edited or removed.
//
// The Recorder is the write path. It stamps records with an id and time,
// persists them through a Repository and then hands each stored record to
// the registered Notifiers (MQTT, InfluxDB, WebSocket, metrics). A storage
// failure while appending is logged and dropped: the device change it
// describes has already been committed and must not be reported as failed.
package history
