package events

import (
	"context"
	"encoding/json"

	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/infrastructure/mqtt"
	"github.com/nerrad567/device-inventory/internal/stamp"
)

// Publisher is the subset of the MQTT client used by MQTTForwarder.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// eventMessage is the MQTT payload for one history record.
type eventMessage struct {
	ID        string `json:"id"`
	DeviceID  string `json:"device_id"`
	User      string `json:"user"`
	Action    string `json:"action"`
	Timestamp string `json:"timestamp"`
}

// MQTTForwarder publishes history records to MQTT.
//
// Every record goes to {prefix}/event/{action} (not retained) and to
// {prefix}/device/{device_id} (retained), so a late subscriber can read
// the last thing that happened to a device.
type MQTTForwarder struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
	logger Logger
}

// NewMQTTForwarder creates a forwarder publishing through pub at qos.
func NewMQTTForwarder(pub Publisher, topics mqtt.Topics, qos byte) *MQTTForwarder {
	return &MQTTForwarder{
		pub:    pub,
		topics: topics,
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for publish failures.
func (f *MQTTForwarder) SetLogger(logger Logger) {
	f.logger = logger
}

// Notify implements history.Notifier.
func (f *MQTTForwarder) Notify(_ context.Context, rec history.Record) {
	if !f.pub.IsConnected() {
		f.logger.Debug("mqtt not connected, event dropped", "device_id", rec.DeviceID, "action", rec.Action)
		return
	}

	payload, err := json.Marshal(eventMessage{
		ID:        rec.ID,
		DeviceID:  rec.DeviceID,
		User:      rec.User,
		Action:    string(rec.Action),
		Timestamp: stamp.Format(rec.Timestamp),
	})
	if err != nil {
		f.logger.Warn("encoding mqtt event failed", "error", err)
		return
	}

	if err := f.pub.Publish(f.topics.Event(string(rec.Action)), payload, f.qos, false); err != nil {
		f.logger.Warn("mqtt event publish failed", "device_id", rec.DeviceID, "action", rec.Action, "error", err)
		return
	}
	if err := f.pub.Publish(f.topics.Device(rec.DeviceID), payload, f.qos, true); err != nil {
		f.logger.Warn("mqtt device publish failed", "device_id", rec.DeviceID, "error", err)
	}
}
