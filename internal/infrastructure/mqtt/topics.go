package mqtt

import "strings"

// DefaultTopicPrefix is used when the configuration leaves topic_prefix empty.
const DefaultTopicPrefix = "inventory"

// Topics builds the inventory's MQTT topic names under a common prefix.
//
//	topics := mqtt.NewTopics("inventory")
//	topics.Event("device_checked_out") // "inventory/event/device_checked_out"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Trailing slashes are
// dropped and an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Event returns the topic for history events of one action.
//
// Example: inventory/event/device_checked_out
func (t Topics) Event(action string) string {
	return t.prefix + "/event/" + action
}

// Device returns the per-device topic carrying its latest event.
//
// Example: inventory/device/3f1c...
func (t Topics) Device(deviceID string) string {
	return t.prefix + "/device/" + deviceID
}

// SystemStatus returns the topic for service online/offline status.
//
// Example: inventory/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}
