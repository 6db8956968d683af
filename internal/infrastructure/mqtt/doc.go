// Package mqtt publishes inventory events to an MQTT broker.
//
// It wraps paho.mqtt.golang with connection management, automatic
// reconnection and a retained online/offline status on
// {prefix}/system/status backed by a Last Will.
//
// Topic layout (prefix defaults to "inventory"):
//
//	inventory/event/{action}      one message per history record
//	inventory/device/{device_id}  retained latest event per device
//	inventory/system/status       retained online/offline status
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(client.Topics().Event("device_created"), payload, 1, false)
package mqtt
