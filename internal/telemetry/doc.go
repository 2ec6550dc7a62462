// Package telemetry defines the JSON shapes the node exchanges with the
// broker: the sensor data payload, the retained status report, inbound
// command parsing, and Home Assistant discovery records.
package telemetry
