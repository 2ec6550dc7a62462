// Package topics builds the MQTT topic names used by the node.
//
// All topics hang off the configured topic prefix (default
// "sensdot/<device_id>"): /data carries sensor payloads, /status carries
// retained lifecycle reports, and /commands receives inbound control
// messages.
package topics
