package configstore

import (
	"fmt"
	"time"

	"github.com/sensdot/sensdot/internal/identity"
)

// CurrentSchemaVersion is the schema version written by this build.
// Older records are migrated forward on load; newer records are accepted
// as-is (unknown fields are ignored).
const CurrentSchemaVersion = 1

// Default values for fields absent from a persisted record
const (
	DefaultMQTTPort        uint16 = 1883
	DefaultSleepIntervalS  uint32 = 60
	DefaultSensorIntervalS uint32 = 30
)

// Declared ranges for numeric fields. Values outside these bounds are
// clamped at load time, never rejected.
const (
	MinSleepIntervalS  uint32 = 10
	MaxSleepIntervalS  uint32 = 3600
	MinSensorIntervalS uint32 = 5
	MaxSensorIntervalS uint32 = 300
)

// Length limits from the WiFi and DNS specs
const (
	MaxSSIDLength       = 32
	MaxBrokerHostLength = 253
	MaxTopicPrefixLen   = 128
)

// WiFiConfig is the station-mode network credential pair
type WiFiConfig struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
}

// MQTTConfig describes the broker endpoint and session identity
type MQTTConfig struct {
	Broker      string `json:"broker"`             // host or IP
	Port        uint16 `json:"port"`               // 0 means DefaultMQTTPort
	Username    string `json:"username,omitempty"` // optional
	Password    string `json:"password,omitempty"` // optional
	TopicPrefix string `json:"topic_prefix"`       // empty means sensdot/<device_id>
}

// DeviceConfig is the persisted configuration record, one instance per
// device. The JSON layout on flash matches these tags exactly.
type DeviceConfig struct {
	SchemaVersion   uint32     `json:"schema_version"`
	WiFi            WiFiConfig `json:"wifi"`
	MQTT            MQTTConfig `json:"mqtt"`
	SleepIntervalS  uint32     `json:"sleep_interval_s"`
	SensorIntervalS uint32     `json:"sensor_interval_s"`
	DebugMode       bool       `json:"debug_mode"`
	HADiscovery     bool       `json:"ha_discovery"`
}

// DefaultConfig returns a record with every defaultable field populated and
// the operator-supplied fields (SSID, broker) left empty. The result is not
// valid-for-operation until those fields are set.
func DefaultConfig(id identity.Identity) *DeviceConfig {
	return &DeviceConfig{
		SchemaVersion: CurrentSchemaVersion,
		MQTT: MQTTConfig{
			Port:        DefaultMQTTPort,
			TopicPrefix: id.DefaultTopicPrefix(),
		},
		SleepIntervalS:  DefaultSleepIntervalS,
		SensorIntervalS: DefaultSensorIntervalS,
	}
}

// Normalize fills defaults for missing fields and clamps out-of-range
// numerics. It returns a note per adjustment so the caller can log them.
// A zero numeric is treated as "field absent" and takes the default; a
// non-zero value outside range is clamped to the nearest bound.
func Normalize(cfg *DeviceConfig, id identity.Identity) []string {
	var notes []string

	if cfg.SchemaVersion == 0 {
		cfg.SchemaVersion = CurrentSchemaVersion
	}

	if cfg.MQTT.Port == 0 {
		cfg.MQTT.Port = DefaultMQTTPort
		notes = append(notes, fmt.Sprintf("mqtt.port defaulted to %d", DefaultMQTTPort))
	}

	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = id.DefaultTopicPrefix()
		notes = append(notes, fmt.Sprintf("mqtt.topic_prefix defaulted to %q", cfg.MQTT.TopicPrefix))
	}

	cfg.SleepIntervalS, notes = normalizeRange(
		"sleep_interval_s", cfg.SleepIntervalS,
		DefaultSleepIntervalS, MinSleepIntervalS, MaxSleepIntervalS, notes)

	cfg.SensorIntervalS, notes = normalizeRange(
		"sensor_interval_s", cfg.SensorIntervalS,
		DefaultSensorIntervalS, MinSensorIntervalS, MaxSensorIntervalS, notes)

	return notes
}

func normalizeRange(field string, value, def, min, max uint32, notes []string) (uint32, []string) {
	switch {
	case value == 0:
		return def, append(notes, fmt.Sprintf("%s defaulted to %d", field, def))
	case value < min:
		return min, append(notes, fmt.Sprintf("%s clamped from %d to minimum %d", field, value, min))
	case value > max:
		return max, append(notes, fmt.Sprintf("%s clamped from %d to maximum %d", field, value, max))
	default:
		return value, notes
	}
}

// SleepInterval returns the configured deep-sleep interval as a Duration
func (c *DeviceConfig) SleepInterval() time.Duration {
	return time.Duration(c.SleepIntervalS) * time.Second
}

// SensorInterval returns the configured sensor cadence as a Duration
func (c *DeviceConfig) SensorInterval() time.Duration {
	return time.Duration(c.SensorIntervalS) * time.Second
}

// Clone returns a deep copy of the record
func (c *DeviceConfig) Clone() *DeviceConfig {
	out := *c
	return &out
}

// String returns a human-readable summary with secrets redacted.
// Safe to log or print from the CLI.
func (c *DeviceConfig) String() string {
	return fmt.Sprintf("SensDot configuration (schema v%d)\n"+
		"  WiFi: ssid=%q password=%s\n"+
		"  MQTT: %s:%d user=%q prefix=%q\n"+
		"  Intervals: sleep=%ds sensor=%ds\n"+
		"  Debug: %v  HA discovery: %v",
		c.SchemaVersion,
		c.WiFi.SSID, redact(c.WiFi.Password),
		c.MQTT.Broker, c.MQTT.Port, c.MQTT.Username, c.MQTT.TopicPrefix,
		c.SleepIntervalS, c.SensorIntervalS,
		c.DebugMode, c.HADiscovery)
}

func redact(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	return "********"
}
