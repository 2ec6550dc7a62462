package telemetry

import (
	"encoding/json"
	"fmt"
)

// Home Assistant MQTT discovery. When ha_discovery is enabled the node
// publishes one retained config record per reading under the standard
// homeassistant/ discovery tree, so sensors appear without manual YAML.

const discoveryRoot = "homeassistant"

// Device metadata shared by every discovery record
const (
	haManufacturer = "SensDot"
	haModel        = "SensDot Node"
)

// haDevice is the nested device block linking entities together
type haDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// haSensorConfig is a single sensor discovery record
type haSensorConfig struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	ValueTemplate     string   `json:"value_template"`
	UnitOfMeasurement string   `json:"unit_of_measurement,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
	Device            haDevice `json:"device"`
}

// readingMeta maps known reading names to Home Assistant metadata.
// Unknown readings are still announced, just without a device class.
var readingMeta = map[string]struct {
	Unit  string
	Class string
}{
	"temperature_c":  {"°C", "temperature"},
	"humidity_pct":   {"%", "humidity"},
	"free_memory_b":  {"B", "data_size"},
	"uptime_s":       {"s", "duration"},
	"load1":          {"", ""},
	"motion":         {"", ""},
	"battery_pct":    {"%", "battery"},
}

// DiscoveryRecord is one retained publish for the discovery tree
type DiscoveryRecord struct {
	Topic   string
	Payload []byte
}

// DiscoveryRecords builds the Home Assistant config records for a set of
// reading names. dataTopic is the node's <prefix>/data topic.
func DiscoveryRecords(deviceID, version, dataTopic string, readings []string) ([]DiscoveryRecord, error) {
	device := haDevice{
		Identifiers:  []string{"sensdot_" + deviceID},
		Name:         "SensDot " + deviceID,
		Manufacturer: haManufacturer,
		Model:        haModel,
		SWVersion:    version,
	}

	records := make([]DiscoveryRecord, 0, len(readings))
	for _, name := range readings {
		cfg := haSensorConfig{
			Name:          name,
			UniqueID:      fmt.Sprintf("sensdot_%s_%s", deviceID, name),
			StateTopic:    dataTopic,
			ValueTemplate: fmt.Sprintf("{{ value_json.data.%s }}", name),
			Device:        device,
		}
		if meta, ok := readingMeta[name]; ok {
			cfg.UnitOfMeasurement = meta.Unit
			cfg.DeviceClass = meta.Class
		}

		payload, err := json.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal discovery record for %s: %w", name, err)
		}

		records = append(records, DiscoveryRecord{
			Topic:   fmt.Sprintf("%s/sensor/sensdot_%s/%s/config", discoveryRoot, deviceID, name),
			Payload: payload,
		})
	}

	return records, nil
}
