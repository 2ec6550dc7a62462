package telemetry

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewDataPayload(t *testing.T) {
	readings := map[string]float64{
		"temperature_c": 21.5,
		"humidity_pct":  48.2,
	}
	ts := time.Unix(1756100000, 0)

	p := NewDataPayload("a1b2c3d4e5f6", ts, readings)

	if p.DeviceID != "a1b2c3d4e5f6" {
		t.Errorf("DeviceID = %q", p.DeviceID)
	}
	if p.Timestamp != 1756100000 {
		t.Errorf("Timestamp = %d", p.Timestamp)
	}
	if len(p.Data) != 2 || p.Data["temperature_c"] != 21.5 {
		t.Errorf("Data = %v", p.Data)
	}

	// The payload copies the map; mutating the source must not leak in
	readings["temperature_c"] = 99
	if p.Data["temperature_c"] != 21.5 {
		t.Error("payload shares the caller's map")
	}
}

func TestDataPayloadMarshalShape(t *testing.T) {
	p := NewDataPayload("a1b2c3d4e5f6", time.Unix(100, 0), map[string]float64{"load1": 0.25})

	data, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	for _, key := range []string{"device_id", "timestamp", "data"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("payload missing %q field", key)
		}
	}
}

func TestDataPayloadKeysSorted(t *testing.T) {
	p := NewDataPayload("id", time.Unix(0, 0), map[string]float64{
		"zeta": 1, "alpha": 2, "mid": 3,
	})
	keys := p.Keys()
	want := []string{"alpha", "mid", "zeta"}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
}

func TestOfflineWill(t *testing.T) {
	var p StatusPayload
	if err := json.Unmarshal(OfflineWill("a1b2c3d4e5f6"), &p); err != nil {
		t.Fatalf("will payload does not parse: %v", err)
	}
	if p.State != StateOffline {
		t.Errorf("State = %q, want %q", p.State, StateOffline)
	}
	if p.DeviceID != "a1b2c3d4e5f6" {
		t.Errorf("DeviceID = %q", p.DeviceID)
	}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Command
		wantErr bool
	}{
		{"bare status", "status", CommandStatus, false},
		{"bare restart", "restart", CommandRestart, false},
		{"bare with whitespace", "  restart\n", CommandRestart, false},
		{"mixed case", "Status", CommandStatus, false},
		{"json envelope", `{"command":"restart"}`, CommandRestart, false},
		{"json envelope status", `{"command": "status"}`, CommandStatus, false},
		{"unknown", "reboot", "", true},
		{"empty", "", "", true},
		{"empty envelope", `{"command":""}`, "", true},
		{"malformed json", `{"command":`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCommand(%q) error = %v, wantErr %v", tt.payload, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}

func TestDiscoveryRecords(t *testing.T) {
	records, err := DiscoveryRecords("a1b2c3d4e5f6", "v1.0.0", "sensdot/a1b2c3d4e5f6/data",
		[]string{"temperature_c", "load1"})
	if err != nil {
		t.Fatalf("DiscoveryRecords: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	wantTopic := "homeassistant/sensor/sensdot_a1b2c3d4e5f6/temperature_c/config"
	if records[0].Topic != wantTopic {
		t.Errorf("topic = %q, want %q", records[0].Topic, wantTopic)
	}

	var cfg map[string]any
	if err := json.Unmarshal(records[0].Payload, &cfg); err != nil {
		t.Fatalf("record payload does not parse: %v", err)
	}
	if cfg["device_class"] != "temperature" {
		t.Errorf("device_class = %v", cfg["device_class"])
	}
	if cfg["state_topic"] != "sensdot/a1b2c3d4e5f6/data" {
		t.Errorf("state_topic = %v", cfg["state_topic"])
	}
}
