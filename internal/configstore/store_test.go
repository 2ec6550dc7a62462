package configstore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "device_config.json")
	return NewStore(path, testIdentity(t))
}

// TestLoadAbsent checks that a missing file reports ErrAbsent
func TestLoadAbsent(t *testing.T) {
	store := newTestStore(t)

	cfg, err := store.Load()
	if !errors.Is(err, ErrAbsent) {
		t.Fatalf("Load() on empty flash: err = %v, want ErrAbsent", err)
	}
	if cfg != nil {
		t.Errorf("Load() on empty flash returned a record: %+v", cfg)
	}
}

// TestLoadCorruptRecord checks that unparseable JSON is treated as absent,
// never surfaced as a parse error.
func TestLoadCorruptRecord(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"Truncated object", `{"wifi": {"ssid": "ho`},
		{"Not JSON at all", "##### flash noise #####"},
		{"JSON array instead of object", `[1, 2, 3]`},
		{"Empty file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			if err := os.WriteFile(store.Path(), []byte(tt.data), 0600); err != nil {
				t.Fatalf("seed corrupt file: %v", err)
			}

			_, err := store.Load()
			if !errors.Is(err, ErrAbsent) {
				t.Errorf("Load() with corrupt record: err = %v, want ErrAbsent", err)
			}
		})
	}
}

// TestLoadClampsOutOfRange checks that out-of-range numerics produce a
// clamped record, not an absent result.
func TestLoadClampsOutOfRange(t *testing.T) {
	store := newTestStore(t)
	raw := `{
  "schema_version": 1,
  "wifi": {"ssid": "home-net", "password": "pw"},
  "mqtt": {"broker": "mqtt.example.net", "port": 1883, "topic_prefix": "sensdot/x"},
  "sleep_interval_s": 999999,
  "sensor_interval_s": 1
}`
	if err := os.WriteFile(store.Path(), []byte(raw), 0600); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v, want clamped record", err)
	}
	if cfg.SleepIntervalS != MaxSleepIntervalS {
		t.Errorf("SleepIntervalS = %d, want clamped %d", cfg.SleepIntervalS, MaxSleepIntervalS)
	}
	if cfg.SensorIntervalS != MinSensorIntervalS {
		t.Errorf("SensorIntervalS = %d, want clamped %d", cfg.SensorIntervalS, MinSensorIntervalS)
	}
	if !Valid(cfg) {
		t.Errorf("clamped record should be valid-for-operation")
	}
}

// TestLoadIgnoresUnknownFields checks forward compatibility with records
// written by newer firmware.
func TestLoadIgnoresUnknownFields(t *testing.T) {
	store := newTestStore(t)
	raw := `{
  "schema_version": 1,
  "wifi": {"ssid": "home-net", "password": "pw", "band": "5GHz"},
  "mqtt": {"broker": "mqtt.example.net", "port": 1883, "topic_prefix": "sensdot/x"},
  "sleep_interval_s": 60,
  "sensor_interval_s": 30,
  "future_feature": {"enabled": true}
}`
	if err := os.WriteFile(store.Path(), []byte(raw), 0600); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v, want record", err)
	}
	if cfg.WiFi.SSID != "home-net" {
		t.Errorf("SSID = %q, want home-net", cfg.WiFi.SSID)
	}
}

// TestLoadDefaultsMissingFields checks that a minimal record is filled in
func TestLoadDefaultsMissingFields(t *testing.T) {
	store := newTestStore(t)
	raw := `{"wifi": {"ssid": "home-net"}, "mqtt": {"broker": "10.0.0.2"}}`
	if err := os.WriteFile(store.Path(), []byte(raw), 0600); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v, want defaulted record", err)
	}

	if cfg.MQTT.Port != DefaultMQTTPort {
		t.Errorf("Port = %d, want default %d", cfg.MQTT.Port, DefaultMQTTPort)
	}
	if cfg.SleepIntervalS != DefaultSleepIntervalS {
		t.Errorf("SleepIntervalS = %d, want default %d", cfg.SleepIntervalS, DefaultSleepIntervalS)
	}
	if cfg.SensorIntervalS != DefaultSensorIntervalS {
		t.Errorf("SensorIntervalS = %d, want default %d", cfg.SensorIntervalS, DefaultSensorIntervalS)
	}
	if cfg.MQTT.TopicPrefix != "sensdot/a1b2c3d4e5f6" {
		t.Errorf("TopicPrefix = %q, want identity default", cfg.MQTT.TopicPrefix)
	}
	if cfg.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", cfg.SchemaVersion, CurrentSchemaVersion)
	}
	if !Valid(cfg) {
		t.Errorf("defaulted record with ssid and broker should be valid")
	}
}

// TestCommitThenLoadRoundTrip checks commit/load idempotence: loading a
// committed record yields the normalized form of what was proposed.
func TestCommitThenLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	proposed := &DeviceConfig{
		WiFi: WiFiConfig{SSID: "home-net", Password: "hunter22"},
		MQTT: MQTTConfig{Broker: "mqtt.example.net"},
		// numerics left zero: must come back as defaults
	}

	if err := store.Commit(proposed); err != nil {
		t.Fatalf("Commit() = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after Commit = %v", err)
	}

	expected := proposed.Clone()
	Normalize(expected, testIdentity(t))

	if !reflect.DeepEqual(loaded, expected) {
		t.Errorf("Load(Commit(cfg)) != Normalize(cfg)\n got: %+v\nwant: %+v", loaded, expected)
	}

	// A second commit of the loaded record must be a no-op round trip
	if err := store.Commit(loaded); err != nil {
		t.Fatalf("Commit(loaded) = %v", err)
	}
	again, err := store.Load()
	if err != nil {
		t.Fatalf("second Load() = %v", err)
	}
	if !reflect.DeepEqual(again, loaded) {
		t.Errorf("second round trip drifted\n got: %+v\nwant: %+v", again, loaded)
	}
}

// TestCommitRejectsInvalid checks that a record failing validation never
// reaches the flash and does not disturb the prior record.
func TestCommitRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	good := validConfig()
	if err := store.Commit(good); err != nil {
		t.Fatalf("Commit(good) = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*DeviceConfig)
	}{
		{"Empty ssid", func(c *DeviceConfig) { c.WiFi.SSID = "" }},
		{"Empty broker", func(c *DeviceConfig) { c.MQTT.Broker = "" }},
		{"Broker with whitespace", func(c *DeviceConfig) { c.MQTT.Broker = "bad host" }},
		{"Wildcard topic prefix", func(c *DeviceConfig) { c.MQTT.TopicPrefix = "sensdot/#" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bad := validConfig()
			tt.mutate(bad)

			if err := store.Commit(bad); err == nil {
				t.Fatalf("Commit() accepted an invalid record")
			}

			// Prior record must be intact
			loaded, err := store.Load()
			if err != nil {
				t.Fatalf("Load() after rejected commit = %v", err)
			}
			if loaded.WiFi.SSID != good.WiFi.SSID || loaded.MQTT.Broker != good.MQTT.Broker {
				t.Errorf("prior record disturbed by rejected commit: %+v", loaded)
			}
		})
	}
}

// TestCommitClampsProposal checks that a portal submission with an
// out-of-range interval is clamped, matching load-time behavior.
func TestCommitClampsProposal(t *testing.T) {
	store := newTestStore(t)

	proposed := validConfig()
	proposed.SleepIntervalS = 5 // below minimum

	if err := store.Commit(proposed); err != nil {
		t.Fatalf("Commit() = %v, want clamped accept", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if loaded.SleepIntervalS != MinSleepIntervalS {
		t.Errorf("SleepIntervalS = %d, want clamped %d", loaded.SleepIntervalS, MinSleepIntervalS)
	}
	// The caller's proposal must not be mutated by Commit
	if proposed.SleepIntervalS != 5 {
		t.Errorf("Commit mutated the caller's record: SleepIntervalS = %d", proposed.SleepIntervalS)
	}
}

// TestCommitLeavesNoTempFile checks that the write-new-then-rename commit
// does not leave artifacts next to the record.
func TestCommitLeavesNoTempFile(t *testing.T) {
	store := newTestStore(t)

	if err := store.Commit(validConfig()); err != nil {
		t.Fatalf("Commit() = %v", err)
	}

	if _, err := os.Stat(store.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind after commit")
	}
}

// TestReset checks record deletion and idempotence
func TestReset(t *testing.T) {
	store := newTestStore(t)

	if err := store.Commit(validConfig()); err != nil {
		t.Fatalf("Commit() = %v", err)
	}

	if err := store.Reset(); err != nil {
		t.Fatalf("Reset() = %v", err)
	}

	if _, err := store.Load(); !errors.Is(err, ErrAbsent) {
		t.Errorf("Load() after Reset: err = %v, want ErrAbsent", err)
	}

	// Resetting again must not fail
	if err := store.Reset(); err != nil {
		t.Errorf("second Reset() = %v, want nil", err)
	}
}
