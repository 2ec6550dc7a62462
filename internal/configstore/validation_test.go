package configstore

import (
	"strings"
	"testing"

	"github.com/sensdot/sensdot/internal/identity"
)

func testIdentity(t *testing.T) identity.Identity {
	t.Helper()
	id, err := identity.FromString("a1b2c3d4e5f6")
	if err != nil {
		t.Fatalf("identity.FromString failed: %v", err)
	}
	return id
}

// validConfig returns a record that passes Valid; tests mutate it
func validConfig() *DeviceConfig {
	return &DeviceConfig{
		SchemaVersion: CurrentSchemaVersion,
		WiFi:          WiFiConfig{SSID: "home-net", Password: "hunter22"},
		MQTT: MQTTConfig{
			Broker:      "mqtt.example.net",
			Port:        1883,
			TopicPrefix: "sensdot/a1b2c3d4e5f6",
		},
		SleepIntervalS:  60,
		SensorIntervalS: 30,
	}
}

// TestValidRequiresSSIDAndBroker checks the valid-for-operation invariant:
// an empty SSID or broker host makes the record invalid regardless of every
// other field.
func TestValidRequiresSSIDAndBroker(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DeviceConfig)
		want   bool
	}{
		{"Valid: complete record", func(c *DeviceConfig) {}, true},
		{"Invalid: empty ssid", func(c *DeviceConfig) { c.WiFi.SSID = "" }, false},
		{"Invalid: empty broker", func(c *DeviceConfig) { c.MQTT.Broker = "" }, false},
		{"Invalid: both empty", func(c *DeviceConfig) { c.WiFi.SSID = ""; c.MQTT.Broker = "" }, false},
		{"Invalid: empty ssid with otherwise perfect fields", func(c *DeviceConfig) {
			c.WiFi.SSID = ""
			c.MQTT.Username = "user"
			c.MQTT.Password = "pass"
			c.DebugMode = true
		}, false},
		{"Invalid: sleep interval below range", func(c *DeviceConfig) { c.SleepIntervalS = 5 }, false},
		{"Invalid: sleep interval above range", func(c *DeviceConfig) { c.SleepIntervalS = 7200 }, false},
		{"Invalid: sensor interval below range", func(c *DeviceConfig) { c.SensorIntervalS = 1 }, false},
		{"Invalid: sensor interval above range", func(c *DeviceConfig) { c.SensorIntervalS = 900 }, false},
		{"Invalid: zero port", func(c *DeviceConfig) { c.MQTT.Port = 0 }, false},
		{"Invalid: nil record", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg *DeviceConfig
			if tt.mutate != nil {
				cfg = validConfig()
				tt.mutate(cfg)
			}
			if got := Valid(cfg); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestNormalizeDefaultsAndClamps checks default filling and range clamping
func TestNormalizeDefaultsAndClamps(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*DeviceConfig)
		check     func(*testing.T, *DeviceConfig)
		wantNotes int
	}{
		{
			name:   "zero sleep interval takes default",
			mutate: func(c *DeviceConfig) { c.SleepIntervalS = 0 },
			check: func(t *testing.T, c *DeviceConfig) {
				if c.SleepIntervalS != DefaultSleepIntervalS {
					t.Errorf("SleepIntervalS = %d, want default %d", c.SleepIntervalS, DefaultSleepIntervalS)
				}
			},
			wantNotes: 1,
		},
		{
			name:   "low sleep interval clamps to minimum",
			mutate: func(c *DeviceConfig) { c.SleepIntervalS = 3 },
			check: func(t *testing.T, c *DeviceConfig) {
				if c.SleepIntervalS != MinSleepIntervalS {
					t.Errorf("SleepIntervalS = %d, want minimum %d", c.SleepIntervalS, MinSleepIntervalS)
				}
			},
			wantNotes: 1,
		},
		{
			name:   "high sleep interval clamps to maximum",
			mutate: func(c *DeviceConfig) { c.SleepIntervalS = 90000 },
			check: func(t *testing.T, c *DeviceConfig) {
				if c.SleepIntervalS != MaxSleepIntervalS {
					t.Errorf("SleepIntervalS = %d, want maximum %d", c.SleepIntervalS, MaxSleepIntervalS)
				}
			},
			wantNotes: 1,
		},
		{
			name:   "high sensor interval clamps to maximum",
			mutate: func(c *DeviceConfig) { c.SensorIntervalS = 301 },
			check: func(t *testing.T, c *DeviceConfig) {
				if c.SensorIntervalS != MaxSensorIntervalS {
					t.Errorf("SensorIntervalS = %d, want maximum %d", c.SensorIntervalS, MaxSensorIntervalS)
				}
			},
			wantNotes: 1,
		},
		{
			name:   "zero port takes default",
			mutate: func(c *DeviceConfig) { c.MQTT.Port = 0 },
			check: func(t *testing.T, c *DeviceConfig) {
				if c.MQTT.Port != DefaultMQTTPort {
					t.Errorf("Port = %d, want default %d", c.MQTT.Port, DefaultMQTTPort)
				}
			},
			wantNotes: 1,
		},
		{
			name:   "empty topic prefix derives from identity",
			mutate: func(c *DeviceConfig) { c.MQTT.TopicPrefix = "" },
			check: func(t *testing.T, c *DeviceConfig) {
				if c.MQTT.TopicPrefix != "sensdot/a1b2c3d4e5f6" {
					t.Errorf("TopicPrefix = %q, want identity default", c.MQTT.TopicPrefix)
				}
			},
			wantNotes: 1,
		},
		{
			name:      "in-range record untouched",
			mutate:    func(c *DeviceConfig) {},
			check:     func(t *testing.T, c *DeviceConfig) {},
			wantNotes: 0,
		},
	}

	id := testIdentity(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			notes := Normalize(cfg, id)
			if len(notes) != tt.wantNotes {
				t.Errorf("Normalize() produced %d notes, want %d: %v", len(notes), tt.wantNotes, notes)
			}
			tt.check(t, cfg)
		})
	}
}

// TestValidateSSID tests SSID validation
func TestValidateSSID(t *testing.T) {
	tests := []struct {
		name    string
		ssid    string
		wantErr bool
	}{
		{"Valid: normal SSID", "MyNetwork", false},
		{"Valid: with spaces", "My Home Network", false},
		{"Valid: max length (32 chars)", strings.Repeat("x", 32), false},
		{"Invalid: empty", "", true},
		{"Invalid: too long (33 chars)", strings.Repeat("x", 33), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSSID(tt.ssid)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSSID(%q) error = %v, wantErr %v", tt.ssid, err, tt.wantErr)
			}
		})
	}
}

// TestValidateBrokerHost tests broker host validation
func TestValidateBrokerHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantErr bool
	}{
		{"Valid: hostname", "mqtt.example.net", false},
		{"Valid: bare IP", "192.168.1.10", false},
		{"Valid: single label", "broker", false},
		{"Invalid: empty", "", true},
		{"Invalid: contains space", "mqtt example.net", true},
		{"Invalid: too long", strings.Repeat("a", 254), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBrokerHost(tt.host)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBrokerHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
		})
	}
}

// TestValidateTopicPrefix tests topic prefix validation
func TestValidateTopicPrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantErr bool
	}{
		{"Valid: default shape", "sensdot/a1b2c3d4e5f6", false},
		{"Valid: custom nesting", "home/garden/node3", false},
		{"Valid: empty takes default later", "", false},
		{"Invalid: single-level wildcard", "sensdot/+", true},
		{"Invalid: multi-level wildcard", "sensdot/#", true},
		{"Invalid: trailing slash", "sensdot/node/", true},
		{"Invalid: too long", strings.Repeat("p", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTopicPrefix(tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTopicPrefix(%q) error = %v, wantErr %v", tt.prefix, err, tt.wantErr)
			}
		})
	}
}

// TestValidateConfigSeparatesWarnings checks that advisory findings are
// reported as warnings and do not block a commit.
func TestValidateConfigSeparatesWarnings(t *testing.T) {
	cfg := validConfig()
	cfg.WiFi.Password = "" // open network advisory

	issues := ValidateConfig(cfg)
	warnings, criticalErrors := SeparateWarningsAndErrors(issues)

	if len(criticalErrors) != 0 {
		t.Errorf("expected no critical errors, got %d: %v", len(criticalErrors), criticalErrors)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
	if !IsWarning(warnings[0]) {
		t.Errorf("IsWarning() = false for %v", warnings[0])
	}
}

// TestStringRedactsSecrets guards against credentials leaking into logs
func TestStringRedactsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.WiFi.Password = "topsecret"
	cfg.MQTT.Password = "alsosecret"

	out := cfg.String()
	if strings.Contains(out, "topsecret") || strings.Contains(out, "alsosecret") {
		t.Errorf("String() leaked a secret: %s", out)
	}
	if !strings.Contains(out, cfg.WiFi.SSID) {
		t.Errorf("String() should include the SSID: %s", out)
	}
}
