package profile

// Defaults match the reference board: a Pi Zero 2 W with the button on
// GPIO 9 (pulled up, pressed = low) and the status LED on GPIO 10.
const (
	DefaultConfigPath = "/var/lib/sensdot/device_config.json"
	DefaultLogPath    = "/var/log/sensdot/agent.log"

	DefaultGPIOChip   = "gpiochip0"
	DefaultButtonLine = 9
	DefaultLEDLine    = 10
	DefaultPIRLine    = 5

	// DefaultMotionMinIntervalS spaces motion alerts so a busy room
	// cannot keep the node awake and publishing
	DefaultMotionMinIntervalS = 300

	DefaultRadioInterface = "wlan0"

	// DefaultAPPassphrase protects the configuration access point. It is a
	// shared constant for the product line, not a per-device secret.
	DefaultAPPassphrase = "sensdot-setup"

	DefaultHoldThresholdS = 3
	DefaultFactoryResetS  = 20
	DefaultPollIntervalMS = 50
	DefaultPortalListen   = ":80"
	currentProfileVersion = 1
)

// DefaultNTPServers are tried in order until one answers
var DefaultNTPServers = []string{
	"pool.ntp.org",
	"time.google.com",
	"time.cloudflare.com",
}

// Profile describes the board and environment this agent runs on
type Profile struct {
	Version int            `yaml:"version"`
	Paths   PathsProfile   `yaml:"paths,omitempty"`
	GPIO    GPIOProfile    `yaml:"gpio,omitempty"`
	Radio   RadioProfile   `yaml:"radio,omitempty"`
	I2C     I2CProfile     `yaml:"i2c,omitempty"`
	NTP     NTPProfile     `yaml:"ntp,omitempty"`
	Gesture GestureProfile `yaml:"gesture,omitempty"`
	Motion  MotionProfile  `yaml:"motion,omitempty"`
	Power   PowerProfile   `yaml:"power,omitempty"`
	Portal  PortalProfile  `yaml:"portal,omitempty"`
}

// PathsProfile locates the agent's files on this board
type PathsProfile struct {
	Config string `yaml:"config,omitempty"` // device configuration record
	Log    string `yaml:"log,omitempty"`    // rotated agent log
}

// GPIOProfile maps the button and LED to chip lines.
// Disabled boards (development VMs) run without GPIO entirely.
type GPIOProfile struct {
	Enabled         bool   `yaml:"enabled"`
	Chip            string `yaml:"chip,omitempty"`
	ButtonLine      int    `yaml:"button_line,omitempty"`
	ButtonActiveLow bool   `yaml:"button_active_low"`
	LEDLine         int    `yaml:"led_line,omitempty"`
	LEDActiveLow    bool   `yaml:"led_active_low"`

	// PIR motion sensor, pulled down, motion reads high
	PIREnabled bool `yaml:"pir_enabled"`
	PIRLine    int  `yaml:"pir_line,omitempty"`
}

// RadioProfile names the WiFi interface and the AP constants
type RadioProfile struct {
	Interface    string `yaml:"interface,omitempty"`
	APPassphrase string `yaml:"ap_passphrase,omitempty"`
}

// I2CProfile selects the sensor bus. Bus follows periph naming:
// "" for the first available bus, "1" or "/dev/i2c-1" for an explicit one.
type I2CProfile struct {
	Bus          string `yaml:"bus,omitempty"`
	SHT4XEnabled bool   `yaml:"sht4x_enabled"`
}

// NTPProfile lists time servers tried after the station link comes up
type NTPProfile struct {
	Servers []string `yaml:"servers,omitempty"`
}

// GestureProfile tunes the reset-button hold detector
type GestureProfile struct {
	HoldThresholdS int `yaml:"hold_threshold_s,omitempty"`
	FactoryResetS  int `yaml:"factory_reset_s,omitempty"`
	PollIntervalMS int `yaml:"poll_interval_ms,omitempty"`
}

// MotionProfile tunes PIR motion reporting. MinIntervalS is the
// shortest spacing between motion alerts; repeat activity inside it is
// suppressed and cannot end a sleep early.
type MotionProfile struct {
	MinIntervalS int `yaml:"min_interval_s,omitempty"`
}

// PowerProfile selects the sleep mechanism.
// With rtcwake disabled the agent sleeps in-process (useful on boards
// whose RTC cannot wake the SoC, and in development).
type PowerProfile struct {
	UseRTCWake bool `yaml:"use_rtcwake"`
}

// PortalProfile configures the configuration-mode HTTP listener
type PortalProfile struct {
	Listen string `yaml:"listen,omitempty"`
}

// DefaultProfile returns the profile for the reference board
func DefaultProfile() *Profile {
	return &Profile{
		Version: currentProfileVersion,
		Paths: PathsProfile{
			Config: DefaultConfigPath,
			Log:    DefaultLogPath,
		},
		GPIO: GPIOProfile{
			Enabled:         true,
			Chip:            DefaultGPIOChip,
			ButtonLine:      DefaultButtonLine,
			ButtonActiveLow: true,
			LEDLine:         DefaultLEDLine,
			PIRLine:         DefaultPIRLine,
		},
		Radio: RadioProfile{
			Interface:    DefaultRadioInterface,
			APPassphrase: DefaultAPPassphrase,
		},
		I2C: I2CProfile{},
		NTP: NTPProfile{
			Servers: append([]string(nil), DefaultNTPServers...),
		},
		Gesture: GestureProfile{
			HoldThresholdS: DefaultHoldThresholdS,
			FactoryResetS:  DefaultFactoryResetS,
			PollIntervalMS: DefaultPollIntervalMS,
		},
		Motion: MotionProfile{
			MinIntervalS: DefaultMotionMinIntervalS,
		},
		Power: PowerProfile{
			UseRTCWake: true,
		},
		Portal: PortalProfile{
			Listen: DefaultPortalListen,
		},
	}
}

// fillDefaults replaces zero-valued fields with reference-board defaults.
// Boolean fields keep whatever the file said; only strings, slices, and
// positive integers are defaultable.
func (p *Profile) fillDefaults() {
	if p.Paths.Config == "" {
		p.Paths.Config = DefaultConfigPath
	}
	if p.Paths.Log == "" {
		p.Paths.Log = DefaultLogPath
	}
	if p.GPIO.Chip == "" {
		p.GPIO.Chip = DefaultGPIOChip
	}
	if p.Radio.Interface == "" {
		p.Radio.Interface = DefaultRadioInterface
	}
	if p.Radio.APPassphrase == "" {
		p.Radio.APPassphrase = DefaultAPPassphrase
	}
	if len(p.NTP.Servers) == 0 {
		p.NTP.Servers = append([]string(nil), DefaultNTPServers...)
	}
	if p.Gesture.HoldThresholdS <= 0 {
		p.Gesture.HoldThresholdS = DefaultHoldThresholdS
	}
	if p.Gesture.FactoryResetS <= 0 {
		p.Gesture.FactoryResetS = DefaultFactoryResetS
	}
	if p.Gesture.PollIntervalMS <= 0 {
		p.Gesture.PollIntervalMS = DefaultPollIntervalMS
	}
	if p.GPIO.PIRLine <= 0 {
		p.GPIO.PIRLine = DefaultPIRLine
	}
	if p.Motion.MinIntervalS <= 0 {
		p.Motion.MinIntervalS = DefaultMotionMinIntervalS
	}
	if p.Portal.Listen == "" {
		p.Portal.Listen = DefaultPortalListen
	}
}
