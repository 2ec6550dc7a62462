package boot

import (
	"context"
	"time"

	"github.com/sensdot/sensdot/internal/configstore"
)

// The orchestrator depends on narrow interfaces so tests can substitute
// every collaborator. Production wiring lives in cmd/sensdotd.

// ConfigStore is the persisted-record surface the orchestrator needs
type ConfigStore interface {
	Load() (*configstore.DeviceConfig, error)
	Reset() error
}

// GestureDetector watches the reset input
type GestureDetector interface {
	Observe(ctx context.Context) (bool, error)
	HoldDuration(ctx context.Context, max time.Duration) (time.Duration, error)
}

// Session is one broker connection lifecycle
type Session interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
	Subscribe(ctx context.Context, topic string, qos byte) error
	DrainMessages(ctx context.Context, wait time.Duration, fn func(topic string, payload []byte)) (int, error)
	Disconnect()
	Address() string
}

// SessionFactory builds a session for the configured broker. A fresh
// session per cycle keeps the no-auto-reconnect contract simple.
type SessionFactory func(cfg *configstore.DeviceConfig) Session

// SensorReader reads every enabled sensor, omitting failures
type SensorReader interface {
	ReadAll(ctx context.Context) map[string]float64
}

// Portal serves the configuration web UI. Run blocks until a new
// configuration is committed (nil) or the context is cancelled.
type Portal interface {
	Run(ctx context.Context) error
}

// Announcer advertises the node over mDNS while the portal runs
type Announcer interface {
	Start() error
	Stop()
}

// TimeSync adjusts the clock after the network comes up. Best-effort:
// a failure is logged and the cycle continues on system time.
type TimeSync interface {
	Sync(ctx context.Context) (time.Time, error)
}

// Indicator drives the status LED. Implementations must be safe to call
// when no LED is fitted.
type Indicator interface {
	APMode(on bool)
	PublishOK()
	CycleFailed()
	FactoryReset()
}

// PowerManager suspends or restarts the node
type PowerManager interface {
	DeepSleep(ctx context.Context, d time.Duration) error
	Reboot(ctx context.Context) error
}
