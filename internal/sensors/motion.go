package sensors

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/logging"
)

// Motion reports PIR activity as a 0/1 reading. Alerts are spaced by a
// minimum interval: activity seen again inside it reads 0, so a busy
// room cannot flood the broker. The gate state lives in process memory
// and survives across wake cycles.
type Motion struct {
	sample      func() (bool, error)
	minInterval time.Duration

	lastAlert time.Time
	now       func() time.Time // injectable for tests
}

// NewMotion wraps a PIR line sampler. minInterval spaces alerts; zero
// disables the gate.
func NewMotion(sample func() (bool, error), minInterval time.Duration) *Motion {
	return &Motion{
		sample:      sample,
		minInterval: minInterval,
		now:         time.Now,
	}
}

// Name implements Sensor
func (m *Motion) Name() string { return "pir" }

// ReadingNames declares the keys Read produces
func (m *Motion) ReadingNames() []string {
	return []string{"motion"}
}

// Read implements Sensor
func (m *Motion) Read(_ context.Context) (map[string]float64, error) {
	asserted, err := m.sample()
	if err != nil {
		return nil, fmt.Errorf("pir sample failed: %w", err)
	}
	if !asserted {
		return map[string]float64{"motion": 0}, nil
	}

	now := m.now()
	if !m.lastAlert.IsZero() && now.Sub(m.lastAlert) < m.minInterval {
		logging.Debug("Motion suppressed inside minimum interval",
			zap.Duration("since_last", now.Sub(m.lastAlert)),
			zap.Duration("min_interval", m.minInterval),
		)
		return map[string]float64{"motion": 0}, nil
	}

	m.lastAlert = now
	logging.Info("Motion detected")
	return map[string]float64{"motion": 1}, nil
}
