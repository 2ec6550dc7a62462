package sensors

import (
	"context"

	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/logging"
)

// Sensor produces one or more named readings per cycle
type Sensor interface {
	Name() string
	Read(ctx context.Context) (map[string]float64, error)
}

// Set is the node's configured sensor collection
type Set struct {
	sensors []Sensor
}

// NewSet builds a collection from the sensors the profile enabled
func NewSet(sensors ...Sensor) *Set {
	return &Set{sensors: sensors}
}

// ReadAll reads every sensor and merges the results. Sensors that fail
// are logged and skipped; the returned map holds whatever succeeded,
// possibly nothing.
func (s *Set) ReadAll(ctx context.Context) map[string]float64 {
	readings := make(map[string]float64)
	for _, sensor := range s.sensors {
		values, err := sensor.Read(ctx)
		if err != nil {
			logging.Warn("Sensor read failed, omitting from payload",
				zap.String("sensor", sensor.Name()),
				zap.Error(err),
			)
			continue
		}
		for k, v := range values {
			readings[k] = v
		}
	}
	return readings
}

// Names lists the configured sensors, for logging at startup
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.sensors))
	for _, sensor := range s.sensors {
		names = append(names, sensor.Name())
	}
	return names
}

// readingNamer is implemented by sensors that can enumerate their
// reading keys without touching the hardware
type readingNamer interface {
	ReadingNames() []string
}

// ReadingNames lists every reading key the configured sensors declare.
// Discovery announcements use this so a sensor that fails on the first
// cycle still gets its entities registered; sensors that cannot
// enumerate up front are skipped.
func (s *Set) ReadingNames() []string {
	var keys []string
	for _, sensor := range s.sensors {
		if n, ok := sensor.(readingNamer); ok {
			keys = append(keys, n.ReadingNames()...)
		}
	}
	return keys
}
