package sensors

import (
	"context"
	"fmt"
	"sync"

	"github.com/mikesmitty/sht4x"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// hostInit runs periph host initialization once per process
var hostInit sync.Once

// SHT4X reads temperature and relative humidity from a Sensirion SHT4x
// over I²C. The bus stays open for the life of the process; a wake cycle
// only performs one measurement, so there is nothing to re-arm between
// reads.
type SHT4X struct {
	dev *sht4x.Dev
}

// NewSHT4X opens the named I²C bus and probes the sensor. bus follows
// periph naming: empty for the first available bus.
func NewSHT4X(bus string) (*SHT4X, error) {
	var initErr error
	hostInit.Do(func() {
		_, initErr = host.Init()
	})
	if initErr != nil {
		return nil, fmt.Errorf("failed to initialize host drivers: %w", initErr)
	}

	b, err := i2creg.Open(bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", bus, err)
	}

	dev, err := sht4x.New(b, nil)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to probe sht4x: %w", err)
	}

	return &SHT4X{dev: dev}, nil
}

// Name implements Sensor
func (s *SHT4X) Name() string { return "sht4x" }

// ReadingNames declares the keys Read produces
func (s *SHT4X) ReadingNames() []string {
	return []string{"temperature_c", "humidity_pct"}
}

// Read implements Sensor
func (s *SHT4X) Read(_ context.Context) (map[string]float64, error) {
	var env physic.Env
	if err := s.dev.Sense(&env); err != nil {
		return nil, fmt.Errorf("sht4x measurement failed: %w", err)
	}

	return map[string]float64{
		"temperature_c": env.Temperature.Celsius(),
		"humidity_pct":  float64(env.Humidity) / float64(physic.PercentRH),
	}, nil
}
