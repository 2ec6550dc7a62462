package gesture

import (
	"context"
	"fmt"
	"time"

	"github.com/sensdot/sensdot/internal/logging"
	"go.uber.org/zap"
)

// Default detector tuning. The thresholds match the reference hardware:
// 3 seconds to request configuration, 20 seconds held for a factory
// reset, sampled every 50ms.
const (
	DefaultThreshold    = 3 * time.Second
	DefaultPollInterval = 50 * time.Millisecond

	// bounceGraceIntervals is how many consecutive deasserted samples
	// count as a real release rather than contact bounce.
	bounceGraceIntervals = 2
)

// Sampler reads the logical state of the reset input: true means the
// button is pressed (asserted), regardless of the electrical polarity.
type Sampler interface {
	Sample() (bool, error)
}

// SamplerFunc adapts a function to the Sampler interface
type SamplerFunc func() (bool, error)

// Sample implements Sampler
func (f SamplerFunc) Sample() (bool, error) {
	return f()
}

// Clock abstracts time for the detector so tests can script it
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Detector watches the reset input for a continuous hold
type Detector struct {
	Threshold    time.Duration
	PollInterval time.Duration

	sampler Sampler
	clock   Clock
}

// NewDetector creates a detector with the default threshold and poll
// interval. Override the exported fields before the first Observe call
// to tune it.
func NewDetector(sampler Sampler) *Detector {
	return &Detector{
		Threshold:    DefaultThreshold,
		PollInterval: DefaultPollInterval,
		sampler:      sampler,
		clock:        systemClock{},
	}
}

// Observe reports whether the reset input is held continuously for at
// least Threshold.
//
// It returns false immediately when the input is unasserted at call
// time, so an ordinary boot is not delayed. Once assertion starts there
// is no upper timeout: the user decides when to release. A deasserted
// sample shorter than the bounce grace re-arms the hold timer to zero
// and keeps watching; a release that outlasts the grace ends the check
// with false.
func (d *Detector) Observe(ctx context.Context) (bool, error) {
	asserted, err := d.sampler.Sample()
	if err != nil {
		return false, fmt.Errorf("failed to sample reset input: %w", err)
	}
	if !asserted {
		return false, nil
	}

	logging.Debug("Reset input asserted at boot, timing hold",
		zap.Duration("threshold", d.Threshold),
	)

	grace := time.Duration(bounceGraceIntervals) * d.PollInterval
	holdStart := d.clock.Now()
	var deassertedSince time.Time

	for {
		if err := d.clock.Sleep(ctx, d.PollInterval); err != nil {
			return false, err
		}

		asserted, err := d.sampler.Sample()
		if err != nil {
			return false, fmt.Errorf("failed to sample reset input: %w", err)
		}
		now := d.clock.Now()

		if !asserted {
			if deassertedSince.IsZero() {
				deassertedSince = now
				continue
			}
			if now.Sub(deassertedSince) >= grace {
				logging.Debug("Reset input released before hold completed",
					zap.Duration("held", deassertedSince.Sub(holdStart)),
				)
				return false, nil
			}
			continue
		}

		if !deassertedSince.IsZero() {
			// Bounce: the timer re-arms, it does not abort
			logging.Debug("Reset input bounced, re-arming hold timer")
			holdStart = now
			deassertedSince = time.Time{}
			continue
		}

		if now.Sub(holdStart) >= d.Threshold {
			logging.Info("Reset hold detected, configuration requested",
				zap.Duration("threshold", d.Threshold),
			)
			return true, nil
		}
	}
}

// HoldDuration measures how much longer the input stays asserted after
// Observe returned true. It samples until the input is released or the
// accumulated duration reaches max, whichever comes first, and returns
// the time held since the call. The orchestrator adds this to Threshold
// to decide whether the hold reached the factory-reset tier.
func (d *Detector) HoldDuration(ctx context.Context, max time.Duration) (time.Duration, error) {
	start := d.clock.Now()

	for {
		if err := d.clock.Sleep(ctx, d.PollInterval); err != nil {
			return d.clock.Now().Sub(start), err
		}

		asserted, err := d.sampler.Sample()
		if err != nil {
			return d.clock.Now().Sub(start), fmt.Errorf("failed to sample reset input: %w", err)
		}

		held := d.clock.Now().Sub(start)
		if !asserted || held >= max {
			return held, nil
		}
	}
}
