package power

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/logging"
	"github.com/sensdot/sensdot/internal/netconn"
)

// minSuspend is the shortest interval worth a suspend round-trip. The
// board takes a second or two to suspend and resume, so very short
// sleeps run in-process regardless of the profile.
const minSuspend = 5 * time.Second

// motionPollInterval paces the PIR checks while sleeping in-process
const motionPollInterval = 500 * time.Millisecond

// Manager suspends and restarts the node via system tooling
type Manager struct {
	runner netconn.Runner

	// useRTCWake selects suspend-to-RAM; false means in-process sleep
	useRTCWake bool

	// sleep is injectable for tests of the in-process path
	sleep func(ctx context.Context, d time.Duration) error

	// motionSample, when set, lets an in-process sleep end early on PIR
	// activity. Wakes are spaced by motionMinInterval.
	motionSample      func() (bool, error)
	motionMinInterval time.Duration
	motionPoll        time.Duration
	lastMotionWake    time.Time
}

// New builds a manager. useRTCWake mirrors the profile's power section.
func New(runner netconn.Runner, useRTCWake bool) *Manager {
	return &Manager{
		runner:     runner,
		useRTCWake: useRTCWake,
		sleep:      sleepContext,
	}
}

// WakeOnMotion arms the PIR line as a wake source for in-process
// sleeps, ending a sleep early on activity at most once per
// minInterval. Suspend-to-RAM cannot poll the line; boards that want
// motion wake run with rtcwake disabled.
func (m *Manager) WakeOnMotion(sample func() (bool, error), minInterval time.Duration) {
	m.motionSample = sample
	m.motionMinInterval = minInterval
	if m.motionPoll == 0 {
		m.motionPoll = motionPollInterval
	}
}

// DeepSleep blocks for d: suspend-to-RAM when the profile allows it and
// the interval is long enough, in-process otherwise. A failed suspend
// degrades to the in-process sleep so the duty cycle holds.
func (m *Manager) DeepSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid sleep duration %v", d)
	}

	if m.useRTCWake && d >= minSuspend {
		seconds := int64(d.Round(time.Second).Seconds())
		_, err := m.runner.Run(ctx, "rtcwake", "-m", "mem", "-s", strconv.FormatInt(seconds, 10))
		if err == nil {
			// rtcwake returns after resume; the sleep is over
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logging.Warn("Suspend failed, sleeping in-process",
			zap.Duration("duration", d),
			zap.Error(err),
		)
	}

	if m.motionSample != nil {
		return m.sleepWatchingMotion(ctx, d)
	}
	return m.sleep(ctx, d)
}

// sleepWatchingMotion sleeps in-process while polling the PIR line.
// Gated motion ends the sleep early so the next cycle reports it.
func (m *Manager) sleepWatchingMotion(ctx context.Context, d time.Duration) error {
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(m.motionPoll)
	defer ticker.Stop()

	for {
		select {
		case <-deadline.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			asserted, err := m.motionSample()
			if err != nil {
				logging.Debug("PIR sample failed during sleep", zap.Error(err))
				continue
			}
			if !asserted {
				continue
			}
			now := time.Now()
			if !m.lastMotionWake.IsZero() && now.Sub(m.lastMotionWake) < m.motionMinInterval {
				continue
			}
			m.lastMotionWake = now
			logging.Info("Motion detected, ending sleep early",
				zap.Duration("requested", d),
			)
			return nil
		}
	}
}

// Reboot restarts the node via the init system
func (m *Manager) Reboot(ctx context.Context) error {
	logging.Info("Rebooting")
	if _, err := m.runner.Run(ctx, "systemctl", "reboot"); err != nil {
		return fmt.Errorf("failed to reboot: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
