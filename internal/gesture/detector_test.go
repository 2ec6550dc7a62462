package gesture

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeClock advances only when the detector sleeps
type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	c.sleeps++
	return nil
}

// scriptedSampler replays a fixed sequence of samples, then repeats the
// final value forever
type scriptedSampler struct {
	samples []bool
	errAt   int // sample index that returns an error; -1 for never
	calls   int
}

func (s *scriptedSampler) Sample() (bool, error) {
	i := s.calls
	s.calls++
	if s.errAt >= 0 && i == s.errAt {
		return false, errors.New("line read failed")
	}
	if i >= len(s.samples) {
		return s.samples[len(s.samples)-1], nil
	}
	return s.samples[i], nil
}

func newTestDetector(samples []bool, errAt int) (*Detector, *fakeClock, *scriptedSampler) {
	sampler := &scriptedSampler{samples: samples, errAt: errAt}
	clock := &fakeClock{now: time.Unix(1000, 0)}
	d := NewDetector(sampler)
	d.clock = clock
	return d, clock, sampler
}

// repeat builds a sample sequence of n copies of v
func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestObserveUnassertedReturnsImmediately(t *testing.T) {
	d, clock, sampler := newTestDetector([]bool{false}, -1)

	held, err := d.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if held {
		t.Error("Observe = true for unasserted input")
	}
	if clock.sleeps != 0 {
		t.Errorf("Observe slept %d times; an unpressed button must not delay boot", clock.sleeps)
	}
	if sampler.calls != 1 {
		t.Errorf("Observe sampled %d times, want 1", sampler.calls)
	}
}

func TestObserveFullHoldReturnsTrue(t *testing.T) {
	// Asserted forever: the hold completes at exactly Threshold
	d, clock, _ := newTestDetector([]bool{true}, -1)

	held, err := d.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !held {
		t.Error("Observe = false for a continuous hold")
	}

	wantPolls := int(d.Threshold / d.PollInterval)
	if clock.sleeps != wantPolls {
		t.Errorf("hold completed after %d polls, want %d", clock.sleeps, wantPolls)
	}
}

func TestObserveShortHoldThenReleaseReturnsFalse(t *testing.T) {
	// Held for threshold - one poll, then released for good
	polls := int(DefaultThreshold/DefaultPollInterval) - 1
	samples := append(repeat(true, polls), repeat(false, 8)...)
	d, _, _ := newTestDetector(samples, -1)

	held, err := d.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if held {
		t.Error("Observe = true for a hold shorter than the threshold")
	}
}

func TestObserveBounceReArmsTimer(t *testing.T) {
	// Held for nearly the threshold, one bounced sample, then a full
	// contiguous hold. The bounce must re-arm the timer, not abort.
	almost := int(DefaultThreshold/DefaultPollInterval) - 2
	full := int(DefaultThreshold/DefaultPollInterval) + 2

	samples := append(repeat(true, almost), false)
	samples = append(samples, repeat(true, full)...)
	d, _, _ := newTestDetector(samples, -1)

	held, err := d.Observe(context.Background())
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if !held {
		t.Error("Observe = false; a single bounce must re-arm the timer, not abort the check")
	}
}

func TestObserveSamplerErrorPropagates(t *testing.T) {
	d, _, _ := newTestDetector([]bool{true, true}, 2)

	if _, err := d.Observe(context.Background()); err == nil {
		t.Error("Observe did not surface the sampler error")
	}
}

func TestObserveContextCancellation(t *testing.T) {
	d, _, _ := newTestDetector([]bool{true}, -1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Observe(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Observe error = %v, want context.Canceled", err)
	}
}

func TestHoldDurationUntilRelease(t *testing.T) {
	// Held for 10 more polls after Observe, then released
	samples := append(repeat(true, 10), false)
	d, _, _ := newTestDetector(samples, -1)

	held, err := d.HoldDuration(context.Background(), time.Minute)
	if err != nil {
		t.Fatalf("HoldDuration: %v", err)
	}

	want := 11 * d.PollInterval // release observed on the 11th sample
	if held != want {
		t.Errorf("HoldDuration = %v, want %v", held, want)
	}
}

func TestHoldDurationCapsAtMax(t *testing.T) {
	d, _, _ := newTestDetector([]bool{true}, -1)

	max := 20 * d.PollInterval
	held, err := d.HoldDuration(context.Background(), max)
	if err != nil {
		t.Fatalf("HoldDuration: %v", err)
	}
	if held < max {
		t.Errorf("HoldDuration = %v, want at least %v", held, max)
	}
	if held > max+d.PollInterval {
		t.Errorf("HoldDuration = %v overshot max %v by more than one poll", held, max)
	}
}
