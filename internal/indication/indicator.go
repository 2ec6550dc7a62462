package indication

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/logging"
)

// Pattern timing
const (
	apBlinkPeriod = 1 * time.Second
	flashOn       = 100 * time.Millisecond
	flashGap      = 150 * time.Millisecond
	resetFlashOn  = 200 * time.Millisecond
)

// LEDSetter is the single output the indicator needs
type LEDSetter interface {
	SetLED(on bool) error
}

// Indicator renders cycle events as LED patterns. Flash methods block
// for the pattern's duration; they run at points in the cycle where a
// few hundred milliseconds do not matter.
type Indicator struct {
	led   LEDSetter
	sleep func(time.Duration)

	mu        sync.Mutex
	stopBlink chan struct{}
}

// New builds an indicator over an LED
func New(led LEDSetter) *Indicator {
	return &Indicator{led: led, sleep: time.Sleep}
}

// APMode starts or stops the slow configuration-mode blink
func (i *Indicator) APMode(on bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if on {
		if i.stopBlink != nil {
			return
		}
		i.stopBlink = make(chan struct{})
		go i.blink(i.stopBlink)
		return
	}

	if i.stopBlink != nil {
		close(i.stopBlink)
		i.stopBlink = nil
	}
}

func (i *Indicator) blink(stop <-chan struct{}) {
	ticker := time.NewTicker(apBlinkPeriod / 2)
	defer ticker.Stop()

	on := true
	i.set(true)
	for {
		select {
		case <-ticker.C:
			on = !on
			i.set(on)
		case <-stop:
			i.set(false)
			return
		}
	}
}

// PublishOK flashes once after a successful data publish
func (i *Indicator) PublishOK() {
	i.flash(1, flashOn)
}

// CycleFailed flashes twice when a cycle is skipped or a publish fails
func (i *Indicator) CycleFailed() {
	i.flash(2, flashOn)
}

// FactoryReset flashes three long pulses before the wipe reboot
func (i *Indicator) FactoryReset() {
	i.flash(3, resetFlashOn)
}

func (i *Indicator) flash(count int, on time.Duration) {
	for n := 0; n < count; n++ {
		if n > 0 {
			i.sleep(flashGap)
		}
		i.set(true)
		i.sleep(on)
		i.set(false)
	}
}

func (i *Indicator) set(on bool) {
	if err := i.led.SetLED(on); err != nil {
		logging.Debug("LED write failed", zap.Error(err))
	}
}
