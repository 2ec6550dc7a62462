package gpio

import (
	"errors"
	"fmt"

	gpiod "github.com/warthog618/go-gpiocdev"

	"github.com/sensdot/sensdot/internal/profile"
)

// ErrDisabled is returned by Open when the profile disables GPIO
var ErrDisabled = errors.New("gpio disabled in hardware profile")

// ErrNoPIR is returned by MotionSample when the profile has no PIR line
var ErrNoPIR = errors.New("no pir line configured")

// Board holds the requested lines for the life of the process. The
// button line doubles as the gesture sampler.
type Board struct {
	chip   *gpiod.Chip
	button *gpiod.Line
	led    *gpiod.Line
	pir    *gpiod.Line // nil unless the profile enables the PIR sensor
	prof   profile.GPIOProfile
}

// Open requests the button and LED lines described by the profile.
// The button is pulled up (pressed reads low on the reference board);
// the LED starts off.
func Open(p profile.GPIOProfile) (*Board, error) {
	if !p.Enabled {
		return nil, ErrDisabled
	}

	chip, err := gpiod.NewChip(p.Chip)
	if err != nil {
		return nil, fmt.Errorf("failed to open gpio chip %s: %w", p.Chip, err)
	}

	button, err := chip.RequestLine(p.ButtonLine, gpiod.AsInput, gpiod.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("failed to request button line %d: %w", p.ButtonLine, err)
	}

	led, err := chip.RequestLine(p.LEDLine, gpiod.AsOutput(levelFor(false, p.LEDActiveLow)))
	if err != nil {
		button.Close()
		chip.Close()
		return nil, fmt.Errorf("failed to request led line %d: %w", p.LEDLine, err)
	}

	var pir *gpiod.Line
	if p.PIREnabled {
		pir, err = chip.RequestLine(p.PIRLine, gpiod.AsInput, gpiod.WithPullDown)
		if err != nil {
			led.Close()
			button.Close()
			chip.Close()
			return nil, fmt.Errorf("failed to request pir line %d: %w", p.PIRLine, err)
		}
	}

	return &Board{chip: chip, button: button, led: led, pir: pir, prof: p}, nil
}

// Sample reads the button once, reporting whether it is pressed.
// Implements the gesture sampler contract.
func (b *Board) Sample() (bool, error) {
	raw, err := b.button.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read button line: %w", err)
	}
	return pressed(raw, b.prof.ButtonActiveLow), nil
}

// MotionSample reads the PIR line once. Motion reads high; the sensor
// is wired with a pull-down.
func (b *Board) MotionSample() (bool, error) {
	if b.pir == nil {
		return false, ErrNoPIR
	}
	raw, err := b.pir.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read pir line: %w", err)
	}
	return raw != 0, nil
}

// SetLED drives the status LED
func (b *Board) SetLED(on bool) error {
	if err := b.led.SetValue(levelFor(on, b.prof.LEDActiveLow)); err != nil {
		return fmt.Errorf("failed to set led line: %w", err)
	}
	return nil
}

// Close releases the lines and the chip. The LED is turned off first so
// the node never sleeps with the LED lit.
func (b *Board) Close() error {
	var errs []error
	if err := b.led.SetValue(levelFor(false, b.prof.LEDActiveLow)); err != nil {
		errs = append(errs, err)
	}
	if err := b.led.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := b.button.Close(); err != nil {
		errs = append(errs, err)
	}
	if b.pir != nil {
		if err := b.pir.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := b.chip.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// pressed maps a raw line value to the logical button state
func pressed(raw int, activeLow bool) bool {
	if activeLow {
		return raw == 0
	}
	return raw != 0
}

// levelFor maps a logical on/off to the raw line value
func levelFor(on, activeLow bool) int {
	if on != activeLow {
		return 1
	}
	return 0
}
