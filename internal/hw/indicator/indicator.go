package indicator

import (
	"time"

	"github.com/cjeanneret/SafeDial/internal/debug"
	"github.com/cjeanneret/SafeDial/internal/hw/gpio"
)

// Indicator signals zero crossings to the outside world.
type Indicator interface {
	// Blink signals n events. n <= 0 does nothing.
	Blink(n int) error
}

// Pulse is an Indicator on a single active-HIGH GPIO line (LED or buzzer).
// Each event is HIGH for the pulse width then LOW for the same time.
type Pulse struct {
	gpio  gpio.Driver
	pin   int
	width time.Duration
	limit int
}

// NewPulse configures pin as an output, initially LOW.
// limit caps the blinks emitted for one call; 0 means no cap.
func NewPulse(g gpio.Driver, pin int, width time.Duration, limit int) *Pulse {
	_ = g.SetupPin(pin, gpio.Output)
	_ = g.WritePin(pin, gpio.Low)

	return &Pulse{
		gpio:  g,
		pin:   pin,
		width: width,
		limit: limit,
	}
}

func (p *Pulse) Blink(n int) error {
	if n <= 0 {
		return nil
	}
	if p.limit > 0 && n > p.limit {
		debug.Verbose("Indicator: capping %d blinks to %d", n, p.limit)
		n = p.limit
	}

	debug.Printf("Indicator: %d blinks on pin %d", n, p.pin)
	for i := 0; i < n; i++ {
		if err := p.gpio.WritePin(p.pin, gpio.High); err != nil {
			return err
		}
		time.Sleep(p.width)
		if err := p.gpio.WritePin(p.pin, gpio.Low); err != nil {
			return err
		}
		time.Sleep(p.width)
	}
	return nil
}

// None is an Indicator that does nothing.
type None struct{}

func (None) Blink(int) error { return nil }
