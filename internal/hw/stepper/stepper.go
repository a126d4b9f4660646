package stepper

import (
	"time"

	"github.com/cjeanneret/SafeDial/internal/debug"
	"github.com/cjeanneret/SafeDial/internal/hw/gpio"
)

// Config holds the wiring of the stepper that turns the dial knob.
type Config struct {
	StepPin   int
	DirPin    int
	EnablePin int           // A4988 ENABLE pin (BCM). 0 = not used. Active LOW (LOW=enabled).
	Invert    bool          // swap DIR levels when the knob is mounted reversed
	StepDelay time.Duration // delay per half-cycle of STEP pulse. Total step = 2*StepDelay.
}

// Stepper moves a stepper motor by signed microstep counts and keeps
// track of how far it has travelled.
type Stepper struct {
	gpio   gpio.Driver
	cfg    Config
	delay  time.Duration
	offset int64 // net microsteps since creation, positive = clockwise
}

// NewStepper creates a stepper on g. A zero StepDelay defaults to 1ms.
func NewStepper(g gpio.Driver, cfg Config) *Stepper {
	_ = g.SetupPin(cfg.StepPin, gpio.Output)
	_ = g.SetupPin(cfg.DirPin, gpio.Output)

	delay := cfg.StepDelay
	if delay <= 0 {
		delay = 1 * time.Millisecond
	}

	s := &Stepper{
		gpio:  g,
		cfg:   cfg,
		delay: delay,
	}

	// A4988 ENABLE: active LOW.
	if cfg.EnablePin > 0 {
		_ = g.SetupPin(cfg.EnablePin, gpio.Output)
		_ = g.WritePin(cfg.EnablePin, gpio.Low)
	}

	return s
}

// MoveSteps moves the motor by steps microsteps; negative is counter-clockwise.
func (s *Stepper) MoveSteps(steps int64) error {
	if steps == 0 {
		return nil
	}

	clockwise := steps > 0
	count := steps
	direction := "clockwise"
	if !clockwise {
		count = -steps
		direction = "counter-clockwise"
	}

	dirLevel := gpio.Level(clockwise != s.cfg.Invert)

	debug.Printf("Stepper: moving %d steps (%s) on pin %d", count, direction, s.cfg.StepPin)

	if err := s.gpio.WritePin(s.cfg.DirPin, dirLevel); err != nil {
		return err
	}

	for i := int64(0); i < count; i++ {
		if err := s.stepPulse(); err != nil {
			return err
		}
		if clockwise {
			s.offset++
		} else {
			s.offset--
		}
	}
	return nil
}

// Offset returns the net microsteps moved since creation.
func (s *Stepper) Offset() int64 {
	return s.offset
}

func (s *Stepper) stepPulse() error {
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
		return err
	}
	time.Sleep(s.delay)
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
		return err
	}
	time.Sleep(s.delay)
	return nil
}

// Enable turns on the motor driver (A4988 ENABLE=LOW) so the knob holds.
func (s *Stepper) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable releases the motor (A4988 ENABLE=HIGH); the knob turns freely.
func (s *Stepper) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}
