package motion

import (
	"fmt"
	"math"

	"github.com/cjeanneret/SafeDial/internal/debug"
	"github.com/cjeanneret/SafeDial/internal/hw/indicator"
	"github.com/cjeanneret/SafeDial/internal/logic/dial"
	"github.com/cjeanneret/SafeDial/internal/logic/session"
)

// Mover is the part of a stepper the controller needs.
type Mover interface {
	MoveSteps(steps int64) error
	Enable() error
	Disable() error
}

// ClickCalculator converts dial clicks to motor microsteps.
type ClickCalculator struct {
	microstepsPerClick float64
}

// NewClickCalculator builds a calculator for a motor with stepsPerRev full
// steps and the given microstepping, coupled 1:1 to the dial.
func NewClickCalculator(stepsPerRev, microstepping int) (*ClickCalculator, error) {
	if stepsPerRev <= 0 || microstepping <= 0 {
		return nil, fmt.Errorf("steps_per_rev and microstepping must be > 0, got %d and %d", stepsPerRev, microstepping)
	}
	return &ClickCalculator{
		microstepsPerClick: float64(stepsPerRev*microstepping) / dial.Positions,
	}, nil
}

// MicrostepsAt returns the absolute microstep offset for a click offset.
// Rounding is done on the absolute value so repeated moves never drift.
func (c *ClickCalculator) MicrostepsAt(clicks int64) int64 {
	return int64(math.Round(float64(clicks) * c.microstepsPerClick))
}

// Controller mirrors dial turns on a physical knob and signals crossings.
// It is a session.Observer.
type Controller struct {
	motor     Mover
	calc      *ClickCalculator
	indicator indicator.Indicator
	clicks    int64 // net clicks applied so far
}

func NewController(motor Mover, calc *ClickCalculator, ind indicator.Indicator) *Controller {
	if ind == nil {
		ind = indicator.None{}
	}
	return &Controller{
		motor:     motor,
		calc:      calc,
		indicator: ind,
	}
}

// Observe moves the knob by the step's rotation, then blinks once per crossing.
func (c *Controller) Observe(s session.Step) error {
	target := c.clicks + s.Rotation.Signed()
	delta := c.calc.MicrostepsAt(target) - c.calc.MicrostepsAt(c.clicks)

	debug.Verbose("Motion: %s -> %d microsteps", s.Rotation, delta)
	if err := c.motor.MoveSteps(delta); err != nil {
		return fmt.Errorf("move knob: %w", err)
	}
	c.clicks = target

	if err := c.indicator.Blink(s.Crossings); err != nil {
		return fmt.Errorf("indicator: %w", err)
	}
	return nil
}

// Clicks returns the net clicks mirrored so far.
func (c *Controller) Clicks() int64 {
	return c.clicks
}

func (c *Controller) EnableMotor() error {
	return c.motor.Enable()
}

func (c *Controller) DisableMotor() error {
	return c.motor.Disable()
}
