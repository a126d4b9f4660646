package session

import (
	"context"
	"fmt"

	"github.com/cjeanneret/SafeDial/internal/debug"
	"github.com/cjeanneret/SafeDial/internal/logic/dial"
	"github.com/cjeanneret/SafeDial/internal/logic/rotation"
)

// Source supplies input lines in order. *bufio.Scanner satisfies it.
type Source interface {
	Scan() bool
	Text() string
	Err() error
}

// Step is the outcome of one applied rotation.
type Step struct {
	Index     int // 0-based line offset in the input
	From      int
	Rotation  rotation.Rotation
	Position  int
	Crossings int
}

// Observer is notified of every step, in input order.
type Observer interface {
	Observe(Step) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Step) error

func (f ObserverFunc) Observe(s Step) error { return f(s) }

// Totals aggregates a run.
type Totals struct {
	Rotations     int
	ZeroStops     int
	ZeroCrossings int
	Skipped       int
}

// Options controls how a run treats bad input.
type Options struct {
	// SkipInvalid logs and skips unparsable lines instead of aborting.
	SkipInvalid bool
}

// LineError is a parse failure tied to its input line.
type LineError struct {
	Line int // 1-based
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d (%q): %v", e.Line, e.Text, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Session drives a dial through a sequence of rotations.
type Session struct {
	dial      *dial.Dial
	opts      Options
	observers []Observer
	totals    Totals
}

func New(d *dial.Dial, opts Options, observers ...Observer) *Session {
	return &Session{
		dial:      d,
		opts:      opts,
		observers: observers,
	}
}

// Totals returns the tallies accumulated so far.
func (s *Session) Totals() Totals {
	return s.totals
}

// Apply turns the dial for one rotation and records the result.
// Observers are not notified.
func (s *Session) Apply(index int, r rotation.Rotation) Step {
	from := s.dial.Position()
	crossings := s.dial.Turn(r)

	s.totals.Rotations++
	s.totals.ZeroCrossings += crossings
	if s.dial.AtZero() {
		s.totals.ZeroStops++
	}

	step := Step{
		Index:     index,
		From:      from,
		Rotation:  r,
		Position:  s.dial.Position(),
		Crossings: crossings,
	}
	debug.Turn(index, from, r, step.Position, crossings)
	return step
}

// Run reads every line of src, applies it and notifies the observers.
// It stops at the first read error, observer error or, unless
// SkipInvalid is set, parse error.
func (s *Session) Run(ctx context.Context, src Source) (Totals, error) {
	for index := 0; src.Scan(); index++ {
		select {
		case <-ctx.Done():
			return s.totals, ctx.Err()
		default:
		}

		line := src.Text()
		r, err := rotation.Parse(line)
		if err != nil {
			lerr := &LineError{Line: index + 1, Text: line, Err: err}
			if !s.opts.SkipInvalid {
				return s.totals, lerr
			}
			debug.Error(lerr)
			s.totals.Skipped++
			continue
		}

		step := s.Apply(index, r)
		for _, o := range s.observers {
			if err := o.Observe(step); err != nil {
				return s.totals, fmt.Errorf("step %d: %w", index, err)
			}
		}
	}
	if err := src.Err(); err != nil {
		return s.totals, fmt.Errorf("read input: %w", err)
	}

	debug.Totals(s.totals.Rotations, s.totals.ZeroStops, s.totals.ZeroCrossings, s.totals.Skipped)
	return s.totals, nil
}
