package dial

import (
	"fmt"

	"github.com/cjeanneret/SafeDial/internal/logic/rotation"
)

const (
	// Positions is the number of clicks in one revolution (0..99).
	Positions = 100
	// DefaultStart is where a new dial points when nothing else is configured.
	DefaultStart = 50
)

// Dial holds the position of a circular dial with Positions clicks.
type Dial struct {
	position int
}

// New creates a dial pointing at start, which must be in [0, Positions-1].
func New(start int) (*Dial, error) {
	if start < 0 || start >= Positions {
		return nil, fmt.Errorf("start position must be between 0 and %d, got %d", Positions-1, start)
	}
	return &Dial{position: start}, nil
}

// Default returns a dial at DefaultStart.
func Default() *Dial {
	return &Dial{position: DefaultStart}
}

// Position returns the current click the dial points at.
func (d *Dial) Position() int {
	return d.position
}

// AtZero reports whether the dial rests on 0.
func (d *Dial) AtZero() bool {
	return d.position == 0
}

// Turn applies r and returns how many times the pointer passed through
// or landed on 0 while doing so.
//
// Each full revolution counts once. The partial remainder counts once more
// if it wraps past 0 or ends on it, with two exceptions: leaving 0 to the
// left is not a crossing, and a right wrap ending exactly on 0 is only
// counted by the landing rule.
func (d *Dial) Turn(r rotation.Rotation) int {
	steps := r.Signed()

	fullRevs := steps / Positions
	if fullRevs < 0 {
		fullRevs = -fullRevs
	}
	crossings := int(fullRevs)
	rem := steps % Positions

	next := int64(d.position) + rem

	if next < 0 {
		next += Positions
		if d.position != 0 {
			crossings++
		}
	}
	if next > Positions-1 {
		next -= Positions
		if next != 0 {
			crossings++
		}
	}

	if next == 0 && rem != 0 {
		crossings++
	}

	if next < 0 || next >= Positions {
		panic(fmt.Sprintf("dial: position %d out of range after %s from %d", next, r, d.position))
	}
	d.position = int(next)

	return crossings
}
