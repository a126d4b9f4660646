package rotation

import (
	"errors"
	"fmt"
	"strconv"
)

// Direction is the way the dial is turned.
type Direction int8

const (
	Left  Direction = -1
	Right Direction = 1
)

// Unit returns the signed multiplier of the direction (-1 or +1).
func (d Direction) Unit() int64 {
	return int64(d)
}

// Letter returns the input prefix for the direction.
func (d Direction) Letter() byte {
	if d == Left {
		return 'L'
	}
	return 'R'
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "Left"
	case Right:
		return "Right"
	}
	return fmt.Sprintf("Direction(%d)", int8(d))
}

// ErrIncorrectStartOfLine is returned when a line does not start with L or R.
var ErrIncorrectStartOfLine = errors.New("line must start with 'L' or 'R'")

// IntegerParseError reports a step count that is not an unsigned integer.
type IntegerParseError struct {
	Input string
	Err   error
}

func (e *IntegerParseError) Error() string {
	return fmt.Sprintf("invalid step count %q: %v", e.Input, e.Err)
}

func (e *IntegerParseError) Unwrap() error { return e.Err }

// Rotation is one requested turn of the dial.
// Steps may exceed a full revolution.
type Rotation struct {
	Direction Direction
	Steps     uint32
}

// Parse reads a rotation from a line such as "L50" or "R1220".
func Parse(line string) (Rotation, error) {
	if line == "" {
		return Rotation{}, ErrIncorrectStartOfLine
	}

	var dir Direction
	switch line[0] {
	case 'L':
		dir = Left
	case 'R':
		dir = Right
	default:
		return Rotation{}, ErrIncorrectStartOfLine
	}

	steps, err := strconv.ParseUint(line[1:], 10, 32)
	if err != nil {
		return Rotation{}, &IntegerParseError{Input: line[1:], Err: err}
	}

	return Rotation{Direction: dir, Steps: uint32(steps)}, nil
}

// Signed returns the displacement in clicks, negative for Left.
func (r Rotation) Signed() int64 {
	return int64(r.Steps) * r.Direction.Unit()
}

func (r Rotation) String() string {
	return string(r.Direction.Letter()) + strconv.FormatUint(uint64(r.Steps), 10)
}
