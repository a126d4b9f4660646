// Package report renders dial steps and run totals.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/cjeanneret/SafeDial/internal/logic/session"
)

// Writer is a session observer that can also print the final totals.
type Writer interface {
	session.Observer
	Summary(session.Totals) error
}

// Formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New returns the writer for format.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewText(w), nil
	case FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("unknown report format %q (want %s or %s)", format, FormatText, FormatJSON)
	}
}

// Text prints one human readable sentence per step.
type Text struct {
	w io.Writer
}

func NewText(w io.Writer) *Text {
	return &Text{w: w}
}

func (t *Text) Observe(s session.Step) error {
	_, err := fmt.Fprintf(t.w,
		"Step %d, turn dial from %d to the %s by %d clicks, ends up at %d crossing zero %d times.\n",
		s.Index,
		s.From,
		strings.ToLower(s.Rotation.Direction.String()),
		s.Rotation.Steps,
		s.Position,
		s.Crossings,
	)
	return err
}

func (t *Text) Summary(tot session.Totals) error {
	if tot.Skipped > 0 {
		if _, err := fmt.Fprintf(t.w, "Skipped %s invalid lines\n", humanize.Comma(int64(tot.Skipped))); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(t.w, "Zero-stopping count was %s\nZero-crossing count was %s\n",
		humanize.Comma(int64(tot.ZeroStops)),
		humanize.Comma(int64(tot.ZeroCrossings)),
	)
	return err
}

// StepRecord is the JSON form of a step.
type StepRecord struct {
	Type      string `json:"type"`
	Index     int    `json:"index"`
	From      int    `json:"from"`
	Direction string `json:"direction"`
	Clicks    uint32 `json:"clicks"`
	Position  int    `json:"position"`
	Crossings int    `json:"crossings"`
}

// SummaryRecord is the JSON form of the run totals.
type SummaryRecord struct {
	Type          string `json:"type"`
	Rotations     int    `json:"rotations"`
	ZeroStops     int    `json:"zero_stops"`
	ZeroCrossings int    `json:"zero_crossings"`
	Skipped       int    `json:"skipped"`
}

// JSON writes JSON Lines: one "step" object per turn then one "summary".
type JSON struct {
	enc *json.Encoder
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

func (j *JSON) Observe(s session.Step) error {
	return j.enc.Encode(StepRecord{
		Type:      "step",
		Index:     s.Index,
		From:      s.From,
		Direction: strings.ToLower(s.Rotation.Direction.String()),
		Clicks:    s.Rotation.Steps,
		Position:  s.Position,
		Crossings: s.Crossings,
	})
}

func (j *JSON) Summary(tot session.Totals) error {
	return j.enc.Encode(SummaryRecord{
		Type:          "summary",
		Rotations:     tot.Rotations,
		ZeroStops:     tot.ZeroStops,
		ZeroCrossings: tot.ZeroCrossings,
		Skipped:       tot.Skipped,
	})
}
