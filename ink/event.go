// seehuhn.de/go/board - PDF page and annotation rendering
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package ink describes freehand annotation strokes and paints them onto
// surfaces.
package ink

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"seehuhn.de/go/geom/vec"
)

// ErrInvalidEvent is wrapped by all validation errors of this package.
var ErrInvalidEvent = errors.New("ink: invalid drawing event")

// Tool is the instrument a stroke was drawn with.
// The set of tools is closed: Tool is implemented by [Pen],
// [Highlighter] and [Eraser] only. Pointers to these types are rejected
// by [DrawingEvent.Validate].
type Tool interface {
	isTool()
}

// Pen draws opaque ink with round ends.
type Pen struct {
	Color color.NRGBA
	Width float64
}

// Highlighter draws translucent ink with square ends.
type Highlighter struct {
	Color color.NRGBA
	Width float64
}

// Eraser removes ink under its path.
type Eraser struct {
	Width float64
}

func (Pen) isTool()         {}
func (Highlighter) isTool() {}
func (Eraser) isTool()      {}

// toolWidth returns the line width of t in user-space units.
// The second return value is false if t is not one of the tool values
// of this package.
func toolWidth(t Tool) (float64, bool) {
	switch t := t.(type) {
	case Pen:
		return t.Width, true
	case Highlighter:
		return t.Width, true
	case Eraser:
		return t.Width, true
	}
	return 0, false
}

// DrawingEvent is one completed stroke.
type DrawingEvent struct {
	Tool   Tool
	Points []vec.Vec2

	// TimeDiff is the time since the previous stroke on the same page.
	TimeDiff time.Duration
}

// NewEvent returns a validated drawing event.
func NewEvent(tool Tool, points []vec.Vec2, timeDiff time.Duration) (DrawingEvent, error) {
	ev := DrawingEvent{Tool: tool, Points: points, TimeDiff: timeDiff}
	if err := ev.Validate(); err != nil {
		return DrawingEvent{}, err
	}
	return ev, nil
}

// Validate checks that the event can be replayed.
func (ev DrawingEvent) Validate() error {
	if ev.Tool == nil {
		return fmt.Errorf("%w: missing tool", ErrInvalidEvent)
	}
	w, ok := toolWidth(ev.Tool)
	if !ok {
		return fmt.Errorf("%w: unknown tool %T", ErrInvalidEvent, ev.Tool)
	}
	if !(w > 0) || math.IsInf(w, 0) {
		return fmt.Errorf("%w: line width %g", ErrInvalidEvent, w)
	}
	if len(ev.Points) == 0 {
		return fmt.Errorf("%w: no points", ErrInvalidEvent)
	}
	for i, p := range ev.Points {
		if !finite(p.X) || !finite(p.Y) {
			return fmt.Errorf("%w: point %d is not finite", ErrInvalidEvent, i)
		}
	}
	if ev.TimeDiff < 0 {
		return fmt.Errorf("%w: negative time difference", ErrInvalidEvent)
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Page holds the strokes of one document page, in drawing order.
type Page struct {
	Events []DrawingEvent
}

// Add validates ev and appends it to the page.
func (p *Page) Add(ev DrawingEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	p.Events = append(p.Events, ev)
	return nil
}
