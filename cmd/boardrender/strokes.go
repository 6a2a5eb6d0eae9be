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

package main

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"time"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/board/ink"
)

// strokeRecord is the JSON form of a drawing event, for example
//
//	{"tool": "pen", "color": "#1f77b4", "width": 2, "points": [[10, 10], [50, 60]]}
type strokeRecord struct {
	Tool     string       `json:"tool"`
	Color    string       `json:"color"`
	Width    float64      `json:"width"`
	Points   [][2]float64 `json:"points"`
	TimeDiff string       `json:"dt,omitempty"`
}

// loadStrokes reads a JSON array of strokes, in PDF points with the
// origin at the top left of the page.
func loadStrokes(fname string) (*ink.Page, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	var records []strokeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}

	page := &ink.Page{}
	for i, rec := range records {
		ev, err := rec.event()
		if err == nil {
			err = page.Add(ev)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: stroke %d: %w", fname, i, err)
		}
	}
	return page, nil
}

func (rec strokeRecord) event() (ink.DrawingEvent, error) {
	var ev ink.DrawingEvent

	col := color.NRGBA{A: 255}
	if rec.Color != "" {
		var err error
		col, err = parseColor(rec.Color)
		if err != nil {
			return ev, err
		}
	}
	switch rec.Tool {
	case "pen":
		ev.Tool = ink.Pen{Color: col, Width: rec.Width}
	case "highlighter":
		ev.Tool = ink.Highlighter{Color: col, Width: rec.Width}
	case "eraser":
		ev.Tool = ink.Eraser{Width: rec.Width}
	default:
		return ev, fmt.Errorf("unknown tool %q", rec.Tool)
	}

	for _, p := range rec.Points {
		ev.Points = append(ev.Points, vec.Vec2{X: p[0], Y: p[1]})
	}
	if rec.TimeDiff != "" {
		dt, err := time.ParseDuration(rec.TimeDiff)
		if err != nil {
			return ev, err
		}
		ev.TimeDiff = dt
	}
	return ev, nil
}

// parseColor decodes colours of the form #rrggbb or #rrggbbaa.
func parseColor(s string) (color.NRGBA, error) {
	var c color.NRGBA
	c.A = 255
	var n int
	var err error
	switch len(s) {
	case 7:
		n, err = fmt.Sscanf(s, "#%2x%2x%2x", &c.R, &c.G, &c.B)
	case 9:
		n, err = fmt.Sscanf(s, "#%2x%2x%2x%2x", &c.R, &c.G, &c.B, &c.A)
	}
	if err != nil || n < 3 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return c, nil
}
