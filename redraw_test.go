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

package board

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"slices"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/board/ink"
	"seehuhn.de/go/board/surface"
)

// recorder is a StrokeReplayer which remembers the first point of every
// stroke it is asked to paint.
type recorder struct {
	firsts []vec.Vec2
}

func (r *recorder) Paint(ctx *surface.Context, points []vec.Vec2, tool ink.Tool) {
	r.firsts = append(r.firsts, points[0])
}

// fill paints every pixel of s with c.
func fill(t *testing.T, s *surface.Surface, c color.RGBA) {
	t.Helper()
	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	draw.Draw(ctx.Image(), ctx.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	ctx.Release()
}

func stroke(t *testing.T, tool ink.Tool, pts ...vec.Vec2) ink.DrawingEvent {
	t.Helper()
	ev, err := ink.NewEvent(tool, pts, 0)
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

var red = color.RGBA{R: 255, A: 255}

func TestRedrawEmptyPage(t *testing.T) {
	for _, page := range []*ink.Page{nil, {}} {
		s := surface.New(10, 10)
		fill(t, s, red)
		rec := &recorder{}
		b := &Board{Replayer: rec}

		if err := b.Redraw(s, 1, page); err != nil {
			t.Fatal(err)
		}
		if len(rec.firsts) != 0 {
			t.Errorf("%d strokes painted, want 0", len(rec.firsts))
		}
		if !uniform(s.Snapshot(), color.RGBA{}) {
			t.Error("surface was not cleared")
		}
	}
}

func TestRedrawOrder(t *testing.T) {
	pen := ink.Pen{Color: color.NRGBA{A: 255}, Width: 1}
	var page ink.Page
	for _, x := range []float64{1, 2, 3} {
		if err := page.Add(stroke(t, pen, vec.Vec2{X: x, Y: x})); err != nil {
			t.Fatal(err)
		}
	}

	rec := &recorder{}
	b := &Board{Replayer: rec}
	if err := b.Redraw(surface.New(10, 10), 1, &page); err != nil {
		t.Fatal(err)
	}
	want := []vec.Vec2{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	if !slices.Equal(rec.firsts, want) {
		t.Errorf("painted %v, want %v", rec.firsts, want)
	}
}

// TestRedrawClearsZoomedArea checks that the cleared user-space rectangle
// is the surface size divided by the zoom factor.
func TestRedrawClearsZoomedArea(t *testing.T) {
	cases := []struct {
		zoom    float64
		cleared int // side of the cleared device square
	}{
		{2, 20},
		{4, 10},
		{0, 20}, // zoom 0 is treated as 1; the surface transform clips
	}
	for _, tc := range cases {
		s := surface.New(20, 20)
		s.SetTransform(matrix.Scale(2, 2))
		fill(t, s, red)

		if err := (&Board{Replayer: &recorder{}}).Redraw(s, tc.zoom, nil); err != nil {
			t.Fatal(err)
		}
		img := s.Snapshot()
		for y := range 20 {
			for x := range 20 {
				want := red
				if x < tc.cleared && y < tc.cleared {
					want = color.RGBA{}
				}
				if got := img.RGBAAt(x, y); got != want {
					t.Fatalf("zoom %g: pixel (%d,%d) is %v, want %v", tc.zoom, x, y, got, want)
				}
			}
		}
	}
}

func TestRedrawLastStrokeWins(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	var page ink.Page
	page.Add(stroke(t, ink.Pen{Color: blue, Width: 6}, vec.Vec2{X: 2, Y: 10}, vec.Vec2{X: 18, Y: 10}))
	page.Add(stroke(t, ink.Pen{Color: green, Width: 6}, vec.Vec2{X: 10, Y: 2}, vec.Vec2{X: 10, Y: 18}))

	s := surface.New(20, 20)
	if err := NewBoard().Redraw(s, 1, &page); err != nil {
		t.Fatal(err)
	}
	img := s.Snapshot()
	if got := img.RGBAAt(10, 10); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("crossing is %v, want green", got)
	}
	if got := img.RGBAAt(4, 10); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("first stroke is %v, want blue", got)
	}
}

func TestRedrawEraser(t *testing.T) {
	var page ink.Page
	page.Add(stroke(t, ink.Pen{Color: color.NRGBA{A: 255}, Width: 6}, vec.Vec2{X: 2, Y: 10}, vec.Vec2{X: 18, Y: 10}))
	page.Add(stroke(t, ink.Eraser{Width: 6}, vec.Vec2{X: 10, Y: 2}, vec.Vec2{X: 10, Y: 18}))

	s := surface.New(20, 20)
	if err := NewBoard().Redraw(s, 1, &page); err != nil {
		t.Fatal(err)
	}
	img := s.Snapshot()
	if got := img.RGBAAt(10, 10).A; got != 0 {
		t.Errorf("erased crossing has alpha %d", got)
	}
	if got := img.RGBAAt(4, 10).A; got != 255 {
		t.Errorf("pen stroke has alpha %d", got)
	}
}

func TestRedrawEmptySurface(t *testing.T) {
	err := NewBoard().Redraw(surface.New(0, 0), 1, nil)
	if !errors.Is(err, surface.ErrNoContext) {
		t.Errorf("got %v, want ErrNoContext", err)
	}
}
