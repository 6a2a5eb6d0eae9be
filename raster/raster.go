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

// Package raster converts filled outlines into anti-aliased pixel coverage.
//
// Coverage is computed exactly from the signed area of the outline within
// each pixel, using the nonzero winding rule. Annotation strokes are drawn
// as a union of same-orientation polygons, so nonzero filling paints every
// overlapping region exactly once.
package raster

import (
	"cmp"
	"math"
	"slices"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// DefaultFlatness is the curve flattening tolerance in device pixels.
const DefaultFlatness = 0.25

// horizontal is the smallest vertical extent for which an edge still
// contributes coverage.
const horizontal = 1e-10

// edge is a line segment in device space, stored with y0 < y1.
type edge struct {
	x0, y0 float64
	x1, y1 float64
	dxdy   float64
	dir    float32 // +1 if the original segment pointed down, -1 otherwise
}

// Rasteriser computes nonzero-winding coverage for paths.
// A Rasteriser reuses its buffers between calls and is not safe for
// concurrent use.
type Rasteriser struct {
	// CTM maps user space to device space.
	CTM matrix.Matrix

	// Clip restricts output to this integer-aligned device rectangle.
	Clip rect.Rect

	// Flatness is the curve flattening tolerance in device pixels.
	Flatness float64

	edges  []edge
	active []int
	cover  []float32
	area   []float32

	bboxEmpty    bool
	bxMin, bxMax float64
	byMin, byMax float64
}

// New returns a Rasteriser for the given clip rectangle with an identity
// transformation.
func New(clip rect.Rect) *Rasteriser {
	return &Rasteriser{
		CTM:      matrix.Identity,
		Clip:     clip,
		Flatness: DefaultFlatness,
	}
}

// Reset changes the clip rectangle and restores the identity CTM and the
// default flatness. Buffers are kept.
func (r *Rasteriser) Reset(clip rect.Rect) {
	r.CTM = matrix.Identity
	r.Clip = clip
	r.Flatness = DefaultFlatness
}

// Fill fills p using the nonzero winding rule. Open subpaths are closed
// implicitly. The emit callback receives one row of coverage values in
// [0, 1] at a time, starting at device column xMin. The coverage slice is
// only valid for the duration of the call.
func (r *Rasteriser) Fill(p *path.Data, emit func(y, xMin int, coverage []float32)) {
	xMin, xMax, yMin, yMax, ok := r.collect(p)
	if !ok {
		return
	}
	r.scan(xMin, xMax, yMin, yMax, emit)
}

// collect walks the path and builds the device-space edge list.
// The returned bounding box is clamped to the clip rectangle.
func (r *Rasteriser) collect(p *path.Data) (xMin, xMax, yMin, yMax int, ok bool) {
	r.edges = r.edges[:0]
	r.bboxEmpty = true

	var cur, start vec.Vec2
	open := false
	k := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			if open && cur != start {
				r.addEdge(cur, start)
			}
			cur = p.Coords[k]
			start = cur
			open = true
			k++
		case path.CmdLineTo:
			r.addEdge(cur, p.Coords[k])
			cur = p.Coords[k]
			k++
		case path.CmdQuadTo:
			r.flatten(cur, p.Coords[k:k+2])
			cur = p.Coords[k+1]
			k += 2
		case path.CmdCubeTo:
			r.flatten(cur, p.Coords[k:k+3])
			cur = p.Coords[k+2]
			k += 3
		case path.CmdClose:
			if cur != start {
				r.addEdge(cur, start)
			}
			cur = start
			open = false
		}
	}
	if open && cur != start {
		r.addEdge(cur, start)
	}

	if len(r.edges) == 0 {
		return 0, 0, 0, 0, false
	}

	xMin = max(int(math.Floor(r.bxMin)), int(r.Clip.LLx))
	xMax = min(int(math.Floor(r.bxMax))+1, int(r.Clip.URx))
	yMin = max(int(math.Floor(r.byMin)), int(r.Clip.LLy))
	yMax = min(int(math.Floor(r.byMax))+1, int(r.Clip.URy))
	if xMin >= xMax || yMin >= yMax {
		return 0, 0, 0, 0, false
	}
	return xMin, xMax, yMin, yMax, true
}

// flatten approximates a quadratic (two control points) or cubic (three
// control points) Bézier curve starting at p0 by line segments.
func (r *Rasteriser) flatten(p0 vec.Vec2, ctrl []vec.Vec2) {
	var dev float64
	if len(ctrl) == 2 {
		d := p0.Sub(ctrl[0].Mul(2)).Add(ctrl[1])
		dev = r.linear(d).Length() / 4
	} else {
		d1 := p0.Sub(ctrl[0].Mul(2)).Add(ctrl[1])
		d2 := ctrl[0].Sub(ctrl[1].Mul(2)).Add(ctrl[2])
		dev = 0.75 * max(r.linear(d1).Length(), r.linear(d2).Length())
	}
	n := 1
	if dev > r.Flatness {
		n = int(math.Ceil(math.Sqrt(dev / r.Flatness)))
	}

	prev := p0
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		s := 1 - t
		var pt vec.Vec2
		if len(ctrl) == 2 {
			pt = p0.Mul(s * s).Add(ctrl[0].Mul(2 * s * t)).Add(ctrl[1].Mul(t * t))
		} else {
			pt = p0.Mul(s * s * s).
				Add(ctrl[0].Mul(3 * s * s * t)).
				Add(ctrl[1].Mul(3 * s * t * t)).
				Add(ctrl[2].Mul(t * t * t))
		}
		r.addEdge(prev, pt)
		prev = pt
	}
}

// linear applies the 2×2 part of the CTM to v.
func (r *Rasteriser) linear(v vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: r.CTM[0]*v.X + r.CTM[2]*v.Y,
		Y: r.CTM[1]*v.X + r.CTM[3]*v.Y,
	}
}

// addEdge transforms a user-space segment to device space and records it.
func (r *Rasteriser) addEdge(a, b vec.Vec2) {
	m := r.CTM
	x0 := m[0]*a.X + m[2]*a.Y + m[4]
	y0 := m[1]*a.X + m[3]*a.Y + m[5]
	x1 := m[0]*b.X + m[2]*b.Y + m[4]
	y1 := m[1]*b.X + m[3]*b.Y + m[5]

	if math.Abs(y1-y0) < horizontal {
		return
	}

	var dir float32 = 1
	if y1 < y0 {
		x0, y0, x1, y1 = x1, y1, x0, y0
		dir = -1
	}
	r.edges = append(r.edges, edge{
		x0: x0, y0: y0,
		x1: x1, y1: y1,
		dxdy: (x1 - x0) / (y1 - y0),
		dir:  dir,
	})

	if r.bboxEmpty {
		r.bxMin, r.bxMax = min(x0, x1), max(x0, x1)
		r.byMin, r.byMax = y0, y1
		r.bboxEmpty = false
		return
	}
	r.bxMin = min(r.bxMin, x0, x1)
	r.bxMax = max(r.bxMax, x0, x1)
	r.byMin = min(r.byMin, y0)
	r.byMax = max(r.byMax, y1)
}

// Coverage model: for every pixel of a scanline, cover[i] holds the signed
// vertical extent of all edge pieces inside column i and area[i] the same
// extent weighted by the fraction of the pixel to the right of the piece.
// Integrating from the left, the coverage of pixel i is
//
//	sum(cover[0:i]) + area[i]
//
// clamped to [0, 1] after taking the absolute value.

// scan runs the active edge list over all scanlines of the bounding box.
func (r *Rasteriser) scan(xMin, xMax, yMin, yMax int, emit func(y, xMin int, coverage []float32)) {
	width := xMax - xMin
	r.cover = slices.Grow(r.cover[:0], width)[:width]
	r.area = slices.Grow(r.area[:0], width)[:width]

	slices.SortFunc(r.edges, func(a, b edge) int {
		return cmp.Compare(a.y0, b.y0)
	})

	r.active = r.active[:0]
	next := 0
	for y := yMin; y < yMax; y++ {
		top := float64(y)
		bottom := float64(y + 1)

		for next < len(r.edges) && r.edges[next].y0 < bottom {
			r.active = append(r.active, next)
			next++
		}

		clear(r.cover)
		clear(r.area)
		touched := false
		for i := 0; i < len(r.active); {
			e := &r.edges[r.active[i]]
			if e.y1 <= top {
				last := len(r.active) - 1
				r.active[i] = r.active[last]
				r.active = r.active[:last]
				continue
			}
			if r.accumulate(e, top, bottom, xMin, xMax) {
				touched = true
			}
			i++
		}
		if !touched {
			continue
		}

		integrate(r.cover, r.area)
		if row, off := trim(r.cover); row != nil {
			emit(y, xMin+off, row)
		}
	}
}

// accumulate adds the part of e between the scanline boundaries top and
// bottom to the cover and area buffers. It reports whether anything was
// added.
func (r *Rasteriser) accumulate(e *edge, top, bottom float64, xMin, xMax int) bool {
	yTop := max(top, e.y0)
	yBot := min(bottom, e.y1)
	if yBot <= yTop {
		return false
	}

	xa := e.x0 + e.dxdy*(yTop-e.y0)
	xb := e.x0 + e.dxdy*(yBot-e.y0)
	if xa > xb {
		xa, xb = xb, xa
	}
	colA := int(math.Floor(xa))
	colB := int(math.Floor(xb))

	if colA == colB {
		r.deposit(colA, e.dir*float32(yBot-yTop), (xa+xb)/2, xMin, xMax)
		return true
	}

	// The piece crosses several columns. Its height inside a column is
	// proportional to its horizontal extent there.
	dydx := 1 / math.Abs(e.dxdy)
	for col := colA; col <= colB; col++ {
		l := max(xa, float64(col))
		h := min(xb, float64(col+1))
		if h <= l {
			continue
		}
		r.deposit(col, e.dir*float32((h-l)*dydx), (l+h)/2, xMin, xMax)
	}
	return true
}

// deposit records a coverage contribution c centred at device x-position
// xMid inside column col.
func (r *Rasteriser) deposit(col int, c float32, xMid float64, xMin, xMax int) {
	switch {
	case col < xMin:
		r.cover[0] += c
		r.area[0] += c
	case col < xMax:
		i := col - xMin
		frac := xMid - float64(col)
		r.cover[i] += c
		r.area[i] += c * float32(1-frac)
	}
}

// integrate turns accumulated cover/area values into nonzero coverage,
// in place.
func integrate(cover, area []float32) {
	var acc float32
	for i := range cover {
		v := acc + area[i]
		acc += cover[i]
		if v < 0 {
			v = -v
		}
		cover[i] = min(v, 1)
	}
}

// trim strips zero coverage from both ends of a row.
// It returns nil if the row is entirely empty.
func trim(row []float32) ([]float32, int) {
	lo, hi := 0, len(row)
	for lo < hi && row[lo] == 0 {
		lo++
	}
	if lo == hi {
		return nil, 0
	}
	for row[hi-1] == 0 {
		hi--
	}
	return row[lo:hi], lo
}
