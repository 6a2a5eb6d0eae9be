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

package ink

import (
	"image/color"
	"math"
	"slices"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
	"seehuhn.de/go/pdf/graphics"

	"seehuhn.de/go/board/raster"
	"seehuhn.de/go/board/surface"
)

// highlighterOpacity scales the alpha of highlighter ink.
const highlighterOpacity = 0.35

// miterLimit is the PDF default miter limit.
const miterLimit = 10.0

// style is the resolved appearance of a stroke.
type style struct {
	width float64
	cap   graphics.LineCapStyle
	join  graphics.LineJoinStyle
	color color.NRGBA
	op    surface.Op
}

func styleOf(tool Tool) (style, bool) {
	switch t := tool.(type) {
	case Pen:
		return style{
			width: t.Width,
			cap:   graphics.LineCapRound,
			join:  graphics.LineJoinRound,
			color: t.Color,
			op:    surface.Over,
		}, true
	case Highlighter:
		c := t.Color
		c.A = uint8(math.Round(float64(c.A) * highlighterOpacity))
		return style{
			width: t.Width,
			cap:   graphics.LineCapSquare,
			join:  graphics.LineJoinBevel,
			color: c,
			op:    surface.Over,
		}, true
	case Eraser:
		return style{
			width: t.Width,
			cap:   graphics.LineCapRound,
			join:  graphics.LineJoinRound,
			op:    surface.Erase,
		}, true
	}
	return style{}, false
}

// Replayer paints strokes. Each stroke is converted into an outline made
// of same-orientation polygons (one per segment, plus caps and joins),
// which is then filled with the nonzero winding rule. This paints every
// pixel of a stroke exactly once, so translucent ink does not darken
// where the stroke overlaps itself.
//
// A Replayer reuses its buffers and is not safe for concurrent use.
type Replayer struct {
	r       *raster.Rasteriser
	outline path.Data
	pts     []vec.Vec2
	poly    []vec.Vec2
}

// NewReplayer returns a Replayer with empty buffers.
func NewReplayer() *Replayer {
	return &Replayer{r: raster.New(rect.Rect{})}
}

// Paint draws a single stroke through points with the given tool, using
// the transformation of ctx. Invalid input paints nothing.
func (rp *Replayer) Paint(ctx *surface.Context, points []vec.Vec2, tool Tool) {
	st, ok := styleOf(tool)
	if !ok || len(points) == 0 || !(st.width > 0) {
		return
	}

	b := ctx.Bounds()
	rp.r.Reset(rect.Rect{
		LLx: float64(b.Min.X), LLy: float64(b.Min.Y),
		URx: float64(b.Max.X), URy: float64(b.Max.Y),
	})
	rp.r.CTM = ctx.CTM

	rp.build(points, st)
	rp.r.Fill(&rp.outline, func(y, xMin int, coverage []float32) {
		ctx.Cover(y, xMin, coverage, st.color, st.op)
	})
}

// build fills rp.outline with the stroke outline of points.
func (rp *Replayer) build(points []vec.Vec2, st style) {
	rp.outline.Cmds = rp.outline.Cmds[:0]
	rp.outline.Coords = rp.outline.Coords[:0]

	rp.pts = rp.pts[:0]
	for _, p := range points {
		if n := len(rp.pts); n > 0 && p.Sub(rp.pts[n-1]).Length() < 1e-9 {
			continue
		}
		rp.pts = append(rp.pts, p)
	}
	pts := rp.pts
	d := st.width / 2

	if len(pts) == 1 {
		switch st.cap {
		case graphics.LineCapRound:
			rp.disc(pts[0], d)
		case graphics.LineCapSquare:
			rp.square(pts[0], vec.Vec2{X: 1}, d)
		}
		return
	}

	last := len(pts) - 1
	for i := 1; i <= last; i++ {
		a, b := pts[i-1], pts[i]
		t := unit(b.Sub(a))
		n := vec.Vec2{X: -t.Y, Y: t.X}
		if st.cap == graphics.LineCapSquare {
			if i == 1 {
				a = a.Sub(t.Mul(d))
			}
			if i == last {
				b = b.Add(t.Mul(d))
			}
		}
		rp.polygon(a.Add(n.Mul(d)), b.Add(n.Mul(d)), b.Sub(n.Mul(d)), a.Sub(n.Mul(d)))
	}

	if st.cap == graphics.LineCapRound {
		rp.disc(pts[0], d)
		rp.disc(pts[last], d)
	}

	for i := 1; i < last; i++ {
		t1 := unit(pts[i].Sub(pts[i-1]))
		t2 := unit(pts[i+1].Sub(pts[i]))
		rp.join(pts[i], t1, t2, d, st.join)
	}
}

// join fills the gap on the outer side of the corner at p, where the
// stroke turns from direction t1 to direction t2.
func (rp *Replayer) join(p, t1, t2 vec.Vec2, d float64, js graphics.LineJoinStyle) {
	if js == graphics.LineJoinRound {
		rp.disc(p, d)
		return
	}

	cross := t1.X*t2.Y - t1.Y*t2.X
	if math.Abs(cross) < 1e-9 {
		return // straight on, or a full reversal
	}

	// The normals point to the left of the direction of travel; a left
	// turn has its outer side on the right.
	side := 1.0
	if cross > 0 {
		side = -1
	}
	n1 := vec.Vec2{X: -t1.Y, Y: t1.X}.Mul(side)
	n2 := vec.Vec2{X: -t2.Y, Y: t2.X}.Mul(side)
	p1 := p.Add(n1.Mul(d))
	p2 := p.Add(n2.Mul(d))

	if js == graphics.LineJoinMiter {
		// The miter length divided by the line width is 2/|n1+n2|.
		m := n1.Add(n2)
		if l2 := m.Dot(m); l2 > 0 && 2/math.Sqrt(l2) <= miterLimit {
			tip := p.Add(m.Mul(2 * d / l2))
			rp.polygon(p, p1, tip, p2)
			return
		}
	}
	rp.polygon(p, p1, p2)
}

// disc adds a circle of radius d around c, flattened finely enough for
// the current transformation.
func (rp *Replayer) disc(c vec.Vec2, d float64) {
	m := rp.r.CTM
	devR := d * math.Sqrt(math.Abs(m[0]*m[3]-m[1]*m[2]))

	n := 8
	if devR > rp.r.Flatness {
		step := 2 * math.Acos(1-rp.r.Flatness/devR)
		n = max(n, int(math.Ceil(2*math.Pi/step)))
	}

	rp.poly = rp.poly[:0]
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		rp.poly = append(rp.poly, vec.Vec2{X: c.X + d*math.Cos(a), Y: c.Y + d*math.Sin(a)})
	}
	rp.polygon(rp.poly...)
}

// square adds a square of half side d centred at c, aligned with t.
func (rp *Replayer) square(c, t vec.Vec2, d float64) {
	n := vec.Vec2{X: -t.Y, Y: t.X}
	rp.polygon(
		c.Add(t.Mul(d)).Add(n.Mul(d)),
		c.Sub(t.Mul(d)).Add(n.Mul(d)),
		c.Sub(t.Mul(d)).Sub(n.Mul(d)),
		c.Add(t.Mul(d)).Sub(n.Mul(d)),
	)
}

// polygon appends a closed polygon to the outline. All polygons are
// stored with positive signed area, so that overlaps add up under the
// nonzero rule instead of cancelling.
func (rp *Replayer) polygon(pts ...vec.Vec2) {
	if len(pts) < 3 {
		return
	}
	var area float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		area += p.X*q.Y - q.X*p.Y
	}
	if area == 0 {
		return
	}

	if area < 0 {
		slices.Reverse(pts)
	}
	o := &rp.outline
	o.Cmds = append(o.Cmds, path.CmdMoveTo)
	o.Coords = append(o.Coords, pts[0])
	for _, p := range pts[1:] {
		o.Cmds = append(o.Cmds, path.CmdLineTo)
		o.Coords = append(o.Coords, p)
	}
	o.Cmds = append(o.Cmds, path.CmdClose)
}

func unit(v vec.Vec2) vec.Vec2 {
	return v.Mul(1 / v.Length())
}
