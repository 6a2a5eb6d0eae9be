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

package surface

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

// Op selects how painted coverage is combined with existing pixels.
type Op int

const (
	// Over paints the colour on top of the existing pixels.
	Over Op = iota

	// Erase removes existing pixels in proportion to the coverage.
	// The colour is ignored.
	Erase
)

// Context draws on a locked [Surface].
// A Context must not be used after [Context.Release].
type Context struct {
	s *Surface

	// CTM maps user space to device pixels. It starts out as the
	// surface transformation and can be changed freely; changes are
	// discarded on release.
	CTM matrix.Matrix
}

// Release unlocks the surface. Calling Release more than once is a no-op.
func (c *Context) Release() {
	if c.s == nil {
		return
	}
	s := c.s
	c.s = nil
	s.mu.Unlock()
}

// Bounds returns the device rectangle of the surface.
func (c *Context) Bounds() image.Rectangle {
	return c.s.img.Rect
}

// Image gives direct access to the pixel buffer while the context is held.
func (c *Context) Image() *image.RGBA {
	return c.s.img
}

// Clear makes every pixel of the surface transparent, ignoring the CTM.
func (c *Context) Clear() {
	clear(c.s.img.Pix)
}

// ClearRect makes the user-space rectangle r transparent.
func (c *Context) ClearRect(r rect.Rect) {
	dr := c.device(r).Intersect(c.s.img.Rect)
	if dr.Empty() {
		return
	}
	draw.Draw(c.s.img, dr, image.Transparent, image.Point{}, draw.Src)
}

// DrawImage scales src into the user-space rectangle r and composites it
// over the existing pixels. Catmull-Rom resampling is used, so that
// oversampled page images keep sharp text after downscaling.
func (c *Context) DrawImage(src image.Image, r rect.Rect) {
	dr := c.device(r)
	if dr.Empty() || src.Bounds().Empty() {
		return
	}
	xdraw.CatmullRom.Scale(c.s.img, dr, src, src.Bounds(), xdraw.Over, nil)
}

// device maps a user-space rectangle to the smallest enclosing device
// rectangle, rounding each side to the nearest pixel boundary.
func (c *Context) device(r rect.Rect) image.Rectangle {
	m := c.CTM
	xMin, yMin := math.Inf(1), math.Inf(1)
	xMax, yMax := math.Inf(-1), math.Inf(-1)
	for _, x := range []float64{r.LLx, r.URx} {
		for _, y := range []float64{r.LLy, r.URy} {
			dx := m[0]*x + m[2]*y + m[4]
			dy := m[1]*x + m[3]*y + m[5]
			xMin, xMax = min(xMin, dx), max(xMax, dx)
			yMin, yMax = min(yMin, dy), max(yMax, dy)
		}
	}
	return image.Rect(
		int(math.Round(xMin)), int(math.Round(yMin)),
		int(math.Round(xMax)), int(math.Round(yMax)),
	)
}

// Cover paints one row of coverage values, as produced by the raster
// package, starting at device pixel (xMin, y).
func (c *Context) Cover(y, xMin int, coverage []float32, col color.NRGBA, op Op) {
	img := c.s.img
	if y < img.Rect.Min.Y || y >= img.Rect.Max.Y {
		return
	}

	alpha := float32(col.A) / 255
	pr := float32(col.R) * alpha
	pg := float32(col.G) * alpha
	pb := float32(col.B) * alpha

	for i, cov := range coverage {
		x := xMin + i
		if x < img.Rect.Min.X || x >= img.Rect.Max.X || cov <= 0 {
			continue
		}
		off := img.PixOffset(x, y)
		p := img.Pix[off : off+4 : off+4]
		switch op {
		case Over:
			k := 1 - alpha*cov
			p[0] = blend(pr*cov, p[0], k)
			p[1] = blend(pg*cov, p[1], k)
			p[2] = blend(pb*cov, p[2], k)
			p[3] = blend(255*alpha*cov, p[3], k)
		case Erase:
			k := 1 - cov
			p[0] = blend(0, p[0], k)
			p[1] = blend(0, p[1], k)
			p[2] = blend(0, p[2], k)
			p[3] = blend(0, p[3], k)
		}
	}
}

// blend returns src + k·dst, rounded and clamped to a byte.
func blend(src float32, dst uint8, k float32) uint8 {
	return uint8(min(src+float32(dst)*k+0.5, 255))
}
