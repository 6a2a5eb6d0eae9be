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

// Package surface implements pixel surfaces for page backgrounds and
// annotation layers.
//
// A [Surface] owns an RGBA pixel buffer and a persistent transformation.
// Drawing happens through a [Context], which is acquired with
// [Surface.Acquire] and must be released with [Context.Release] on every
// exit path. While a context is held, no other context for the same
// surface can be acquired.
package surface

import (
	"errors"
	"image"
	"image/draw"
	"sync"

	"seehuhn.de/go/geom/matrix"
)

// ErrNoContext is returned by [Surface.Acquire] when the surface has no
// pixels to draw on.
var ErrNoContext = errors.New("surface: no drawing context for empty surface")

// Surface is a resizable RGBA drawing surface.
type Surface struct {
	mu  sync.Mutex // held while a Context is live
	img *image.RGBA
	ctm matrix.Matrix
}

// New allocates a transparent surface of w×h pixels.
// Negative sizes are treated as zero.
func New(w, h int) *Surface {
	return &Surface{
		img: image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0))),
		ctm: matrix.Identity,
	}
}

// Size returns the pixel dimensions of the surface.
func (s *Surface) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.img.Rect
	return b.Dx(), b.Dy()
}

// Width returns the width of the surface in pixels.
func (s *Surface) Width() int {
	w, _ := s.Size()
	return w
}

// Height returns the height of the surface in pixels.
func (s *Surface) Height() int {
	_, h := s.Size()
	return h
}

// Resize changes the pixel dimensions of the surface. As with an HTML
// canvas, every call discards the current content, even if the size does
// not change. The pixel buffer is reused when it is large enough.
//
// Resize must not be called while a Context for s is held.
func (s *Surface) Resize(w, h int) {
	w, h = max(w, 0), max(h, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 4 * w * h
	if cap(s.img.Pix) >= n {
		pix := s.img.Pix[:n]
		clear(pix)
		s.img = &image.RGBA{Pix: pix, Stride: 4 * w, Rect: image.Rect(0, 0, w, h)}
		return
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

// SetTransform sets the user-to-device transformation used by contexts
// acquired after the call.
func (s *Surface) SetTransform(m matrix.Matrix) {
	s.mu.Lock()
	s.ctm = m
	s.mu.Unlock()
}

// Transform returns the current user-to-device transformation.
func (s *Surface) Transform() matrix.Matrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctm
}

// Snapshot returns a copy of the current pixels.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := image.NewRGBA(s.img.Rect)
	draw.Draw(out, out.Rect, s.img, s.img.Rect.Min, draw.Src)
	return out
}

// Acquire locks the surface for drawing and returns a context for it.
// The caller must call [Context.Release] when done.
// Acquiring a context for a surface without pixels fails with
// [ErrNoContext].
func (s *Surface) Acquire() (*Context, error) {
	s.mu.Lock()
	if s.img.Rect.Empty() {
		s.mu.Unlock()
		return nil, ErrNoContext
	}
	return &Context{s: s, CTM: s.ctm}, nil
}
