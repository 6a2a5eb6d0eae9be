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
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"
)

func fill(t *testing.T, s *Surface, c color.RGBA) {
	t.Helper()
	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Release()
	draw.Draw(ctx.Image(), ctx.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func TestAcquireEmpty(t *testing.T) {
	for _, s := range []*Surface{New(0, 0), New(10, 0), New(-3, 5)} {
		ctx, err := s.Acquire()
		if !errors.Is(err, ErrNoContext) {
			t.Errorf("Acquire on %dx%d: got %v, want ErrNoContext", s.Width(), s.Height(), err)
		}
		if ctx != nil {
			t.Error("got non-nil context")
		}
	}

	// a failed acquisition must not leave the surface locked
	s := New(0, 0)
	_, _ = s.Acquire()
	s.Resize(2, 2)
	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	ctx.Release()
	ctx.Release()
}

func TestResizeDiscardsContent(t *testing.T) {
	s := New(4, 4)
	fill(t, s, color.RGBA{R: 255, A: 255})

	s.Resize(4, 4)
	img := s.Snapshot()
	for i, v := range img.Pix {
		if v != 0 {
			t.Fatalf("byte %d is %d after resize, want 0", i, v)
		}
	}

	s.Resize(6, 3)
	if w, h := s.Size(); w != 6 || h != 3 {
		t.Errorf("size %dx%d, want 6x3", w, h)
	}
	if got := s.Snapshot().Stride; got != 24 {
		t.Errorf("stride %d, want 24", got)
	}

	s.Resize(100, 100)
	if w, h := s.Size(); w != 100 || h != 100 {
		t.Errorf("size %dx%d, want 100x100", w, h)
	}
}

func TestClearRectUnderTransform(t *testing.T) {
	s := New(12, 8)
	fill(t, s, color.RGBA{G: 255, A: 255})
	s.SetTransform(matrix.Scale(2, 2))

	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	ctx.ClearRect(rect.Rect{URx: 12.0 / 2, URy: 8.0 / 2})
	ctx.Release()

	for i, v := range s.Snapshot().Pix {
		if v != 0 {
			t.Fatalf("byte %d is %d, want 0", i, v)
		}
	}
}

func TestClearRectPartial(t *testing.T) {
	s := New(4, 4)
	fill(t, s, color.RGBA{B: 255, A: 255})

	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	ctx.ClearRect(rect.Rect{URx: 2, URy: 4})
	ctx.Release()

	img := s.Snapshot()
	if a := img.RGBAAt(1, 1).A; a != 0 {
		t.Errorf("cleared pixel alpha %d", a)
	}
	if a := img.RGBAAt(3, 1).A; a != 255 {
		t.Errorf("kept pixel alpha %d", a)
	}
}

func TestDrawImageScales(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	draw.Draw(src, src.Rect, image.NewUniform(color.RGBA{R: 200, A: 255}), image.Point{}, draw.Src)

	s := New(10, 5)
	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	ctx.DrawImage(src, rect.Rect{URx: 10, URy: 5})
	ctx.Release()

	img := s.Snapshot()
	for y := range 5 {
		for x := range 10 {
			if c := img.RGBAAt(x, y); c.R != 200 || c.A != 255 {
				t.Fatalf("(%d,%d) = %v, want R=200 A=255", x, y, c)
			}
		}
	}
}

func TestCoverOps(t *testing.T) {
	s := New(3, 1)
	ctx, err := s.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Release()

	ctx.Cover(0, 0, []float32{1, 0.5, 0}, color.NRGBA{R: 255, A: 255}, Over)
	img := ctx.Image()
	if c := img.RGBAAt(0, 0); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("full coverage: %v", c)
	}
	if c := img.RGBAAt(1, 0); c.A != 128 || c.R != 128 {
		t.Errorf("half coverage: %v", c)
	}
	if c := img.RGBAAt(2, 0); c.A != 0 {
		t.Errorf("zero coverage: %v", c)
	}

	ctx.Cover(0, 0, []float32{1, 1}, color.NRGBA{}, Erase)
	if c := img.RGBAAt(0, 0); c.A != 0 {
		t.Errorf("erased pixel: %v", c)
	}

	// rows and columns outside the surface are ignored
	ctx.Cover(5, 0, []float32{1}, color.NRGBA{A: 255}, Over)
	ctx.Cover(0, -2, []float32{1, 1, 1, 1, 1, 1}, color.NRGBA{G: 255, A: 255}, Over)
	if c := img.RGBAAt(2, 0); c.G != 255 {
		t.Errorf("clipped row: %v", c)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := New(2, 2)
	snap := s.Snapshot()
	fill(t, s, color.RGBA{A: 255})
	if snap.Pix[3] != 0 {
		t.Error("snapshot shares pixels with surface")
	}
}
