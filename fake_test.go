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
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"seehuhn.de/go/board/surface"
)

type fakePage struct{ num int }

func (p fakePage) Number() int { return p.num }

// renderCall records one call to fakeSource.Render.
type renderCall struct {
	page   int
	scale  float64
	size   image.Point
	before color.RGBA // pixel (0,0) of the observed surface when the call started
}

// fakeSource is a document whose pages are filled with a solid colour
// that identifies the page number.
//
// If gated is set, every Render call announces itself on started and then
// waits for a value on release, which becomes its return value.
type fakeSource struct {
	width, height float64 // page size at scale 1

	gated   bool
	started chan int
	release chan error

	mu      sync.Mutex
	pages   int
	calls   []renderCall
	fail    map[int]error
	hang    map[int]bool
	panics  map[int]bool
	observe *surface.Surface

	// resolve, if set, is called at the start of every Page call
	// without holding mu.
	resolve func(num int)
}

func newFakeSource(pages int) *fakeSource {
	return &fakeSource{
		width:   100,
		height:  50,
		pages:   pages,
		started: make(chan int, 16),
		release: make(chan error),
		fail:    map[int]error{},
		hang:    map[int]bool{},
		panics:  map[int]bool{},
	}
}

func pageColor(num int) color.RGBA {
	return color.RGBA{R: uint8(10 * num), G: 200, B: 100, A: 255}
}

func (f *fakeSource) setPages(n int) {
	f.mu.Lock()
	f.pages = n
	f.mu.Unlock()
}

func (f *fakeSource) setResolve(fn func(num int)) {
	f.mu.Lock()
	f.resolve = fn
	f.mu.Unlock()
}

func (f *fakeSource) Page(num int) (PageHandle, bool) {
	f.mu.Lock()
	resolve := f.resolve
	f.mu.Unlock()
	if resolve != nil {
		resolve(num)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if num < 1 || num > f.pages {
		return nil, false
	}
	return fakePage{num}, true
}

func (f *fakeSource) Viewport(p PageHandle, scale float64) Viewport {
	return Viewport{Width: f.width * scale, Height: f.height * scale}
}

func (f *fakeSource) Render(ctx context.Context, p PageHandle, scale float64, dst *surface.Context) error {
	num := p.Number()

	f.mu.Lock()
	call := renderCall{page: num, scale: scale, size: dst.Bounds().Size()}
	if f.observe != nil {
		call.before = f.observe.Snapshot().RGBAAt(0, 0)
	}
	f.calls = append(f.calls, call)
	err, hang, panics := f.fail[num], f.hang[num], f.panics[num]
	f.mu.Unlock()

	if panics {
		panic("broken page")
	}
	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.gated {
		f.started <- num
		if rerr := <-f.release; rerr != nil {
			return rerr
		}
	}
	if err != nil {
		return err
	}

	draw.Draw(dst.Image(), dst.Bounds(), image.NewUniform(pageColor(num)), image.Point{}, draw.Src)
	return nil
}

func (f *fakeSource) rendered() []renderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]renderCall(nil), f.calls...)
}

func (f *fakeSource) renderedPages() []int {
	var pages []int
	for _, c := range f.rendered() {
		pages = append(pages, c.page)
	}
	return pages
}
