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

// Package board renders the pages of a PDF document as the background of a
// whiteboard and replays freehand annotation strokes on top.
//
// Page backgrounds are rendered by a [Scheduler]. It runs at most one
// render at a time and coalesces page requests that arrive while a render
// is in progress, so that rapid page flipping renders only the page the
// user finally settles on. Each render goes through [Rasterizer], which
// renders the page into an oversampled scratch surface and then scales
// the result down onto the visible surface.
//
// Annotation strokes are drawn by [Board], which repaints the complete
// stroke list of a page on every call.
package board

import (
	"context"

	"seehuhn.de/go/board/surface"
)

// PageHandle refers to one page of a document.
// Handles are obtained from [PageSource.Page] and are immutable.
type PageHandle interface {
	// Number returns the 1-based page number.
	Number() int
}

// Viewport gives the size of a page at some scale, in pixels.
type Viewport struct {
	Width, Height float64
}

// PageSource provides the pages of a document.
type PageSource interface {
	// Page returns the page with the given 1-based number. The second
	// return value is false if the document has no such page.
	Page(num int) (PageHandle, bool)

	// Viewport returns the size of page p at the given scale.
	Viewport(p PageHandle, scale float64) Viewport

	// Render draws page p at the given scale into dst, starting at the
	// device origin. Render blocks until the page is drawn or ctx is
	// done.
	Render(ctx context.Context, p PageHandle, scale float64, dst *surface.Context) error
}
