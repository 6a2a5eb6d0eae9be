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
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/board/ink"
	"seehuhn.de/go/board/surface"
)

// StrokeReplayer paints one stroke onto a drawing context.
type StrokeReplayer interface {
	Paint(ctx *surface.Context, points []vec.Vec2, tool ink.Tool)
}

// Board repaints the annotation layer of a page.
type Board struct {
	Replayer StrokeReplayer
}

// NewBoard returns a Board which paints strokes with an [ink.Replayer].
func NewBoard() *Board {
	return &Board{Replayer: ink.NewReplayer()}
}

// Redraw clears dst and replays all strokes of page in order, so that
// later strokes end up on top of earlier ones. A nil page leaves the
// surface blank.
//
// The surface transformation is expected to scale by zoom; the cleared
// region is the full surface divided by zoom in user space. A zero or
// NaN zoom is treated as 1.
//
// Nothing is cached between calls: every call repaints the whole page.
func (b *Board) Redraw(dst *surface.Surface, zoom float64, page *ink.Page) error {
	if zoom == 0 || math.IsNaN(zoom) {
		zoom = 1
	}

	ctx, err := dst.Acquire()
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	defer ctx.Release()

	size := ctx.Bounds().Size()
	ctx.ClearRect(rect.Rect{URx: float64(size.X) / zoom, URy: float64(size.Y) / zoom})

	if page == nil {
		return nil
	}
	for _, ev := range page.Events {
		b.Replayer.Paint(ctx, ev.Points, ev.Tool)
	}
	return nil
}
