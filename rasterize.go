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
	"errors"
	"fmt"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/board/surface"
)

var errNoPage = errors.New("no page")

// Rasterizer renders a page onto a visible surface in two stages. The page
// is first rendered into a scratch surface whose size is the visible size
// times Config.Oversampling/Config.DeviceScale, and the scratch content is
// then scaled down onto the visible surface.
type Rasterizer struct {
	Source PageSource
	Config Config
}

// Rasterize renders page onto visible, using scratch as the intermediate
// surface. The scratch surface is resized on every call; its content is
// undefined between calls. The visible surface is never resized.
//
// After the page has been drawn into the scratch surface, stale is called
// (if non-nil). If it reports true, the frame is out of date and is not
// composited onto the visible surface.
//
// Rasterize reports whether the render succeeded. Failures are logged and
// never propagated.
func (r *Rasterizer) Rasterize(ctx context.Context, page PageHandle, visible, scratch *surface.Surface, stale func() bool) bool {
	err := r.rasterize(ctx, page, visible, scratch, stale)
	if err != nil {
		num := 0
		if page != nil {
			num = page.Number()
		}
		Logger().Warn("page rasterization failed", "page", num, "error", err)
		return false
	}
	return true
}

func (r *Rasterizer) rasterize(ctx context.Context, page PageHandle, visible, scratch *surface.Surface, stale func() bool) (err error) {
	if page == nil {
		return errNoPage
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("page %d: panic: %v", page.Number(), p)
		}
	}()

	vp := r.Source.Viewport(page, 1)
	if !(vp.Width > 0) || !(vp.Height > 0) {
		return fmt.Errorf("page %d: empty viewport %gx%g", page.Number(), vp.Width, vp.Height)
	}

	vw, vh := visible.Size()
	factor := r.Config.Oversampling(float64(vw) / vp.Width)
	ds := r.Config.DeviceScale
	scratch.Resize(int(float64(vw)*factor/ds), int(float64(vh)*factor/ds))
	zoom := float64(scratch.Width()) / vp.Width

	sctx, err := scratch.Acquire()
	if err != nil {
		return fmt.Errorf("scratch surface: %w", err)
	}
	defer sctx.Release()

	rctx := ctx
	if r.Config.RenderTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, r.Config.RenderTimeout)
		defer cancel()
	}
	if err := r.Source.Render(rctx, page, zoom, sctx); err != nil {
		return fmt.Errorf("page %d: %w", page.Number(), err)
	}

	if stale != nil && stale() {
		Logger().Debug("discarding stale frame", "page", page.Number())
		return nil
	}

	vctx, err := visible.Acquire()
	if err != nil {
		return fmt.Errorf("visible surface: %w", err)
	}
	defer vctx.Release()

	vctx.CTM = matrix.Identity
	vctx.DrawImage(sctx.Image(), rect.Rect{URx: float64(vw), URy: float64(vh)})
	sctx.Clear()
	return nil
}
