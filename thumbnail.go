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
	"image"

	"seehuhn.de/go/board/surface"
)

// ThumbnailScale is the page scale used for thumbnails.
const ThumbnailScale = 0.5

// ErrPageNotFound is returned when a page number does not name a page of
// the document.
var ErrPageNotFound = errors.New("board: page not found")

// Thumbnail renders page num at [ThumbnailScale] in a single pass.
// Unlike [Scheduler.Request], this is neither coalesced nor oversampled.
func Thumbnail(ctx context.Context, src PageSource, num int) (*image.RGBA, error) {
	page, ok := src.Page(num)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPageNotFound, num)
	}

	vp := src.Viewport(page, ThumbnailScale)
	s := surface.New(int(vp.Width), int(vp.Height))
	sctx, err := s.Acquire()
	if err != nil {
		return nil, fmt.Errorf("thumbnail of page %d: %w", num, err)
	}
	err = src.Render(ctx, page, ThumbnailScale, sctx)
	sctx.Release()
	if err != nil {
		return nil, fmt.Errorf("thumbnail of page %d: %w", num, err)
	}
	return s.Snapshot(), nil
}
