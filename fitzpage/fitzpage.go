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

// Package fitzpage provides a [board.PageSource] for PDF files, backed by
// the MuPDF library.
package fitzpage

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	"seehuhn.de/go/board"
	"seehuhn.de/go/board/surface"
)

// Source is an open PDF document.
// MuPDF documents are not safe for concurrent use, so all access to the
// document is serialised.
type Source struct {
	mu  sync.Mutex
	doc *fitz.Document
	n   int
}

var _ board.PageSource = (*Source)(nil)

// Page is a page of a [Source].
type Page struct {
	num    int
	bounds image.Rectangle // in PDF points
}

// Number implements [board.PageHandle].
func (p *Page) Number() int { return p.num }

// Open opens the PDF file at path.
func Open(path string) (*Source, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("fitzpage: %w", err)
	}
	return &Source{doc: doc, n: doc.NumPage()}, nil
}

// Close releases the document.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Close()
}

// NumPages returns the number of pages in the document.
func (s *Source) NumPages() int {
	return s.n
}

// Page implements [board.PageSource].
func (s *Source) Page(num int) (board.PageHandle, bool) {
	if num < 1 || num > s.n {
		return nil, false
	}

	s.mu.Lock()
	bounds, err := s.doc.Bound(num - 1)
	s.mu.Unlock()
	if err != nil {
		board.Logger().Debug("cannot read page bounds", "page", num, "error", err)
		return nil, false
	}
	return &Page{num: num, bounds: bounds}, true
}

// Viewport implements [board.PageSource].
func (s *Source) Viewport(p board.PageHandle, scale float64) board.Viewport {
	pg, ok := p.(*Page)
	if !ok {
		return board.Viewport{}
	}
	return board.Viewport{
		Width:  float64(pg.bounds.Dx()) * scale,
		Height: float64(pg.bounds.Dy()) * scale,
	}
}

// Render implements [board.PageSource]. The page image is scaled to fill
// the device bounds of dst; the transformation of dst is not used.
//
// MuPDF cannot be interrupted, so ctx is only checked before and after
// the page is rasterised.
func (s *Source) Render(ctx context.Context, p board.PageHandle, scale float64, dst *surface.Context) error {
	pg, ok := p.(*Page)
	if !ok {
		return fmt.Errorf("fitzpage: foreign page handle %T", p)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	img, err := s.doc.ImageDPI(pg.num-1, 72*scale)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("fitzpage: page %d: %w", pg.num, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db := dst.Bounds()
	if img.Bounds().Size() == db.Size() {
		xdraw.Copy(dst.Image(), db.Min, img, img.Bounds(), xdraw.Src, nil)
	} else {
		xdraw.CatmullRom.Scale(dst.Image(), db, img, img.Bounds(), xdraw.Src, nil)
	}
	return nil
}
