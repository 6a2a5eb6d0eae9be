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
	"sync"

	"seehuhn.de/go/board/surface"
)

// mailbox is a single-slot queue. Putting a value overwrites whatever
// was there before.
type mailbox struct {
	page int
	full bool
}

// put stores page and returns the value it replaced, if any.
func (m *mailbox) put(page int) (old int, replaced bool) {
	old, replaced = m.page, m.full
	m.page, m.full = page, true
	return old, replaced
}

// take empties the mailbox and returns its content.
func (m *mailbox) take() (int, bool) {
	page, ok := m.page, m.full
	m.page, m.full = 0, false
	return page, ok
}

func (m *mailbox) peek() (int, bool) {
	return m.page, m.full
}

// Scheduler renders page backgrounds onto a visible surface, one page at
// a time.
//
// When a page is requested while another page is rendering, the request
// is parked in a single-slot mailbox, overwriting any request parked
// before it. When the running render finishes, the parked page (if any)
// is rendered next. Pages requested and overwritten in between are never
// rendered, and a render that finishes while a newer request is parked is
// not composited onto the visible surface.
//
// A Scheduler is safe for concurrent use.
type Scheduler struct {
	ctx     context.Context
	source  PageSource
	raster  Rasterizer
	visible *surface.Surface
	scratch *surface.Surface

	mu        sync.Mutex
	rendering bool
	pending   mailbox
	idle      chan struct{} // closed when the current run ends
}

// NewScheduler returns a scheduler which draws pages from src onto
// visible, using scratch as the intermediate surface. The scheduler owns
// scratch from now on. The context bounds all renders started by the
// scheduler.
func NewScheduler(ctx context.Context, src PageSource, cfg Config, visible, scratch *surface.Surface) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if visible == nil || scratch == nil {
		return nil, errors.New("board: missing surface")
	}
	if visible == scratch {
		return nil, errors.New("board: visible and scratch surface must differ")
	}
	return &Scheduler{
		ctx:     ctx,
		source:  src,
		raster:  Rasterizer{Source: src, Config: cfg},
		visible: visible,
		scratch: scratch,
	}, nil
}

// Request asks for page num (1-based) to be shown. It never blocks on
// rendering.
//
// If num does not name a page of the document, the request is ignored.
// If no render is in progress, rendering of num starts in the background.
// Otherwise num replaces any previously parked request and is rendered
// once the current render is done.
func (s *Scheduler) Request(num int) {
	page, ok := s.source.Page(num)
	if !ok {
		Logger().Debug("ignoring request for unknown page", "page", num)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rendering {
		if old, replaced := s.pending.put(num); replaced {
			Logger().Debug("coalesced page request", "dropped", old, "page", num)
		}
		return
	}
	s.rendering = true
	s.idle = make(chan struct{})
	go s.run(page)
}

// run renders page and then every page found in the mailbox, until the
// mailbox is empty.
func (s *Scheduler) run(page PageHandle) {
	for {
		s.raster.Rasterize(s.ctx, page, s.visible, s.scratch, s.stale)

		var ok bool
		page, ok = s.next()
		if !ok {
			return
		}
	}
}

// next takes the parked request from the mailbox and resolves it outside
// of s.mu. A parked page which no longer exists is dropped and the
// mailbox is checked again. If the mailbox is empty, next marks the
// scheduler idle and returns false.
func (s *Scheduler) next() (PageHandle, bool) {
	for {
		s.mu.Lock()
		num, ok := s.pending.take()
		if !ok {
			s.rendering = false
			close(s.idle)
			s.mu.Unlock()
			return nil, false
		}
		s.mu.Unlock()

		if page, ok := s.source.Page(num); ok {
			return page, true
		}
		Logger().Debug("dropping request for vanished page", "page", num)
	}
}

// stale reports whether a newer request is waiting.
func (s *Scheduler) stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending.peek()
	return ok
}

// Busy reports whether a render is in progress.
func (s *Scheduler) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendering
}

// Pending returns the page parked for rendering after the current one.
func (s *Scheduler) Pending() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.peek()
}

// Wait blocks until no render is in progress, or until ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	if !s.rendering {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
