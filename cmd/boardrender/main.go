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

// Command boardrender renders pages of a PDF file to PNG images, with
// optional freehand annotations on top.
//
// Usage:
//
//	boardrender [flags] file.pdf page...
//
// All pages are requested in one burst, as if the user flipped through the
// document quickly; only the last page ends up on the output image.
// Settings are read from the environment variables BOARD_CSS_UNIT,
// BOARD_DEVICE_SCALE, BOARD_RENDER_TIMEOUT and BOARD_LOG_LEVEL.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kelseyhightower/envconfig"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/rect"

	"seehuhn.de/go/board"
	"seehuhn.de/go/board/fitzpage"
	"seehuhn.de/go/board/ink"
	"seehuhn.de/go/board/surface"
)

type settings struct {
	CSSUnit       float64       `envconfig:"CSS_UNIT" default:"1.3333333333333333"`
	DeviceScale   float64       `envconfig:"DEVICE_SCALE" default:"1"`
	RenderTimeout time.Duration `envconfig:"RENDER_TIMEOUT" default:"0s"`
	LogLevel      slog.Level    `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	out := flag.String("o", "page.png", "output file")
	width := flag.Int("width", 800, "width of the output image in pixels")
	thumbs := flag.String("thumbs", "", "directory for page thumbnails")
	strokes := flag.String("ink", "", "JSON file with annotation strokes")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.pdf page...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	var s settings
	if err := envconfig.Process("board", &s); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	board.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: s.LogLevel})))

	var pages []int
	for _, arg := range flag.Args()[1:] {
		num, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid page number %q\n", arg)
			os.Exit(2)
		}
		pages = append(pages, num)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := board.Config{
		CSSUnit:       s.CSSUnit,
		DeviceScale:   s.DeviceScale,
		RenderTimeout: s.RenderTimeout,
	}
	err := run(ctx, cfg, flag.Arg(0), pages, *width, *out, *thumbs, *strokes)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg board.Config, fname string, pages []int, width int, out, thumbs, strokes string) error {
	src, err := fitzpage.Open(fname)
	if err != nil {
		return err
	}
	defer src.Close()

	last, ok := src.Page(pages[len(pages)-1])
	if !ok {
		return fmt.Errorf("%s: no page %d", fname, pages[len(pages)-1])
	}
	vp := src.Viewport(last, 1)
	zoom := float64(width) / vp.Width
	visible := surface.New(width, int(vp.Height*zoom+0.5))

	sched, err := board.NewScheduler(ctx, src, cfg, visible, surface.New(0, 0))
	if err != nil {
		return err
	}
	for _, num := range pages {
		sched.Request(num)
	}
	if err := sched.Wait(ctx); err != nil {
		return err
	}

	img := visible.Snapshot()
	if strokes != "" {
		page, err := loadStrokes(strokes)
		if err != nil {
			return err
		}
		img, err = annotate(visible, zoom, page)
		if err != nil {
			return err
		}
	}
	if err := writePNG(out, img); err != nil {
		return err
	}

	if thumbs != "" {
		if err := os.MkdirAll(thumbs, 0o755); err != nil {
			return err
		}
		for _, num := range pages {
			img, err := board.Thumbnail(ctx, src, num)
			if err != nil {
				return err
			}
			name := filepath.Join(thumbs, fmt.Sprintf("page-%03d.png", num))
			if err := writePNG(name, img); err != nil {
				return err
			}
		}
	}
	return nil
}

// annotate paints the strokes on an overlay at the given zoom factor and
// composites the overlay onto the page image.
func annotate(visible *surface.Surface, zoom float64, page *ink.Page) (*image.RGBA, error) {
	w, h := visible.Size()
	overlay := surface.New(w, h)
	overlay.SetTransform(matrix.Scale(zoom, zoom))
	if err := board.NewBoard().Redraw(overlay, zoom, page); err != nil {
		return nil, err
	}

	ctx, err := visible.Acquire()
	if err != nil {
		return nil, err
	}
	ctx.CTM = matrix.Identity
	ctx.DrawImage(overlay.Snapshot(), rect.Rect{URx: float64(w), URy: float64(h)})
	ctx.Release()
	return visible.Snapshot(), nil
}

func writePNG(fname string, img image.Image) error {
	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
