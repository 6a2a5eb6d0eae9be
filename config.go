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
	"errors"
	"fmt"
	"math"
	"time"
)

// Config holds the display constants used when rasterizing pages.
type Config struct {
	// CSSUnit is the number of device-independent pixels per PDF point.
	// Pages displayed at or below twice this scale are oversampled.
	CSSUnit float64

	// DeviceScale is the device pixel ratio of the display.
	DeviceScale float64

	// RenderTimeout bounds a single page rasterization. Zero means no
	// limit, in which case a hung page source stalls the scheduler.
	RenderTimeout time.Duration
}

// DefaultConfig returns the configuration for a standard-density display:
// 96 CSS pixels per inch against 72 PDF points per inch, a device pixel
// ratio of 1 and no render timeout.
func DefaultConfig() Config {
	return Config{
		CSSUnit:     96.0 / 72.0,
		DeviceScale: 1,
	}
}

// Validate checks that the constants are usable.
func (c Config) Validate() error {
	var errs []error
	if !(c.CSSUnit > 0) || math.IsInf(c.CSSUnit, 0) {
		errs = append(errs, fmt.Errorf("invalid CSS unit %g", c.CSSUnit))
	}
	if !(c.DeviceScale > 0) || math.IsInf(c.DeviceScale, 0) {
		errs = append(errs, fmt.Errorf("invalid device scale %g", c.DeviceScale))
	}
	if c.RenderTimeout < 0 {
		errs = append(errs, fmt.Errorf("negative render timeout %s", c.RenderTimeout))
	}
	return errors.Join(errs...)
}

// Oversampling returns the factor by which a page displayed at the given
// scale is rendered larger than its target size before being composited
// down. Small scales lose text detail when rendered directly, so at or
// below twice the CSS unit at least 2× is used.
func (c Config) Oversampling(scale float64) float64 {
	if scale <= 2*c.CSSUnit {
		return max(2, c.DeviceScale)
	}
	return c.DeviceScale
}
