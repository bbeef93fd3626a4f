// Package diff provides the perceptual difference engine.
//
// Two equally-sized surfaces are compared pixel by pixel in the YIQ color
// space with luma weighted most heavily. Pixels above the sensitivity
// threshold are further tested against their 3x3 neighborhood to separate
// genuine content changes from anti-aliasing artifacts along edges.
//
// Compare is a pure function: no mutable state, no randomness, identical
// inputs always produce identical results, and classification is
// symmetric in its two inputs.
package diff

import (
	"errors"

	"image-compare/internal/surface"
	"image-compare/pkg/colorutil"
)

// Class is the per-pixel difference classification.
type Class uint8

const (
	// ClassUnchanged marks pixels within the sensitivity threshold.
	ClassUnchanged Class = iota
	// ClassDifferent marks genuine content differences.
	ClassDifferent
	// ClassAntiAliased marks differences attributable to anti-aliasing.
	ClassAntiAliased
)

// ErrSizeMismatch is returned when the two surfaces differ in dimensions.
// Callers must resample before comparing; silently equalizing here would
// hide a contract violation.
var ErrSizeMismatch = errors.New("diff: surfaces have different dimensions")

// maxYIQDelta is the largest possible weighted YIQ distance between two
// 8-bit RGB colors, used to normalize magnitudes to [0,1].
const maxYIQDelta = 35215.0

// Result is a classified difference bitmap. It is derived data: recomputed
// whenever a source surface or the threshold changes, never persisted.
type Result struct {
	Width, Height  int
	Classification []Class
	// Magnitude holds the normalized perceptual distance in [0,1] per
	// pixel, for colormap lookup.
	Magnitude []float64
}

// Compare classifies the per-pixel difference between a and b.
// threshold in [0,1] sets the sensitivity; 0 flags any deviation.
func Compare(a, b *surface.Surface, threshold float64) (*Result, error) {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return nil, ErrSizeMismatch
	}

	w, h := a.Width(), a.Height()
	res := &Result{
		Width:          w,
		Height:         h,
		Classification: make([]Class, w*h),
		Magnitude:      make([]float64, w*h),
	}
	maxDelta := maxYIQDelta * threshold * threshold

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			delta := colorDelta(a, b, x, y)
			res.Magnitude[i] = delta / maxYIQDelta

			if delta <= maxDelta {
				continue // ClassUnchanged
			}
			if looksAntiAliased(a, b, x, y) || looksAntiAliased(b, a, x, y) {
				res.Classification[i] = ClassAntiAliased
			} else {
				res.Classification[i] = ClassDifferent
			}
		}
	}
	return res, nil
}

// colorDelta returns the weighted YIQ distance between the pixel at (x, y)
// in both surfaces. Semi-transparent pixels are blended onto white first.
func colorDelta(a, b *surface.Surface, x, y int) float64 {
	r1, g1, b1 := blendedRGB(a, x, y)
	r2, g2, b2 := blendedRGB(b, x, y)

	y1, i1, q1 := colorutil.RGBToYIQ(r1, g1, b1)
	y2, i2, q2 := colorutil.RGBToYIQ(r2, g2, b2)

	dy := y1 - y2
	di := i1 - i2
	dq := q1 - q2

	// Luma dominates, matching human perceptual sensitivity.
	return 0.5053*dy*dy + 0.299*di*di + 0.1957*dq*dq
}

// lumaDelta returns the signed luma difference between two pixels of the
// same surface, used for neighborhood contrast probing.
func lumaDelta(s *surface.Surface, x1, y1, x2, y2 int) float64 {
	r1, g1, b1 := blendedRGB(s, x1, y1)
	r2, g2, b2 := blendedRGB(s, x2, y2)
	return colorutil.Luma(r1, g1, b1) - colorutil.Luma(r2, g2, b2)
}

func blendedRGB(s *surface.Surface, x, y int) (r, g, b float64) {
	c := s.RGBAAt(x, y)
	r, g, b = float64(c.R), float64(c.G), float64(c.B)
	if c.A < 255 {
		alpha := float64(c.A) / 255
		r = 255 + (r-255)*alpha
		g = 255 + (g-255)*alpha
		b = 255 + (b-255)*alpha
	}
	return r, g, b
}

// looksAntiAliased reports whether the pixel at (x, y) in s is plausibly
// an anti-aliased edge pixel. The pixel must sit between a darker and a
// brighter neighbor (its color within the local min/max range), and the
// extreme neighbors must have many identical siblings in both surfaces,
// indicating a smooth gradient over a real edge rather than content.
func looksAntiAliased(s, other *surface.Surface, x, y int) bool {
	w, h := s.Width(), s.Height()

	zeroes := 0
	if x == 0 || x == w-1 || y == 0 || y == h-1 {
		zeroes++
	}

	var minDelta, maxDelta float64
	var minX, minY, maxX, maxY int

	for ny := y - 1; ny <= y+1; ny++ {
		for nx := x - 1; nx <= x+1; nx++ {
			if nx == x && ny == y {
				continue
			}
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}

			delta := lumaDelta(s, x, y, nx, ny)
			switch {
			case delta == 0:
				zeroes++
				// Too many identical siblings: flat area, not an edge.
				if zeroes > 2 {
					return false
				}
			case delta < minDelta:
				minDelta, minX, minY = delta, nx, ny
			case delta > maxDelta:
				maxDelta, maxX, maxY = delta, nx, ny
			}
		}
	}

	// No darker or no brighter neighbor: not sitting on a contrast edge.
	if minDelta == 0 || maxDelta == 0 {
		return false
	}

	return (hasManySiblings(s, minX, minY) && hasManySiblings(other, minX, minY)) ||
		(hasManySiblings(s, maxX, maxY) && hasManySiblings(other, maxX, maxY))
}

// hasManySiblings reports whether the pixel at (x, y) has more than two
// neighbors of exactly its own color.
func hasManySiblings(s *surface.Surface, x, y int) bool {
	w, h := s.Width(), s.Height()

	siblings := 0
	if x == 0 || x == w-1 || y == 0 || y == h-1 {
		siblings++
	}
	c := s.RGBAAt(x, y)

	for ny := y - 1; ny <= y+1; ny++ {
		for nx := x - 1; nx <= x+1; nx++ {
			if nx == x && ny == y {
				continue
			}
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if s.RGBAAt(nx, ny) == c {
				siblings++
				if siblings > 2 {
					return true
				}
			}
		}
	}
	return false
}
