// Package surface provides immutable decoded image rasters.
//
// A Surface is the unit of pixel data everywhere in the application: the
// grid views, the curtain compositor, the diff engine, and the metric
// kernels all read from the same buffers. Surfaces are never mutated after
// construction, so the render path and background workers may read them
// concurrently without locking. Reloading an image produces a new Surface;
// in-flight readers keep the old buffer alive until they finish.
package surface

import (
	"image"
	"image/color"
	"image/draw"

	"image-compare/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// Surface is an immutable RGBA raster with its native dimensions.
type Surface struct {
	width  int
	height int
	pix    []uint8 // row-major RGBA, 4 bytes per pixel
}

// FromImage normalizes any decoded image into a Surface.
func FromImage(img image.Image) *Surface {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	rgba, ok := img.(*image.RGBA)
	if !ok || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	return &Surface{width: w, height: h, pix: rgba.Pix}
}

// FromPix wraps a row-major RGBA buffer as a Surface. The buffer must hold
// width*height*4 bytes; ownership transfers to the surface.
func FromPix(width, height int, pix []uint8) *Surface {
	return &Surface{width: width, height: height, pix: pix}
}

// Solid returns a uniformly colored surface.
func Solid(width, height int, c color.RGBA) *Surface {
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	return &Surface{width: width, height: height, pix: pix}
}

// Width returns the native width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the native height in pixels.
func (s *Surface) Height() int { return s.height }

// Size returns the native dimensions.
func (s *Surface) Size() geometry.Size {
	return geometry.NewSize(float64(s.width), float64(s.height))
}

// Pix exposes the raw RGBA buffer. Callers must treat it as read-only.
func (s *Surface) Pix() []uint8 { return s.pix }

// RGBAAt returns the pixel at (x, y). Out-of-bounds coordinates yield black.
func (s *Surface) RGBAAt(x, y int) color.RGBA {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return color.RGBA{A: 255}
	}
	i := (y*s.width + x) * 4
	return color.RGBA{R: s.pix[i], G: s.pix[i+1], B: s.pix[i+2], A: s.pix[i+3]}
}

// Image returns an image.RGBA view backed by the surface buffer.
// The view shares storage with the surface; callers must not draw into it.
func (s *Surface) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    s.pix,
		Stride: s.width * 4,
		Rect:   image.Rect(0, 0, s.width, s.height),
	}
}

// Resample returns a new surface scaled to the given dimensions using
// Catmull-Rom interpolation. The receiver is unchanged.
func (s *Surface) Resample(width, height int) *Surface {
	if width == s.width && height == s.height {
		return s
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), s.Image(), s.Image().Bounds(), xdraw.Src, nil)
	return &Surface{width: width, height: height, pix: dst.Pix}
}
