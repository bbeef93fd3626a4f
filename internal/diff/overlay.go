package diff

import (
	"image"

	"image-compare/internal/surface"
	"image-compare/pkg/colorutil"
)

// unchangedDim is how far unchanged pixels are dimmed toward black in the
// overlay, preserving enough context to locate the differences.
const unchangedDim = 0.3

// RenderOverlay produces the difference visualization frame for a result
// computed against base: Different pixels follow the hot red-yellow-white
// ramp by magnitude, AntiAliased pixels are flat yellow, Unchanged pixels
// show the base image dimmed toward black.
func RenderOverlay(base *surface.Surface, res *Result) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))

	// Ramp is scaled against the strongest difference present so the
	// faintest flagged pixel still reads as red.
	maxMag := 0.0
	for i, class := range res.Classification {
		if class == ClassDifferent && res.Magnitude[i] > maxMag {
			maxMag = res.Magnitude[i]
		}
	}

	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			i := y*res.Width + x
			switch res.Classification[i] {
			case ClassDifferent:
				t := 1.0
				if maxMag > 0 {
					t = res.Magnitude[i] / maxMag
				}
				out.SetRGBA(x, y, colorutil.HotColor(0.33+0.67*t))
			case ClassAntiAliased:
				out.SetRGBA(x, y, colorutil.Yellow)
			default:
				out.SetRGBA(x, y, colorutil.Dim(base.RGBAAt(x, y), unchangedDim))
			}
		}
	}
	return out
}

// Stats summarizes a result for status reporting.
type Stats struct {
	TotalPixels       int
	DifferentPixels   int
	AntiAliasedPixels int
	DiffPercentage    float64
}

// Summarize counts the classified pixels of a result.
func Summarize(res *Result) Stats {
	s := Stats{TotalPixels: res.Width * res.Height}
	for _, class := range res.Classification {
		switch class {
		case ClassDifferent:
			s.DifferentPixels++
		case ClassAntiAliased:
			s.AntiAliasedPixels++
		}
	}
	if s.TotalPixels > 0 {
		s.DiffPercentage = float64(s.DifferentPixels) / float64(s.TotalPixels) * 100
	}
	return s
}
