package diff

import (
	"image/color"
	"testing"

	"image-compare/internal/surface"
	"image-compare/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareIdenticalIsAllUnchanged(t *testing.T) {
	s := gradientSurface(40, 30)
	for _, threshold := range []float64{0, 0.1, 1} {
		res, err := Compare(s, s, threshold)
		require.NoError(t, err)
		for i, class := range res.Classification {
			require.Equal(t, ClassUnchanged, class, "pixel %d", i)
			require.Zero(t, res.Magnitude[i])
		}
	}
}

func TestCompareSolidRedVsBlue(t *testing.T) {
	red := surface.Solid(100, 100, colorutil.Red)
	blue := surface.Solid(100, 100, color.RGBA{0, 0, 255, 255})

	res, err := Compare(red, blue, 0.1)
	require.NoError(t, err)

	for i, class := range res.Classification {
		// No neighborhood variation in a solid color, so nothing can be
		// attributed to anti-aliasing.
		require.Equal(t, ClassDifferent, class, "pixel %d", i)
		require.Greater(t, res.Magnitude[i], 0.0)
	}
}

func TestCompareThresholdCutoffIsQuadratic(t *testing.T) {
	black := surface.Solid(4, 4, colorutil.Black)
	gray := surface.Solid(4, 4, color.RGBA{128, 128, 128, 255})

	// The pair's normalized magnitude is ~0.235. The sensitivity t cuts at
	// magnitude t squared, so t=0.5 absorbs the difference while t=0.48
	// (whose square is ~0.2304) still flags it.
	res, err := Compare(black, gray, 0.48)
	require.NoError(t, err)
	assert.Equal(t, ClassDifferent, res.Classification[0])
	assert.InDelta(t, 0.235, res.Magnitude[0], 0.001)

	res, err = Compare(black, gray, 0.5)
	require.NoError(t, err)
	assert.Equal(t, ClassUnchanged, res.Classification[0])
}

func TestCompareSymmetry(t *testing.T) {
	a := gradientSurface(32, 32)
	b := edgeSurface(32, 32)

	ab, err := Compare(a, b, 0.1)
	require.NoError(t, err)
	ba, err := Compare(b, a, 0.1)
	require.NoError(t, err)

	for i := range ab.Classification {
		assert.Equal(t, ab.Classification[i], ba.Classification[i], "pixel %d", i)
		assert.InDelta(t, ab.Magnitude[i], ba.Magnitude[i], 1e-12, "pixel %d", i)
	}
}

func TestCompareDeterminism(t *testing.T) {
	a := gradientSurface(16, 16)
	b := edgeSurface(16, 16)

	first, err := Compare(a, b, 0.05)
	require.NoError(t, err)
	second, err := Compare(a, b, 0.05)
	require.NoError(t, err)

	assert.Equal(t, first.Classification, second.Classification)
	assert.Equal(t, first.Magnitude, second.Magnitude)
}

func TestCompareSizeMismatch(t *testing.T) {
	a := surface.Solid(10, 10, colorutil.White)
	b := surface.Solid(10, 11, colorutil.White)
	_, err := Compare(a, b, 0.1)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestCompareThresholdSuppressesSmallDeltas(t *testing.T) {
	a := surface.Solid(10, 10, color.RGBA{100, 100, 100, 255})
	b := surface.Solid(10, 10, color.RGBA{104, 104, 104, 255})

	strict, err := Compare(a, b, 0)
	require.NoError(t, err)
	assert.Equal(t, ClassDifferent, strict.Classification[0])

	lenient, err := Compare(a, b, 0.3)
	require.NoError(t, err)
	assert.Equal(t, ClassUnchanged, lenient.Classification[0])
}

func TestAntiAliasedEdgeClassification(t *testing.T) {
	// A hard black/white vertical edge against the same edge with one
	// intermediate gray column: the gray column sits between darker and
	// brighter flat runs, the signature of anti-aliasing.
	w, h := 12, 12
	hard := twoToneSurface(w, h, 6, nil)
	gray := uint8(128)
	soft := twoToneSurface(w, h, 6, map[int]uint8{5: gray})

	res, err := Compare(hard, soft, 0.05)
	require.NoError(t, err)

	aa := 0
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			if res.Classification[y*w+x] == ClassAntiAliased {
				aa++
				assert.Equal(t, 5, x, "only the blended column may be anti-aliased")
			}
		}
	}
	assert.Greater(t, aa, 0, "expected anti-aliased pixels on the softened edge")
}

func TestRenderOverlay(t *testing.T) {
	red := surface.Solid(4, 4, colorutil.Red)
	blue := surface.Solid(4, 4, color.RGBA{0, 0, 255, 255})

	res, err := Compare(red, blue, 0.1)
	require.NoError(t, err)
	out := RenderOverlay(red, res)

	// Every pixel is Different with equal magnitude, so the ramp hits
	// its top: white.
	assert.Equal(t, colorutil.White, out.RGBAAt(0, 0))

	same, err := Compare(red, red, 0.1)
	require.NoError(t, err)
	dimmed := RenderOverlay(red, same)
	c := dimmed.RGBAAt(1, 1)
	assert.Less(t, c.R, uint8(255))
	assert.Greater(t, c.R, uint8(0))
	assert.Equal(t, uint8(0), c.G)
}

func TestSummarize(t *testing.T) {
	red := surface.Solid(10, 10, colorutil.Red)
	blue := surface.Solid(10, 10, color.RGBA{0, 0, 255, 255})

	res, err := Compare(red, blue, 0.1)
	require.NoError(t, err)
	stats := Summarize(res)
	assert.Equal(t, 100, stats.TotalPixels)
	assert.Equal(t, 100, stats.DifferentPixels)
	assert.Equal(t, 0, stats.AntiAliasedPixels)
	assert.InDelta(t, 100.0, stats.DiffPercentage, 1e-9)
}

// gradientSurface builds a smooth two-axis gradient.
func gradientSurface(w, h int) *surface.Surface {
	return buildSurface(w, h, func(x, y int) color.RGBA {
		return color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 60, 255}
	})
}

// edgeSurface builds a half-dark, half-light image split on the diagonal.
func edgeSurface(w, h int) *surface.Surface {
	return buildSurface(w, h, func(x, y int) color.RGBA {
		if x > y {
			return color.RGBA{230, 230, 230, 255}
		}
		return color.RGBA{25, 25, 25, 255}
	})
}

// twoToneSurface builds a black-left/white-right image split at column
// split, with optional per-column gray overrides.
func twoToneSurface(w, h, split int, overrides map[int]uint8) *surface.Surface {
	return buildSurface(w, h, func(x, y int) color.RGBA {
		if v, ok := overrides[x]; ok {
			return color.RGBA{v, v, v, 255}
		}
		if x < split {
			return color.RGBA{0, 0, 0, 255}
		}
		return color.RGBA{255, 255, 255, 255}
	})
}

func buildSurface(w, h int, at func(x, y int) color.RGBA) *surface.Surface {
	img := make([]uint8, 0, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := at(x, y)
			img = append(img, c.R, c.G, c.B, c.A)
		}
	}
	return surface.FromPix(w, h, img)
}
