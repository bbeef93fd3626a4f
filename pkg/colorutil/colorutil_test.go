package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRGBToYIQGrayHasNoChroma(t *testing.T) {
	y, i, q := RGBToYIQ(128, 128, 128)
	assert.InDelta(t, 128.0, y, 0.5)
	assert.InDelta(t, 0.0, i, 0.01)
	assert.InDelta(t, 0.0, q, 0.01)
}

func TestLumaMatchesYIQ(t *testing.T) {
	y, _, _ := RGBToYIQ(200, 50, 90)
	assert.InDelta(t, y, Luma(200, 50, 90), 1e-12)
}

func TestHotColorEndpoints(t *testing.T) {
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, HotColor(0))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, HotColor(1))

	mid := HotColor(0.5)
	assert.Equal(t, uint8(255), mid.R)
	assert.Less(t, mid.G, uint8(255))
	assert.Equal(t, uint8(0), mid.B)

	// Out-of-range inputs clamp rather than wrap.
	assert.Equal(t, HotColor(0), HotColor(-3))
	assert.Equal(t, HotColor(1), HotColor(7))
}

func TestDim(t *testing.T) {
	dimmed := Dim(color.RGBA{200, 100, 40, 255}, 0.5)
	assert.Equal(t, color.RGBA{100, 50, 20, 255}, dimmed)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, Dim(White, 0))
}
