package surface

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromImageNormalizesOffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 20, 14, 23))
	src.SetRGBA(10, 20, color.RGBA{255, 0, 0, 255})
	src.SetRGBA(13, 22, color.RGBA{0, 0, 255, 255})

	s := FromImage(src)
	assert.Equal(t, 4, s.Width())
	assert.Equal(t, 3, s.Height())
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, s.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, s.RGBAAt(3, 2))
}

func TestRGBAAtOutOfBounds(t *testing.T) {
	s := Solid(2, 2, color.RGBA{10, 20, 30, 255})
	assert.Equal(t, color.RGBA{A: 255}, s.RGBAAt(-1, 0))
	assert.Equal(t, color.RGBA{A: 255}, s.RGBAAt(2, 0))
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, s.RGBAAt(1, 1))
}

func TestResampleSolidStaysSolid(t *testing.T) {
	s := Solid(100, 50, color.RGBA{40, 80, 120, 255})
	small := s.Resample(25, 10)

	require.Equal(t, 25, small.Width())
	require.Equal(t, 10, small.Height())
	for y := 0; y < small.Height(); y++ {
		for x := 0; x < small.Width(); x++ {
			c := small.RGBAAt(x, y)
			assert.InDelta(t, 40, int(c.R), 1)
			assert.InDelta(t, 80, int(c.G), 1)
			assert.InDelta(t, 120, int(c.B), 1)
		}
	}

	// Same dimensions short-circuits to the receiver.
	assert.Same(t, s, s.Resample(100, 50))
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.png")

	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := 0; y < 6; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 30), uint8(y * 40), 9, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, s.Width())
	assert.Equal(t, 6, s.Height())
	assert.Equal(t, color.RGBA{60, 80, 9, 255}, s.RGBAAt(2, 2))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "corrupt.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("a/b/photo.PNG"))
	assert.True(t, IsSupportedFormat("scan.tif"))
	assert.False(t, IsSupportedFormat("notes.txt"))
}
