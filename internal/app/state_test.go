package app

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-compare/internal/layout"
	"image-compare/internal/metrics"
	"image-compare/internal/surface"
	"image-compare/pkg/geometry"
)

var testViewSize = geometry.NewSize(200, 200)

func writePNG(t *testing.T, name string, c color.RGBA, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func stateWithImages(t *testing.T, n int) *State {
	t.Helper()
	s := NewState(nil)
	for i := 0; i < n; i++ {
		path := writePNG(t, "img.png", color.RGBA{uint8(40 * i), 0, 0, 255}, 8, 8)
		require.NoError(t, s.AddImage(path))
	}
	return s
}

func TestAddImageRejectsMissingFile(t *testing.T) {
	s := NewState(nil)
	err := s.AddImage(filepath.Join(t.TempDir(), "absent.png"))
	assert.Error(t, err)
	assert.Empty(t, s.Images())
}

func TestEnterCurtainRequiresExactlyTwoImages(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		s := stateWithImages(t, n)
		err := s.EnterCurtain(testViewSize)
		assert.ErrorIs(t, err, ErrCurtainArity, "with %d images", n)
		assert.IsType(t, GridMode{}, s.Mode())
	}

	s := stateWithImages(t, 2)
	require.NoError(t, s.EnterCurtain(testViewSize))
	assert.IsType(t, &CurtainMode{}, s.Mode())
}

func TestAddImageLeavesCurtainMode(t *testing.T) {
	s := stateWithImages(t, 2)
	require.NoError(t, s.EnterCurtain(testViewSize))

	var modeEvents int
	s.On(EventModeChanged, func(interface{}) { modeEvents++ })

	path := writePNG(t, "third.png", color.RGBA{0, 200, 0, 255}, 8, 8)
	require.NoError(t, s.AddImage(path))

	grid, ok := s.Mode().(GridMode)
	require.True(t, ok, "three images cannot stay in curtain mode")
	assert.Equal(t, layout.Default(3), grid.Arrangement)
	assert.Equal(t, 1, modeEvents)
}

func TestRemoveLastImageLeavesCurtainMode(t *testing.T) {
	s := stateWithImages(t, 2)
	require.NoError(t, s.EnterCurtain(testViewSize))

	s.RemoveLastImage()
	assert.IsType(t, GridMode{}, s.Mode())
	assert.Len(t, s.Images(), 1)

	s.RemoveLastImage()
	s.RemoveLastImage() // empty set is a no-op
	assert.Empty(t, s.Images())
}

func TestSetArrangementOnlyInGrid(t *testing.T) {
	s := stateWithImages(t, 4)
	s.SetArrangement(layout.Option{Rows: 2, Cols: 2})
	assert.Equal(t, layout.Option{Rows: 2, Cols: 2}, s.Mode().(GridMode).Arrangement)
}

func TestSetDiffThresholdClamps(t *testing.T) {
	s := NewState(nil)
	var got float64
	s.On(EventThresholdChanged, func(data interface{}) { got = data.(float64) })

	s.SetDiffThreshold(1.7)
	assert.Equal(t, 1.0, s.DiffThreshold())
	assert.Equal(t, 1.0, got)

	s.SetDiffThreshold(-0.5)
	assert.Zero(t, s.DiffThreshold())
}

func TestCurtainDiffResultCaching(t *testing.T) {
	left := surface.Solid(10, 10, color.RGBA{255, 0, 0, 255})
	right := surface.Solid(10, 10, color.RGBA{0, 0, 255, 255})
	mode, err := NewCurtainMode(left, right, testViewSize)
	require.NoError(t, err)

	first, err := mode.DiffResult(0.1)
	require.NoError(t, err)
	again, err := mode.DiffResult(0.1)
	require.NoError(t, err)
	assert.Same(t, first, again, "unchanged threshold must reuse the cached result")

	other, err := mode.DiffResult(0.2)
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestCurtainOverlayUsesCommonSize(t *testing.T) {
	left := surface.Solid(10, 20, color.RGBA{255, 0, 0, 255})
	right := surface.Solid(20, 10, color.RGBA{0, 0, 255, 255})
	mode, err := NewCurtainMode(left, right, testViewSize)
	require.NoError(t, err)

	overlay, err := mode.OverlaySurface(0.1)
	require.NoError(t, err)
	assert.Equal(t, 20, overlay.Width())
	assert.Equal(t, 20, overlay.Height())
}

// passKernel scores everything identically; the scheduler wiring is what
// is under test here.
type passKernel struct{}

func (passKernel) Compare(img, ref *surface.Surface) (metrics.Scores, error) {
	return metrics.Scores{PSNR: metrics.Unbounded(), SSIM: metrics.Finite(1)}, nil
}

func TestMetricsToggleDrivesScheduler(t *testing.T) {
	sched := metrics.NewScheduler(passKernel{})
	s := NewState(sched)

	for i := 0; i < 2; i++ {
		path := writePNG(t, "img.png", color.RGBA{uint8(100 * i), 0, 0, 255}, 4, 4)
		require.NoError(t, s.AddImage(path))
	}

	s.SetMetricsEnabled(true)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sched.Events():
			if ev.Done {
				assert.Equal(t, 1, ev.Total)
				return
			}
		case <-deadline:
			t.Fatal("no metrics run after enabling")
		}
	}
}
