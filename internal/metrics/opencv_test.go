package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"image-compare/internal/surface"
	"image-compare/pkg/colorutil"
)

// stubScorer is a canned perceptual backend.
type stubScorer struct {
	value float64
	err   error
}

func (s stubScorer) Score(img, ref *surface.Surface) (float64, error) {
	return s.value, s.err
}

func TestPerceptualScoreDelegation(t *testing.T) {
	a := surface.Solid(2, 2, colorutil.Red)

	noBackend := &OpenCVKernel{}
	assert.False(t, noBackend.perceptualScore(a, a).Valid)

	failing := &OpenCVKernel{Perceptual: stubScorer{err: errors.New("backend unreachable")}}
	assert.False(t, failing.perceptualScore(a, a).Valid)

	working := &OpenCVKernel{Perceptual: stubScorer{value: 0.25}}
	got := working.perceptualScore(a, a)
	assert.True(t, got.Valid)
	assert.Equal(t, 0.25, got.Value)
}
