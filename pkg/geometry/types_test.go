package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAffineTransformInverseRoundTrip(t *testing.T) {
	transforms := []AffineTransform{
		Identity(),
		Translation(12.5, -3.75),
		Scaling(2.5),
		Scaling(0.125).Compose(Translation(-40, 17)),
		Translation(300, 200).Compose(Scaling(8)),
	}
	points := []Point2D{
		{0, 0}, {1, 1}, {-17.3, 42.9}, {1999.5, 0.001},
	}

	for _, tr := range transforms {
		inv, ok := tr.Inverse()
		require.True(t, ok)
		for _, p := range points {
			back := inv.Apply(tr.Apply(p))
			assert.InDelta(t, p.X, back.X, 1e-9)
			assert.InDelta(t, p.Y, back.Y, 1e-9)
		}
	}
}

func TestAffineTransformInverseDegenerate(t *testing.T) {
	_, ok := AffineTransform{}.Inverse()
	assert.False(t, ok, "zero transform has no inverse")
}

func TestFitInside(t *testing.T) {
	outer := NewRect(0, 0, 800, 600)

	wide := outer.FitInside(4.0) // wider than the container
	assert.InDelta(t, 800.0, wide.Width, 1e-9)
	assert.InDelta(t, 200.0, wide.Height, 1e-9)
	assert.InDelta(t, 200.0, wide.Y, 1e-9)

	tall := outer.FitInside(0.5) // taller than the container
	assert.InDelta(t, 300.0, tall.Width, 1e-9)
	assert.InDelta(t, 600.0, tall.Height, 1e-9)
	assert.InDelta(t, 250.0, tall.X, 1e-9)

	exact := outer.FitInside(800.0 / 600.0)
	assert.InDelta(t, 800.0, exact.Width, 1e-9)
	assert.InDelta(t, 600.0, exact.Height, 1e-9)
}

func TestSizeHelpers(t *testing.T) {
	a := NewSize(4000, 3000)
	b := NewSize(400, 3600)

	assert.Equal(t, 3000.0, a.MinSide())
	assert.Equal(t, Size{Width: 4000, Height: 3600}, a.Union(b))
	assert.False(t, a.IsEmpty())
	assert.True(t, NewSize(0, 10).IsEmpty())

	p := NewPoint2D(2000, 1500)
	frac := p.DivSize(a)
	assert.InDelta(t, 0.5, frac.X, 1e-9)
	assert.InDelta(t, 0.5, frac.Y, 1e-9)
	assert.Equal(t, p, frac.MulSize(a))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Clamp(5, 0, 1))
	assert.Equal(t, 0.0, Clamp(-5, 0, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
}
