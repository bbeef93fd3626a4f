// Package metrics computes whole-image quality scores against a ground
// truth image and schedules the computation off the UI goroutine.
package metrics

import (
	"strconv"

	"image-compare/internal/surface"
)

// Measure is one metric value. Infinite marks an exact match for metrics
// that diverge there (PSNR of identical images); Valid is false when the
// metric could not be computed at all, which keeps sentinel NaNs out of
// the result rows.
type Measure struct {
	Value    float64
	Infinite bool
	Valid    bool
}

// Finite wraps a computed value.
func Finite(v float64) Measure { return Measure{Value: v, Valid: true} }

// Unbounded marks a metric that diverged on an exact match.
func Unbounded() Measure { return Measure{Infinite: true, Valid: true} }

// Invalid marks a metric that could not be computed.
func Invalid() Measure { return Measure{} }

func (m Measure) String() string {
	if !m.Valid {
		return "n/a"
	}
	if m.Infinite {
		return "inf"
	}
	return strconv.FormatFloat(m.Value, 'f', 4, 64)
}

// Scores holds all metrics of one image against the ground truth.
type Scores struct {
	PSNR  Measure
	SSIM  Measure
	LPIPS Measure
}

// Kernel computes the scores of img against ref. Implementations must be
// safe for use from a single background goroutine at a time.
type Kernel interface {
	Compare(img, ref *surface.Surface) (Scores, error)
}

// PerceptualScorer is an optional collaborator producing a learned
// perceptual distance (LPIPS). No in-process implementation ships here;
// deployments wire one backed by an external scoring service. When absent,
// the LPIPS column stays invalid rather than faking a number.
type PerceptualScorer interface {
	Score(img, ref *surface.Surface) (float64, error)
}
