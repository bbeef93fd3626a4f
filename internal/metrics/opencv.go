package metrics

import (
	"fmt"
	"image"
	"math"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"image-compare/internal/surface"
)

// SSIM stabilization constants for 8-bit dynamic range.
const (
	ssimC1 = (0.01 * 255) * (0.01 * 255)
	ssimC2 = (0.03 * 255) * (0.03 * 255)
)

// OpenCVKernel computes PSNR and SSIM on grayscale-converted images, and
// delegates LPIPS to an optional perceptual scorer.
type OpenCVKernel struct {
	// Perceptual may be nil, in which case the LPIPS score is left invalid.
	Perceptual PerceptualScorer
}

// Compare scores img against ref. A mismatched img is resized to the
// reference dimensions first, so every row of a run is measured on the
// ground truth's raster.
func (k *OpenCVKernel) Compare(img, ref *surface.Surface) (Scores, error) {
	imgGray, err := grayValues(img, ref.Width(), ref.Height())
	if err != nil {
		return Scores{}, fmt.Errorf("prepare image: %w", err)
	}
	refGray, err := grayValues(ref, ref.Width(), ref.Height())
	if err != nil {
		return Scores{}, fmt.Errorf("prepare reference: %w", err)
	}

	return Scores{
		PSNR:  psnr(imgGray, refGray),
		SSIM:  ssim(imgGray, refGray),
		LPIPS: k.perceptualScore(img, ref),
	}, nil
}

// perceptualScore delegates to the optional scorer. A failing backend is
// logged and reported as an invalid measure rather than failing the row,
// matching the treatment of an absent backend.
func (k *OpenCVKernel) perceptualScore(img, ref *surface.Surface) Measure {
	if k.Perceptual == nil {
		return Invalid()
	}
	v, err := k.Perceptual.Score(img, ref)
	if err != nil {
		log.Warn().Err(err).Msg("perceptual scorer failed")
		return Invalid()
	}
	return Finite(v)
}

// grayValues converts a surface to grayscale at the given dimensions and
// returns the pixel values as floats.
func grayValues(s *surface.Surface, width, height int) ([]float64, error) {
	mat, err := gocv.ImageToMatRGBA(s.Image())
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorRGBAToGray)

	if gray.Cols() != width || gray.Rows() != height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(gray, &resized, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)
		resized.CopyTo(&gray)
	}

	raw := gray.ToBytes()
	values := make([]float64, len(raw))
	for i, b := range raw {
		values[i] = float64(b)
	}
	return values, nil
}

// psnr computes the peak signal-to-noise ratio in dB. Identical inputs
// have zero mean squared error, where the ratio diverges.
func psnr(img, ref []float64) Measure {
	if len(img) != len(ref) || len(img) == 0 {
		return Invalid()
	}

	sq := make([]float64, len(img))
	for i := range img {
		d := img[i] - ref[i]
		sq[i] = d * d
	}
	mse := stat.Mean(sq, nil)
	if mse == 0 {
		return Unbounded()
	}
	return Finite(20 * math.Log10(255/math.Sqrt(mse)))
}

// ssim computes a global structural similarity index from luminance,
// contrast and covariance statistics over the full image.
func ssim(img, ref []float64) Measure {
	if len(img) != len(ref) || len(img) == 0 {
		return Invalid()
	}

	meanX := stat.Mean(img, nil)
	meanY := stat.Mean(ref, nil)
	varX := stat.Variance(img, nil)
	varY := stat.Variance(ref, nil)
	cov := stat.Covariance(img, ref, nil)

	num := (2*meanX*meanY + ssimC1) * (2*cov + ssimC2)
	den := (meanX*meanX + meanY*meanY + ssimC1) * (varX + varY + ssimC2)
	if den == 0 {
		return Invalid()
	}
	return Finite(num / den)
}
