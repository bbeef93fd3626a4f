// Package colorutil provides shared color utilities for the image comparison application.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Red    = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}
)

// RGBToYIQ converts RGB (0-255) to the NTSC YIQ color space. Y is luma,
// I and Q are the chroma axes. Perceptual pixel comparison weights Y most
// heavily, matching human sensitivity to brightness over color.
func RGBToYIQ(r, g, b float64) (y, i, q float64) {
	y = 0.29889531*r + 0.58662247*g + 0.11448223*b
	i = 0.59597799*r - 0.27417610*g - 0.32180189*b
	q = 0.21147017*r - 0.52261711*g + 0.31114694*b
	return y, i, q
}

// Luma returns the Y component of RGBToYIQ.
func Luma(r, g, b float64) float64 {
	return 0.29889531*r + 0.58662247*g + 0.11448223*b
}

// HotColor maps t in [0,1] onto the "hot" colormap ramp:
// black -> red (0.33) -> yellow (0.66) -> white (1.0).
func HotColor(t float64) color.RGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	var r, g, b float64
	switch {
	case t < 0.33:
		r = t / 0.33
	case t < 0.66:
		r = 1
		g = (t - 0.33) / 0.33
	default:
		r = 1
		g = 1
	}
	if t >= 0.8 {
		b = (t - 0.8) / 0.2
	}

	return color.RGBA{
		R: uint8(r*255 + 0.5),
		G: uint8(g*255 + 0.5),
		B: uint8(b*255 + 0.5),
		A: 255,
	}
}

// Dim scales an RGB color toward black by the given factor in [0,1].
func Dim(c color.RGBA, factor float64) color.RGBA {
	if factor < 0 {
		factor = 0
	} else if factor > 1 {
		factor = 1
	}
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: 255,
	}
}
