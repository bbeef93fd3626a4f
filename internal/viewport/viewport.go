// Package viewport provides per-view pan/zoom state and the coordinate
// transform between surface pixels and screen pixels.
package viewport

import (
	"image-compare/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the zoom factor to prevent degenerate
	// transforms.
	MinZoom = 0.05
	MaxZoom = 40.0

	// DefaultPanMargin is how far, as a fraction of the surface extent,
	// the pan center may travel beyond the surface bounds. The margin is
	// fractional so that clamping commutes with normalized sync
	// broadcasts across surfaces of different sizes.
	DefaultPanMargin = 0.45
)

// Viewport maps one surface into one on-screen view. The pan point is the
// surface pixel displayed at the view center; zoom is screen pixels per
// surface pixel.
//
// Viewports are mutated only by interaction handlers and sync broadcasts,
// never by render code, and only on the UI goroutine.
type Viewport struct {
	zoom        float64
	pan         geometry.Point2D
	viewSize    geometry.Size
	surfaceSize geometry.Size
	panMargin   float64
}

// New creates a viewport for a surface of the given native size shown in a
// view of the given screen size, fitted and centered.
func New(surfaceSize, viewSize geometry.Size) *Viewport {
	v := &Viewport{
		surfaceSize: surfaceSize,
		viewSize:    viewSize,
		panMargin:   DefaultPanMargin,
	}
	v.Reset()
	return v
}

// Zoom returns the current zoom factor.
func (v *Viewport) Zoom() float64 { return v.zoom }

// Pan returns the surface point currently mapped to the view center.
func (v *Viewport) Pan() geometry.Point2D { return v.pan }

// ViewSize returns the view size in screen pixels.
func (v *Viewport) ViewSize() geometry.Size { return v.viewSize }

// SurfaceSize returns the native size of the viewed surface.
func (v *Viewport) SurfaceSize() geometry.Size { return v.surfaceSize }

// SetViewSize updates the on-screen view size, keeping zoom and pan.
func (v *Viewport) SetViewSize(size geometry.Size) {
	v.viewSize = size
}

// SetState sets zoom and pan directly, applying the usual clamps. Used by
// sync broadcasts to install a propagated state.
func (v *Viewport) SetState(zoom float64, pan geometry.Point2D) {
	v.zoom = geometry.Clamp(zoom, MinZoom, MaxZoom)
	v.pan = pan
	v.clampPan()
}

// FitZoom returns the zoom that fits the whole surface inside the view
// while preserving aspect ratio.
func (v *Viewport) FitZoom() float64 {
	if v.surfaceSize.IsEmpty() || v.viewSize.IsEmpty() {
		return 1
	}
	zx := v.viewSize.Width / v.surfaceSize.Width
	zy := v.viewSize.Height / v.surfaceSize.Height
	z := zx
	if zy < zx {
		z = zy
	}
	return geometry.Clamp(z, MinZoom, MaxZoom)
}

// Reset fits the full surface inside the view and centers the pan.
func (v *Viewport) Reset() {
	v.zoom = v.FitZoom()
	v.pan = geometry.Point2D{
		X: v.surfaceSize.Width / 2,
		Y: v.surfaceSize.Height / 2,
	}
}

// PanBy translates the pan point by a screen-space delta. Dragging the
// image right by d screen pixels moves the pan center left by d/zoom
// surface pixels.
func (v *Viewport) PanBy(deltaScreen geometry.Point2D) {
	v.pan = v.pan.Add(deltaScreen.Scale(1 / v.zoom))
	v.clampPan()
}

// ZoomAt multiplies the zoom by factor (clamped), adjusting pan so the
// surface point under screenPt stays under screenPt.
func (v *Viewport) ZoomAt(screenPt geometry.Point2D, factor float64) {
	anchor := v.ScreenToSurface(screenPt)

	v.zoom = geometry.Clamp(v.zoom*factor, MinZoom, MaxZoom)

	// Solve pan so that anchor maps back to screenPt under the new zoom:
	// screenPt = (anchor - pan)*zoom + viewCenter.
	center := geometry.Point2D{X: v.viewSize.Width / 2, Y: v.viewSize.Height / 2}
	v.pan = anchor.Sub(screenPt.Sub(center).Scale(1 / v.zoom))
	v.clampPan()
}

// SurfaceToScreen maps a surface-pixel position to screen pixels.
func (v *Viewport) SurfaceToScreen(p geometry.Point2D) geometry.Point2D {
	return v.transform().Apply(p)
}

// ScreenToSurface maps a screen-pixel position to surface pixels. It is
// the exact inverse of SurfaceToScreen up to floating-point epsilon.
func (v *Viewport) ScreenToSurface(p geometry.Point2D) geometry.Point2D {
	inv, ok := v.transform().Inverse()
	if !ok {
		// Zoom is clamped above zero, so the transform is always invertible.
		return p
	}
	return inv.Apply(p)
}

// DisplayRect returns the screen rectangle covered by the full surface
// under the current transform.
func (v *Viewport) DisplayRect() geometry.Rect {
	tl := v.SurfaceToScreen(geometry.Point2D{})
	br := v.SurfaceToScreen(geometry.Point2D{X: v.surfaceSize.Width, Y: v.surfaceSize.Height})
	return geometry.NewRect(tl.X, tl.Y, br.X-tl.X, br.Y-tl.Y)
}

// transform builds the surface-to-screen affine transform:
// translate(-pan), scale(zoom), translate(view center).
func (v *Viewport) transform() geometry.AffineTransform {
	center := geometry.Translation(v.viewSize.Width/2, v.viewSize.Height/2)
	return center.
		Compose(geometry.Scaling(v.zoom)).
		Compose(geometry.Translation(-v.pan.X, -v.pan.Y))
}

// clampPan keeps the pan center within the surface bounds grown by the
// pan margin, so the image can never be lost off-screen indefinitely.
func (v *Viewport) clampPan() {
	mx := v.surfaceSize.Width * v.panMargin
	my := v.surfaceSize.Height * v.panMargin
	v.pan.X = geometry.Clamp(v.pan.X, -mx, v.surfaceSize.Width+mx)
	v.pan.Y = geometry.Clamp(v.pan.Y, -my, v.surfaceSize.Height+my)
}
