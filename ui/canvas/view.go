// Package canvas provides the image panel widgets: synchronized grid
// panels and the curtain comparison view.
package canvas

import (
	"image"
	"image/draw"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"image-compare/internal/surface"
	"image-compare/internal/viewport"
	"image-compare/internal/viewsync"
	"image-compare/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// DefaultZoomStep is the zoom factor applied per wheel notch.
const DefaultZoomStep = 1.25

// ImageView is one grid panel: a raster showing a surface through its own
// viewport. Interaction is broadcast through the panel's sync group so
// every panel follows in lockstep.
type ImageView struct {
	widget.BaseWidget

	surface  *surface.Surface
	viewport *viewport.Viewport
	group    *viewsync.Group
	raster   *fynecanvas.Raster

	// ZoomStep is the zoom factor per wheel notch.
	ZoomStep float64

	// OnViewChanged is called after an interaction, so the window can
	// repaint the sibling panels that followed the broadcast.
	OnViewChanged func()
}

// NewImageView creates a panel for the given surface.
func NewImageView(s *surface.Surface) *ImageView {
	v := &ImageView{
		surface:  s,
		viewport: viewport.New(s.Size(), geometry.NewSize(400, 300)),
		ZoomStep: DefaultZoomStep,
	}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.ExtendBaseWidget(v)
	return v
}

// Viewport exposes the panel's viewport for sync group membership.
func (v *ImageView) Viewport() *viewport.Viewport { return v.viewport }

// SetGroup attaches the panel to a sync group. A nil group detaches it, so
// the panel pans and zooms alone.
func (v *ImageView) SetGroup(g *viewsync.Group) { v.group = g }

// CreateRenderer implements fyne.Widget.
func (v *ImageView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// Dragged pans the view, propagated to the group.
func (v *ImageView) Dragged(ev *fyne.DragEvent) {
	// Dragging the image right moves the pan center left.
	delta := geometry.NewPoint2D(-float64(ev.Dragged.DX), -float64(ev.Dragged.DY))
	v.apply(viewsync.Pan(delta))
}

// DragEnd implements fyne.Draggable.
func (v *ImageView) DragEnd() {}

// Scrolled zooms about the pointer, propagated to the group.
func (v *ImageView) Scrolled(ev *fyne.ScrollEvent) {
	step := v.ZoomStep
	if step <= 1 {
		step = DefaultZoomStep
	}
	factor := step
	if ev.Scrolled.DY < 0 {
		factor = 1 / step
	}
	at := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	v.apply(viewsync.ZoomAt(at, factor))
}

// ResetView refits the image, propagated to the group.
func (v *ImageView) ResetView() {
	v.apply(viewsync.Reset())
}

func (v *ImageView) apply(op viewsync.Op) {
	broadcast := false
	if v.group != nil {
		broadcast = v.group.Broadcast(v.viewport, op) == nil
	}
	if !broadcast {
		op(v.viewport)
	}
	v.Refresh()
	if v.OnViewChanged != nil {
		v.OnViewChanged()
	}
}

func (v *ImageView) draw(w, h int) image.Image {
	v.viewport.SetViewSize(geometry.NewSize(float64(w), float64(h)))
	return RenderSurface(v.surface, v.viewport, w, h)
}

// RenderSurface draws a surface through a viewport onto a black frame of
// the given size.
func RenderSurface(s *surface.Surface, vp *viewport.Viewport, w, h int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
	if s == nil || w <= 0 || h <= 0 {
		return frame
	}

	rect := vp.DisplayRect()
	dst := image.Rect(
		int(rect.X+0.5), int(rect.Y+0.5),
		int(rect.X+rect.Width+0.5), int(rect.Y+rect.Height+0.5),
	)
	if dst.Empty() {
		return frame
	}

	// Nearest neighbor keeps pixels crisp when magnified; Catmull-Rom
	// avoids aliasing when minified.
	var scaler xdraw.Scaler = xdraw.CatmullRom
	if vp.Zoom() > 1 {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(frame, dst, s.Image(), s.Image().Bounds(), draw.Src, nil)
	return frame
}
