package canvas

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/rs/zerolog/log"

	"image-compare/internal/app"
	"image-compare/internal/curtain"
	"image-compare/pkg/geometry"
)

// CurtainView is the two-image comparison widget. Dragging the seam handle
// moves the curtain; dragging anywhere else pans the shared viewport. The
// difference overlay replaces the composited pair when toggled on.
type CurtainView struct {
	widget.BaseWidget

	mode   *app.CurtainMode
	raster *fynecanvas.Raster

	// Threshold supplies the current diff sensitivity at render time.
	Threshold func() float64

	// ZoomStep is the zoom factor per wheel notch.
	ZoomStep float64

	// Drag disambiguation: decided on the first drag event, held until
	// DragEnd so the seam does not slip out from under the pointer.
	dragActive bool
	dragOnSeam bool
}

// NewCurtainView creates the widget for an active curtain mode.
func NewCurtainView(mode *app.CurtainMode) *CurtainView {
	v := &CurtainView{
		mode:      mode,
		Threshold: func() float64 { return app.DefaultDiffThreshold },
		ZoomStep:  DefaultZoomStep,
	}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.ScaleMode = fynecanvas.ImageScalePixels
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *CurtainView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// Dragged moves either the seam or the shared viewport, depending on where
// the drag started.
func (v *CurtainView) Dragged(ev *fyne.DragEvent) {
	pos := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	if !v.dragActive {
		v.dragActive = true
		v.dragOnSeam = curtain.HitTestHandle(v.mode.Curtain, pos)
	}

	if v.dragOnSeam {
		curtain.SetSplitRatio(v.mode.Curtain, pos.X)
	} else {
		delta := geometry.NewPoint2D(-float64(ev.Dragged.DX), -float64(ev.Dragged.DY))
		v.mode.Curtain.Viewport.PanBy(delta)
	}
	v.Refresh()
}

// DragEnd implements fyne.Draggable.
func (v *CurtainView) DragEnd() {
	v.dragActive = false
	v.dragOnSeam = false
}

// Scrolled zooms the shared viewport about the pointer.
func (v *CurtainView) Scrolled(ev *fyne.ScrollEvent) {
	step := v.ZoomStep
	if step <= 1 {
		step = DefaultZoomStep
	}
	factor := step
	if ev.Scrolled.DY < 0 {
		factor = 1 / step
	}
	at := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	v.mode.Curtain.Viewport.ZoomAt(at, factor)
	v.Refresh()
}

// ResetView refits both images.
func (v *CurtainView) ResetView() {
	v.mode.Curtain.Viewport.Reset()
	v.Refresh()
}

func (v *CurtainView) draw(w, h int) image.Image {
	v.mode.Curtain.Viewport.SetViewSize(geometry.NewSize(float64(w), float64(h)))

	if v.mode.ShowDiff {
		overlay, err := v.mode.OverlaySurface(v.Threshold())
		if err != nil {
			log.Error().Err(err).Msg("diff overlay failed")
		} else {
			frame, err := curtain.RenderSingle(overlay, v.mode.Curtain)
			if err == nil {
				return frame
			}
			log.Error().Err(err).Msg("overlay render failed")
		}
	}

	frame, err := curtain.Render(v.mode.Left, v.mode.Right, v.mode.Curtain)
	if err != nil {
		log.Error().Err(err).Msg("curtain render failed")
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	v.drawHandle(frame)
	return frame
}

// drawHandle marks the seam with a thin line and a circular grab handle.
func (v *CurtainView) drawHandle(frame *image.RGBA) {
	state := v.mode.Curtain
	bounds := frame.Bounds()
	seamX := int(curtain.SeamScreenX(state) + 0.5)
	if seamX < bounds.Min.X || seamX >= bounds.Max.X {
		return
	}

	line := color.RGBA{255, 255, 255, 255}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		frame.SetRGBA(seamX, y, line)
	}

	radius := state.HandleRadius
	viewSize := state.Viewport.ViewSize()
	cy := geometry.Clamp(state.Viewport.DisplayRect().Center().Y, radius, viewSize.Height-radius)
	center := geometry.NewPoint2D(float64(seamX), cy)

	// Ring of ~2px thickness around the grab radius.
	r0, r1 := radius-1, radius+1
	minY, maxY := int(cy-r1)-1, int(cy+r1)+1
	for y := minY; y <= maxY; y++ {
		for x := seamX - int(r1) - 1; x <= seamX+int(r1)+1; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
				continue
			}
			d := center.Distance(geometry.NewPoint2D(float64(x), float64(y)))
			if d >= r0 && d <= r1 {
				frame.SetRGBA(x, y, line)
			}
		}
	}
}
