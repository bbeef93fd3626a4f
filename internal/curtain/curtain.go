// Package curtain composites two surfaces side by side along a draggable
// vertical seam, sharing a single viewport so both halves pan and zoom as
// one. Only meaningful with exactly two images; anything else is a
// contract error.
package curtain

import (
	"errors"
	"image"
	"image/draw"

	"image-compare/internal/surface"
	"image-compare/internal/viewport"
	"image-compare/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// ErrMissingSurface is returned when Render is called without exactly two
// surfaces. The caller must not fall back silently; curtain mode is
// undefined for any other arity.
var ErrMissingSurface = errors.New("curtain: exactly two surfaces are required")

const (
	// DefaultHandleRadius is the seam handle hit radius in screen pixels.
	DefaultHandleRadius = 20.0

	// seamHalfWidth is half the smoothed seam band in screen pixels.
	seamHalfWidth = 1.0
)

// State holds the curtain's split position and the viewport shared by both
// surfaces. SplitRatio 0 shows only the right image, 1 only the left.
type State struct {
	SplitRatio   float64
	HandleRadius float64
	Viewport     *viewport.Viewport
}

// NewState builds curtain state for two surfaces in a view of the given
// size. The shared viewport spans the bounding size of both surfaces so a
// smaller image scrolls in lockstep with a larger one.
func NewState(left, right *surface.Surface, viewSize geometry.Size) (*State, error) {
	if left == nil || right == nil {
		return nil, ErrMissingSurface
	}
	union := left.Size().Union(right.Size())
	return &State{
		SplitRatio:   0.5,
		HandleRadius: DefaultHandleRadius,
		Viewport:     viewport.New(union, viewSize),
	}, nil
}

// Render produces the composited frame: both surfaces are letterboxed
// independently into the shared display rect (each keeps its own aspect
// ratio), then columns left of the seam take the left image and columns
// right of it the right image, with a smoothed antialiased seam between.
func Render(left, right *surface.Surface, state *State) (*image.RGBA, error) {
	if left == nil || right == nil {
		return nil, ErrMissingSurface
	}

	viewSize := state.Viewport.ViewSize()
	w, h := int(viewSize.Width), int(viewSize.Height)
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}

	rect := state.Viewport.DisplayRect()
	leftFrame := renderSide(left, rect, w, h, state.Viewport.Zoom())
	rightFrame := renderSide(right, rect, w, h, state.Viewport.Zoom())

	splitX := rect.X + rect.Width*state.SplitRatio
	out := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := y * out.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			// Weight of the left image: 1 left of the seam band, 0 right
			// of it, linear across the band.
			weight := geometry.Clamp((splitX-float64(x))/(2*seamHalfWidth)+0.5, 0, 1)
			switch weight {
			case 1:
				copy(out.Pix[i:i+4], leftFrame.Pix[i:i+4])
			case 0:
				copy(out.Pix[i:i+4], rightFrame.Pix[i:i+4])
			default:
				for c := 0; c < 3; c++ {
					lv := float64(leftFrame.Pix[i+c])
					rv := float64(rightFrame.Pix[i+c])
					out.Pix[i+c] = uint8(lv*weight + rv*(1-weight) + 0.5)
				}
				out.Pix[i+3] = 255
			}
		}
	}
	return out, nil
}

// RenderSingle draws one surface through the shared viewport, used for the
// difference-overlay sub-state where the composited seam is replaced by a
// single frame.
func RenderSingle(s *surface.Surface, state *State) (*image.RGBA, error) {
	if s == nil {
		return nil, ErrMissingSurface
	}
	viewSize := state.Viewport.ViewSize()
	w, h := int(viewSize.Width), int(viewSize.Height)
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0)), nil
	}
	return renderSide(s, state.Viewport.DisplayRect(), w, h, state.Viewport.Zoom()), nil
}

// renderSide scales one surface into its letterboxed portion of the
// display rect on a black frame. Nearest neighbor keeps individual pixels
// visible when zoomed in; Catmull-Rom smooths when zoomed out.
func renderSide(s *surface.Surface, displayRect geometry.Rect, w, h int, zoom float64) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}

	fit := displayRect.FitInside(s.Size().AspectRatio())
	dst := image.Rect(
		int(fit.X+0.5), int(fit.Y+0.5),
		int(fit.X+fit.Width+0.5), int(fit.Y+fit.Height+0.5),
	)
	if dst.Empty() {
		return frame
	}

	var scaler xdraw.Scaler = xdraw.CatmullRom
	if zoom > 1 {
		scaler = xdraw.NearestNeighbor
	}
	scaler.Scale(frame, dst, s.Image(), s.Image().Bounds(), draw.Src, nil)
	return frame
}

// SeamScreenX returns the seam's screen x position for the current state.
func SeamScreenX(state *State) float64 {
	rect := state.Viewport.DisplayRect()
	return rect.X + rect.Width*state.SplitRatio
}

// HitTestHandle reports whether a screen point grabs the seam handle,
// disambiguating "drag the seam" from "pan the image" on pointer-down.
func HitTestHandle(state *State, screenPt geometry.Point2D) bool {
	radius := state.HandleRadius
	if radius <= 0 {
		radius = DefaultHandleRadius
	}

	rect := state.Viewport.DisplayRect()
	viewSize := state.Viewport.ViewSize()
	handleY := geometry.Clamp(rect.Center().Y, radius, viewSize.Height-radius)
	handle := geometry.NewPoint2D(SeamScreenX(state), handleY)

	return screenPt.Distance(handle) <= radius
}

// SetSplitRatio positions the seam at the given screen x, mapped through
// the display rect and clamped to [0,1].
func SetSplitRatio(state *State, screenX float64) {
	rect := state.Viewport.DisplayRect()
	if rect.Width <= 0 {
		return
	}
	state.SplitRatio = geometry.Clamp((screenX-rect.X)/rect.Width, 0, 1)
}
