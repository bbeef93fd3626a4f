package app

import (
	"errors"
	"fmt"

	"image-compare/internal/curtain"
	"image-compare/internal/diff"
	"image-compare/internal/layout"
	"image-compare/internal/surface"
	"image-compare/pkg/geometry"
)

// ErrCurtainArity is returned when curtain mode is requested with a number
// of loaded images other than two.
var ErrCurtainArity = errors.New("curtain mode requires exactly two images")

// Mode is the exclusive view mode of the main window. Exactly one mode is
// active at a time; the difference overlay exists only as a sub-state of
// curtain mode, so it cannot be toggled from the grid.
type Mode interface {
	ModeName() string
}

// GridMode shows all loaded images in a grid of synchronized panels.
type GridMode struct {
	Arrangement layout.Option
}

// ModeName implements Mode.
func (GridMode) ModeName() string { return "grid" }

// CurtainMode shows two images under a draggable seam, optionally replaced
// by the difference overlay. Construction is the only way to enter it, and
// construction enforces the two-image requirement.
type CurtainMode struct {
	Left    *surface.Surface
	Right   *surface.Surface
	Curtain *curtain.State

	// ShowDiff switches the seam view for the difference overlay.
	ShowDiff bool

	// Cached diff for the threshold it was computed at. Both surfaces are
	// immutable, so the cache only invalidates on threshold change.
	diffResult    *diff.Result
	diffThreshold float64
}

// ModeName implements Mode.
func (*CurtainMode) ModeName() string { return "curtain" }

// NewCurtainMode enters curtain mode over the given images.
func NewCurtainMode(left, right *surface.Surface, viewSize geometry.Size) (*CurtainMode, error) {
	state, err := curtain.NewState(left, right, viewSize)
	if err != nil {
		return nil, ErrCurtainArity
	}
	return &CurtainMode{Left: left, Right: right, Curtain: state}, nil
}

// DiffResult computes or returns the cached classification of the two
// images at the given threshold. Mismatched images are resampled to their
// common bounding size first.
func (m *CurtainMode) DiffResult(threshold float64) (*diff.Result, error) {
	if m.diffResult != nil && m.diffThreshold == threshold {
		return m.diffResult, nil
	}

	size := m.Left.Size().Union(m.Right.Size())
	w, h := int(size.Width), int(size.Height)
	left := m.Left.Resample(w, h)
	right := m.Right.Resample(w, h)

	res, err := diff.Compare(left, right, threshold)
	if err != nil {
		return nil, fmt.Errorf("compute diff: %w", err)
	}
	m.diffResult = res
	m.diffThreshold = threshold
	return res, nil
}

// OverlaySurface renders the difference overlay at the given threshold,
// using the left image as the dimmed backdrop for unchanged pixels.
func (m *CurtainMode) OverlaySurface(threshold float64) (*surface.Surface, error) {
	res, err := m.DiffResult(threshold)
	if err != nil {
		return nil, err
	}
	base := m.Left.Resample(res.Width, res.Height)
	return surface.FromImage(diff.RenderOverlay(base, res)), nil
}
