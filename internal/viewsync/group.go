// Package viewsync couples a set of viewports so pan/zoom on any one
// propagates to all, normalized for each surface's native resolution.
//
// Raw zoom and pan values are never copied between members directly: a
// 4000x3000 image and a 400x300 image scrolled together should show the
// same logical region of their own content, not the same pixel offset.
// State is therefore transformed into a common normalized space before
// propagation and denormalized per member.
package viewsync

import (
	"errors"
	"sync"

	"image-compare/internal/viewport"
	"image-compare/pkg/geometry"
)

// ErrGroupConflict is returned when a viewport is added to a group while
// it still belongs to another one. Group membership is exclusive.
var ErrGroupConflict = errors.New("viewsync: viewport already belongs to a sync group")

// ErrNotMember is returned when a broadcast originates from a viewport
// that is not part of the group.
var ErrNotMember = errors.New("viewsync: origin viewport is not a group member")

// Op is a pan or zoom operation applied to the origin viewport of a
// broadcast before its state is propagated.
type Op func(*viewport.Viewport)

// Pan returns an op translating the viewport by a screen-space delta.
func Pan(deltaScreen geometry.Point2D) Op {
	return func(v *viewport.Viewport) { v.PanBy(deltaScreen) }
}

// ZoomAt returns an op zooming the viewport toward a screen point.
func ZoomAt(screenPt geometry.Point2D, factor float64) Op {
	return func(v *viewport.Viewport) { v.ZoomAt(screenPt, factor) }
}

// Reset returns an op restoring the fitted, centered state.
func Reset() Op {
	return func(v *viewport.Viewport) { v.Reset() }
}

// membership tracks which group owns each viewport, enforcing exclusivity
// across all live groups.
var membership = struct {
	sync.Mutex
	owner map[*viewport.Viewport]*Group
}{owner: make(map[*viewport.Viewport]*Group)}

// State is a viewport state expressed in the group's normalized space.
type State struct {
	Zoom float64          // zoom scaled by memberMinSide/refMinSide
	Pan  geometry.Point2D // pan as a fraction of the surface extent
}

// Group couples an ordered set of viewports.
type Group struct {
	members       []*viewport.Viewport
	referenceSize geometry.Size
}

// NewGroup creates an empty sync group.
func NewGroup() *Group {
	return &Group{}
}

// Members returns the group's viewports in insertion order.
func (g *Group) Members() []*viewport.Viewport {
	return g.members
}

// ReferenceSize returns the bounding size of all member surfaces.
func (g *Group) ReferenceSize() geometry.Size {
	return g.referenceSize
}

// AddMember adds a viewport to the group and recomputes the reference
// size. The viewport must not belong to any other group. Raw member
// states are left untouched so no visual jump occurs; the next broadcast
// brings the new member into lockstep.
func (g *Group) AddMember(v *viewport.Viewport) error {
	membership.Lock()
	defer membership.Unlock()

	if owner, ok := membership.owner[v]; ok && owner != g {
		return ErrGroupConflict
	}
	membership.owner[v] = g

	g.members = append(g.members, v)
	g.recomputeReference()
	return nil
}

// RemoveMember removes a viewport from the group and recomputes the
// reference size. Removing a non-member is a no-op.
func (g *Group) RemoveMember(v *viewport.Viewport) {
	membership.Lock()
	defer membership.Unlock()

	for i, m := range g.members {
		if m == v {
			g.members = append(g.members[:i], g.members[i+1:]...)
			delete(membership.owner, v)
			break
		}
	}
	g.recomputeReference()
}

// Close releases all members so they may join another group. The group
// must not be used afterwards.
func (g *Group) Close() {
	membership.Lock()
	defer membership.Unlock()

	for _, m := range g.members {
		delete(membership.owner, m)
	}
	g.members = nil
	g.referenceSize = geometry.Size{}
}

// Broadcast applies op to the origin viewport, then installs the
// resulting normalized state on every other member. After it returns,
// all members report an equal normalized state.
func (g *Group) Broadcast(origin *viewport.Viewport, op Op) error {
	if !g.contains(origin) {
		return ErrNotMember
	}

	op(origin)
	norm := g.Normalize(origin)

	for _, m := range g.members {
		if m == origin {
			continue
		}
		g.apply(m, norm)
	}
	return nil
}

// Normalize returns the member's state in the group's normalized space.
func (g *Group) Normalize(v *viewport.Viewport) State {
	size := v.SurfaceSize()
	refMin := g.referenceSize.MinSide()
	if refMin == 0 || size.IsEmpty() {
		return State{Zoom: v.Zoom()}
	}
	return State{
		Zoom: v.Zoom() * size.MinSide() / refMin,
		Pan:  v.Pan().DivSize(size),
	}
}

// apply installs a normalized state onto a member, denormalized for its
// own surface size.
func (g *Group) apply(v *viewport.Viewport, s State) {
	size := v.SurfaceSize()
	minSide := size.MinSide()
	if minSide == 0 {
		return
	}
	zoom := s.Zoom * g.referenceSize.MinSide() / minSide
	v.SetState(zoom, s.Pan.MulSize(size))
}

func (g *Group) contains(v *viewport.Viewport) bool {
	for _, m := range g.members {
		if m == v {
			return true
		}
	}
	return false
}

// recomputeReference sets the reference size to the bounding size of all
// current member surfaces. Callers hold the membership lock.
func (g *Group) recomputeReference() {
	var ref geometry.Size
	for _, m := range g.members {
		ref = ref.Union(m.SurfaceSize())
	}
	g.referenceSize = ref
}
