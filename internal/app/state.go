// Package app provides application state, view mode transitions, and events.
package app

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"image-compare/internal/layout"
	"image-compare/internal/metrics"
	"image-compare/internal/surface"
	"image-compare/pkg/geometry"
)

// DefaultDiffThreshold is the perceptual sensitivity used until the user
// adjusts it.
const DefaultDiffThreshold = 0.1

// EventType identifies application events.
type EventType int

const (
	EventImagesChanged EventType = iota
	EventModeChanged
	EventLayoutChanged
	EventThresholdChanged
	EventMetricsToggled
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Image is one loaded image with its source path.
type Image struct {
	Path    string
	Surface *surface.Surface
}

// State holds the loaded images, the active view mode, and the comparison
// settings. All mutation happens on the UI goroutine; the metrics
// scheduler reads only immutable surfaces from the background.
type State struct {
	mu sync.RWMutex

	images []*Image
	mode   Mode

	diffThreshold  float64
	metricsEnabled bool

	scheduler *metrics.Scheduler

	listeners map[EventType][]EventListener
}

// NewState creates an application state in grid mode with no images.
func NewState(scheduler *metrics.Scheduler) *State {
	return &State{
		mode:          GridMode{Arrangement: layout.Default(0)},
		diffThreshold: DefaultDiffThreshold,
		scheduler:     scheduler,
		listeners:     make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// AddImage loads the image at path and appends it to the set. Adding an
// image while in curtain mode falls back to the grid, since the curtain
// pair is no longer the whole set.
func (s *State) AddImage(path string) error {
	loaded, err := surface.Load(path)
	if err != nil {
		return fmt.Errorf("add image: %w", err)
	}

	s.mu.Lock()
	s.images = append(s.images, &Image{Path: path, Surface: loaded})
	count := len(s.images)
	_, inCurtain := s.mode.(*CurtainMode)
	if inCurtain {
		s.mode = GridMode{Arrangement: layout.Default(count)}
	}
	s.mu.Unlock()

	log.Info().Str("path", path).Int("images", count).Msg("image added")
	if inCurtain {
		s.Emit(EventModeChanged, s.Mode())
	}
	s.Emit(EventImagesChanged, s.Images())
	s.resubmitMetrics()
	return nil
}

// RemoveLastImage drops the most recently added image, mirroring the
// add/remove pairing of the panel controls.
func (s *State) RemoveLastImage() {
	s.mu.Lock()
	if len(s.images) == 0 {
		s.mu.Unlock()
		return
	}
	removed := s.images[len(s.images)-1]
	s.images = s.images[:len(s.images)-1]
	count := len(s.images)
	if _, inCurtain := s.mode.(*CurtainMode); inCurtain {
		s.mode = GridMode{Arrangement: layout.Default(count)}
	}
	s.mu.Unlock()

	log.Info().Str("path", removed.Path).Int("images", count).Msg("image removed")
	s.Emit(EventImagesChanged, s.Images())
	s.resubmitMetrics()
}

// Images returns a snapshot of the loaded images in order. The last image
// is the ground truth for metric runs.
func (s *State) Images() []*Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Image, len(s.images))
	copy(out, s.images)
	return out
}

// Mode returns the active view mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// EnterCurtain switches to curtain mode. Fails unless exactly two images
// are loaded.
func (s *State) EnterCurtain(viewSize geometry.Size) error {
	s.mu.Lock()
	if len(s.images) != 2 {
		s.mu.Unlock()
		return ErrCurtainArity
	}
	mode, err := NewCurtainMode(s.images[0].Surface, s.images[1].Surface, viewSize)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.mode = mode
	s.mu.Unlock()

	log.Debug().Msg("entered curtain mode")
	s.Emit(EventModeChanged, mode)
	return nil
}

// ExitCurtain returns to the grid.
func (s *State) ExitCurtain() {
	s.mu.Lock()
	if _, ok := s.mode.(*CurtainMode); !ok {
		s.mu.Unlock()
		return
	}
	mode := GridMode{Arrangement: layout.Default(len(s.images))}
	s.mode = mode
	s.mu.Unlock()

	log.Debug().Msg("left curtain mode")
	s.Emit(EventModeChanged, mode)
}

// SetArrangement changes the grid arrangement. Ignored in curtain mode.
func (s *State) SetArrangement(o layout.Option) {
	s.mu.Lock()
	if _, ok := s.mode.(GridMode); !ok {
		s.mu.Unlock()
		return
	}
	s.mode = GridMode{Arrangement: o}
	s.mu.Unlock()

	s.Emit(EventLayoutChanged, o)
}

// DiffThreshold returns the current perceptual sensitivity.
func (s *State) DiffThreshold() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.diffThreshold
}

// SetDiffThreshold updates the perceptual sensitivity, clamped to [0,1].
func (s *State) SetDiffThreshold(t float64) {
	s.mu.Lock()
	s.diffThreshold = geometry.Clamp(t, 0, 1)
	t = s.diffThreshold
	s.mu.Unlock()

	s.Emit(EventThresholdChanged, t)
}

// MetricsEnabled reports whether background metric runs are on.
func (s *State) MetricsEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metricsEnabled
}

// SetMetricsEnabled toggles background metric runs, starting one over the
// current images when enabled and cancelling any run when disabled.
func (s *State) SetMetricsEnabled(enabled bool) {
	s.mu.Lock()
	s.metricsEnabled = enabled
	s.mu.Unlock()

	if !enabled && s.scheduler != nil {
		s.scheduler.Stop()
	}
	s.Emit(EventMetricsToggled, enabled)
	s.resubmitMetrics()
}

// resubmitMetrics restarts the metric run over the current image set when
// metrics are enabled and there is something to compare.
func (s *State) resubmitMetrics() {
	s.mu.RLock()
	enabled := s.metricsEnabled
	entries := make([]metrics.Entry, len(s.images))
	for i, img := range s.images {
		entries[i] = metrics.Entry{Path: img.Path, Surface: img.Surface}
	}
	s.mu.RUnlock()

	if !enabled || s.scheduler == nil {
		return
	}
	s.scheduler.Submit(entries)
}
