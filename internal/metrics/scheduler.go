package metrics

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"image-compare/internal/surface"
)

// Entry is one image submitted for scoring.
type Entry struct {
	Path    string
	Surface *surface.Surface
}

// Row is the outcome for one entry. A failed row carries its error and
// invalid scores; the run continues past it.
type Row struct {
	Path   string
	Scores Scores
	Err    error
}

// Event is emitted once per completed row and once at the end of a run.
// Total counts the scored rows, which excludes the ground truth entry.
// Generation identifies the run; consumers drop events from superseded
// generations.
type Event struct {
	Generation uint64
	Row        Row
	Index      int
	Total      int
	Done       bool
}

// Scheduler runs metric computations on a background goroutine, one run at
// a time. Submitting a new image set cancels the run in flight; the ground
// truth is always the last entry of the submitted set.
type Scheduler struct {
	kernel Kernel
	events chan Event

	mu         sync.Mutex
	cancel     context.CancelFunc
	generation uint64
}

// NewScheduler creates an idle scheduler around the given kernel.
func NewScheduler(kernel Kernel) *Scheduler {
	return &Scheduler{
		kernel: kernel,
		events: make(chan Event, 16),
	}
}

// Events returns the stream of progress events. The channel is never
// closed; consumers select on it alongside their own shutdown signal.
// Events from a superseded run can remain buffered after a new Submit;
// consumers must drop any event whose Generation differs from
// Generation().
func (s *Scheduler) Events() <-chan Event {
	return s.events
}

// Generation returns the identifier of the most recently submitted run.
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Submit starts a new run over the given entries, cancelling any run in
// flight. Fewer than two entries means there is nothing to compare against
// and the call is a no-op.
func (s *Scheduler) Submit(entries []Entry) {
	if len(entries) < 2 {
		return
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	go s.run(ctx, gen, entries)
}

// Stop cancels the run in flight, if any.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Scheduler) run(ctx context.Context, gen uint64, entries []Entry) {
	// Last entry is the ground truth; it is not scored against itself.
	groundTruth := entries[len(entries)-1]
	rows := entries[:len(entries)-1]
	log.Debug().
		Uint64("generation", gen).
		Int("images", len(rows)).
		Str("ground_truth", groundTruth.Path).
		Msg("metrics run started")

	for i, entry := range rows {
		if ctx.Err() != nil {
			return
		}

		row := Row{Path: entry.Path}
		row.Scores, row.Err = s.kernel.Compare(entry.Surface, groundTruth.Surface)
		if row.Err != nil {
			log.Warn().Err(row.Err).Str("path", entry.Path).Msg("metrics row failed")
		}

		if !s.emit(ctx, Event{Generation: gen, Row: row, Index: i, Total: len(rows)}) {
			return
		}
	}

	s.emit(ctx, Event{Generation: gen, Total: len(rows), Done: true})
}

// emit delivers an event unless the run was cancelled. The cancellation
// check comes first so a superseded run stops producing even while buffer
// space remains; events already buffered are filtered out by consumers
// comparing generations.
func (s *Scheduler) emit(ctx context.Context, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
