package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-compare/internal/surface"
	"image-compare/pkg/colorutil"
)

// fakeKernel records comparisons and fails for configured paths. The
// surfaces double as identity markers, so the recorded refs prove which
// entry served as ground truth.
type fakeKernel struct {
	mu    sync.Mutex
	refs  []*surface.Surface
	fail  map[*surface.Surface]bool
	block chan struct{}
}

func (k *fakeKernel) Compare(img, ref *surface.Surface) (Scores, error) {
	if k.block != nil {
		<-k.block
	}
	k.mu.Lock()
	k.refs = append(k.refs, ref)
	fail := k.fail[img]
	k.mu.Unlock()

	if fail {
		return Scores{}, errors.New("decode failed")
	}
	return Scores{PSNR: Finite(30), SSIM: Finite(0.9)}, nil
}

func entriesOf(surfaces ...*surface.Surface) []Entry {
	entries := make([]Entry, len(surfaces))
	for i, s := range surfaces {
		entries[i] = Entry{Path: string(rune('a' + i)), Surface: s}
	}
	return entries
}

func collectRun(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var run []Event
	for {
		select {
		case ev := <-events:
			run = append(run, ev)
			if ev.Done {
				return run
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for run to finish")
		}
	}
}

func TestSchedulerEmitsRowsInOrderThenDone(t *testing.T) {
	kernel := &fakeKernel{}
	sched := NewScheduler(kernel)

	a := surface.Solid(2, 2, colorutil.Red)
	b := surface.Solid(2, 2, colorutil.White)
	c := surface.Solid(2, 2, colorutil.Black)
	sched.Submit(entriesOf(a, b, c))

	run := collectRun(t, sched.Events())
	require.Len(t, run, 3)
	for i := 0; i < 2; i++ {
		assert.Equal(t, i, run[i].Index)
		assert.Equal(t, 2, run[i].Total)
		assert.False(t, run[i].Done)
		assert.NoError(t, run[i].Row.Err)
	}
	assert.True(t, run[2].Done)

	// The last submitted image is the ground truth for every row and is
	// never scored against itself.
	require.Len(t, kernel.refs, 2)
	for _, ref := range kernel.refs {
		assert.Same(t, c, ref)
	}
}

func TestSchedulerContinuesPastFailedRow(t *testing.T) {
	a := surface.Solid(2, 2, colorutil.Red)
	b := surface.Solid(2, 2, colorutil.White)
	c := surface.Solid(2, 2, colorutil.Black)
	kernel := &fakeKernel{fail: map[*surface.Surface]bool{b: true}}
	sched := NewScheduler(kernel)

	sched.Submit(entriesOf(a, b, c))
	run := collectRun(t, sched.Events())

	require.Len(t, run, 3)
	assert.NoError(t, run[0].Row.Err)
	assert.Error(t, run[1].Row.Err)
	assert.False(t, run[1].Row.Scores.PSNR.Valid)
	assert.True(t, run[2].Done)
}

func TestSchedulerRejectsSingleEntry(t *testing.T) {
	kernel := &fakeKernel{}
	sched := NewScheduler(kernel)

	sched.Submit(entriesOf(surface.Solid(2, 2, colorutil.Red)))

	select {
	case ev := <-sched.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSchedulerResubmitSupersedesRun(t *testing.T) {
	gate := make(chan struct{})
	kernel := &fakeKernel{block: gate}
	sched := NewScheduler(kernel)

	a := surface.Solid(2, 2, colorutil.Red)
	b := surface.Solid(2, 2, colorutil.White)
	sched.Submit(entriesOf(a, b))

	// Supersede the blocked run, then let all comparisons through. The
	// first run was cancelled while blocked, so it must not emit at all.
	sched.Submit(entriesOf(b, a))
	close(gate)

	run := collectRun(t, sched.Events())
	require.Len(t, run, 2)
	for _, ev := range run {
		assert.Equal(t, uint64(2), ev.Generation)
	}
	assert.True(t, run[1].Done)
}

func TestSchedulerDropsBufferedStaleEvents(t *testing.T) {
	kernel := &fakeKernel{}
	sched := NewScheduler(kernel)

	a := surface.Solid(2, 2, colorutil.Red)
	b := surface.Solid(2, 2, colorutil.White)
	c := surface.Solid(2, 2, colorutil.Black)

	// Let the first run finish with nobody draining, so its row and Done
	// events sit in the channel buffer when the second run starts.
	sched.Submit(entriesOf(a, b))
	deadline := time.Now().Add(2 * time.Second)
	for len(sched.Events()) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("first run never buffered its events")
		}
		time.Sleep(time.Millisecond)
	}

	sched.Submit(entriesOf(a, b, c))
	assert.Equal(t, uint64(2), sched.Generation())

	// Drain the way a consumer would, keeping only current-generation
	// events. The stale row and stale Done must be identifiable and
	// droppable; the current run still arrives in full behind them.
	var kept []Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sched.Events():
			if ev.Generation != sched.Generation() {
				continue
			}
			kept = append(kept, ev)
			if ev.Done {
				require.Len(t, kept, 3)
				assert.Equal(t, 2, kept[0].Total)
				return
			}
		case <-timeout:
			t.Fatal("current run never completed")
		}
	}
}

func TestSchedulerStopSilencesRun(t *testing.T) {
	gate := make(chan struct{})
	kernel := &fakeKernel{block: gate}
	sched := NewScheduler(kernel)

	a := surface.Solid(2, 2, colorutil.Red)
	b := surface.Solid(2, 2, colorutil.White)
	sched.Submit(entriesOf(a, b))
	sched.Stop()
	close(gate)

	// The run was cancelled while its comparison was blocked, so nothing
	// may be emitted once it resumes.
	select {
	case ev := <-sched.Events():
		t.Fatalf("unexpected event after stop: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestMeasureString(t *testing.T) {
	assert.Equal(t, "n/a", Invalid().String())
	assert.Equal(t, "inf", Unbounded().String())
	assert.Equal(t, "31.5000", Finite(31.5).String())
}
