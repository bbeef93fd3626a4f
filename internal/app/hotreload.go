package app

import (
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

// HotReloader watches the running binary and invokes a callback when a
// newer build appears, so a development session can offer to restart into
// the fresh binary.
type HotReloader struct {
	execPath string
	baseline time.Time
	interval time.Duration
	stopCh   chan struct{}

	// OnNewBinary is called once from the watcher goroutine when a newer
	// binary is detected. UI callers must hop back to the UI goroutine.
	OnNewBinary func()
}

// NewHotReloader watches the current executable. Returns nil when the
// executable cannot be resolved, in which case the feature is simply off.
func NewHotReloader(interval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}
	// go build replaces the file behind the symlink; watch the real path.
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}
	return &HotReloader{
		execPath: execPath,
		baseline: info.ModTime(),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling in a background goroutine.
func (h *HotReloader) Start() {
	h.stopCh = make(chan struct{})
	go h.watch()
}

// Stop ends the watcher goroutine.
func (h *HotReloader) Stop() {
	close(h.stopCh)
}

// ResetBaseline accepts the current binary as the new baseline. Called
// when the user declines a restart, so they are not asked again for the
// same build.
func (h *HotReloader) ResetBaseline() {
	if info, err := os.Stat(h.execPath); err == nil {
		h.baseline = info.ModTime()
	}
}

// Restart replaces the current process with the new binary, preserving
// arguments and environment. Does not return on success.
func (h *HotReloader) Restart() error {
	log.Info().Str("binary", h.execPath).Msg("restarting into new binary")
	return syscall.Exec(h.execPath, os.Args, os.Environ())
}

func (h *HotReloader) watch() {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			info, err := os.Stat(h.execPath)
			if err != nil || !info.ModTime().After(h.baseline) {
				continue
			}
			log.Debug().Str("binary", h.execPath).Msg("newer binary detected")
			if h.OnNewBinary != nil {
				h.OnNewBinary()
			}
			return
		}
	}
}
