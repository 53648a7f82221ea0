// internal/debuglog/recorder.go
//
// Toggleable append-only debug sink.
//
// Context
// -------
// An administrator can flip the relay into debug mode from the main menu.
// While enabled, every inbound update is appended to one JSON-lines file.
// Flipping the mode off closes the sink, hands its full contents back to
// the caller (who ships it to the admin as an attachment), and deletes the
// file.  The flip is never idempotent: each Toggle call changes the mode.
//
// Notes
// -----
// • Record is called from the hot update path, so the disabled check is a
//   single atomic load before any lock is taken.
// • Oxford commas, two spaces after periods.
package debuglog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/topicrelay/internal/metrics"
)

// Recorder owns the debug sink.  One Recorder exists per process.
type Recorder struct {
	path string
	log  *zap.SugaredLogger

	on atomic.Bool

	mu sync.Mutex
	f  *os.File
}

// New returns a disabled Recorder writing to path when toggled on.
func New(path string, log *zap.SugaredLogger) *Recorder {
	return &Recorder{path: path, log: log}
}

// Enabled reports the current mode without locking.
func (r *Recorder) Enabled() bool { return r.on.Load() }

// Toggle flips the mode and returns the resulting state.  Turning the
// recorder off also returns the sink contents collected since it was turned
// on; the file no longer exists once Toggle returns.
func (r *Recorder) Toggle() (enabled bool, dump []byte, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics.DebugTogglesTotal.Inc()

	if r.on.Load() {
		// Off: flush, collect, delete.
		r.on.Store(false)
		if r.f != nil {
			_ = r.f.Close()
			r.f = nil
		}
		dump, err = os.ReadFile(r.path)
		if err != nil && !os.IsNotExist(err) {
			return false, nil, fmt.Errorf("read debug sink: %w", err)
		}
		if rmErr := os.Remove(r.path); rmErr != nil && !os.IsNotExist(rmErr) {
			r.log.Warnw("debug sink not removed", "path", r.path, "err", rmErr)
		}
		r.log.Infow("debug recorder off", "bytes", len(dump))
		return false, dump, nil
	}

	// On: fresh sink, truncating any stale leftover.
	f, err := os.Create(r.path)
	if err != nil {
		return false, nil, fmt.Errorf("open debug sink: %w", err)
	}
	fmt.Fprintf(f, "debug log started at %s\n", time.Now().Format(time.RFC3339))
	r.f = f
	r.on.Store(true)
	r.log.Infow("debug recorder on", "path", r.path)
	return true, nil, nil
}

// Record appends one event as a JSON line.  A disabled recorder returns
// immediately.
func (r *Recorder) Record(kind string, event any) {
	if !r.on.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return
	}
	line, err := json.Marshal(map[string]any{
		"ts":    time.Now().Format(time.RFC3339),
		"kind":  kind,
		"event": event,
	})
	if err != nil {
		r.log.Warnw("debug event not serializable", "kind", kind, "err", err)
		return
	}
	if _, err := r.f.Write(append(line, '\n')); err != nil {
		r.log.Warnw("debug sink write failed", "err", err)
	}
}
