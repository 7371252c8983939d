// Package monitor watches a catalog directory and drives debounced,
// cancellable rebuilds while the preview server runs.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docarchive/internal/logfields"
	"git.home.luguber.info/inful/docarchive/internal/observability"
)

// State is the monitor's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateWatching
	StateConverting
	StateCancellingAndRestarting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateConverting:
		return "converting"
	case StateCancellingAndRestarting:
		return "cancelling-and-restarting"
	}
	return "unknown"
}

// EventClass separates edits to existing files from changes to the catalog's
// shape; both trigger a rebuild, but structure changes also re-seed the
// recursive watch.
type EventClass int

const (
	EventIgnored EventClass = iota
	EventContent
	EventStructure
)

// RebuildFunc performs one full rebuild. It must honor cancellation and
// leave no partial output behind when it returns ctx.Err().
type RebuildFunc func(ctx context.Context) error

// DefaultDebounce batches editor write bursts into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// Monitor watches one catalog directory. Start blocks until the context is
// cancelled.
type Monitor struct {
	root     string
	rebuild  RebuildFunc
	debounce time.Duration
	metrics  *observability.BuildMetrics

	state atomic.Int32

	mu            sync.Mutex
	cancelCurrent context.CancelFunc
	restarting    bool
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(m *Monitor) { m.debounce = d }
}

// WithMetrics instruments rebuilds.
func WithMetrics(metrics *observability.BuildMetrics) Option {
	return func(m *Monitor) { m.metrics = metrics }
}

// New creates a monitor over the catalog root.
func New(root string, rebuild RebuildFunc, opts ...Option) *Monitor {
	m := &Monitor{root: root, rebuild: rebuild, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Monitor) State() State { return State(m.state.Load()) }

// Start watches the catalog and rebuilds on changes until ctx is cancelled.
// A change arriving mid-conversion cancels the running rebuild and starts a
// fresh one once it has wound down.
func (m *Monitor) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := addDirsRecursive(watcher, m.root); err != nil {
		return err
	}

	rebuildReq := make(chan struct{}, 1)
	trigger := m.newDebouncer(rebuildReq)

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		m.runRebuilds(ctx, rebuildReq)
	}()

	m.state.Store(int32(StateWatching))
	slog.Info("Monitoring catalog for changes", logfields.Catalog(m.root))

	for {
		select {
		case <-ctx.Done():
			m.state.Store(int32(StateIdle))
			workers.Wait()
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				workers.Wait()
				return nil
			}
			m.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				workers.Wait()
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a trigger that enqueues one rebuild per quiet period.
// A change landing mid-conversion also cancels the running rebuild so the
// restart picks up the newest state.
func (m *Monitor) newDebouncer(rebuildReq chan struct{}) func() {
	var mu sync.Mutex
	var timer *time.Timer
	return func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, func() {
			m.cancelRunningRebuild()
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
}

func (m *Monitor) cancelRunningRebuild() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancelCurrent != nil {
		m.state.Store(int32(StateCancellingAndRestarting))
		m.restarting = true
		m.cancelCurrent()
	}
}

// runRebuilds serializes rebuilds off the request channel.
func (m *Monitor) runRebuilds(ctx context.Context, rebuildReq chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
		}

		buildCtx, cancel := context.WithCancel(ctx)
		m.mu.Lock()
		m.cancelCurrent = cancel
		m.restarting = false
		m.mu.Unlock()
		m.state.Store(int32(StateConverting))

		err := m.rebuild(buildCtx)

		m.mu.Lock()
		m.cancelCurrent = nil
		restart := m.restarting
		m.restarting = false
		m.mu.Unlock()
		cancel()

		switch {
		case err == nil:
			if m.metrics != nil {
				m.metrics.RebuildsTotal.Inc()
			}
			slog.Info("Rebuild finished", logfields.Catalog(m.root))
		case errors.Is(err, context.Canceled) && ctx.Err() == nil:
			if m.metrics != nil {
				m.metrics.RebuildsCancelled.Inc()
			}
			slog.Info("Conversion cancelled to process newer changes")
		case ctx.Err() != nil:
			return
		default:
			slog.Warn("Rebuild failed", logfields.Error(err))
		}

		if restart && ctx.Err() == nil {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		}
		m.state.Store(int32(StateWatching))
	}
}

// handleEvent classifies one filesystem event, maintains the recursive
// watch, and triggers the debouncer for anything that matters.
func (m *Monitor) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	class := Classify(ev)
	if class == EventIgnored {
		return
	}
	if class == EventStructure && ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
			// A brand-new empty directory changes nothing a build consumes.
			if empty, _ := isEmptyDir(ev.Name); empty {
				return
			}
		}
	}
	slog.Debug("Catalog change detected",
		logfields.Path(ev.Name),
		slog.String("op", ev.Op.String()))
	trigger()
}

// Classify maps a filesystem event to its build impact. Writes to existing
// files are content events; creates, removes and renames are structure
// events; hidden and editor temp files are ignored.
func Classify(ev fsnotify.Event) EventClass {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		base == "Thumbs.db" {
		return EventIgnored
	}
	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		return EventStructure
	}
	if ev.Op&(fsnotify.Write|fsnotify.Chmod) != 0 {
		return EventContent
	}
	return EventIgnored
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

func isEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
