// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package watcher adapts OS file-system notifications into normalized
// RawChange values on a bounded channel.
// Implements: prd001-watch (R1-R3);
//
//	docs/ARCHITECTURE § Change Source.
package watcher

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

// Watcher wraps an fsnotify watcher over one or more recursive roots and
// emits RawChange values on its output channel. fsnotify watches are
// per-directory, so Start walks each root and new subdirectories are added
// as they appear.
//
// The hand-off into the pipeline is bounded: a send blocks for at most
// EnqueueTimeout on a full queue and then drops the change, counting the
// drop. Unbounded buffering is deliberately avoided (R2.3).
type Watcher struct {
	cfg types.WatchConfig
	w   io.Writer

	out     chan types.RawChange
	fsw     *fsnotify.Watcher
	wg      sync.WaitGroup
	started bool
	dropped atomic.Int64

	// recent tracks last-seen times per path for write-then-rename
	// coalescing. Only the run goroutine touches it.
	recent map[string]time.Time
}

// New creates a watcher. Warnings are written to w.
func New(cfg types.WatchConfig, w io.Writer) *Watcher {
	return &Watcher{
		cfg:    cfg,
		w:      w,
		out:    make(chan types.RawChange, cfg.QueueSize),
		recent: make(map[string]time.Time),
	}
}

// Changes returns the output channel. It is closed after Stop once the
// run goroutine has exited.
func (w *Watcher) Changes() <-chan types.RawChange {
	return w.out
}

// Dropped returns the number of changes discarded because the queue
// stayed full past the enqueue timeout.
func (w *Watcher) Dropped() int64 {
	return w.dropped.Load()
}

// Start begins watching the given roots recursively. An inaccessible root
// is logged and skipped; Start fails only when no root could be watched
// or the native watcher could not be created (R3.1).
func (w *Watcher) Start(roots []string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file-system watcher: %w", err)
	}
	w.fsw = fsw

	watched := 0
	for _, root := range roots {
		if err := w.watchTree(root); err != nil {
			fmt.Fprintf(w.w, "warning: cannot watch root %s: %v\n", root, err)
			continue
		}
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return fmt.Errorf("no watchable roots among %v", roots)
	}

	w.started = true
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop closes the native watcher and, once the run goroutine has drained
// its notifications, closes the output channel.
func (w *Watcher) Stop() {
	if !w.started {
		return
	}
	w.fsw.Close()
	w.wg.Wait()
	close(w.out)
	w.started = false
}

// watchTree adds watches for dir and every subdirectory below it.
func (w *Watcher) watchTree(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(w.w, "warning: skipping %s: %v\n", path, err)
			return nil
		}
		if !d.IsDir() || w.ignored(path) {
			return nil
		}
		if err := w.fsw.Add(path); err != nil {
			fmt.Fprintf(w.w, "warning: cannot watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	for _, pattern := range w.cfg.IgnorePatterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(w.w, "warning: watch error: %v\n", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}

	var kind types.ChangeKind
	switch {
	case ev.Op.Has(fsnotify.Create):
		kind = types.ChangeCreated
	case ev.Op.Has(fsnotify.Write):
		kind = types.ChangeModified
	case ev.Op.Has(fsnotify.Remove):
		kind = types.ChangeDeleted
	case ev.Op.Has(fsnotify.Rename):
		kind = types.ChangeMoved
	default:
		// Chmod-only notifications carry no content change.
		return
	}

	isDir := false
	if info, err := os.Stat(ev.Name); err == nil {
		isDir = info.IsDir()
	}

	// New subdirectories need their own watches.
	if isDir && kind == types.ChangeCreated {
		if err := w.watchTree(ev.Name); err != nil {
			fmt.Fprintf(w.w, "warning: cannot watch new directory %s: %v\n", ev.Name, err)
		}
	}

	now := time.Now()
	kind = w.coalesce(ev.Name, kind, now)

	change := types.RawChange{
		Path:        ev.Name,
		Kind:        kind,
		IsDirectory: isDir,
		ObservedAt:  now,
	}

	select {
	case w.out <- change:
	default:
		// Queue full: block up to the enqueue timeout, then drop.
		select {
		case w.out <- change:
		case <-time.After(w.cfg.EnqueueTimeout):
			w.dropped.Add(1)
			fmt.Fprintf(w.w, "warning: queue full, dropped %s %s\n", kind, ev.Name)
		}
	}
}

// coalesce normalizes editor write-then-rename bursts: a created
// notification for a path already seen within the window becomes modified.
// A zero window disables coalescing.
func (w *Watcher) coalesce(path string, kind types.ChangeKind, now time.Time) types.ChangeKind {
	if w.cfg.CoalesceWindow <= 0 {
		return kind
	}

	last, seen := w.recent[path]
	w.recent[path] = now

	if len(w.recent) > 4096 {
		w.pruneRecent(now)
	}

	if kind == types.ChangeCreated && seen && now.Sub(last) < w.cfg.CoalesceWindow {
		return types.ChangeModified
	}
	return kind
}

func (w *Watcher) pruneRecent(now time.Time) {
	for p, ts := range w.recent {
		if now.Sub(ts) > w.cfg.CoalesceWindow {
			delete(w.recent, p)
		}
	}
}
