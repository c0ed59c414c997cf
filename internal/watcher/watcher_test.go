// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package watcher

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lab-guardian/pkg/types"
)

func testConfig() types.WatchConfig {
	return types.WatchConfig{
		CoalesceWindow: 500 * time.Millisecond,
		QueueSize:      64,
		EnqueueTimeout: 100 * time.Millisecond,
	}
}

func TestWatcher_EmitsCreate(t *testing.T) {
	tmpDir := t.TempDir()
	w := New(testConfig(), io.Discard)
	require.NoError(t, w.Start([]string{tmpDir}))
	defer w.Stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(filepath.Join(tmpDir, "new-file.txt"), []byte("content"), 0o644)
	}()

	select {
	case change := <-w.Changes():
		assert.Equal(t, types.ChangeCreated, change.Kind)
		assert.Contains(t, change.Path, "new-file.txt")
		assert.False(t, change.IsDirectory)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for create event")
	}
}

func TestWatcher_EmitsModify(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("initial"), 0o644))

	w := New(testConfig(), io.Discard)
	require.NoError(t, w.Start([]string{tmpDir}))
	defer w.Stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.WriteFile(testFile, []byte("modified"), 0o644)
	}()

	select {
	case change := <-w.Changes():
		assert.Equal(t, types.ChangeModified, change.Kind)
		assert.Contains(t, change.Path, "test.txt")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for modify event")
	}
}

func TestWatcher_EmitsDelete(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "to-delete.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("delete me"), 0o644))

	w := New(testConfig(), io.Discard)
	require.NoError(t, w.Start([]string{tmpDir}))
	defer w.Stop()

	go func() {
		time.Sleep(50 * time.Millisecond)
		os.Remove(testFile)
	}()

	select {
	case change := <-w.Changes():
		assert.Equal(t, types.ChangeDeleted, change.Kind)
		assert.Contains(t, change.Path, "to-delete.txt")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for delete event")
	}
}

func TestWatcher_SkipsInaccessibleRootKeepsOthers(t *testing.T) {
	tmpDir := t.TempDir()

	w := New(testConfig(), io.Discard)
	err := w.Start([]string{"/non/existent/path", tmpDir})
	require.NoError(t, err, "one good root should be enough")
	w.Stop()
}

func TestWatcher_AllRootsInaccessible(t *testing.T) {
	w := New(testConfig(), io.Discard)
	err := w.Start([]string{"/non/existent/path"})
	assert.Error(t, err)
}

func TestWatcher_StopClosesChannel(t *testing.T) {
	tmpDir := t.TempDir()
	w := New(testConfig(), io.Discard)
	require.NoError(t, w.Start([]string{tmpDir}))

	w.Stop()

	select {
	case _, ok := <-w.Changes():
		assert.False(t, ok, "channel should be closed after Stop")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after Stop")
	}
}

func TestHandle_EventMapping(t *testing.T) {
	tests := []struct {
		name     string
		op       fsnotify.Op
		wantKind types.ChangeKind
		wantSent bool
	}{
		{name: "create", op: fsnotify.Create, wantKind: types.ChangeCreated, wantSent: true},
		{name: "write", op: fsnotify.Write, wantKind: types.ChangeModified, wantSent: true},
		{name: "remove", op: fsnotify.Remove, wantKind: types.ChangeDeleted, wantSent: true},
		{name: "rename", op: fsnotify.Rename, wantKind: types.ChangeMoved, wantSent: true},
		{name: "chmod only", op: fsnotify.Chmod, wantSent: false},
		{name: "write plus chmod", op: fsnotify.Write | fsnotify.Chmod, wantKind: types.ChangeModified, wantSent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.CoalesceWindow = 0
			w := New(cfg, io.Discard)

			w.handle(fsnotify.Event{Name: "/lab/a.py", Op: tt.op})

			if !tt.wantSent {
				assert.Empty(t, w.out)
				return
			}
			require.Len(t, w.out, 1)
			change := <-w.out
			assert.Equal(t, tt.wantKind, change.Kind)
			assert.Equal(t, "/lab/a.py", change.Path)
		})
	}
}

func TestHandle_IgnoresHiddenAndPatterns(t *testing.T) {
	cfg := testConfig()
	cfg.IgnorePatterns = []string{"*.log", "*.tmp"}
	w := New(cfg, io.Discard)

	for _, path := range []string{"/lab/.hidden", "/lab/debug.log", "/lab/x.tmp"} {
		w.handle(fsnotify.Event{Name: path, Op: fsnotify.Create})
	}
	assert.Empty(t, w.out)
}

func TestCoalesce_CreateAfterRecentSeenBecomesModified(t *testing.T) {
	w := New(testConfig(), io.Discard)
	now := time.Now()

	// First sight of the path: created stays created.
	got := w.coalesce("/lab/a.py", types.ChangeCreated, now)
	assert.Equal(t, types.ChangeCreated, got)

	// Editor write-then-rename: a created inside the window is a modify.
	got = w.coalesce("/lab/a.py", types.ChangeCreated, now.Add(100*time.Millisecond))
	assert.Equal(t, types.ChangeModified, got)

	// Outside the window the created survives.
	got = w.coalesce("/lab/a.py", types.ChangeCreated, now.Add(5*time.Second))
	assert.Equal(t, types.ChangeCreated, got)
}

func TestCoalesce_DisabledWithZeroWindow(t *testing.T) {
	cfg := testConfig()
	cfg.CoalesceWindow = 0
	w := New(cfg, io.Discard)

	now := time.Now()
	w.coalesce("/lab/a.py", types.ChangeCreated, now)
	got := w.coalesce("/lab/a.py", types.ChangeCreated, now.Add(time.Millisecond))
	assert.Equal(t, types.ChangeCreated, got)
}

func TestHandle_QueueOverflowDropsBounded(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 4
	cfg.EnqueueTimeout = 5 * time.Millisecond
	cfg.CoalesceWindow = 0
	w := New(cfg, io.Discard)

	// No consumer: flood well past capacity. The watch goroutine must not
	// deadlock and the buffer must stay at its bound.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			w.handle(fsnotify.Event{Name: "/lab/a.py", Op: fsnotify.Write})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch thread blocked past the documented wait policy")
	}

	assert.LessOrEqual(t, len(w.out), 4)
	assert.Equal(t, int64(46), w.Dropped())
}
