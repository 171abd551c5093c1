package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ChangedAndRemoved(t *testing.T) {
	dir := writeFiles(t, map[string]string{"q.sql": "USE Sales;", "notes.txt": ""})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 10)
	removed := make(chan string, 10)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{dir}, []string{"**/*.sql"}, WatchHandlers{
			Changed: func(p string) { changed <- p },
			Removed: func(p string) { removed <- p },
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	target := filepath.Join(dir, "q.sql")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte("SELECT 1"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case p := <-changed:
		require.Equal(t, target, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	select {
	case p := <-changed:
		t.Fatalf("burst was not debounced: extra event for %s", p)
	case <-time.After(3 * DebounceInterval):
	}

	require.NoError(t, os.Remove(target))
	select {
	case p := <-removed:
		require.Equal(t, target, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no remove event")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var fires atomic.Int32
	fired := make(chan string, 10)
	d := newDebouncer(20*time.Millisecond, func(name string) {
		fires.Add(1)
		fired <- name
	})
	defer d.stop()

	for range 5 {
		d.trigger("a.sql")
	}

	select {
	case name := <-fired:
		assert.Equal(t, "a.sql", name)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fire")
	}
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load())
	assert.False(t, d.pending("a.sql"))
}

func TestDebouncer_StaleTimerKeepsNewerEntry(t *testing.T) {
	fired := make(chan string, 10)
	d := newDebouncer(50*time.Millisecond, func(name string) { fired <- name })
	defer d.stop()

	d.trigger("a.sql")

	// Hold the lock past the deadline so the first callback blocks, then
	// replace its timer the way a new write event would.
	d.mu.Lock()
	time.Sleep(150 * time.Millisecond)
	d.triggerLocked("a.sql")
	d.mu.Unlock()

	time.Sleep(10 * time.Millisecond)
	assert.True(t, d.pending("a.sql"), "stale callback removed the newer timer")

	select {
	case name := <-fired:
		assert.Equal(t, "a.sql", name)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fire")
	}
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, fired)
	assert.False(t, d.pending("a.sql"))
}

func TestDebouncer_Cancel(t *testing.T) {
	fired := make(chan string, 1)
	d := newDebouncer(20*time.Millisecond, func(name string) { fired <- name })
	defer d.stop()

	d.trigger("a.sql")
	d.cancel("a.sql")
	assert.False(t, d.pending("a.sql"))

	select {
	case name := <-fired:
		t.Fatalf("unexpected fire for %s", name)
	case <-time.After(80 * time.Millisecond):
	}
}
