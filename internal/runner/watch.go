package runner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceInterval is how long Watch waits for a burst of events to settle.
const DebounceInterval = 100 * time.Millisecond

// WatchHandlers receive debounced file events.
type WatchHandlers struct {
	Changed func(path string)
	Removed func(path string)
	Error   func(err error)
}

// Watch watches roots recursively and calls the handlers for files matching
// include until ctx is done. Write and create events are debounced per file.
// Plain file roots are watched through their parent directory.
func Watch(ctx context.Context, roots []string, include []string, h WatchHandlers) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	files := make(map[string]bool)
	var dirs []string
	for _, root := range roots {
		if root == StdinPath {
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			abs, _ := filepath.Abs(root)
			files[abs] = true
			if err := watcher.Add(filepath.Dir(root)); err != nil {
				return err
			}
			continue
		}
		dirs = append(dirs, root)
		if err := watchDirRecursive(watcher, root); err != nil {
			return err
		}
	}

	wanted := func(name string) bool {
		abs, _ := filepath.Abs(name)
		if files[abs] {
			return true
		}
		for _, dir := range dirs {
			rel, err := filepath.Rel(dir, name)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			if MatchInclude(filepath.ToSlash(rel), include) {
				return true
			}
		}
		return false
	}

	deb := newDebouncer(DebounceInterval, func(name string) {
		if ctx.Err() == nil && h.Changed != nil {
			h.Changed(name)
		}
	})
	defer deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchDirRecursive(watcher, event.Name)
					continue
				}
			}
			if !wanted(event.Name) {
				continue
			}

			name := event.Name
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				deb.cancel(name)
				if h.Removed != nil {
					h.Removed(name)
				}
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				deb.trigger(name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if h.Error != nil {
				h.Error(err)
			}
		}
	}
}

// debouncer coalesces bursts of triggers per name into one fire call.
type debouncer struct {
	interval time.Duration
	fire     func(name string)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(interval time.Duration, fire func(name string)) *debouncer {
	return &debouncer{interval: interval, fire: fire, timers: make(map[string]*time.Timer)}
}

// trigger (re)starts the timer for name.
func (d *debouncer) trigger(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.triggerLocked(name)
}

func (d *debouncer) triggerLocked(name string) {
	if t := d.timers[name]; t != nil {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		// A timer replaced after it started firing must not fire or drop
		// its successor.
		current := d.timers[name] == timer
		if current {
			delete(d.timers, name)
		}
		d.mu.Unlock()
		if current {
			d.fire(name)
		}
	})
	d.timers[name] = timer
}

// cancel drops a pending fire for name.
func (d *debouncer) cancel(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t := d.timers[name]; t != nil {
		t.Stop()
		delete(d.timers, name)
	}
}

func (d *debouncer) pending(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timers[name] != nil
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for name, t := range d.timers {
		t.Stop()
		delete(d.timers, name)
	}
}

// watchDirRecursive adds a directory and all non-hidden subdirectories.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}
