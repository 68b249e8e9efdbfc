// Package fsnotifywatch supplies the default watch.Observer implementation,
// backed by github.com/fsnotify/fsnotify with a debounce buffer before the
// callback fires. Adapted from the recursive-watch/debounce shape used
// elsewhere in the reference corpus for file-change batching.
package fsnotifywatch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/codeindex-go/codeindex/internal/watch"
)

// DefaultDebounce is how long the observer waits for a quiet period before
// invoking the callback for a batch of changes.
const DefaultDebounce = 100 * time.Millisecond

// defaultIgnored is skipped when walking directories to watch, mirroring
// the deep builder's own default exclusion set so the watcher and the
// builder agree on what's part of the project.
var defaultIgnored = map[string]struct{}{
	".git": {}, ".svn": {}, ".hg": {}, "node_modules": {}, "vendor": {},
	".venv": {}, "venv": {}, "__pycache__": {}, "dist": {}, "build": {},
	".idea": {}, ".vscode": {}, "target": {}, "bin": {}, "obj": {},
}

// Observer is the fsnotify-backed watch.Observer.
type Observer struct {
	debounce time.Duration

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	root     string
	stopOnce sync.Once
	done     chan struct{}
}

// New constructs a factory that returns an fsnotify-backed Observer for
// every watch.Mode. fsnotify is the platform-native backend on every
// platform this module targets; there is no separate polling or
// platform-specific implementation, so ModePolling and ModePlatformSpecific
// get the same fsnotify Observer as ModeAuto and ModePlatformNative.
func New() watch.Factory {
	return func(mode watch.Mode) (watch.Observer, error) {
		return &Observer{debounce: DefaultDebounce}, nil
	}
}

// Start begins watching root, recursively adding subdirectories not in the
// default exclusion set, and invoking cb for each debounced change.
func (o *Observer) Start(ctx context.Context, root string, cb watch.Callback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.watcher = w
	o.root = root
	o.done = make(chan struct{})
	o.mu.Unlock()

	if err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if _, excluded := defaultIgnored[d.Name()]; excluded && path != root {
			return filepath.SkipDir
		}
		return w.Add(path)
	}); err != nil {
		w.Close()
		return err
	}

	go o.loop(ctx, cb)
	return nil
}

// Stop closes the underlying watcher and ends the event loop.
func (o *Observer) Stop() error {
	o.mu.Lock()
	w := o.watcher
	done := o.done
	o.mu.Unlock()

	var err error
	o.stopOnce.Do(func() {
		if done != nil {
			close(done)
		}
		if w != nil {
			err = w.Close()
		}
	})
	return err
}

func (o *Observer) loop(ctx context.Context, cb watch.Callback) {
	o.mu.Lock()
	w := o.watcher
	root := o.root
	done := o.done
	o.mu.Unlock()

	type pending struct {
		relPath string
		kind    watch.ChangeKind
	}
	batch := make(map[string]pending)
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		for _, p := range batch {
			cb(p.relPath, p.kind)
		}
		batch = make(map[string]pending)
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-done:
			flush()
			return
		case event, ok := <-w.Events:
			if !ok {
				flush()
				return
			}
			rel, err := filepath.Rel(root, event.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if isIgnoredPath(rel) {
				continue
			}

			var kind watch.ChangeKind
			switch {
			case event.Has(fsnotify.Create):
				kind = watch.Created
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = w.Add(event.Name)
				}
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				kind = watch.Deleted
			default:
				kind = watch.Modified
			}
			batch[rel] = pending{relPath: rel, kind: kind}

			if timer == nil {
				timer = time.NewTimer(o.debounce)
				timerC = timer.C
			} else {
				timer.Reset(o.debounce)
			}
		case <-timerC:
			flush()
		case _, ok := <-w.Errors:
			if !ok {
				flush()
				return
			}
		}
	}
}

func isIgnoredPath(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if _, excluded := defaultIgnored[part]; excluded {
			return true
		}
	}
	return false
}

