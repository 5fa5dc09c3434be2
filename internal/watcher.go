package internal

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps an fsnotify watcher over a whole tree and reports media
// files that appear or change in it. Directories created after the watcher
// starts are added, and the media already inside them is reported.
type Watcher struct {
	root    string
	filter  *PathFilter
	logger  *slog.Logger
	watcher *fsnotify.Watcher
	paths   chan string
	errors  chan error
	done    chan struct{}
	once    sync.Once
}

// NewWatcher starts watching root and every directory below it that a walk
// would descend into.
func NewWatcher(root string, filter *PathFilter, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		filter:  filter,
		logger:  logger,
		watcher: fsWatcher,
		paths:   make(chan string, 256),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}

	if err := w.addRecursive(root); err != nil {
		fsWatcher.Close()
		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// addRecursive adds a directory and all its subdirectories to the watcher
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && (w.filter.SkipDir(d.Name()) || w.skipped(path)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// skipped reports whether path lies in a special or excluded directory.
func (w *Watcher) skipped(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return true
	}
	if rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part != "." && w.filter.SkipDir(part) {
			return true
		}
	}
	return w.filter.excluded(w.root, path)
}

// processEvents turns raw fsnotify events into media paths.
func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			w.handle(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				// Error channel is full, drop error
			}

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(path string) {
	info, err := os.Lstat(path)
	if err != nil {
		return // gone again
	}

	if info.IsDir() {
		if w.filter.SkipDir(info.Name()) || w.skipped(path) {
			return
		}
		if err := w.addRecursive(path); err != nil {
			w.logger.Warn("failed to watch new directory", "path", path, "err", err)
		}
		// files may have landed before the watch was in place
		_ = WalkMedia(path, w.filter, func(f MediaFile) error {
			if w.skipped(f.Path) {
				return nil
			}
			w.emit(f.Path)
			return nil
		})
		return
	}

	if !info.Mode().IsRegular() || w.skipped(path) {
		return
	}
	if w.filter.Classifier.Kind(path) == KindUnknown {
		return
	}
	w.emit(path)
}

func (w *Watcher) emit(path string) {
	select {
	case w.paths <- path:
	case <-w.done:
	}
}

// Paths returns the channel of media files that appeared or changed.
func (w *Watcher) Paths() <-chan string {
	return w.paths
}

// Errors returns the channel of watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and cleans up resources
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

// Watch processes files reported by w once they have been quiet for settle,
// until ctx is cancelled. Empty directories are pruned after every batch.
func (e *Engine) Watch(ctx context.Context, w *Watcher, settle time.Duration) (Summary, error) {
	start := time.Now()
	if err := e.manifest.LogRunStart(); err != nil {
		e.logger.Warn("failed to write manifest", "err", err)
	}

	tick := settle / 2
	if tick < 50*time.Millisecond {
		tick = 50 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			e.summary.Duration = time.Since(start)
			if len(pending) > 0 {
				e.summary.Interrupted = true
			}
			if err := e.manifest.LogRunEnd(e.summary); err != nil {
				e.logger.Warn("failed to write manifest", "err", err)
			}
			return e.summary, nil

		case path := <-w.Paths():
			pending[path] = time.Now()

		case err := <-w.Errors():
			e.logger.Warn("watcher error", "err", err)

		case now := <-ticker.C:
			processed := 0
			for path, seen := range pending {
				if now.Sub(seen) < settle {
					continue
				}
				delete(pending, path)
				if ctx.Err() != nil {
					break
				}
				if e.processPath(path) {
					processed++
				}
			}
			if processed > 0 && e.prune && ctx.Err() == nil {
				e.Prune()
			}
		}
	}
}

// processPath runs ProcessFile on a path reported by the watcher if it is
// still a media file under the root.
func (e *Engine) processPath(path string) bool {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	f, ok := e.filter.Classifier.MediaFile(path)
	if !ok {
		return false
	}
	res := e.ProcessFile(f)
	return res.Status == StatusMoved
}
