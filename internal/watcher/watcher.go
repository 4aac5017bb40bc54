package watcher

import (
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"filex/internal/fileinfo"
	"filex/internal/logging"
)

// DefaultInterval is the polling period used when none is given
const DefaultInterval = 2 * time.Second

// PathSource returns the directory to watch. An empty string pauses polling.
type PathSource func() string

// Changes represents entries that changed since the previous poll
type Changes struct {
	Path     string
	Added    []fileinfo.Entry
	Deleted  []fileinfo.Entry
	Modified []fileinfo.Entry
}

// Empty reports whether nothing changed
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Deleted) == 0 && len(c.Modified) == 0
}

// DirectoryWatcher handles incremental directory change detection by polling
type DirectoryWatcher struct {
	reader   fileinfo.DirectoryReader
	path     PathSource
	onChange func(Changes)
	interval time.Duration
	logger   *zap.Logger

	mu            sync.Mutex                // Protects the snapshot and run state
	previousFiles map[string]fileinfo.Entry // Previous state for comparison
	snapshotPath  string
	stopChan      chan struct{}
	changeChan    chan Changes
}

// Option configures a DirectoryWatcher
type Option func(*DirectoryWatcher)

// WithInterval sets the polling period
func WithInterval(d time.Duration) Option {
	return func(dw *DirectoryWatcher) {
		if d > 0 {
			dw.interval = d
		}
	}
}

// WithLogger sets the logger used for skipped polls
func WithLogger(l *zap.Logger) Option {
	return func(dw *DirectoryWatcher) { dw.logger = logging.OrNop(l) }
}

// NewDirectoryWatcher creates a new directory watcher. onChange runs on the
// watcher's own goroutine.
func NewDirectoryWatcher(reader fileinfo.DirectoryReader, path PathSource, onChange func(Changes), opts ...Option) *DirectoryWatcher {
	dw := &DirectoryWatcher{
		reader:        reader,
		path:          path,
		onChange:      onChange,
		interval:      DefaultInterval,
		logger:        zap.NewNop(),
		previousFiles: make(map[string]fileinfo.Entry),
	}
	for _, opt := range opts {
		opt(dw)
	}
	return dw
}

// Start begins watching. Calling Start on a running watcher does nothing.
func (dw *DirectoryWatcher) Start() {
	dw.mu.Lock()
	if dw.stopChan != nil {
		dw.mu.Unlock()
		return // Already running
	}
	stop := make(chan struct{})
	changes := make(chan Changes, 10)
	dw.stopChan = stop
	dw.changeChan = changes
	dw.mu.Unlock()

	dw.Poll() // Take initial snapshot

	ticker := time.NewTicker(dw.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c := dw.Poll()
				if c.Empty() {
					continue
				}
				select {
				case changes <- c:
				case <-stop:
					return
				default:
					dw.logger.Debug("change channel full, skipping update", zap.String("path", c.Path))
				}
			case <-stop:
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case c := <-changes:
				if dw.onChange != nil {
					dw.onChange(c)
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop stops the watcher. It does not wait for an in-flight callback.
func (dw *DirectoryWatcher) Stop() {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	if dw.stopChan == nil {
		return // Already stopped
	}
	close(dw.stopChan)
	dw.stopChan = nil
	dw.changeChan = nil
}

// Running reports whether the watcher has been started and not stopped
func (dw *DirectoryWatcher) Running() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	return dw.stopChan != nil
}

// Poll reads the watched directory, returns what changed since the last
// poll and records the new snapshot. A changed path only resets the
// snapshot; unreadable directories are skipped.
func (dw *DirectoryWatcher) Poll() Changes {
	path := dw.path()
	if path == "" {
		return Changes{}
	}
	entries, err := dw.reader.ListDirectory(path)
	if err != nil {
		dw.logger.Debug("skipping poll", zap.String("path", path), zap.Error(err))
		return Changes{Path: path}
	}

	currentFiles := make(map[string]fileinfo.Entry, len(entries))
	for _, e := range entries {
		currentFiles[e.Path] = e
	}

	dw.mu.Lock()
	defer dw.mu.Unlock()
	if path != dw.snapshotPath {
		dw.snapshotPath = path
		dw.previousFiles = currentFiles
		return Changes{Path: path}
	}
	c := dw.detectChanges(currentFiles)
	c.Path = path
	dw.previousFiles = currentFiles
	return c
}

// detectChanges compares current and previous states; caller must hold dw.mu
func (dw *DirectoryWatcher) detectChanges(currentFiles map[string]fileinfo.Entry) Changes {
	var c Changes
	for path, file := range currentFiles {
		prev, exists := dw.previousFiles[path]
		switch {
		case !exists:
			c.Added = append(c.Added, file)
		case !file.Modified.Equal(prev.Modified) || file.Size != prev.Size || file.Type != prev.Type:
			c.Modified = append(c.Modified, file)
		}
	}
	for path, file := range dw.previousFiles {
		if _, exists := currentFiles[path]; !exists {
			c.Deleted = append(c.Deleted, file)
		}
	}

	byPath := func(a, b fileinfo.Entry) int { return strings.Compare(a.Path, b.Path) }
	slices.SortFunc(c.Added, byPath)
	slices.SortFunc(c.Deleted, byPath)
	slices.SortFunc(c.Modified, byPath)
	return c
}
