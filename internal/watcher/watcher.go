package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"shelf/internal/logging"
	"shelf/internal/rules"
	"shelf/internal/services"
)

// tempSuffixes are in-progress download artifacts that never become tasks.
var tempSuffixes = []string{".crdownload", ".tmp", ".part"}

// Event reports a stabilized new file in a watched directory.
type Event struct {
	Path string
}

type pendingFile struct {
	size  int64
	since time.Time
}

// Watcher polls the watch list from the rules store, detects new files,
// and emits them once stable. The watch set is re-read every poll, so
// rule replacements take effect without a restart.
type Watcher struct {
	store        *rules.Store
	logger       *slog.Logger
	pollInterval time.Duration
	quietPeriod  time.Duration

	in  chan Event
	out chan Event

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	knownMu sync.Mutex
	known   map[string]struct{}

	// Only the scan loop touches these.
	pending   map[string]pendingFile
	seenDirs  map[string]struct{}
	wasAbsent map[string]bool
}

// New constructs a watcher. pollInterval controls scan frequency;
// quietPeriod is how long a file's size must hold before it is emitted.
func New(store *rules.Store, logger *slog.Logger, pollInterval, quietPeriod time.Duration) *Watcher {
	return &Watcher{
		store:        store,
		logger:       logging.NewComponentLogger(logger, "watcher"),
		pollInterval: pollInterval,
		quietPeriod:  quietPeriod,
		in:           make(chan Event, 64),
		out:          make(chan Event),
		known:        make(map[string]struct{}),
		pending:      make(map[string]pendingFile),
		seenDirs:     make(map[string]struct{}),
		wasAbsent:    make(map[string]bool),
	}
}

// Events returns the stabilized-file queue consumed by the organizer.
func (w *Watcher) Events() <-chan Event {
	return w.out
}

// Active reports whether the observation loop is running.
func (w *Watcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start launches the observation loop. Files already present in watched
// directories are recorded silently; only files appearing afterwards
// produce events.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.wg.Add(2)
	w.mu.Unlock()

	go w.pump(runCtx)
	go w.loop(runCtx)
	w.logger.Info("watcher started", logging.Duration("poll_interval", w.pollInterval))
}

// Stop terminates the observation loop and waits for it to exit.
// Pending (not yet stable) files are forgotten.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("watcher stopped")
}

// pump forwards events from the scan loop to consumers through an
// unbounded in-memory buffer, the explicit backpressure trade-off: the
// queue grows instead of dropping events.
func (w *Watcher) pump(ctx context.Context) {
	defer w.wg.Done()
	var buf []Event
	for {
		var outCh chan Event
		var next Event
		if len(buf) > 0 {
			outCh = w.out
			next = buf[0]
		}
		select {
		case <-ctx.Done():
			return
		case ev := <-w.in:
			buf = append(buf, ev)
		case outCh <- next:
			buf = buf[1:]
		}
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.store.Changes():
			// Immediate re-scan so new watch directories are
			// baselined before their next natural poll.
			w.scan(ctx)
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	doc := w.store.Snapshot()
	now := time.Now()
	for _, dir := range doc.Watchlist {
		w.scanDir(ctx, dir, now)
	}
}

func (w *Watcher) scanDir(ctx context.Context, dir string, now time.Time) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !w.wasAbsent[dir] {
			w.wasAbsent[dir] = true
			w.logger.Warn("watch directory unavailable, continuing without it",
				logging.String(logging.FieldPath, dir),
				logging.Error(services.Wrap(services.ErrWatchUnavailable, "watcher", "scan", dir, err)),
				logging.String(logging.FieldEventType, "watch_unavailable"),
			)
		}
		return
	}
	if w.wasAbsent[dir] {
		delete(w.wasAbsent, dir)
		w.logger.Info("watch directory back, resubscribed", logging.String(logging.FieldPath, dir))
	}

	_, baselined := w.seenDirs[dir]
	if !baselined {
		w.seenDirs[dir] = struct{}{}
	}

	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || skipName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		present[path] = struct{}{}
		if w.isKnown(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if !baselined {
			// First look at this directory: existing files are not
			// new downloads.
			w.markKnown(path)
			continue
		}

		prev, tracked := w.pending[path]
		switch {
		case !tracked || prev.size != info.Size():
			w.pending[path] = pendingFile{size: info.Size(), since: now}
		case now.Sub(prev.since) >= w.quietPeriod:
			delete(w.pending, path)
			w.markKnown(path)
			select {
			case w.in <- Event{Path: path}:
			case <-ctx.Done():
				return
			}
			w.logger.Debug("file stabilized", logging.String(logging.FieldPath, path))
		}
	}

	// Files that vanished since the last scan would otherwise pin map
	// entries for the daemon's lifetime.
	for path := range w.pending {
		if filepath.Dir(path) != dir {
			continue
		}
		if _, ok := present[path]; !ok {
			delete(w.pending, path)
		}
	}
	w.pruneKnown(dir, present)
}

func (w *Watcher) pruneKnown(dir string, present map[string]struct{}) {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	for path := range w.known {
		if filepath.Dir(path) != dir {
			continue
		}
		if _, ok := present[path]; !ok {
			delete(w.known, path)
		}
	}
}

// Forget drops a path from the known set so a future file with the same
// name is detected again. Called by the organizer after it moves or
// deletes a file out of a watched directory.
func (w *Watcher) Forget(path string) {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	delete(w.known, path)
}

// Remember marks a path as already handled so it is not re-detected.
// Called by the organizer after renaming a file inside a watched
// directory, which would otherwise look like a fresh arrival.
func (w *Watcher) Remember(path string) {
	w.markKnown(path)
}

func (w *Watcher) isKnown(path string) bool {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	_, ok := w.known[path]
	return ok
}

func (w *Watcher) markKnown(path string) {
	w.knownMu.Lock()
	defer w.knownMu.Unlock()
	w.known[path] = struct{}{}
}

func skipName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
