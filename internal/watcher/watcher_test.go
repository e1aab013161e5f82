package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shelf/internal/logging"
	"shelf/internal/rules"
)

func newStore(t *testing.T, watch ...string) *rules.Store {
	t.Helper()
	store, err := rules.Open(filepath.Join(t.TempDir(), "rules.json"), logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	doc := store.Snapshot().Clone()
	doc.Watchlist = watch
	if err := store.Replace(doc); err != nil {
		t.Fatalf("replace rules: %v", err)
	}
	// Drain the coalesced change signal so tests start clean.
	select {
	case <-store.Changes():
	default:
	}
	return store
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func startWatcher(t *testing.T, store *rules.Store) *Watcher {
	t.Helper()
	w := New(store, logging.NewNop(), 10*time.Millisecond, 30*time.Millisecond)
	w.Start(context.Background())
	t.Cleanup(w.Stop)
	return w
}

func expectEvent(t *testing.T, w *Watcher, path string) {
	t.Helper()
	select {
	case ev := <-w.Events():
		if ev.Path != path {
			t.Fatalf("event path = %q, want %q", ev.Path, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event for %s", path)
	}
}

func expectQuiet(t *testing.T, w *Watcher, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for %s", ev.Path)
	case <-time.After(wait):
	}
}

func TestWatcherEmitsNewStableFile(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))

	// Let the watcher baseline the empty directory first.
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "report.pdf")
	writeFile(t, path, "content")
	expectEvent(t, w, path)
}

func TestWatcherIgnoresPreexistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "already-here.txt"), "old")

	w := startWatcher(t, newStore(t, dir))
	expectQuiet(t, w, 200*time.Millisecond)
}

func TestWatcherWaitsForSizeToSettle(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "download.zip")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Keep the file growing past several quiet periods.
	for i := 0; i < 8; i++ {
		if _, err := f.WriteString("chunk\n"); err != nil {
			t.Fatalf("append: %v", err)
		}
		select {
		case ev := <-w.Events():
			t.Fatalf("emitted %s while still growing", ev.Path)
		case <-time.After(15 * time.Millisecond):
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	expectEvent(t, w, path)
}

func TestWatcherSkipsTemporaryAndHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))
	time.Sleep(50 * time.Millisecond)

	for _, name := range []string{"video.mp4.crdownload", "draft.tmp", "iso.part", ".DS_Store"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}
	expectQuiet(t, w, 200*time.Millisecond)
}

func TestWatcherIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))
	time.Sleep(50 * time.Millisecond)

	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(nested, "deep.txt"), "x")
	expectQuiet(t, w, 200*time.Millisecond)
}

func TestWatcherBaselinesNewlyAddedDirectory(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(second, "existing.txt"), "old")

	store := newStore(t, first)
	w := startWatcher(t, store)
	time.Sleep(50 * time.Millisecond)

	doc := store.Snapshot().Clone()
	doc.Watchlist = append(doc.Watchlist, second)
	if err := store.Replace(doc); err != nil {
		t.Fatalf("replace rules: %v", err)
	}

	// Files present when the directory joins the watch list stay silent.
	expectQuiet(t, w, 200*time.Millisecond)

	path := filepath.Join(second, "fresh.txt")
	writeFile(t, path, "new")
	expectEvent(t, w, path)
}

func TestWatcherForgetAllowsRedetection(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "inbox.txt")
	writeFile(t, path, "first")
	expectEvent(t, w, path)

	// Simulate the organizer moving the file out, then the same name
	// arriving again.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	w.Forget(path)
	time.Sleep(50 * time.Millisecond)

	writeFile(t, path, "second")
	expectEvent(t, w, path)
}

func TestWatcherPrunesDeletedKnownFiles(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "transient.txt")
	writeFile(t, path, "first")
	expectEvent(t, w, path)

	// The user deletes the handled file; the watcher lets go of it so a
	// later file under the same name is a fresh arrival.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if w.isKnown(path) {
		t.Fatal("deleted file should be pruned from the known set")
	}

	writeFile(t, path, "second")
	expectEvent(t, w, path)
}

func TestWatcherPrunesVanishedPendingFiles(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, newStore(t, dir))
	time.Sleep(50 * time.Millisecond)

	// Appears, then vanishes before it ever stabilizes.
	path := filepath.Join(dir, "aborted-download.bin")
	writeFile(t, path, "partial")
	time.Sleep(15 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	w.Stop()

	if len(w.pending) != 0 {
		t.Fatalf("pending = %v, want empty", w.pending)
	}
}

func TestWatcherSurvivesVanishedDirectory(t *testing.T) {
	dir := t.TempDir()
	doomed := t.TempDir()
	w := startWatcher(t, newStore(t, dir, doomed))
	time.Sleep(50 * time.Millisecond)

	// Remove a directory out from under the watcher; the other keeps
	// producing events.
	if err := os.RemoveAll(doomed); err != nil {
		t.Fatalf("remove: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(dir, "still-works.txt")
	writeFile(t, path, "x")
	expectEvent(t, w, path)
}

func TestWatcherStartStopIdempotent(t *testing.T) {
	w := New(newStore(t, t.TempDir()), logging.NewNop(), 10*time.Millisecond, 30*time.Millisecond)
	w.Start(context.Background())
	w.Start(context.Background())
	if !w.Active() {
		t.Fatal("watcher should be active after Start")
	}
	w.Stop()
	w.Stop()
	if w.Active() {
		t.Fatal("watcher should be inactive after Stop")
	}
}
