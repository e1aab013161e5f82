package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"shelf/internal/logging"
	"shelf/internal/services"
)

// Store publishes the routing document as an atomically swapped snapshot
// and persists successful replacements back to disk. Single writer,
// many readers.
type Store struct {
	path   string
	logger *slog.Logger

	mu  sync.RWMutex
	doc Document

	changes chan struct{}
}

// Open loads the document at path, or starts from defaults when the file
// does not exist yet (first run).
func Open(path string, logger *slog.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		logger:  logging.NewComponentLogger(logger, "rules"),
		doc:     Default(),
		changes: make(chan struct{}, 1),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("rules file missing, starting with defaults", logging.String(logging.FieldPath, path))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	doc := Default()
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	normalize(&doc)
	if err := Validate(doc); err != nil {
		return nil, services.Wrap(services.ErrConfigInvalid, "rules", "open", path, err)
	}
	s.doc = doc
	return s, nil
}

// Snapshot returns the active document. Callers must treat it as
// read-only; Replace publishes new snapshots.
func (s *Store) Snapshot() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Replace validates doc and, on success, persists it and publishes it as
// the new snapshot. On failure the active document is unchanged and the
// returned error wraps services.ErrConfigInvalid with a *ValidationError
// enumerating the offending fields.
func (s *Store) Replace(doc Document) error {
	doc = doc.Clone()
	normalize(&doc)
	if err := Validate(doc); err != nil {
		return services.Wrap(services.ErrConfigInvalid, "rules", "replace", "rejected", err)
	}
	if err := s.persist(doc); err != nil {
		return err
	}

	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()

	select {
	case s.changes <- struct{}{}:
	default:
	}
	s.logger.Info("routing rules replaced",
		logging.Int("watchlist", len(doc.Watchlist)),
		logging.Int("url_rules", len(doc.Schema.Move.URL)),
		logging.Int("tag_rules", len(doc.Schema.Move.Tag)),
		logging.Int("rename_folders", len(doc.Schema.Rename)),
	)
	return nil
}

// Changes returns a channel that receives a (coalesced) signal after
// every successful Replace. Used by the watcher to re-subscribe.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

func (s *Store) persist(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encode rules: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write rules: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit rules: %w", err)
	}
	return nil
}

func normalize(doc *Document) {
	if doc.Schema.Move.URL == nil {
		doc.Schema.Move.URL = map[string]string{}
	}
	if doc.Schema.Move.Tag == nil {
		doc.Schema.Move.Tag = map[string]string{}
	}
	if doc.Watchlist == nil {
		doc.Watchlist = []string{}
	}
	if doc.Schema.Rename == nil {
		doc.Schema.Rename = []string{}
	}
	for i, entry := range doc.Watchlist {
		doc.Watchlist[i] = filepath.Clean(entry)
	}
	for i, entry := range doc.Schema.Rename {
		doc.Schema.Rename[i] = filepath.Clean(entry)
	}
}
