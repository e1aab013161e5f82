package organizer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"shelf/internal/dedup"
	"shelf/internal/events"
	"shelf/internal/extract"
	"shelf/internal/fileutil"
	"shelf/internal/logging"
	"shelf/internal/match"
	"shelf/internal/namer"
	"shelf/internal/provenance"
	"shelf/internal/rules"
	"shelf/internal/services"
	"shelf/internal/task"
)

func (o *Organizer) process(ctx context.Context, sourcePath string) {
	tk := task.New(sourcePath)
	doc := o.rules.Snapshot()
	logger := o.logger.With(
		logging.String(logging.FieldTaskID, tk.ID),
		logging.String(logging.FieldPath, sourcePath),
	)
	logger.Info("task started", logging.String(logging.FieldEventType, "task_started"))

	tk.Advance(task.StageRouting)

	if _, err := os.Stat(sourcePath); err != nil {
		tk.Fail("source vanished before routing")
		o.finish(ctx, tk, logger)
		return
	}

	meta, err := o.lookup(ctx, sourcePath)
	if err != nil {
		// Metadata problems are never fatal: the file just routes by
		// tag or stays put.
		logger.Warn("provenance lookup failed", logging.Error(err))
		meta = provenance.Metadata{}
	}
	if len(meta.SourceURLs) > 0 {
		tk.SourceURL = meta.SourceURLs[0]
	}
	if len(meta.Tags) > 0 {
		tk.Tag = meta.Tags[0]
	}

	destination := o.route(doc, meta)
	if destination == "" {
		o.processUnrouted(ctx, tk, doc, logger)
		return
	}

	if doc.Settings.RemoveDuplicate {
		dup, err := dedup.IsDuplicate(sourcePath, destination)
		if err != nil {
			tk.Fail(err.Error())
			o.finish(ctx, tk, logger)
			return
		}
		if dup {
			if err := os.Remove(sourcePath); err != nil {
				tk.Fail("remove duplicate: " + err.Error())
				o.finish(ctx, tk, logger)
				return
			}
			o.source.Forget(sourcePath)
			tk.DestinationPath = destination
			tk.Advance(task.StageSkipped)
			logger.Info("duplicate discarded",
				logging.String(logging.FieldEventType, "duplicate_skipped"),
				logging.String("destination", destination),
			)
			o.finish(ctx, tk, logger)
			return
		}
	}

	target, err := o.moveFile(sourcePath, destination)
	if err != nil {
		tk.Fail(err.Error())
		o.finish(ctx, tk, logger)
		return
	}
	o.source.Forget(sourcePath)
	// The destination may itself be watched; never re-detect our own
	// move.
	o.source.Remember(target)
	tk.DestinationPath = target
	tk.Advance(task.StageMoved)

	filename := filepath.Base(sourcePath)
	o.broadcast.Publish(events.NewFileMoved(filename, sourcePath, target, destination))
	if err := o.notifier.NotifyFileMoved(ctx, filename, destination); err != nil {
		logger.Warn("move notification failed", logging.Error(err))
	}
	logger.Info("file moved",
		logging.String(logging.FieldEventType, "file_moved"),
		logging.String("destination", target),
	)

	if doc.Settings.RenameByAI && doc.RenameEligible(destination) {
		o.renameStage(ctx, tk, doc, target, logger)
	} else {
		tk.Advance(task.StageCommitted)
	}
	o.finish(ctx, tk, logger)
}

// processUnrouted handles files with no matching destination. A direct
// drop into a rename-eligible watched folder still enters the rename
// sub-pipeline in place; anything else is a committed no-op.
func (o *Organizer) processUnrouted(ctx context.Context, tk *task.Task, doc rules.Document, logger *slog.Logger) {
	dir := filepath.Dir(tk.SourcePath)
	if doc.Settings.RenameByAI && doc.RenameEligible(dir) {
		tk.DestinationPath = tk.SourcePath
		tk.Advance(task.StageMoved)
		o.renameStage(ctx, tk, doc, tk.SourcePath, logger)
	} else {
		tk.Advance(task.StageCommitted)
		logger.Info("no destination, file left in place",
			logging.String(logging.FieldEventType, "no_match"))
	}
	o.finish(ctx, tk, logger)
}

// route resolves a destination from the provenance metadata: URL rules
// first, then the bare-domain fallback, then tag rules.
func (o *Organizer) route(doc rules.Document, meta provenance.Metadata) string {
	for _, rawURL := range meta.SourceURLs {
		if result := match.Match(doc.Schema.Move.URL, rawURL); result.Matched {
			return result.Destination
		}
	}
	for _, rawURL := range meta.SourceURLs {
		if result := match.DomainFallback(doc.Schema.Move.URL, rawURL); result.Matched {
			return result.Destination
		}
	}
	for _, tag := range meta.Tags {
		if result := match.Match(doc.Schema.Move.Tag, tag); result.Matched {
			return result.Destination
		}
	}
	return ""
}

func (o *Organizer) moveFile(sourcePath, destination string) (string, error) {
	unlock := o.lockDestination(destination)
	defer unlock()

	if err := fileutil.EnsureDir(destination); err != nil {
		return "", err
	}
	target := fileutil.UniquePath(filepath.Join(destination, filepath.Base(sourcePath)))
	if err := fileutil.SafeMove(sourcePath, target); err != nil {
		return "", err
	}
	return target, nil
}

// renameStage runs extract -> propose -> physical rename. Extraction
// and naming failures leave the task committed under its original name;
// only the final filesystem rename can fail the task.
func (o *Organizer) renameStage(ctx context.Context, tk *task.Task, doc rules.Document, path string, logger *slog.Logger) {
	tk.Advance(task.StageExtracting)

	if !extract.Supported(path) {
		logger.Info("rename skipped, unsupported format",
			logging.String(logging.FieldEventType, "rename_skipped"))
		tk.Advance(task.StageCommitted)
		return
	}
	content, err := extract.Extract(ctx, path)
	if err != nil {
		logger.Warn("extraction failed, keeping original name",
			logging.String(logging.FieldEventType, "rename_skipped"),
			logging.Error(err),
		)
		tk.Advance(task.StageCommitted)
		return
	}
	tk.ExtractedText = content.Text

	tk.Advance(task.StageRenaming)
	models := namer.Models{Rename: doc.Settings.RenameModel, OCR: doc.Settings.OCRModel}
	name, err := o.namer.Propose(ctx, models, content, extract.TypeLabel(path))
	if err != nil {
		logger.Warn("naming failed, keeping original name",
			logging.String(logging.FieldEventType, "rename_skipped"),
			logging.Error(err),
		)
		tk.Advance(task.StageCommitted)
		return
	}
	tk.ProposedName = name

	dir := filepath.Dir(path)
	newPath, err := o.renameFile(path, dir, name+strings.ToLower(filepath.Ext(path)))
	if err != nil {
		tk.Fail("rename: " + err.Error())
		return
	}
	if newPath == path {
		// Proposed name matched the current one; nothing changed.
		tk.Advance(task.StageCommitted)
		return
	}
	o.source.Forget(path)
	o.source.Remember(newPath)
	tk.DestinationPath = newPath
	tk.ProposedName = strings.TrimSuffix(filepath.Base(newPath), filepath.Ext(newPath))

	oldName := filepath.Base(path)
	newName := filepath.Base(newPath)
	o.broadcast.Publish(events.NewFileRenamed(oldName, newName, dir, newPath))
	if err := o.notifier.NotifyFileRenamed(ctx, oldName, newName, dir); err != nil {
		logger.Warn("rename notification failed", logging.Error(err))
	}
	logger.Info("file renamed",
		logging.String(logging.FieldEventType, "file_renamed"),
		logging.String("new_name", newName),
	)
	tk.Advance(task.StageCommitted)
}

func (o *Organizer) renameFile(path, dir, filename string) (string, error) {
	unlock := o.lockDestination(dir)
	defer unlock()

	newPath := fileutil.UniquePath(filepath.Join(dir, filename))
	if newPath == path {
		return path, nil
	}
	if err := os.Rename(path, newPath); err != nil {
		return "", err
	}
	return newPath, nil
}

// RenameNow runs the extract/propose/rename sub-pipeline for a single
// file on demand, outside the watch flow. The rename_by_ai toggle does
// not gate explicit requests. Returns the old and new file names.
func (o *Organizer) RenameNow(ctx context.Context, path string) (string, string, error) {
	oldName := filepath.Base(path)
	if _, err := os.Stat(path); err != nil {
		return oldName, "", services.Wrap(services.ErrFilesystem, "organizer", "rename_now", path, err)
	}

	doc := o.rules.Snapshot()
	tk := task.New(path)
	logger := o.logger.With(
		logging.String(logging.FieldTaskID, tk.ID),
		logging.String(logging.FieldPath, path),
	)
	tk.Advance(task.StageRouting)
	tk.DestinationPath = path
	tk.Advance(task.StageMoved)
	o.renameStage(ctx, tk, doc, path, logger)
	o.finish(ctx, tk, logger)

	if tk.Stage == task.StageFailed {
		return oldName, "", services.Wrap(services.ErrFilesystem, "organizer", "rename_now", path,
			errors.New(tk.FailureReason))
	}
	if tk.DestinationPath == path {
		return oldName, "", services.Wrap(services.ErrNaming, "organizer", "rename_now", path,
			errors.New("no rename produced"))
	}
	return oldName, filepath.Base(tk.DestinationPath), nil
}

// finish journals the terminal task and logs its outcome. Failed tasks
// additionally raise an error notification; skipped and committed ones
// end quietly.
func (o *Organizer) finish(ctx context.Context, tk *task.Task, logger *slog.Logger) {
	if o.journal != nil {
		if err := o.journal.Record(ctx, tk); err != nil {
			logger.Warn("journal write failed", logging.Error(err))
		}
	}
	switch tk.Stage {
	case task.StageFailed:
		logger.Error("task failed",
			logging.String(logging.FieldEventType, "task_failed"),
			logging.String("reason", tk.FailureReason),
		)
		if err := o.notifier.NotifyError(ctx, errors.New(tk.FailureReason), filepath.Base(tk.SourcePath)); err != nil {
			logger.Warn("error notification failed", logging.Error(err))
		}
	default:
		logger.Info("task finished",
			logging.String(logging.FieldEventType, "task_finished"),
			logging.String("stage", string(tk.Stage)),
		)
	}
}
