package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for the failure taxonomy. Wrap tags errors with one of
// these so callers can classify outcomes with errors.Is.
var (
	// ErrConfigInvalid marks a rejected configuration replace; process
	// state is unchanged when it is returned.
	ErrConfigInvalid = errors.New("config invalid")
	// ErrWatchUnavailable marks a watch directory that vanished.
	ErrWatchUnavailable = errors.New("watch unavailable")
	// ErrExtraction marks a failed content extraction. Non-fatal to the
	// task: the rename step is skipped.
	ErrExtraction = errors.New("extraction failed")
	// ErrNaming marks a failed AI naming call after its retry budget.
	ErrNaming = errors.New("naming failed")
	// ErrFilesystem marks a filesystem error fatal to a single task.
	ErrFilesystem = errors.New("filesystem error")
	// ErrUnsupported marks a file category the extractor cannot handle.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrTimeout marks an external call that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrFilesystem
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// RenameSkippable reports whether an error degrades the task (rename step
// skipped) rather than failing it.
func RenameSkippable(err error) bool {
	return errors.Is(err, ErrExtraction) || errors.Is(err, ErrNaming) || errors.Is(err, ErrUnsupported)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
