package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage represents the lifecycle of a file task.
type Stage string

const (
	StageDetected   Stage = "detected"
	StageRouting    Stage = "routing"
	StageMoved      Stage = "moved"
	StageExtracting Stage = "extracting"
	StageRenaming   Stage = "renaming"
	StageCommitted  Stage = "committed"
	StageSkipped    Stage = "skipped"
	StageFailed     Stage = "failed"
)

var allStages = []Stage{
	StageDetected,
	StageRouting,
	StageMoved,
	StageExtracting,
	StageRenaming,
	StageCommitted,
	StageSkipped,
	StageFailed,
}

// validTransitions encodes the forward edges of the state machine.
// Failed is reachable from any non-terminal stage and is handled in
// CanTransition directly.
var validTransitions = map[Stage][]Stage{
	StageDetected:   {StageRouting},
	StageRouting:    {StageMoved, StageSkipped, StageCommitted},
	StageMoved:      {StageExtracting, StageCommitted},
	StageExtracting: {StageRenaming, StageCommitted},
	StageRenaming:   {StageCommitted},
}

// Task is the unit of work for one incoming file. Owned exclusively by
// the organizer; it mutates stages only through Advance/Fail.
type Task struct {
	ID              string
	SourcePath      string
	SourceURL       string
	Tag             string
	Stage           Stage
	DestinationPath string
	ExtractedText   string
	ProposedName    string
	FailureReason   string
	DetectedAt      time.Time
}

// New creates a task for a freshly stabilized file.
func New(sourcePath string) *Task {
	return &Task{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		Stage:      StageDetected,
		DetectedAt: time.Now(),
	}
}

// Terminal reports whether the stage is absorbing.
func (s Stage) Terminal() bool {
	switch s {
	case StageCommitted, StageSkipped, StageFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether moving from the current stage to next
// is legal.
func CanTransition(from, to Stage) bool {
	if from.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Advance moves the task to next, reporting false (and leaving the task
// untouched) when the transition is illegal.
func (t *Task) Advance(next Stage) bool {
	if !CanTransition(t.Stage, next) {
		return false
	}
	t.Stage = next
	return true
}

// Fail moves the task to the failed stage with a reason. No-op when the
// task is already terminal.
func (t *Task) Fail(reason string) {
	if t.Stage.Terminal() {
		return
	}
	t.Stage = StageFailed
	t.FailureReason = strings.TrimSpace(reason)
}

// ParseStage converts a string into a known Stage.
func ParseStage(value string) (Stage, bool) {
	normalized := Stage(strings.ToLower(strings.TrimSpace(value)))
	for _, stage := range allStages {
		if stage == normalized {
			return stage, true
		}
	}
	return "", false
}
