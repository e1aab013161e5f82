package task_test

import (
	"testing"

	"shelf/internal/task"
)

func TestHappyPathTransitions(t *testing.T) {
	tk := task.New("/downloads/report.pdf")
	for _, next := range []task.Stage{
		task.StageRouting,
		task.StageMoved,
		task.StageExtracting,
		task.StageRenaming,
		task.StageCommitted,
	} {
		if !tk.Advance(next) {
			t.Fatalf("transition %s -> %s rejected", tk.Stage, next)
		}
	}
	if !tk.Stage.Terminal() {
		t.Fatal("committed should be terminal")
	}
}

func TestSkippedOnlyFromRouting(t *testing.T) {
	if !task.CanTransition(task.StageRouting, task.StageSkipped) {
		t.Fatal("routing -> skipped must be legal")
	}
	if task.CanTransition(task.StageMoved, task.StageSkipped) {
		t.Fatal("moved -> skipped must be illegal")
	}
}

func TestFailedReachableFromAnyNonTerminal(t *testing.T) {
	for _, from := range []task.Stage{
		task.StageDetected, task.StageRouting, task.StageMoved,
		task.StageExtracting, task.StageRenaming,
	} {
		if !task.CanTransition(from, task.StageFailed) {
			t.Fatalf("%s -> failed must be legal", from)
		}
	}
	for _, from := range []task.Stage{task.StageCommitted, task.StageSkipped, task.StageFailed} {
		if task.CanTransition(from, task.StageFailed) {
			t.Fatalf("terminal stage %s must not transition", from)
		}
	}
}

func TestDegradedCommitFromExtracting(t *testing.T) {
	// Extraction failure commits with the original name instead of failing.
	tk := task.New("/downloads/scan.pdf")
	tk.Advance(task.StageRouting)
	tk.Advance(task.StageMoved)
	tk.Advance(task.StageExtracting)
	if !tk.Advance(task.StageCommitted) {
		t.Fatal("extracting -> committed must be legal")
	}
}

func TestFailKeepsReasonAndIsIdempotent(t *testing.T) {
	tk := task.New("/downloads/x")
	tk.Advance(task.StageRouting)
	tk.Fail("permission denied")
	if tk.Stage != task.StageFailed || tk.FailureReason != "permission denied" {
		t.Fatalf("Fail: stage=%s reason=%q", tk.Stage, tk.FailureReason)
	}
	tk.Fail("second reason")
	if tk.FailureReason != "permission denied" {
		t.Fatal("Fail must not overwrite a terminal task")
	}
}

func TestParseStage(t *testing.T) {
	if stage, ok := task.ParseStage(" Committed "); !ok || stage != task.StageCommitted {
		t.Fatalf("ParseStage = %q, %v", stage, ok)
	}
	if _, ok := task.ParseStage("bogus"); ok {
		t.Fatal("bogus stage accepted")
	}
}
