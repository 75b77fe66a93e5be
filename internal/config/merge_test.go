package config_test

import (
	"testing"

	"github.com/taskforge-dev/taskrun/internal/config"
	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/engine"
)

func TestResolveRunOptionsNilOverrideReturnsBase(t *testing.T) {
	base := engine.RunOptions{LevelOfParallelism: 4, BehaviourAfterFailure: engine.Cleanup}
	got, err := config.ResolveRunOptions(base, nil)
	if err != nil {
		t.Fatalf("ResolveRunOptions: %v", err)
	}
	if got.LevelOfParallelism != base.LevelOfParallelism || got.BehaviourAfterFailure != base.BehaviourAfterFailure {
		t.Fatalf("expected unchanged base, got %+v", got)
	}
}

func TestResolveRunOptionsOverridesOnlySetFields(t *testing.T) {
	base := engine.RunOptions{LevelOfParallelism: 4, BehaviourAfterFailure: engine.Cleanup, IsInterruptible: true}
	override := &task.RunOptionsOverride{LevelOfParallelism: 8}

	got, err := config.ResolveRunOptions(base, override)
	if err != nil {
		t.Fatalf("ResolveRunOptions: %v", err)
	}
	if got.LevelOfParallelism != 8 {
		t.Fatalf("expected parallelism 8, got %d", got.LevelOfParallelism)
	}
	if got.BehaviourAfterFailure != engine.Cleanup {
		t.Fatalf("expected untouched BehaviourAfterFailure, got %q", got.BehaviourAfterFailure)
	}
	if !got.IsInterruptible {
		t.Fatalf("expected untouched IsInterruptible true")
	}
}

func TestResolveRunOptionsExplicitFalseInterruptibleWins(t *testing.T) {
	base := engine.RunOptions{LevelOfParallelism: 4, IsInterruptible: true}
	no := false
	override := &task.RunOptionsOverride{IsInterruptible: &no}

	got, err := config.ResolveRunOptions(base, override)
	if err != nil {
		t.Fatalf("ResolveRunOptions: %v", err)
	}
	if got.IsInterruptible {
		t.Fatalf("expected explicit false override to win")
	}
}
