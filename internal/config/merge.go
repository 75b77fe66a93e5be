package config

import (
	"dario.cat/mergo"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/engine"
)

// ResolveRunOptions merges a task's override onto base, the CLI-supplied
// RunOptions. A nil override or zero-value override field leaves base
// untouched; mergo.WithOverride lets only the override's non-zero fields win.
func ResolveRunOptions(base engine.RunOptions, override *task.RunOptionsOverride) (engine.RunOptions, error) {
	if override == nil {
		return base, nil
	}

	overlay := engine.RunOptions{
		LevelOfParallelism:    override.LevelOfParallelism,
		BehaviourAfterFailure: engine.BehaviourAfterFailure(override.BehaviourAfterFailure),
	}
	if override.IsInterruptible != nil {
		overlay.IsInterruptible = *override.IsInterruptible
	}

	merged := base
	if err := mergo.Merge(&merged, overlay, mergo.WithOverride); err != nil {
		return engine.RunOptions{}, err
	}

	// mergo treats a false bool as zero-value and would never let an
	// explicit "interruptible: false" override a true base; apply it by hand.
	if override.IsInterruptible != nil {
		merged.IsInterruptible = *override.IsInterruptible
	}
	return merged, nil
}
