package task

import "fmt"

// RunOptionsOverride carries task-level overrides merged onto the CLI's base
// RunOptions with dario.cat/mergo by the config loader (see internal/config).
// Zero-value fields mean "no override" and must never clobber the base.
type RunOptionsOverride struct {
	LevelOfParallelism    int
	BehaviourAfterFailure string
	IsInterruptible       *bool
}

// Task names a main container plus the transitively-required dependency
// containers that must be built, started, health-checked, and torn down
// around it.
type Task struct {
	Name          string
	Main          string
	Prerequisites []string // higher-layer ordering only; inert to the engine
	RunOverride   *RunOptionsOverride
	Containers    map[string]*Container
}

// Graph builds the validated dependency DAG for this task, rejecting cycles
// and dangling references. It is the sole entry point the engine consumes;
// nothing downstream re-derives structure from Task directly.
func (t *Task) Graph() (*Graph, error) {
	if t.Name == "" {
		return nil, newValidationError("task name is required", nil)
	}
	if t.Main == "" {
		return nil, newValidationError("task main container is required", map[string]interface{}{"task": t.Name})
	}
	if _, ok := t.Containers[t.Main]; !ok {
		return nil, newValidationError("main container not found among declared containers", map[string]interface{}{"task": t.Name, "main": t.Main})
	}

	g := NewGraph()
	for name, c := range t.Containers {
		if name != c.Name {
			return nil, newValidationError("container map key must match container name", map[string]interface{}{"key": name, "name": c.Name})
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, err := g.AddNode(c); err != nil {
			return nil, err
		}
	}
	for _, c := range t.Containers {
		for _, dep := range c.DependsOn {
			if _, ok := t.Containers[dep]; !ok {
				return nil, newValidationError("dependency not declared", map[string]interface{}{"container": c.Name, "dependency": dep})
			}
			if err := g.AddEdge(dep, c.Name); err != nil {
				return nil, err
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}
	g.Main = t.Main
	if err := g.pruneToMainClosure(); err != nil {
		return nil, err
	}
	return g, nil
}

func (t *Task) String() string {
	return fmt.Sprintf("Task(name: %q, main: %q, containers: %d)", t.Name, t.Main, len(t.Containers))
}
