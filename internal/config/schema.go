// Package config loads and validates the YAML task-graph schema, resolves
// remote `include:` fragments, and merges task-level run-option overrides
// onto the CLI's base RunOptions.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskforge-dev/taskrun/internal/domain/task"
)

// Document is the top-level shape of a task-graph YAML file.
type Document struct {
	Version    string                   `yaml:"version" validate:"required"`
	Include    []string                 `yaml:"include,omitempty"`
	Containers map[string]ContainerSpec `yaml:"containers" validate:"required,dive"`
	Tasks      map[string]TaskSpec      `yaml:"tasks" validate:"required,dive"`
}

// ContainerSpec is the YAML shape of a single container declaration.
type ContainerSpec struct {
	Image            string            `yaml:"image,omitempty"`
	Build            string            `yaml:"build,omitempty"`
	Command          []string          `yaml:"command,omitempty"`
	Environment      map[string]string `yaml:"environment,omitempty"`
	WorkingDir       string            `yaml:"working_dir,omitempty"`
	Volumes          []VolumeSpec      `yaml:"volumes,omitempty"`
	Ports            []PortSpec        `yaml:"ports,omitempty"`
	Health           *HealthSpec       `yaml:"health,omitempty"`
	RunAsCurrentUser bool              `yaml:"run_as_current_user,omitempty"`
	DependsOn        []string          `yaml:"depends_on,omitempty"`
}

// VolumeSpec binds a host path into a container.
type VolumeSpec struct {
	Local     string `yaml:"local" validate:"required"`
	Container string `yaml:"container" validate:"required"`
	Options   string `yaml:"options,omitempty" validate:"omitempty,oneof=ro rw"`
}

// PortSpec maps a local port to a container port.
type PortSpec struct {
	Local     int `yaml:"local" validate:"required,min=1,max=65535"`
	Container int `yaml:"container" validate:"required,min=1,max=65535"`
}

// HealthSpec configures readiness probing for a container.
type HealthSpec struct {
	Interval    string `yaml:"interval,omitempty"`
	Retries     int    `yaml:"retries,omitempty" validate:"omitempty,min=0"`
	StartPeriod string `yaml:"start_period,omitempty"`
}

// TaskSpec is the YAML shape of one named task.
type TaskSpec struct {
	Run           string                  `yaml:"run" validate:"required"`
	Prerequisites []string                `yaml:"prerequisites,omitempty"`
	RunOptions    *RunOptionsOverrideSpec `yaml:"run_options,omitempty"`
}

// RunOptionsOverrideSpec is the YAML shape of a task-level RunOptions
// override, merged onto the CLI's base RunOptions with dario.cat/mergo.
type RunOptionsOverrideSpec struct {
	Parallelism           int    `yaml:"parallelism,omitempty" validate:"omitempty,min=1"`
	BehaviourAfterFailure string `yaml:"behaviour_after_failure,omitempty" validate:"omitempty,oneof=Cleanup DoNotCleanup"`
	Interruptible         *bool  `yaml:"interruptible,omitempty"`
}

// toContainer converts a validated ContainerSpec into a domain Container.
// Environment values of the form "$NAME" are host references; anything else
// is a literal.
func (s ContainerSpec) toContainer(name string) (*task.Container, error) {
	env := make(map[string]task.EnvValue, len(s.Environment))
	for k, v := range s.Environment {
		if strings.HasPrefix(v, "$") {
			env[k] = task.EnvValue{HostRef: strings.TrimPrefix(v, "$"), IsHostRef: true}
		} else {
			env[k] = task.EnvValue{Literal: v}
		}
	}

	volumes := make([]task.VolumeMount, 0, len(s.Volumes))
	for _, v := range s.Volumes {
		volumes = append(volumes, task.VolumeMount{HostPath: v.Local, ContainerPath: v.Container, Mode: v.Options})
	}

	ports := make([]task.PortMapping, 0, len(s.Ports))
	for _, p := range s.Ports {
		ports = append(ports, task.PortMapping{Local: p.Local, Container: p.Container})
	}

	var health *task.HealthCheck
	if s.Health != nil {
		interval, err := parseDurationOrZero(s.Health.Interval)
		if err != nil {
			return nil, fmt.Errorf("container %q: health.interval: %w", name, err)
		}
		startPeriod, err := parseDurationOrZero(s.Health.StartPeriod)
		if err != nil {
			return nil, fmt.Errorf("container %q: health.start_period: %w", name, err)
		}
		health = &task.HealthCheck{Interval: interval, Retries: s.Health.Retries, StartPeriod: startPeriod}
	}

	return &task.Container{
		Name:        name,
		Image:       task.ImageSource{BuildContext: s.Build, PullRef: s.Image},
		Command:     append([]string(nil), s.Command...),
		Environment: env,
		WorkingDir:  s.WorkingDir,
		Volumes:     volumes,
		Ports:       ports,
		Health:      health,
		RunAsUser:   s.RunAsCurrentUser,
		DependsOn:   append([]string(nil), s.DependsOn...),
	}, nil
}

func parseDurationOrZero(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// toOverride converts a validated RunOptionsOverrideSpec into a domain
// RunOptionsOverride.
func (s *RunOptionsOverrideSpec) toOverride() *task.RunOptionsOverride {
	if s == nil {
		return nil
	}
	return &task.RunOptionsOverride{
		LevelOfParallelism:    s.Parallelism,
		BehaviourAfterFailure: s.BehaviourAfterFailure,
		IsInterruptible:       s.Interruptible,
	}
}
