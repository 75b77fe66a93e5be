package task

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

var containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ImageSource identifies where a container's image comes from. Exactly one
// of BuildContext or PullRef is set.
type ImageSource struct {
	BuildContext string // directory reference passed to the engine driver's build op
	PullRef      string // pullable image reference
}

// IsBuild reports whether the image is produced by a local build.
func (s ImageSource) IsBuild() bool { return s.BuildContext != "" }

// Equal reports whether two image sources refer to the same underlying
// image, used to scope image-failure suppression (spec §4.3 open question).
func (s ImageSource) Equal(other ImageSource) bool {
	return s.BuildContext == other.BuildContext && s.PullRef == other.PullRef
}

func (s ImageSource) String() string {
	if s.IsBuild() {
		return fmt.Sprintf("build:%s", s.BuildContext)
	}
	return fmt.Sprintf("pull:%s", s.PullRef)
}

// EnvValue is either a literal value or a reference to a host environment
// variable. The config loader only classifies the value; a host reference is
// read from the environment by the engine driver when it creates the
// container.
type EnvValue struct {
	Literal   string
	HostRef   string
	IsHostRef bool
}

// PortMapping maps a local port to a container port; both in 1..65535.
type PortMapping struct {
	Local     int
	Container int
}

// VolumeMount binds a host path into the container.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	Mode          string // "", "ro", "rw"
}

// HealthCheck configures readiness probing for a container.
type HealthCheck struct {
	Interval    time.Duration
	Retries     int
	StartPeriod time.Duration
}

// Container is a single node in a task's dependency DAG.
type Container struct {
	Name        string
	Image       ImageSource
	Command     []string
	Environment map[string]EnvValue
	WorkingDir  string
	Volumes     []VolumeMount
	Ports       []PortMapping
	Health      *HealthCheck
	RunAsUser   bool
	DependsOn   []string
}

// HasHealthCheck reports whether the container declares a health check.
func (c *Container) HasHealthCheck() bool {
	return c != nil && c.Health != nil
}

// Validate checks a single container's structural invariants; cross-container
// checks (dependency existence, cycles) belong to Graph.
func (c *Container) Validate() error {
	if c.Name == "" {
		return newValidationError("container name is required", nil)
	}
	if !containerNamePattern.MatchString(c.Name) {
		return newValidationError("container name must match ^[a-zA-Z0-9_-]+$", map[string]interface{}{"name": c.Name})
	}
	if c.Image.BuildContext == "" && c.Image.PullRef == "" {
		return newValidationError("container requires a build context or pull reference", map[string]interface{}{"name": c.Name})
	}
	if c.Image.BuildContext != "" && c.Image.PullRef != "" {
		return newValidationError("container must not set both a build context and a pull reference", map[string]interface{}{"name": c.Name})
	}
	seen := make(map[string]struct{}, len(c.Environment))
	for key := range c.Environment {
		if _, ok := seen[key]; ok {
			return newValidationError("duplicate environment key", map[string]interface{}{"name": c.Name, "key": key})
		}
		seen[key] = struct{}{}
	}
	for _, p := range c.Ports {
		if p.Local < 1 || p.Local > 65535 || p.Container < 1 || p.Container > 65535 {
			return newValidationError("port mapping out of range 1..65535", map[string]interface{}{"name": c.Name})
		}
	}
	if c.Health != nil {
		if c.Health.Retries < 0 {
			return newValidationError("health check retries must be non-negative", map[string]interface{}{"name": c.Name})
		}
	}
	dup := make(map[string]struct{}, len(c.DependsOn))
	for _, d := range c.DependsOn {
		if d == c.Name {
			return newValidationError("container cannot depend on itself", map[string]interface{}{"name": c.Name})
		}
		if _, ok := dup[d]; ok {
			return newValidationError("duplicate dependency", map[string]interface{}{"name": c.Name, "dependency": d})
		}
		dup[d] = struct{}{}
	}
	return nil
}

// SortedDependencies returns a sorted copy of DependsOn, used wherever
// ordering must be deterministic (rule evaluation, textual form).
func (c *Container) SortedDependencies() []string {
	deps := append([]string(nil), c.DependsOn...)
	sort.Strings(deps)
	return deps
}
