package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	domaintask "github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/ports"
)

// Loader implements ports.ConfigLoader against the local filesystem, with
// remote `include:` fragments resolved by Includer.
type Loader struct {
	validate *validator.Validate
	includer *Includer
}

// New builds a Loader. includer may be nil to disable remote includes: local
// `include:` entries still resolve, and a remote entry is then an error.
func New(includer *Includer) *Loader {
	return &Loader{validate: validator.New(), includer: includer}
}

var _ ports.ConfigLoader = (*Loader)(nil)

// Load materialises and validates the named task from path, resolving
// includes and returning its pruned dependency graph.
func (l *Loader) Load(ctx context.Context, path string, taskName string) (*domaintask.Task, *domaintask.Graph, error) {
	doc, err := l.loadMerged(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	spec, ok := doc.Tasks[taskName]
	if !ok {
		return nil, nil, fmt.Errorf("task %q not declared in %s", taskName, path)
	}

	containers := make(map[string]*domaintask.Container, len(doc.Containers))
	for name, cs := range doc.Containers {
		c, err := cs.toContainer(name)
		if err != nil {
			return nil, nil, err
		}
		containers[name] = c
	}

	tk := &domaintask.Task{
		Name:          taskName,
		Main:          spec.Run,
		Prerequisites: spec.Prerequisites,
		RunOverride:   spec.RunOptions.toOverride(),
		Containers:    containers,
	}

	g, err := tk.Graph()
	if err != nil {
		return nil, nil, err
	}
	return tk, g, nil
}

// Validate parses and validates every task declared at path without
// resolving a specific one, for `taskrun validate`.
func (l *Loader) Validate(ctx context.Context, path string) error {
	doc, err := l.loadMerged(ctx, path)
	if err != nil {
		return err
	}

	containers := make(map[string]*domaintask.Container, len(doc.Containers))
	for name, cs := range doc.Containers {
		c, err := cs.toContainer(name)
		if err != nil {
			return err
		}
		containers[name] = c
	}

	for name, spec := range doc.Tasks {
		tk := &domaintask.Task{
			Name:          name,
			Main:          spec.Run,
			Prerequisites: spec.Prerequisites,
			RunOverride:   spec.RunOptions.toOverride(),
			Containers:    containers,
		}
		if _, err := tk.Graph(); err != nil {
			return fmt.Errorf("task %q: %w", name, err)
		}
	}
	return nil
}

// loadMerged reads path, recursively resolves `include:` fragments, and
// validates the merged document's struct tags.
func (l *Loader) loadMerged(ctx context.Context, path string) (*Document, error) {
	doc, err := l.readOne(ctx, path)
	if err != nil {
		return nil, err
	}

	for _, include := range doc.Include {
		var fragment *Document
		if isRemote(include) {
			if l.includer == nil {
				return nil, fmt.Errorf("include %q is remote but no includer is configured", include)
			}
			data, err := l.includer.Fetch(ctx, include)
			if err != nil {
				return nil, fmt.Errorf("include %q: %w", include, err)
			}
			fragment, err = parseDocument(data)
			if err != nil {
				return nil, fmt.Errorf("include %q: %w", include, err)
			}
		} else {
			fragment, err = l.readOne(ctx, filepath.Join(filepath.Dir(path), include))
			if err != nil {
				return nil, fmt.Errorf("include %q: %w", include, err)
			}
		}
		mergeInto(doc, fragment)
	}

	if err := l.validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func (l *Loader) readOne(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return parseDocument(data)
}

func parseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return &doc, nil
}

// mergeInto folds fragment's containers and tasks into base. A name already
// declared in base is left untouched — the base document always wins over
// an included fragment.
func mergeInto(base, fragment *Document) {
	if base.Containers == nil {
		base.Containers = make(map[string]ContainerSpec)
	}
	for name, c := range fragment.Containers {
		if _, exists := base.Containers[name]; !exists {
			base.Containers[name] = c
		}
	}
	if base.Tasks == nil {
		base.Tasks = make(map[string]TaskSpec)
	}
	for name, t := range fragment.Tasks {
		if _, exists := base.Tasks[name]; !exists {
			base.Tasks[name] = t
		}
	}
}

func isRemote(include string) bool {
	return len(include) > 4 && (include[:4] == "http" || include[:4] == "git@" || include[:6] == "git://")
}
