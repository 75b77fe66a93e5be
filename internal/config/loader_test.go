package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/taskforge-dev/taskrun/internal/config"
)

const baseDoc = `
version: "1"
containers:
  db:
    image: postgres:16
    health:
      interval: 2s
      retries: 5
      start_period: 10s
  web:
    build: ./web
    environment:
      DATABASE_URL: "postgres://db"
      API_KEY: "$API_KEY"
    depends_on: [db]
tasks:
  serve:
    run: web
    run_options:
      parallelism: 2
      behaviour_after_failure: DoNotCleanup
`

func writeTemp(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadBuildsGraphForNamedTask(t *testing.T) {
	path := writeTemp(t, "task.yaml", baseDoc)
	l := config.New(nil)

	tk, g, err := l.Load(context.Background(), path, "serve")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tk.Main != "web" {
		t.Fatalf("expected main %q, got %q", "web", tk.Main)
	}
	if _, ok := g.Nodes["db"]; !ok {
		t.Fatalf("expected db node in graph")
	}
	if tk.RunOverride == nil || tk.RunOverride.LevelOfParallelism != 2 {
		t.Fatalf("expected parallelism override of 2, got %+v", tk.RunOverride)
	}
}

func TestLoadRejectsUnknownTask(t *testing.T) {
	path := writeTemp(t, "task.yaml", baseDoc)
	l := config.New(nil)

	if _, _, err := l.Load(context.Background(), path, "nope"); err == nil {
		t.Fatalf("expected error for unknown task name")
	}
}

func TestValidateCatchesMissingMain(t *testing.T) {
	const broken = `
version: "1"
containers:
  web:
    image: nginx:latest
tasks:
  serve:
    run: does-not-exist
`
	path := writeTemp(t, "task.yaml", broken)
	l := config.New(nil)

	if err := l.Validate(context.Background(), path); err == nil {
		t.Fatalf("expected validation error for missing main container")
	}
}

func TestLoadResolvesLocalInclude(t *testing.T) {
	dir := t.TempDir()
	fragmentPath := filepath.Join(dir, "fragment.yaml")
	if err := os.WriteFile(fragmentPath, []byte(`
version: "1"
containers:
  cache:
    image: redis:7
tasks: {}
`), 0o644); err != nil {
		t.Fatalf("writing fragment: %v", err)
	}

	mainPath := filepath.Join(dir, "main.yaml")
	if err := os.WriteFile(mainPath, []byte(`
version: "1"
include: ["fragment.yaml"]
containers:
  web:
    image: nginx:latest
    depends_on: [cache]
tasks:
  serve:
    run: web
`), 0o644); err != nil {
		t.Fatalf("writing main doc: %v", err)
	}

	l := config.New(nil)
	_, g, err := l.Load(context.Background(), mainPath, "serve")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := g.Nodes["cache"]; !ok {
		t.Fatalf("expected included container %q in graph", "cache")
	}
}

func TestLoadEnvironmentHostRefVsLiteral(t *testing.T) {
	path := writeTemp(t, "task.yaml", baseDoc)
	l := config.New(nil)

	tk, _, err := l.Load(context.Background(), path, "serve")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	web := tk.Containers["web"]
	if web.Environment["DATABASE_URL"].IsHostRef {
		t.Fatalf("DATABASE_URL should be a literal, got host ref")
	}
	apiKey := web.Environment["API_KEY"]
	if !apiKey.IsHostRef || apiKey.HostRef != "API_KEY" {
		t.Fatalf("expected API_KEY to be a host ref named API_KEY, got %+v", apiKey)
	}
}
