package task

import "testing"

func TestTaskGraphRejectsDuplicateMapKeyMismatch(t *testing.T) {
	tk := &Task{
		Name: "t1",
		Main: "web",
		Containers: map[string]*Container{
			"web": {Name: "different-name"},
		},
	}
	if _, err := tk.Graph(); err == nil {
		t.Fatalf("expected error when map key does not match container name")
	}
}

func TestTaskStringIncludesContainerCount(t *testing.T) {
	tk := &Task{
		Name: "deploy",
		Main: "web",
		Containers: map[string]*Container{
			"web": {Name: "web"},
			"db":  {Name: "db"},
		},
	}
	got := tk.String()
	want := `Task(name: "deploy", main: "web", containers: 2)`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
