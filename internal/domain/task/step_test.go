package task

import "testing"

func TestStepTargetUniquePerKindAndContainer(t *testing.T) {
	a := Step{Kind: StepCreateContainer, Container: "web"}
	b := Step{Kind: StepCreateContainer, Container: "db"}
	c := Step{Kind: StepStartContainer, Container: "web"}
	if a.Target() == b.Target() {
		t.Fatalf("expected distinct targets for different containers")
	}
	if a.Target() == c.Target() {
		t.Fatalf("expected distinct targets for different step kinds")
	}
}

func TestStepTargetNetworkStepsHaveNoContainer(t *testing.T) {
	s := Step{Kind: StepCreateNetwork}
	if s.Target() != string(StepCreateNetwork) {
		t.Fatalf("expected bare kind as target, got %q", s.Target())
	}
}

func TestStepStringIncludesBuildContext(t *testing.T) {
	s := Step{Kind: StepBuildImage, Container: "web", Image: ImageSource{BuildContext: "./web"}}
	got := s.String()
	want := "BuildImage(container: 'web', context: './web')"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
