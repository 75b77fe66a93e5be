package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/taskforge-dev/taskrun/internal/config"
	"github.com/taskforge-dev/taskrun/internal/dispatch"
	"github.com/taskforge-dev/taskrun/internal/domain/task"
	"github.com/taskforge-dev/taskrun/internal/engine"
	"github.com/taskforge-dev/taskrun/internal/tui"
)

func newRunCmd(root *rootFlags, app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config> <task>",
		Short: "Load a task graph and run it to completion",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := runTask(cmd.Context(), app, root, args[0], args[1])
			if err != nil {
				return err
			}
			if !status.Success() {
				if status.HasExitCode {
					os.Exit(status.ExitCode)
				}
				os.Exit(1)
			}
			return nil
		},
	}

	return cmd
}

func runTask(ctx context.Context, app *AppContext, root *rootFlags, configPath, taskName string) (engine.TaskExitStatus, error) {
	log := app.LoggerFor("run")

	tk, graph, err := app.Loader.Load(ctx, configPath, taskName)
	if err != nil {
		return engine.TaskExitStatus{}, fmt.Errorf("load task %q: %w", taskName, err)
	}

	behaviour := engine.Cleanup
	if root.noCleanup {
		behaviour = engine.DoNotCleanup
	}
	base := engine.RunOptions{
		TaskName:              taskName,
		LevelOfParallelism:    root.parallelism,
		BehaviourAfterFailure: behaviour,
	}
	opts, err := config.ResolveRunOptions(base, tk.RunOverride)
	if err != nil {
		return engine.TaskExitStatus{}, fmt.Errorf("resolve run options for task %q: %w", taskName, err)
	}

	networkName := "taskrun-" + taskName
	sm := engine.NewStateMachine(graph)
	runner := dispatch.New(app.Driver, graph, networkName)

	nonInteractive := !term.IsTerminal(int(os.Stdout.Fd()))
	modelState := tui.NewModel(taskName, nonInteractive)
	interactive := !nonInteractive

	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		program = tea.NewProgram(modelState)
		go func() {
			_, programErr = program.Run()
			close(done)
		}()
	}

	ui := &tuiListener{interactive: interactive, program: program, state: &modelState}
	mgr := engine.NewManager(sm, runner, ui, app.Diag, opts)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			mgr.PostEvent(task.Event{Kind: task.EventUserInterruptedRun})
			cancel()
		case <-runCtx.Done():
		}
	}()
	defer signal.Stop(sigCh)

	status := mgr.Run(runCtx)

	if interactive {
		if program != nil {
			program.Send(tea.QuitMsg{})
		}
		<-done
		if programErr != nil {
			return status, programErr
		}
	} else {
		fmt.Fprintln(os.Stdout, modelState.View())
	}

	if log != nil {
		log.Info(ctx, "task finished", "task", taskName, "reason", string(status.Reason), "exitCode", status.ExitCode)
	}

	return status, nil
}

// tuiListener adapts the bubbletea model to ports.UIListener, dispatching
// either through the running program (interactive) or straight into the
// model (non-interactive), mirroring the teacher's dispatchTuiMessage.
type tuiListener struct {
	interactive bool
	program     *tea.Program
	state       *tui.Model
}

func (l *tuiListener) OnStartingStep(step task.Step) {
	l.dispatch(tui.StepStartMsg{Target: step.Target(), Step: step})
}

func (l *tuiListener) PostEvent(e task.Event) {
	l.dispatch(tui.EventMsg{Event: e})
}

func (l *tuiListener) dispatch(msg tea.Msg) {
	if l.interactive {
		if l.program != nil {
			l.program.Send(msg)
		}
		return
	}
	updated, _ := l.state.Update(msg)
	if m, ok := updated.(tui.Model); ok {
		*l.state = m
	}
}
