// Package pipeline runs ordered, fail-fast sequences of external commands
// such as the snap packaging and virtualenv bootstrap flows.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"github.com/rotisserie/eris"

	"github.com/VoxDroid/mstpkit/internal/config"
	"github.com/VoxDroid/mstpkit/internal/nameutil"
)

// Status is the outcome of a single step.
type Status string

// Step statuses.
const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Step is one shell command.
type Step struct {
	Name    string
	Command string
	Dir     string
}

// Pipeline is an ordered list of steps sharing an environment.
type Pipeline struct {
	Name  string
	Steps []Step
	// Env is the complete environment for every step; nil inherits the
	// process environment.
	Env []string
}

// StepResult records how one step went.
type StepResult struct {
	Name     string
	Command  string
	Status   Status
	ExitCode int
	Duration time.Duration
	Err      error
}

// Result is the outcome of a pipeline run.
type Result struct {
	RunID      string
	Pipeline   string
	StartedAt  time.Time
	FinishedAt time.Time
	DryRun     bool
	Steps      []StepResult
}

// Failed returns the failing step, or nil when every step succeeded.
func (r *Result) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusFailed {
			return &r.Steps[i]
		}
	}
	return nil
}

// StepError is returned when a step fails; every later step was skipped.
type StepError struct {
	Index    int
	Step     Step
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("step %d (%s) failed with exit code %d: %v", e.Index+1, e.Step.Name, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("step %d (%s) failed: %v", e.Index+1, e.Step.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NewStep builds a step from argv, quoting each argument for the shell.
func NewStep(args ...string) Step {
	return Step{Name: nameutil.StepName(args), Command: shellquote.Join(args...)}
}

// withNames fills in missing step names from their commands.
func withNames(steps []Step) []Step {
	for i := range steps {
		if steps[i].Name != "" {
			continue
		}
		fields, err := shellquote.Split(steps[i].Command)
		if err != nil || len(fields) == 0 {
			fields = strings.Fields(steps[i].Command)
		}
		steps[i].Name = nameutil.StepName(fields)
		if steps[i].Name == "" {
			steps[i].Name = fmt.Sprintf("step-%d", i+1)
		}
	}
	return steps
}

// DefaultArch is the snap build architecture when none is configured.
const DefaultArch = "arm64"

// Snap cleans the snapcraft workspace and then builds for arch.
func Snap(arch, dir string) Pipeline {
	if arch == "" {
		arch = DefaultArch
	}
	clean := NewStep("snapcraft", "clean")
	build := NewStep("snapcraft", "--build-for="+arch)
	build.Name = "snapcraft build " + arch
	clean.Dir, build.Dir = dir, dir
	return Pipeline{Name: "snap", Steps: []Step{clean, build}}
}

// BootstrapOptions locate the virtual environment and the two packages.
type BootstrapOptions struct {
	Venv    string
	Python  string
	Package string
	Native  string
}

// Bootstrap creates a virtual environment, installs the local package in
// editable mode and then the package that compiles the native MS/TP
// library. Env should carry the MS/TP variables for that native build.
func Bootstrap(opts BootstrapOptions, env []string) Pipeline {
	python := opts.Python
	if python == "" {
		python = "python3"
	}
	pip := filepath.Join(opts.Venv, "bin", "pip")
	venv := NewStep(python, "-m", "venv", opts.Venv)
	venv.Name = "venv " + opts.Venv
	editable := NewStep(pip, "install", "-e", opts.Package)
	editable.Name = "pip install -e " + opts.Package
	native := NewStep(pip, "install", opts.Native)
	native.Name = "pip install " + opts.Native
	return Pipeline{
		Name:  "bootstrap",
		Env:   env,
		Steps: []Step{venv, editable, native},
	}
}

// FromProject returns a pipeline declared in the project file.
func FromProject(p *config.Project, name string, env []string) (Pipeline, error) {
	pc := p.Pipeline(name)
	if pc == nil {
		return Pipeline{}, eris.Errorf("pipeline not found: %s", name)
	}
	steps := make([]Step, 0, len(pc.Steps))
	for _, s := range pc.Steps {
		steps = append(steps, Step{Name: s.Name, Command: s.Run, Dir: s.Dir})
	}
	return Pipeline{Name: pc.Name, Steps: withNames(steps), Env: env}, nil
}
