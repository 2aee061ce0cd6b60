package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/VoxDroid/mstpkit/internal/executor"
	"github.com/VoxDroid/mstpkit/internal/logging"
)

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(res *Result) error
}

// Runner executes pipelines one step at a time and stops at the first
// failure.
type Runner struct {
	Exec     executor.Runner
	Recorder Recorder
	// Guard, when set, vets each command before it runs.
	Guard  func(command string) error
	DryRun bool
	Stdout io.Writer
	Stderr io.Writer

	now func() time.Time
}

// NewRunner returns a Runner using the in-process shell executor.
func NewRunner(stdout, stderr io.Writer) *Runner {
	return &Runner{Exec: executor.New(false, false), Stdout: stdout, Stderr: stderr}
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

// Run executes p. When a step fails Run returns the partial result together
// with a *StepError; later steps are reported as skipped and never started.
func (r *Runner) Run(ctx context.Context, p Pipeline) (*Result, error) {
	if len(p.Steps) == 0 {
		return nil, eris.Errorf("pipeline %s has no steps", p.Name)
	}
	log := logging.FromContext(ctx).With().Str("pipeline", p.Name).Logger()

	res := &Result{
		RunID:     uuid.NewString(),
		Pipeline:  p.Name,
		StartedAt: r.clock(),
		DryRun:    r.DryRun,
	}
	log.Info().Str("run_id", res.RunID).Int("steps", len(p.Steps)).Msg("starting")

	var stepErr *StepError
	for i, st := range withNames(append([]Step(nil), p.Steps...)) {
		sr := StepResult{Name: st.Name, Command: st.Command}
		slog := log.With().Str("step", st.Name).Logger()

		if stepErr != nil {
			sr.Status = StatusSkipped
			res.Steps = append(res.Steps, sr)
			slog.Debug().Msg("skipped")
			continue
		}

		err := r.runStep(ctx, p, st, &sr)
		res.Steps = append(res.Steps, sr)
		if err != nil {
			stepErr = &StepError{Index: i, Step: st, ExitCode: sr.ExitCode, Err: err}
			slog.Error().Err(err).Int("exit_code", sr.ExitCode).Msg("step failed")
			continue
		}
		slog.Info().Dur("duration", sr.Duration).Msg("step finished")
	}
	res.FinishedAt = r.clock()

	if r.Recorder != nil && !r.DryRun {
		if err := r.Recorder.RecordRun(res); err != nil {
			log.Warn().Err(err).Msg("could not record run history")
		}
	}

	if stepErr != nil {
		return res, stepErr
	}
	log.Info().Str("run_id", res.RunID).Msg("finished")
	return res, nil
}

func (r *Runner) runStep(ctx context.Context, p Pipeline, st Step, sr *StepResult) error {
	fail := func(err error) error {
		sr.Status = StatusFailed
		sr.Err = err
		sr.ExitCode = executor.ExitCode(err)
		return err
	}

	if err := ctx.Err(); err != nil {
		return fail(eris.Wrap(err, "pipeline interrupted"))
	}
	if r.Guard != nil {
		if err := r.Guard(st.Command); err != nil {
			return fail(eris.Wrapf(err, "refusing to run %q", st.Command))
		}
	}

	out := r.Stdout
	if out == nil {
		out = io.Discard
	}
	if r.DryRun {
		_, _ = fmt.Fprintf(out, "dry-run: %s\n", st.Command)
		sr.Status = StatusOK
		return nil
	}
	_, _ = fmt.Fprintf(out, "-> %s\n", st.Command)

	start := r.clock()
	err := r.Exec.Execute(ctx, st.Command, st.Dir, p.Env, out, r.Stderr)
	sr.Duration = r.clock().Sub(start)
	if err != nil {
		return fail(err)
	}
	sr.Status = StatusOK
	return nil
}
