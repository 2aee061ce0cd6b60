// Package executor provides command execution functionality.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// killTimeout is how long a child gets between SIGINT and SIGKILL once the
// context is cancelled.
const killTimeout = 2 * time.Second

// Runner is an interface for executing commands. It allows tests to inject
// fake implementations without running real processes.
type Runner interface {
	Execute(ctx context.Context, command string, cwd string, env []string, stdout io.Writer, stderr io.Writer) error
}

// Executor runs POSIX shell commands with an in-process interpreter, so
// behaviour does not depend on the host's /bin/sh. Scripts run with `set -e`:
// the first failing simple command ends the script with its status.
type Executor struct {
	DryRun  bool
	Verbose bool
}

// New returns a Runner backed by the real Executor implementation.
func New(dry, verbose bool) Runner {
	return &Executor{DryRun: dry, Verbose: verbose}
}

// ExitError reports a command that finished with a non-zero status.
type ExitError struct {
	Code    int
	Command string
	Stderr  string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command failed: exit status %d (command=%q stderr=%q)", e.Code, e.Command, e.Stderr)
	}
	return fmt.Sprintf("command failed: exit status %d (command=%q)", e.Code, e.Command)
}

// ExitCode returns 0 for nil, the exit status for an *ExitError and -1 for
// any other error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return -1
}

// Execute parses command as a shell script and runs it. If cwd is non-empty
// the script starts there. env replaces the process environment when
// non-nil.
func (e *Executor) Execute(ctx context.Context, command string, cwd string, env []string, stdout io.Writer, stderr io.Writer) error {
	var err error
	command, err = validateAndSanitize(command)
	if err != nil {
		return err
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if e.DryRun {
		if e.Verbose {
			_, _ = fmt.Fprintf(stdout, "dry-run: %s\n", command)
		}
		return nil
	}

	file, err := syntax.NewParser().Parse(strings.NewReader(command), "")
	if err != nil {
		return fmt.Errorf("parse command: %w", err)
	}

	if env == nil {
		env = os.Environ()
	}
	tail := &tailBuffer{max: 2048}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, io.MultiWriter(stderr, tail)),
		interp.ExecHandler(interp.DefaultExecHandler(killTimeout)),
		interp.Params("-e"),
	}
	if cwd != "" {
		opts = append(opts, interp.Dir(cwd))
	}
	runner, err := interp.New(opts...)
	if err != nil {
		return fmt.Errorf("initialize shell: %w", err)
	}

	if err := runner.Run(ctx, file); err != nil {
		return checkExecutionError(ctx, err, command, tail.String())
	}
	return ctx.Err()
}

func checkExecutionError(ctx context.Context, err error, command, stderrTail string) error {
	var status interp.ExitStatus
	if errors.As(err, &status) {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("command interrupted: %w (command=%q)", cerr, command)
		}
		return &ExitError{Code: int(status), Command: command, Stderr: strings.TrimSpace(stderrTail)}
	}
	return fmt.Errorf("command failed: %w (command=%q)", err, command)
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

// sanitizeCommand normalizes common unicode characters that often get
// inserted by editors (e.g., smart quotes, NBSP, zero-width spaces) and
// converts them to their ASCII equivalents where sensible.
func sanitizeCommand(s string) string {
	r := strings.NewReplacer(
		"\u2018", "'", // left single quote
		"\u2019", "'", // right single quote
		"\u201C", "\"", // left double quote
		"\u201D", "\"", // right double quote
		"\u00A0", " ", // NO-BREAK SPACE
		"\u200B", "", // zero width space
		"\u200E", "", // left-to-right mark
		"\u200F", "", // right-to-left mark
		"\r\n", "\n",
	)
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, r.Replace(s))
}

// Sanitize is the exported form of the normalization applied before
// execution, for callers that store commands.
func Sanitize(s string) string {
	return sanitizeCommand(s)
}

func validateAndSanitize(command string) (string, error) {
	command = sanitizeCommand(command)
	if err := ValidateCommand(command); err != nil {
		return "", err
	}
	return command, nil
}

// ValidateCommand rejects empty commands and control characters other than
// tab and newline.
func ValidateCommand(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("invalid command: empty")
	}
	if strings.IndexFunc(s, func(r rune) bool { return r == 0 || (r < 32 && r != '\t' && r != '\n') || r == 0x7f }) != -1 {
		return fmt.Errorf("invalid command: contains control characters; remove non-printable characters")
	}
	return nil
}
