// Package registry stores the history of pipeline runs.
package registry

import "database/sql"

// Run is one recorded pipeline execution.
type Run struct {
	ID         string
	Pipeline   string
	StartedAt  string
	FinishedAt string
	Status     string
	FailedStep sql.NullInt64
	DryRun     bool
	Host       sql.NullString
	Steps      []RunStep
}

// RunStep is the recorded outcome of a single step within a Run.
type RunStep struct {
	ID         int64
	RunID      string
	Position   int
	Name       string
	Command    string
	Status     string
	ExitCode   int
	DurationMS int64
	Error      sql.NullString
}
