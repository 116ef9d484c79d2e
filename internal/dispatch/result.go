package dispatch

import "time"

// Kind classifies the outcome of a single task.
type Kind string

const (
	// KindOK means the process ran and exited zero.
	KindOK Kind = "ok"

	// KindExitError means the process ran and exited nonzero.
	KindExitError Kind = "exit-error"

	// KindLaunchError means the process could not be started.
	KindLaunchError Kind = "launch-error"

	// KindCancelled means the process was still running when
	// cancellation arrived and was forcibly terminated.
	KindCancelled Kind = "cancelled"
)

// Result is the outcome of one task. Dispatch returns exactly one Result
// per input task, in input order.
type Result struct {
	Task     Task
	Kind     Kind
	ExitCode int
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Failed reports whether the task ended in any non-ok kind.
func (r Result) Failed() bool {
	return r.Kind != KindOK
}

// Update is a progress notification emitted as tasks change state.
type Update struct {
	Index  int
	Task   Task
	State  State
	Result *Result
}
