package dispatch

// Task describes one unit of work: a single external-command invocation.
// It is created once at planning time and never mutated.
type Task struct {
	// ID identifies the task in logs and results (e.g. "submit-7").
	ID string

	// Index is the task's position in the planned range. Every
	// index-dependent path in the task is derived from this value.
	Index int

	// Command is the executable to run, resolved via PATH if relative.
	Command string

	// Args are the command arguments.
	Args []string

	// Stdin lines are fed to the process, newline-terminated, then
	// stdin is closed. Empty means no input.
	Stdin []string

	// OutputPath is an append destination for the combined
	// stdout/stderr of the process. Empty discards output.
	OutputPath string

	// Dir is the working directory for the process. Empty inherits.
	Dir string
}

// State is the lifecycle state of a task handle.
type State string

const (
	StatePending      State = "pending"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateKilled       State = "killed"
	StateLaunchFailed State = "launch-failed"
)
