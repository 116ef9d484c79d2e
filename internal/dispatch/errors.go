package dispatch

import "errors"

// ErrNoTasks is returned by Dispatch when the task list is empty.
// Nothing is launched in that case.
var ErrNoTasks = errors.New("dispatch: no tasks to run")

// ErrInterrupted is returned alongside results when dispatch was
// cancelled before every task could finish naturally.
var ErrInterrupted = errors.New("dispatch: interrupted")
