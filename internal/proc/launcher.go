// Package proc starts dispatch tasks as operating-system processes.
package proc

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/ovn-lab/fanout/internal/dispatch"
)

// Launcher implements dispatch.Launcher on top of os/exec.
type Launcher struct{}

// New creates an exec-based launcher.
func New() Launcher {
	return Launcher{}
}

// Launch starts the task's command. Stdin lines are fed newline-terminated
// and stdin is then closed; stdout and stderr are appended to the task's
// output destination, sharing whatever append atomicity the OS provides.
func (Launcher) Launch(ctx context.Context, task dispatch.Task) (dispatch.Handle, error) {
	cmd := exec.Command(task.Command, task.Args...)
	if task.Dir != "" {
		cmd.Dir = task.Dir
	}
	if len(task.Stdin) > 0 {
		cmd.Stdin = strings.NewReader(strings.Join(task.Stdin, "\n") + "\n")
	}

	var out *os.File
	if task.OutputPath != "" {
		f, err := os.OpenFile(task.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open output %s: %w", task.OutputPath, err)
		}
		cmd.Stdout = f
		cmd.Stderr = f
		out = f
	} else {
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
	}

	if err := cmd.Start(); err != nil {
		if out != nil {
			_ = out.Close()
		}
		return nil, fmt.Errorf("start %s: %w", task.Command, err)
	}

	return &process{cmd: cmd, out: out, done: make(chan struct{})}, nil
}

// process wraps a started exec.Cmd as a dispatch.Handle.
type process struct {
	cmd  *exec.Cmd
	out  *os.File
	done chan struct{}

	waitOnce sync.Once
	code     int
	err      error
}

// Wait blocks until the process exits and returns its exit code.
// Signal-caused deaths report -1. Wait is safe to call more than once.
func (p *process) Wait() (int, error) {
	p.waitOnce.Do(func() {
		p.err = p.cmd.Wait()
		if p.out != nil {
			_ = p.out.Close()
		}
		if p.cmd.ProcessState != nil {
			p.code = p.cmd.ProcessState.ExitCode()
		} else {
			p.code = -1
		}
		close(p.done)
	})
	<-p.done
	return p.code, p.err
}

// Kill force-terminates the process. Killing an already-exited process
// returns an error the dispatcher logs and ignores.
func (p *process) Kill() error {
	return p.cmd.Process.Kill()
}

// Running reports whether Wait has observed the process exit.
func (p *process) Running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}
