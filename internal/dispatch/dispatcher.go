package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handle is the live reference to a launched process. It is owned by the
// Dispatcher for the duration of the batch and discarded once the task
// reaches a terminal state.
type Handle interface {
	// Wait blocks until the process exits and returns its exit code.
	// The error is non-nil for any nonzero or signal-caused exit.
	// Signal-caused exits report code -1.
	Wait() (int, error)

	// Kill force-terminates the process. Killing an already-exited
	// process returns an error that callers may ignore.
	Kill() error

	// Running reports whether the process has not yet exited.
	Running() bool
}

// Launcher starts a task and returns its handle. Implementations decide
// how stdin is fed and where output goes; see the proc package for the
// exec-based implementation.
type Launcher interface {
	Launch(ctx context.Context, task Task) (Handle, error)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the structured logger for dispatcher diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithEvents sets the run-log event writer.
func WithEvents(w LogWriter) Option {
	return func(d *Dispatcher) {
		d.events = w
	}
}

// WithMaxParallel bounds the number of concurrently running tasks.
// Zero (the default) launches every task immediately.
func WithMaxParallel(n int) Option {
	return func(d *Dispatcher) {
		d.maxParallel = n
	}
}

// WithNotify sets a callback invoked as tasks change state. The callback
// must be safe for concurrent use; the dispatcher calls it from multiple
// goroutines.
func WithNotify(fn func(Update)) Option {
	return func(d *Dispatcher) {
		d.notify = fn
	}
}

// Dispatcher launches a batch of tasks and waits for all of them.
// A Dispatcher runs one batch at a time; Cancel applies to the batch
// currently in flight and is idempotent. Each Dispatch call starts with
// a fresh cancellation state, so a cancelled Dispatcher can run later
// batches normally.
type Dispatcher struct {
	launcher    Launcher
	logger      *zap.Logger
	events      LogWriter
	maxParallel int
	notify      func(Update)

	mu              sync.Mutex
	cancelRequested bool
	cancelCh        chan struct{}
	handles         []Handle
	tasks           []Task
}

// New creates a Dispatcher using the given launcher.
func New(launcher Launcher, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		launcher: launcher,
		logger:   zap.NewNop(),
		cancelCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.events = normalizeLogWriter(d.events)
	return d
}

// Cancel requests termination of every still-running task in the current
// batch. It is safe to call from any goroutine and calling it more than
// once has the same effect as calling it once.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancelRequested {
		return
	}
	d.cancelRequested = true
	close(d.cancelCh)
}

// Cancelled reports whether Cancel was requested for the most recent
// batch. Dispatch resets it when a new batch starts.
func (d *Dispatcher) Cancelled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelRequested
}

func (d *Dispatcher) cancelled() bool {
	return d.Cancelled()
}

// Dispatch launches every task in input order without waiting on earlier
// tasks, then blocks until all of them reach a terminal state. It returns
// exactly one Result per input task, in input order. Per-task failures
// never abort siblings; only an empty task list fails the call itself.
func (d *Dispatcher) Dispatch(ctx context.Context, tasks []Task) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, ErrNoTasks
	}

	results := make([]Result, len(tasks))
	var wg sync.WaitGroup

	d.mu.Lock()
	d.cancelRequested = false
	d.cancelCh = make(chan struct{})
	cancelCh := d.cancelCh
	d.handles = make([]Handle, len(tasks))
	d.tasks = tasks
	d.mu.Unlock()

	// Forward context cancellation into Cancel so both paths converge
	// on the same idempotent trigger.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			d.Cancel()
		case <-cancelCh:
		case <-watchDone:
			return
		}
		d.killAll()
	}()

	var sem chan struct{}
	if d.maxParallel > 0 {
		sem = make(chan struct{}, d.maxParallel)
	}

	for i := range tasks {
		task := tasks[i]

		if d.cancelled() {
			// Never launched; report as cancelled rather than
			// leaving a hole in the result sequence.
			results[i] = Result{Task: task, Kind: KindCancelled, Err: ErrInterrupted}
			d.send(Update{Index: i, Task: task, State: StateKilled, Result: &results[i]})
			continue
		}

		if sem != nil {
			select {
			case sem <- struct{}{}:
			case <-cancelCh:
				results[i] = Result{Task: task, Kind: KindCancelled, Err: ErrInterrupted}
				d.send(Update{Index: i, Task: task, State: StateKilled, Result: &results[i]})
				continue
			}
		}

		started := time.Now()
		handle, err := d.launcher.Launch(ctx, task)
		if err != nil {
			if sem != nil {
				<-sem
			}
			results[i] = Result{
				Task:    task,
				Kind:    KindLaunchError,
				Err:     fmt.Errorf("launch %s: %w", task.ID, err),
				Started: started,
			}
			d.logger.Warn("task failed to launch",
				zap.String("task", task.ID),
				zap.Error(err))
			_ = d.events.Write(LogEvent{
				Type:      "error",
				Timestamp: time.Now().UTC(),
				TaskID:    task.ID,
				Content:   fmt.Sprintf("launch failed: %v", err),
			})
			d.send(Update{Index: i, Task: task, State: StateLaunchFailed, Result: &results[i]})
			continue
		}

		d.mu.Lock()
		d.handles[i] = handle
		d.mu.Unlock()

		// A cancel that raced the launch above may have missed this
		// handle in killAll.
		if d.cancelled() && handle.Running() {
			if err := handle.Kill(); err != nil {
				d.logger.Warn("kill after cancel failed",
					zap.String("task", task.ID),
					zap.Error(err))
			}
		}

		d.logger.Info("task started",
			zap.String("task", task.ID),
			zap.Int("index", task.Index),
			zap.String("command", task.Command))
		_ = d.events.Write(LogEvent{
			Type:      "launch",
			Timestamp: time.Now().UTC(),
			TaskID:    task.ID,
			Command:   append([]string{task.Command}, task.Args...),
		})
		d.send(Update{Index: i, Task: task, State: StateRunning})

		wg.Add(1)
		go func(i int, task Task, handle Handle, started time.Time) {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			results[i] = d.await(task, handle, started)
			state := StateCompleted
			if results[i].Kind == KindCancelled {
				state = StateKilled
			}
			d.send(Update{Index: i, Task: task, State: state, Result: &results[i]})
		}(i, task, handle, started)
	}

	wg.Wait()

	d.mu.Lock()
	d.handles = nil
	d.tasks = nil
	d.mu.Unlock()

	_ = d.events.Write(LogEvent{
		Type:      "summary",
		Timestamp: time.Now().UTC(),
		Content:   summarize(results),
	})

	return results, nil
}

// await blocks on the handle and classifies the outcome. A signal death
// after a cancellation request counts as cancelled; any other nonzero
// exit is reported as the process's own failure.
func (d *Dispatcher) await(task Task, handle Handle, started time.Time) Result {
	code, err := handle.Wait()
	res := Result{
		Task:     task,
		ExitCode: code,
		Started:  started,
		Duration: time.Since(started),
	}

	switch {
	case err == nil:
		res.Kind = KindOK
	case d.cancelled() && code == -1:
		res.Kind = KindCancelled
		res.Err = ErrInterrupted
	default:
		res.Kind = KindExitError
		res.Err = err
	}

	d.logger.Info("task finished",
		zap.String("task", task.ID),
		zap.String("kind", string(res.Kind)),
		zap.Int("exit_code", code),
		zap.Duration("duration", res.Duration))
	_ = d.events.Write(LogEvent{
		Type:      "exit",
		Timestamp: time.Now().UTC(),
		TaskID:    task.ID,
		ExitCode:  code,
	})
	return res
}

// killAll force-terminates every handle that is still running.
// Termination failures are logged, not escalated.
func (d *Dispatcher) killAll() {
	d.mu.Lock()
	handles := make([]Handle, len(d.handles))
	copy(handles, d.handles)
	tasks := d.tasks
	d.mu.Unlock()

	for i, h := range handles {
		if h == nil || !h.Running() {
			continue
		}
		taskID := ""
		if i < len(tasks) {
			taskID = tasks[i].ID
		}
		if err := h.Kill(); err != nil {
			d.logger.Warn("kill failed",
				zap.String("task", taskID),
				zap.Error(err))
			continue
		}
		_ = d.events.Write(LogEvent{
			Type:      "kill",
			Timestamp: time.Now().UTC(),
			TaskID:    taskID,
		})
	}
}

func (d *Dispatcher) send(u Update) {
	if d.notify != nil {
		d.notify(u)
	}
}

func summarize(results []Result) string {
	var ok, failed, cancelled int
	for _, r := range results {
		switch r.Kind {
		case KindOK:
			ok++
		case KindCancelled:
			cancelled++
		default:
			failed++
		}
	}
	return fmt.Sprintf("%d ok, %d failed, %d cancelled", ok, failed, cancelled)
}
