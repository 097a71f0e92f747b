package result

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/RichardKnop/taskengine/backends/iface"
	"github.com/RichardKnop/taskengine/tasks"
)

// DefaultInterval is how often a pending result is re-read from the backend
const DefaultInterval = 10 * time.Millisecond

var (
	// ErrBackendNotConfigured ...
	ErrBackendNotConfigured = errors.New("Result backend not configured")
	// ErrTimeoutReached ...
	ErrTimeoutReached = errors.New("Timeout reached")
)

// TimeoutError is returned when a result did not complete in time
type TimeoutError struct {
	TaskUUID string
	Timeout  time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Timeout reached: task %s not ready after %v", e.TaskUUID, e.Timeout)
}

// Unwrap makes errors.Is(err, ErrTimeoutReached) hold
func (e *TimeoutError) Unwrap() error {
	return ErrTimeoutReached
}

// GetOptions tune a blocking read of a result
type GetOptions struct {
	// Zero waits forever
	Timeout time.Duration
	// Zero means the poll interval of the handle
	Interval time.Duration
	// Return a stored failure as the value instead of as the error
	NoPropagate bool
}

// AsyncResult represents a task result. It is safe to share between
// goroutines and any number of handles may point at the same task.
type AsyncResult struct {
	Signature *tasks.Signature
	backend   iface.Backend
	interval  time.Duration

	mu        sync.Mutex
	taskState *tasks.TaskState
}

// NewAsyncResult creates AsyncResult instance
func NewAsyncResult(signature *tasks.Signature, backend iface.Backend) *AsyncResult {
	return &AsyncResult{
		Signature: signature,
		backend:   backend,
		interval:  DefaultInterval,
		taskState: tasks.NewPendingTaskState(signature.UUID),
	}
}

// SetPollInterval sets how often Get re-reads the backend when the caller
// passes no interval. Non-positive values are ignored.
func (asyncResult *AsyncResult) SetPollInterval(interval time.Duration) *AsyncResult {
	if interval > 0 {
		asyncResult.interval = interval
	}
	return asyncResult
}

// PollInterval returns the interval used when the caller passes none
func (asyncResult *AsyncResult) PollInterval() time.Duration {
	return asyncResult.interval
}

// GetState returns latest task state. A completed state is cached and the
// backend is not asked again.
func (asyncResult *AsyncResult) GetState() *tasks.TaskState {
	taskState, _ := asyncResult.refresh()
	return taskState
}

// State returns one of PENDING, STARTED, SUCCESS or FAILURE without blocking
func (asyncResult *AsyncResult) State() string {
	return asyncResult.GetState().State
}

// Status is an alias of State
func (asyncResult *AsyncResult) Status() string {
	return asyncResult.State()
}

// Ready returns true once the task finished either way
func (asyncResult *AsyncResult) Ready() bool {
	return asyncResult.GetState().IsCompleted()
}

// Successful returns true if the task finished with SUCCESS
func (asyncResult *AsyncResult) Successful() bool {
	return asyncResult.GetState().IsSuccess()
}

// Failed returns true if the task finished with FAILURE
func (asyncResult *AsyncResult) Failed() bool {
	return asyncResult.GetState().IsFailure()
}

// Touch reads the state once and doesn't wait. done is false while the
// task is still pending or running.
func (asyncResult *AsyncResult) Touch() (result interface{}, done bool, err error) {
	if asyncResult.backend == nil {
		return nil, false, ErrBackendNotConfigured
	}

	taskState, err := asyncResult.refresh()
	if err != nil {
		return nil, false, err
	}

	switch {
	case taskState.IsSuccess():
		return taskState.Result, true, nil
	case taskState.IsFailure():
		if taskState.Error == nil {
			return nil, true, tasks.NewTaskError(fmt.Errorf("task %s failed", taskState.TaskUUID))
		}
		return nil, true, taskState.Error
	}
	return nil, false, nil
}

// Get returns task result (synchronous blocking call), waiting forever. A
// zero sleepDuration uses the poll interval of the handle.
func (asyncResult *AsyncResult) Get(sleepDuration time.Duration) (interface{}, error) {
	return asyncResult.GetWithOptions(context.Background(), GetOptions{Interval: sleepDuration})
}

// GetWithTimeout returns task result with a timeout (synchronous blocking call)
func (asyncResult *AsyncResult) GetWithTimeout(timeoutDuration, sleepDuration time.Duration) (interface{}, error) {
	return asyncResult.GetWithOptions(context.Background(), GetOptions{
		Timeout:  timeoutDuration,
		Interval: sleepDuration,
	})
}

// GetWithOptions blocks until the task completes, the timeout elapses or
// ctx is done. A stored failure is returned as the error unless
// NoPropagate is set. Results of tasks ignoring their result are never
// written, reading them returns immediately with nothing.
func (asyncResult *AsyncResult) GetWithOptions(ctx context.Context, opts GetOptions) (interface{}, error) {
	if asyncResult.backend == nil {
		return nil, ErrBackendNotConfigured
	}
	if asyncResult.Signature.IgnoreResult {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = asyncResult.interval
	}
	if interval <= 0 {
		interval = DefaultInterval
	}

	var timeout <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var completed <-chan struct{}
	if waiter, ok := asyncResult.backend.(iface.Waiter); ok {
		var release func()
		completed, release = waiter.Completed(asyncResult.Signature.UUID)
		defer release()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, done, err := asyncResult.Touch()
		if done {
			if err != nil && opts.NoPropagate {
				return err, nil
			}
			return result, err
		}
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "read state of task %s", asyncResult.Signature.UUID)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, &TimeoutError{TaskUUID: asyncResult.Signature.UUID, Timeout: opts.Timeout}
		case <-completed:
			// closed channel, only read once more
			completed = nil
		case <-ticker.C:
		}
	}
}

// Forget removes the stored outcome, the task reads as PENDING afterwards
func (asyncResult *AsyncResult) Forget() error {
	if asyncResult.backend == nil {
		return ErrBackendNotConfigured
	}

	asyncResult.mu.Lock()
	defer asyncResult.mu.Unlock()

	if err := asyncResult.backend.PurgeState(asyncResult.Signature.UUID); err != nil {
		return err
	}
	asyncResult.taskState = tasks.NewPendingTaskState(asyncResult.Signature.UUID)
	return nil
}

func (asyncResult *AsyncResult) refresh() (*tasks.TaskState, error) {
	asyncResult.mu.Lock()
	defer asyncResult.mu.Unlock()

	if asyncResult.taskState.IsCompleted() || asyncResult.backend == nil {
		return asyncResult.taskState, nil
	}

	taskState, err := asyncResult.backend.GetState(asyncResult.Signature.UUID)
	if err != nil {
		return asyncResult.taskState, err
	}
	asyncResult.taskState = taskState
	return taskState, nil
}
