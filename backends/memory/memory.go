package memory

import (
	"sync"

	"github.com/RichardKnop/taskengine/backends/iface"
	"github.com/RichardKnop/taskengine/tasks"
)

// Backend represents an in-memory result backend. Results are kept as the
// very values tasks returned, nothing is serialized.
type Backend struct {
	states  map[string]*tasks.TaskState
	waiters map[string]*waiter
	mu      sync.Mutex
}

// waiter is shared by all readers blocked on the same task
type waiter struct {
	done chan struct{}
	refs int
}

// New creates Backend instance
func New() *Backend {
	return &Backend{
		states:  make(map[string]*tasks.TaskState),
		waiters: make(map[string]*waiter),
	}
}

var (
	_ iface.Backend = (*Backend)(nil)
	_ iface.Waiter  = (*Backend)(nil)
)

// SetStateStarted updates task state to STARTED
func (b *Backend) SetStateStarted(signature *tasks.Signature) error {
	return b.StoreResult(tasks.NewStartedTaskState(signature))
}

// SetStateSuccess updates task state to SUCCESS
func (b *Backend) SetStateSuccess(signature *tasks.Signature, result interface{}) error {
	return b.StoreResult(tasks.NewSuccessTaskState(signature, result))
}

// SetStateFailure updates task state to FAILURE
func (b *Backend) SetStateFailure(signature *tasks.Signature, taskErr *tasks.TaskError) error {
	return b.StoreResult(tasks.NewFailureTaskState(signature, taskErr))
}

// StoreResult replaces the state of a task in a single critical section
func (b *Backend) StoreResult(taskState *tasks.TaskState) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	current, ok := b.states[taskState.TaskUUID]
	if !ok {
		current = tasks.NewPendingTaskState(taskState.TaskUUID)
	}
	if !current.CanTransitionTo(taskState.State) {
		return tasks.NewErrInvalidStateTransition(taskState.TaskUUID, current.State, taskState.State)
	}

	stored := *taskState
	b.states[taskState.TaskUUID] = &stored

	if stored.IsCompleted() {
		b.wakeWaiters(taskState.TaskUUID)
	}
	return nil
}

// GetState returns the latest task state
func (b *Backend) GetState(taskUUID string) (*tasks.TaskState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	taskState, ok := b.states[taskUUID]
	if !ok {
		return tasks.NewPendingTaskState(taskUUID), nil
	}

	// hand out a copy so readers never alias the stored state
	ret := *taskState
	return &ret, nil
}

// PurgeState deletes stored task state
func (b *Backend) PurgeState(taskUUID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.states, taskUUID)
	// readers re-read the state and go back to waiting on a fresh channel
	b.wakeWaiters(taskUUID)
	return nil
}

// Completed returns a channel closed once the task state is completed or
// purged. The channel stays registered until it is closed or every reader
// called release.
func (b *Backend) Completed(taskUUID string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if taskState, ok := b.states[taskUUID]; ok && taskState.IsCompleted() {
		ch := make(chan struct{})
		close(ch)
		return ch, func() {}
	}

	w, ok := b.waiters[taskUUID]
	if !ok {
		w = &waiter{done: make(chan struct{})}
		b.waiters[taskUUID] = w
	}
	w.refs++

	var once sync.Once
	release := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			w.refs--
			if w.refs == 0 && b.waiters[taskUUID] == w {
				delete(b.waiters, taskUUID)
			}
		})
	}
	return w.done, release
}

// wakeWaiters must be called with b.mu held
func (b *Backend) wakeWaiters(taskUUID string) {
	if w, ok := b.waiters[taskUUID]; ok {
		close(w.done)
		delete(b.waiters, taskUUID)
	}
}
