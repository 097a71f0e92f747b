package taskengine

import (
	"context"

	"github.com/RichardKnop/taskengine/backends/result"
	"github.com/RichardKnop/taskengine/tasks"
)

// Task is a registered unit of work. It is safe for concurrent use, the
// per-invocation request context lives in tasks.Request and never here.
type Task struct {
	Name string

	callable     tasks.Callable
	app          *App
	ignoreResult bool
}

// ApplyOption customizes a single ApplyAsync call
type ApplyOption func(*applyOptions)

type applyOptions struct {
	taskUUID     string
	ignoreResult *bool
}

// WithTaskID publishes the task under the given id instead of a fresh one
func WithTaskID(taskUUID string) ApplyOption {
	return func(o *applyOptions) {
		o.taskUUID = taskUUID
	}
}

// WithIgnoreResult overrides whether the outcome of this call is stored
func WithIgnoreResult(ignoreResult bool) ApplyOption {
	return func(o *applyOptions) {
		o.ignoreResult = &ignoreResult
	}
}

// IsBound returns true if the task body receives a *tasks.Request
func (task *Task) IsBound() bool {
	return task.callable.IsBound()
}

// IgnoresResult returns true when outcomes of this task are not stored
func (task *Task) IgnoresResult() bool {
	return task.ignoreResult
}

// SetIgnoreResult sets the task level default for storing outcomes. Call
// it right after registration, before the task is used.
func (task *Task) SetIgnoreResult(ignoreResult bool) *Task {
	task.ignoreResult = ignoreResult
	return task
}

// Call runs the task body directly on the calling goroutine. Nothing is
// published and nothing is stored.
func (task *Task) Call(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	signature := &tasks.Signature{
		Name:   task.Name,
		Args:   args,
		Kwargs: kwargs,
	}
	return tasks.Run(task.callable, tasks.NewRequest(context.Background(), signature, true))
}

// Delay publishes the task with positional arguments only
func (task *Task) Delay(args ...interface{}) (*result.AsyncResult, error) {
	return task.ApplyAsync(args, nil)
}

// ApplyAsync publishes the task, see ApplyAsyncWithContext
func (task *Task) ApplyAsync(args []interface{}, kwargs map[string]interface{}, opts ...ApplyOption) (*result.AsyncResult, error) {
	return task.ApplyAsyncWithContext(context.Background(), args, kwargs, opts...)
}

// ApplyAsyncWithContext publishes the task and returns its result handle
// right away. Eager mode runs it before returning.
func (task *Task) ApplyAsyncWithContext(ctx context.Context, args []interface{}, kwargs map[string]interface{}, opts ...ApplyOption) (*result.AsyncResult, error) {
	return task.app.publish(ctx, task.signature(args, kwargs, opts))
}

// Apply runs the task on the calling goroutine and stores its outcome
// like eager mode does. A failure is never returned here, read it from
// the result.
func (task *Task) Apply(args []interface{}, kwargs map[string]interface{}, opts ...ApplyOption) *result.AsyncResult {
	signature := task.signature(args, kwargs, opts)
	task.app.NewWorker().run(context.Background(), signature, task, true)
	return task.app.newAsyncResult(signature)
}

func (task *Task) signature(args []interface{}, kwargs map[string]interface{}, opts []ApplyOption) *tasks.Signature {
	options := new(applyOptions)
	for _, opt := range opts {
		opt(options)
	}

	signature := tasks.NewSignature(task.Name, args, kwargs)
	if options.taskUUID != "" {
		signature.UUID = options.taskUUID
	}
	signature.IgnoreResult = task.ignoreResult
	if options.ignoreResult != nil {
		signature.IgnoreResult = *options.ignoreResult
	}
	return signature
}
