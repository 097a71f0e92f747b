package iface

import (
	"github.com/RichardKnop/taskengine/tasks"
)

// Backend - a common interface for all result backends
type Backend interface {
	// Setting / getting task state. Writes are atomic with respect to
	// readers and refuse to move a state backwards.
	SetStateStarted(signature *tasks.Signature) error
	SetStateSuccess(signature *tasks.Signature, result interface{}) error
	SetStateFailure(signature *tasks.Signature, taskErr *tasks.TaskError) error
	StoreResult(taskState *tasks.TaskState) error

	// GetState returns PENDING for ids nothing was written for yet
	GetState(taskUUID string) (*tasks.TaskState, error)

	// Purging stored task states
	PurgeState(taskUUID string) error
}

// Waiter is implemented by backends that can notify readers about a
// completed state instead of having them poll
type Waiter interface {
	// Completed returns a channel closed once the task reaches SUCCESS or
	// FAILURE, or once its state is purged. Call release when done waiting.
	Completed(taskUUID string) (done <-chan struct{}, release func())
}
