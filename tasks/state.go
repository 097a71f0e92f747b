package tasks

import (
	"time"
)

const (
	// StatePending - initial state of a task, also reported for unknown ids
	StatePending = "PENDING"
	// StateStarted - when a dispatcher worker starts processing the task
	StateStarted = "STARTED"
	// StateSuccess - when the task is processed successfully
	StateSuccess = "SUCCESS"
	// StateFailure - when processing of the task fails
	StateFailure = "FAILURE"
)

var stateOrder = map[string]int{
	StatePending: 0,
	StateStarted: 1,
	StateSuccess: 2,
	StateFailure: 2,
}

// TaskState is the stored outcome of one task invocation
type TaskState struct {
	TaskUUID  string      `json:"task_uuid"`
	TaskName  string      `json:"task_name,omitempty"`
	State     string      `json:"state"`
	Result    interface{} `json:"result,omitempty"`
	Error     *TaskError  `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewPendingTaskState returns the implicit state of a task nobody wrote yet
func NewPendingTaskState(taskUUID string) *TaskState {
	return &TaskState{
		TaskUUID: taskUUID,
		State:    StatePending,
	}
}

// NewStartedTaskState ...
func NewStartedTaskState(signature *Signature) *TaskState {
	return &TaskState{
		TaskUUID:  signature.UUID,
		TaskName:  signature.Name,
		State:     StateStarted,
		CreatedAt: time.Now().UTC(),
	}
}

// NewSuccessTaskState ...
func NewSuccessTaskState(signature *Signature, result interface{}) *TaskState {
	return &TaskState{
		TaskUUID:  signature.UUID,
		TaskName:  signature.Name,
		State:     StateSuccess,
		Result:    result,
		CreatedAt: time.Now().UTC(),
	}
}

// NewFailureTaskState ...
func NewFailureTaskState(signature *Signature, taskErr *TaskError) *TaskState {
	return &TaskState{
		TaskUUID:  signature.UUID,
		TaskName:  signature.Name,
		State:     StateFailure,
		Error:     taskErr,
		CreatedAt: time.Now().UTC(),
	}
}

// IsCompleted returns true if state is SUCCESS or FAILURE,
// i.e. the task has finished processing and either succeeded or failed.
func (taskState *TaskState) IsCompleted() bool {
	return taskState.IsSuccess() || taskState.IsFailure()
}

// IsSuccess returns true if state is SUCCESS
func (taskState *TaskState) IsSuccess() bool {
	return taskState.State == StateSuccess
}

// IsFailure returns true if state is FAILURE
func (taskState *TaskState) IsFailure() bool {
	return taskState.State == StateFailure
}

// CanTransitionTo reports whether the state may be replaced by next.
// States only move forward and a completed state is final.
func (taskState *TaskState) CanTransitionTo(next string) bool {
	if taskState.IsCompleted() {
		return false
	}
	to, ok := stateOrder[next]
	if !ok {
		return false
	}
	return to > stateOrder[taskState.State]
}
