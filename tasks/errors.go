package tasks

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// ErrTaskPanicked is stored when a task panics with something that is
// neither an error nor a string
var ErrTaskPanicked = errors.New("Invoking task caused a panic")

const (
	kindTaskNotRegistered = "tasks.ErrTaskNotRegistered"
	kindTaskPanicked      = "tasks.ErrTaskPanicked"
	taskNotRegisteredMsg  = "Task not registered: "
)

// ErrTaskNotRegistered is the lookup error for a task name missing from the registry
type ErrTaskNotRegistered struct {
	Name string
}

// NewErrTaskNotRegistered returns new ErrTaskNotRegistered instance
func NewErrTaskNotRegistered(name string) ErrTaskNotRegistered {
	return ErrTaskNotRegistered{Name: name}
}

// Error implements the error interface
func (e ErrTaskNotRegistered) Error() string {
	return taskNotRegisteredMsg + e.Name
}

// ErrConfiguration is returned for invalid registrations
type ErrConfiguration struct {
	msg string
}

// NewErrConfiguration returns new ErrConfiguration instance
func NewErrConfiguration(msg string) ErrConfiguration {
	return ErrConfiguration{msg: msg}
}

// Error implements the error interface
func (e ErrConfiguration) Error() string {
	return fmt.Sprintf("Configuration error: %s", e.msg)
}

// ErrInvalidStateTransition is returned by backends refusing to move a
// task state backwards or to overwrite a completed state
type ErrInvalidStateTransition struct {
	TaskUUID string
	From, To string
}

// NewErrInvalidStateTransition returns new ErrInvalidStateTransition instance
func NewErrInvalidStateTransition(taskUUID, from, to string) ErrInvalidStateTransition {
	return ErrInvalidStateTransition{TaskUUID: taskUUID, From: from, To: to}
}

// Error implements the error interface
func (e ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("Task %s cannot move from %s to %s", e.TaskUUID, e.From, e.To)
}

// stackTracer is implemented by errors created with github.com/pkg/errors
type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

// TaskError is a failure captured at the dispatch boundary. It keeps enough
// of the original error (kind, message, traceback) to survive a trip through
// a serializing backend and still be returned to the reader as an error.
type TaskError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`

	// only present while the state never left the process
	cause error
}

// NewTaskError captures err. Capturing a *TaskError returns it unchanged.
func NewTaskError(err error) *TaskError {
	if err == nil {
		return nil
	}

	if taskErr, ok := err.(*TaskError); ok {
		return taskErr
	}

	taskErr := &TaskError{
		Kind:    errorKind(err),
		Message: err.Error(),
		cause:   err,
	}
	if st, ok := err.(stackTracer); ok {
		taskErr.Traceback = fmt.Sprintf("%+v", st.StackTrace())
	}
	return taskErr
}

// Error implements the error interface, the message is the original one
func (e *TaskError) Error() string {
	return e.Message
}

// Unwrap returns the original error. When the state was decoded from an
// external backend the error is rebuilt from its kind where that is possible.
func (e *TaskError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	switch e.Kind {
	case kindTaskNotRegistered:
		return NewErrTaskNotRegistered(strings.TrimPrefix(e.Message, taskNotRegisteredMsg))
	case kindTaskPanicked:
		return ErrTaskPanicked
	}
	return nil
}

func errorKind(err error) string {
	var notRegistered ErrTaskNotRegistered
	switch {
	case errors.As(err, &notRegistered):
		return kindTaskNotRegistered
	case errors.Is(err, ErrTaskPanicked):
		return kindTaskPanicked
	}
	return fmt.Sprintf("%T", err)
}
