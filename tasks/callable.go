package tasks

import (
	"errors"
	"runtime/debug"

	"github.com/RichardKnop/taskengine/log"
)

// Func is the body of a task that does not need its request context
type Func func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// BoundFunc is the body of a task receiving its request context first
type BoundFunc func(req *Request, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// Callable is a registered task body. Use Unbound or Bound to build one.
type Callable interface {
	// IsBound reports whether the body receives a *Request
	IsBound() bool
	invoke(req *Request) (interface{}, error)
}

type unbound struct {
	fn Func
}

func (u unbound) IsBound() bool { return false }

func (u unbound) invoke(req *Request) (interface{}, error) {
	return u.fn(req.Args, req.Kwargs)
}

type bound struct {
	fn BoundFunc
}

func (b bound) IsBound() bool { return true }

func (b bound) invoke(req *Request) (interface{}, error) {
	return b.fn(req, req.Args, req.Kwargs)
}

// Unbound wraps fn as a task body called with args and kwargs only
func Unbound(fn Func) Callable {
	if fn == nil {
		return nil
	}
	return unbound{fn: fn}
}

// Bound wraps fn as a task body called with its request context first
func Bound(fn BoundFunc) Callable {
	if fn == nil {
		return nil
	}
	return bound{fn: fn}
}

// Run invokes the task body. A panic inside the body is recovered and
// returned as a *TaskError carrying the stack trace.
func Run(c Callable, req *Request) (result interface{}, err error) {
	defer func() {
		e := recover()
		if e == nil {
			return
		}

		var cause error
		switch e := e.(type) {
		default:
			cause = ErrTaskPanicked
		case error:
			cause = e
		case string:
			cause = errors.New(e)
		}

		stack := debug.Stack()
		log.ERROR.Printf("Task %s (%s) panicked: %v\n%s", req.TaskName, req.ID, e, stack)

		taskErr := NewTaskError(cause)
		taskErr.Traceback = string(stack)
		result, err = nil, taskErr
	}()

	return c.invoke(req)
}
