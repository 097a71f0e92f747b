package taskengine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/taskengine"
	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/tasks"
)

// valueError is a user error kind tasks fail with
type valueError struct {
	msg string
}

func (e *valueError) Error() string {
	return e.msg
}

var (
	addTask = tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return args[0].(int) + args[1].(int), nil
	})

	boomTask = tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return nil, &valueError{msg: "x"}
	})

	panicTask = tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		panic(errors.New("oops"))
	})

	requestTask = tasks.Bound(func(req *tasks.Request, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return req.ID, nil
	})
)

func newTestApp(t *testing.T, configure func(cnf *config.Config)) *taskengine.App {
	cnf := config.NewDefault()
	cnf.Concurrency = 2
	if configure != nil {
		configure(cnf)
	}

	app, err := taskengine.NewApp(cnf)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	require.NoError(t, app.RegisterTasks(map[string]tasks.Callable{
		"add":     addTask,
		"boom":    boomTask,
		"panic":   panicTask,
		"request": requestTask,
	}))
	return app
}

func mustGetTask(t *testing.T, app *taskengine.App, name string) *taskengine.Task {
	task, err := app.GetRegisteredTask(name)
	require.NoError(t, err)
	return task
}
