package integration_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/taskengine"
	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/tasks"
)

const getTimeout = 10 * time.Second

var errBoom = errors.New("boom")

func testAll(app *taskengine.App, t *testing.T) {
	testSendTask(app, t)
	testFailure(app, t)
	testPanic(app, t)
	testUnregisteredTask(app, t)
	testConcurrentSend(app, t)
	if !app.IsEager() {
		testTimeout(app, t)
	}
}

func setup(t *testing.T, resultBackend string, eager bool) *taskengine.App {
	cnf := config.NewDefault()
	cnf.ResultBackend = resultBackend
	cnf.AlwaysEager = eager
	cnf.EagerPropagates = false
	cnf.Concurrency = 4
	cnf.ResultsExpireIn = 60

	app, err := taskengine.NewApp(cnf)
	require.NoError(t, err, "Could not initialize app")
	t.Cleanup(app.Close)

	require.NoError(t, app.RegisterTasks(map[string]tasks.Callable{
		"add": tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			sum := int64(0)
			for _, arg := range args {
				sum += arg.(int64)
			}
			return sum, nil
		}),
		"boom": tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			return nil, errBoom
		}),
		"panic": tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			panic("oops")
		}),
		"sleep": tasks.Unbound(func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
			time.Sleep(200 * time.Millisecond)
			return "awake", nil
		}),
	}))
	return app
}

// asInt64 accepts exact values from the memory backend and numbers decoded
// by serializing backends
func asInt64(t *testing.T, value interface{}) int64 {
	switch v := value.(type) {
	case int64:
		return v
	case json.Number:
		i, err := v.Int64()
		require.NoError(t, err)
		return i
	}
	t.Fatalf("result = %v(%T), want an integer", value, value)
	return 0
}

func testSendTask(app *taskengine.App, t *testing.T) {
	asyncResult, err := app.SendTaskByName("add", []interface{}{int64(1), int64(1)}, nil)
	require.NoError(t, err)

	value, err := asyncResult.GetWithTimeout(getTimeout, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(2), asInt64(t, value))
	assert.Equal(t, tasks.StateSuccess, asyncResult.State())
}

func testFailure(app *taskengine.App, t *testing.T) {
	asyncResult, err := app.SendTaskByName("boom", nil, nil)
	require.NoError(t, err)

	_, err = asyncResult.GetWithTimeout(getTimeout, 5*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.True(t, asyncResult.Failed())
}

func testPanic(app *taskengine.App, t *testing.T) {
	asyncResult, err := app.SendTaskByName("panic", nil, nil)
	require.NoError(t, err)

	_, err = asyncResult.GetWithTimeout(getTimeout, 5*time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, "oops", err.Error())

	var taskErr *tasks.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.NotEmpty(t, taskErr.Traceback)
}

func testUnregisteredTask(app *taskengine.App, t *testing.T) {
	asyncResult, err := app.SendTaskByName("missing", []interface{}{}, map[string]interface{}{})
	require.NoError(t, err)

	_, err = asyncResult.GetWithTimeout(getTimeout, 5*time.Millisecond)
	var notRegistered tasks.ErrTaskNotRegistered
	require.True(t, errors.As(err, &notRegistered), fmt.Sprintf("unexpected error %v", err))
	assert.Equal(t, "missing", notRegistered.Name)
}

func testTimeout(app *taskengine.App, t *testing.T) {
	asyncResult, err := app.SendTaskByName("sleep", nil, nil)
	require.NoError(t, err)

	_, err = asyncResult.GetWithTimeout(10*time.Millisecond, time.Millisecond)
	require.Error(t, err)

	value, err := asyncResult.GetWithTimeout(getTimeout, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "awake", value)
}

func testConcurrentSend(app *taskengine.App, t *testing.T) {
	const (
		producers = 4
		perThread = 10
	)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []int
	)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perThread; i++ {
				asyncResult, err := app.SendTaskByName("add", []interface{}{int64(p*perThread + i)}, nil)
				if !assert.NoError(t, err) {
					return
				}
				value, err := asyncResult.GetWithTimeout(getTimeout, 5*time.Millisecond)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				results = append(results, int(asInt64(t, value)))
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()

	sort.Ints(results)
	expected := make([]int, producers*perThread)
	for i := range expected {
		expected[i] = i
	}
	assert.Equal(t, expected, results)
}
