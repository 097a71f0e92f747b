package exampletasks_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exampletasks "github.com/RichardKnop/taskengine/example/tasks"
	"github.com/RichardKnop/taskengine/tasks"
)

func TestAdd(t *testing.T) {
	t.Parallel()

	sum, err := exampletasks.Add([]interface{}{1, int64(2), 3.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sum)

	_, err = exampletasks.Add([]interface{}{"one"}, nil)
	assert.Error(t, err)
}

func TestMultiply(t *testing.T) {
	t.Parallel()

	product, err := exampletasks.Multiply([]interface{}{2, 3, 4}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(24), product)
}

func TestPanicTask(t *testing.T) {
	t.Parallel()

	req := tasks.NewRequest(context.Background(), tasks.NewSignature("panic_task", nil, nil), true)
	_, err := tasks.Run(exampletasks.Tasks()["panic_task"], req)
	require.Error(t, err)
	assert.Equal(t, "oops", err.Error())
}

func TestLongRunningTask(t *testing.T) {
	t.Parallel()

	signature := tasks.NewSignature("long_running_task", nil, map[string]interface{}{"seconds": 0})
	value, err := exampletasks.LongRunningTask(tasks.NewRequest(context.Background(), signature, true), signature.Args, signature.Kwargs)
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestTasks(t *testing.T) {
	t.Parallel()

	registered := exampletasks.Tasks()
	assert.Len(t, registered, 4)
	assert.True(t, registered["long_running_task"].IsBound())
	assert.False(t, registered["add"].IsBound())
}
