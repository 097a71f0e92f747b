package tasks_test

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/taskengine/tasks"
)

func TestNewTaskErrorKeepsOriginal(t *testing.T) {
	t.Parallel()

	_, original := strconv.Atoi("x")
	taskErr := tasks.NewTaskError(original)

	assert.Equal(t, original.Error(), taskErr.Error())
	assert.Equal(t, "*strconv.NumError", taskErr.Kind)

	var numErr *strconv.NumError
	assert.True(t, errors.As(taskErr, &numErr))
	assert.True(t, errors.Is(taskErr, strconv.ErrSyntax))

	assert.Nil(t, tasks.NewTaskError(nil))
	assert.Same(t, taskErr, tasks.NewTaskError(taskErr))
}

func TestNewTaskErrorTraceback(t *testing.T) {
	t.Parallel()

	taskErr := tasks.NewTaskError(pkgerrors.New("boom"))
	assert.Equal(t, "boom", taskErr.Message)
	assert.Contains(t, taskErr.Traceback, "TestNewTaskErrorTraceback")

	taskErr = tasks.NewTaskError(errors.New("boom"))
	assert.Empty(t, taskErr.Traceback)
}

func TestTaskErrorRebuiltAfterDecoding(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(tasks.NewTaskError(tasks.NewErrTaskNotRegistered("missing")))
	require.NoError(t, err)

	decoded := new(tasks.TaskError)
	require.NoError(t, json.Unmarshal(encoded, decoded))

	var notRegistered tasks.ErrTaskNotRegistered
	require.True(t, errors.As(decoded, &notRegistered))
	assert.Equal(t, "missing", notRegistered.Name)
	assert.Equal(t, "Task not registered: missing", decoded.Error())

	encoded, err = json.Marshal(tasks.NewTaskError(errors.New("plain")))
	require.NoError(t, err)
	decoded = new(tasks.TaskError)
	require.NoError(t, json.Unmarshal(encoded, decoded))
	assert.Equal(t, "*errors.errorString", decoded.Kind)
	assert.Nil(t, errors.Unwrap(decoded))
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Configuration error: empty name", tasks.NewErrConfiguration("empty name").Error())
	assert.Equal(
		t,
		"Task task_1 cannot move from SUCCESS to FAILURE",
		tasks.NewErrInvalidStateTransition("task_1", tasks.StateSuccess, tasks.StateFailure).Error(),
	)
}
