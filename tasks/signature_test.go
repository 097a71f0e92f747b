package tasks_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RichardKnop/taskengine/tasks"
)

func TestNewSignature(t *testing.T) {
	t.Parallel()

	a := tasks.NewSignature("add", []interface{}{1, 2}, nil)
	b := tasks.NewSignature("add", []interface{}{1, 2}, nil)

	assert.True(t, strings.HasPrefix(a.UUID, "task_"))
	assert.NotEqual(t, a.UUID, b.UUID)
	assert.Equal(t, "add", a.Name)
	assert.Equal(t, []interface{}{1, 2}, a.Args)
}

func TestHeadersTextMap(t *testing.T) {
	t.Parallel()

	headers := tasks.Headers{"number": 1}
	headers.Set("trace-id", "abc")

	seen := map[string]string{}
	err := headers.ForeachKey(func(key, val string) error {
		seen[key] = val
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"trace-id": "abc"}, seen)
}

func TestSignatureCopy(t *testing.T) {
	t.Parallel()

	original := &tasks.Signature{
		Name:    "add",
		Args:    []interface{}{1, 2},
		Headers: tasks.Headers{"trace-id": "abc"},
	}

	sig := original.Copy()
	sig.UUID = tasks.NewTaskUUID()
	sig.IgnoreResult = true
	sig.Headers.Set("span-id", "def")

	assert.Empty(t, original.UUID)
	assert.False(t, original.IgnoreResult)
	assert.Equal(t, tasks.Headers{"trace-id": "abc"}, original.Headers)
	assert.Equal(t, original.Args, sig.Args)
}
