package taskengine_test

import (
	"strings"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/tasks"
)

func TestWorkerTracing(t *testing.T) {
	globalTracer := opentracing.GlobalTracer()
	t.Cleanup(func() {
		opentracing.SetGlobalTracer(globalTracer)
	})
	mockTracer := mocktracer.New()
	opentracing.SetGlobalTracer(mockTracer)

	app := newTestApp(t, func(cnf *config.Config) {
		cnf.AlwaysEager = true
	})

	asyncResult, err := mustGetTask(t, app, "add").Delay(1, 2)
	require.NoError(t, err)

	spans := mockTracer.FinishedSpans()
	require.Len(t, spans, 2)

	// the consumer span finishes first, inside the producer one
	consumer, producer := spans[0], spans[1]
	assert.Equal(t, "add", consumer.OperationName)
	assert.Equal(t, "SendTask", producer.OperationName)
	assert.Equal(t, producer.SpanContext.SpanID, consumer.ParentID)
	assert.Equal(t, asyncResult.Signature.UUID, consumer.Tag("signature.uuid"))
}

func TestWorkerProvidesSpanToBoundTasks(t *testing.T) {
	globalTracer := opentracing.GlobalTracer()
	t.Cleanup(func() {
		opentracing.SetGlobalTracer(globalTracer)
	})
	opentracing.SetGlobalTracer(mocktracer.New())

	app := newTestApp(t, nil)
	task, err := app.RegisterTask("traced", tasks.Bound(func(req *tasks.Request, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return opentracing.SpanFromContext(req.Context()) != nil, nil
	}))
	require.NoError(t, err)

	asyncResult, err := task.Delay()
	require.NoError(t, err)

	value, err := asyncResult.GetWithTimeout(testTimeout, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, true, value)
}

func TestWorkerMetrics(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	added, err := mustGetTask(t, app, "add").Delay(1, 2)
	require.NoError(t, err)
	failed, err := mustGetTask(t, app, "boom").Delay()
	require.NoError(t, err)

	_, err = added.GetWithTimeout(testTimeout, time.Millisecond)
	require.NoError(t, err)
	_, err = failed.GetWithTimeout(testTimeout, time.Millisecond)
	require.Error(t, err)

	// results are stored after the counters move
	expected := `
# HELP taskengine_tasks_processed_total Total number of processed tasks by terminal state.
# TYPE taskengine_tasks_processed_total counter
taskengine_tasks_processed_total{state="FAILURE",task="boom"} 1
taskengine_tasks_processed_total{state="SUCCESS",task="add"} 1
# HELP taskengine_tasks_submitted_total Total number of submitted tasks.
# TYPE taskengine_tasks_submitted_total counter
taskengine_tasks_submitted_total{mode="async",task="add"} 1
taskengine_tasks_submitted_total{mode="async",task="boom"} 1
`
	require.NoError(t, testutil.GatherAndCompare(app.GetMetrics().Gatherer(), strings.NewReader(expected),
		"taskengine_tasks_processed_total", "taskengine_tasks_submitted_total"))
}

func TestWorkerProcessesUnregisteredTask(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	signature := tasks.NewSignature("missing", nil, nil)
	err := app.NewWorker().Process(signature)

	var notRegistered tasks.ErrTaskNotRegistered
	require.ErrorAs(t, err, &notRegistered)
	assert.True(t, app.AsyncResult(signature.UUID).Failed())
}

func TestWorkerSkipsCompletedTask(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, nil)

	signature := tasks.NewSignature("add", []interface{}{1, 1}, nil)
	require.NoError(t, app.NewWorker().Process(signature))

	// a second delivery of the same id cannot move the state back
	var transitionErr tasks.ErrInvalidStateTransition
	require.ErrorAs(t, app.NewWorker().Process(signature), &transitionErr)

	value, err := app.AsyncResult(signature.UUID).Get(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 2, value)
}
