package taskengine

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/RichardKnop/taskengine/log"
	"github.com/RichardKnop/taskengine/tasks"
	"github.com/RichardKnop/taskengine/tracing"
)

// Worker processes tasks delivered by the broker
type Worker struct {
	app   *App
	eager bool
}

// Process handles received tasks and triggers success/failure outcomes.
// Whatever happens to the task, its outcome is stored before Process
// returns. The returned error is the task failure, or a failure to store
// the outcome.
func (worker *Worker) Process(signature *tasks.Signature) error {
	// try to extract trace span from headers and add it to the request
	// context so bound tasks can use it. Start a new span if it isn't found.
	taskSpan := tracing.StartSpanFromHeaders(signature.Headers, signature.Name)
	tracing.AnnotateSpanWithSignatureInfo(taskSpan, signature)
	defer taskSpan.Finish()

	ctx := opentracing.ContextWithSpan(context.Background(), taskSpan)

	task, err := worker.app.GetRegisteredTask(signature.Name)
	if err != nil {
		log.WARNING.Printf("Task %s[%s] not registered", signature.Name, signature.UUID)
		return worker.taskFailed(ctx, signature, tasks.NewTaskError(err), 0)
	}

	return worker.run(ctx, signature, task, worker.eager)
}

func (worker *Worker) run(ctx context.Context, signature *tasks.Signature, task *Task, eager bool) error {
	// eager runs skip STARTED, nobody could observe it
	if !eager && !signature.IgnoreResult {
		if err := worker.app.backend.SetStateStarted(signature); err != nil {
			log.ERROR.Printf("Set state to 'started' for task %s returned error: %v", signature.UUID, err)
			return errors.Wrapf(err, "set state to 'started' for task %s", signature.UUID)
		}
	}

	log.DEBUG.Printf("Started processing %s[%s]", signature.Name, signature.UUID)

	start := time.Now()
	res, err := tasks.Run(task.callable, tasks.NewRequest(ctx, signature, eager))
	took := time.Since(start)

	if err != nil {
		return worker.taskFailed(ctx, signature, tasks.NewTaskError(err), took)
	}
	return worker.taskSucceeded(signature, res, took)
}

// taskSucceeded updates the task state and logs the result
func (worker *Worker) taskSucceeded(signature *tasks.Signature, res interface{}, took time.Duration) error {
	worker.app.metrics.TaskProcessed(signature.Name, tasks.StateSuccess, took)

	if !signature.IgnoreResult {
		if err := worker.app.backend.SetStateSuccess(signature, res); err != nil {
			log.ERROR.Printf("Set state to 'success' for task %s returned error: %v", signature.UUID, err)
			return errors.Wrapf(err, "set state to 'success' for task %s", signature.UUID)
		}
	}

	log.DEBUG.Printf("Processed task %s[%s]. Result = %v", signature.Name, signature.UUID, res)
	return nil
}

// taskFailed updates the task state and logs the error. The task error
// is returned so an eager caller can see it.
func (worker *Worker) taskFailed(ctx context.Context, signature *tasks.Signature, taskErr *tasks.TaskError, took time.Duration) error {
	worker.app.metrics.TaskProcessed(signature.Name, tasks.StateFailure, took)
	if span := opentracing.SpanFromContext(ctx); span != nil {
		tracing.AnnotateSpanWithError(span, taskErr)
	}

	if !signature.IgnoreResult {
		if err := worker.app.backend.SetStateFailure(signature, taskErr); err != nil {
			log.ERROR.Printf("Set state to 'failure' for task %s returned error: %v", signature.UUID, err)
			return errors.Wrapf(err, "set state to 'failure' for task %s", signature.UUID)
		}
	}

	log.ERROR.Printf("Failed processing task %s[%s]. Error = %v", signature.Name, signature.UUID, taskErr)
	return taskErr
}
