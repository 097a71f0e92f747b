package taskengine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/opentracing/opentracing-go"

	"github.com/RichardKnop/taskengine/backends/result"
	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/log"
	"github.com/RichardKnop/taskengine/metrics"
	"github.com/RichardKnop/taskengine/tasks"
	"github.com/RichardKnop/taskengine/tracing"

	backendsiface "github.com/RichardKnop/taskengine/backends/iface"
	eagerbroker "github.com/RichardKnop/taskengine/brokers/eager"
	brokersiface "github.com/RichardKnop/taskengine/brokers/iface"
)

// App is the main task engine object and stores all configuration.
// All the tasks workers process are registered against the app.
type App struct {
	config          *config.Config
	registeredTasks *sync.Map
	broker          brokersiface.Broker
	backend         backendsiface.Backend
	metrics         *metrics.Collector
	eager           bool
	closeOnce       sync.Once
}

// NewApp creates App instance with the broker and result backend the
// config asks for. Workers are running once it returns.
func NewApp(cnf *config.Config) (*App, error) {
	if cnf == nil {
		cnf = config.NewDefault()
	}

	broker, err := BrokerFactory(cnf)
	if err != nil {
		return nil, err
	}

	backend, err := BackendFactory(cnf)
	if err != nil {
		return nil, err
	}

	return NewAppWithBrokerBackend(cnf, broker, backend)
}

// NewAppWithBrokerBackend creates App instance on top of the given broker
// and backend and starts consuming
func NewAppWithBrokerBackend(cnf *config.Config, broker brokersiface.Broker, backend backendsiface.Backend) (*App, error) {
	if cnf == nil {
		cnf = config.NewDefault()
	}

	if backend == nil {
		return nil, result.ErrBackendNotConfigured
	}

	_, eager := broker.(*eagerbroker.Broker)
	app := &App{
		config:          cnf,
		registeredTasks: new(sync.Map),
		broker:          broker,
		backend:         backend,
		metrics:         metrics.NewCollector(),
		eager:           eager,
	}
	app.metrics.RegisterQueueDepth(func() int {
		return len(app.broker.GetPendingTasks())
	})

	if err := broker.StartConsuming(cnf.Concurrency, app.NewWorker()); err != nil {
		return nil, err
	}

	log.INFO.Printf("Task engine started (eager: %t, concurrency: %d, result backend: %s)",
		eager, cnf.Concurrency, cnf.ResultBackend)

	return app, nil
}

// NewWorker creates Worker instance processing tasks of this app
func (app *App) NewWorker() *Worker {
	return &Worker{
		app:   app,
		eager: app.eager,
	}
}

// GetBroker returns broker
func (app *App) GetBroker() brokersiface.Broker {
	return app.broker
}

// GetBackend returns backend
func (app *App) GetBackend() backendsiface.Backend {
	return app.backend
}

// GetConfig returns config
func (app *App) GetConfig() *config.Config {
	return app.config
}

// GetMetrics returns the metrics collector of the app
func (app *App) GetMetrics() *metrics.Collector {
	return app.metrics
}

// IsEager returns true when tasks run on the submitting goroutine
func (app *App) IsEager() bool {
	return app.eager
}

// RegisterTasks registers all tasks at once. Nothing is registered when
// any of them is invalid.
func (app *App) RegisterTasks(namedTaskFuncs map[string]tasks.Callable) error {
	for name, fn := range namedTaskFuncs {
		if err := validateTask(name, fn); err != nil {
			return err
		}
	}
	for name, fn := range namedTaskFuncs {
		app.registeredTasks.Store(name, app.newTask(name, fn))
	}
	return nil
}

// RegisterTask registers a single task. Registering a name again replaces
// the previous task.
func (app *App) RegisterTask(name string, fn tasks.Callable) (*Task, error) {
	if err := validateTask(name, fn); err != nil {
		return nil, err
	}
	task := app.newTask(name, fn)
	app.registeredTasks.Store(name, task)
	return task, nil
}

// IsTaskRegistered returns true if the task name is registered with this app
func (app *App) IsTaskRegistered(name string) bool {
	_, ok := app.registeredTasks.Load(name)
	return ok
}

// GetRegisteredTask returns registered task by name
func (app *App) GetRegisteredTask(name string) (*Task, error) {
	task, ok := app.registeredTasks.Load(name)
	if !ok {
		return nil, tasks.NewErrTaskNotRegistered(name)
	}
	return task.(*Task), nil
}

// GetRegisteredTaskNames returns sorted names of all registered tasks
func (app *App) GetRegisteredTaskNames() []string {
	taskNames := make([]string, 0)
	app.registeredTasks.Range(func(key, _ interface{}) bool {
		taskNames = append(taskNames, key.(string))
		return true
	})
	sort.Strings(taskNames)
	return taskNames
}

// SendTask publishes a task, see SendTaskWithContext
func (app *App) SendTask(signature *tasks.Signature) (*result.AsyncResult, error) {
	return app.SendTaskWithContext(context.Background(), signature)
}

// SendTaskByName builds a signature for name and publishes it
func (app *App) SendTaskByName(name string, args []interface{}, kwargs map[string]interface{}) (*result.AsyncResult, error) {
	return app.SendTask(tasks.NewSignature(name, args, kwargs))
}

// SendTaskWithContext publishes a task and returns its result handle
// right away. A name nobody registered is not rejected here, its result
// fails with tasks.ErrTaskNotRegistered instead.
//
// The signature is copied before it is published, so it may be sent
// again. A signature without UUID gets a fresh id on every send, one
// carrying a UUID reuses it and a second delivery of a finished id is
// refused by the result backend.
//
// In eager mode the task has already finished when this returns. With
// EagerPropagates its failure is returned as the error, next to the
// result handle.
func (app *App) SendTaskWithContext(ctx context.Context, signature *tasks.Signature) (*result.AsyncResult, error) {
	if signature == nil {
		return nil, tasks.NewErrConfiguration("signature must not be nil")
	}

	sig := signature.Copy()
	if !sig.IgnoreResult {
		sig.IgnoreResult = app.ignoreResultFor(sig.Name)
	}
	return app.publish(ctx, sig)
}

// AsyncResult returns a result handle for any task id. With IgnoreResult
// in the config, an id nothing was stored for yet reads as ignored and Get
// returns nothing right away.
func (app *App) AsyncResult(taskUUID string) *result.AsyncResult {
	signature := &tasks.Signature{UUID: taskUUID}
	if app.config.IgnoreResult {
		taskState, err := app.backend.GetState(taskUUID)
		signature.IgnoreResult = err == nil && taskState.State == tasks.StatePending
	}
	return app.newAsyncResult(signature)
}

// Close stops accepting new tasks and waits until the queued ones are
// processed
func (app *App) Close() {
	app.closeOnce.Do(func() {
		app.broker.StopConsuming()
		log.INFO.Print("Task engine stopped")
	})
}

func (app *App) publish(ctx context.Context, signature *tasks.Signature) (*result.AsyncResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if signature.UUID == "" {
		signature.UUID = tasks.NewTaskUUID()
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "SendTask", tracing.ProducerOption(), tracing.TaskEngineTag)
	defer span.Finish()
	tracing.AnnotateSpanWithSignatureInfo(span, signature)
	signature.Headers = tracing.HeadersWithSpan(signature.Headers, span)

	asyncResult := app.newAsyncResult(signature)

	mode := "async"
	if app.eager {
		mode = "eager"
	}
	app.metrics.TaskSubmitted(signature.Name, mode)

	if err := app.broker.Publish(ctx, signature); err != nil {
		if app.eager {
			// the outcome is stored already
			if app.config.EagerPropagates {
				return asyncResult, err
			}
			return asyncResult, nil
		}
		return nil, fmt.Errorf("Publish message error: %w", err)
	}

	return asyncResult, nil
}

func (app *App) newAsyncResult(signature *tasks.Signature) *result.AsyncResult {
	return result.NewAsyncResult(signature, app.backend).SetPollInterval(app.config.ResultPollInterval())
}

func (app *App) ignoreResultFor(name string) bool {
	if task, err := app.GetRegisteredTask(name); err == nil {
		return task.ignoreResult
	}
	return app.config.IgnoreResult
}

func (app *App) newTask(name string, fn tasks.Callable) *Task {
	return &Task{
		Name:         name,
		callable:     fn,
		app:          app,
		ignoreResult: app.config.IgnoreResult,
	}
}

func validateTask(name string, fn tasks.Callable) error {
	if name == "" {
		return tasks.NewErrConfiguration("task name must not be empty")
	}
	if fn == nil {
		return tasks.NewErrConfiguration(fmt.Sprintf("task %s has no callable", name))
	}
	return nil
}
