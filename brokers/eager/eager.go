package eager

import (
	"context"
	"sync"

	"github.com/RichardKnop/taskengine/brokers/errs"
	"github.com/RichardKnop/taskengine/brokers/iface"
	"github.com/RichardKnop/taskengine/tasks"
)

// Broker represents an "eager" in-memory broker, publishing a task runs it
// on the caller's goroutine
type Broker struct {
	mu     sync.RWMutex
	worker iface.TaskProcessor
}

var _ iface.Broker = (*Broker)(nil)

// New creates new Broker instance
func New() *Broker {
	return new(Broker)
}

// StartConsuming assigns the worker, no goroutines are started
func (eagerBroker *Broker) StartConsuming(concurrency int, p iface.TaskProcessor) error {
	eagerBroker.mu.Lock()
	defer eagerBroker.mu.Unlock()

	eagerBroker.worker = p
	return nil
}

// StopConsuming does nothing, there is nothing in flight once Publish returns
func (eagerBroker *Broker) StopConsuming() {}

// Publish processes the task before returning, the returned error is the
// one the task failed with
func (eagerBroker *Broker) Publish(ctx context.Context, task *tasks.Signature) error {
	eagerBroker.mu.RLock()
	worker := eagerBroker.worker
	eagerBroker.mu.RUnlock()

	if worker == nil {
		return errs.ErrWorkerNotAssigned
	}

	// blocking call to the task directly
	return worker.Process(task)
}

// GetPendingTasks is always empty
func (eagerBroker *Broker) GetPendingTasks() []*tasks.Signature {
	return []*tasks.Signature{}
}
