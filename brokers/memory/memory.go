package memory

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/RichardKnop/taskengine/brokers/errs"
	"github.com/RichardKnop/taskengine/brokers/iface"
	"github.com/RichardKnop/taskengine/log"
	"github.com/RichardKnop/taskengine/tasks"
)

// Broker represents an in-memory broker: one FIFO queue consumed by a fixed
// number of worker goroutines
type Broker struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*tasks.Signature
	stopped bool

	// nil when the queue is unbounded
	slots chan struct{}

	consuming    bool
	processingWG sync.WaitGroup
}

var _ iface.Broker = (*Broker)(nil)

// New creates new Broker instance. A positive capacity bounds the number of
// queued messages and makes Publish block while the queue is full.
func New(capacity int) *Broker {
	b := &Broker{}
	b.cond = sync.NewCond(&b.mu)
	if capacity > 0 {
		b.slots = make(chan struct{}, capacity)
	}
	return b
}

// StartConsuming starts concurrency worker goroutines and returns
// immediately. Workers run until StopConsuming.
func (b *Broker) StartConsuming(concurrency int, taskProcessor iface.TaskProcessor) error {
	if concurrency < 1 {
		concurrency = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return errs.ErrBrokerClosed
	}
	if b.consuming {
		return errs.ErrAlreadyConsuming
	}
	b.consuming = true

	log.INFO.Printf("[*] Waiting for messages with %d workers", concurrency)

	for i := 0; i < concurrency; i++ {
		b.processingWG.Add(1)
		go b.consume(taskProcessor)
	}
	return nil
}

// StopConsuming stops accepting new messages, lets the workers drain the
// queue and waits for them to exit
func (b *Broker) StopConsuming() {
	b.mu.Lock()
	b.stopped = true
	b.cond.Broadcast()
	b.mu.Unlock()

	b.processingWG.Wait()
}

// Publish places a new message at the end of the queue. It only blocks on
// a full bounded queue, in which case ctx can abort the wait.
func (b *Broker) Publish(ctx context.Context, signature *tasks.Signature) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if b.slots != nil {
		select {
		case b.slots <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		b.releaseSlot()
		return errs.ErrBrokerClosed
	}

	b.queue = append(b.queue, signature)
	b.cond.Signal()
	return nil
}

// GetPendingTasks returns a snapshot of the messages waiting in the queue
func (b *Broker) GetPendingTasks() []*tasks.Signature {
	b.mu.Lock()
	defer b.mu.Unlock()

	pending := make([]*tasks.Signature, len(b.queue))
	copy(pending, b.queue)
	return pending
}

func (b *Broker) consume(taskProcessor iface.TaskProcessor) {
	defer b.processingWG.Done()

	for {
		signature, ok := b.next()
		if !ok {
			return
		}
		b.consumeOne(signature, taskProcessor)
	}
}

// next blocks until a message is available. It returns false once the
// broker is stopped and the queue is drained.
func (b *Broker) next() (*tasks.Signature, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.queue) == 0 && !b.stopped {
		b.cond.Wait()
	}
	if len(b.queue) == 0 {
		return nil, false
	}

	signature := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	b.releaseSlot()
	return signature, true
}

// consumeOne processes a single message. Nothing a task processor does may
// take the worker goroutine down with it.
func (b *Broker) consumeOne(signature *tasks.Signature, taskProcessor iface.TaskProcessor) {
	defer func() {
		if r := recover(); r != nil {
			log.ERROR.Printf("Processing task %s[%s] panicked: %v\n%s", signature.Name, signature.UUID, r, debug.Stack())
		}
	}()

	if err := taskProcessor.Process(signature); err != nil {
		log.DEBUG.Printf("Task %s[%s] returned error: %v", signature.Name, signature.UUID, err)
	}
}

func (b *Broker) releaseSlot() {
	if b.slots != nil {
		<-b.slots
	}
}
