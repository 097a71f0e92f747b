package iface

import (
	"context"

	"github.com/RichardKnop/taskengine/tasks"
)

// Broker - a common interface for all brokers
type Broker interface {
	StartConsuming(concurrency int, p TaskProcessor) error
	StopConsuming()
	Publish(ctx context.Context, task *tasks.Signature) error
	GetPendingTasks() []*tasks.Signature
}

// TaskProcessor - can process a delivered task
// This will probably always be a worker instance
type TaskProcessor interface {
	Process(signature *tasks.Signature) error
}
