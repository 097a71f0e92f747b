package tasks

import (
	"context"
)

// Request is the per-invocation context handed to bound tasks. A new
// Request is built for every invocation so concurrent runs of one task
// never share it.
type Request struct {
	ID       string
	TaskName string
	Args     []interface{}
	Kwargs   map[string]interface{}
	// Eager is true when the task runs on the submitting goroutine
	Eager bool

	ctx context.Context
}

// NewRequest builds the request context for one execution of signature
func NewRequest(ctx context.Context, signature *Signature, eager bool) *Request {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Request{
		ID:       signature.UUID,
		TaskName: signature.Name,
		Args:     signature.Args,
		Kwargs:   signature.Kwargs,
		Eager:    eager,
		ctx:      ctx,
	}
}

// Context returns the context of the invocation, it carries the
// consumer tracing span when tracing is enabled
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}
