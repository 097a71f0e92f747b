package tasks

import (
	"fmt"

	"github.com/google/uuid"
)

// Headers carries message metadata, e.g. tracing span context
type Headers map[string]interface{}

// Set implements opentracing.TextMapWriter
func (h Headers) Set(key, val string) {
	h[key] = val
}

// ForeachKey implements opentracing.TextMapReader
func (h Headers) ForeachKey(handler func(key, val string) error) error {
	for k, v := range h {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if err := handler(k, s); err != nil {
			return err
		}
	}
	return nil
}

// Signature represents a single task invocation. It is the message put on
// the dispatcher queue and is consumed exactly once.
type Signature struct {
	UUID         string
	Name         string
	Args         []interface{}
	Kwargs       map[string]interface{}
	Headers      Headers
	IgnoreResult bool
}

// NewSignature creates a new task signature with a fresh UUID
func NewSignature(name string, args []interface{}, kwargs map[string]interface{}) *Signature {
	return &Signature{
		UUID:   NewTaskUUID(),
		Name:   name,
		Args:   args,
		Kwargs: kwargs,
	}
}

// NewTaskUUID generates a unique task id
func NewTaskUUID() string {
	return fmt.Sprintf("task_%v", uuid.New())
}

// Copy returns a copy of the signature that can be published without
// touching the original. Headers are copied, arguments are shared.
func (s *Signature) Copy() *Signature {
	sig := *s
	if s.Headers != nil {
		sig.Headers = make(Headers, len(s.Headers))
		for k, v := range s.Headers {
			sig.Headers[k] = v
		}
	}
	return &sig
}
