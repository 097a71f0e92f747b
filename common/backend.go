package common

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/tasks"
)

// Backend represents a base structure for backends keeping encoded states
// in an external store
type Backend struct {
	cnf *config.Config
}

// NewBackend creates new Backend instance
func NewBackend(cnf *config.Config) Backend {
	if cnf == nil {
		cnf = config.NewDefault()
	}
	return Backend{cnf: cnf}
}

// GetConfig returns config
func (b *Backend) GetConfig() *config.Config {
	return b.cnf
}

// EncodeState marshals a task state for storage
func (b *Backend) EncodeState(taskState *tasks.TaskState) ([]byte, error) {
	encoded, err := json.Marshal(taskState)
	if err != nil {
		return nil, errors.Wrapf(err, "marshal state of task %s", taskState.TaskUUID)
	}
	return encoded, nil
}

// DecodeState unmarshals a stored task state. Numbers are decoded as
// json.Number so no precision is lost on the way back.
func (b *Backend) DecodeState(data []byte) (*tasks.TaskState, error) {
	taskState := new(tasks.TaskState)
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(taskState); err != nil {
		return nil, errors.Wrap(err, "unmarshal task state")
	}
	return taskState, nil
}
