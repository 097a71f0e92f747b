package memcache

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/RichardKnop/taskengine/backends/iface"
	"github.com/RichardKnop/taskengine/common"
	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/log"
	"github.com/RichardKnop/taskengine/retry"
	"github.com/RichardKnop/taskengine/tasks"

	gomemcache "github.com/bradfitz/gomemcache/memcache"
)

const maxCASRetries = 10

// Backend represents a Memcache result backend
type Backend struct {
	common.Backend
	servers []string

	client     *gomemcache.Client
	clientOnce sync.Once
}

var _ iface.Backend = (*Backend)(nil)

// New creates Backend instance
func New(cnf *config.Config, servers []string) *Backend {
	return &Backend{
		Backend: common.NewBackend(cnf),
		servers: servers,
	}
}

// SetStateStarted updates task state to STARTED
func (b *Backend) SetStateStarted(signature *tasks.Signature) error {
	return b.StoreResult(tasks.NewStartedTaskState(signature))
}

// SetStateSuccess updates task state to SUCCESS
func (b *Backend) SetStateSuccess(signature *tasks.Signature, result interface{}) error {
	return b.StoreResult(tasks.NewSuccessTaskState(signature, result))
}

// SetStateFailure updates task state to FAILURE
func (b *Backend) SetStateFailure(signature *tasks.Signature, taskErr *tasks.TaskError) error {
	return b.StoreResult(tasks.NewFailureTaskState(signature, taskErr))
}

// StoreResult writes the state with Add for a new key and CompareAndSwap
// for an existing one, retrying when another writer got in between
func (b *Backend) StoreResult(taskState *tasks.TaskState) error {
	encoded, err := b.EncodeState(taskState)
	if err != nil {
		return err
	}

	backoff := retry.Backoff(time.Millisecond)
	for i := 0; i < maxCASRetries; i++ {
		item, err := b.getClient().Get(taskState.TaskUUID)
		if err == gomemcache.ErrCacheMiss {
			err = b.getClient().Add(&gomemcache.Item{
				Key:        taskState.TaskUUID,
				Value:      encoded,
				Expiration: b.getExpirationTimestamp(),
			})
			if err == gomemcache.ErrNotStored {
				backoff()
				continue
			}
			return err
		}
		if err != nil {
			return err
		}

		current, err := b.DecodeState(item.Value)
		if err != nil {
			return err
		}
		if !current.CanTransitionTo(taskState.State) {
			return tasks.NewErrInvalidStateTransition(taskState.TaskUUID, current.State, taskState.State)
		}

		item.Value = encoded
		item.Expiration = b.getExpirationTimestamp()
		err = b.getClient().CompareAndSwap(item)
		if err == gomemcache.ErrCASConflict || err == gomemcache.ErrNotStored {
			log.DEBUG.Printf("Concurrent write of task %s state, retrying", taskState.TaskUUID)
			backoff()
			continue
		}
		return err
	}

	return errors.Errorf("store state of task %s: too many concurrent writes", taskState.TaskUUID)
}

// GetState returns the latest task state
func (b *Backend) GetState(taskUUID string) (*tasks.TaskState, error) {
	item, err := b.getClient().Get(taskUUID)
	if err == gomemcache.ErrCacheMiss {
		return tasks.NewPendingTaskState(taskUUID), nil
	}
	if err != nil {
		return nil, err
	}

	return b.DecodeState(item.Value)
}

// PurgeState deletes stored task state
func (b *Backend) PurgeState(taskUUID string) error {
	err := b.getClient().Delete(taskUUID)
	if err == gomemcache.ErrCacheMiss {
		return nil
	}
	return err
}

// getExpirationTimestamp returns expiration timestamp
func (b *Backend) getExpirationTimestamp() int32 {
	return int32(time.Now().Add(b.GetConfig().ResultsExpiration()).Unix())
}

// getClient returns or creates instance of Memcache client
func (b *Backend) getClient() *gomemcache.Client {
	b.clientOnce.Do(func() {
		b.client = gomemcache.New(b.servers...)
	})
	return b.client
}
