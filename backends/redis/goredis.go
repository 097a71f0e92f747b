package redis

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/RichardKnop/taskengine/backends/iface"
	"github.com/RichardKnop/taskengine/common"
	"github.com/RichardKnop/taskengine/config"
	"github.com/RichardKnop/taskengine/retry"
	"github.com/RichardKnop/taskengine/tasks"
)

// maxTxRetries bounds optimistic locking retries of a single state write
const maxTxRetries = 10

// BackendGR represents a Redis result backend
type BackendGR struct {
	common.Backend
	rclient redis.UniversalClient
}

var _ iface.Backend = (*BackendGR)(nil)

// NewGR creates Backend instance. The first address may carry a password
// in the password@host:port form.
func NewGR(cnf *config.Config, addrs []string, db int) *BackendGR {
	b := &BackendGR{
		Backend: common.NewBackend(cnf),
	}

	addrs = append([]string(nil), addrs...)
	var password string
	parts := strings.Split(addrs[0], "@")
	if len(parts) >= 2 {
		password = strings.Join(parts[:len(parts)-1], "@")
		addrs[0] = parts[len(parts)-1]
	}

	b.rclient = redis.NewUniversalClient(common.NewRedisOptions(addrs, password, db, b.GetConfig().Redis))
	return b
}

// SetStateStarted updates task state to STARTED
func (b *BackendGR) SetStateStarted(signature *tasks.Signature) error {
	return b.StoreResult(tasks.NewStartedTaskState(signature))
}

// SetStateSuccess updates task state to SUCCESS
func (b *BackendGR) SetStateSuccess(signature *tasks.Signature, result interface{}) error {
	return b.StoreResult(tasks.NewSuccessTaskState(signature, result))
}

// SetStateFailure updates task state to FAILURE
func (b *BackendGR) SetStateFailure(signature *tasks.Signature, taskErr *tasks.TaskError) error {
	return b.StoreResult(tasks.NewFailureTaskState(signature, taskErr))
}

// StoreResult writes the state inside a WATCH/MULTI transaction so a
// concurrent writer can never make the state move backwards
func (b *BackendGR) StoreResult(taskState *tasks.TaskState) error {
	ctx := context.Background()
	key := taskState.TaskUUID

	encoded, err := b.EncodeState(taskState)
	if err != nil {
		return err
	}

	txf := func(tx *redis.Tx) error {
		current, err := b.getState(ctx, tx, key)
		if err != nil {
			return err
		}
		if !current.CanTransitionTo(taskState.State) {
			return tasks.NewErrInvalidStateTransition(key, current.State, taskState.State)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, b.GetConfig().ResultsExpiration())
			return nil
		})
		return err
	}

	backoff := retry.Backoff(time.Millisecond)
	for i := 0; i < maxTxRetries; i++ {
		err = b.rclient.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			backoff()
			continue
		}
		return err
	}

	return errors.Wrapf(err, "store state of task %s", key)
}

// GetState returns the latest task state
func (b *BackendGR) GetState(taskUUID string) (*tasks.TaskState, error) {
	return b.getState(context.Background(), b.rclient, taskUUID)
}

// PurgeState deletes stored task state
func (b *BackendGR) PurgeState(taskUUID string) error {
	return b.rclient.Del(context.Background(), taskUUID).Err()
}

func (b *BackendGR) getState(ctx context.Context, c redis.Cmdable, taskUUID string) (*tasks.TaskState, error) {
	item, err := c.Get(ctx, taskUUID).Bytes()
	if err == redis.Nil {
		return tasks.NewPendingTaskState(taskUUID), nil
	}
	if err != nil {
		return nil, err
	}

	return b.DecodeState(item)
}
