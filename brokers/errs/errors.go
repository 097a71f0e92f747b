package errs

import (
	"errors"
)

var (
	// ErrBrokerClosed is returned when publishing after the broker stopped consuming
	ErrBrokerClosed = errors.New("Broker is closed")
	// ErrAlreadyConsuming is returned when consumption was already started
	ErrAlreadyConsuming = errors.New("Broker is already consuming")
	// ErrWorkerNotAssigned is returned by the eager broker before a worker is assigned
	ErrWorkerNotAssigned = errors.New("Worker is not assigned in eager-mode")
)
