package queue

import "errors"

var (
	// ErrQueueRepositoryRequired is returned when a queue repository is not provided.
	ErrQueueRepositoryRequired = errors.New("queue repository required")

	// ErrProcessorRequired is returned when a message processor is not provided.
	ErrProcessorRequired = errors.New("message processor required")

	// ErrAlreadyRunning is returned when Start is called on a running worker
	// or reconciler.
	ErrAlreadyRunning = errors.New("already running")
)
