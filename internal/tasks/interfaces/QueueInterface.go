package interfaces

import "context"

type TaskQueueInterface interface {
	Start()
	// Enqueue schedules a named task for background execution. It never
	// blocks: when the queue is full or stopped the task is dropped and
	// false is returned.
	Enqueue(name string, fn func(ctx context.Context) error) bool
	Len() int
	// Stop closes the queue and waits for buffered tasks to finish.
	Stop()
}
