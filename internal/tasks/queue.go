package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"wayfarer/internal/providers"
	"wayfarer/internal/structures"
	"wayfarer/internal/tasks/interfaces"
)

type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue runs named background tasks on a fixed worker pool over a bounded
// buffer. Producers never block: a full buffer drops the task. Each task
// runs under its own timeout, and a panicking task takes down only itself.
type Queue struct {
	tasks       chan Task
	workers     int
	taskTimeout time.Duration
	logger      providers.Logger
	metrics     providers.MetricsProviderInterface
	running     *atomic.Bool
	opsMu       sync.RWMutex
	wg          sync.WaitGroup
}

func NewTaskQueue(conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) interfaces.TaskQueueInterface {
	return &Queue{
		tasks:       make(chan Task, conf.Tasks.QueueSize),
		workers:     conf.Tasks.Workers,
		taskTimeout: conf.Generator.Timeout,
		logger:      logger,
		metrics:     metrics,
		running:     atomic.NewBool(false),
	}
}

func (q *Queue) Start() {
	q.opsMu.Lock()
	defer q.opsMu.Unlock()
	if q.running.Swap(true) {
		return
	}
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Infof(providers.TypeApp, "Task queue started with %d workers", q.workers)
}

func (q *Queue) Enqueue(name string, fn func(ctx context.Context) error) bool {
	q.opsMu.RLock()
	defer q.opsMu.RUnlock()
	if !q.running.Load() {
		q.logger.Warnf(providers.TypeTask, "Task %s rejected, queue is not running", name)
		return false
	}
	select {
	case q.tasks <- Task{Name: name, Run: fn}:
		q.metrics.SetQueueDepth(len(q.tasks))
		return true
	default:
		q.metrics.IncTasksDropped()
		q.logger.Warnf(providers.TypeTask, "Task %s dropped, queue is full", name)
		return false
	}
}

func (q *Queue) Len() int {
	return len(q.tasks)
}

// Stop rejects new tasks, then drains what is already buffered before
// returning.
func (q *Queue) Stop() {
	q.opsMu.Lock()
	wasRunning := q.running.Swap(false)
	if wasRunning {
		close(q.tasks)
	}
	q.opsMu.Unlock()
	if !wasRunning {
		return
	}
	q.wg.Wait()
	q.logger.Infof(providers.TypeApp, "Task queue drained")
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for task := range q.tasks {
		q.metrics.SetQueueDepth(len(q.tasks))
		q.execute(task)
	}
}

func (q *Queue) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			q.metrics.IncTaskFailures()
			q.logger.Errorf(providers.TypeTask, "Task %s panicked: %v", task.Name, r)
		}
	}()

	ctx := context.Background()
	if q.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		q.metrics.IncTaskFailures()
		q.logger.Errorf(providers.TypeTask, "Task %s failed after %s: %s", task.Name, time.Since(start), err)
		return
	}
	q.logger.Debugf(providers.TypeTask, "Task %s completed in %s", task.Name, time.Since(start))
}
