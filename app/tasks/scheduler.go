package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

var _ SchedulerInterface = (*Scheduler)(nil)

// JobFactory builds a fresh task for one run; per-run state lives on the
// task, never on the scheduler.
type JobFactory func() TaskInterface

type jobSpec struct {
	factory  JobFactory
	interval time.Duration
	mu       *sync.Mutex
}

// Scheduler runs each registered job on its own interval through a bounded
// worker pool, and exposes synchronous on-demand runs for the manual trigger.
type Scheduler struct {
	jobs        map[string]jobSpec
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		jobs:        make(map[string]jobSpec),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 50),
	}
}

// Register adds a job under its trigger name. Must be called before Start.
// Each job carries its own lock so one name never runs concurrently with
// itself: the resolver in particular would double-create babies if two runs
// read the same unprocessed batch.
func (s *Scheduler) Register(name string, interval time.Duration, factory JobFactory) {
	s.jobs[name] = jobSpec{factory: factory, interval: interval, mu: &sync.Mutex{}}
}

// lockJob acquires the named job's run lock and returns its release func.
// Unknown names (tasks built outside Register, as in tests) run unlocked.
func (s *Scheduler) lockJob(name string) func() {
	spec, ok := s.jobs[name]
	if !ok {
		return func() {}
	}
	spec.mu.Lock()
	return spec.mu.Unlock
}

// Jobs returns the registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	for name, spec := range s.jobs {
		s.wg.Add(1)
		go s.tick(name, spec)
	}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

// RunJob executes one job synchronously, used by the manual trigger. It
// bypasses the queue so the caller gets the run's actual outcome.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	spec, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job: %s", name)
	}

	defer s.lockJob(name)()

	task := spec.factory()
	task.Start()
	return task.Execute(ctx)
}

// HasJob reports whether a job name is registered.
func (s *Scheduler) HasJob(name string) bool {
	_, ok := s.jobs[name]
	return ok
}

func (s *Scheduler) tick(name string, spec jobSpec) {
	defer s.wg.Done()

	ticker := time.NewTicker(spec.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.enqueue(spec.factory()); err != nil {
				slog.Warn("Failed to enqueue scheduled job", "job", name, "error", err)
			}
		}
	}
}

func (s *Scheduler) enqueue(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	defer s.lockJob(task.GetJob())()

	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "job", task.GetJob(), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() {
		slog.Error("Task failed after maximum retries", "job", task.GetJob(), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	task.IncrementRetryCount()
	retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
	if retryDelay > 30*time.Second {
		retryDelay = 30 * time.Second
	}

	slog.Warn("Task retry scheduled", "job", task.GetJob(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		time.Sleep(retryDelay)
		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "job", task.GetJob(), "id", task.GetID())
		default:
			if retryErr := s.enqueue(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "job", task.GetJob(), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
