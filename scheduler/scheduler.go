package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler runs named maintenance tasks on fixed intervals. A panicking
// task is logged and its ticker keeps running.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]chan struct{}
	logger *zap.Logger
	closed bool
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tasks:  make(map[string]chan struct{}),
		logger: logger,
	}
}

// AddTicker registers a task to run every interval. Registering a name
// twice replaces the earlier task.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if stop, ok := s.tasks[name]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.tasks[name] = stop

	go s.run(name, interval, fn, stop)
	s.logger.Info("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

func (s *Scheduler) run(name string, interval time.Duration, fn TaskFn, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.invoke(name, fn)
		case <-stop:
			return
		}
	}
}

func (s *Scheduler) invoke(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name), zap.Any("recover", r))
		}
	}()
	fn()
}

// Remove stops the named task.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stop, ok := s.tasks[name]; ok {
		close(stop)
		delete(s.tasks, name)
	}
}

// Stop stops every task. The scheduler accepts no new tasks afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for name, stop := range s.tasks {
		close(stop)
		delete(s.tasks, name)
	}
}
