package schedule_grid_service

import (
	"sync"

	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
)

// TaskRunner runs fire-and-forget side effects as tracked goroutines:
// spawn-and-log-on-error instead of unawaited calls with swallowed
// failures. Wait makes the detached work observable in tests and lets
// shutdown drain in-flight cache writes.
type TaskRunner struct {
	wg     sync.WaitGroup
	logger out.LoggerPort
}

func NewTaskRunner(logger out.LoggerPort) *TaskRunner {
	return &TaskRunner{logger: logger.WithModule("TaskRunner")}
}

func (r *TaskRunner) Spawn(name string, fn func() error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := fn(); err != nil {
			r.logger.Error("task.failed", out.LogFields{
				"task":  name,
				"error": err.Error(),
			})
		}
	}()
}

func (r *TaskRunner) Wait() {
	r.wg.Wait()
}
