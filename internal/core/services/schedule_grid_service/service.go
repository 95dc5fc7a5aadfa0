package schedule_grid_service

import (
	"context"
	"sync"
	"time"

	"github.com/clinicdesk/agenda-core/internal/config"
	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/observability/metrics"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

// ScheduleGridService owns the scheduling core: the data source router, the
// grid engine, the reschedule/resize algorithm and the capacity validator.
type ScheduleGridService struct {
	centralPort      out.CentralPort
	cachePort        out.CachePort
	connectivityPort out.ConnectivityPort
	clinic           timegrid.Clinic
	logger           out.LoggerPort
	cfg              *config.Config
	tasks            *TaskRunner

	// now is swappable so grid rendering and slot math are testable at a
	// fixed instant.
	now func() time.Time

	mu          sync.Mutex
	lastRequest *domain.GridRequest
}

func NewScheduleGridService(
	centralPort out.CentralPort,
	cachePort out.CachePort,
	connectivityPort out.ConnectivityPort,
	clinic timegrid.Clinic,
	cfg *config.Config,
	logger out.LoggerPort,
) *ScheduleGridService {
	svc := &ScheduleGridService{
		centralPort:      centralPort,
		cachePort:        cachePort,
		connectivityPort: connectivityPort,
		clinic:           clinic,
		cfg:              cfg,
		logger:           logger.WithModule("ScheduleGridService"),
		now:              time.Now,
	}
	svc.tasks = NewTaskRunner(svc.logger)
	return svc
}

// Tasks exposes the detached-task runner so callers (and tests) can wait
// for in-flight write-through work before shutdown.
func (s *ScheduleGridService) Tasks() *TaskRunner {
	return s.tasks
}

func (s *ScheduleGridService) rememberRequest(req domain.GridRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRequest = &req
}

// RefreshVisible refetches the most recently viewed window. Used by the
// change-notification listener after the debounce window closes; the read
// re-primes the cache on its way through the router.
func (s *ScheduleGridService) RefreshVisible(ctx context.Context) error {
	s.mu.Lock()
	req := s.lastRequest
	s.mu.Unlock()

	if req == nil {
		s.logger.Debug("refresh.skipped", out.LogFields{
			"reason": "no visible window",
		})
		return nil
	}

	metrics.RefetchesTriggered.Inc()
	start := s.clinic.StartOfWeek(req.WeekOf)
	end := s.clinic.EndOfWeek(req.WeekOf)

	_, err := s.appointmentsInRange(ctx, req.BranchID, start, end, out.AppointmentFilters{})
	if err != nil {
		s.logger.Error("refresh.failed", out.LogFields{
			"branchId": req.BranchID,
			"error":    err.Error(),
		})
		return err
	}

	s.logger.Info("refresh.completed", out.LogFields{
		"branchId": req.BranchID,
		"start":    start,
		"end":      end,
	})
	return nil
}
