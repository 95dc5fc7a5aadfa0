package schedule_grid_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/observability/metrics"
)

// The data source router: one read/write contract regardless of
// connectivity. Reads in local/offline mode go straight to the cache,
// online reads go remote with fire-and-forget write-through, and a
// network-class remote failure falls back to the cache instead of
// propagating. Writes always go remote; offline mutation queueing is
// deliberately unsupported.

func (s *ScheduleGridService) appointmentsInRange(ctx context.Context, branchID uuid.UUID, start, end time.Time, f out.AppointmentFilters) ([]domain.Appointment, error) {
	mode := s.connectivityPort.Mode()
	if mode.UsesCacheOnly() {
		s.logger.Debug("router.read.cache_only", out.LogFields{
			"branchId": branchID,
			"mode":     string(mode),
		})
		return s.readFromCache(ctx, branchID, start, end, f)
	}

	records, err := s.centralPort.FetchAppointments(ctx, branchID, start, end, f)
	if err != nil {
		if domain.IsUnreachable(err) {
			metrics.CacheFallbacks.Inc()
			s.logger.Warn("router.read.fallback", out.LogFields{
				"branchId": branchID,
				"error":    err.Error(),
			})
			return s.readFromCache(ctx, branchID, start, end, f)
		}
		return nil, err
	}

	// Write-through happens off the read path: the caller never waits on
	// the cache, and a cache failure never fails the read.
	writeThrough := make([]domain.Appointment, len(records))
	copy(writeThrough, records)
	s.tasks.Spawn("cache.write_through", func() error {
		n := s.cachePort.Put(context.Background(), writeThrough)
		if n < len(writeThrough) {
			metrics.WriteThroughFailures.Inc()
		}
		return nil
	})

	return applyFilters(records, f), nil
}

func (s *ScheduleGridService) readFromCache(ctx context.Context, branchID uuid.UUID, start, end time.Time, f out.AppointmentFilters) ([]domain.Appointment, error) {
	var result []domain.Appointment

	for day := s.clinic.DateOf(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		records, err := s.cachePort.GetByBranchAndDate(ctx, branchID, day)
		if err != nil {
			// An unreadable cache day renders as "nothing scheduled",
			// same as a genuinely empty one.
			s.logger.Error("router.cache.read_failed", out.LogFields{
				"branchId": branchID,
				"date":     day,
				"error":    err.Error(),
			})
			continue
		}
		for _, r := range records {
			if r.StartsAt.Before(end) && !r.StartsAt.Before(start) {
				result = append(result, r)
			}
		}
	}

	return applyFilters(result, f), nil
}

// getAppointment reads one record through the same routing discipline as
// range reads.
func (s *ScheduleGridService) getAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	if s.connectivityPort.Mode().UsesCacheOnly() {
		return s.cachePort.Get(ctx, id)
	}

	appt, err := s.centralPort.FetchAppointment(ctx, id)
	if err != nil && domain.IsUnreachable(err) {
		metrics.CacheFallbacks.Inc()
		return s.cachePort.Get(ctx, id)
	}
	return appt, err
}

// updateAppointmentTime is the router's write path. Writes always target
// the central database: with no reachable one there is nothing to write
// to, so cache-only modes reject up front instead of reaching the port.
func (s *ScheduleGridService) updateAppointmentTime(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error {
	mode := s.connectivityPort.Mode()
	if mode.UsesCacheOnly() {
		return domain.NewUnreachableError("appointment.update_time",
			fmt.Errorf("connectivity mode %q has no central database", mode))
	}
	return s.centralPort.UpdateAppointmentTime(ctx, id, startsAt, endsAt)
}

func (s *ScheduleGridService) scheduleBlocksInRange(ctx context.Context, branchID uuid.UUID, start, end time.Time) []domain.ScheduleBlock {
	if s.connectivityPort.Mode().UsesCacheOnly() {
		return nil
	}

	blocks, err := s.centralPort.FetchScheduleBlocks(ctx, branchID, start, end)
	if err != nil {
		// Blocks are advisory overlays; a failed fetch degrades to a
		// grid without them rather than an error.
		s.logger.Warn("router.blocks.fetch_failed", out.LogFields{
			"branchId": branchID,
			"error":    err.Error(),
		})
		return nil
	}
	return blocks
}

func applyFilters(records []domain.Appointment, f out.AppointmentFilters) []domain.Appointment {
	filtered := make([]domain.Appointment, 0, len(records))
	for _, r := range records {
		if !f.IncludeCancelled && r.Status == domain.AppointmentStatusCancelada {
			continue
		}
		if len(f.DoctorIDs) > 0 && !matchesDoctor(r, f.DoctorIDs) {
			continue
		}
		if len(f.Types) > 0 && !matchesType(r, f.Types) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func matchesDoctor(a domain.Appointment, ids []uuid.UUID) bool {
	if a.DoctorID == nil {
		return false
	}
	for _, id := range ids {
		if *a.DoctorID == id {
			return true
		}
	}
	return false
}

func matchesType(a domain.Appointment, types []domain.AppointmentType) bool {
	for _, t := range types {
		if a.Type == t {
			return true
		}
	}
	return false
}
