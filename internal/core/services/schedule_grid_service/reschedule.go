package schedule_grid_service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	inport "github.com/clinicdesk/agenda-core/internal/core/ports/in"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

// MoveAppointment drops an appointment onto a new slot. Duration is
// preserved exactly; the commit is one atomic update of both instants, and
// a successful commit refetches the visible window so the grid reflects
// authoritative server state rather than the optimistic drop.
func (s *ScheduleGridService) MoveAppointment(ctx context.Context, id uuid.UUID, target domain.SlotRef) (*domain.Appointment, error) {
	appt, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reschedule.move: %w", err)
	}
	if appt == nil {
		return nil, domain.NewValidationError(domain.CodeNotFound, "appointment %s not found", id)
	}

	// A drop only ever lands on a grid slot; anything else is a client
	// bug, not a reschedule.
	if !timegrid.ValidSlot(target.Hour, target.Minute) {
		return nil, domain.NewValidationError(domain.CodeInvalidSlot,
			"target %02d:%02d is not a slot on the scheduling grid", target.Hour, target.Minute)
	}

	session := NewDragSession(*appt)
	if err := session.BeginDrag(); err != nil {
		return nil, err
	}

	newStart := s.clinic.ToAbsolute(target.Day, target.Hour, target.Minute)
	newEnd := newStart.Add(appt.Duration())
	session.Propose(newStart, newEnd)

	candidate := *appt
	candidate.StartsAt = newStart
	candidate.EndsAt = newEnd

	if NeedsCapacityCheck(*appt, candidate) {
		if err := s.checkCapacity(ctx, candidate); err != nil {
			session.Reject()
			s.logger.Info("reschedule.move.rejected", out.LogFields{
				"appointmentId": id,
				"error":         err.Error(),
			})
			return nil, err
		}
	}

	if err := s.commit(ctx, session, candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

// ResizeAppointment converts a pointer drag on the top or bottom handle
// into a new duration. The pixel delta becomes minutes at the configured
// rate, snapped to the slot granularity; a result outside the duration
// bounds is rejected with no commit so the element snaps back.
func (s *ScheduleGridService) ResizeAppointment(ctx context.Context, id uuid.UUID, edge inport.ResizeEdge, deltaPx int) (*domain.Appointment, error) {
	appt, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reschedule.resize: %w", err)
	}
	if appt == nil {
		return nil, domain.NewValidationError(domain.CodeNotFound, "appointment %s not found", id)
	}

	session := NewDragSession(*appt)
	if err := session.BeginResize(); err != nil {
		return nil, err
	}

	minutes := timegrid.SnapPixels(deltaPx, s.cfg.Grid.PixelsPerMinute)
	delta := time.Duration(minutes) * time.Minute

	newStart := appt.StartsAt
	newEnd := appt.EndsAt
	switch edge {
	case inport.ResizeEdgeTop:
		newStart = appt.StartsAt.Add(delta)
	case inport.ResizeEdgeBottom:
		newEnd = appt.EndsAt.Add(delta)
	default:
		return nil, domain.NewValidationError(domain.CodeDurationOutOfRange, "unknown resize edge %q", edge)
	}
	session.Propose(newStart, newEnd)

	if err := ValidateDuration(newStart, newEnd); err != nil {
		session.Reject()
		s.logger.Info("reschedule.resize.rejected", out.LogFields{
			"appointmentId": id,
			"error":         err.Error(),
		})
		return nil, err
	}

	candidate := *appt
	candidate.StartsAt = newStart
	candidate.EndsAt = newEnd

	// Only a top-handle resize moves the anchor slot.
	if NeedsCapacityCheck(*appt, candidate) {
		if err := s.checkCapacity(ctx, candidate); err != nil {
			session.Reject()
			return nil, err
		}
	}

	if err := s.commit(ctx, session, candidate); err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (s *ScheduleGridService) commit(ctx context.Context, session *DragSession, candidate domain.Appointment) error {
	session.Committing()

	if err := s.updateAppointmentTime(ctx, candidate.ID, candidate.StartsAt, candidate.EndsAt); err != nil {
		session.Reject()
		s.logger.Error("reschedule.commit.failed", out.LogFields{
			"appointmentId": candidate.ID,
			"error":         err.Error(),
		})
		return err
	}
	session.Finish()

	s.logger.Info("reschedule.commit.ok", out.LogFields{
		"appointmentId": candidate.ID,
		"startsAt":      candidate.StartsAt,
		"endsAt":        candidate.EndsAt,
	})

	// Refetch, not merely invalidate: the grid must show what the server
	// accepted, guarding against drag jitter.
	if err := s.RefreshVisible(ctx); err != nil {
		s.logger.Warn("reschedule.refetch_failed", out.LogFields{
			"appointmentId": candidate.ID,
			"error":         err.Error(),
		})
	}
	return nil
}
