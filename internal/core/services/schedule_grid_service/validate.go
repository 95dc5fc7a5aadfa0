package schedule_grid_service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

const (
	// MaxAppointmentsPerSlot is the overbooking limit per doctor per
	// 15-minute slot. Exactly two concurrent bookings are allowed.
	MaxAppointmentsPerSlot = 2

	MinDurationMinutes = 15
	MaxDurationMinutes = 240
)

// ValidateDuration rejects geometry before any write attempt.
func ValidateDuration(startsAt, endsAt time.Time) error {
	if !endsAt.After(startsAt) {
		return domain.NewValidationError(domain.CodeEndBeforeStart,
			"appointment must end after it starts")
	}
	minutes := int(endsAt.Sub(startsAt).Minutes())
	if minutes < MinDurationMinutes || minutes > MaxDurationMinutes {
		return domain.NewValidationError(domain.CodeDurationOutOfRange,
			"duration of %d minutes is outside [%d, %d]", minutes, MinDurationMinutes, MaxDurationMinutes)
	}
	return nil
}

// NeedsCapacityCheck reports whether a mutation re-triggers the capacity
// rule: only when the start instant or the doctor assignment changes.
func NeedsCapacityCheck(before, after domain.Appointment) bool {
	if !before.StartsAt.Equal(after.StartsAt) {
		return true
	}
	switch {
	case before.DoctorID == nil && after.DoctorID == nil:
		return false
	case before.DoctorID == nil || after.DoctorID == nil:
		return true
	default:
		return *before.DoctorID != *after.DoctorID
	}
}

// CheckSlotCapacity enforces the per-doctor slot limit against the other
// appointments whose start falls inside the candidate's anchor slot. The
// candidate itself is excluded by id.
func CheckSlotCapacity(others []domain.Appointment, candidate domain.Appointment, slotStart time.Time) error {
	if candidate.DoctorID == nil {
		return nil
	}
	slotEnd := slotStart.Add(timegrid.SlotMinutes * time.Minute)

	count := 0
	for _, o := range others {
		if o.ID == candidate.ID {
			continue
		}
		if o.Status == domain.AppointmentStatusCancelada {
			continue
		}
		if o.DoctorID == nil || *o.DoctorID != *candidate.DoctorID {
			continue
		}
		if !o.StartsAt.Before(slotStart) && o.StartsAt.Before(slotEnd) {
			count++
		}
	}

	if count >= MaxAppointmentsPerSlot {
		return domain.NewValidationError(domain.CodeSlotFull,
			"doctor already has %d appointments in this slot", count)
	}
	return nil
}

// checkCapacity runs the slot rule against live data for the candidate's
// anchor slot.
func (s *ScheduleGridService) checkCapacity(ctx context.Context, candidate domain.Appointment) error {
	if !candidate.HasDoctor() {
		return nil
	}
	day, hour, minute, ok := s.clinic.SlotOf(candidate.StartsAt)
	if !ok {
		return nil
	}
	slotStart := s.clinic.ToAbsolute(day, hour, minute)

	dayEnd := day.AddDate(0, 0, 1)
	others, err := s.appointmentsInRange(ctx, candidate.BranchID, day, dayEnd, out.AppointmentFilters{
		DoctorIDs: []uuid.UUID{*candidate.DoctorID},
	})
	if err != nil {
		return err
	}
	return CheckSlotCapacity(others, candidate, slotStart)
}
