package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
)

// AppointmentFilters narrows a range read. Empty slices mean "no filter".
type AppointmentFilters struct {
	DoctorIDs        []uuid.UUID
	Types            []domain.AppointmentType
	IncludeCancelled bool
}

// CentralPort is the authoritative store. Implementations classify
// transport failures as domain.UnreachableError so the router can tell a
// fallback-worthy failure from a validation rejection.
type CentralPort interface {
	FetchAppointments(ctx context.Context, branchID uuid.UUID, start, end time.Time, f AppointmentFilters) ([]domain.Appointment, error)
	FetchAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	FetchScheduleBlocks(ctx context.Context, branchID uuid.UUID, start, end time.Time) ([]domain.ScheduleBlock, error)

	// UpdateAppointmentTime commits both instants in one atomic update
	// and re-checks slot capacity server-side. A commit-time capacity
	// race surfaces as a slot_full validation error.
	UpdateAppointmentTime(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error
}
