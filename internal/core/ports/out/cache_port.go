package out

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
)

// CachePort is the offline store: written only as a side effect of
// successful remote reads, read as the sole data path when the central
// database is pinned off or unreachable.
type CachePort interface {
	// Put upserts records by id and returns how many were written. It is
	// best effort: failures are logged, never raised.
	Put(ctx context.Context, records []domain.Appointment) int

	// GetByBranchAndDate returns every cached appointment whose StartsAt
	// falls on the given clinic-local date for the branch.
	GetByBranchAndDate(ctx context.Context, branchID uuid.UUID, date time.Time) ([]domain.Appointment, error)

	Get(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)

	Close() error
}
