package in

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
)

type ResizeEdge string

const (
	ResizeEdgeTop    ResizeEdge = "top"
	ResizeEdgeBottom ResizeEdge = "bottom"
)

type ScheduleGridUseCase interface {
	// BuildGrid renders the week view described by the request.
	BuildGrid(ctx context.Context, req domain.GridRequest) (*domain.Grid, error)

	// MoveAppointment drops an appointment onto a new slot, preserving
	// its duration exactly.
	MoveAppointment(ctx context.Context, id uuid.UUID, target domain.SlotRef) (*domain.Appointment, error)

	// ResizeAppointment converts a pointer drag on one edge into a new
	// duration, snapped to the slot granularity.
	ResizeAppointment(ctx context.Context, id uuid.UUID, edge ResizeEdge, deltaPx int) (*domain.Appointment, error)

	// RefreshVisible refetches the most recently viewed window, re-priming
	// the cache through the ordinary read path.
	RefreshVisible(ctx context.Context) error
}
