package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleBlock is a closure window: structurally an appointment without a
// patient. A nil DoctorID and RoomID means the block applies to every
// column of its branch. Blocks may span several calendar days and are
// read-only from the scheduling core's perspective.
type ScheduleBlock struct {
	ID       uuid.UUID  `json:"id"`
	BranchID uuid.UUID  `json:"branchId"`
	DoctorID *uuid.UUID `json:"doctorId,omitempty"`
	RoomID   *uuid.UUID `json:"roomId,omitempty"`
	StartsAt time.Time  `json:"startsAt"`
	EndsAt   time.Time  `json:"endsAt"`
	Reason   string     `json:"reason,omitempty"`
}

// Overlaps reports whether the block intersects the half-open interval
// [start, end).
func (b ScheduleBlock) Overlaps(start, end time.Time) bool {
	return b.StartsAt.Before(end) && start.Before(b.EndsAt)
}

// AppliesTo reports whether the block lands on the given column. Blocks
// without a doctor or room cover every column.
func (b ScheduleBlock) AppliesTo(col Column) bool {
	if b.DoctorID == nil && b.RoomID == nil {
		return true
	}
	switch col.Kind {
	case ColumnKindDoctor:
		return b.DoctorID != nil && *b.DoctorID == col.DoctorID
	case ColumnKindRoom:
		return b.RoomID != nil && *b.RoomID == col.RoomID
	}
	return false
}
