package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type RoomKind string

const (
	RoomKindConsultorio RoomKind = "consultorio"
	RoomKindDiagnostico RoomKind = "diagnostico"
	RoomKindQuirofano   RoomKind = "quirofano"
)

type ColumnKind string

const (
	ColumnKindDoctor ColumnKind = "doctor"
	ColumnKindRoom   ColumnKind = "room"
)

// Column is a schedulable lane of the grid: a doctor or a room, never both.
// The explicit Kind tag replaces field-presence sniffing so slot matching
// can switch exhaustively.
type Column struct {
	Kind     ColumnKind `json:"kind"`
	DoctorID uuid.UUID  `json:"doctorId,omitempty"`
	RoomID   uuid.UUID  `json:"roomId,omitempty"`
	RoomKind RoomKind   `json:"roomKind,omitempty"`
}

func DoctorColumn(doctorID uuid.UUID) Column {
	return Column{Kind: ColumnKindDoctor, DoctorID: doctorID}
}

func RoomColumn(roomID uuid.UUID, kind RoomKind) Column {
	return Column{Kind: ColumnKindRoom, RoomID: roomID, RoomKind: kind}
}

// Key is a stable identifier for map lookups and logging.
func (c Column) Key() string {
	if c.Kind == ColumnKindDoctor {
		return fmt.Sprintf("doctor:%s", c.DoctorID)
	}
	return fmt.Sprintf("room:%s:%s", c.RoomKind, c.RoomID)
}

// Matches reports whether the appointment is anchored to this column,
// ignoring time. Unassigned studies surface in the diagnostic room and
// unassigned surgeries in the operating room, so they are never invisible.
func (c Column) Matches(a Appointment) bool {
	switch c.Kind {
	case ColumnKindDoctor:
		return a.DoctorID != nil && *a.DoctorID == c.DoctorID
	case ColumnKindRoom:
		switch c.RoomKind {
		case RoomKindDiagnostico:
			return a.Type == AppointmentTypeEstudio &&
				(a.RoomID == nil || *a.RoomID == c.RoomID)
		case RoomKindQuirofano:
			return a.Type == AppointmentTypeCirugia &&
				(a.RoomID == nil || *a.RoomID == c.RoomID)
		default:
			return a.RoomID != nil && *a.RoomID == c.RoomID
		}
	}
	return false
}
