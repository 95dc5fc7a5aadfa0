package domain

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusProgramada AppointmentStatus = "programada"
	AppointmentStatusConfirmada AppointmentStatus = "confirmada"
	AppointmentStatusEnEspera   AppointmentStatus = "en_espera"
	AppointmentStatusAtendida   AppointmentStatus = "atendida"
	AppointmentStatusCancelada  AppointmentStatus = "cancelada"
	AppointmentStatusNoAsistio  AppointmentStatus = "no_asistio"
)

type AppointmentType string

const (
	AppointmentTypeConsulta    AppointmentType = "consulta"
	AppointmentTypeSeguimiento AppointmentType = "seguimiento"
	AppointmentTypeEstudio     AppointmentType = "estudio"
	AppointmentTypeCirugia     AppointmentType = "cirugia"
)

// Appointment is the schedulable unit. Slot and conflict rules are always
// evaluated within a single branch, against either the doctor or the room
// lane. DoctorID is nil when the visit is attended by an external doctor.
type Appointment struct {
	ID             uuid.UUID         `json:"id"`
	BranchID       uuid.UUID         `json:"branchId"`
	PatientID      uuid.UUID         `json:"patientId"`
	DoctorID       *uuid.UUID        `json:"doctorId,omitempty"`
	RoomID         *uuid.UUID        `json:"roomId,omitempty"`
	ExternalDoctor string            `json:"externalDoctor,omitempty"`
	StartsAt       time.Time         `json:"startsAt"`
	EndsAt         time.Time         `json:"endsAt"`
	Type           AppointmentType   `json:"type"`
	Status         AppointmentStatus `json:"status"`
	IsCourtesy     bool              `json:"isCourtesy"`
	Reason         string            `json:"reason,omitempty"`
	ReceptionNotes string            `json:"receptionNotes,omitempty"`
}

func (a Appointment) Duration() time.Duration {
	return a.EndsAt.Sub(a.StartsAt)
}

// HasDoctor reports whether the appointment occupies a doctor lane. False
// for external-doctor visits and unassigned studies.
func (a Appointment) HasDoctor() bool {
	return a.DoctorID != nil
}
