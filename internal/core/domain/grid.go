package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoleDiagnostico may open the grid with no doctors selected: the
// diagnostic room is their working lane.
const RoleDiagnostico = "diagnostico"

// SlotRef addresses one cell coordinate: a clinic-local day plus the
// wall-clock start of a 15-minute bucket.
type SlotRef struct {
	Day    time.Time `json:"day"`
	Hour   int       `json:"hour"`
	Minute int       `json:"minute"`
}

// GridRequest selects what a grid render shows. WeekOf may be any instant
// inside the desired week.
type GridRequest struct {
	BranchID       uuid.UUID
	WeekOf         time.Time
	DoctorIDs      []uuid.UUID
	ShowDiagnostic bool
	ShowSurgery    bool
	Role           string
}

// Cell is one (day, column, slot) coordinate with everything anchored or
// overlapping there. Appointments appear only in their anchor slot; blocks
// appear in every slot they overlap.
type Cell struct {
	Slot         SlotRef         `json:"slot"`
	Column       Column          `json:"column"`
	Appointments []Appointment   `json:"appointments,omitempty"`
	Blocks       []ScheduleBlock `json:"blocks,omitempty"`
}

// Grid is the rendered week: the Cartesian product of days, columns and
// slots, in row-major order (day, then column, then slot index).
type Grid struct {
	Days    []time.Time `json:"days"`
	Columns []Column    `json:"columns"`
	Cells   []Cell      `json:"cells"`

	// Empty marks the deliberate empty state: nothing selected and the
	// caller's role does not imply a default lane.
	Empty bool `json:"empty"`

	// NowOffsetUnits positions the current-time marker in slot-height
	// units; nil when the current time is outside the operating window.
	NowOffsetUnits *float64 `json:"nowOffsetUnits,omitempty"`

	slotsPerDay int
}

func NewGrid(days []time.Time, columns []Column, slotsPerDay int) *Grid {
	g := &Grid{
		Days:        days,
		Columns:     columns,
		Cells:       make([]Cell, len(days)*len(columns)*slotsPerDay),
		slotsPerDay: slotsPerDay,
	}
	return g
}

// Cell returns the addressable cell for (day index, column index, slot
// index), or nil when out of range.
func (g *Grid) Cell(dayIdx, colIdx, slotIdx int) *Cell {
	if dayIdx < 0 || dayIdx >= len(g.Days) ||
		colIdx < 0 || colIdx >= len(g.Columns) ||
		slotIdx < 0 || slotIdx >= g.slotsPerDay {
		return nil
	}
	return &g.Cells[(dayIdx*len(g.Columns)+colIdx)*g.slotsPerDay+slotIdx]
}
