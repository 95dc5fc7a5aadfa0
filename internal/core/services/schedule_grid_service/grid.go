package schedule_grid_service

import (
	"context"
	"time"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

// BuildGrid projects appointments and schedule blocks onto the
// (day x column x slot) product for one week.
func (s *ScheduleGridService) BuildGrid(ctx context.Context, req domain.GridRequest) (*domain.Grid, error) {
	columns := s.resolveColumns(req)
	if len(columns) == 0 {
		// Deliberate empty state: nothing selected, no implied lane. A
		// silently empty grid would be indistinguishable from "no
		// appointments".
		s.logger.Info("grid.empty_state", out.LogFields{
			"branchId": req.BranchID,
			"role":     req.Role,
		})
		return &domain.Grid{Empty: true}, nil
	}

	s.rememberRequest(req)

	weekStart := s.clinic.StartOfWeek(req.WeekOf)
	weekEnd := s.clinic.EndOfWeek(req.WeekOf)

	days := make([]time.Time, 0, 7)
	for d := weekStart; d.Before(weekEnd); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	appointments, err := s.appointmentsInRange(ctx, req.BranchID, weekStart, weekEnd, out.AppointmentFilters{})
	if err != nil {
		return nil, err
	}
	blocks := s.scheduleBlocksInRange(ctx, req.BranchID, weekStart, weekEnd)

	grid := domain.NewGrid(days, columns, timegrid.SlotsPerDay)
	s.initCells(grid, days, columns)
	s.assignAppointments(grid, days, columns, appointments)
	s.assignBlocks(grid, days, columns, blocks)

	if offset, ok := s.clinic.NowOffsetUnits(s.now()); ok {
		grid.NowOffsetUnits = &offset
	}

	s.logger.Debug("grid.built", out.LogFields{
		"branchId":     req.BranchID,
		"columns":      len(columns),
		"appointments": len(appointments),
		"blocks":       len(blocks),
	})
	return grid, nil
}

func (s *ScheduleGridService) resolveColumns(req domain.GridRequest) []domain.Column {
	columns := make([]domain.Column, 0, len(req.DoctorIDs)+2)
	for _, id := range req.DoctorIDs {
		columns = append(columns, domain.DoctorColumn(id))
	}

	showDiagnostic := req.ShowDiagnostic
	// The diagnostic role always gets its lane, even with nothing else
	// selected.
	if len(columns) == 0 && req.Role == domain.RoleDiagnostico {
		showDiagnostic = true
	}

	if showDiagnostic {
		columns = append(columns, domain.RoomColumn(s.cfg.Grid.DiagnosticRoomID, domain.RoomKindDiagnostico))
	}
	if req.ShowSurgery {
		columns = append(columns, domain.RoomColumn(s.cfg.Grid.SurgeryRoomID, domain.RoomKindQuirofano))
	}
	return columns
}

func (s *ScheduleGridService) initCells(grid *domain.Grid, days []time.Time, columns []domain.Column) {
	for di, day := range days {
		for ci, col := range columns {
			for slot := 0; slot < timegrid.SlotsPerDay; slot++ {
				hour := timegrid.OpeningHour + slot*timegrid.SlotMinutes/60
				minute := slot * timegrid.SlotMinutes % 60
				cell := grid.Cell(di, ci, slot)
				cell.Slot = domain.SlotRef{Day: day, Hour: hour, Minute: minute}
				cell.Column = col
			}
		}
	}
}

func (s *ScheduleGridService) assignAppointments(grid *domain.Grid, days []time.Time, columns []domain.Column, appointments []domain.Appointment) {
	dayIdx := make(map[time.Time]int, len(days))
	for i, d := range days {
		dayIdx[d] = i
	}

	for _, a := range appointments {
		day, hour, minute, ok := s.clinic.SlotOf(a.StartsAt)
		if !ok {
			continue
		}
		di, ok := dayIdx[day]
		if !ok {
			continue
		}
		slot := timegrid.SlotIndex(hour, minute)
		for ci, col := range columns {
			if col.Matches(a) {
				cell := grid.Cell(di, ci, slot)
				cell.Appointments = append(cell.Appointments, a)
			}
		}
	}
}

func (s *ScheduleGridService) assignBlocks(grid *domain.Grid, days []time.Time, columns []domain.Column, blocks []domain.ScheduleBlock) {
	for _, b := range blocks {
		for di, day := range days {
			for slot := 0; slot < timegrid.SlotsPerDay; slot++ {
				hour := timegrid.OpeningHour + slot*timegrid.SlotMinutes/60
				minute := slot * timegrid.SlotMinutes % 60
				slotStart := s.clinic.ToAbsolute(day, hour, minute)
				slotEnd := slotStart.Add(timegrid.SlotMinutes * time.Minute)
				if !b.Overlaps(slotStart, slotEnd) {
					continue
				}
				for ci, col := range columns {
					if b.AppliesTo(col) {
						cell := grid.Cell(di, ci, slot)
						cell.Blocks = append(cell.Blocks, b)
					}
				}
			}
		}
	}
}
