package timegrid

import (
	"fmt"
	"math"
	"time"
)

// The grid is addressed in 15-minute buckets between opening and closing,
// in clinic-local wall-clock time. Persistence and comparisons stay in
// absolute instants.
const (
	SlotMinutes = 15
	OpeningHour = 7
	ClosingHour = 20

	SlotsPerDay = (ClosingHour - OpeningHour) * 60 / SlotMinutes
)

// Clinic projects instants into the clinic's fixed operating timezone,
// regardless of the timezone of the machine running the process.
type Clinic struct {
	loc *time.Location
}

func New(timezone string) (Clinic, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Clinic{}, fmt.Errorf("timegrid: load location %q: %w", timezone, err)
	}
	return Clinic{loc: loc}, nil
}

func (c Clinic) Location() *time.Location {
	return c.loc
}

func (c Clinic) ToClinicLocal(t time.Time) time.Time {
	return t.In(c.loc)
}

// ToAbsolute is the inverse of slot bucketing: it rebuilds the absolute
// instant for a clinic-local (day, hour, minute) coordinate. day may carry
// any clock time; only its clinic-local calendar date is used.
func (c Clinic) ToAbsolute(day time.Time, hour, minute int) time.Time {
	d := c.ToClinicLocal(day)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, c.loc)
}

// DateOf returns clinic-local midnight of the day containing t.
func (c Clinic) DateOf(t time.Time) time.Time {
	d := c.ToClinicLocal(t)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, c.loc)
}

// StartOfWeek returns clinic-local midnight of the Monday of the week
// containing t.
func (c Clinic) StartOfWeek(t time.Time) time.Time {
	d := c.DateOf(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func (c Clinic) EndOfWeek(t time.Time) time.Time {
	return c.StartOfWeek(t).AddDate(0, 0, 7)
}

// SlotOf buckets an instant into its anchor slot: the clinic-local day plus
// the hour/minute of the 15-minute bucket containing it. ok is false when
// the instant falls outside the operating window.
func (c Clinic) SlotOf(t time.Time) (day time.Time, hour, minute int, ok bool) {
	local := c.ToClinicLocal(t)
	hour = local.Hour()
	if hour < OpeningHour || hour >= ClosingHour {
		return time.Time{}, 0, 0, false
	}
	minute = local.Minute() - local.Minute()%SlotMinutes
	return c.DateOf(local), hour, minute, true
}

// SlotIndex maps (hour, minute) onto [0, SlotsPerDay). Callers pass
// coordinates already validated by SlotOf.
func SlotIndex(hour, minute int) int {
	return (hour-OpeningHour)*60/SlotMinutes + minute/SlotMinutes
}

func (c Clinic) WithinOperatingWindow(t time.Time) bool {
	h := c.ToClinicLocal(t).Hour()
	return h >= OpeningHour && h < ClosingHour
}

// ValidSlot reports whether (hour, minute) addresses a grid slot: aligned
// to the slot granularity and inside the operating window.
func ValidSlot(hour, minute int) bool {
	if hour < OpeningHour || hour >= ClosingHour {
		return false
	}
	return minute >= 0 && minute < 60 && minute%SlotMinutes == 0
}

// SnapMinutes rounds a minute delta to the nearest slot boundary.
func SnapMinutes(minutes int) int {
	return int(math.Round(float64(minutes)/SlotMinutes)) * SlotMinutes
}

// SnapPixels converts a pixel drag to a minute delta snapped to the
// nearest slot boundary. The division stays in float until the snap, so a
// midpoint drag (half a slot worth of pixels) rounds up rather than
// truncating to zero.
func SnapPixels(deltaPx, pixelsPerMinute int) int {
	return int(math.Round(float64(deltaPx)/float64(pixelsPerMinute)/SlotMinutes)) * SlotMinutes
}

// HeightUnits is the number of slot heights an interval spans visually:
// 15 minutes is exactly one unit, 60 minutes exactly four.
func HeightUnits(d time.Duration) int {
	return int(math.Ceil(d.Minutes() / SlotMinutes))
}

// NowOffsetUnits positions the current-time indicator in slot-height units
// from the top of the grid. ok is false outside the operating window, in
// which case the indicator is not rendered at all.
func (c Clinic) NowOffsetUnits(now time.Time) (float64, bool) {
	local := c.ToClinicLocal(now)
	if local.Hour() < OpeningHour || local.Hour() >= ClosingHour {
		return 0, false
	}
	minutes := (local.Hour()-OpeningHour)*60 + local.Minute()
	return float64(minutes) / SlotMinutes, true
}
