package schedule_grid_service

import (
	"fmt"
	"time"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
)

type SessionState string

const (
	SessionIdle       SessionState = "idle"
	SessionDragging   SessionState = "dragging"
	SessionResizing   SessionState = "resizing"
	SessionCommitting SessionState = "committing"
)

// Geometry is the visual extent of an appointment: the pair of instants a
// drag or resize manipulates.
type Geometry struct {
	StartsAt time.Time
	EndsAt   time.Time
}

// DragSession is the single-owner state machine behind a drag or resize
// interaction. It remembers the pre-interaction geometry so any rejection
// or failed commit reverts to the last committed extent; a commit is all
// or nothing, never a partial instant update.
type DragSession struct {
	state     SessionState
	original  Geometry
	proposed  Geometry
	committed bool
}

func NewDragSession(a domain.Appointment) *DragSession {
	g := Geometry{StartsAt: a.StartsAt, EndsAt: a.EndsAt}
	return &DragSession{state: SessionIdle, original: g, proposed: g}
}

func (d *DragSession) State() SessionState {
	return d.state
}

func (d *DragSession) BeginDrag() error {
	return d.begin(SessionDragging)
}

func (d *DragSession) BeginResize() error {
	return d.begin(SessionResizing)
}

func (d *DragSession) begin(next SessionState) error {
	if d.state != SessionIdle {
		return fmt.Errorf("drag session: cannot start %s from %s", next, d.state)
	}
	d.state = next
	return nil
}

// Propose records the geometry the pointer is currently suggesting. It has
// no effect on the committed geometry until Finish.
func (d *DragSession) Propose(startsAt, endsAt time.Time) {
	d.proposed = Geometry{StartsAt: startsAt, EndsAt: endsAt}
}

func (d *DragSession) Committing() {
	d.state = SessionCommitting
}

// Finish completes a successful commit: the proposed geometry becomes the
// committed one and the session returns to idle.
func (d *DragSession) Finish() {
	d.committed = true
	d.state = SessionIdle
}

// Reject abandons the interaction: validation failure, failed commit or
// cancellation. The session returns to idle with the original geometry.
func (d *DragSession) Reject() {
	d.proposed = d.original
	d.state = SessionIdle
}

// Cancel is a pointer-up outside a valid target or an explicit escape.
func (d *DragSession) Cancel() {
	d.Reject()
}

// Geometry is what the element should render: the proposal after a
// successful commit, the original extent otherwise.
func (d *DragSession) Geometry() Geometry {
	if d.committed {
		return d.proposed
	}
	return d.original
}
