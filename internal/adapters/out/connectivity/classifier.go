package connectivity

import (
	"sync/atomic"

	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
)

// Classifier holds the pinned connectivity mode. Readers sit on the grid
// hot path, so the mode is an atomic value rather than a mutex.
type Classifier struct {
	mode atomic.Value
}

func NewClassifier(initial out.Mode) *Classifier {
	c := &Classifier{}
	c.mode.Store(initial)
	return c
}

func (c *Classifier) Mode() out.Mode {
	return c.mode.Load().(out.Mode)
}

// Set repins the mode, e.g. from an operator toggle or a probe.
func (c *Classifier) Set(mode out.Mode) {
	c.mode.Store(mode)
}
