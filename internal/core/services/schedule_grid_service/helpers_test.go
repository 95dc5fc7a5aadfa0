package schedule_grid_service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/agenda-core/internal/config"
	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, out.LogFields)           {}
func (nopLogger) Info(string, out.LogFields)            {}
func (nopLogger) Warn(string, out.LogFields)            {}
func (nopLogger) Error(string, out.LogFields)           {}
func (l nopLogger) WithFields(out.LogFields) out.LoggerPort { return l }
func (l nopLogger) WithModule(string) out.LoggerPort        { return l }

type stubConnectivity struct {
	mu   sync.Mutex
	mode out.Mode
}

func (c *stubConnectivity) Mode() out.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *stubConnectivity) set(m out.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

type stubCentral struct {
	mu           sync.Mutex
	appointments []domain.Appointment
	blocks       []domain.ScheduleBlock
	fetchErr     error
	updateErr    error
	fetchCalls   int
	updateCalls  int
}

func (c *stubCentral) FetchAppointments(_ context.Context, branchID uuid.UUID, start, end time.Time, _ out.AppointmentFilters) ([]domain.Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchCalls++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	var result []domain.Appointment
	for _, a := range c.appointments {
		if a.BranchID == branchID && a.StartsAt.Before(end) && !a.StartsAt.Before(start) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (c *stubCentral) FetchAppointment(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	for _, a := range c.appointments {
		if a.ID == id {
			copied := a
			return &copied, nil
		}
	}
	return nil, domain.NewValidationError(domain.CodeNotFound, "appointment %s not found", id)
}

func (c *stubCentral) FetchScheduleBlocks(_ context.Context, branchID uuid.UUID, start, end time.Time) ([]domain.ScheduleBlock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	var result []domain.ScheduleBlock
	for _, b := range c.blocks {
		if b.BranchID == branchID && b.Overlaps(start, end) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (c *stubCentral) UpdateAppointmentTime(_ context.Context, id uuid.UUID, startsAt, endsAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCalls++
	if c.updateErr != nil {
		return c.updateErr
	}
	for i, a := range c.appointments {
		if a.ID == id {
			c.appointments[i].StartsAt = startsAt
			c.appointments[i].EndsAt = endsAt
			return nil
		}
	}
	return domain.NewValidationError(domain.CodeNotFound, "appointment %s not found", id)
}

func (c *stubCentral) appointment(id uuid.UUID) domain.Appointment {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.appointments {
		if a.ID == id {
			return a
		}
	}
	return domain.Appointment{}
}

type stubCache struct {
	mu      sync.Mutex
	clinic  timegrid.Clinic
	records map[uuid.UUID]domain.Appointment
	puts    int

	// when set, Put blocks until the channel is closed
	blockPut chan struct{}
}

func newStubCache(clinic timegrid.Clinic) *stubCache {
	return &stubCache{clinic: clinic, records: make(map[uuid.UUID]domain.Appointment)}
}

func (s *stubCache) Put(_ context.Context, records []domain.Appointment) int {
	if s.blockPut != nil {
		<-s.blockPut
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
	}
	s.puts++
	return len(records)
}

func (s *stubCache) GetByBranchAndDate(_ context.Context, branchID uuid.UUID, date time.Time) ([]domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Appointment
	for _, r := range s.records {
		if r.BranchID == branchID && s.clinic.DateOf(r.StartsAt).Equal(s.clinic.DateOf(date)) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (s *stubCache) Get(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, nil
}

func (s *stubCache) Close() error { return nil }

func (s *stubCache) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type testEnv struct {
	svc          *ScheduleGridService
	central      *stubCentral
	cache        *stubCache
	connectivity *stubConnectivity
	clinic       timegrid.Clinic
	cfg          *config.Config
	branchID     uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clinic, err := timegrid.New("America/Mexico_City")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Grid.PixelsPerMinute = 4
	cfg.Grid.DiagnosticRoomID = uuid.New()
	cfg.Grid.SurgeryRoomID = uuid.New()

	central := &stubCentral{}
	cache := newStubCache(clinic)
	connectivity := &stubConnectivity{mode: out.ModeOnline}

	svc := NewScheduleGridService(central, cache, connectivity, clinic, cfg, nopLogger{})

	return &testEnv{
		svc:          svc,
		central:      central,
		cache:        cache,
		connectivity: connectivity,
		clinic:       clinic,
		cfg:          cfg,
		branchID:     uuid.New(),
	}
}

// at builds an absolute instant for a clinic-local wall-clock coordinate
// on 2024-06-01 plus the given day offset.
func (e *testEnv) at(dayOffset, hour, minute int) time.Time {
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, e.clinic.Location()).AddDate(0, 0, dayOffset)
	return e.clinic.ToAbsolute(day, hour, minute)
}

func (e *testEnv) newAppointment(doctorID *uuid.UUID, start time.Time, minutes int) domain.Appointment {
	return domain.Appointment{
		ID:        uuid.New(),
		BranchID:  e.branchID,
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		StartsAt:  start,
		EndsAt:    start.Add(time.Duration(minutes) * time.Minute),
		Type:      domain.AppointmentTypeConsulta,
		Status:    domain.AppointmentStatusProgramada,
	}
}
