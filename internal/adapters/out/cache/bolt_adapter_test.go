package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, out.LogFields)               {}
func (nopLogger) Info(string, out.LogFields)                {}
func (nopLogger) Warn(string, out.LogFields)                {}
func (nopLogger) Error(string, out.LogFields)               {}
func (l nopLogger) WithFields(out.LogFields) out.LoggerPort { return l }
func (l nopLogger) WithModule(string) out.LoggerPort        { return l }

func newTestAdapter(t *testing.T) *BoltAdapter {
	t.Helper()

	clinic, err := timegrid.New("America/Mexico_City")
	require.NoError(t, err)

	adapter, err := NewBoltAdapter(filepath.Join(t.TempDir(), "agenda.db"), 16, clinic, nopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return adapter
}

func newCachedAppointment(branchID uuid.UUID, startsAt time.Time) domain.Appointment {
	return domain.Appointment{
		ID:        uuid.New(),
		BranchID:  branchID,
		PatientID: uuid.New(),
		StartsAt:  startsAt,
		EndsAt:    startsAt.Add(30 * time.Minute),
		Type:      domain.AppointmentTypeConsulta,
		Status:    domain.AppointmentStatusProgramada,
	}
}

func TestPutAndGetByBranchAndDate(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	branchID := uuid.New()
	day := time.Date(2024, 6, 1, 9, 0, 0, 0, adapter.clinic.Location())

	records := []domain.Appointment{
		newCachedAppointment(branchID, day),
		newCachedAppointment(branchID, day.Add(2*time.Hour)),
		newCachedAppointment(branchID, day.AddDate(0, 0, 1)), // next day
		newCachedAppointment(uuid.New(), day),                // other branch
	}
	assert.Equal(t, 4, adapter.Put(ctx, records))

	got, err := adapter.GetByBranchAndDate(ctx, branchID, day)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, branchID, a.BranchID)
	}
}

func TestClinicLocalDateBoundary(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	branchID := uuid.New()
	// 01:30 UTC on June 2nd is still the evening of June 1st in the
	// clinic's timezone, so the record must land on the June 1st day.
	record := newCachedAppointment(branchID, time.Date(2024, 6, 2, 1, 30, 0, 0, time.UTC))
	require.Equal(t, 1, adapter.Put(ctx, []domain.Appointment{record}))

	clinicDay := time.Date(2024, 6, 1, 0, 0, 0, 0, adapter.clinic.Location())
	got, err := adapter.GetByBranchAndDate(ctx, branchID, clinicDay)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, record.ID, got[0].ID)

	utcDay := time.Date(2024, 6, 2, 0, 0, 0, 0, adapter.clinic.Location())
	got, err = adapter.GetByBranchAndDate(ctx, branchID, utcDay)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPutIsUpsert(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	branchID := uuid.New()
	day := time.Date(2024, 6, 1, 10, 0, 0, 0, adapter.clinic.Location())
	record := newCachedAppointment(branchID, day)
	require.Equal(t, 1, adapter.Put(ctx, []domain.Appointment{record}))

	record.Status = domain.AppointmentStatusConfirmada
	require.Equal(t, 1, adapter.Put(ctx, []domain.Appointment{record}))

	got, err := adapter.GetByBranchAndDate(ctx, branchID, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.AppointmentStatusConfirmada, got[0].Status)
}

func TestReindexAfterMoveAcrossDays(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	branchID := uuid.New()
	day := time.Date(2024, 6, 1, 10, 0, 0, 0, adapter.clinic.Location())
	record := newCachedAppointment(branchID, day)
	require.Equal(t, 1, adapter.Put(ctx, []domain.Appointment{record}))

	// Warm the hot layer for the original day, then move the record.
	_, err := adapter.GetByBranchAndDate(ctx, branchID, day)
	require.NoError(t, err)

	record.StartsAt = day.AddDate(0, 0, 2)
	record.EndsAt = record.StartsAt.Add(30 * time.Minute)
	require.Equal(t, 1, adapter.Put(ctx, []domain.Appointment{record}))

	got, err := adapter.GetByBranchAndDate(ctx, branchID, day)
	require.NoError(t, err)
	assert.Empty(t, got, "stale index entry must not resurrect the moved record")

	got, err = adapter.GetByBranchAndDate(ctx, branchID, record.StartsAt)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, record.ID, got[0].ID)
}

func TestGetByID(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	record := newCachedAppointment(uuid.New(), time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.Equal(t, 1, adapter.Put(ctx, []domain.Appointment{record}))

	got, err := adapter.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = adapter.Get(ctx, uuid.New())
	ve, ok := domain.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeNotFound, ve.Code)
}

func TestSurvivesReopen(t *testing.T) {
	clinic, err := timegrid.New("America/Mexico_City")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "agenda.db")

	branchID := uuid.New()
	day := time.Date(2024, 6, 1, 9, 0, 0, 0, clinic.Location())
	record := newCachedAppointment(branchID, day)

	adapter, err := NewBoltAdapter(path, 16, clinic, nopLogger{})
	require.NoError(t, err)
	require.Equal(t, 1, adapter.Put(context.Background(), []domain.Appointment{record}))
	require.NoError(t, adapter.Close())

	reopened, err := NewBoltAdapter(path, 16, clinic, nopLogger{})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByBranchAndDate(context.Background(), branchID, day)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, record.ID, got[0].ID)
}
