package central

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
)

// Querier is the slice of pgxpool the adapter uses; pgxmock satisfies it
// in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgAdapter implements CentralPort against the central Postgres database.
// Failures the server itself reports stay validation-shaped; everything
// else (dial, timeout, broken connection) is classified network-class so
// the router can fall back to the cache.
type PgAdapter struct {
	db     Querier
	logger out.LoggerPort
}

func NewPgAdapter(db Querier, logger out.LoggerPort) *PgAdapter {
	return &PgAdapter{
		db:     db,
		logger: logger.WithModule("PgAdapter"),
	}
}

func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("central: parse postgres url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnLifetime = 30 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

const appointmentColumns = `id, branch_id, patient_id, doctor_id, room_id, external_doctor,
		starts_at, ends_at, type, status, is_courtesy, reason, reception_notes`

func (a *PgAdapter) FetchAppointments(ctx context.Context, branchID uuid.UUID, start, end time.Time, f out.AppointmentFilters) ([]domain.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE branch_id = $1 AND starts_at >= $2 AND starts_at < $3`
	args := []any{branchID, start, end}

	if !f.IncludeCancelled {
		query += ` AND status <> 'cancelada'`
	}
	if len(f.DoctorIDs) > 0 {
		args = append(args, f.DoctorIDs)
		query += fmt.Sprintf(` AND doctor_id = ANY($%d)`, len(args))
	}
	if len(f.Types) > 0 {
		args = append(args, f.Types)
		query += fmt.Sprintf(` AND type = ANY($%d)`, len(args))
	}
	query += ` ORDER BY starts_at`

	rows, err := a.db.Query(ctx, query, args...)
	if err != nil {
		return nil, a.classify("appointments.fetch", err)
	}
	defer rows.Close()

	var result []domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("central: scan appointment: %w", err)
		}
		result = append(result, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, a.classify("appointments.fetch", err)
	}

	a.logger.Debug("central.appointments.fetched", out.LogFields{
		"branchId": branchID,
		"count":    len(result),
	})
	return result, nil
}

func (a *PgAdapter) FetchAppointment(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	row := a.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1`, id)

	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewValidationError(domain.CodeNotFound, "appointment %s not found", id)
		}
		return nil, a.classify("appointment.fetch", err)
	}
	return &appt, nil
}

func (a *PgAdapter) FetchScheduleBlocks(ctx context.Context, branchID uuid.UUID, start, end time.Time) ([]domain.ScheduleBlock, error) {
	rows, err := a.db.Query(ctx, `
		SELECT id, branch_id, doctor_id, room_id, starts_at, ends_at, reason
		FROM schedule_blocks
		WHERE branch_id = $1 AND starts_at < $3 AND ends_at > $2
		ORDER BY starts_at`, branchID, start, end)
	if err != nil {
		return nil, a.classify("blocks.fetch", err)
	}
	defer rows.Close()

	var result []domain.ScheduleBlock
	for rows.Next() {
		var b domain.ScheduleBlock
		var reason *string
		if err := rows.Scan(&b.ID, &b.BranchID, &b.DoctorID, &b.RoomID, &b.StartsAt, &b.EndsAt, &reason); err != nil {
			return nil, fmt.Errorf("central: scan schedule block: %w", err)
		}
		if reason != nil {
			b.Reason = *reason
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, a.classify("blocks.fetch", err)
	}
	return result, nil
}

// UpdateAppointmentTime commits both instants in one statement. The
// capacity guard is repeated inside the UPDATE so two near-simultaneous
// movers cannot both land in a full slot: the loser sees slot_full.
func (a *PgAdapter) UpdateAppointmentTime(ctx context.Context, id uuid.UUID, startsAt, endsAt time.Time) error {
	tag, err := a.db.Exec(ctx, `
		UPDATE appointments a
		SET starts_at = $2, ends_at = $3, updated_at = now()
		WHERE a.id = $1
		  AND (a.doctor_id IS NULL OR (
			SELECT count(*) FROM appointments o
			WHERE o.doctor_id = a.doctor_id
			  AND o.id <> a.id
			  AND o.status <> 'cancelada'
			  AND o.starts_at >= date_bin('15 minutes', $2::timestamptz, timestamptz 'epoch')
			  AND o.starts_at < date_bin('15 minutes', $2::timestamptz, timestamptz 'epoch') + interval '15 minutes'
		  ) < 2)`, id, startsAt, endsAt)
	if err != nil {
		return a.classify("appointment.update_time", err)
	}
	if tag.RowsAffected() > 0 {
		a.logger.Info("central.appointment.time_updated", out.LogFields{
			"appointmentId": id,
			"startsAt":      startsAt,
			"endsAt":        endsAt,
		})
		return nil
	}

	// Nothing updated: either the row is gone or the guard refused it.
	var exists bool
	err = a.db.QueryRow(ctx, `SELECT true FROM appointments WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewValidationError(domain.CodeNotFound, "appointment %s not found", id)
	}
	if err != nil {
		return a.classify("appointment.update_time", err)
	}
	return domain.NewValidationError(domain.CodeSlotFull, "slot became full")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row scanner) (domain.Appointment, error) {
	var a domain.Appointment
	var externalDoctor, reason, notes *string
	err := row.Scan(
		&a.ID, &a.BranchID, &a.PatientID, &a.DoctorID, &a.RoomID, &externalDoctor,
		&a.StartsAt, &a.EndsAt, &a.Type, &a.Status, &a.IsCourtesy, &reason, &notes,
	)
	if err != nil {
		return domain.Appointment{}, err
	}
	if externalDoctor != nil {
		a.ExternalDoctor = *externalDoctor
	}
	if reason != nil {
		a.Reason = *reason
	}
	if notes != nil {
		a.ReceptionNotes = *notes
	}
	return a, nil
}

// classify separates server-reported failures from transport failures.
// A PgError means the database answered; anything else means we could not
// reach it, which the router treats as fallback-worthy.
func (a *PgAdapter) classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		a.logger.Error("central.query_failed", out.LogFields{
			"op":    op,
			"code":  pgErr.Code,
			"error": pgErr.Message,
		})
		return fmt.Errorf("central %s: %w", op, err)
	}
	a.logger.Warn("central.unreachable", out.LogFields{
		"op":    op,
		"error": err.Error(),
	})
	return domain.NewUnreachableError(op, err)
}
