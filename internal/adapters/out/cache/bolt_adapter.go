package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/clinicdesk/agenda-core/internal/core/domain"
	"github.com/clinicdesk/agenda-core/internal/core/ports/out"
	"github.com/clinicdesk/agenda-core/internal/timegrid"
)

var (
	bucketAppointments = []byte("appointments")
	bucketByBranchDate = []byte("by_branch_date")
)

const dateKeyLayout = "2006-01-02"

// BoltAdapter persists appointments in a single bbolt file so the agenda
// keeps rendering after the central database goes away. A small lru front
// cache keeps the hot branch/day reads off disk; it is invalidated on
// every Put for the days the write touches.
type BoltAdapter struct {
	db     *bbolt.DB
	hot    *lru.Cache[string, []domain.Appointment]
	clinic timegrid.Clinic
	logger out.LoggerPort
}

func NewBoltAdapter(path string, hotSize int, clinic timegrid.Clinic, logger out.LoggerPort) (*BoltAdapter, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAppointments); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketByBranchDate)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: init buckets: %w", err)
	}

	hot, err := lru.New[string, []domain.Appointment](hotSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltAdapter{
		db:     db,
		hot:    hot,
		clinic: clinic,
		logger: logger.WithModule("BoltAdapter"),
	}, nil
}

func (b *BoltAdapter) dayKey(branchID uuid.UUID, date time.Time) string {
	return branchID.String() + "|" + b.clinic.DateOf(date).Format(dateKeyLayout)
}

func indexKey(dayKey string, id uuid.UUID) []byte {
	return []byte(dayKey + "|" + id.String())
}

// Put upserts the records by id and reindexes them under their clinic-local
// date. A record that moved to another day loses its old index entry, so a
// later day read cannot resurrect the stale copy.
func (b *BoltAdapter) Put(ctx context.Context, records []domain.Appointment) int {
	if len(records) == 0 {
		return 0
	}

	written := 0
	touched := make(map[string]struct{})

	err := b.db.Update(func(tx *bbolt.Tx) error {
		appts := tx.Bucket(bucketAppointments)
		index := tx.Bucket(bucketByBranchDate)

		for _, record := range records {
			id := record.ID[:]

			if prev := appts.Get(id); prev != nil {
				var old domain.Appointment
				if err := json.Unmarshal(prev, &old); err == nil {
					oldKey := b.dayKey(old.BranchID, old.StartsAt)
					if err := index.Delete(indexKey(oldKey, old.ID)); err != nil {
						return err
					}
					touched[oldKey] = struct{}{}
				}
			}

			encoded, err := json.Marshal(record)
			if err != nil {
				b.logger.Error("cache.appointments.encode_failed", out.LogFields{
					"appointmentId": record.ID,
					"error":         err.Error(),
				})
				continue
			}
			if err := appts.Put(id, encoded); err != nil {
				return err
			}

			newKey := b.dayKey(record.BranchID, record.StartsAt)
			if err := index.Put(indexKey(newKey, record.ID), nil); err != nil {
				return err
			}
			touched[newKey] = struct{}{}
			written++
		}
		return nil
	})
	if err != nil {
		b.logger.Error("cache.appointments.store_failed", out.LogFields{
			"count": len(records),
			"error": err.Error(),
		})
		return 0
	}

	for key := range touched {
		b.hot.Remove(key)
	}

	b.logger.Debug("cache.appointments.store", out.LogFields{
		"count": written,
		"days":  len(touched),
	})
	return written
}

func (b *BoltAdapter) GetByBranchAndDate(ctx context.Context, branchID uuid.UUID, date time.Time) ([]domain.Appointment, error) {
	key := b.dayKey(branchID, date)

	if cached, ok := b.hot.Get(key); ok {
		result := make([]domain.Appointment, len(cached))
		copy(result, cached)
		return result, nil
	}

	var result []domain.Appointment
	err := b.db.View(func(tx *bbolt.Tx) error {
		appts := tx.Bucket(bucketAppointments)
		cursor := tx.Bucket(bucketByBranchDate).Cursor()

		prefix := []byte(key + "|")
		for k, _ := cursor.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = cursor.Next() {
			id, err := uuid.Parse(string(k[len(prefix):]))
			if err != nil {
				continue
			}
			raw := appts.Get(id[:])
			if raw == nil {
				continue
			}
			var a domain.Appointment
			if err := json.Unmarshal(raw, &a); err != nil {
				b.logger.Warn("cache.appointments.decode_failed", out.LogFields{
					"appointmentId": id,
					"error":         err.Error(),
				})
				continue
			}
			result = append(result, a)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", key, err)
	}

	snapshot := make([]domain.Appointment, len(result))
	copy(snapshot, result)
	b.hot.Add(key, snapshot)

	return result, nil
}

func (b *BoltAdapter) Get(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	var found *domain.Appointment
	err := b.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketAppointments).Get(id[:])
		if raw == nil {
			return nil
		}
		var a domain.Appointment
		if err := json.Unmarshal(raw, &a); err != nil {
			return fmt.Errorf("cache: decode %s: %w", id, err)
		}
		found = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, domain.NewValidationError(domain.CodeNotFound, "appointment %s not cached", id)
	}
	return found, nil
}

func (b *BoltAdapter) Close() error {
	return b.db.Close()
}
