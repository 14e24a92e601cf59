package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Singh4599/techno-sapiens/internal/model"
)

type pgRegistrationRepository struct {
	db *gorm.DB
}

func NewPGRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &pgRegistrationRepository{db: db}
}

// Register serialises concurrent attempts for the same event by locking the
// event row for the duration of the transaction, then re-checks the open
// flag, the duplicate rule and the capacity rule before inserting. The
// insert itself is conditioned on the live non-cancelled count so the seat
// limit holds even if the lock is ever weakened; the partial unique index
// on (event_id, user_id) backs the duplicate rule the same way.
func (r *pgRegistrationRepository) Register(ctx context.Context, reg *model.Registration, members []model.TeamMember) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Event{})
		// SQLite (tests) allows a single writer per database and rejects
		// the FOR UPDATE syntax, so the row lock is Postgres-only.
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var event model.Event
		if err := q.First(&event, "id = ?", reg.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		if !event.RegistrationOpen {
			return ErrEventClosed
		}

		var dup int64
		if err := tx.Model(&model.Registration{}).
			Where("event_id = ? AND user_id = ? AND status <> ?", event.ID, reg.UserID, model.RegistrationCancelled).
			Count(&dup).Error; err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if dup > 0 {
			return ErrAlreadyRegistered
		}

		if reg.ID == uuid.Nil {
			reg.ID = uuid.New()
		}
		now := time.Now().UTC()
		reg.CreatedAt = now
		reg.UpdatedAt = now

		res := tx.Exec(`
			INSERT INTO registrations
				(id, event_id, user_id, team_name, team_size, status, payment_status, amount, created_at, updated_at)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
			WHERE (SELECT COUNT(*) FROM registrations
				WHERE event_id = ? AND status <> ? AND deleted_at IS NULL) < ?`,
			reg.ID, reg.EventID, reg.UserID, reg.TeamName, reg.TeamSize,
			reg.Status, reg.PaymentStatus, reg.Amount, reg.CreatedAt, reg.UpdatedAt,
			reg.EventID, model.RegistrationCancelled, event.MaxParticipants,
		)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrEventFull
		}

		for i := range members {
			members[i].RegistrationID = reg.ID
		}
		if len(members) > 0 {
			if err := tx.Create(&members).Error; err != nil {
				return fmt.Errorf("insert team members: %w", err)
			}
		}
		reg.Members = members
		return nil
	})
}

func (r *pgRegistrationRepository) CountActive(ctx context.Context, eventID uuid.UUID) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("event_id = ? AND status <> ?", eventID, model.RegistrationCancelled).
		Count(&n).Error
	return int(n), err
}

func (r *pgRegistrationRepository) ActiveForUser(ctx context.Context, eventID, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("event_id = ? AND user_id = ? AND status <> ?", eventID, userID, model.RegistrationCancelled).
		Count(&n).Error
	return n > 0, err
}

func (r *pgRegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Registration, error) {
	var reg model.Registration
	if err := r.db.WithContext(ctx).Preload("Members").First(&reg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &reg, nil
}

func (r *pgRegistrationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Registration, error) {
	var regs []model.Registration
	err := r.db.WithContext(ctx).
		Preload("Event").Preload("Members").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *pgRegistrationRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]model.Registration, error) {
	var regs []model.Registration
	err := r.db.WithContext(ctx).
		Preload("Members").
		Where("event_id = ?", eventID).
		Order("created_at asc").
		Find(&regs).Error
	if err != nil {
		return nil, err
	}
	return regs, nil
}

func (r *pgRegistrationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.RegistrationStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (r *pgRegistrationRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Registration{}).
		Where("id = ? AND payment_status = ?", id, from).
		Update("payment_status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (r *pgRegistrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Registration{}, "id = ?", id).Error
}
