package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// CanTransitionTo reports whether the lifecycle permits moving to next.
// Allowed: pending->confirmed, pending->cancelled, confirmed->cancelled.
func (s RegistrationStatus) CanTransitionTo(next RegistrationStatus) bool {
	switch s {
	case RegistrationPending:
		return next == RegistrationConfirmed || next == RegistrationCancelled
	case RegistrationConfirmed:
		return next == RegistrationCancelled
	default:
		return false
	}
}

// Counts reports whether a registration in this status occupies a seat.
func (s RegistrationStatus) Counts() bool {
	return s != RegistrationCancelled
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFree     PaymentStatus = "free"
	PaymentRefunded PaymentStatus = "refunded"
)

// CanTransitionTo reports whether the payment lifecycle permits moving to
// next. Allowed: pending->paid, paid->refunded. Free is terminal and only
// ever set at creation for zero-fee events.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentPending:
		return next == PaymentPaid
	case PaymentPaid:
		return next == PaymentRefunded
	default:
		return false
	}
}

// Registration links one caller to one event. At most one non-cancelled
// registration may exist per (event, user) pair; a partial unique index in
// AutoMigrate backs this at the database level.
type Registration struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	EventID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"event_id"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	TeamName      *string            `json:"team_name,omitempty"`
	TeamSize      int                `gorm:"not null;default:1" json:"team_size"`
	Status        RegistrationStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	PaymentStatus PaymentStatus      `gorm:"type:varchar(16);not null;default:'pending'" json:"payment_status"`
	Amount        int64              `gorm:"not null;default:0" json:"amount"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"deleted_at,omitempty"`

	Event   *Event       `gorm:"foreignKey:EventID" json:"event,omitempty"`
	Members []TeamMember `gorm:"foreignKey:RegistrationID" json:"members,omitempty"`
}

func (Registration) TableName() string { return "registrations" }

func (r *Registration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TeamMember is one participant listed under a team registration. Rows are
// created atomically with their registration and are not edited afterwards.
type TeamMember struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RegistrationID uuid.UUID `gorm:"type:uuid;not null;index" json:"registration_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"not null" json:"email"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (TeamMember) TableName() string { return "team_members" }

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
