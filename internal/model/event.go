package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
)

// Event is a competition or workshop that callers can register for.
// Capacity is tracked against MaxParticipants by counting non-cancelled
// registrations; the event row itself carries no seat counter.
type Event struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Slug            string         `gorm:"uniqueIndex;not null" json:"slug"`
	Name            string         `gorm:"not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	Category        string         `gorm:"index" json:"category"`
	Date            string         `json:"date"`
	Time            string         `json:"time"`
	Venue           string         `json:"venue"`
	PrizePool       int64          `gorm:"not null;default:0" json:"prize_pool"`
	TeamSizeMin     int            `gorm:"not null;default:1" json:"team_size_min"`
	TeamSizeMax     int            `gorm:"not null;default:1" json:"team_size_max"`
	RegistrationFee int64          `gorm:"not null;default:0" json:"registration_fee"`
	MaxParticipants int            `gorm:"not null" json:"max_participants"`
	RegistrationOpen bool          `gorm:"not null;default:false" json:"registration_open"`
	Status          EventStatus    `gorm:"type:varchar(16);not null;default:'draft'" json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Event) TableName() string { return "events" }

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// IsTeamEvent reports whether the event ever accepts teams larger than one.
func (e *Event) IsTeamEvent() bool {
	return e.TeamSizeMax > 1
}

// AllowsTeamSize reports whether size falls within the configured bounds.
func (e *Event) AllowsTeamSize(size int) bool {
	return size >= e.TeamSizeMin && size <= e.TeamSizeMax
}

// Capacity is the live seat picture for one event. Remaining is floored at
// zero for display; the registration path never trusts it and re-counts
// inside its own transaction.
type Capacity struct {
	EventID   uuid.UUID `json:"event_id"`
	Total     int       `json:"total"`
	Filled    int       `json:"filled"`
	Remaining int       `json:"remaining"`
}

func NewCapacity(eventID uuid.UUID, total, filled int) Capacity {
	remaining := total - filled
	if remaining < 0 {
		remaining = 0
	}
	return Capacity{EventID: eventID, Total: total, Filled: filled, Remaining: remaining}
}
