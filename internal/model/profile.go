package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Profile is the locally stored caller identity. Authentication issues a
// token for a profile; the registration core only ever reads it.
type Profile struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string         `gorm:"not null" json:"email"`
	FullName     string         `json:"full_name"`
	Phone        string         `json:"phone,omitempty"`
	College      string         `json:"college,omitempty"`
	Role         Role           `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	PasswordHash string         `gorm:"not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Profile) TableName() string { return "profiles" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Profile) IsAdmin() bool { return p.Role == RoleAdmin }
