package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant maps a client code to its isolated business database.
type Tenant struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ClientCode string     `json:"client_code" gorm:"size:32;uniqueIndex;not null"`
	Name       string     `json:"name" gorm:"size:255;not null"`
	DBName     string     `json:"db_name" gorm:"size:255"` // optional override for the DSN template
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// User is a control-plane account scoped to one tenant.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	ClientCode   string     `json:"client_code" gorm:"size:32;index;not null"`
	Username     string     `json:"username" gorm:"size:64;uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"size:255;not null"`
	PasswordHash string     `json:"-" gorm:"type:text;not null"`
	IsAdmin      bool       `json:"is_admin" gorm:"default:false"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
