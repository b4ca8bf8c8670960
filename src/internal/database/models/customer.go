package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer lives in the tenant's own database; no client-code column is
// needed because the database itself is tenant-scoped.
type Customer struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	Code      string     `json:"code" gorm:"size:64;uniqueIndex;not null"`
	Name      string     `json:"name" gorm:"size:255;not null"`
	Email     string     `json:"email" gorm:"size:255"`
	Phone     string     `json:"phone" gorm:"size:32"`
	Address   string     `json:"address" gorm:"type:text"`
	GSTNumber string     `json:"gst_number" gorm:"size:32"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
