package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RFID tag lifecycle states.
const (
	RFIDStatusUnassigned = "unassigned"
	RFIDStatusAssigned   = "assigned"
	RFIDStatusSold       = "sold"
	RFIDStatusMissing    = "missing"
)

// Stock movement types. Quantity deltas are applied to the product row in
// the same transaction as the movement insert.
const (
	MovementIn         = "in"
	MovementOut        = "out"
	MovementAdjustment = "adjustment"
	MovementSale       = "sale"
	MovementReturn     = "return"
)

// Product is a jewelry inventory item. Weights are in grams.
type Product struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	SKU          string     `json:"sku" gorm:"size:64;uniqueIndex;not null"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	Category     string     `json:"category" gorm:"size:64;index"`
	MetalType    string     `json:"metal_type" gorm:"size:32"` // gold, silver, platinum...
	Purity       string     `json:"purity" gorm:"size:16"`     // 22K, 18K, 925...
	GrossWeight  float64    `json:"gross_weight" gorm:"default:0"`
	NetWeight    float64    `json:"net_weight" gorm:"default:0"`
	StoneWeight  float64    `json:"stone_weight" gorm:"default:0"`
	MakingCharge float64    `json:"making_charge" gorm:"default:0"`
	Price        float64    `json:"price" gorm:"default:0"`
	Quantity     int        `json:"quantity" gorm:"default:0"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" gorm:"index"`
}

// RFIDTag binds a physical tag UID to a product.
type RFIDTag struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TagUID     string     `json:"tag_uid" gorm:"size:64;uniqueIndex;not null"`
	ProductID  *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid;index"`
	Status     string     `json:"status" gorm:"size:16;default:'unassigned'"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Product *Product `json:"product,omitempty" gorm:"constraint:OnDelete:SET NULL"`
}

// StockMovement is an immutable ledger entry for a quantity change.
type StockMovement struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	ProductID    uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	MovementType string    `json:"movement_type" gorm:"size:16;not null"`
	Quantity     int       `json:"quantity" gorm:"not null"` // signed only for adjustments; direction otherwise comes from the type
	Reference    string    `json:"reference" gorm:"size:128"`
	Notes        string    `json:"notes" gorm:"type:text"`
	CreatedOn    time.Time `json:"created_on" gorm:"autoCreateTime;index"`

	Product *Product `json:"product,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (t *RFIDTag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
