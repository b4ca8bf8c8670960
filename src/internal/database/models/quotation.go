package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Quotation statuses.
const (
	QuotationStatusDraft    = "draft"
	QuotationStatusSent     = "sent"
	QuotationStatusAccepted = "accepted"
	QuotationStatusRejected = "rejected"
	QuotationStatusExpired  = "expired"
)

// Quotation is a priced offer to a customer.
type Quotation struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	QuotationNo string     `json:"quotation_no" gorm:"size:64;uniqueIndex;not null"`
	CustomerID  uuid.UUID  `json:"customer_id" gorm:"type:uuid;not null;index"`
	Status      string     `json:"status" gorm:"size:16;default:'draft'"`
	SubTotal    float64    `json:"sub_total" gorm:"default:0"`
	TaxAmount   float64    `json:"tax_amount" gorm:"default:0"`
	GrandTotal  float64    `json:"grand_total" gorm:"default:0"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	Customer *Customer       `json:"customer,omitempty"`
	Items    []QuotationItem `json:"items,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// QuotationItem is one priced line of a quotation.
type QuotationItem struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	QuotationID uuid.UUID  `json:"quotation_id" gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid"`
	Description string     `json:"description" gorm:"size:255"`
	Quantity    int        `json:"quantity" gorm:"default:1"`
	UnitPrice   float64    `json:"unit_price" gorm:"default:0"`
	LineTotal   float64    `json:"line_total" gorm:"default:0"`
}

func (q *Quotation) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

func (qi *QuotationItem) BeforeCreate(tx *gorm.DB) error {
	if qi.ID == uuid.Nil {
		qi.ID = uuid.New()
	}
	return nil
}
