package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice statuses.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusIssued    = "issued"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
)

// Invoice bills a customer, optionally converted from an accepted quotation.
type Invoice struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	InvoiceNo   string     `json:"invoice_no" gorm:"size:64;uniqueIndex;not null"`
	CustomerID  uuid.UUID  `json:"customer_id" gorm:"type:uuid;not null;index"`
	QuotationID *uuid.UUID `json:"quotation_id,omitempty" gorm:"type:uuid;index"`
	Status      string     `json:"status" gorm:"size:16;default:'draft'"`
	SubTotal    float64    `json:"sub_total" gorm:"default:0"`
	TaxAmount   float64    `json:"tax_amount" gorm:"default:0"`
	GrandTotal  float64    `json:"grand_total" gorm:"default:0"`
	IssuedOn    *time.Time `json:"issued_on,omitempty"`
	PaidOn      *time.Time `json:"paid_on,omitempty"`
	Notes       string     `json:"notes" gorm:"type:text"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" gorm:"index"`

	Customer *Customer     `json:"customer,omitempty"`
	Items    []InvoiceItem `json:"items,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// InvoiceItem is one billed line of an invoice.
type InvoiceItem struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID  `json:"invoice_id" gorm:"type:uuid;not null;index"`
	ProductID   *uuid.UUID `json:"product_id,omitempty" gorm:"type:uuid"`
	Description string     `json:"description" gorm:"size:255"`
	Quantity    int        `json:"quantity" gorm:"default:1"`
	UnitPrice   float64    `json:"unit_price" gorm:"default:0"`
	LineTotal   float64    `json:"line_total" gorm:"default:0"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (ii *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if ii.ID == uuid.Nil {
		ii.ID = uuid.New()
	}
	return nil
}
