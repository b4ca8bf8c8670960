package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/errors"
	"github.com/gemvault/gemvault/src/internal/tenant"
	"github.com/gemvault/gemvault/src/internal/webhook"
)

// InvoiceService handles invoice business logic
type InvoiceService struct {
	resolver   *tenant.Resolver
	dispatcher *webhook.Dispatcher
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(resolver *tenant.Resolver, dispatcher *webhook.Dispatcher) *InvoiceService {
	return &InvoiceService{
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// InvoiceItemInput is one billed line of an invoice request
type InvoiceItemInput struct {
	ProductID   *uuid.UUID `json:"product_id"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity" validate:"gt=0"`
	UnitPrice   float64    `json:"unit_price" validate:"gte=0"`
}

// InvoiceInput represents input for creating an invoice directly
type InvoiceInput struct {
	CustomerID uuid.UUID          `json:"customer_id" validate:"required"`
	TaxRate    float64            `json:"tax_rate" validate:"gte=0"`
	Notes      string             `json:"notes"`
	Items      []InvoiceItemInput `json:"items" validate:"required,min=1,dive"`
}

// Create creates an invoice with its items and computed totals
func (s *InvoiceService) Create(clientCode string, input InvoiceInput) (*models.Invoice, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	if len(input.Items) == 0 {
		return nil, errors.NewValidationError("at least one item is required", "items")
	}

	var customer models.Customer
	if err := db.Where("id = ? AND deleted_at IS NULL", input.CustomerID).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("Customer", input.CustomerID.String())
		}
		return nil, errors.DatabaseError("failed to load customer", err)
	}

	invoice := &models.Invoice{
		InvoiceNo:  generateDocumentNo("INV"),
		CustomerID: input.CustomerID,
		Status:     models.InvoiceStatusDraft,
		Notes:      input.Notes,
	}

	var subTotal float64
	items := make([]models.InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, errors.NewValidationError("item quantity must be positive", "items")
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		subTotal += lineTotal
		items = append(items, models.InvoiceItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   lineTotal,
		})
	}

	invoice.SubTotal = subTotal
	invoice.TaxAmount = subTotal * input.TaxRate / 100
	invoice.GrandTotal = invoice.SubTotal + invoice.TaxAmount

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return errors.DatabaseError("failed to create invoice", err)
		}
		for i := range items {
			items[i].InvoiceID = invoice.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return errors.DatabaseError("failed to create invoice item", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Trigger("invoice.created", clientCode, map[string]interface{}{
		"invoiceId":  invoice.ID.String(),
		"invoiceNo":  invoice.InvoiceNo,
		"customerId": invoice.CustomerID.String(),
		"grandTotal": invoice.GrandTotal,
	}, "")

	return s.Get(clientCode, invoice.ID)
}

// Get returns one invoice with its items and customer
func (s *InvoiceService) Get(clientCode string, id uuid.UUID) (*models.Invoice, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	var invoice models.Invoice
	err = db.Preload("Items").Preload("Customer").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&invoice).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("Invoice", id.String())
		}
		return nil, errors.DatabaseError("failed to load invoice", err)
	}
	return &invoice, nil
}

// List returns the tenant's invoices with optional status filter
func (s *InvoiceService) List(clientCode, status string, limit, offset int) ([]models.Invoice, int64, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.Invoice{}).Where("deleted_at IS NULL")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count invoices", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var invoices []models.Invoice
	if err := tx.Preload("Customer").Order("created_at DESC").Limit(limit).Offset(offset).Find(&invoices).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to list invoices", err)
	}

	return invoices, total, nil
}

// Issue marks a draft invoice as issued
func (s *InvoiceService) Issue(clientCode string, id uuid.UUID) (*models.Invoice, error) {
	return s.transition(clientCode, id, models.InvoiceStatusDraft, models.InvoiceStatusIssued, "issued_on")
}

// MarkPaid marks an issued invoice as paid
func (s *InvoiceService) MarkPaid(clientCode string, id uuid.UUID) (*models.Invoice, error) {
	return s.transition(clientCode, id, models.InvoiceStatusIssued, models.InvoiceStatusPaid, "paid_on")
}

// Cancel cancels a draft or issued invoice
func (s *InvoiceService) Cancel(clientCode string, id uuid.UUID) (*models.Invoice, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	invoice, err := s.Get(clientCode, id)
	if err != nil {
		return nil, err
	}

	if invoice.Status != models.InvoiceStatusDraft && invoice.Status != models.InvoiceStatusIssued {
		return nil, errors.ConflictError("only draft or issued invoices can be cancelled", "invoice")
	}

	if err := db.Model(invoice).Update("status", models.InvoiceStatusCancelled).Error; err != nil {
		return nil, errors.DatabaseError("failed to cancel invoice", err)
	}

	s.dispatcher.Trigger("invoice.cancelled", clientCode, map[string]interface{}{
		"invoiceId": invoice.ID.String(),
		"invoiceNo": invoice.InvoiceNo,
	}, "")

	return s.Get(clientCode, id)
}

// transition moves an invoice between two statuses and stamps a timestamp
// column
func (s *InvoiceService) transition(clientCode string, id uuid.UUID, from, to, timestampColumn string) (*models.Invoice, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	invoice, err := s.Get(clientCode, id)
	if err != nil {
		return nil, err
	}

	if invoice.Status != from {
		return nil, errors.ConflictError(
			"invoice must be "+from+" to become "+to+", current status is "+invoice.Status, "invoice")
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":        to,
		timestampColumn: &now,
	}
	if err := db.Model(invoice).Updates(updates).Error; err != nil {
		return nil, errors.DatabaseError("failed to update invoice status", err)
	}

	s.dispatcher.Trigger("invoice."+to, clientCode, map[string]interface{}{
		"invoiceId": invoice.ID.String(),
		"invoiceNo": invoice.InvoiceNo,
	}, "")

	return s.Get(clientCode, id)
}
