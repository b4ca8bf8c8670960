package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/errors"
	"github.com/gemvault/gemvault/src/internal/tenant"
	"github.com/gemvault/gemvault/src/internal/webhook"
)

// QuotationService handles quotation business logic
type QuotationService struct {
	resolver   *tenant.Resolver
	dispatcher *webhook.Dispatcher
}

// NewQuotationService creates a new quotation service
func NewQuotationService(resolver *tenant.Resolver, dispatcher *webhook.Dispatcher) *QuotationService {
	return &QuotationService{
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// QuotationItemInput is one priced line of a quotation request
type QuotationItemInput struct {
	ProductID   *uuid.UUID `json:"product_id"`
	Description string     `json:"description"`
	Quantity    int        `json:"quantity" validate:"gt=0"`
	UnitPrice   float64    `json:"unit_price" validate:"gte=0"`
}

// QuotationInput represents input for creating a quotation
type QuotationInput struct {
	CustomerID uuid.UUID            `json:"customer_id" validate:"required"`
	TaxRate    float64              `json:"tax_rate" validate:"gte=0"`
	ValidUntil *time.Time           `json:"valid_until"`
	Notes      string               `json:"notes"`
	Items      []QuotationItemInput `json:"items" validate:"required,min=1,dive"`
}

// Create creates a quotation with its items and computed totals
func (s *QuotationService) Create(clientCode string, input QuotationInput) (*models.Quotation, error) {
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

	quotation := &models.Quotation{
		QuotationNo: generateDocumentNo("Q"),
		CustomerID:  input.CustomerID,
		Status:      models.QuotationStatusDraft,
		ValidUntil:  input.ValidUntil,
		Notes:       input.Notes,
	}

	var subTotal float64
	items := make([]models.QuotationItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, errors.NewValidationError("item quantity must be positive", "items")
		}
		lineTotal := float64(item.Quantity) * item.UnitPrice
		subTotal += lineTotal
		items = append(items, models.QuotationItem{
			ProductID:   item.ProductID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   lineTotal,
		})
	}

	quotation.SubTotal = subTotal
	quotation.TaxAmount = subTotal * input.TaxRate / 100
	quotation.GrandTotal = quotation.SubTotal + quotation.TaxAmount

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quotation).Error; err != nil {
			return errors.DatabaseError("failed to create quotation", err)
		}
		for i := range items {
			items[i].QuotationID = quotation.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return errors.DatabaseError("failed to create quotation item", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Trigger("quotation.created", clientCode, map[string]interface{}{
		"quotationId": quotation.ID.String(),
		"quotationNo": quotation.QuotationNo,
		"customerId":  quotation.CustomerID.String(),
		"grandTotal":  quotation.GrandTotal,
	}, "")

	return s.Get(clientCode, quotation.ID)
}

// Get returns one quotation with its items and customer
func (s *QuotationService) Get(clientCode string, id uuid.UUID) (*models.Quotation, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	var quotation models.Quotation
	err = db.Preload("Items").Preload("Customer").
		Where("id = ? AND deleted_at IS NULL", id).
		First(&quotation).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("Quotation", id.String())
		}
		return nil, errors.DatabaseError("failed to load quotation", err)
	}
	return &quotation, nil
}

// List returns the tenant's quotations with optional status filter
func (s *QuotationService) List(clientCode, status string, limit, offset int) ([]models.Quotation, int64, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.Quotation{}).Where("deleted_at IS NULL")
	if status != "" {
		tx = tx.Where("status = ?", status)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count quotations", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var quotations []models.Quotation
	if err := tx.Preload("Customer").Order("created_at DESC").Limit(limit).Offset(offset).Find(&quotations).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to list quotations", err)
	}

	return quotations, total, nil
}

// quotationTransitions lists the allowed status changes
var quotationTransitions = map[string][]string{
	models.QuotationStatusDraft:    {models.QuotationStatusSent, models.QuotationStatusRejected},
	models.QuotationStatusSent:     {models.QuotationStatusAccepted, models.QuotationStatusRejected, models.QuotationStatusExpired},
	models.QuotationStatusAccepted: {},
	models.QuotationStatusRejected: {},
	models.QuotationStatusExpired:  {},
}

// UpdateStatus moves a quotation through its lifecycle
func (s *QuotationService) UpdateStatus(clientCode string, id uuid.UUID, status string) (*models.Quotation, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	quotation, err := s.Get(clientCode, id)
	if err != nil {
		return nil, err
	}

	allowed, ok := quotationTransitions[quotation.Status]
	if !ok {
		return nil, errors.NewValidationError("unknown quotation status: "+quotation.Status, "status")
	}
	permitted := false
	for _, a := range allowed {
		if a == status {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, errors.ConflictError(
			fmt.Sprintf("cannot move quotation from %s to %s", quotation.Status, status), "quotation")
	}

	if err := db.Model(quotation).Update("status", status).Error; err != nil {
		return nil, errors.DatabaseError("failed to update quotation status", err)
	}

	s.dispatcher.Trigger("quotation."+status, clientCode, map[string]interface{}{
		"quotationId": quotation.ID.String(),
		"quotationNo": quotation.QuotationNo,
	}, "")

	return s.Get(clientCode, id)
}

// ConvertToInvoice creates an invoice from an accepted quotation
func (s *QuotationService) ConvertToInvoice(clientCode string, id uuid.UUID) (*models.Invoice, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	quotation, err := s.Get(clientCode, id)
	if err != nil {
		return nil, err
	}

	if quotation.Status != models.QuotationStatusAccepted {
		return nil, errors.ConflictError("only accepted quotations can be converted", "quotation")
	}

	// One invoice per quotation
	var existing int64
	if err := db.Model(&models.Invoice{}).Where("quotation_id = ?", quotation.ID).Count(&existing).Error; err != nil {
		return nil, errors.DatabaseError("failed to check existing invoice", err)
	}
	if existing > 0 {
		return nil, errors.ConflictError("quotation already converted to an invoice", "quotation")
	}

	quotationID := quotation.ID
	invoice := &models.Invoice{
		InvoiceNo:   generateDocumentNo("INV"),
		CustomerID:  quotation.CustomerID,
		QuotationID: &quotationID,
		Status:      models.InvoiceStatusDraft,
		SubTotal:    quotation.SubTotal,
		TaxAmount:   quotation.TaxAmount,
		GrandTotal:  quotation.GrandTotal,
		Notes:       quotation.Notes,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return errors.DatabaseError("failed to create invoice", err)
		}
		for _, item := range quotation.Items {
			invItem := models.InvoiceItem{
				InvoiceID:   invoice.ID,
				ProductID:   item.ProductID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				LineTotal:   item.LineTotal,
			}
			if err := tx.Create(&invItem).Error; err != nil {
				return errors.DatabaseError("failed to copy quotation item", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Trigger("quotation.converted", clientCode, map[string]interface{}{
		"quotationId": quotation.ID.String(),
		"invoiceId":   invoice.ID.String(),
		"invoiceNo":   invoice.InvoiceNo,
	}, "")

	return invoice, nil
}

// generateDocumentNo builds a short unique document number
func generateDocumentNo(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("%s-%s", prefix, id[:10])
}
