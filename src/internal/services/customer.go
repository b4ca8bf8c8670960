package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gemvault/gemvault/src/internal/database/models"
	"github.com/gemvault/gemvault/src/internal/errors"
	"github.com/gemvault/gemvault/src/internal/tenant"
	"github.com/gemvault/gemvault/src/internal/webhook"
)

// CustomerService handles customer business logic. Every method takes the
// client code explicitly; there is no ambient tenant state.
type CustomerService struct {
	resolver   *tenant.Resolver
	dispatcher *webhook.Dispatcher
}

// NewCustomerService creates a new customer service
func NewCustomerService(resolver *tenant.Resolver, dispatcher *webhook.Dispatcher) *CustomerService {
	return &CustomerService{
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// CustomerInput represents input for creating or updating a customer
type CustomerInput struct {
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTNumber string `json:"gst_number"`
}

// Create creates a customer in the tenant's database
func (s *CustomerService) Create(clientCode string, input CustomerInput) (*models.Customer, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" {
		return nil, errors.NewValidationError("code is required", "code")
	}
	if input.Name == "" {
		return nil, errors.NewValidationError("name is required", "name")
	}

	customer := &models.Customer{
		Code:      input.Code,
		Name:      input.Name,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		GSTNumber: input.GSTNumber,
		IsActive:  true,
	}

	if err := db.Create(customer).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "duplicate key") {
			return nil, errors.ConflictError("customer code already exists", "customer")
		}
		return nil, errors.DatabaseError("failed to create customer", err)
	}

	s.dispatcher.Trigger("customer.created", clientCode, map[string]interface{}{
		"customerId": customer.ID.String(),
		"code":       customer.Code,
		"name":       customer.Name,
	}, "")

	return customer, nil
}

// Get returns one customer by ID
func (s *CustomerService) Get(clientCode string, id uuid.UUID) (*models.Customer, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	var customer models.Customer
	if err := db.Where("id = ? AND deleted_at IS NULL", id).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("Customer", id.String())
		}
		return nil, errors.DatabaseError("failed to load customer", err)
	}
	return &customer, nil
}

// List returns the tenant's customers with optional search and pagination
func (s *CustomerService) List(clientCode, search string, limit, offset int) ([]models.Customer, int64, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.Customer{}).Where("deleted_at IS NULL")
	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where("name LIKE ? OR code LIKE ? OR email LIKE ?", like, like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count customers", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var customers []models.Customer
	if err := tx.Order("created_at DESC").Limit(limit).Offset(offset).Find(&customers).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to list customers", err)
	}

	return customers, total, nil
}

// Update modifies an existing customer
func (s *CustomerService) Update(clientCode string, id uuid.UUID, input CustomerInput) (*models.Customer, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	customer, err := s.Get(clientCode, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":       input.Name,
		"email":      input.Email,
		"phone":      input.Phone,
		"address":    input.Address,
		"gst_number": input.GSTNumber,
	}
	if input.Code != "" {
		updates["code"] = input.Code
	}

	if err := db.Model(customer).Updates(updates).Error; err != nil {
		return nil, errors.DatabaseError("failed to update customer", err)
	}

	s.dispatcher.Trigger("customer.updated", clientCode, map[string]interface{}{
		"customerId": customer.ID.String(),
	}, "")

	return s.Get(clientCode, id)
}

// Delete soft-deletes a customer
func (s *CustomerService) Delete(clientCode string, id uuid.UUID) error {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result := db.Model(&models.Customer{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": &now,
			"is_active":  false,
		})
	if result.Error != nil {
		return errors.DatabaseError("failed to delete customer", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("Customer", id.String())
	}

	s.dispatcher.Trigger("customer.deleted", clientCode, map[string]interface{}{
		"customerId": id.String(),
	}, "")

	return nil
}
