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

// InventoryService handles products, stock movements, and RFID tags
type InventoryService struct {
	resolver   *tenant.Resolver
	dispatcher *webhook.Dispatcher
}

// NewInventoryService creates a new inventory service
func NewInventoryService(resolver *tenant.Resolver, dispatcher *webhook.Dispatcher) *InventoryService {
	return &InventoryService{
		resolver:   resolver,
		dispatcher: dispatcher,
	}
}

// ProductInput represents input for creating or updating a product
type ProductInput struct {
	SKU          string  `json:"sku" validate:"required"`
	Name         string  `json:"name" validate:"required"`
	Category     string  `json:"category"`
	MetalType    string  `json:"metal_type"`
	Purity       string  `json:"purity"`
	GrossWeight  float64 `json:"gross_weight" validate:"gte=0"`
	NetWeight    float64 `json:"net_weight" validate:"gte=0"`
	StoneWeight  float64 `json:"stone_weight" validate:"gte=0"`
	MakingCharge float64 `json:"making_charge" validate:"gte=0"`
	Price        float64 `json:"price" validate:"gte=0"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
}

// MovementInput represents input for recording a stock movement
type MovementInput struct {
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
	MovementType string    `json:"movement_type" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required"`
	Reference    string    `json:"reference"`
	Notes        string    `json:"notes"`
}

// CreateProduct creates a product in the tenant's database
func (s *InventoryService) CreateProduct(clientCode string, input ProductInput) (*models.Product, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	input.SKU = strings.TrimSpace(input.SKU)
	if input.SKU == "" {
		return nil, errors.NewValidationError("sku is required", "sku")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.NewValidationError("name is required", "name")
	}

	product := &models.Product{
		SKU:          input.SKU,
		Name:         input.Name,
		Category:     input.Category,
		MetalType:    input.MetalType,
		Purity:       input.Purity,
		GrossWeight:  input.GrossWeight,
		NetWeight:    input.NetWeight,
		StoneWeight:  input.StoneWeight,
		MakingCharge: input.MakingCharge,
		Price:        input.Price,
		Quantity:     input.Quantity,
		IsActive:     true,
	}

	if err := db.Create(product).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "duplicate key") {
			return nil, errors.ConflictError("SKU already exists", "product")
		}
		return nil, errors.DatabaseError("failed to create product", err)
	}

	s.dispatcher.Trigger("product.created", clientCode, map[string]interface{}{
		"productId": product.ID.String(),
		"sku":       product.SKU,
		"name":      product.Name,
	}, "")

	return product, nil
}

// GetProduct returns one product by ID
func (s *InventoryService) GetProduct(clientCode string, id uuid.UUID) (*models.Product, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := db.Where("id = ? AND deleted_at IS NULL", id).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NotFoundError("Product", id.String())
		}
		return nil, errors.DatabaseError("failed to load product", err)
	}
	return &product, nil
}

// ListProducts returns the tenant's products with optional filters
func (s *InventoryService) ListProducts(clientCode, category, metalType string, limit, offset int) ([]models.Product, int64, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.Product{}).Where("deleted_at IS NULL")
	if category != "" {
		tx = tx.Where("category = ?", category)
	}
	if metalType != "" {
		tx = tx.Where("metal_type = ?", metalType)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count products", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var products []models.Product
	if err := tx.Order("created_at DESC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to list products", err)
	}

	return products, total, nil
}

// UpdateProduct modifies an existing product. Quantity changes go through
// RecordMovement, not here.
func (s *InventoryService) UpdateProduct(clientCode string, id uuid.UUID, input ProductInput) (*models.Product, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	product, err := s.GetProduct(clientCode, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":          input.Name,
		"category":      input.Category,
		"metal_type":    input.MetalType,
		"purity":        input.Purity,
		"gross_weight":  input.GrossWeight,
		"net_weight":    input.NetWeight,
		"stone_weight":  input.StoneWeight,
		"making_charge": input.MakingCharge,
		"price":         input.Price,
	}
	if input.SKU != "" {
		updates["sku"] = input.SKU
	}

	if err := db.Model(product).Updates(updates).Error; err != nil {
		return nil, errors.DatabaseError("failed to update product", err)
	}

	s.dispatcher.Trigger("product.updated", clientCode, map[string]interface{}{
		"productId": product.ID.String(),
	}, "")

	return s.GetProduct(clientCode, id)
}

// DeleteProduct soft-deletes a product
func (s *InventoryService) DeleteProduct(clientCode string, id uuid.UUID) error {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	result := db.Model(&models.Product{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]interface{}{
			"deleted_at": &now,
			"is_active":  false,
		})
	if result.Error != nil {
		return errors.DatabaseError("failed to delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NotFoundError("Product", id.String())
	}

	s.dispatcher.Trigger("product.deleted", clientCode, map[string]interface{}{
		"productId": id.String(),
	}, "")

	return nil
}

// RecordMovement records a stock movement and applies the quantity delta to
// the product in one transaction
func (s *InventoryService) RecordMovement(clientCode string, input MovementInput) (*models.StockMovement, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	delta, err := movementDelta(input.MovementType, input.Quantity)
	if err != nil {
		return nil, err
	}

	movement := &models.StockMovement{
		ProductID:    input.ProductID,
		MovementType: input.MovementType,
		Quantity:     input.Quantity,
		Reference:    input.Reference,
		Notes:        input.Notes,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Where("id = ? AND deleted_at IS NULL", input.ProductID).First(&product).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.NotFoundError("Product", input.ProductID.String())
			}
			return errors.DatabaseError("failed to load product", err)
		}

		newQuantity := product.Quantity + delta
		if newQuantity < 0 {
			return errors.NewValidationError(
				fmt.Sprintf("movement would drive stock below zero (current %d, delta %d)", product.Quantity, delta),
				"quantity")
		}

		if err := tx.Create(movement).Error; err != nil {
			return errors.DatabaseError("failed to record movement", err)
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("quantity", newQuantity).Error; err != nil {
			return errors.DatabaseError("failed to update stock", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Trigger("stock.movement.recorded", clientCode, map[string]interface{}{
		"movementId":   movement.ID.String(),
		"productId":    input.ProductID.String(),
		"movementType": input.MovementType,
		"quantity":     input.Quantity,
	}, "")

	return movement, nil
}

// ListMovements returns a product's movement ledger, newest first
func (s *InventoryService) ListMovements(clientCode string, productID uuid.UUID, limit, offset int) ([]models.StockMovement, int64, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, 0, err
	}

	tx := db.Model(&models.StockMovement{}).Where("product_id = ?", productID)

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to count movements", err)
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var movements []models.StockMovement
	if err := tx.Order("created_on DESC").Limit(limit).Offset(offset).Find(&movements).Error; err != nil {
		return nil, 0, errors.DatabaseError("failed to list movements", err)
	}

	return movements, total, nil
}

// movementDelta maps a movement type to a signed quantity change
func movementDelta(movementType string, quantity int) (int, error) {
	if quantity == 0 {
		return 0, errors.NewValidationError("quantity must not be zero", "quantity")
	}

	switch movementType {
	case models.MovementIn, models.MovementReturn:
		if quantity < 0 {
			return 0, errors.NewValidationError("quantity must be positive", "quantity")
		}
		return quantity, nil
	case models.MovementOut, models.MovementSale:
		if quantity < 0 {
			return 0, errors.NewValidationError("quantity must be positive", "quantity")
		}
		return -quantity, nil
	case models.MovementAdjustment:
		// Adjustments carry their own sign
		return quantity, nil
	default:
		return 0, errors.NewValidationError("unknown movement type: "+movementType, "movement_type")
	}
}

// RegisterTag registers an RFID tag, optionally bound to a product
func (s *InventoryService) RegisterTag(clientCode, tagUID string, productID *uuid.UUID) (*models.RFIDTag, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	tagUID = strings.TrimSpace(tagUID)
	if tagUID == "" {
		return nil, errors.NewValidationError("tag_uid is required", "tag_uid")
	}

	tag := &models.RFIDTag{
		TagUID:    tagUID,
		ProductID: productID,
		Status:    models.RFIDStatusUnassigned,
	}
	if productID != nil {
		if _, err := s.GetProduct(clientCode, *productID); err != nil {
			return nil, err
		}
		tag.Status = models.RFIDStatusAssigned
	}

	if err := db.Create(tag).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") || strings.Contains(err.Error(), "duplicate key") {
			return nil, errors.ConflictError("tag UID already registered", "rfid_tag")
		}
		return nil, errors.DatabaseError("failed to register tag", err)
	}

	return tag, nil
}

// ScanResult summarizes one RFID scan batch
type ScanResult struct {
	Seen    int      `json:"seen"`
	Known   int      `json:"known"`
	Unknown []string `json:"unknown"`
}

// Scan marks the given tag UIDs as seen and reports unknown tags. The scan
// outcome is announced via webhook so store systems can react.
func (s *InventoryService) Scan(clientCode string, tagUIDs []string) (*ScanResult, error) {
	db, err := s.resolver.Resolve(clientCode)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Seen: len(tagUIDs)}
	now := time.Now().UTC()

	for _, uid := range tagUIDs {
		res := db.Model(&models.RFIDTag{}).
			Where("tag_uid = ?", uid).
			Update("last_seen_at", &now)
		if res.Error != nil {
			return nil, errors.DatabaseError("failed to update tag", res.Error)
		}
		if res.RowsAffected == 0 {
			result.Unknown = append(result.Unknown, uid)
		} else {
			result.Known++
		}
	}

	s.dispatcher.Trigger("rfid.scan.completed", clientCode, map[string]interface{}{
		"seen":    result.Seen,
		"known":   result.Known,
		"unknown": result.Unknown,
	}, "")

	return result, nil
}
