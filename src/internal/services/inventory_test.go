package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemvault/gemvault/src/internal/database/models"
)

func createTestProduct(t *testing.T, svc *InventoryService, sku string, quantity int) *models.Product {
	t.Helper()
	product, err := svc.CreateProduct("T1", ProductInput{
		SKU:       sku,
		Name:      "22K Gold Ring",
		Category:  "rings",
		MetalType: "gold",
		Purity:    "22K",
		NetWeight: 4.2,
		Price:     32000,
		Quantity:  quantity,
	})
	require.NoError(t, err)
	return product
}

func TestInventoryProducts(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewInventoryService(env.resolver, env.dispatcher)

	t.Run("CreateAndGet", func(t *testing.T) {
		product := createTestProduct(t, svc, "RING-001", 5)
		loaded, err := svc.GetProduct("T1", product.ID)
		require.NoError(t, err)
		assert.Equal(t, "RING-001", loaded.SKU)
		assert.Equal(t, 5, loaded.Quantity)
	})

	t.Run("DuplicateSKU", func(t *testing.T) {
		_, err := svc.CreateProduct("T1", ProductInput{SKU: "RING-001", Name: "Dup"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("ListFilters", func(t *testing.T) {
		_, err := svc.CreateProduct("T1", ProductInput{
			SKU: "CHAIN-001", Name: "Silver Chain", Category: "chains", MetalType: "silver",
		})
		require.NoError(t, err)

		products, total, err := svc.ListProducts("T1", "", "silver", 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, products, 1)
		assert.Equal(t, "CHAIN-001", products[0].SKU)
	})

	t.Run("DeleteHidesProduct", func(t *testing.T) {
		product := createTestProduct(t, svc, "RING-DEL", 1)
		require.NoError(t, svc.DeleteProduct("T1", product.ID))
		_, err := svc.GetProduct("T1", product.ID)
		assert.Error(t, err)
	})
}

func TestInventoryMovements(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewInventoryService(env.resolver, env.dispatcher)

	product := createTestProduct(t, svc, "RING-MOVE", 10)

	t.Run("InIncreasesStock", func(t *testing.T) {
		_, err := svc.RecordMovement("T1", MovementInput{
			ProductID:    product.ID,
			MovementType: models.MovementIn,
			Quantity:     5,
			Reference:    "PO-77",
		})
		require.NoError(t, err)

		loaded, err := svc.GetProduct("T1", product.ID)
		require.NoError(t, err)
		assert.Equal(t, 15, loaded.Quantity)
	})

	t.Run("SaleDecreasesStock", func(t *testing.T) {
		_, err := svc.RecordMovement("T1", MovementInput{
			ProductID:    product.ID,
			MovementType: models.MovementSale,
			Quantity:     3,
		})
		require.NoError(t, err)

		loaded, err := svc.GetProduct("T1", product.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, loaded.Quantity)
	})

	t.Run("CannotGoNegative", func(t *testing.T) {
		_, err := svc.RecordMovement("T1", MovementInput{
			ProductID:    product.ID,
			MovementType: models.MovementOut,
			Quantity:     100,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "below zero")

		// Stock unchanged and no ledger row written
		loaded, err := svc.GetProduct("T1", product.ID)
		require.NoError(t, err)
		assert.Equal(t, 12, loaded.Quantity)

		_, total, err := svc.ListMovements("T1", product.ID, 10, 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("NegativeAdjustment", func(t *testing.T) {
		_, err := svc.RecordMovement("T1", MovementInput{
			ProductID:    product.ID,
			MovementType: models.MovementAdjustment,
			Quantity:     -2,
			Notes:        "stocktake correction",
		})
		require.NoError(t, err)

		loaded, err := svc.GetProduct("T1", product.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, loaded.Quantity)
	})

	t.Run("UnknownMovementType", func(t *testing.T) {
		_, err := svc.RecordMovement("T1", MovementInput{
			ProductID:    product.ID,
			MovementType: "teleport",
			Quantity:     1,
		})
		assert.Error(t, err)
	})

	t.Run("UnknownProduct", func(t *testing.T) {
		_, err := svc.RecordMovement("T1", MovementInput{
			ProductID:    uuid.New(),
			MovementType: models.MovementIn,
			Quantity:     1,
		})
		assert.Error(t, err)
	})
}

func TestInventoryRFID(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewInventoryService(env.resolver, env.dispatcher)

	product := createTestProduct(t, svc, "RING-RFID", 2)

	t.Run("RegisterUnassigned", func(t *testing.T) {
		tag, err := svc.RegisterTag("T1", "E200-0001", nil)
		require.NoError(t, err)
		assert.Equal(t, models.RFIDStatusUnassigned, tag.Status)
	})

	t.Run("RegisterAssigned", func(t *testing.T) {
		tag, err := svc.RegisterTag("T1", "E200-0002", &product.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RFIDStatusAssigned, tag.Status)
	})

	t.Run("DuplicateUID", func(t *testing.T) {
		_, err := svc.RegisterTag("T1", "E200-0001", nil)
		assert.Error(t, err)
	})

	t.Run("ScanReportsUnknownTags", func(t *testing.T) {
		result, err := svc.Scan("T1", []string{"E200-0001", "E200-0002", "E200-9999"})
		require.NoError(t, err)
		assert.Equal(t, 3, result.Seen)
		assert.Equal(t, 2, result.Known)
		assert.Equal(t, []string{"E200-9999"}, result.Unknown)
	})
}
