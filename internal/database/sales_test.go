package database

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go-pharmacy-pos/internal/models"
	"go-pharmacy-pos/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the package-level DB at a fresh in-memory store.
func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	DB = db
}

func seedItem(t *testing.T, name string, qty int, unitPrice, costPrice float64) models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		ID:        utils.NewID(),
		Name:      name,
		SKU:       utils.GenerateSKU("Tablets", name),
		Category:  "Tablets",
		Quantity:  qty,
		UnitPrice: unitPrice,
		CostPrice: costPrice,
		CreatedAt: time.Now(),
	}
	require.NoError(t, DB.Create(&item).Error)
	return item
}

func itemQuantity(t *testing.T, id string) int {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, DB.First(&item, "id = ?", id).Error)
	return item.Quantity
}

func TestCompleteSaleBasicScenario(t *testing.T) {
	setupTestDB(t)
	a := seedItem(t, "Paracetamol", 10, 50, 30)
	b := seedItem(t, "Ibuprofen", 10, 100, 60)

	req := &SaleRequest{
		UserID:        "cashier-1",
		Total:         190, // caller-computed: 200 subtotal - 10% discount
		Discount:      10,
		PaymentMethod: "cash",
		Items: []SaleItemInput{
			{InventoryID: a.ID, Name: a.Name, Quantity: 2, UnitPrice: 50, Total: 100},
			{InventoryID: b.ID, Name: b.Name, Quantity: 1, UnitPrice: 100, Total: 100},
		},
	}
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	sale, err := CompleteSale(req, raw)
	require.NoError(t, err)
	require.NotEmpty(t, sale.ID)

	// Stored total matches the caller-supplied value, not a recomputation.
	var stored models.Sale
	require.NoError(t, DB.First(&stored, "id = ?", sale.ID).Error)
	assert.Equal(t, 190.0, stored.Total)
	assert.Equal(t, "retail", stored.SaleType)

	// Both decrements happened through the single bulk statement.
	assert.Equal(t, 8, itemQuantity(t, a.ID))
	assert.Equal(t, 9, itemQuantity(t, b.ID))

	// Cost prices were captured at write time.
	var items []models.SaleItem
	require.NoError(t, DB.Where("sale_id = ?", sale.ID).Order("unit_price").Find(&items).Error)
	require.Len(t, items, 2)
	assert.Equal(t, 30.0, items[0].CostPrice)
	assert.Equal(t, 60.0, items[1].CostPrice)

	// Exactly one receipt, deserializing back to the original payload.
	var receipts []models.Receipt
	require.NoError(t, DB.Where("sale_id = ?", sale.ID).Find(&receipts).Error)
	require.Len(t, receipts, 1)
	var snapshot SaleRequest
	require.NoError(t, json.Unmarshal([]byte(receipts[0].ReceiptData), &snapshot))
	assert.Equal(t, req.Total, snapshot.Total)
	assert.Equal(t, req.Items, snapshot.Items)
}

func TestCompleteSaleRollsBackOnUnknownItem(t *testing.T) {
	setupTestDB(t)
	a := seedItem(t, "Paracetamol", 10, 50, 30)

	req := &SaleRequest{
		Total: 150,
		Items: []SaleItemInput{
			{InventoryID: a.ID, Quantity: 1, UnitPrice: 50, Total: 50},
			{InventoryID: "missing-item", Quantity: 2, UnitPrice: 50, Total: 100},
		},
	}
	raw, _ := json.Marshal(req)

	_, err := CompleteSale(req, raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown inventory item")

	// Nothing survives a failed pipeline: no header, no items, no receipt,
	// no stock movement.
	var count int64
	DB.Model(&models.Sale{}).Count(&count)
	assert.Zero(t, count)
	DB.Model(&models.SaleItem{}).Count(&count)
	assert.Zero(t, count)
	DB.Model(&models.Receipt{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, 10, itemQuantity(t, a.ID))
}

func TestCompleteSaleGeneratesIdentifiers(t *testing.T) {
	setupTestDB(t)

	req := &SaleRequest{Total: 0}
	raw, _ := json.Marshal(req)

	sale, err := CompleteSale(req, raw)
	require.NoError(t, err)
	assert.NotEmpty(t, sale.ID)
	assert.True(t, strings.HasPrefix(sale.TransactionID, "TXN-"))
}

func TestCompleteSaleKeepsSuppliedIdentifiers(t *testing.T) {
	setupTestDB(t)

	req := &SaleRequest{ID: "sale-42", TransactionID: "TXN-CUSTOM", Total: 0}
	raw, _ := json.Marshal(req)

	sale, err := CompleteSale(req, raw)
	require.NoError(t, err)
	assert.Equal(t, "sale-42", sale.ID)
	assert.Equal(t, "TXN-CUSTOM", sale.TransactionID)
}

func TestCompleteSaleAggregatesDuplicateCartLines(t *testing.T) {
	setupTestDB(t)
	a := seedItem(t, "Paracetamol", 10, 50, 30)

	req := &SaleRequest{
		Total: 250,
		Items: []SaleItemInput{
			{InventoryID: a.ID, Quantity: 2, UnitPrice: 50, Total: 100},
			{InventoryID: a.ID, Quantity: 3, UnitPrice: 50, Total: 150},
		},
	}
	raw, _ := json.Marshal(req)

	sale, err := CompleteSale(req, raw)
	require.NoError(t, err)

	// Two line items, one combined decrement.
	var count int64
	DB.Model(&models.SaleItem{}).Where("sale_id = ?", sale.ID).Count(&count)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 5, itemQuantity(t, a.ID))
}

func TestGetSalesReport(t *testing.T) {
	setupTestDB(t)

	for _, total := range []float64{100, 250} {
		req := &SaleRequest{Total: total}
		raw, _ := json.Marshal(req)
		_, err := CompleteSale(req, raw)
		require.NoError(t, err)
	}

	report, err := GetSalesReport(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 350.0, report.TotalRevenue)
	assert.Equal(t, int64(2), report.TotalCount)
}
