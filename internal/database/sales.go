package database

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go-pharmacy-pos/internal/models"
	"go-pharmacy-pos/internal/utils"

	"gorm.io/gorm"
)

// SaleItemInput is one cart line as the caller sends it.
type SaleItemInput struct {
	InventoryID string  `json:"inventory_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
	Wholesale   bool    `json:"wholesale"`
}

// SaleRequest is the sale-completion payload. Totals are pre-computed by the
// caller and stored as supplied.
type SaleRequest struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Total          float64         `json:"total"`
	Items          []SaleItemInput `json:"items"`
	PaymentMethod  string          `json:"payment_method"`
	Discount       float64         `json:"discount"`
	ManualDiscount float64         `json:"manual_discount"`
	TaxAmount      float64         `json:"tax_amount"`
	CustomerName   string          `json:"customer_name"`
	CustomerPhone  string          `json:"customer_phone"`
	BusinessName   string          `json:"business_name"`
	SaleType       string          `json:"sale_type"`
	TransactionID  string          `json:"transaction_id"`
	CashierID      string          `json:"cashier_id"`
	CashierName    string          `json:"cashier_name"`
}

// CompleteSale records a sale as one atomic unit: header insert, bulk
// line-item insert, one bulk stock decrement, receipt snapshot. Any failure
// rolls the whole thing back - a partial sale must never exist. rawPayload is
// the caller's original JSON body, stored verbatim on the receipt.
func CompleteSale(req *SaleRequest, rawPayload []byte) (*models.Sale, error) {
	if req.ID == "" {
		req.ID = utils.NewID()
	}
	if req.TransactionID == "" {
		req.TransactionID = "TXN-" + utils.RandomSuffix(8)
	}
	if req.SaleType == "" {
		req.SaleType = "retail"
	}

	tx := DB.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	sale := models.Sale{
		ID:             req.ID,
		UserID:         req.UserID,
		Total:          req.Total,
		Discount:       req.Discount,
		ManualDiscount: req.ManualDiscount,
		TaxAmount:      req.TaxAmount,
		PaymentMethod:  req.PaymentMethod,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		BusinessName:   req.BusinessName,
		SaleType:       req.SaleType,
		TransactionID:  req.TransactionID,
		CashierID:      req.CashierID,
		CashierName:    req.CashierName,
		CreatedAt:      time.Now(),
	}
	if err := tx.Create(&sale).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create sale record: %w", err)
	}

	if len(req.Items) > 0 {
		if err := writeSaleItems(tx, &sale, req.Items); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	receipt := models.Receipt{
		ID:          utils.NewID(),
		SaleID:      sale.ID,
		ReceiptData: string(rawPayload),
		CreatedAt:   time.Now(),
	}
	if err := tx.Create(&receipt).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to write receipt: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

// writeSaleItems does the bulk part of the pipeline inside the open
// transaction: one prefetch, one multi-row insert, one CASE decrement.
func writeSaleItems(tx *gorm.DB, sale *models.Sale, inputs []SaleItemInput) error {
	// Aggregate quantities per inventory id (the same item can appear on
	// two cart lines) and sort the ids. Sorted order means two concurrent
	// sales lock overlapping rows in the same sequence and serialize
	// instead of deadlocking.
	qtyByID := make(map[string]int, len(inputs))
	for _, in := range inputs {
		qtyByID[in.InventoryID] += in.Quantity
	}
	ids := make([]string, 0, len(qtyByID))
	for id := range qtyByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Batch prefetch: one query for every referenced item instead of N
	// sequential lookups.
	var stock []models.InventoryItem
	if err := tx.Where("id IN ?", ids).Find(&stock).Error; err != nil {
		return fmt.Errorf("failed to read inventory: %w", err)
	}
	if len(stock) != len(ids) {
		found := make(map[string]bool, len(stock))
		for _, s := range stock {
			found[s.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return fmt.Errorf("unknown inventory item: %s", id)
			}
		}
	}
	costByID := make(map[string]float64, len(stock))
	for _, s := range stock {
		costByID[s.ID] = s.CostPrice
	}

	// Bulk multi-row insert, capturing each item's cost price at this
	// moment. Cost must not be looked up later: it changes.
	items := make([]models.SaleItem, len(inputs))
	for i, in := range inputs {
		items[i] = models.SaleItem{
			ID:          utils.NewID(),
			SaleID:      sale.ID,
			InventoryID: in.InventoryID,
			Name:        in.Name,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       in.Total,
			Wholesale:   in.Wholesale,
			CostPrice:   costByID[in.InventoryID],
			CreatedAt:   time.Now(),
		}
	}
	if err := tx.Create(&items).Error; err != nil {
		return fmt.Errorf("failed to create sale items: %w", err)
	}
	sale.Items = items

	// One CASE-based UPDATE decrements every referenced row in a single
	// statement, whatever the cart size.
	var sql strings.Builder
	args := make([]interface{}, 0, 2*len(ids)+len(ids))
	sql.WriteString("UPDATE inventory SET quantity = CASE id ")
	for _, id := range ids {
		sql.WriteString("WHEN ? THEN quantity - ? ")
		args = append(args, id, qtyByID[id])
	}
	sql.WriteString("ELSE quantity END WHERE id IN (")
	for i, id := range ids {
		if i > 0 {
			sql.WriteString(",")
		}
		sql.WriteString("?")
		args = append(args, id)
	}
	sql.WriteString(")")

	if err := tx.Exec(sql.String(), args...).Error; err != nil {
		return fmt.Errorf("failed to update stock: %w", err)
	}
	return nil
}
