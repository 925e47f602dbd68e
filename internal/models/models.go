package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// User - resolved by the audit logger to backfill actor identity.
// Tokens are issued by an external system; we only look users up.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:50" json:"username"`
	Email     string    `gorm:"size:120" json:"email"`
	Role      string    `gorm:"size:20" json:"role"` // 'admin', 'manager', 'cashier'
	CreatedAt time.Time `json:"created_at"`
}

// InventoryItem - the pharmacy stock
type InventoryItem struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Name              string    `gorm:"size:120" json:"name"`
	SKU               string    `gorm:"column:sku;size:40;index" json:"sku"`
	Category          string    `gorm:"size:60" json:"category"`
	Quantity          int       `json:"quantity"`
	UnitPrice         float64   `json:"unit_price"`
	CostPrice         float64   `json:"cost_price"`
	LowStockThreshold int       `json:"low_stock_threshold"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName keeps the wire name 'inventory' instead of gorm's default.
func (InventoryItem) TableName() string { return "inventory" }

// Sale - the transaction header. Totals are caller-supplied and stored as-is.
type Sale struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"size:36;index" json:"user_id"`
	Total          float64    `json:"total"`
	Discount       float64    `json:"discount"`        // percentage
	ManualDiscount float64    `json:"manual_discount"` // absolute amount
	TaxAmount      float64    `json:"tax_amount"`
	PaymentMethod  string     `gorm:"size:30" json:"payment_method"`
	CustomerName   string     `gorm:"size:120" json:"customer_name"`
	CustomerPhone  string     `gorm:"size:30" json:"customer_phone"`
	BusinessName   string     `gorm:"size:120" json:"business_name"`
	SaleType       string     `gorm:"size:20" json:"sale_type"` // 'retail' or 'wholesale'
	TransactionID  string     `gorm:"size:40;index" json:"transaction_id"`
	CashierID      string     `gorm:"size:36" json:"cashier_id"`
	CashierName    string     `gorm:"size:120" json:"cashier_name"`
	CreatedAt      time.Time  `json:"created_at"`
	Items          []SaleItem `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"items"`
}

// SaleItem - one cart line. CostPrice is copied from inventory at sale time
// so profit reports stay correct when the cost changes later.
type SaleItem struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	SaleID      string    `gorm:"size:36;index" json:"sale_id"`
	InventoryID string    `gorm:"size:36;index" json:"inventory_id"`
	Name        string    `gorm:"size:120" json:"name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Total       float64   `json:"total"`
	Wholesale   bool      `json:"wholesale"`
	CostPrice   float64   `json:"cost_price"`
	CreatedAt   time.Time `json:"created_at"`

	// Weak reference: deleting an inventory row that sales point at must
	// fail on the constraint, never cascade.
	Item *InventoryItem `gorm:"foreignKey:InventoryID;constraint:OnDelete:RESTRICT" json:"item,omitempty"`
}

// RefundItem is one element of the JSON list stored on a refund.
type RefundItem struct {
	InventoryID string  `json:"inventory_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// RefundItemList is stored as a JSON text column.
type RefundItemList []RefundItem

func (l *RefundItemList) Scan(value interface{}) error {
	if value == nil {
		*l = RefundItemList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("failed to scan RefundItemList: %v", value)
	}
}

func (l RefundItemList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	return string(b), err
}

// Refund - status moves pending -> approved|rejected, one way only.
type Refund struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	SaleID    string         `gorm:"size:36;index" json:"sale_id"`
	Amount    float64        `json:"amount"`
	Reason    string         `gorm:"size:255" json:"reason"`
	Type      string         `gorm:"size:20" json:"type"`                   // 'full' or 'partial'
	Status    string         `gorm:"size:20;default:pending" json:"status"` // 'pending', 'approved', 'rejected'
	Items     RefundItemList `gorm:"type:text" json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Receipt - a denormalized snapshot of the completion payload, kept verbatim
// so reprints stay exact even if the sale rows are edited afterwards.
type Receipt struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	SaleID      string    `gorm:"size:36;index" json:"sale_id"`
	ReceiptData string    `gorm:"type:text" json:"receipt_data"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditLog - append-only. Rows are never updated or deleted.
type AuditLog struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;index" json:"user_id"`
	UserEmail    string    `gorm:"size:120" json:"user_email"`
	UserRole     string    `gorm:"size:20" json:"user_role"`
	EventType    string    `gorm:"size:50;index" json:"event_type"`
	Action       string    `gorm:"size:255" json:"action"`
	Status       string    `gorm:"size:20" json:"status"`
	ResourceType string    `gorm:"size:50" json:"resource_type"`
	ResourceID   string    `gorm:"size:36" json:"resource_id"`
	Details      string    `gorm:"type:text" json:"details"`
	IPAddress    string    `gorm:"size:45" json:"ip_address"`
	UserAgent    string    `gorm:"size:255" json:"user_agent"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}
