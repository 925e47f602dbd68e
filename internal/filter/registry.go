package filter

import (
	"strconv"

	"go-pharmacy-pos/internal/utils"
)

// Table is one entry of the closed dispatch registry: only registered tables
// are reachable through the generic /api/:table surface, each with an
// allow-listed column set and optional response shaping. This keeps the
// translator generic without exposing internal tables by accident.
type Table struct {
	Name         string
	Columns      map[string]bool
	Money        []string // columns coerced to float64 in responses
	DefaultOrder string
	PostProcess  func(row map[string]interface{})
}

func (t *Table) HasColumn(c string) bool { return t.Columns[c] }

// ShapeRow applies per-table presentation mapping after the query ran.
// This is deliberately outside the filter grammar.
func (t *Table) ShapeRow(row map[string]interface{}) {
	for _, col := range t.Money {
		if v, ok := row[col]; ok {
			row[col] = coerceNumber(v)
		}
	}
	if t.PostProcess != nil {
		t.PostProcess(row)
	}
}

var registry = map[string]*Table{}

func register(t *Table) { registry[t.Name] = t }

// Lookup returns the registry entry for a table name.
func Lookup(name string) (*Table, bool) {
	t, ok := registry[name]
	return t, ok
}

func columns(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// coerceNumber turns driver-dependent monetary values ([]byte from mysql,
// int64 from sqlite) into float64 for the JSON response.
func coerceNumber(v interface{}) interface{} {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case []byte:
		if f, err := strconv.ParseFloat(string(n), 64); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return v
}

func asString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

func init() {
	register(&Table{
		Name:    "users",
		Columns: columns("id", "username", "email", "role", "created_at"),
	})
	register(&Table{
		Name: "inventory",
		Columns: columns("id", "name", "sku", "category", "quantity",
			"unit_price", "cost_price", "low_stock_threshold", "created_at", "updated_at"),
		Money:        []string{"unit_price", "cost_price"},
		DefaultOrder: "name asc",
		PostProcess: func(row map[string]interface{}) {
			// Legacy rows imported without a SKU get one synthesized
			// on the way out.
			if asString(row["sku"]) == "" {
				row["sku"] = utils.GenerateSKU(asString(row["category"]), asString(row["name"]))
			}
		},
	})
	register(&Table{
		Name: "sales",
		Columns: columns("id", "user_id", "total", "discount", "manual_discount",
			"tax_amount", "payment_method", "customer_name", "customer_phone",
			"business_name", "sale_type", "transaction_id", "cashier_id",
			"cashier_name", "created_at"),
		Money:        []string{"total", "discount", "manual_discount", "tax_amount"},
		DefaultOrder: "created_at desc",
	})
	register(&Table{
		Name: "sale_items",
		Columns: columns("id", "sale_id", "inventory_id", "name", "quantity",
			"unit_price", "total", "wholesale", "cost_price", "created_at"),
		Money: []string{"unit_price", "total", "cost_price"},
	})
	register(&Table{
		Name: "refunds",
		Columns: columns("id", "sale_id", "amount", "reason", "type", "status",
			"items", "created_at", "updated_at"),
		Money:        []string{"amount"},
		DefaultOrder: "created_at desc",
	})
	register(&Table{
		Name:    "receipts",
		Columns: columns("id", "sale_id", "receipt_data", "created_at"),
	})
	register(&Table{
		Name: "audit_logs",
		Columns: columns("id", "user_id", "user_email", "user_role", "event_type",
			"action", "status", "resource_type", "resource_id", "details",
			"ip_address", "user_agent", "created_at"),
		DefaultOrder: "created_at desc",
	})
}
