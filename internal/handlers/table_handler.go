package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-pharmacy-pos/internal/audit"
	"go-pharmacy-pos/internal/database"
	"go-pharmacy-pos/internal/events"
	"go-pharmacy-pos/internal/filter"
	"go-pharmacy-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

// actorEntry seeds an audit entry with the identity the middleware resolved.
func actorEntry(c *gin.Context) audit.Entry {
	return audit.Entry{
		UserID:    c.GetString("userID"),
		UserEmail: c.GetString("userEmail"),
		UserRole:  c.GetString("role"),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// --- GET: generic filtered read ---
func ListRows(c *gin.Context) {
	name := strings.ToLower(c.Param("table"))
	if !filter.ValidName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table name"})
		return
	}

	// Unknown table is a probe, not an error.
	tbl, ok := filter.Lookup(name)
	if !ok {
		c.JSON(http.StatusOK, []gin.H{})
		return
	}

	tr, err := filter.Translate(tbl, c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows := []map[string]interface{}{}
	if err := tr.Apply(database.DB.Table(tbl.Name)).Find(&rows).Error; err != nil {
		if isMissingTable(err) {
			c.JSON(http.StatusOK, []gin.H{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	for _, row := range rows {
		tbl.ShapeRow(row)
	}
	c.JSON(http.StatusOK, rows)
}

// --- POST: generic insert ---
func InsertRow(c *gin.Context) {
	tbl, ok := writableTable(c)
	if !ok {
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if err := normalizeRow(tbl, body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, _ := body["id"].(string)
	if id == "" {
		id = utils.NewID()
		body["id"] = id
	}
	if tbl.Name == "inventory" {
		if sku, _ := body["sku"].(string); sku == "" {
			cat, _ := body["category"].(string)
			itemName, _ := body["name"].(string)
			body["sku"] = utils.GenerateSKU(cat, itemName)
		}
	}
	stampColumn(tbl, body, "created_at")
	stampColumn(tbl, body, "updated_at")

	if err := database.DB.Table(tbl.Name).Create(body).Error; err != nil {
		status, msg := translateDBError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	entry := actorEntry(c)
	entry.EventType = audit.EventRowInserted
	entry.Action = fmt.Sprintf("Inserted row into %s", tbl.Name)
	entry.ResourceType = tbl.Name
	entry.ResourceID = id
	audit.Log(entry)
	events.Emit(tbl.Name, body)

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

// --- PATCH: generic update ---
func UpdateRows(c *gin.Context) {
	tbl, ok := writableTable(c)
	if !ok {
		return
	}

	tr, err := filter.Translate(tbl, c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	// The id is an identity, not a mutable field.
	delete(patch, "id")
	if err := normalizeRow(tbl, patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stampColumn(tbl, patch, "updated_at")

	// Refund approval is a conditional side effect of this generic update,
	// handled by its own guarded pipeline.
	if tbl.Name == "refunds" && patch["status"] == "approved" {
		approveRefunds(c, tr, patch)
		return
	}

	q := database.DB.Table(tbl.Name)
	if len(tr.Conditions) > 0 {
		cond, args := tr.Where()
		q = q.Where(cond, args...)
	}
	res := q.Updates(patch)
	if res.Error != nil {
		status, msg := translateDBError(res.Error)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	entry := actorEntry(c)
	entry.EventType = audit.EventRowUpdated
	entry.Action = fmt.Sprintf("Updated %d row(s) in %s", res.RowsAffected, tbl.Name)
	entry.ResourceType = tbl.Name
	entry.Details = patch
	audit.Log(entry)
	events.Emit(tbl.Name, patch)

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": res.RowsAffected})
}

// approveRefunds applies the non-status fields of the patch, then runs the
// guarded approval per matched refund. The status transition persists even
// when restoration stumbles (logged inside ApproveRefund).
func approveRefunds(c *gin.Context, tr *filter.Translation, patch map[string]interface{}) {
	var ids []string
	q := database.DB.Table("refunds")
	if len(tr.Conditions) > 0 {
		cond, args := tr.Where()
		q = q.Where(cond, args...)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		status, msg := translateDBError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	rest := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		if k != "status" {
			rest[k] = v
		}
	}
	if len(rest) > 0 && len(ids) > 0 {
		if err := database.DB.Table("refunds").Where("id IN ?", ids).Updates(rest).Error; err != nil {
			status, msg := translateDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
	}

	approved := 0
	for _, id := range ids {
		refund, transitioned, err := database.ApproveRefund(id)
		if err != nil {
			status, msg := translateDBError(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}
		if !transitioned {
			continue
		}
		approved++

		entry := actorEntry(c)
		entry.EventType = audit.EventRefundApproved
		entry.Action = fmt.Sprintf("Approved refund %s", id)
		entry.ResourceType = "refunds"
		entry.ResourceID = id
		entry.Details = gin.H{"sale_id": refund.SaleID, "amount": refund.Amount, "items": len(refund.Items)}
		audit.Log(entry)
		events.Emit("refunds", refund)
		events.Emit("inventory", gin.H{"refund_id": id})
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "updated": approved})
}

// --- DELETE: generic delete, conditions mandatory ---
func DeleteRows(c *gin.Context) {
	tbl, ok := writableTable(c)
	if !ok {
		return
	}

	tr, err := filter.Translate(tbl, c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(tr.Conditions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delete requires at least one condition"})
		return
	}

	cond, args := tr.Where()
	res := database.DB.Exec("DELETE FROM "+tbl.Name+" WHERE "+cond, args...)
	if res.Error != nil {
		status, msg := translateDBError(res.Error)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	entry := actorEntry(c)
	entry.EventType = audit.EventRowDeleted
	entry.Action = fmt.Sprintf("Deleted %d row(s) from %s", res.RowsAffected, tbl.Name)
	entry.ResourceType = tbl.Name
	audit.Log(entry)
	events.Emit(tbl.Name, gin.H{"deleted": res.RowsAffected})

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": res.RowsAffected})
}

// writableTable resolves :table for mutating verbs. Unlike reads, writes on
// unknown tables are rejected outright.
func writableTable(c *gin.Context) (*filter.Table, bool) {
	name := strings.ToLower(c.Param("table"))
	if !filter.ValidName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table name"})
		return nil, false
	}
	tbl, ok := filter.Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown table"})
		return nil, false
	}
	return tbl, true
}

// normalizeRow rejects unknown columns and flattens nested values (the
// refund item list arrives as a JSON array) into text columns.
func normalizeRow(tbl *filter.Table, row map[string]interface{}) error {
	for k, v := range row {
		if !filter.ValidName(k) || !tbl.HasColumn(k) {
			return fmt.Errorf("unknown column: %s", k)
		}
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			b, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("invalid value for column %s", k)
			}
			row[k] = string(b)
		}
	}
	return nil
}

func stampColumn(tbl *filter.Table, row map[string]interface{}, col string) {
	if tbl.HasColumn(col) {
		if _, set := row[col]; !set {
			row[col] = time.Now()
		}
	}
}
