package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go-pharmacy-pos/internal/audit"
	"go-pharmacy-pos/internal/database"
	"go-pharmacy-pos/internal/events"

	"github.com/gin-gonic/gin"
)

// CompleteSale serves both POST /api/sales and
// POST /api/functions/complete-sale - two entry points kept for backward
// compatibility with different caller conventions, one pipeline.
func CompleteSale(c *gin.Context) {
	// The raw body is kept verbatim: it becomes the receipt snapshot.
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var req database.SaleRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.UserID == "" {
		req.UserID = c.GetString("userID")
	}

	sale, err := database.CompleteSale(&req, raw)
	if err != nil {
		// The whole transaction rolled back; surface the underlying
		// message.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Post-commit side effects are fire-and-forget relative to the sale:
	// an audit failure must never unwind a committed sale.
	entry := actorEntry(c)
	entry.EventType = audit.EventSaleCreated
	entry.Action = fmt.Sprintf("Completed sale %s", sale.ID)
	entry.ResourceType = "sales"
	entry.ResourceID = sale.ID
	entry.Details = gin.H{
		"total":          sale.Total,
		"items":          len(sale.Items),
		"transaction_id": sale.TransactionID,
	}
	audit.Log(entry)

	events.Emit("sales", sale)
	events.Emit("receipts", gin.H{"sale_id": sale.ID})
	if len(sale.Items) > 0 {
		events.Emit("inventory", gin.H{"sale_id": sale.ID})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"id":             sale.ID,
		"transaction_id": sale.TransactionID,
		"total":          sale.Total,
	})
}
