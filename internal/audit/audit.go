// Package audit appends a trail entry for every state-changing operation.
// Writes here are best-effort by contract: a failed audit insert is logged
// locally and swallowed, it must never fail the business operation that
// triggered it.
package audit

import (
	"encoding/json"
	"log"
	"time"

	"go-pharmacy-pos/internal/database"
	"go-pharmacy-pos/internal/models"
	"go-pharmacy-pos/internal/utils"
)

// Event types written by the core pipelines.
const (
	EventSaleCreated    = "SALE_CREATED"
	EventRefundApproved = "REFUND_APPROVED"
	EventRowInserted    = "ROW_INSERTED"
	EventRowUpdated     = "ROW_UPDATED"
	EventRowDeleted     = "ROW_DELETED"
)

// Sentinel actor ids that are never looked up.
const (
	ActorSystem  = "system"
	ActorUnknown = "unknown"
)

// Entry is a loosely-specified audit event. Identity may be partial; Log
// backfills what it can and falls back to System/Unknown labels rather than
// ever rejecting a row.
type Entry struct {
	UserID       string
	UserEmail    string
	UserRole     string
	EventType    string
	Action       string
	Status       string
	ResourceType string
	ResourceID   string
	Details      interface{}
	IPAddress    string
	UserAgent    string
}

// Log appends the entry. Never returns an error: failure is logged and
// swallowed so callers can fire-and-forget after their own commit.
func Log(e Entry) {
	if e.UserID == "" {
		e.UserID = ActorSystem
	}

	// Backfill email/role via lookup when only an id is known.
	if e.UserID != ActorSystem && e.UserID != ActorUnknown &&
		(e.UserEmail == "" || e.UserRole == "") {
		var user models.User
		if err := database.DB.First(&user, "id = ?", e.UserID).Error; err == nil {
			if e.UserEmail == "" {
				e.UserEmail = user.Email
			}
			if e.UserRole == "" {
				e.UserRole = user.Role
			}
		}
	}
	if e.UserEmail == "" {
		e.UserEmail = "System"
	}
	if e.UserRole == "" {
		e.UserRole = "Unknown"
	}
	if e.Status == "" {
		e.Status = "success"
	}

	row := models.AuditLog{
		ID:           utils.NewID(),
		UserID:       e.UserID,
		UserEmail:    e.UserEmail,
		UserRole:     e.UserRole,
		EventType:    e.EventType,
		Action:       e.Action,
		Status:       e.Status,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		Details:      serializeDetails(e.Details),
		IPAddress:    e.IPAddress,
		UserAgent:    e.UserAgent,
		CreatedAt:    time.Now(),
	}

	if err := database.DB.Create(&row).Error; err != nil {
		log.Printf("audit: failed to write %s entry: %v", e.EventType, err)
	}
}

// serializeDetails keeps scalars as-is and marshals structured values to
// JSON text.
func serializeDetails(d interface{}) string {
	switch v := d.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
