package handlers

import (
	"net/http"
	"time"

	"go-pharmacy-pos/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetSystemStatus reports the serving process identity. The same values ride
// on every response as headers; this endpoint exists for clients that want
// them without making a data request.
func GetSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "online",
		"device_id":   utils.GetDeviceID(),
		"instance_id": utils.InstanceID(),
		"started_at":  utils.StartedAt().UTC().Format(time.RFC3339),
	})
}
