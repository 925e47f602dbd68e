package database

import (
	"fmt"
	"log"

	"go-pharmacy-pos/internal/models"

	"gorm.io/gorm"
)

// ApproveRefund flips a refund from pending to approved and puts the
// refunded quantities back on the shelf.
//
// The transition is a single guarded UPDATE (WHERE status = 'pending'), so a
// second approval of the same refund matches zero rows and restores nothing.
// Restoration itself is best-effort per item: a failed increment is logged
// and skipped, never rolled back - a manual stock adjustment can fix a
// missed increment, but a refund stuck in limbo cannot be fixed by the
// cashier. Returns the refund and whether this call performed the
// transition.
func ApproveRefund(id string) (*models.Refund, bool, error) {
	res := DB.Model(&models.Refund{}).
		Where("id = ? AND status = ?", id, "pending").
		Update("status", "approved")
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to approve refund: %w", res.Error)
	}

	var refund models.Refund
	if err := DB.First(&refund, "id = ?", id).Error; err != nil {
		return nil, false, err
	}
	if res.RowsAffected == 0 {
		// Already approved/rejected, or unknown id caught above.
		return &refund, false, nil
	}

	for _, item := range refund.Items {
		if item.Quantity <= 0 {
			continue
		}
		// Covering UPDATE, never read-then-write in memory: a concurrent
		// sale decrementing the same row must not be lost.
		err := DB.Model(&models.InventoryItem{}).
			Where("id = ?", item.InventoryID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity)).Error
		if err != nil {
			log.Printf("refund %s: failed to restore %d units of %s: %v",
				refund.ID, item.Quantity, item.InventoryID, err)
			continue
		}
	}

	return &refund, true, nil
}
