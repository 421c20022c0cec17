package inventory

import (
	"context"
	"fmt"

	"inventory-reconciler/feature/inventory/models"

	"gorm.io/gorm"
)

// CountRouters returns how many distinct netboxes of the gateway categories
// have a router port address inside netAddress. The netbox with id
// includeNetbox is counted whenever its own category qualifies.
func CountRouters(ctx context.Context, db *gorm.DB, netAddress string, includeNetbox int64, categories []string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&models.Netbox{}).
		Joins("LEFT JOIN interface ON interface.netbox_id = netbox.id").
		Joins("LEFT JOIN gwportprefix ON gwportprefix.interface_id = interface.id").
		Joins("LEFT JOIN prefix ON prefix.id = gwportprefix.prefix_id").
		Where("netbox.category IN ?", categories).
		Where("prefix.net_address = ? OR netbox.id = ?", netAddress, includeNetbox).
		Distinct("netbox.id").
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count routers for %s: %w", netAddress, err)
	}
	return n, nil
}
