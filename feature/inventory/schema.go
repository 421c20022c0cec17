package inventory

import (
	"context"
	"fmt"
	"slices"

	"inventory-reconciler/core/database"
	"inventory-reconciler/feature/inventory/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var netTypes = []models.NetType{
	{ID: NetTypeLan, Description: "local area network"},
	{ID: NetTypeCore, Description: "core network between routers"},
	{ID: NetTypeLink, Description: "link between two routers"},
	{ID: NetTypeElink, Description: "link to a router outside the managed network"},
	{ID: NetTypeLoopback, Description: "router loopback address"},
	{ID: NetTypeScope, Description: "routing scope", Edit: true},
	{ID: NetTypeUnknown, Description: "unclassified segment"},
	{ID: "static", Description: "statically routed network", Edit: true},
	{ID: "reserved", Description: "reserved address space", Edit: true},
}

// Migrate creates or alters every inventory table and seeds the net types.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate inventory schema: %w", err)
	}
	seed := slices.Clone(netTypes)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return fmt.Errorf("failed to seed net types: %w", err)
	}
	return nil
}

// CheckSchema reports every inventory table that is absent or lacks columns.
func CheckSchema(ctx context.Context, db *gorm.DB) ([]database.SchemaDrift, error) {
	return database.CheckModels(db.WithContext(ctx), models.All()...)
}
