// Package database handles database connections, generic row access and
// schema inspection.
//
// # Connect
//
// Connect opens a GORM handle for MySQL (production) or sqlite (local runs and
// tests) based on Config.Driver.
//
// # Rows
//
// Find, Get, Insert, Update and Delete operate on any GORM model and exchange
// data as Row values keyed by column name. The reconciliation engine uses them
// so that entity types can be described declaratively instead of with one
// repository per table.
//
// # Schema Inspection
//
// GetTableColumns and CheckModels compare live tables against the models the
// application expects, which backs the check-schema command.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	rows, err := database.Find(ctx, db, &models.Module{}, map[string]any{"netbox_id": 7})
package database
