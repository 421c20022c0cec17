package events

import (
	"context"
	"encoding/json"
	"fmt"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory/models"

	"gorm.io/gorm"
)

const (
	defaultValue    = 100
	defaultSeverity = 50
)

// QueueEmitter stores events in the event queue table.
type QueueEmitter struct{}

// Emit inserts ev into eventq using db.
func (QueueEmitter) Emit(ctx context.Context, db *gorm.DB, ev reconcile.Event) error {
	row := models.EventQueue{
		Source:      ev.Source,
		Target:      ev.Target,
		DeviceID:    ev.DeviceID,
		SubID:       ev.SubID,
		Time:        ev.Time,
		EventTypeID: ev.EventType,
		State:       string(ev.State),
		Value:       defaultValue,
		Severity:    defaultSeverity,
	}
	if ev.NetboxID != 0 {
		row.NetboxID = &ev.NetboxID
	}
	if len(ev.Vars) > 0 {
		vars, err := json.Marshal(ev.Vars)
		if err != nil {
			return fmt.Errorf("failed to encode event vars: %w", err)
		}
		row.Vars = string(vars)
	}

	if err := db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to queue %s event: %w", ev.EventType, err)
	}
	return nil
}
