package events

import (
	"context"

	"inventory-reconciler/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Fanout delivers every event to a primary emitter and then to any number
// of secondary ones. The primary writes inside the caller's transaction.
// Secondaries get no DB handle and are delivered only after it commits.
// Only primary failures are returned; secondary failures are logged.
type Fanout struct {
	Primary   reconcile.Emitter
	Secondary []reconcile.Emitter
	Log       *zap.Logger
}

func (f *Fanout) Emit(ctx context.Context, db *gorm.DB, ev reconcile.Event) error {
	if err := f.Primary.Emit(ctx, db, ev); err != nil {
		return err
	}
	if len(f.Secondary) == 0 {
		return nil
	}
	reconcile.AfterCommit(ctx, func(ctx context.Context) {
		for _, em := range f.Secondary {
			if err := em.Emit(ctx, nil, ev); err != nil && f.Log != nil {
				f.Log.Warn("secondary event delivery failed",
					zap.String("event_type", ev.EventType),
					zap.String("subid", ev.SubID),
					zap.Error(err),
				)
			}
		}
	})
	return nil
}
