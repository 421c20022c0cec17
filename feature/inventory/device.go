package inventory

import (
	"context"

	"inventory-reconciler/core/reconcile"

	"go.uber.org/zap"
)

type deviceHooks struct {
	reconcile.NopHooks
}

// FindExisting reuses the chassis device already attached to the polled
// netbox when this run did not collect a serial for it.
func (deviceHooks) FindExisting(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) (int64, bool, error) {
	if rec.Touched("serial") {
		return 0, false, nil
	}
	subject := s.Subject()
	if subject.Ref("device") != rec {
		return 0, false, nil
	}
	id, ok := subject.Existing().Int64("device_id")
	if !ok {
		return 0, false, nil
	}
	s.Log.Debug("no serial collected, reusing the netbox device", zap.Int64("device_id", id))
	return id, true, nil
}
