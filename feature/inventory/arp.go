package inventory

import (
	"context"

	"inventory-reconciler/core/reconcile"
)

type arpHooks struct {
	reconcile.NopHooks
}

// Save patches a known association with only the attributes collected this
// run, so closing an entry never rewrites its start time.
func (arpHooks) Save(_ context.Context, _ *reconcile.Scope, rec *reconcile.Record) (reconcile.SaveMode, error) {
	if rec.Resolved() {
		return reconcile.SavePatch, nil
	}
	return reconcile.SaveFull, nil
}
