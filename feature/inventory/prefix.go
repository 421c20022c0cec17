package inventory

import (
	"context"
	"slices"

	"inventory-reconciler/core/reconcile"

	"go.uber.org/zap"
)

type prefixHooks struct {
	reconcile.NopHooks
	cfg Config
}

// Save lets only authoritative netboxes overwrite a stored prefix. Others may
// still create new ones.
func (h prefixHooks) Save(_ context.Context, s *reconcile.Scope, rec *reconcile.Record) (reconcile.SaveMode, error) {
	if !rec.Resolved() {
		return reconcile.SaveFull, nil
	}
	category := s.Subject().Existing().String("category")
	if slices.Contains(h.cfg.AuthoritativeCategories, category) {
		return reconcile.SaveFull, nil
	}
	s.Log.Debug("not updating existing prefix from a non-authoritative netbox",
		zap.String("net_address", rec.Str("net_address")),
		zap.String("category", category),
	)
	return reconcile.SaveSkip, nil
}
