package inventory

import (
	"context"
	"strings"

	"inventory-reconciler/core/reconcile"

	"go.uber.org/zap"
)

// staleRowHooks deletes the netbox's stored rows of typ that were not
// observed this run.
type staleRowHooks struct {
	reconcile.NopHooks
	typ   reconcile.TypeName
	label string
}

func (h staleRowHooks) Cleanup(ctx context.Context, s *reconcile.Scope, observed []*reconcile.Record) error {
	seen := observedIDs(observed)
	rows, err := s.Find(ctx, h.typ, map[string]any{"netbox_id": s.Subject().ID()})
	if err != nil {
		return err
	}

	var ids []int64
	var names []string
	for _, row := range rows {
		if !seen[row.ID()] {
			ids = append(ids, row.ID())
			names = append(names, row.String(h.label))
		}
	}
	if len(ids) == 0 {
		return nil
	}

	n, err := s.Delete(ctx, h.typ, ids)
	if err != nil {
		return err
	}
	s.Log.Info("deleted missing rows",
		zap.String("type", string(h.typ)),
		zap.Int("count", n),
		zap.String("names", strings.Join(names, ", ")),
	)
	return nil
}
