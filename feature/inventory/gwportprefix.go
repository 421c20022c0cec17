package inventory

import (
	"context"
	"fmt"
	"strings"

	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory/models"

	"go.uber.org/zap"
)

type gwPortPrefixHooks struct {
	reconcile.NopHooks
}

// Cleanup deletes router port addresses of the netbox that were not
// collected this run.
func (gwPortPrefixHooks) Cleanup(ctx context.Context, s *reconcile.Scope, observed []*reconcile.Record) error {
	found := make(map[string]bool, len(observed))
	for _, rec := range observed {
		found[rec.Str("gw_ip")] = true
	}

	var stored []models.GwPortPrefix
	err := s.DB.WithContext(ctx).
		Joins("JOIN interface ON interface.id = gwportprefix.interface_id").
		Where("interface.netbox_id = ?", s.Subject().ID()).
		Order("gwportprefix.id").
		Find(&stored).Error
	if err != nil {
		return fmt.Errorf("failed to list router port addresses: %w", err)
	}

	var ids []int64
	var addrs []string
	for _, g := range stored {
		if !found[g.GwIP] {
			ids = append(ids, g.ID)
			addrs = append(addrs, g.GwIP)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	n, err := s.Delete(ctx, TypeGwPortPrefix, ids)
	if err != nil {
		return err
	}
	s.Log.Info("deleted missing addresses", zap.Int("count", n), zap.String("addresses", strings.Join(addrs, ", ")))
	return nil
}
