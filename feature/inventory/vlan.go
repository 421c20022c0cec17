package inventory

import (
	"context"
	"net/netip"
	"sort"
	"strings"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory/descrparsers"
	"inventory-reconciler/feature/inventory/models"

	"go.uber.org/zap"
)

type vlanHooks struct {
	reconcile.NopHooks
	cfg     Config
	parsers []descrparsers.Parser
}

// FindExisting matches a segment by net_ident and vlan number first, then
// through the stored vlan of any prefix attached to it this run. A stored
// vlan found through a prefix is adopted only when its number is unset or
// equal to the collected one.
func (h vlanHooks) FindExisting(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) (int64, bool, error) {
	if ident := rec.Str("net_ident"); ident != "" {
		rows, err := s.Find(ctx, TypeVlan, map[string]any{"net_ident": ident, "vlan": rec.Get("vlan")})
		if err != nil {
			return 0, false, err
		}
		if len(rows) > 0 {
			if len(rows) > 1 {
				s.Log.Debug("several vlans share net_ident and number", zap.Stringer("vlan", rec), zap.Int("matches", len(rows)))
			}
			return rows[0].ID(), true, nil
		}
	}

	stored, err := h.vlanOfPrefixes(ctx, s, rec)
	if err != nil || stored == nil {
		return 0, false, err
	}
	if stored.IsNull("vlan") {
		return stored.ID(), true, nil
	}
	number, _ := stored.Int64("vlan")
	if collected, ok := rec.Int("vlan"); ok && collected == number {
		return stored.ID(), true, nil
	}
	return 0, false, nil
}

// vlanOfPrefixes returns the stored vlan of the first attached prefix that
// already exists with a vlan.
func (h vlanHooks) vlanOfPrefixes(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) (database.Row, error) {
	for _, pfx := range prefixesOf(s, rec) {
		var stored []database.Row
		if pfx.Resolved() {
			row, ok, err := s.Get(ctx, TypePrefix, pfx.ID())
			if err != nil {
				return nil, err
			}
			if ok {
				stored = append(stored, row)
			}
		} else if addr := pfx.Str("net_address"); addr != "" {
			rows, err := s.Find(ctx, TypePrefix, map[string]any{"net_address": addr})
			if err != nil {
				return nil, err
			}
			stored = rows
		}

		for _, row := range stored {
			vlanID, ok := row.Int64("vlan_id")
			if !ok {
				continue
			}
			vlan, found, err := s.Get(ctx, TypeVlan, vlanID)
			if err != nil || found {
				return vlan, err
			}
		}
	}
	return nil, nil
}

// Prepare fills segment details from router port descriptions and guesses
// the net type when none was collected.
func (h vlanHooks) Prepare(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) error {
	h.enrichFromDescriptions(s, rec)

	if nt := rec.Str("net_type"); nt == "" || nt == NetTypeUnknown {
		netType, err := h.guessNetType(ctx, s, rec)
		if err != nil {
			return err
		}
		rec.Set("net_type", netType)
	}
	return nil
}

// enrichFromDescriptions parses the alias of every router port addressing a
// prefix of this segment. When no convention matches, the raw alias becomes
// the segment's net_ident.
func (h vlanHooks) enrichFromDescriptions(s *reconcile.Scope, rec *reconcile.Record) {
	c := s.Run.Container
	sysname := s.Subject().Existing().String("sysname")

	for _, pfx := range prefixesOf(s, rec) {
		for _, gwp := range c.Referrers(TypeGwPortPrefix, "prefix", pfx) {
			iface := gwp.Ref("interface")
			if iface == nil || iface.Str("ifalias") == "" {
				continue
			}
			alias := iface.Str("ifalias")

			res := descrparsers.Parse(h.parsers, sysname, alias)
			if res == nil {
				s.Log.Debug("ifalias matches no description convention", zap.String("ifalias", alias))
				rec.Set("net_ident", alias)
				continue
			}
			if res.NetType != "" {
				rec.Set("net_type", strings.ToLower(res.NetType))
			}
			if res.NetIdent != "" {
				rec.Set("net_ident", res.NetIdent)
			}
			if res.Usage != "" {
				rec.Set("usage", res.Usage)
			}
			if res.Comment != "" {
				rec.Set("description", res.Comment)
			}
			if res.Org != "" {
				rec.Set("organization", res.Org)
			}
		}
	}
}

// guessNetType classifies the segment from its attached prefixes, IPv4
// first, and the number of gateway devices routing the chosen prefix.
func (h vlanHooks) guessNetType(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) (string, error) {
	var candidates []netip.Prefix
	raw := make(map[netip.Prefix]string)
	for _, pfx := range prefixesOf(s, rec) {
		addr := pfx.Str("net_address")
		p, err := netip.ParsePrefix(addr)
		if err != nil {
			s.Log.Warn("ignoring unparsable prefix", zap.String("net_address", addr), zap.Error(err))
			continue
		}
		candidates = append(candidates, p)
		raw[p] = addr
	}
	if len(candidates) == 0 {
		return NetTypeUnknown, nil
	}
	if len(candidates) > 1 {
		s.Log.Debug("segment has several prefixes", zap.Stringer("vlan", rec), zap.Int("prefixes", len(candidates)))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Addr().Is4() && !candidates[j].Addr().Is4()
	})
	prefix := candidates[0]

	if prefix.IsSingleIP() {
		return NetTypeLoopback, nil
	}
	routers, err := CountRouters(ctx, s.DB, raw[prefix], s.Subject().ID(), h.cfg.GatewayCategories)
	if err != nil {
		return "", err
	}
	return ClassifyPrefix(prefix, routers), nil
}

// ClassifyPrefix derives a net type from a prefix and the number of gateway
// devices routing it.
func ClassifyPrefix(prefix netip.Prefix, routers int64) string {
	if prefix.IsSingleIP() {
		return NetTypeLoopback
	}
	netType := NetTypeLan
	if prefix.Addr().Is4() && (prefix.Bits() == 30 || prefix.Bits() == 31) {
		netType = NetTypeLink
		if routers == 1 {
			netType = NetTypeElink
		}
	}
	switch {
	case routers > 2:
		netType = NetTypeCore
	case routers == 2:
		netType = NetTypeLink
	}
	return netType
}

// Save skips segments without prefixes this run and never overwrites a
// stored scope segment; prefixes reported on a scope are moved onto it.
func (h vlanHooks) Save(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record) (reconcile.SaveMode, error) {
	prefixes := prefixesOf(s, rec)
	if len(prefixes) == 0 {
		s.Log.Debug("no prefixes attached, not saving vlan", zap.Stringer("vlan", rec))
		return reconcile.SaveSkip, nil
	}

	if existing := rec.Existing(); existing != nil && existing.String("net_type") == NetTypeScope {
		addrs := make([]string, 0, len(prefixes))
		for _, pfx := range prefixes {
			pfx.Set("vlan", reconcile.CanonicalID(rec.ID()))
			addrs = append(addrs, pfx.Str("net_address"))
		}
		s.Log.Warn("interface claims to be on a scope prefix, not changing vlan",
			zap.Stringer("vlan", rec),
			zap.Strings("prefixes", addrs),
		)
		return reconcile.SaveSkip, nil
	}

	if err := dropUnknown(ctx, s, rec, "organization", &models.Organization{}); err != nil {
		return reconcile.SaveFull, err
	}
	if err := dropUnknown(ctx, s, rec, "usage", &models.Usage{}); err != nil {
		return reconcile.SaveFull, err
	}
	return reconcile.SaveFull, nil
}

func dropUnknown(ctx context.Context, s *reconcile.Scope, rec *reconcile.Record, attr string, model any) error {
	id := rec.Str(attr)
	if id == "" {
		return nil
	}
	_, ok, err := database.Get(ctx, s.DB, model, id)
	if err != nil || ok {
		return err
	}
	s.Log.Warn("ignoring unknown "+attr+" id", zap.String(attr, id), zap.Stringer("vlan", rec))
	rec.Set(attr, nil)
	return nil
}

func prefixesOf(s *reconcile.Scope, vlan *reconcile.Record) []*reconcile.Record {
	return s.Run.Container.Referrers(TypePrefix, "vlan", vlan)
}
