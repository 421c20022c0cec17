package inventory

import (
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory/descrparsers"
	"inventory-reconciler/feature/inventory/models"
)

// Entity types, in declaration order.
const (
	TypeNetboxType       reconcile.TypeName = "NetboxType"
	TypeDevice           reconcile.TypeName = "Device"
	TypeNetbox           reconcile.TypeName = "Netbox"
	TypeModule           reconcile.TypeName = "Module"
	TypeInterface        reconcile.TypeName = "Interface"
	TypeVlan             reconcile.TypeName = "Vlan"
	TypePrefix           reconcile.TypeName = "Prefix"
	TypeGwPortPrefix     reconcile.TypeName = "GwPortPrefix"
	TypeArp              reconcile.TypeName = "Arp"
	TypeSensor           reconcile.TypeName = "Sensor"
	TypePowerSupplyOrFan reconcile.TypeName = "PowerSupplyOrFan"
	TypeNetboxInfo       reconcile.TypeName = "NetboxInfo"
)

// Segment classifications.
const (
	NetTypeLoopback = "loopback"
	NetTypeElink    = "elink"
	NetTypeLink     = "link"
	NetTypeCore     = "core"
	NetTypeLan      = "lan"
	NetTypeScope    = "scope"
	NetTypeUnknown  = "unknown"
)

// NewRegistry builds the inventory type registry with the given policies.
func NewRegistry(cfg Config) (*reconcile.Registry, error) {
	return reconcile.NewRegistry(TypeNetbox, Descriptors(cfg)...)
}

// Descriptors returns the inventory type descriptors.
func Descriptors(cfg Config) []reconcile.Descriptor {
	cfg = cfg.withDefaults()

	return []reconcile.Descriptor{
		{
			Name:    TypeNetboxType,
			Model:   func() any { return &models.NetboxType{} },
			Label:   "sysobjectid",
			Fields:  fields("sysobjectid", "vendor", "name", "description"),
			Lookups: [][]string{{"sysobjectid"}},
		},
		{
			Name:    TypeDevice,
			Model:   func() any { return &models.Device{} },
			Label:   "serial",
			Fields:  fields("serial", "hardware_version", "firmware_version", "software_version"),
			Lookups: [][]string{{"serial"}},
			Hooks:   deviceHooks{},
		},
		{
			Name:  TypeNetbox,
			Model: func() any { return &models.Netbox{} },
			Label: "sysname",
			Fields: append(fields("sysname", "ip", "category", "up"),
				reconcile.Field{Attr: "type", Ref: TypeNetboxType},
				reconcile.Field{Attr: "device", Ref: TypeDevice},
			),
		},
		{
			Name:  TypeModule,
			Model: func() any { return &models.Module{} },
			Label: "name",
			Fields: append(fields("name", "model", "description", "up"),
				reconcile.Field{Attr: "netbox", Ref: TypeNetbox},
				reconcile.Field{Attr: "device", Ref: TypeDevice},
			),
			Lookups: [][]string{{"netbox", "device"}, {"netbox", "name"}},
			Hooks:   moduleHooks{cfg: cfg},
		},
		{
			Name:  TypeInterface,
			Model: func() any { return &models.Interface{} },
			Label: "ifname",
			Fields: append(fields("ifindex", "ifname", "ifdescr", "ifalias"),
				reconcile.Field{Attr: "netbox", Ref: TypeNetbox},
				reconcile.Field{Attr: "module", Ref: TypeModule},
			),
			Lookups: [][]string{{"netbox", "ifindex"}, {"netbox", "ifname"}},
		},
		{
			Name:  TypeVlan,
			Model: func() any { return &models.Vlan{} },
			Label: "net_ident",
			Fields: append(fields("vlan", "net_type", "net_ident", "description"),
				reconcile.Field{Attr: "organization", Column: "org_id"},
				reconcile.Field{Attr: "usage", Column: "usage_id"},
			),
			Hooks: vlanHooks{cfg: cfg, parsers: descrparsers.Default},
		},
		{
			Name:  TypePrefix,
			Model: func() any { return &models.Prefix{} },
			Label: "net_address",
			Fields: append(fields("net_address"),
				reconcile.Field{Attr: "vlan", Ref: TypeVlan},
			),
			Lookups: [][]string{{"net_address", "vlan"}, {"net_address"}},
			Hooks:   prefixHooks{cfg: cfg},
		},
		{
			Name:  TypeGwPortPrefix,
			Model: func() any { return &models.GwPortPrefix{} },
			Label: "gw_ip",
			Fields: append(fields("gw_ip", "virtual"),
				reconcile.Field{Attr: "interface", Ref: TypeInterface},
				reconcile.Field{Attr: "prefix", Ref: TypePrefix},
			),
			Lookups: [][]string{{"gw_ip"}},
			Hooks:   gwPortPrefixHooks{},
		},
		{
			Name:  TypeArp,
			Model: func() any { return &models.Arp{} },
			Label: "ip",
			Fields: append(fields("ip", "mac", "start_time", "end_time"),
				reconcile.Field{Attr: "netbox", Ref: TypeNetbox},
				reconcile.Field{Attr: "prefix", Ref: TypePrefix},
			),
			Hooks: arpHooks{},
		},
		{
			Name:  TypeSensor,
			Model: func() any { return &models.Sensor{} },
			Label: "internal_name",
			Fields: append(fields("internal_name", "mib", "oid", "name", "unit", "precision", "human_readable"),
				reconcile.Field{Attr: "netbox", Ref: TypeNetbox},
			),
			Lookups: [][]string{{"netbox", "internal_name", "mib"}},
			Hooks:   staleRowHooks{typ: TypeSensor, label: "internal_name"},
		},
		{
			Name:  TypePowerSupplyOrFan,
			Model: func() any { return &models.PowerSupplyOrFan{} },
			Label: "name",
			Fields: append(fields("name", "model", "descr", "physical_class", "up"),
				reconcile.Field{Attr: "netbox", Ref: TypeNetbox},
				reconcile.Field{Attr: "device", Ref: TypeDevice},
			),
			Lookups: [][]string{{"netbox", "name"}},
			Hooks:   staleRowHooks{typ: TypePowerSupplyOrFan, label: "name"},
		},
		{
			Name:  TypeNetboxInfo,
			Model: func() any { return &models.NetboxInfo{} },
			Label: "key",
			Fields: append(fields("key"),
				reconcile.Field{Attr: "variable", Column: "var"},
				reconcile.Field{Attr: "value", Column: "val"},
				reconcile.Field{Attr: "netbox", Ref: TypeNetbox},
			),
			Lookups:  [][]string{{"netbox", "key", "variable"}},
			Priority: reconcile.PriorityLast,
		},
	}
}

func fields(attrs ...string) []reconcile.Field {
	out := make([]reconcile.Field, len(attrs))
	for i, a := range attrs {
		out[i] = reconcile.Field{Attr: a}
	}
	return out
}
