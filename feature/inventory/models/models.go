package models

import "time"

// NetboxType is a device type keyed by its SNMP sysObjectID.
type NetboxType struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Sysobjectid string `gorm:"column:sysobjectid;size:255;uniqueIndex"`
	Vendor      string `gorm:"column:vendor;size:64"`
	Name        string `gorm:"column:name;size:255"`
	Description string `gorm:"column:description;size:255"`
}

func (NetboxType) TableName() string { return "netbox_type" }

// Device is a physical piece of hardware identified by its serial number.
type Device struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Serial          *string `gorm:"column:serial;size:255;uniqueIndex"`
	HardwareVersion string  `gorm:"column:hardware_version;size:128"`
	FirmwareVersion string  `gorm:"column:firmware_version;size:128"`
	SoftwareVersion string  `gorm:"column:software_version;size:128"`
}

func (Device) TableName() string { return "device" }

// Netbox is a monitored network element.
type Netbox struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Sysname  string `gorm:"column:sysname;size:255;uniqueIndex"`
	IP       string `gorm:"column:ip;size:64"`
	Category string `gorm:"column:category;size:8"`
	TypeID   *int64 `gorm:"column:type_id"`
	DeviceID *int64 `gorm:"column:device_id"`
	Up       string `gorm:"column:up;size:1"`
}

func (Netbox) TableName() string { return "netbox" }

// Module is a field replaceable unit of a netbox.
type Module struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NetboxID    int64  `gorm:"column:netbox_id;uniqueIndex:module_netbox_name"`
	DeviceID    *int64 `gorm:"column:device_id;uniqueIndex"`
	Name        string `gorm:"column:name;size:255;uniqueIndex:module_netbox_name"`
	Model       string `gorm:"column:model;size:255"`
	Description string `gorm:"column:description;size:255"`
	Up          string `gorm:"column:up;size:1"`
}

func (Module) TableName() string { return "module" }

// Interface is a network interface of a netbox.
type Interface struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NetboxID int64  `gorm:"column:netbox_id;index"`
	ModuleID *int64 `gorm:"column:module_id"`
	Ifindex  *int64 `gorm:"column:ifindex"`
	Ifname   string `gorm:"column:ifname;size:255"`
	Ifdescr  string `gorm:"column:ifdescr;size:255"`
	Ifalias  string `gorm:"column:ifalias;size:255"`
}

func (Interface) TableName() string { return "interface" }

// Organization owns network segments.
type Organization struct {
	ID          string `gorm:"column:id;primaryKey;size:30"`
	Description string `gorm:"column:description;size:255"`
}

func (Organization) TableName() string { return "org" }

// Usage categorises what a network segment is used for.
type Usage struct {
	ID          string `gorm:"column:id;primaryKey;size:30"`
	Description string `gorm:"column:description;size:255"`
}

func (Usage) TableName() string { return "usage" }

// NetType is a network segment classification such as lan, link or core.
type NetType struct {
	ID          string `gorm:"column:id;primaryKey;size:32"`
	Description string `gorm:"column:description;size:255"`
	Edit        bool   `gorm:"column:edit"`
}

func (NetType) TableName() string { return "nettype" }

// Vlan is a network segment.
type Vlan struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Vlan        *int64  `gorm:"column:vlan"`
	NetType     string  `gorm:"column:net_type;size:32"`
	NetIdent    string  `gorm:"column:net_ident;size:255;index"`
	OrgID       *string `gorm:"column:org_id;size:30"`
	UsageID     *string `gorm:"column:usage_id;size:30"`
	Description string  `gorm:"column:description;size:255"`
}

func (Vlan) TableName() string { return "vlan" }

// Prefix is an IP address block attached to a segment.
type Prefix struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NetAddress string `gorm:"column:net_address;size:64;index"`
	VlanID     *int64 `gorm:"column:vlan_id"`
}

func (Prefix) TableName() string { return "prefix" }

// GwPortPrefix is a router interface address inside a prefix.
type GwPortPrefix struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	InterfaceID int64  `gorm:"column:interface_id;index"`
	PrefixID    *int64 `gorm:"column:prefix_id"`
	GwIP        string `gorm:"column:gw_ip;size:64;uniqueIndex"`
	Virtual     bool   `gorm:"column:virtual"`
}

func (GwPortPrefix) TableName() string { return "gwportprefix" }

// Arp is an observed IP to MAC association.
type Arp struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	NetboxID  *int64     `gorm:"column:netbox_id;index"`
	PrefixID  *int64     `gorm:"column:prefix_id"`
	IP        string     `gorm:"column:ip;size:64"`
	MAC       string     `gorm:"column:mac;size:17"`
	StartTime time.Time  `gorm:"column:start_time"`
	EndTime   *time.Time `gorm:"column:end_time"`
}

func (Arp) TableName() string { return "arp" }

// Sensor is an environmental or performance sensor on a netbox.
type Sensor struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NetboxID      int64  `gorm:"column:netbox_id;index"`
	InternalName  string `gorm:"column:internal_name;size:255"`
	MIB           string `gorm:"column:mib;size:255"`
	OID           string `gorm:"column:oid;size:255"`
	Name          string `gorm:"column:name;size:255"`
	Unit          string `gorm:"column:unit;size:64"`
	Precision     int64  `gorm:"column:precision"`
	HumanReadable string `gorm:"column:human_readable;size:255"`
}

func (Sensor) TableName() string { return "sensor" }

// PowerSupplyOrFan is a power supply or fan unit of a netbox.
type PowerSupplyOrFan struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NetboxID      int64  `gorm:"column:netbox_id;index"`
	DeviceID      *int64 `gorm:"column:device_id"`
	Name          string `gorm:"column:name;size:255"`
	Model         string `gorm:"column:model;size:255"`
	Descr         string `gorm:"column:descr;size:255"`
	PhysicalClass string `gorm:"column:physical_class;size:16"`
	Up            string `gorm:"column:up;size:1"`
}

func (PowerSupplyOrFan) TableName() string { return "powersupply_or_fan" }

// NetboxInfo is a free-form key/variable/value fact about a netbox.
type NetboxInfo struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	NetboxID int64  `gorm:"column:netbox_id;index"`
	Key      string `gorm:"column:key;size:64"`
	Variable string `gorm:"column:var;size:128"`
	Value    string `gorm:"column:val;type:text"`
}

func (NetboxInfo) TableName() string { return "netbox_info" }

// EventQueue is a pending state-change event for the event engine.
type EventQueue struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Source      string    `gorm:"column:source;size:32"`
	Target      string    `gorm:"column:target;size:32"`
	DeviceID    *int64    `gorm:"column:device_id"`
	NetboxID    *int64    `gorm:"column:netbox_id"`
	SubID       string    `gorm:"column:subid;size:64"`
	Time        time.Time `gorm:"column:time"`
	EventTypeID string    `gorm:"column:eventtype_id;size:32"`
	State       string    `gorm:"column:state;size:1"`
	Value       int       `gorm:"column:value"`
	Severity    int       `gorm:"column:severity"`
	Vars        string    `gorm:"column:vars;type:text"`
}

func (EventQueue) TableName() string { return "eventq" }

// All returns every inventory model, in migration order.
func All() []any {
	return []any{
		&NetboxType{},
		&Device{},
		&Netbox{},
		&Module{},
		&Interface{},
		&Organization{},
		&Usage{},
		&NetType{},
		&Vlan{},
		&Prefix{},
		&GwPortPrefix{},
		&Arp{},
		&Sensor{},
		&PowerSupplyOrFan{},
		&NetboxInfo{},
		&EventQueue{},
	}
}
