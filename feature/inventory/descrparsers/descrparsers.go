// Package descrparsers extracts segment metadata from router port
// descriptions written in known naming conventions.
package descrparsers

import (
	"regexp"
	"strconv"
	"strings"
)

// Result is the structured data found in a port description. Empty fields
// were not present.
type Result struct {
	NetType  string
	NetIdent string
	Org      string
	Usage    string
	Comment  string
	Vlan     int64
	ToRouter string
}

// Parser extracts a Result from an interface description on the router sysname.
// It returns nil when the description does not follow its convention.
type Parser func(sysname, description string) *Result

// Default lists the parsers in the order they are tried.
var Default = []Parser{ParseNTNU, ParseUninett}

// Parse returns the first non-nil result of parsers.
func Parse(parsers []Parser, sysname, description string) *Result {
	for _, parse := range parsers {
		if r := parse(sysname, description); r != nil {
			return r
		}
	}
	return nil
}

var (
	ntnuOrgUsage = regexp.MustCompile(`(?i)^(lan|utv|core|static),([^,]+),([^,:]+)(?::([^,]+))?(?:,([^,]*))?(?:,(\d+))?$`)
	ntnuLink     = regexp.MustCompile(`(?i)^(link),([^,]+)(?:,([^,]*))?(?:,(\d+))?$`)
	ntnuElink    = regexp.MustCompile(`(?i)^(elink),([^,]+),([^,]+)(?:,([^,]*))?(?:,(\d+))?$`)

	uninett = regexp.MustCompile(`^([^,]+),\s*([^,]+)(?:,\s*([^,]+))?(?:,\s*(.+))?$`)
)

// ParseNTNU understands the NTNU convention:
//
//	lan,<org>,<usage>[:<ident>][,<comment>][,<vlan>]
//	utv,<org>,<usage>[:<ident>][,<comment>][,<vlan>]
//	core,<org>,<usage>[:<ident>][,<comment>][,<vlan>]
//	static,<org>,<usage>[:<ident>][,<comment>][,<vlan>]
//	link,<to-router>[,<comment>][,<vlan>]
//	elink,<to-router>,<to-org>[,<comment>][,<vlan>]
func ParseNTNU(sysname, description string) *Result {
	description = strings.TrimSpace(description)

	if m := ntnuOrgUsage.FindStringSubmatch(description); m != nil {
		r := &Result{
			NetType: strings.ToLower(m[1]),
			Org:     strings.TrimSpace(m[2]),
			Usage:   strings.TrimSpace(m[3]),
			Comment: strings.TrimSpace(m[5]),
			Vlan:    atoi(m[6]),
		}
		r.NetIdent = r.Org + "," + r.Usage
		if ident := strings.TrimSpace(m[4]); ident != "" {
			r.NetIdent += "," + ident
		}
		return r
	}

	if m := ntnuElink.FindStringSubmatch(description); m != nil {
		r := &Result{
			NetType:  "elink",
			ToRouter: strings.TrimSpace(m[2]),
			Org:      strings.TrimSpace(m[3]),
			Comment:  strings.TrimSpace(m[4]),
			Vlan:     atoi(m[5]),
		}
		r.NetIdent = shortName(sysname) + "," + r.ToRouter
		return r
	}

	if m := ntnuLink.FindStringSubmatch(description); m != nil {
		r := &Result{
			NetType:  "link",
			ToRouter: strings.TrimSpace(m[2]),
			Comment:  strings.TrimSpace(m[3]),
			Vlan:     atoi(m[4]),
		}
		r.NetIdent = shortName(sysname) + "," + r.ToRouter
		return r
	}

	return nil
}

// ParseUninett understands the UNINETT convention:
//
//	<netident>,<org>[,<usage>][,<comment>]
func ParseUninett(_, description string) *Result {
	m := uninett.FindStringSubmatch(strings.TrimSpace(description))
	if m == nil {
		return nil
	}
	return &Result{
		NetIdent: strings.TrimSpace(m[1]),
		Org:      strings.TrimSpace(m[2]),
		Usage:    strings.TrimSpace(m[3]),
		Comment:  strings.TrimSpace(m[4]),
	}
}

func shortName(sysname string) string {
	if i := strings.IndexByte(sysname, '.'); i > 0 {
		return sysname[:i]
	}
	return sysname
}

func atoi(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
