// Package facts reads collected facts from YAML or JSON documents and
// stages them into a reconcile container.
package facts

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"inventory-reconciler/core/reconcile"

	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument wraps every problem found while staging a document.
var ErrInvalidDocument = errors.New("invalid facts document")

// Document is one device's collected facts for one run.
type Document struct {
	// NetboxID is the canonical id of the polled netbox. When zero the
	// caller resolves Sysname.
	NetboxID int64   `yaml:"netbox_id" json:"netbox_id"`
	Sysname  string  `yaml:"sysname" json:"sysname"`
	Records  []Entry `yaml:"records" json:"records"`
}

// Entry is one staged record. Attribute values are scalars or references:
//
//	device: {ref: Device, key: "SN-1"}   # record staged in this document
//	netbox: {ref: Netbox}                # the subject
//	prefix: {id: 42}                     # stored row
type Entry struct {
	Type  string         `yaml:"type" json:"type"`
	Key   string         `yaml:"key" json:"key"`
	ID    int64          `yaml:"id,omitempty" json:"id,omitempty"`
	Attrs map[string]any `yaml:"attrs" json:"attrs"`
}

// Decode reads a document. JSON input is accepted as YAML.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return &doc, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, fmt.Sprintf(format, args...))
}

// Build stages doc into a new container of reg. The subject record is
// resolved to netboxID. References may point forward within the document.
func Build(reg *reconcile.Registry, doc *Document, netboxID int64) (*reconcile.Container, error) {
	c := reg.NewContainer()
	subject, err := c.Factory(reg.Subject(), reconcile.SubjectKey)
	if err != nil {
		return nil, err
	}
	if netboxID == 0 {
		return nil, invalid("no netbox id")
	}
	if err := subject.Resolve(netboxID); err != nil {
		return nil, err
	}

	staged := make([]*reconcile.Record, len(doc.Records))
	for i, e := range doc.Records {
		rec, err := c.Factory(reconcile.TypeName(e.Type), e.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidDocument, i, err)
		}
		if e.ID != 0 {
			if err := rec.Resolve(e.ID); err != nil {
				return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidDocument, i, err)
			}
		}
		staged[i] = rec
	}

	for i, e := range doc.Records {
		desc, _ := reg.Descriptor(reconcile.TypeName(e.Type))
		attrs := make([]string, 0, len(e.Attrs))
		for a := range e.Attrs {
			attrs = append(attrs, a)
		}
		sort.Strings(attrs)

		for _, attr := range attrs {
			f, ok := desc.Field(attr)
			if !ok {
				return nil, invalid("record %d: %s has no attribute %q", i, e.Type, attr)
			}
			v, err := value(c, f, e.Attrs[attr])
			if err != nil {
				return nil, fmt.Errorf("%w: record %d: %s.%s: %w", ErrInvalidDocument, i, e.Type, attr, err)
			}
			staged[i].Set(attr, v)
		}
	}
	return c, nil
}

func value(c *reconcile.Container, f reconcile.Field, raw any) (any, error) {
	m, isMap := raw.(map[string]any)
	if f.Ref == "" {
		if isMap {
			return nil, errors.New("reference given for a plain attribute")
		}
		return raw, nil
	}

	if raw == nil {
		return nil, nil
	}
	if !isMap {
		return nil, errors.New("reference must be {ref: Type, key: k} or {id: n}")
	}
	if id, ok := m["id"]; ok {
		n, ok := id.(int)
		if !ok || n <= 0 {
			return nil, fmt.Errorf("invalid id %v", id)
		}
		return reconcile.CanonicalID(n), nil
	}

	typ, _ := m["ref"].(string)
	if reconcile.TypeName(typ) != f.Ref {
		return nil, fmt.Errorf("must reference %s, not %q", f.Ref, typ)
	}
	key := ""
	if k, ok := m["key"]; ok {
		key = fmt.Sprint(k)
	}
	target, ok := c.Get(f.Ref, key)
	if !ok {
		return nil, fmt.Errorf("no staged %s with key %q", f.Ref, key)
	}
	return target, nil
}
