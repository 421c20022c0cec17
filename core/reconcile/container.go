package reconcile

import "fmt"

// SubjectKey is the per-run key of the record describing the polled device.
const SubjectKey = ""

// Container holds one run's staged records for one device, keyed by type and
// per-run key. It is confined to a single worker and is not safe for
// concurrent use.
type Container struct {
	registry *Registry
	records  map[TypeName]map[string]*Record
	order    map[TypeName][]*Record
}

// NewContainer creates an empty container for records of the registry's types.
func (r *Registry) NewContainer() *Container {
	return &Container{
		registry: r,
		records:  make(map[TypeName]map[string]*Record),
		order:    make(map[TypeName][]*Record),
	}
}

// Registry returns the registry the container was created from.
func (c *Container) Registry() *Registry { return c.registry }

// Factory returns the record of the given type and key, creating it on first
// use. Repeated calls with an equal key return the same instance.
func (c *Container) Factory(typ TypeName, key string) (*Record, error) {
	if _, ok := c.registry.byName[typ]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	byKey, ok := c.records[typ]
	if !ok {
		byKey = make(map[string]*Record)
		c.records[typ] = byKey
	}
	if rec, ok := byKey[key]; ok {
		return rec, nil
	}
	rec := newRecord(typ, key)
	byKey[key] = rec
	c.order[typ] = append(c.order[typ], rec)
	return rec, nil
}

// Get returns an existing record without creating one.
func (c *Container) Get(typ TypeName, key string) (*Record, bool) {
	rec, ok := c.records[typ][key]
	return rec, ok
}

// Records returns the records of a type in creation order.
func (c *Container) Records(typ TypeName) []*Record {
	return c.order[typ]
}

// Types returns the populated types in declaration order.
func (c *Container) Types() []TypeName {
	var types []TypeName
	for _, d := range c.registry.descs {
		if len(c.order[d.Name]) > 0 {
			types = append(types, d.Name)
		}
	}
	return types
}

// Len returns the total number of staged records.
func (c *Container) Len() int {
	n := 0
	for _, recs := range c.order {
		n += len(recs)
	}
	return n
}

// Subject returns the record describing the polled device, if staged.
func (c *Container) Subject() *Record {
	rec, _ := c.Get(c.registry.subject, SubjectKey)
	return rec
}

// Referrers returns the records of type typ whose attribute attr points at target.
func (c *Container) Referrers(typ TypeName, attr string, target *Record) []*Record {
	var out []*Record
	for _, rec := range c.order[typ] {
		switch v := rec.Get(attr).(type) {
		case *Record:
			if v == target {
				out = append(out, rec)
			}
		case CanonicalID:
			if target.Resolved() && int64(v) == target.ID() {
				out = append(out, rec)
			}
		}
	}
	return out
}
