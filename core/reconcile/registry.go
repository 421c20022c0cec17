package reconcile

import (
	"fmt"
	"slices"
)

// Priority moves a type within the commit order beyond what its references imply.
type Priority int

const (
	// PriorityNormal orders a type by its references and declared dependencies only.
	PriorityNormal Priority = iota
	// PriorityLast makes a type depend on every other registered type.
	PriorityLast
)

// Field maps a collected attribute onto a storage column.
type Field struct {
	// Attr is the attribute name collectors set on records.
	Attr string
	// Column is the storage column. It defaults to Attr, or Attr+"_id" for references.
	Column string
	// Ref names the referenced type for reference attributes.
	Ref TypeName
}

// Descriptor is the static description of one entity type.
type Descriptor struct {
	Name TypeName
	// Model returns a fresh gorm model pointer for the type's table.
	Model func() any
	// Label is the column used to describe a stored row in logs and reports.
	Label string
	// Fields lists the persisted attributes. Attributes not listed here are
	// staging-only and never written.
	Fields []Field
	// Lookups are attribute tuples tried in order to find the canonical row.
	Lookups [][]string
	// DependsOn adds ordering dependencies beyond the referenced types.
	DependsOn []TypeName
	Priority  Priority
	Hooks     Hooks

	fields map[string]Field
}

// Field returns the field definition for an attribute.
func (d *Descriptor) Field(attr string) (Field, bool) {
	f, ok := d.fields[attr]
	return f, ok
}

func (d *Descriptor) index() error {
	d.fields = make(map[string]Field, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		if f.Attr == "" {
			return &ConfigurationError{Reason: "field without attribute name", Types: []TypeName{d.Name}}
		}
		if f.Column == "" {
			f.Column = f.Attr
			if f.Ref != "" {
				f.Column = f.Attr + "_id"
			}
		}
		if _, dup := d.fields[f.Attr]; dup {
			return &ConfigurationError{Reason: fmt.Sprintf("duplicate field %q", f.Attr), Types: []TypeName{d.Name}}
		}
		d.fields[f.Attr] = *f
	}
	if d.Hooks == nil {
		d.Hooks = NopHooks{}
	}
	return nil
}

// Registry is a validated, immutable set of type descriptors together with
// their commit order.
type Registry struct {
	descs   []*Descriptor
	byName  map[TypeName]*Descriptor
	deps    map[TypeName][]TypeName
	order   []TypeName
	rank    map[TypeName]int
	subject TypeName
}

// NewRegistry validates the descriptors and computes the commit order.
// Subject names the type of the polled device's own record. Any malformed
// declaration, including a dependency cycle, yields a *ConfigurationError.
func NewRegistry(subject TypeName, descs ...Descriptor) (*Registry, error) {
	r := &Registry{
		byName:  make(map[TypeName]*Descriptor, len(descs)),
		deps:    make(map[TypeName][]TypeName, len(descs)),
		rank:    make(map[TypeName]int, len(descs)),
		subject: subject,
	}

	for i := range descs {
		d := descs[i]
		d.Fields = slices.Clone(d.Fields)
		if d.Name == "" {
			return nil, &ConfigurationError{Reason: "descriptor without a name"}
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, &ConfigurationError{Reason: "duplicate type", Types: []TypeName{d.Name}}
		}
		if d.Model == nil {
			return nil, &ConfigurationError{Reason: "descriptor without a model", Types: []TypeName{d.Name}}
		}
		if err := d.index(); err != nil {
			return nil, err
		}
		r.descs = append(r.descs, &d)
		r.byName[d.Name] = &d
	}

	if _, ok := r.byName[subject]; !ok {
		return nil, &ConfigurationError{Reason: "unknown subject type", Types: []TypeName{subject}}
	}

	for _, d := range r.descs {
		deps, err := r.dependencies(d)
		if err != nil {
			return nil, err
		}
		r.deps[d.Name] = deps
		for _, lookup := range d.Lookups {
			for _, attr := range lookup {
				if _, ok := d.fields[attr]; !ok {
					return nil, &ConfigurationError{Reason: fmt.Sprintf("lookup on undeclared field %q", attr), Types: []TypeName{d.Name}}
				}
			}
		}
	}

	order, err := r.sort()
	if err != nil {
		return nil, err
	}
	r.order = order
	for i, name := range order {
		r.rank[name] = i
	}
	return r, nil
}

// dependencies collects the types d must commit after. Self references are
// ignored; they order records within a type, not types.
func (r *Registry) dependencies(d *Descriptor) ([]TypeName, error) {
	var deps []TypeName
	add := func(t TypeName) error {
		if _, ok := r.byName[t]; !ok {
			return &ConfigurationError{Reason: "dependency on unknown type", Types: []TypeName{d.Name, t}}
		}
		if t != d.Name && !slices.Contains(deps, t) {
			deps = append(deps, t)
		}
		return nil
	}

	for _, f := range d.Fields {
		if f.Ref == "" {
			continue
		}
		if err := add(f.Ref); err != nil {
			return nil, err
		}
	}
	for _, t := range d.DependsOn {
		if err := add(t); err != nil {
			return nil, err
		}
	}
	if d.Priority == PriorityLast {
		for _, other := range r.descs {
			if other.Priority != PriorityLast {
				if err := add(other.Name); err != nil {
					return nil, err
				}
			}
		}
	}
	return deps, nil
}

// sort is Kahn's algorithm picking the earliest declared ready type first.
func (r *Registry) sort() ([]TypeName, error) {
	pending := make(map[TypeName]int, len(r.descs))
	dependents := make(map[TypeName][]TypeName, len(r.descs))
	for _, d := range r.descs {
		pending[d.Name] = len(r.deps[d.Name])
		for _, dep := range r.deps[d.Name] {
			dependents[dep] = append(dependents[dep], d.Name)
		}
	}

	done := make(map[TypeName]bool, len(r.descs))
	order := make([]TypeName, 0, len(r.descs))
	for len(order) < len(r.descs) {
		var next TypeName
		for _, d := range r.descs {
			if !done[d.Name] && pending[d.Name] == 0 {
				next = d.Name
				break
			}
		}
		if next == "" {
			return nil, &ConfigurationError{Reason: "dependency cycle", Types: r.findCycle(done)}
		}
		done[next] = true
		order = append(order, next)
		for _, dep := range dependents[next] {
			pending[dep]--
		}
	}
	return order, nil
}

// findCycle walks dependencies among the unsorted types until one repeats
// and returns the path closing the loop, e.g. A -> B -> A.
func (r *Registry) findCycle(done map[TypeName]bool) []TypeName {
	var start TypeName
	for _, d := range r.descs {
		if !done[d.Name] {
			start = d.Name
			break
		}
	}

	seen := map[TypeName]int{}
	var path []TypeName
	for cur := start; ; {
		if at, ok := seen[cur]; ok {
			return append(path[at:], cur)
		}
		seen[cur] = len(path)
		path = append(path, cur)
		for _, dep := range r.deps[cur] {
			if !done[dep] {
				cur = dep
				break
			}
		}
	}
}

// Descriptor returns the descriptor of a registered type.
func (r *Registry) Descriptor(name TypeName) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Subject returns the type of the polled device's record.
func (r *Registry) Subject() TypeName { return r.subject }

// Types returns all registered types in declaration order.
func (r *Registry) Types() []TypeName {
	types := make([]TypeName, len(r.descs))
	for i, d := range r.descs {
		types[i] = d.Name
	}
	return types
}

// Dependencies returns the types name must commit after.
func (r *Registry) Dependencies(name TypeName) []TypeName {
	return slices.Clone(r.deps[name])
}

// Order returns the commit order over every registered type.
func (r *Registry) Order() []TypeName {
	return slices.Clone(r.order)
}

// CommitOrder restricts the commit order to the given types.
func (r *Registry) CommitOrder(types []TypeName) []TypeName {
	out := slices.Clone(types)
	slices.SortFunc(out, func(a, b TypeName) int {
		return r.rank[a] - r.rank[b]
	})
	return out
}
