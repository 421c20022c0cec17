package reconcile

import (
	"fmt"
	"sort"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/utils"
)

// TypeName identifies an entity type in a Registry.
type TypeName string

// CanonicalID references an already stored record by primary key. It can be
// used wherever a reference to a staged record is accepted.
type CanonicalID int64

// Record is the staged, in-memory mirror of one entity collected during a
// run. Nothing is read from or written to storage until the engine commits
// the container holding it.
type Record struct {
	typ      TypeName
	key      string
	attrs    map[string]any
	touched  map[string]struct{}
	id       int64
	existing database.Row
}

func newRecord(typ TypeName, key string) *Record {
	return &Record{
		typ:     typ,
		key:     key,
		attrs:   make(map[string]any),
		touched: make(map[string]struct{}),
	}
}

// Type returns the entity type of the record.
func (r *Record) Type() TypeName { return r.typ }

// Key returns the per-run key the record was created under.
func (r *Record) Key() string { return r.key }

// Set assigns an attribute and marks it touched for this run. Setting a
// value to nil still counts as collecting it.
func (r *Record) Set(attr string, value any) *Record {
	switch v := value.(type) {
	case int:
		value = int64(v)
	case int32:
		value = int64(v)
	case uint32:
		value = int64(v)
	case *Record:
		if v == nil {
			value = nil
		}
	}
	r.attrs[attr] = value
	r.touched[attr] = struct{}{}
	return r
}

// Get returns the raw attribute value, or nil if it was never set.
func (r *Record) Get(attr string) any { return r.attrs[attr] }

// Str returns a text attribute, or "" if unset or not text.
func (r *Record) Str(attr string) string {
	s, _ := r.attrs[attr].(string)
	return s
}

// Int returns an integer attribute.
func (r *Record) Int(attr string) (int64, bool) {
	return utils.ToInt64(r.attrs[attr])
}

// Ref returns the staged record an attribute points to, if any.
func (r *Record) Ref(attr string) *Record {
	ref, _ := r.attrs[attr].(*Record)
	return ref
}

// RefID returns the canonical id behind a reference attribute. It reports
// false when the attribute is unset or points to an unresolved record.
func (r *Record) RefID(attr string) (int64, bool) {
	switch v := r.attrs[attr].(type) {
	case *Record:
		return v.id, v.Resolved()
	case CanonicalID:
		return int64(v), true
	}
	return 0, false
}

// Touched reports whether the attribute was collected this run.
func (r *Record) Touched(attr string) bool {
	_, ok := r.touched[attr]
	return ok
}

// TouchedAttrs returns the collected attribute names in sorted order.
func (r *Record) TouchedAttrs() []string {
	attrs := make([]string, 0, len(r.touched))
	for a := range r.touched {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)
	return attrs
}

// ID returns the canonical id, or 0 while unresolved.
func (r *Record) ID() int64 { return r.id }

// Resolved reports whether the record is bound to a canonical id.
func (r *Record) Resolved() bool { return r.id != 0 }

// Resolve binds the record to a canonical id. Binding a resolved record to a
// different id fails with ErrIdentityImmutable.
func (r *Record) Resolve(id int64) error {
	if id == 0 {
		return fmt.Errorf("cannot resolve %s to a zero id", r)
	}
	if r.id != 0 && r.id != id {
		return fmt.Errorf("%w: %s is %d, refusing %d", ErrIdentityImmutable, r, r.id, id)
	}
	r.id = id
	return nil
}

// Existing returns the stored row the record resolved to, as loaded at
// resolution time or as written by the last persist. It is nil for new records.
func (r *Record) Existing() database.Row { return r.existing }

func (r *Record) bind(row database.Row) error {
	if err := r.Resolve(row.ID()); err != nil {
		return err
	}
	r.existing = row
	return nil
}

func (r *Record) String() string {
	if r.id != 0 {
		return fmt.Sprintf("%s(%q)#%d", r.typ, r.key, r.id)
	}
	return fmt.Sprintf("%s(%q)", r.typ, r.key)
}
