package reconcile

import "context"

// SaveMode tells the engine how to persist a record.
type SaveMode int

const (
	// SaveFull inserts new records and overwrites existing ones with the
	// stored row merged with every touched attribute.
	SaveFull SaveMode = iota
	// SavePatch writes only the touched attributes of an existing record.
	SavePatch
	// SaveSkip leaves storage untouched for this record.
	SaveSkip
)

func (m SaveMode) String() string {
	switch m {
	case SavePatch:
		return "patch"
	case SaveSkip:
		return "skip"
	default:
		return "full"
	}
}

// Hooks is the fixed set of lifecycle callbacks a type can customise. The
// engine calls them in phase order for every record of the type.
type Hooks interface {
	// FindExisting runs when no declared lookup matched. It returns the
	// canonical id of a matching stored row, if any.
	FindExisting(ctx context.Context, s *Scope, rec *Record) (id int64, found bool, err error)
	// Prepare normalises the record and may issue corrective writes through s.
	Prepare(ctx context.Context, s *Scope, rec *Record) error
	// Save decides the write policy for the record.
	Save(ctx context.Context, s *Scope, rec *Record) (SaveMode, error)
	// Cleanup compares stored rows with the records observed this run.
	Cleanup(ctx context.Context, s *Scope, observed []*Record) error
}

// NopHooks implements Hooks with no type-specific behaviour. Embed it to
// override only the callbacks a type needs.
type NopHooks struct{}

func (NopHooks) FindExisting(context.Context, *Scope, *Record) (int64, bool, error) {
	return 0, false, nil
}

func (NopHooks) Prepare(context.Context, *Scope, *Record) error { return nil }

func (NopHooks) Save(context.Context, *Scope, *Record) (SaveMode, error) { return SaveFull, nil }

func (NopHooks) Cleanup(context.Context, *Scope, []*Record) error { return nil }
