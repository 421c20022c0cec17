package reconcile

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"
	"unicode/utf8"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/metrics"
	"inventory-reconciler/core/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine commits containers of staged records to canonical storage.
// It holds no per-run state and may be shared by concurrent workers.
type Engine struct {
	registry *Registry
	db       *gorm.DB
	emitter  Emitter
	metrics  metrics.Recorder
	log      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithEmitter sets where cleanup events go. Events are discarded by default.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) { e.emitter = em }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the base logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine committing records of reg's types through db.
func NewEngine(reg *Registry, db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		db:       db,
		emitter:  discardEmitter{},
		metrics:  metrics.Noop{},
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the engine commits.
func (e *Engine) Registry() *Registry { return e.registry }

// Commit runs resolve, prepare, persist and cleanup for every populated type
// of c in commit order. A storage failure aborts the remaining types; types
// already committed stay committed. The report is returned in every case.
func (e *Engine) Commit(ctx context.Context, c *Container) (*Report, error) {
	start := time.Now()
	report := newReport(uuid.NewString(), start)

	err := e.commit(ctx, c, report)
	report.Duration = time.Since(start)
	if err != nil {
		report.Error = err.Error()
	}
	e.metrics.RecordRun(ctx, err == nil, report.Duration)
	return report, err
}

func (e *Engine) commit(ctx context.Context, c *Container, report *Report) error {
	if c.registry != e.registry {
		return fmt.Errorf("%w: container was built from another registry", ErrConfiguration)
	}

	subject := c.Subject()
	if subject == nil || !subject.Resolved() {
		return ErrNoSubject
	}
	desc := e.registry.byName[subject.typ]
	row, ok, err := database.Get(ctx, e.db, desc.Model(), subject.ID())
	if err != nil {
		return storageError(subject, "load", err)
	}
	if !ok {
		return storageError(subject, "load", fmt.Errorf("no stored row with id %d", subject.ID()))
	}
	subject.existing = row
	report.SubjectID = subject.ID()
	report.Subject = row.String(desc.Label)

	log := logger.WithRun(e.log, report.RunID, report.Subject)
	run := &Run{
		ID:        report.RunID,
		Container: c,
		Subject:   subject,
		Report:    report,
		emitter:   e.emitter,
		metrics:   e.metrics,
	}

	report.Order = e.registry.CommitOrder(c.Types())
	for _, name := range report.Order {
		typeLog := log.With(zap.String("type", string(name)))
		if err := e.commitType(ctx, run, e.registry.byName[name], typeLog); err != nil {
			report.FailedType = name
			typeLog.Error("commit aborted", zap.Error(err))
			return err
		}
	}

	log.Info("commit finished",
		zap.Int("records", c.Len()),
		zap.Int("writes", report.Writes()),
		zap.Int("events", report.Events),
	)
	return nil
}

func (e *Engine) commitType(ctx context.Context, run *Run, desc *Descriptor, log *zap.Logger) error {
	records := run.Container.Records(desc.Name)
	run.Report.Stats(desc.Name).Records = len(records)

	auto := &Scope{Run: run, Type: desc, Stage: StageResolve, DB: e.db.WithContext(ctx), Log: log}
	for _, rec := range records {
		if err := e.resolve(ctx, auto, rec); err != nil {
			return storageError(rec, "resolve", err)
		}
	}

	auto.Stage = StagePrepare
	for _, rec := range records {
		e.repairEncoding(auto, rec)
		if err := desc.Hooks.Prepare(ctx, auto, rec); err != nil {
			return storageError(rec, "prepare", err)
		}
	}

	txCtx, queue := WithCommitQueue(ctx)
	err := e.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		s := &Scope{Run: run, Type: desc, Stage: StagePersist, DB: tx, Log: log}
		for _, rec := range records {
			if err := e.persist(txCtx, s, rec); err != nil {
				return storageError(rec, "persist", err)
			}
		}
		return nil
	})
	if err != nil {
		queue.Discard()
		var se *StorageError
		if !errors.As(err, &se) {
			err = &StorageError{Type: desc.Name, Op: "persist", Err: err}
		}
		return err
	}
	queue.Flush(ctx)

	e.cleanup(ctx, run, desc, log)
	return nil
}

func (e *Engine) resolve(ctx context.Context, s *Scope, rec *Record) error {
	if rec.Resolved() {
		if rec.existing != nil {
			return nil
		}
		return e.load(ctx, s, rec, rec.ID())
	}

	found, err := e.lookup(ctx, s, rec)
	if err != nil || found {
		return err
	}

	id, found, err := s.Type.Hooks.FindExisting(ctx, s, rec)
	if err != nil || !found {
		return err
	}
	return e.load(ctx, s, rec, id)
}

func (e *Engine) load(ctx context.Context, s *Scope, rec *Record, id int64) error {
	row, ok, err := database.Get(ctx, s.DB, s.Type.Model(), id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no stored %s with id %d", s.Type.Name, id)
	}
	return rec.bind(row)
}

// lookup tries the declared lookups in order and binds rec to the first
// stored row the first matching tuple returns.
func (e *Engine) lookup(ctx context.Context, s *Scope, rec *Record) (bool, error) {
	for _, attrs := range s.Type.Lookups {
		filter, ok := lookupFilter(s.Type, rec, attrs)
		if !ok {
			continue
		}
		filter, err := database.Normalize(s.DB, s.Type.Model(), filter)
		if err != nil {
			return false, err
		}
		rows, err := database.Find(ctx, s.DB, s.Type.Model(), filter)
		if err != nil {
			return false, err
		}
		if len(rows) == 0 {
			continue
		}
		if len(rows) > 1 {
			s.Run.Report.Ambiguous++
			s.Log.Warn("ambiguous lookup, using first match",
				zap.Stringer("record", rec),
				zap.Strings("lookup", attrs),
				zap.Int("matches", len(rows)),
			)
		}
		return true, rec.bind(rows[0])
	}
	return false, nil
}

// lookupFilter builds a column filter for a lookup tuple. A tuple is usable
// only when every attribute was collected and every non-nil reference in it
// is already resolved. Collected empty values are real keys: nil matches a
// stored NULL and "" matches a stored empty string.
func lookupFilter(d *Descriptor, rec *Record, attrs []string) (map[string]any, bool) {
	filter := make(map[string]any, len(attrs))
	for _, attr := range attrs {
		if !rec.Touched(attr) {
			return nil, false
		}
		f, _ := d.Field(attr)
		v := rec.Get(attr)
		if f.Ref != "" && v != nil {
			id, ok := rec.RefID(attr)
			if !ok {
				return nil, false
			}
			v = id
		}
		filter[f.Column] = v
	}
	return filter, true
}

func (e *Engine) repairEncoding(s *Scope, rec *Record) {
	for _, attr := range rec.TouchedAttrs() {
		v, ok := rec.Get(attr).(string)
		if !ok || utf8.ValidString(v) {
			continue
		}
		quoted := strconv.Quote(v)
		fixed := quoted[1 : len(quoted)-1]
		rec.attrs[attr] = fixed
		s.Run.Report.EncodingRepairs++
		s.Log.Warn("replaced invalid text in collected value",
			zap.Stringer("record", rec),
			zap.String("attr", attr),
			zap.String("value", fixed),
		)
	}
}

func (e *Engine) persist(ctx context.Context, s *Scope, rec *Record) error {
	stats := s.Run.Report.Stats(s.Type.Name)

	mode, err := s.Type.Hooks.Save(ctx, s, rec)
	if err != nil {
		return err
	}
	if mode == SaveSkip {
		stats.Skipped++
		s.Log.Debug("save skipped", zap.Stringer("record", rec))
		return nil
	}

	if !rec.Resolved() {
		// another record of this run may have created the row already
		if _, err := e.lookup(ctx, s, rec); err != nil {
			return err
		}
	}

	touched, err := database.Normalize(s.DB, s.Type.Model(), columnValues(s, rec))
	if err != nil {
		return err
	}
	if !rec.Resolved() {
		row, err := database.Insert(ctx, s.DB, s.Type.Model(), touched)
		if err != nil {
			return err
		}
		if err := rec.bind(row); err != nil {
			return err
		}
		stats.Inserted++
		s.recordWrite(ctx, s.Type.Name, "insert", 1)
		return nil
	}

	changed := make(map[string]any)
	for col, v := range touched {
		if !utils.Equal(rec.existing[col], v) {
			changed[col] = v
		}
	}
	if len(changed) == 0 {
		stats.Unchanged++
		return nil
	}

	values, op := changed, "patch"
	if mode == SaveFull {
		values = maps.Clone(rec.existing)
		delete(values, "id")
		maps.Copy(values, touched)
		op = "update"
	}
	if err := database.Update(ctx, s.DB, s.Type.Model(), rec.ID(), values); err != nil {
		return err
	}
	maps.Copy(rec.existing, values)

	if mode == SavePatch {
		stats.Patched++
	} else {
		stats.Updated++
	}
	s.recordWrite(ctx, s.Type.Name, op, 1)
	return nil
}

// columnValues maps the touched attributes onto storage columns. References
// become canonical ids; unresolved references are stored as NULL.
func columnValues(s *Scope, rec *Record) map[string]any {
	values := make(map[string]any, len(rec.touched))
	for _, attr := range rec.TouchedAttrs() {
		f, ok := s.Type.Field(attr)
		if !ok {
			continue
		}
		v := rec.Get(attr)
		if f.Ref != "" {
			id, resolved := rec.RefID(attr)
			if !resolved {
				if v != nil {
					s.Log.Debug("reference unresolved, storing NULL",
						zap.Stringer("record", rec),
						zap.String("attr", attr),
					)
				}
				values[f.Column] = nil
				continue
			}
			v = id
		}
		values[f.Column] = v
	}
	return values
}

func (e *Engine) cleanup(ctx context.Context, run *Run, desc *Descriptor, log *zap.Logger) {
	if _, nop := desc.Hooks.(NopHooks); nop {
		return
	}

	stats := run.Report.Stats(desc.Name)
	deleted, events := stats.Deleted, run.Report.Events

	txCtx, queue := WithCommitQueue(ctx)
	err := e.db.WithContext(txCtx).Transaction(func(tx *gorm.DB) error {
		s := &Scope{Run: run, Type: desc, Stage: StageCleanup, DB: tx, Log: log}
		return desc.Hooks.Cleanup(txCtx, s, run.Container.Records(desc.Name))
	})
	if err != nil {
		// rolled back: deletions and events never happened
		queue.Discard()
		stats.Deleted, run.Report.Events = deleted, events
		run.Report.CleanupFailures++
		log.Error("cleanup failed", zap.Error(err))
		return
	}
	queue.Flush(ctx)
}
