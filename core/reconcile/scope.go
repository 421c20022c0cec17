package reconcile

import (
	"context"
	"fmt"
	"time"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stage is the phase of a type's commit block.
type Stage string

const (
	StageResolve Stage = "resolve"
	StagePrepare Stage = "prepare"
	StagePersist Stage = "persist"
	StageCleanup Stage = "cleanup"
)

// Run carries the state shared by every phase of one commit.
type Run struct {
	ID        string
	Container *Container
	Subject   *Record
	Report    *Report

	emitter Emitter
	metrics metrics.Recorder
}

// Scope is the explicit unit of work handed to hooks. DB is the autocommit
// handle during resolve and prepare, so corrective writes are committed
// immediately, and a transaction during persist and cleanup.
type Scope struct {
	Run   *Run
	Type  *Descriptor
	Stage Stage
	DB    *gorm.DB
	Log   *zap.Logger
}

// Subject returns the polled device's record.
func (s *Scope) Subject() *Record { return s.Run.Subject }

func (s *Scope) model(typ TypeName) (any, error) {
	d, ok := s.Run.Container.registry.Descriptor(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	return d.Model(), nil
}

// Find queries stored rows of a registered type by column values.
func (s *Scope) Find(ctx context.Context, typ TypeName, filter map[string]any) ([]database.Row, error) {
	model, err := s.model(typ)
	if err != nil {
		return nil, err
	}
	return database.Find(ctx, s.DB, model, filter)
}

// Get loads one stored row of a registered type.
func (s *Scope) Get(ctx context.Context, typ TypeName, id int64) (database.Row, bool, error) {
	model, err := s.model(typ)
	if err != nil {
		return nil, false, err
	}
	return database.Get(ctx, s.DB, model, id)
}

// Insert creates a row of a registered type. During prepare it counts as a
// corrective write.
func (s *Scope) Insert(ctx context.Context, typ TypeName, values map[string]any) (database.Row, error) {
	model, err := s.model(typ)
	if err != nil {
		return nil, err
	}
	row, err := database.Insert(ctx, s.DB, model, values)
	if err != nil {
		return nil, err
	}
	s.countWrite(ctx, typ, "insert", 1)
	return row, nil
}

// Update writes columns of a stored row. During prepare it counts as a
// corrective write.
func (s *Scope) Update(ctx context.Context, typ TypeName, id int64, values map[string]any) error {
	model, err := s.model(typ)
	if err != nil {
		return err
	}
	if err := database.Update(ctx, s.DB, model, id, values); err != nil {
		return err
	}
	s.countWrite(ctx, typ, "update", 1)
	return nil
}

// Delete removes stored rows of a registered type and returns how many went.
func (s *Scope) Delete(ctx context.Context, typ TypeName, ids []int64) (int, error) {
	model, err := s.model(typ)
	if err != nil {
		return 0, err
	}
	n, err := database.Delete(ctx, s.DB, model, ids)
	if err != nil {
		return 0, err
	}
	s.Run.Report.Stats(typ).Deleted += int(n)
	s.recordWrite(ctx, typ, "delete", int(n))
	return int(n), nil
}

func (s *Scope) countWrite(ctx context.Context, typ TypeName, op string, n int) {
	if s.Stage == StagePrepare {
		s.Run.Report.CorrectiveWrites += n
		op = "corrective"
	}
	s.recordWrite(ctx, typ, op, n)
}

// recordWrite records write metrics once the scope's transaction commits.
func (s *Scope) recordWrite(ctx context.Context, typ TypeName, op string, n int) {
	rec := s.Run.metrics
	AfterCommit(ctx, func(ctx context.Context) { rec.RecordWrite(ctx, string(typ), op, n) })
}

// Emit delivers a state-change event through the run's emitter. Emitters
// that write through DB commit with the scope; others should defer their
// delivery with AfterCommit.
func (s *Scope) Emit(ctx context.Context, ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	if err := s.Run.emitter.Emit(ctx, s.DB, ev); err != nil {
		return fmt.Errorf("failed to emit %s event for %s: %w", ev.EventType, ev.SubID, err)
	}
	s.Run.Report.Events++
	rec := s.Run.metrics
	AfterCommit(ctx, func(ctx context.Context) { rec.RecordEvent(ctx, ev.EventType, string(ev.State)) })
	s.Log.Info("event emitted",
		zap.String("event_type", ev.EventType),
		zap.String("state", string(ev.State)),
		zap.String("subid", ev.SubID),
	)
	return nil
}
