// Package poller commits facts documents for many netboxes concurrently,
// allowing at most one run per netbox at a time.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/facts"
	"inventory-reconciler/feature/inventory/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ErrUnknownNetbox is returned when a document names a netbox that is not
// stored.
var ErrUnknownNetbox = errors.New("unknown netbox")

// Archiver keeps run reports.
type Archiver interface {
	Store(ctx context.Context, report *reconcile.Report) (string, error)
	Prune(ctx context.Context, subject string, keep int) (int, error)
}

// Result is the outcome of one document in RunAll.
type Result struct {
	Sysname string
	Report  *reconcile.Report
	Err     error
}

// Pool runs commits on a shared engine.
type Pool struct {
	engine   *reconcile.Engine
	db       *gorm.DB
	cfg      Config
	archiver Archiver
	log      *zap.Logger

	mu      sync.Mutex
	running map[int64]struct{}
}

// Option configures a Pool.
type Option func(*Pool)

// WithArchiver stores every finished report.
func WithArchiver(a Archiver) Option {
	return func(p *Pool) { p.archiver = a }
}

// WithLogger sets the pool logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) { p.log = l }
}

// New creates a pool committing through engine. db is used to look up
// netboxes by sysname.
func New(engine *reconcile.Engine, db *gorm.DB, cfg Config, opts ...Option) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	p := &Pool{
		engine:  engine,
		db:      db,
		cfg:     cfg,
		log:     zap.NewNop(),
		running: make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NetboxID returns the canonical id the document is for.
func (p *Pool) NetboxID(ctx context.Context, doc *facts.Document) (int64, error) {
	if doc.NetboxID != 0 {
		return doc.NetboxID, nil
	}
	if doc.Sysname == "" {
		return 0, fmt.Errorf("%w: document names no netbox", facts.ErrInvalidDocument)
	}
	rows, err := database.Find(ctx, p.db, &models.Netbox{}, map[string]any{"sysname": doc.Sysname})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", reconcile.ErrStorage, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrUnknownNetbox, doc.Sysname)
	}
	return rows[0].ID(), nil
}

func (p *Pool) acquire(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.running[id]; busy {
		return false
	}
	p.running[id] = struct{}{}
	return true
}

func (p *Pool) release(id int64) {
	p.mu.Lock()
	delete(p.running, id)
	p.mu.Unlock()
}

// Run stages and commits one document. A second run for a netbox that is
// still being committed fails with reconcile.ErrRunInProgress.
func (p *Pool) Run(ctx context.Context, doc *facts.Document) (*reconcile.Report, error) {
	id, err := p.NetboxID(ctx, doc)
	if err != nil {
		return nil, err
	}
	if !p.acquire(id) {
		return nil, fmt.Errorf("%w: netbox %d", reconcile.ErrRunInProgress, id)
	}
	defer p.release(id)

	c, err := facts.Build(p.engine.Registry(), doc, id)
	if err != nil {
		return nil, err
	}

	report, err := p.engine.Commit(ctx, c)
	p.archive(ctx, report)
	return report, err
}

func (p *Pool) archive(ctx context.Context, report *reconcile.Report) {
	if p.archiver == nil || report == nil {
		return
	}
	log := p.log.With(zap.String("run_id", report.RunID), zap.String("sysname", report.Subject))

	key, err := p.archiver.Store(ctx, report)
	if err != nil {
		log.Warn("failed to archive run report", zap.Error(err))
		return
	}
	log.Debug("run report archived", zap.String("key", key))

	if p.cfg.KeepReports > 0 {
		n, err := p.archiver.Prune(ctx, report.Subject, p.cfg.KeepReports)
		if err != nil {
			log.Warn("failed to prune run reports", zap.Error(err))
		} else if n > 0 {
			log.Debug("pruned run reports", zap.Int("removed", n))
		}
	}
}

// RunAll commits every document with at most Workers runs in flight.
// Failures are reported per document and do not stop the others.
func (p *Pool) RunAll(ctx context.Context, docs []*facts.Document) []Result {
	results := make([]Result, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, doc := range docs {
		g.Go(func() error {
			report, err := p.Run(ctx, doc)
			results[i] = Result{Sysname: doc.Sysname, Report: report, Err: err}
			if report != nil && report.Subject != "" {
				results[i].Sysname = report.Subject
			}
			if err != nil {
				p.log.Error("run failed", zap.String("sysname", results[i].Sysname), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
