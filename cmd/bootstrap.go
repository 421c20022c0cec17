package cmd

import (
	"context"
	"fmt"

	"inventory-reconciler/core/config"
	"inventory-reconciler/core/database"
	"inventory-reconciler/core/logger"
	"inventory-reconciler/core/metrics"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/core/storage"
	"inventory-reconciler/feature/archive"
	"inventory-reconciler/feature/events"
	"inventory-reconciler/feature/integrity"
	"inventory-reconciler/feature/inventory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// appEnv is what every command that touches the inventory needs.
type appEnv struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *gorm.DB
	registry *reconcile.Registry
	closers  []func()
}

func (r *appEnv) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	_ = r.log.Sync()
}

func bootstrap() (*appEnv, error) {
	cfg, err := config.LoadConfig(envDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	reg, err := inventory.NewRegistry(cfg.Inventory)
	if err != nil {
		return nil, err
	}

	rt := &appEnv{cfg: cfg, log: logg, db: db, registry: reg}
	if sqlDB, err := db.DB(); err == nil {
		rt.closers = append(rt.closers, func() { _ = sqlDB.Close() })
	}
	return rt, nil
}

// engine builds the commit engine. Events always go to the event queue
// table; with MQTT enabled they are also published to the broker.
func (r *appEnv) engine() (*reconcile.Engine, error) {
	var emitter reconcile.Emitter = events.QueueEmitter{}
	if r.cfg.MQTT.Enabled {
		mqtt, disconnect, err := events.Dial(r.cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mqtt broker: %w", err)
		}
		r.closers = append(r.closers, disconnect)
		emitter = &events.Fanout{Primary: emitter, Secondary: []reconcile.Emitter{mqtt}, Log: r.log}
		r.log.Info("Publishing events to MQTT", zap.String("broker", r.cfg.MQTT.Broker))
	}

	rec, err := metrics.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	return reconcile.NewEngine(r.registry, r.db,
		reconcile.WithEmitter(emitter),
		reconcile.WithMetrics(rec),
		reconcile.WithLogger(r.log),
	), nil
}

// storageClient returns the object storage client, or nil when the
// run-report archive is disabled.
func (r *appEnv) storageClient() (storage.Client, error) {
	if !r.cfg.Storage.Enabled {
		return nil, nil
	}
	client, err := storage.NewClient(r.cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// archive returns the run-report archive, or nil when storage is disabled.
func (r *appEnv) archive(ctx context.Context) (*archive.Archive, error) {
	client, err := r.storageClient()
	if err != nil || client == nil {
		return nil, err
	}
	a := archive.New(client, r.cfg.Storage)
	if err := a.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare bucket %s: %w", r.cfg.Storage.Bucket, err)
	}
	return a, nil
}

// integrity returns the integrity service over the database and, when
// archiving is enabled, the report bucket.
func (r *appEnv) integrity() (*integrity.Service, error) {
	client, err := r.storageClient()
	if err != nil {
		return nil, err
	}
	return integrity.NewService(r.db, client, r.cfg.Storage.Bucket, r.log), nil
}
