// Package reconcile stages facts collected for one device and commits them to
// canonical storage while keeping references between entity types intact.
//
// # Architecture
//
// The package consists of four parts:
//
// 1. Registry: the static, validated set of type Descriptors. Each descriptor
// names its gorm model, persisted fields, lookup tuples, extra dependencies,
// priority and Hooks. NewRegistry computes a commit order with a topological
// sort and rejects cycles with a *ConfigurationError.
//
// 2. Container: one run's staged Records keyed by type and per-run key.
// Factory returns the same Record for repeated keys, so collectors can wire
// references by key before anything is stored.
//
// 3. Engine: Commit walks the populated types in commit order and runs four
// phases per type: resolve (declared lookups, then the FindExisting hook),
// prepare (encoding repair, then the Prepare hook with immediately committed
// corrective writes), persist (one transaction per type, under the SaveMode
// the Save hook picks) and cleanup (an isolated transaction whose failure is
// logged only).
//
// 4. Scope: the explicit unit of work each hook receives, carrying the run,
// the database handle for the current phase and a run-scoped logger.
//
// # Failure handling
//
// A *StorageError aborts the remaining types of the run. Types committed
// before the failure are not rolled back; the scheduler owns retries.
//
// # Usage
//
//	reg, err := reconcile.NewRegistry("Netbox", descriptors...)
//	c := reg.NewContainer()
//	nb, _ := c.Factory("Netbox", reconcile.SubjectKey)
//	_ = nb.Resolve(netboxID)
//	mod, _ := c.Factory("Module", "1")
//	mod.Set("netbox", nb).Set("name", "Slot 1")
//	report, err := reconcile.NewEngine(reg, db).Commit(ctx, c)
package reconcile
