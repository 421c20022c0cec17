package inventory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"inventory-reconciler/core/database"
	"inventory-reconciler/core/reconcile"
	"inventory-reconciler/feature/inventory/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func newTestRegistry(t *testing.T) *reconcile.Registry {
	t.Helper()
	reg, err := NewRegistry(Config{})
	require.NoError(t, err)
	return reg
}

func create[T any](t *testing.T, db *gorm.DB, row *T) *T {
	t.Helper()
	require.NoError(t, db.Create(row).Error)
	return row
}

func seedNetbox(t *testing.T, db *gorm.DB, sysname, category string) *models.Netbox {
	t.Helper()
	return create(t, db, &models.Netbox{Sysname: sysname, Category: category, Up: "y"})
}

func ptr[T any](v T) *T { return &v }

// stage opens a container for the netbox with its subject record resolved.
func stage(t *testing.T, reg *reconcile.Registry, netboxID int64) (*reconcile.Container, *reconcile.Record) {
	t.Helper()
	c := reg.NewContainer()
	subject, err := c.Factory(TypeNetbox, reconcile.SubjectKey)
	require.NoError(t, err)
	require.NoError(t, subject.Resolve(netboxID))
	return c, subject
}

func factory(t *testing.T, c *reconcile.Container, typ reconcile.TypeName, key string) *reconcile.Record {
	t.Helper()
	rec, err := c.Factory(typ, key)
	require.NoError(t, err)
	return rec
}

func commit(t *testing.T, db *gorm.DB, c *reconcile.Container, opts ...reconcile.Option) *reconcile.Report {
	t.Helper()
	opts = append([]reconcile.Option{reconcile.WithLogger(zap.NewNop())}, opts...)
	report, err := reconcile.NewEngine(c.Registry(), db, opts...).Commit(context.Background(), c)
	require.NoError(t, err)
	return report
}

func load[T any](t *testing.T, db *gorm.DB, id int64) T {
	t.Helper()
	var row T
	require.NoError(t, db.First(&row, id).Error)
	return row
}

type eventLog struct {
	mu     sync.Mutex
	events []reconcile.Event
}

func (l *eventLog) Emit(_ context.Context, _ *gorm.DB, ev reconcile.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func countRows[T any](t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(new(T)).Count(&n).Error)
	return n
}
