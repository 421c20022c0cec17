package reconcile

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"inventory-reconciler/core/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	typeHost    TypeName = "Host"
	typeChassis TypeName = "Chassis"
	typeCard    TypeName = "Card"
	typeNote    TypeName = "Note"
)

type testHost struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	Name     string `gorm:"column:name"`
	Category string `gorm:"column:category"`
}

func (testHost) TableName() string { return "test_host" }

type testChassis struct {
	ID     int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Serial *string `gorm:"column:serial"`
	Vendor string  `gorm:"column:vendor"`
}

func (testChassis) TableName() string { return "test_chassis" }

type testCard struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	HostID    int64  `gorm:"column:host_id"`
	ChassisID *int64 `gorm:"column:chassis_id"`
	Name      string `gorm:"column:name"`
	Descr     string `gorm:"column:descr"`
	Up        string `gorm:"column:up"`
}

func (testCard) TableName() string { return "test_card" }

type testNote struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	HostID int64  `gorm:"column:host_id"`
	Key    string `gorm:"column:key"`
	Value  string `gorm:"column:value"`
}

func (testNote) TableName() string { return "test_note" }

// testDescriptors returns a small registry: Host is the subject, Chassis is
// looked up by serial, Card by (host, name) and Note commits last.
func testDescriptors(hooks map[TypeName]Hooks) []Descriptor {
	return []Descriptor{
		{
			Name:   typeHost,
			Model:  func() any { return &testHost{} },
			Label:  "name",
			Fields: []Field{{Attr: "name"}, {Attr: "category"}},
			Hooks:  hooks[typeHost],
		},
		{
			Name:    typeChassis,
			Model:   func() any { return &testChassis{} },
			Label:   "serial",
			Fields:  []Field{{Attr: "serial"}, {Attr: "vendor"}},
			Lookups: [][]string{{"serial"}},
			Hooks:   hooks[typeChassis],
		},
		{
			Name:  typeCard,
			Model: func() any { return &testCard{} },
			Label: "name",
			Fields: []Field{
				{Attr: "host", Ref: typeHost},
				{Attr: "chassis", Ref: typeChassis},
				{Attr: "name"},
				{Attr: "descr"},
				{Attr: "up"},
			},
			Lookups: [][]string{{"host", "chassis"}, {"host", "name"}},
			Hooks:   hooks[typeCard],
		},
		{
			Name:     typeNote,
			Model:    func() any { return &testNote{} },
			Fields:   []Field{{Attr: "host", Ref: typeHost}, {Attr: "key"}, {Attr: "value"}},
			Lookups:  [][]string{{"host", "key"}},
			Priority: PriorityLast,
			Hooks:    hooks[typeNote],
		},
	}
}

func newTestRegistry(t *testing.T, hooks map[TypeName]Hooks) *Registry {
	t.Helper()
	reg, err := NewRegistry(typeHost, testDescriptors(hooks)...)
	require.NoError(t, err)
	return reg
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&testHost{}, &testChassis{}, &testCard{}, &testNote{}))
	return db
}

func seedHost(t *testing.T, db *gorm.DB, name, category string) int64 {
	t.Helper()
	h := &testHost{Name: name, Category: category}
	require.NoError(t, db.Create(h).Error)
	return h.ID
}

// newRun stages the subject record for host id in a fresh container.
func newRun(t *testing.T, reg *Registry, hostID int64) (*Container, *Record) {
	t.Helper()
	c := reg.NewContainer()
	host, err := c.Factory(typeHost, SubjectKey)
	require.NoError(t, err)
	require.NoError(t, host.Resolve(hostID))
	return c, host
}

func mustFactory(t *testing.T, c *Container, typ TypeName, key string) *Record {
	t.Helper()
	rec, err := c.Factory(typ, key)
	require.NoError(t, err)
	return rec
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

type hookFuncs struct {
	NopHooks
	find    func(ctx context.Context, s *Scope, rec *Record) (int64, bool, error)
	prepare func(ctx context.Context, s *Scope, rec *Record) error
	save    func(ctx context.Context, s *Scope, rec *Record) (SaveMode, error)
	cleanup func(ctx context.Context, s *Scope, observed []*Record) error
}

func (h hookFuncs) FindExisting(ctx context.Context, s *Scope, rec *Record) (int64, bool, error) {
	if h.find != nil {
		return h.find(ctx, s, rec)
	}
	return 0, false, nil
}

func (h hookFuncs) Prepare(ctx context.Context, s *Scope, rec *Record) error {
	if h.prepare != nil {
		return h.prepare(ctx, s, rec)
	}
	return nil
}

func (h hookFuncs) Save(ctx context.Context, s *Scope, rec *Record) (SaveMode, error) {
	if h.save != nil {
		return h.save(ctx, s, rec)
	}
	return SaveFull, nil
}

func (h hookFuncs) Cleanup(ctx context.Context, s *Scope, observed []*Record) error {
	if h.cleanup != nil {
		return h.cleanup(ctx, s, observed)
	}
	return nil
}
