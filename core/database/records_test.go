package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gadget struct {
	ID       int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Name     string     `gorm:"column:name"`
	ParentID *int64     `gorm:"column:parent_id"`
	Serial   *string    `gorm:"column:serial"`
	SeenAt   *time.Time `gorm:"column:seen_at"`
}

func (gadget) TableName() string { return "gadget" }

func setupRecordsDB(t *testing.T) *gorm.DB {
	db, err := Connect(Config{Driver: "sqlite", Name: fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&gadget{}))
	return db
}

func TestInsertAndFind(t *testing.T) {
	db := setupRecordsDB(t)
	ctx := context.Background()

	row, err := Insert(ctx, db, &gadget{}, map[string]any{"name": "a", "serial": "SN1", "parent_id": int64(3)})
	require.NoError(t, err)
	assert.NotZero(t, row.ID())
	assert.Equal(t, "SN1", row.String("serial"))

	_, err = Insert(ctx, db, &gadget{}, map[string]any{"name": "b", "parent_id": nil})
	require.NoError(t, err)

	rows, err := Find(ctx, db, &gadget{}, map[string]any{"serial": "SN1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	parent, ok := rows[0].Int64("parent_id")
	assert.True(t, ok)
	assert.Equal(t, int64(3), parent)

	rows, err = Find(ctx, db, &gadget{}, map[string]any{"parent_id": nil})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0].String("name"))
	assert.True(t, rows[0].IsNull("serial"))

	rows, err = Find(ctx, db, &gadget{}, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Less(t, rows[0].ID(), rows[1].ID())
}

func TestInsertUnknownColumn(t *testing.T) {
	db := setupRecordsDB(t)
	_, err := Insert(context.Background(), db, &gadget{}, map[string]any{"colour": "red"})
	assert.ErrorContains(t, err, `no column "colour"`)
}

func TestUpdateGetDelete(t *testing.T) {
	db := setupRecordsDB(t)
	ctx := context.Background()

	row, err := Insert(ctx, db, &gadget{}, map[string]any{"name": "a", "serial": "SN1"})
	require.NoError(t, err)

	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Update(ctx, db, &gadget{}, row.ID(), map[string]any{"name": "renamed", "serial": nil, "seen_at": seen}))

	got, ok, err := Get(ctx, db, &gadget{}, row.ID())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "renamed", got.String("name"))
	assert.True(t, got.IsNull("serial"))
	assert.True(t, seen.Equal(got["seen_at"].(time.Time)))

	n, err := Delete(ctx, db, &gadget{}, []int64{row.ID(), 999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, ok, err = Get(ctx, db, &gadget{}, row.ID())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	db := setupRecordsDB(t)
	ctx := context.Background()

	values, err := Normalize(db, &gadget{}, map[string]any{"name": nil, "serial": nil, "parent_id": int64(4), "colour": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "", "serial": nil, "parent_id": int64(4), "colour": nil}, values)

	row, err := Insert(ctx, db, &gadget{}, map[string]any{"name": nil})
	require.NoError(t, err)
	stored, err := Normalize(db, &gadget{}, map[string]any{"name": nil})
	require.NoError(t, err)
	assert.Equal(t, row["name"], stored["name"], "normalized nil must read back equal to the stored value")

	rows, err := Find(ctx, db, &gadget{}, stored)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
