package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	ID    int64  `gorm:"column:id;primaryKey"`
	Name  string `gorm:"column:name"`
	Descr string `gorm:"column:descr"`
}

func (probe) TableName() string { return "probe" }

func TestGetTableColumns(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_items (id INTEGER PRIMARY KEY, name TEXT, description TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_items")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "integer", colMap["id"])
	assert.Equal(t, "text", colMap["name"])
	assert.Equal(t, "text", colMap["description"])

	// PRAGMA table_info returns an empty result for unknown tables
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)
}

func TestCheckModels(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	t.Run("Absent table", func(t *testing.T) {
		drifts, err := CheckModels(db, &probe{})
		require.NoError(t, err)
		require.Len(t, drifts, 1)
		assert.True(t, drifts[0].Absent)
	})

	t.Run("Missing column", func(t *testing.T) {
		require.NoError(t, db.Exec("CREATE TABLE probe (id INTEGER PRIMARY KEY, name TEXT)").Error)
		drifts, err := CheckModels(db, &probe{})
		require.NoError(t, err)
		require.Len(t, drifts, 1)
		assert.Equal(t, []string{"descr"}, drifts[0].Missing)
	})

	t.Run("Matching", func(t *testing.T) {
		require.NoError(t, db.Exec("ALTER TABLE probe ADD COLUMN descr TEXT").Error)
		drifts, err := CheckModels(db, &probe{})
		require.NoError(t, err)
		assert.Empty(t, drifts)
	})
}
