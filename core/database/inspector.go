package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string // Pointer because NULL default is possible
	Extra   string
}

// SchemaDrift lists the model columns a live table lacks.
type SchemaDrift struct {
	Table   string   `json:"table"`
	Missing []string `json:"missing"`
	Absent  bool     `json:"absent"`
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo
	if db.Dialector.Name() == "sqlite" {
		// SQLite uses PRAGMA table_info
		type SQLiteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string
			Pk         int
		}
		var sqliteCols []SQLiteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.Name),
				Type:  strings.ToLower(col.Type),
			})
		}
		return columns, nil
	}

	err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}

// CheckModels compares each gorm model against the live table it maps to
// and reports tables that are missing or lack columns. An empty result
// means the schema matches.
func CheckModels(db *gorm.DB, models ...any) ([]SchemaDrift, error) {
	var drifts []SchemaDrift
	for _, model := range models {
		sch, err := parseSchema(db, model)
		if err != nil {
			return nil, err
		}

		columns, err := GetTableColumns(db, sch.Table)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "doesn't exist") {
				drifts = append(drifts, SchemaDrift{Table: sch.Table, Absent: true})
				continue
			}
			return nil, err
		}
		if len(columns) == 0 {
			drifts = append(drifts, SchemaDrift{Table: sch.Table, Absent: true})
			continue
		}

		live := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			live[col.Field] = struct{}{}
		}

		var missing []string
		for _, name := range sch.DBNames {
			if _, ok := live[strings.ToLower(name)]; !ok {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			drifts = append(drifts, SchemaDrift{Table: sch.Table, Missing: missing})
		}
	}
	return drifts, nil
}
