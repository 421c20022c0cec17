package database

import (
	"context"
	"fmt"
	"reflect"

	"inventory-reconciler/core/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// Row is a stored record keyed by column name. Pointer columns are
// dereferenced, so a NULL column holds an untyped nil.
type Row map[string]any

// ID returns the primary key of the row, assuming the conventional "id" column.
func (r Row) ID() int64 {
	id, _ := r.Int64("id")
	return id
}

// Int64 returns an integer column and whether it held a non-NULL value.
func (r Row) Int64(col string) (int64, bool) {
	return utils.ToInt64(r[col])
}

// String returns a column as text; NULL becomes "".
func (r Row) String(col string) string {
	return utils.ToString(r[col])
}

// IsNull reports whether the column is NULL or absent.
func (r Row) IsNull(col string) bool {
	return utils.Deref(r[col]) == nil
}

func parseSchema(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}
	return stmt.Schema, nil
}

func primaryColumn(sch *schema.Schema) (string, error) {
	if sch.PrioritizedPrimaryField == nil {
		return "", fmt.Errorf("model %s has no primary key", sch.Name)
	}
	return sch.PrioritizedPrimaryField.DBName, nil
}

func toRow(ctx context.Context, sch *schema.Schema, rv reflect.Value) Row {
	row := make(Row, len(sch.DBNames))
	for _, f := range sch.Fields {
		if f.DBName == "" {
			continue
		}
		v, _ := f.ValueOf(ctx, rv)
		row[f.DBName] = utils.Deref(v)
	}
	return row
}

// Normalize returns values as the model stores them: nil for a column that
// cannot hold NULL becomes the column's zero value. Unknown columns pass
// through unchanged.
func Normalize(db *gorm.DB, model any, values map[string]any) (map[string]any, error) {
	sch, err := parseSchema(db, model)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for col, v := range values {
		if v == nil {
			if f := sch.LookUpField(col); f != nil && f.FieldType.Kind() != reflect.Pointer {
				v = reflect.Zero(f.FieldType).Interface()
			}
		}
		out[col] = v
	}
	return out, nil
}

func assign(ctx context.Context, sch *schema.Schema, rv reflect.Value, values map[string]any) error {
	for col, v := range values {
		f := sch.LookUpField(col)
		if f == nil {
			return fmt.Errorf("table %s has no column %q", sch.Table, col)
		}
		if err := f.Set(ctx, rv, v); err != nil {
			return fmt.Errorf("failed to set %s.%s: %w", sch.Table, col, err)
		}
	}
	return nil
}

// Find returns the rows of model's table that match every column in filter,
// ordered by primary key. A nil filter value matches NULL and a slice value
// matches any of its elements.
func Find(ctx context.Context, db *gorm.DB, model any, filter map[string]any) ([]Row, error) {
	sch, err := parseSchema(db, model)
	if err != nil {
		return nil, err
	}
	pk, err := primaryColumn(sch)
	if err != nil {
		return nil, err
	}

	items := reflect.New(reflect.SliceOf(sch.ModelType))
	q := db.WithContext(ctx).Model(reflect.New(sch.ModelType).Interface())
	if len(filter) > 0 {
		q = q.Where(filter)
	}
	if err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: pk}}).Find(items.Interface()).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", sch.Table, err)
	}

	list := items.Elem()
	rows := make([]Row, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		rows = append(rows, toRow(ctx, sch, list.Index(i)))
	}
	return rows, nil
}

// Get loads a single row by primary key.
func Get(ctx context.Context, db *gorm.DB, model any, id any) (Row, bool, error) {
	sch, err := parseSchema(db, model)
	if err != nil {
		return nil, false, err
	}
	pk, err := primaryColumn(sch)
	if err != nil {
		return nil, false, err
	}
	rows, err := Find(ctx, db, model, map[string]any{pk: id})
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// Insert creates a new row from column values and returns it as stored,
// including the generated primary key.
func Insert(ctx context.Context, db *gorm.DB, model any, values map[string]any) (Row, error) {
	sch, err := parseSchema(db, model)
	if err != nil {
		return nil, err
	}

	rv := reflect.New(sch.ModelType)
	if err := assign(ctx, sch, rv.Elem(), values); err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Create(rv.Interface()).Error; err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", sch.Table, err)
	}
	return toRow(ctx, sch, rv.Elem()), nil
}

// Update writes the given columns of the row with primary key id.
func Update(ctx context.Context, db *gorm.DB, model any, id any, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	sch, err := parseSchema(db, model)
	if err != nil {
		return err
	}
	pk, err := primaryColumn(sch)
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).
		Model(reflect.New(sch.ModelType).Interface()).
		Where(clause.Eq{Column: clause.Column{Name: pk}, Value: id}).
		Updates(values).Error
	if err != nil {
		return fmt.Errorf("failed to update %s %v: %w", sch.Table, id, err)
	}
	return nil
}

// Delete removes the rows with the given primary keys and returns how many
// were removed.
func Delete(ctx context.Context, db *gorm.DB, model any, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sch, err := parseSchema(db, model)
	if err != nil {
		return 0, err
	}
	pk, err := primaryColumn(sch)
	if err != nil {
		return 0, err
	}

	res := db.WithContext(ctx).
		Where(clause.IN{Column: clause.Column{Name: pk}, Values: toAny(ids)}).
		Delete(reflect.New(sch.ModelType).Interface())
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", sch.Table, res.Error)
	}
	return res.RowsAffected, nil
}

func toAny(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
