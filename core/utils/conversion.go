package utils

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// ToInt64 converts various types to int64 using explicit type switching.
// The boolean result reports whether the value held a usable integer.
func ToInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case nil:
		return 0, false
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	case float32:
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return i, err == nil
	case []byte:
		i, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// ToString converts various types to string. Nil becomes the empty string.
func ToString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true", "y").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		i, _ := ToInt64(v)
		return i == 1
	case string:
		s := strings.ToLower(v)
		return s == "1" || s == "true" || s == "y"
	case []byte:
		s := strings.ToLower(string(v))
		return s == "1" || s == "true" || s == "y"
	default:
		return false
	}
}

// Deref unwraps pointer values, turning nil pointers into an untyped nil.
func Deref(val any) any {
	if val == nil {
		return nil
	}
	rv := reflect.ValueOf(val)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	return rv.Interface()
}

// Equal compares two loosely typed column values the way a database would.
// Integers of different widths, pointers and their targets, and time values
// in different locations compare equal when they denote the same value.
func Equal(a, b any) bool {
	a, b = Deref(a), Deref(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}

	if ba, ok := a.(bool); ok {
		return ba == ToBool(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == ToBool(a)
	}

	if isNumber(a) && isNumber(b) {
		ia, _ := ToInt64(a)
		ib, _ := ToInt64(b)
		return ia == ib
	}

	return ToString(a) == ToString(b)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8, float32, float64:
		return true
	}
	return false
}
