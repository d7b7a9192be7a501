package dbf

import (
	"math"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// modelColumns maps upper-cased column names to struct field indexes. The
// column name comes from the `dbf` tag, or the field name when untagged;
// a tag of "-" skips the field.
func modelColumns(rt reflect.Type) (map[string]int, error) {
	if rt.Kind() != reflect.Struct {
		return nil, ValidationErrorf("dbf: model must be a struct, not a %s", rt.Kind())
	}
	columns := make(map[string]int)
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		column := field.Tag.Get("dbf")
		if column == "-" {
			continue
		}
		if column == "" {
			column = field.Name
		}
		columns[strings.ToUpper(truncateName(column))] = i
	}
	return columns, nil
}

func bindRecord(fields []Field, values []any, rv reflect.Value, columns map[string]int) error {
	for i, f := range fields {
		index, ok := columns[strings.ToUpper(f.Name)]
		if !ok || values[i] == nil {
			continue
		}
		if err := assign(rv.Field(index), values[i]); err != nil {
			return ValidationErrorf("dbf: column %s: %v", f.Name, err)
		}
	}
	return nil
}

func assign(dst reflect.Value, v any) error {
	if dst.Type() == timeType {
		t, ok := v.(time.Time)
		if !ok {
			return ValidationErrorf("cannot assign %T to time.Time", v)
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	}
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(stringify(v))
		return nil
	case reflect.Bool:
		if b, ok := v.(bool); ok {
			dst.SetBool(b)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := integral(v)
		if ok && !dst.OverflowInt(n) {
			dst.SetInt(n)
			return nil
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := integral(v)
		if ok && n >= 0 && !dst.OverflowUint(uint64(n)) {
			dst.SetUint(uint64(n))
			return nil
		}
	case reflect.Float32, reflect.Float64:
		switch x := v.(type) {
		case float64:
			dst.SetFloat(x)
			return nil
		case int64:
			dst.SetFloat(float64(x))
			return nil
		}
	}
	return ValidationErrorf("cannot assign %T to %s", v, dst.Type())
}

// integral accepts int64 values and float64 values without a fraction.
func integral(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

// modelValues lists the values of the struct rv in field order.
func modelValues(fields []Field, rv reflect.Value) ([]any, error) {
	columns, err := modelColumns(rv.Type())
	if err != nil {
		return nil, err
	}
	values := make([]any, len(fields))
	for i, f := range fields {
		index, ok := columns[strings.ToUpper(f.Name)]
		if !ok {
			return nil, ValidationErrorf("dbf: column %s not found in %s", f.Name, rv.Type())
		}
		values[i] = rv.Field(index).Interface()
	}
	return values, nil
}
