package dbf

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// FieldType is the one-letter type tag of a field descriptor.
type FieldType byte

const (
	Character FieldType = 'C'
	Numeric   FieldType = 'N'
	Float     FieldType = 'F'
	Logical   FieldType = 'L'
	Date      FieldType = 'D'
	Memo      FieldType = 'M'
)

// Upper returns t with an ASCII lower-case tag folded to upper case.
func (t FieldType) Upper() FieldType {
	if t >= 'a' && t <= 'z' {
		return t - 'a' + 'A'
	}
	return t
}

// Known reports whether t is one of the supported type tags.
func (t FieldType) Known() bool {
	_, ok := fieldCodecs[t]
	return ok
}

func (t FieldType) String() string {
	switch t {
	case Character:
		return "character"
	case Numeric:
		return "numeric"
	case Float:
		return "float"
	case Logical:
		return "logical"
	case Date:
		return "date"
	case Memo:
		return "memo"
	}
	return fmt.Sprintf("unknown(%q)", rune(t))
}

const dateLayout = "20060102"

// fieldCodec converts one field type in both directions. decode receives
// trimmed, non-empty text; encode returns at most f.Length bytes.
type fieldCodec struct {
	decode func(s string, f Field) (any, bool)
	encode func(v any, f Field, text *textCodec) ([]byte, bool)
}

var stringCodec = fieldCodec{decode: decodeString, encode: encodeString}

// fieldCodecs drives reads and writes alike. Tags missing from the table
// are handled as character data.
var fieldCodecs = map[FieldType]fieldCodec{
	Character: stringCodec,
	Numeric:   {decode: decodeNumeric, encode: encodeNumeric},
	Float:     {decode: decodeFloat, encode: encodeFloat},
	Logical:   {decode: decodeLogical, encode: encodeLogical},
	Date:      {decode: decodeDate, encode: encodeDate},
	Memo:      stringCodec,
}

func codecFor(t FieldType) fieldCodec {
	if c, ok := fieldCodecs[t.Upper()]; ok {
		return c
	}
	return stringCodec
}

// convertValue decodes the raw bytes of one field. Blank fields are nil
// with ok set; text that does not convert is nil with ok unset.
func convertValue(raw []byte, f Field, text *textCodec) (v any, ok bool) {
	s := strings.TrimSpace(text.decode(raw))
	if s == "" {
		return nil, true
	}
	v, ok = codecFor(f.Type).decode(s, f)
	if !ok {
		return nil, false
	}
	return v, true
}

// formatValue renders v into exactly f.Length bytes. Values that cannot be
// represented are blank-filled.
func formatValue(v any, f Field, text *textCodec) []byte {
	out := make([]byte, int(f.Length))
	for i := range out {
		out[i] = SPACE
	}
	if v == nil {
		return out
	}
	b, ok := codecFor(f.Type).encode(v, f, text)
	if !ok || len(b) > len(out) {
		return out
	}
	copy(out, b)
	return out
}

func decodeString(s string, _ Field) (any, bool) {
	return s, true
}

func decodeNumeric(s string, f Field) (any, bool) {
	if f.Decimals > 0 {
		return decodeFloat(s, f)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

func decodeFloat(s string, _ Field) (any, bool) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return x, true
}

func decodeLogical(s string, _ Field) (any, bool) {
	switch strings.ToUpper(s) {
	case "T", "Y", "1":
		return true, true
	}
	return false, true
}

func decodeDate(s string, _ Field) (any, bool) {
	if len(s) != len(dateLayout) {
		return nil, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, false
		}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil || t.Year() < 1 {
		return nil, false
	}
	return t, true
}

func encodeString(v any, f Field, text *textCodec) ([]byte, bool) {
	s := stringify(v)
	b := text.encode(s)
	if len(b) <= int(f.Length) {
		return b, true
	}
	// Truncate on character boundaries so no multi-byte sequence is split.
	b = b[:0]
	for _, r := range s {
		rb := text.encode(string(r))
		if len(b)+len(rb) > int(f.Length) {
			break
		}
		b = append(b, rb...)
	}
	return b, true
}

func encodeNumeric(v any, f Field, text *textCodec) ([]byte, bool) {
	if f.Decimals > 0 {
		return encodeFloat(v, f, text)
	}
	n, ok := toInt(v)
	if !ok {
		return nil, false
	}
	return []byte(fmt.Sprintf("%*d", int(f.Length), n)), true
}

func encodeFloat(v any, f Field, _ *textCodec) ([]byte, bool) {
	x, ok := toFloat(v)
	if !ok {
		return nil, false
	}
	return []byte(fmt.Sprintf("%*.*f", int(f.Length), int(f.Decimals), x)), true
}

func encodeLogical(v any, _ Field, _ *textCodec) ([]byte, bool) {
	if truthy(v) {
		return []byte{'T'}, true
	}
	return []byte{'F'}, true
}

func encodeDate(v any, _ Field, _ *textCodec) ([]byte, bool) {
	switch t := v.(type) {
	case time.Time:
		return []byte(t.Format(dateLayout)), true
	case *time.Time:
		if t == nil {
			return nil, false
		}
		return []byte(t.Format(dateLayout)), true
	}
	return nil, false
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.DateOnly)
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return fmt.Sprint(v)
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		x := math.Trunc(rv.Float())
		if math.IsNaN(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.String:
		n, err := strconv.ParseInt(strings.TrimSpace(rv.String()), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Bool:
		if rv.Bool() {
			return 1, true
		}
		return 0, true
	case reflect.String:
		x, err := strconv.ParseFloat(strings.TrimSpace(rv.String()), 64)
		return x, err == nil
	}
	return 0, false
}

func truthy(v any) bool {
	if t, ok := v.(time.Time); ok {
		return !t.IsZero()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
