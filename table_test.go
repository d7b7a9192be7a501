package dbf

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	var nilTable *Table
	require.True(t, nilTable.IsEmpty())
	require.True(t, NewTable().IsEmpty())
	require.True(t, NewTable().AddColumn("A", []any{}).IsEmpty())

	tbl := NewTable().
		AddColumn("A", []any{1, 2}).
		AddColumn("B", []any{"x", "y"})
	require.False(t, tbl.IsEmpty())
	require.Equal(t, 2, tbl.NumColumns())
	require.Equal(t, 2, tbl.NumRows())
	require.Equal(t, []any{2, "y"}, tbl.Row(1))
	require.Nil(t, tbl.Column("C"))

	tbl.AddColumn("A", []any{3, 4})
	require.Equal(t, []string{"A", "B"}, tbl.Names())
	require.Equal(t, []any{3, "x"}, tbl.Row(0))

	_, ok := tbl.Field("A")
	require.False(t, ok)
	tbl.Fields = []Field{{Name: "A", Type: Numeric, Length: 4}}
	f, ok := tbl.Field("A")
	require.True(t, ok)
	require.Equal(t, uint8(4), f.Length)
}

func TestModelColumns(t *testing.T) {
	type model struct {
		ID       int
		LongName string `dbf:"customer_name"`
		Skipped  string `dbf:"-"`
		hidden   int
	}
	columns, err := modelColumns(reflect.TypeOf(model{}))
	require.NoError(t, err)
	require.Equal(t, map[string]int{"ID": 0, "CUSTOMER_N": 1}, columns)

	_, err = modelColumns(reflect.TypeOf(0))
	require.True(t, errors.Is(err, ErrValidation))
}

func TestAssign(t *testing.T) {
	var s struct {
		I int8
		U uint16
		F float32
		S string
		B bool
	}
	rv := reflect.ValueOf(&s).Elem()
	require.NoError(t, assign(rv.Field(0), int64(-5)))
	require.NoError(t, assign(rv.Field(1), 12.0))
	require.NoError(t, assign(rv.Field(2), int64(3)))
	require.NoError(t, assign(rv.Field(3), int64(42)))
	require.NoError(t, assign(rv.Field(4), true))
	require.Equal(t, int8(-5), s.I)
	require.Equal(t, uint16(12), s.U)
	require.Equal(t, float32(3), s.F)
	require.Equal(t, "42", s.S)
	require.True(t, s.B)

	require.Error(t, assign(rv.Field(0), int64(300)))
	require.Error(t, assign(rv.Field(0), 1.5))
	require.Error(t, assign(rv.Field(1), int64(-1)))
	require.Error(t, assign(rv.Field(4), "T"))
}
