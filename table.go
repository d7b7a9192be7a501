package dbf

// Table is a column-oriented, in-memory table. Values are string, int64,
// float64, bool, time.Time or nil for an absent value.
type Table struct {
	// Fields holds the descriptors a table was read with. The writer uses
	// them for columns that have no explicit FieldSpec.
	Fields []Field

	names   []string
	columns map[string][]any
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{columns: make(map[string][]any)}
}

// AddColumn appends a column, or replaces the values of an existing column
// with the same name in place.
func (t *Table) AddColumn(name string, values []any) *Table {
	if t.columns == nil {
		t.columns = make(map[string][]any)
	}
	if _, ok := t.columns[name]; !ok {
		t.names = append(t.names, name)
	}
	t.columns[name] = values
	return t
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	return t.names
}

// Column returns the values of the named column, or nil.
func (t *Table) Column(name string) []any {
	return t.columns[name]
}

// Field returns the descriptor the named column was read with.
func (t *Table) Field(name string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.names)
}

// NumRows returns the length of the first column.
func (t *Table) NumRows() int {
	if len(t.names) == 0 {
		return 0
	}
	return len(t.columns[t.names[0]])
}

// IsEmpty reports whether the table has no columns or no rows.
func (t *Table) IsEmpty() bool {
	return t == nil || t.NumColumns() == 0 || t.NumRows() == 0
}

// Row returns the i-th row in column order.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.names))
	for j, name := range t.names {
		if col := t.columns[name]; i < len(col) {
			row[j] = col[i]
		}
	}
	return row
}
