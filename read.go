package dbf

import (
	"io"
	"os"
	"reflect"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ReadFile reads the table file at path. If the strict parse reports
// ErrFormat the file is parsed again with Recover, so only a missing or
// unreadable file produces an error; callers detect total failure with
// Table.IsEmpty.
func ReadFile(path string, opts *Options) (*Table, error) {
	opts = opts.EnsureDefaults()
	f, err := os.Open(path)
	if err != nil {
		return nil, openError(err, path)
	}
	defer f.Close()

	t, err := Read(f, opts)
	if err == nil || !errors.Is(err, ErrFormat) {
		return t, err
	}
	opts.Logger.Infof("dbf: %s: %v; retrying with recovery reader", path, err)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, "dbf: rewind %s", path)
	}
	return Recover(f, opts)
}

// Read parses a complete table file from r. Structural problems are
// reported as ErrFormat; values that fail to convert become nil.
func Read(r io.ReadSeeker, opts *Options) (*Table, error) {
	opts = opts.EnsureDefaults()
	text, err := newTextCodec(opts.Encoding)
	if err != nil {
		return nil, err
	}
	l, err := readLayout(r)
	if err != nil {
		return nil, err
	}

	columns := make([][]any, len(l.fields))
	buf := make([]byte, l.header.RecordLength)
	for i := uint32(0); i < l.header.NumRecords; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				// Truncated file: keep what was read.
				break
			}
			return nil, errors.Wrapf(err, "dbf: read record %d", i)
		}
		if buf[0] == DELETED {
			continue
		}
		for j, v := range decodeRecord(buf, l.fields, text) {
			columns[j] = append(columns[j], v)
		}
	}
	return buildTable(l.fields, columns), nil
}

func buildTable(fields []Field, columns [][]any) *Table {
	t := NewTable()
	t.Fields = fields
	for j, f := range fields {
		values := columns[j]
		if values == nil {
			values = []any{}
		}
		t.AddColumn(f.Name, values)
	}
	return t
}

// decodeRecord converts the fields of a record whose length has been
// checked against the descriptors. rec includes the deletion flag.
func decodeRecord(rec []byte, fields []Field, text *textCodec) []any {
	values := make([]any, len(fields))
	pos := 1
	for i, f := range fields {
		next := pos + int(f.Length)
		values[i], _ = convertValue(rec[pos:next], f, text)
		pos = next
	}
	return values
}

// Record is one row read through a File.
type Record struct {
	Deleted bool
	Values  []any
}

func (dbf *File) readRecord(index uint32) (Record, error) {
	if index >= dbf.header.NumRecords {
		return Record{}, ValidationErrorf("dbf: record %d out of range [0, %d)", index, dbf.header.NumRecords)
	}
	data := make([]byte, dbf.header.RecordLength)
	start := dbf.dataOffset + int64(dbf.header.RecordLength)*int64(index)
	if _, err := dbf.f.ReadAt(data, start); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, FormatErrorf("dbf: record %d is truncated", index)
		}
		return Record{}, errors.Wrapf(err, "dbf: read record %d", index)
	}
	return Record{
		Deleted: data[0] == DELETED,
		Values:  decodeRecord(data, dbf.fields, dbf.text),
	}, nil
}

// Record returns the record at index, deleted or not.
func (dbf *File) Record(index uint32) (Record, error) {
	dbf.mu.RLock()
	defer dbf.mu.RUnlock()
	return dbf.readRecord(index)
}

// GetRecord reads the record at index into the struct v points to. Struct
// fields are matched to columns by their `dbf` tag. A deleted record is
// reported as ErrNotFound.
func (dbf *File) GetRecord(index uint32, v interface{}) error {
	dbf.mu.RLock()
	defer dbf.mu.RUnlock()

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return ValidationErrorf("dbf: GetRecord requires a non-nil pointer to a struct")
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ValidationErrorf("dbf: GetRecord requires a pointer to a struct, not a %s", rv.Kind())
	}
	columns, err := modelColumns(rv.Type())
	if err != nil {
		return err
	}

	rec, err := dbf.readRecord(index)
	if err != nil {
		return err
	}
	if rec.Deleted {
		return NotFoundErrorf("dbf: record %d is deleted", index)
	}
	return bindRecord(dbf.fields, rec.Values, rv, columns)
}

// GetRecords reads records [start, end) into the slice of structs v points
// to, using up to workers concurrent readers. Deleted records leave their
// element untouched.
func (dbf *File) GetRecords(start, end uint32, v interface{}, workers int) error {
	dbf.mu.RLock()
	defer dbf.mu.RUnlock()

	if start > end || end > dbf.header.NumRecords {
		return ValidationErrorf("dbf: range [%d, %d) out of range [0, %d)", start, end, dbf.header.NumRecords)
	}
	rt := reflect.TypeOf(v)
	if rt == nil || rt.Kind() != reflect.Ptr {
		return ValidationErrorf("dbf: GetRecords requires a pointer to a slice, not a %v", rt)
	}
	if rt.Elem().Kind() != reflect.Slice {
		return ValidationErrorf("dbf: GetRecords requires a pointer to a slice, not a %s", rt.Elem().Kind())
	}
	if rt.Elem().Elem().Kind() != reflect.Struct {
		return ValidationErrorf("dbf: GetRecords requires a pointer to a slice of struct, not a %s", rt.Elem().Elem().Kind())
	}
	rv := reflect.ValueOf(v).Elem()
	if rv.Len() < int(end-start) {
		return ValidationErrorf("dbf: slice of length %d cannot hold %d records", rv.Len(), end-start)
	}
	columns, err := modelColumns(rt.Elem().Elem())
	if err != nil {
		return err
	}

	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i := start; i < end; i++ {
		i := i
		elem := rv.Index(int(i - start))
		g.Go(func() error {
			rec, err := dbf.readRecord(i)
			if err != nil {
				return err
			}
			if rec.Deleted {
				return nil
			}
			return bindRecord(dbf.fields, rec.Values, elem, columns)
		})
	}
	return g.Wait()
}
