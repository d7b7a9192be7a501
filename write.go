package dbf

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"os"
	"reflect"
	"time"

	"github.com/cockroachdb/errors"
)

// InferFieldSpec derives a field specification from the first non-nil
// value of a column. Character widths are counted in ASCII bytes; Write
// counts them in the configured encoding.
func InferFieldSpec(values []any) FieldSpec {
	return inferFieldSpec(values, defaultText)
}

func inferFieldSpec(values []any, text *textCodec) FieldSpec {
	var sample any
	for _, v := range values {
		if v != nil {
			sample = v
			break
		}
	}
	if _, ok := sample.(time.Time); ok {
		return FieldSpec{Type: Date, Length: 8}
	}
	switch reflect.ValueOf(sample).Kind() {
	case reflect.String:
		maxLen := 0
		for _, v := range values {
			if s, ok := v.(string); ok {
				maxLen = max(maxLen, len(text.encode(s)))
			}
		}
		if maxLen == 0 {
			maxLen = 10
		}
		return FieldSpec{Type: Character, Length: min(maxLen, 254)}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldSpec{Type: Numeric, Length: 18}
	case reflect.Float32, reflect.Float64:
		return FieldSpec{Type: Float, Length: 20, Decimals: 6}
	case reflect.Bool:
		return FieldSpec{Type: Logical, Length: 1}
	}
	return FieldSpec{Type: Character, Length: 50}
}

// tablePlan is a validated table together with its descriptors.
type tablePlan struct {
	table        *Table
	fields       []Field
	recordLength int
	text         *textCodec
	date         [3]byte
}

func planTable(t *Table, opts *Options) (*tablePlan, error) {
	if t.IsEmpty() {
		return nil, ValidationErrorf("dbf: cannot write an empty table")
	}
	text, err := newTextCodec(opts.Encoding)
	if err != nil {
		return nil, err
	}
	rows := t.NumRows()
	if int64(rows) > math.MaxUint32 {
		return nil, ValidationErrorf("dbf: too many rows (%d)", rows)
	}
	if HeaderSize+DescriptorSize*t.NumColumns()+1 > math.MaxUint16 {
		return nil, ValidationErrorf("dbf: too many columns (%d)", t.NumColumns())
	}

	date, err := updateDate(opts.modTime())
	if err != nil {
		return nil, err
	}
	p := &tablePlan{table: t, recordLength: 1, text: text, date: date}
	seen := make(map[string]string)
	for _, name := range t.Names() {
		if n := len(t.Column(name)); n != rows {
			return nil, ValidationErrorf("dbf: column %s has %d values, want %d", name, n, rows)
		}
		spec, ok := opts.FieldSpecs[name]
		if !ok {
			if f, ok := t.Field(name); ok {
				spec = FieldSpec{Type: f.Type, Length: int(f.Length), Decimals: int(f.Decimals)}
			} else {
				spec = inferFieldSpec(t.Column(name), text)
			}
		}
		f, err := specField(name, spec)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[f.Name]; ok {
			return nil, ValidationErrorf("dbf: columns %s and %s share the field name %s", prev, name, f.Name)
		}
		seen[f.Name] = name
		p.fields = append(p.fields, f)
		p.recordLength += int(f.Length)
	}
	if p.recordLength > math.MaxUint16 {
		return nil, ValidationErrorf("dbf: record length %d exceeds %d", p.recordLength, math.MaxUint16)
	}
	return p, nil
}

func specField(name string, spec FieldSpec) (Field, error) {
	f := Field{Name: truncateName(name), Type: spec.Type.Upper()}
	if !validName(f.Name) {
		return f, ValidationErrorf("dbf: invalid field name %q", name)
	}
	if spec.Length < 1 || spec.Length > math.MaxUint8 {
		return f, ValidationErrorf("dbf: field %s: length %d out of range [1, 255]", name, spec.Length)
	}
	if spec.Decimals < 0 || spec.Decimals > math.MaxUint8 {
		return f, ValidationErrorf("dbf: field %s: decimal count %d out of range", name, spec.Decimals)
	}
	f.Length, f.Decimals = uint8(spec.Length), uint8(spec.Decimals)
	return f, nil
}

// encodeRecord builds one live record: the deletion flag followed by the
// formatted fields.
func encodeRecord(values []any, fields []Field, text *textCodec) []byte {
	buf := []byte{SPACE}
	for i, f := range fields {
		buf = append(buf, formatValue(values[i], f, text)...)
	}
	return buf
}

func (p *tablePlan) write(w io.Writer) error {
	rows := p.table.NumRows()
	h := newHeader(uint32(rows), len(p.fields), p.recordLength, p.date)
	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return errors.Wrap(err, "dbf: write header")
	}
	for _, f := range p.fields {
		d := EncodeField(f)
		if _, err := w.Write(d[:]); err != nil {
			return errors.Wrap(err, "dbf: write field descriptor")
		}
	}
	if _, err := w.Write([]byte{TERMINATOR}); err != nil {
		return errors.Wrap(err, "dbf: write terminator")
	}
	names := p.table.Names()
	values := make([]any, len(names))
	for i := 0; i < rows; i++ {
		for j, name := range names {
			values[j] = p.table.Column(name)[i]
		}
		if _, err := w.Write(encodeRecord(values, p.fields, p.text)); err != nil {
			return errors.Wrapf(err, "dbf: write record %d", i)
		}
	}
	if _, err := w.Write([]byte{EOF}); err != nil {
		return errors.Wrap(err, "dbf: write end of file marker")
	}
	return nil
}

// Write serializes t to w. Columns without an entry in opts.FieldSpecs use
// the table's own descriptor or an inferred one.
func Write(w io.Writer, t *Table, opts *Options) error {
	opts = opts.EnsureDefaults()
	p, err := planTable(t, opts)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if err := p.write(bw); err != nil {
		return err
	}
	return errors.Wrap(bw.Flush(), "dbf: flush")
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *Table, opts *Options) (err error) {
	opts = opts.EnsureDefaults()
	p, err := planTable(t, opts)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "dbf: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "dbf: close %s", path)
		}
	}()
	bw := bufio.NewWriter(f)
	if err := p.write(bw); err != nil {
		return err
	}
	return errors.Wrapf(bw.Flush(), "dbf: flush %s", path)
}

// Append appends the struct model as a new record. Struct fields are
// matched to columns by their `dbf` tag; every column needs a field.
func (dbf *File) Append(model interface{}) error {
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return ValidationErrorf("dbf: Append requires a struct, not a %s", rv.Kind())
	}
	values, err := modelValues(dbf.Fields(), rv)
	if err != nil {
		return err
	}
	return dbf.AppendValues(values...)
}

// AppendValues appends a record holding one value per field.
func (dbf *File) AppendValues(values ...any) error {
	dbf.mu.Lock()
	defer dbf.mu.Unlock()

	if dbf.opts.ReadOnly {
		return ValidationErrorf("dbf: %s is open read-only", dbf.fileName)
	}
	if len(values) != len(dbf.fields) {
		return ValidationErrorf("dbf: got %d values for %d fields", len(values), len(dbf.fields))
	}
	date, err := updateDate(dbf.opts.modTime())
	if err != nil {
		return err
	}
	// The digest is checked before anything is written so that a file
	// modified by another process since it was loaded is left alone.
	digest, err := dbf.fileDigest()
	if err != nil {
		return err
	}
	if digest != dbf.digest {
		if err := dbf.init(); err != nil {
			dbf.opts.Logger.Errorf("dbf: %s changed on disk and could not be reloaded: %v", dbf.fileName, err)
			return errors.Wrapf(err, "dbf: reload changed file %s", dbf.fileName)
		}
		return errors.Wrapf(ErrFileChanged, "dbf: %s", dbf.fileName)
	}

	buf := encodeRecord(values, dbf.fields, dbf.text)
	if len(buf) < int(dbf.header.RecordLength) {
		// Records may carry bytes past the last field.
		pad := make([]byte, int(dbf.header.RecordLength)-len(buf))
		for i := range pad {
			pad[i] = SPACE
		}
		buf = append(buf, pad...)
	}
	buf = append(buf, EOF)

	offset := dbf.dataOffset + int64(dbf.header.RecordLength)*int64(dbf.header.NumRecords)
	if err := dbf.saveRecord(offset, buf); err != nil {
		return err
	}
	if err := dbf.saveNumRecords(dbf.header.NumRecords + 1); err != nil {
		dbf.rollbackRecord(offset)
		return err
	}
	if err := dbf.saveUpdateTime(date); err != nil {
		dbf.rollbackRecord(offset)
		_ = dbf.saveNumRecords(dbf.header.NumRecords)
		return err
	}
	if err := dbf.f.Sync(); err != nil {
		dbf.rollbackRecord(offset)
		_ = dbf.saveNumRecords(dbf.header.NumRecords)
		_ = dbf.saveUpdateTime([3]byte{dbf.header.LastUpdateYear, dbf.header.LastUpdateMonth, dbf.header.LastUpdateDay})
		return errors.Wrapf(err, "dbf: sync %s", dbf.fileName)
	}

	dbf.header.NumRecords++
	dbf.header.LastUpdateYear, dbf.header.LastUpdateMonth, dbf.header.LastUpdateDay = date[0], date[1], date[2]
	digest, err = dbf.fileDigest()
	if err != nil {
		return err
	}
	dbf.digest = digest
	return nil
}

// saveRecord writes buf, a record followed by the end of file marker, at
// offset and drops anything after it.
func (dbf *File) saveRecord(offset int64, buf []byte) error {
	if _, err := dbf.f.WriteAt(buf, offset); err != nil {
		dbf.rollbackRecord(offset)
		return errors.Wrapf(err, "dbf: write record to %s", dbf.fileName)
	}
	if err := dbf.f.Truncate(offset + int64(len(buf))); err != nil {
		dbf.rollbackRecord(offset)
		return errors.Wrapf(err, "dbf: truncate %s", dbf.fileName)
	}
	return nil
}

// rollbackRecord restores the end of file marker at offset.
func (dbf *File) rollbackRecord(offset int64) {
	if err := dbf.f.Truncate(offset); err != nil {
		dbf.opts.Logger.Errorf("dbf: %s: rollback record: %v", dbf.fileName, err)
		return
	}
	if _, err := dbf.f.WriteAt([]byte{EOF}, offset); err != nil {
		dbf.opts.Logger.Errorf("dbf: %s: rollback record: %v", dbf.fileName, err)
	}
}

func (dbf *File) saveNumRecords(n uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], n)
	if _, err := dbf.f.WriteAt(buf[:], 4); err != nil {
		return errors.Wrapf(err, "dbf: write record count to %s", dbf.fileName)
	}
	return nil
}

func (dbf *File) saveUpdateTime(date [3]byte) error {
	if _, err := dbf.f.WriteAt(date[:], 1); err != nil {
		return errors.Wrapf(err, "dbf: write update time to %s", dbf.fileName)
	}
	return nil
}
