package dbf

import "io"

// DefaultMaxRecords is the default RecoveryPolicy.MaxRecords.
const DefaultMaxRecords = 1000

// maxDescriptors is the most descriptors a u16 header length can describe.
const maxDescriptors = (1<<16 - 1 - HeaderSize - 1) / DescriptorSize

// RecoveryPolicy holds the heuristics Recover uses on damaged files. Each
// heuristic is a method so it can be exercised on its own.
type RecoveryPolicy struct {
	// MaxRecords caps the number of records examined, whatever the header
	// claims.
	MaxRecords int
}

// EnsureDefaults fills in unset values.
func (p *RecoveryPolicy) EnsureDefaults() {
	if p.MaxRecords <= 0 {
		p.MaxRecords = DefaultMaxRecords
	}
}

// IsTerminator reports whether a descriptor-sized chunk marks the end of
// the descriptor section.
func (p RecoveryPolicy) IsTerminator(chunk []byte) bool {
	return len(chunk) > 0 && chunk[0] == TERMINATOR
}

// ValidName reports whether a decoded descriptor name is plausible. An
// empty or non-printable name means the walk has drifted into other data.
func (p RecoveryPolicy) ValidName(name string) bool {
	return validName(name)
}

// RecordLimit returns how many records to examine for a header claiming
// count records.
func (p RecoveryPolicy) RecordLimit(count uint32) int {
	limit := p.MaxRecords
	if limit <= 0 {
		limit = DefaultMaxRecords
	}
	if int64(count) < int64(limit) {
		return int(count)
	}
	return limit
}

// InBounds reports whether a field of length n starting at pos fits in a
// record of recordLength bytes.
func (p RecoveryPolicy) InBounds(pos, n, recordLength int) bool {
	return pos >= 0 && n >= 0 && pos+n <= recordLength
}

// Recover parses r as leniently as possible. It never reports damage as an
// error: when no field or no live record can be salvaged the result is an
// empty table. Errors are returned only for invalid options.
func Recover(r io.ReadSeeker, opts *Options) (*Table, error) {
	opts = opts.EnsureDefaults()
	text, err := newTextCodec(opts.Encoding)
	if err != nil {
		return nil, err
	}
	policy, log := opts.Recovery, opts.Logger

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		log.Errorf("dbf: recovery: seek to header: %v", err)
		return NewTable(), nil
	}
	h, err := readHeader(r)
	if err != nil {
		log.Errorf("dbf: recovery: %v", err)
		return NewTable(), nil
	}

	fields := recoverFields(r, policy, log)
	if len(fields) == 0 {
		log.Errorf("dbf: recovery: no usable field descriptors")
		return NewTable(), nil
	}
	if h.RecordLength == 0 {
		log.Errorf("dbf: recovery: record length is zero")
		return NewTable(), nil
	}
	if _, err := r.Seek(int64(h.HeaderLength), io.SeekStart); err != nil {
		log.Errorf("dbf: recovery: seek to records at %d: %v", h.HeaderLength, err)
		return NewTable(), nil
	}

	limit := policy.RecordLimit(h.NumRecords)
	if limit < int(h.NumRecords) {
		log.Infof("dbf: recovery: header claims %d records, reading at most %d", h.NumRecords, limit)
	}
	columns := make([][]any, len(fields))
	rows := 0
	buf := make([]byte, h.RecordLength)
	for i := 0; i < limit; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			log.Infof("dbf: recovery: stopped at record %d: %v", i, err)
			break
		}
		if buf[0] == DELETED {
			continue
		}
		pos := 1
		for j, f := range fields {
			n := int(f.Length)
			var v any
			if policy.InBounds(pos, n, len(buf)) {
				v = recoverValue(buf[pos:pos+n], f, text, log, i)
			}
			columns[j] = append(columns[j], v)
			pos += n
		}
		rows++
	}
	if rows == 0 {
		log.Errorf("dbf: recovery: no records recovered")
		return NewTable(), nil
	}
	return buildTable(fields, columns), nil
}

// recoverFields walks descriptor chunks from the end of the header until
// the terminator, a short chunk, or an implausible name.
func recoverFields(r io.Reader, policy RecoveryPolicy, log Logger) []Field {
	var fields []Field
	chunk := make([]byte, DescriptorSize)
	for len(fields) < maxDescriptors {
		if _, err := io.ReadFull(r, chunk); err != nil {
			log.Infof("dbf: recovery: descriptor %d: %v", len(fields), err)
			break
		}
		if policy.IsTerminator(chunk) {
			break
		}
		f, err := DecodeField(chunk)
		if err != nil {
			log.Infof("dbf: recovery: descriptor %d: %v", len(fields), err)
			break
		}
		if !policy.ValidName(f.Name) {
			log.Infof("dbf: recovery: descriptor %d has invalid name %q", len(fields), f.Name)
			break
		}
		fields = append(fields, f)
	}
	return fields
}

// recoverValue converts one field, logging and discarding anything that
// fails.
func recoverValue(raw []byte, f Field, text *textCodec, log Logger, record int) (v any) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("dbf: recovery: record %d field %s: %v", record, f.Name, r)
			v = nil
		}
	}()
	v, ok := convertValue(raw, f, text)
	if !ok {
		log.Infof("dbf: recovery: record %d field %s: cannot convert %q", record, f.Name, raw)
	}
	return v
}
