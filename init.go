package dbf

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// terminatorScanLimit bounds the search for the descriptor terminator when
// it is not where the field count says it should be.
const terminatorScanLimit = 100

// layout is the parsed preamble of a table file.
type layout struct {
	header     Header
	fields     []Field
	dataOffset int64
}

// readLayout parses header, descriptors and terminator, leaving r
// positioned at the first record.
func readLayout(r io.ReadSeeker) (layout, error) {
	var l layout
	h, err := readHeader(r)
	if err != nil {
		return l, err
	}
	fields, err := readFields(r, h.NumFields())
	if err != nil {
		return l, err
	}
	if len(fields) == 0 {
		return l, FormatErrorf("dbf: no field descriptors (header length %d)", h.HeaderLength)
	}
	need := 1
	for _, f := range fields {
		need += int(f.Length)
	}
	if int(h.RecordLength) < need {
		return l, FormatErrorf("dbf: record length %d is smaller than the %d bytes its fields need",
			h.RecordLength, need)
	}
	offset, err := findTerminator(r, len(fields))
	if err != nil {
		return l, err
	}
	if _, err := r.Seek(offset, io.SeekStart); err != nil {
		return l, errors.Wrap(err, "dbf: seek to records")
	}
	l.header, l.fields, l.dataOffset = h, fields, offset
	return l, nil
}

func readHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, FormatErrorf("dbf: header too short (%d bytes)", n)
		}
		return Header{}, errors.Wrap(err, "dbf: read header")
	}
	return decodeHeader(buf)
}

// readFields reads up to n descriptors. A chunk starting with the
// terminator ends the list early; a short final chunk is zero padded.
func readFields(r io.Reader, n int) ([]Field, error) {
	var fields []Field
	chunk := make([]byte, DescriptorSize)
	for i := 0; i < n; i++ {
		m, err := io.ReadFull(r, chunk)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, errors.Wrap(err, "dbf: read field descriptor")
		}
		if m == 0 {
			break
		}
		if chunk[0] == TERMINATOR {
			break
		}
		for j := m; j < len(chunk); j++ {
			chunk[j] = NUL
		}
		f, err := DecodeField(chunk)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if m < DescriptorSize {
			break
		}
	}
	return fields, nil
}

// findTerminator returns the offset of the first record for a file with
// numFields descriptors. The terminator is searched for within
// terminatorScanLimit bytes of its expected offset, first at descriptor
// boundaries and then at any byte; if it is not found the expected layout
// is assumed.
func findTerminator(r io.ReadSeeker, numFields int) (int64, error) {
	expected := int64(HeaderSize + DescriptorSize*numFields)
	if _, err := r.Seek(expected, io.SeekStart); err != nil {
		return 0, errors.Wrap(err, "dbf: seek to terminator")
	}
	buf := make([]byte, terminatorScanLimit)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, errors.Wrap(err, "dbf: read terminator")
	}
	// A terminator at a descriptor boundary wins over a stray 0x0D inside
	// a descriptor the header did not count.
	for i := 0; i < n; i += DescriptorSize {
		if buf[i] == TERMINATOR {
			return expected + int64(i) + 1, nil
		}
	}
	if i := bytes.IndexByte(buf[:n], TERMINATOR); i >= 0 {
		return expected + int64(i) + 1, nil
	}
	return expected + 1, nil
}
