package dbf

import (
	"bytes"
	"encoding/binary"
	"time"
)

const (
	// HeaderSize is the size of the fixed file header.
	HeaderSize = 32
	// DescriptorSize is the size of one field descriptor.
	DescriptorSize = 32
	// MaxNameLen is the longest field name a descriptor can hold.
	MaxNameLen = 10

	// Version is the version tag written into new files (dBASE III, no memo).
	Version = 0x03

	SPACE      = 0x20
	EOF        = 0x1A
	NUL        = 0x00
	TERMINATOR = 0x0D
	DELETED    = '*'
)

// Header represents the structure of the 32-byte table file header.
type Header struct {
	Version         byte
	LastUpdateYear  byte // years since 1900
	LastUpdateMonth byte
	LastUpdateDay   byte
	NumRecords      uint32
	HeaderLength    uint16
	RecordLength    uint16
	Reserved        [20]byte
}

// ModTime returns the last-modified date stored in the header. ok is false
// when the stored bytes do not form a valid calendar date.
func (h Header) ModTime() (t time.Time, ok bool) {
	y, m, d := 1900+int(h.LastUpdateYear), int(h.LastUpdateMonth), int(h.LastUpdateDay)
	t = time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if m < 1 || m > 12 || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// NumFields is the field count implied by HeaderLength.
func (h Header) NumFields() int {
	n := (int(h.HeaderLength) - HeaderSize - 1) / DescriptorSize
	if n < 0 {
		return 0
	}
	return n
}

// Years a header can store as an offset from MinYear.
const (
	MinYear = 1900
	MaxYear = MinYear + 0xFF
)

// updateDate packs t into the header's year-1900, month, day bytes.
func updateDate(t time.Time) ([3]byte, error) {
	year, month, day := t.Date()
	if year < MinYear || year > MaxYear {
		return [3]byte{}, ValidationErrorf("dbf: modification year %d out of range [%d, %d]", year, MinYear, MaxYear)
	}
	return [3]byte{byte(year - MinYear), byte(month), byte(day)}, nil
}

func newHeader(numRecords uint32, numFields int, recordLength int, date [3]byte) Header {
	return Header{
		Version:         Version,
		LastUpdateYear:  date[0],
		LastUpdateMonth: date[1],
		LastUpdateDay:   date[2],
		NumRecords:      numRecords,
		HeaderLength:    uint16(HeaderSize + DescriptorSize*numFields + 1),
		RecordLength:    uint16(recordLength),
	}
}

func decodeHeader(buf []byte) (Header, error) {
	var h Header
	if len(buf) < HeaderSize {
		return h, FormatErrorf("dbf: header too short (%d bytes)", len(buf))
	}
	if err := binary.Read(bytes.NewReader(buf[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return h, FormatErrorf("dbf: decode header: %v", err)
	}
	return h, nil
}

// rawDescriptor is the on-disk layout of a field descriptor. Bytes 12-15
// and 18-31 are reserved; there is no work-area byte.
type rawDescriptor struct {
	Name      [11]byte
	Type      byte
	Reserved1 [4]byte
	Length    byte
	Decimal   byte
	Reserved2 [14]byte
}
