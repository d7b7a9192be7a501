// Package cdx reads the parts of a compound index file that can be used
// without walking its page tree: the global header and the tag names held
// in the root page. Keys, record numbers and sort order are not decoded.
package cdx

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	dbf "github.com/actuaria/dbfkit"
	"github.com/cockroachdb/errors"
)

const (
	// PageSize is the unit of addressing within the file.
	PageSize = 512
	// SlotSize is the width of the name slots scanned in the root page.
	SlotSize = 32

	// expressionPoolSize is the length of the key expression pool that
	// follows the global header.
	expressionPoolSize = 512
)

// Option bits of Header.Options.
const (
	OptionUnique   = 0x01
	OptionFor      = 0x08
	OptionCompact  = 0x20
	OptionCompound = 0x40
)

// Header is the fixed 512-byte global header.
type Header struct {
	RootPage  uint32
	FreePage  uint32
	Reserved  uint32
	KeyLength uint16
	Options   byte
	Signature byte
	// Order is 0 for ascending keys.
	Order uint16
}

// Unique reports whether the index rejects duplicate keys.
func (h Header) Unique() bool {
	return h.Options&OptionUnique != 0
}

// Ascending reports whether keys sort in ascending order.
func (h Header) Ascending() bool {
	return h.Order == 0
}

// Tag describes one named index within the file. Keys and RecordNumbers
// stay empty: the page tree is not walked.
type Tag struct {
	Name          string
	Expression    string
	KeyLength     uint16
	KeyType       byte
	Unique        bool
	Ascending     bool
	Keys          [][]byte
	RecordNumbers []uint32
}

// Index is the result of reading a compound index file.
type Index struct {
	Header     Header
	Expression string
	Tags       []Tag
}

// ReadFile reads the index file at path. Only a missing or unopenable file
// is an error; damaged contents are logged and yield a partial Index.
func ReadFile(path string, logger dbf.Logger) (*Index, error) {
	if logger == nil {
		logger = dbf.DefaultLogger{}
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "cdx: open %s", path), dbf.ErrNotFound)
		}
		return nil, errors.Wrapf(err, "cdx: open %s", path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "cdx: stat %s", path)
	}
	return Read(f, stat.Size(), logger), nil
}

// Read reads an index of the given size from r.
func Read(r io.ReaderAt, size int64, logger dbf.Logger) *Index {
	if logger == nil {
		logger = dbf.DefaultLogger{}
	}
	ix := &Index{}
	page := make([]byte, PageSize)
	n, err := r.ReadAt(page, 0)
	if n < PageSize {
		logger.Errorf("cdx: header too short (%d bytes): %v", n, err)
		return ix
	}
	ix.Header = decodeHeader(page)

	pool := make([]byte, expressionPoolSize)
	if n, _ := r.ReadAt(pool, PageSize); n > 0 {
		if expr := cString(pool[:n]); printable(expr) {
			ix.Expression = expr
		}
	}

	offset, ok := rootOffset(ix.Header.RootPage, size)
	if !ok {
		logger.Errorf("cdx: root page %d lies outside the file (%d bytes)", ix.Header.RootPage, size)
		return ix
	}
	root := make([]byte, PageSize)
	n, err = r.ReadAt(root, offset)
	if n == 0 {
		logger.Errorf("cdx: read root page at %d: %v", offset, err)
		return ix
	}
	if n < PageSize {
		logger.Infof("cdx: root page at %d is short (%d bytes)", offset, n)
	}
	for _, name := range scanNames(root[:n]) {
		ix.Tags = append(ix.Tags, Tag{
			Name:      name,
			KeyLength: ix.Header.KeyLength,
			Unique:    ix.Header.Unique(),
			Ascending: ix.Header.Ascending(),
		})
	}
	if len(ix.Tags) == 0 {
		logger.Infof("cdx: no tag names found in root page at %d", offset)
	}
	return ix
}

func decodeHeader(page []byte) Header {
	return Header{
		RootPage:  binary.LittleEndian.Uint32(page[0:]),
		FreePage:  binary.LittleEndian.Uint32(page[4:]),
		Reserved:  binary.LittleEndian.Uint32(page[8:]),
		KeyLength: binary.LittleEndian.Uint16(page[12:]),
		Options:   page[14],
		Signature: page[15],
		Order:     binary.LittleEndian.Uint16(page[502:]),
	}
}

// rootOffset resolves the root pointer. It is taken as a page number when
// that lands inside the file, and otherwise as a page-aligned byte offset.
func rootOffset(root uint32, size int64) (int64, bool) {
	if off := int64(root) * PageSize; off > 0 && off < size {
		return off, true
	}
	if off := int64(root); off > 0 && off%PageSize == 0 && off < size {
		return off, true
	}
	return 0, false
}

// scanNames returns the printable, NUL-terminated strings found at the
// start of each SlotSize slot of page.
func scanNames(page []byte) []string {
	var names []string
	for start := 0; start+SlotSize <= len(page); start += SlotSize {
		name := cString(page[start : start+SlotSize])
		if name != "" && printable(name) {
			names = append(names, name)
		}
	}
	return names
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimSpace(b))
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return false
		}
	}
	return true
}
