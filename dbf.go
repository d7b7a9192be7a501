package dbf

import (
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
)

// File is an open table file supporting random access reads and appends.
type File struct {
	mu       sync.RWMutex
	fileName string
	f        *os.File
	opts     *Options
	text     *textCodec

	header     Header
	fields     []Field
	dataOffset int64
	// digest of the file contents as of the last open, reload or append.
	digest uint64
}

// Open opens the table file at fileName and parses its header and field
// descriptors. Unlike ReadFile, Open does not fall back to recovery.
func Open(fileName string, opts *Options) (*File, error) {
	opts = opts.EnsureDefaults()
	text, err := newTextCodec(opts.Encoding)
	if err != nil {
		return nil, err
	}
	flag := os.O_RDWR
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(fileName, flag, 0)
	if err != nil {
		return nil, openError(err, fileName)
	}
	dbf := &File{
		fileName: fileName,
		f:        f,
		opts:     opts,
		text:     text,
	}
	if err := dbf.init(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return dbf, nil
}

func (dbf *File) init() error {
	if _, err := dbf.f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "dbf: seek %s", dbf.fileName)
	}
	l, err := readLayout(dbf.f)
	if err != nil {
		return errors.Wrapf(err, "dbf: %s", dbf.fileName)
	}
	digest, err := dbf.fileDigest()
	if err != nil {
		return err
	}
	dbf.header, dbf.fields, dbf.dataOffset = l.header, l.fields, l.dataOffset
	dbf.digest = digest
	return nil
}

// Reload re-reads the header and descriptors from disk.
func (dbf *File) Reload() error {
	dbf.mu.Lock()
	defer dbf.mu.Unlock()
	return dbf.init()
}

// Close closes the underlying file.
func (dbf *File) Close() error {
	dbf.mu.Lock()
	defer dbf.mu.Unlock()
	return dbf.f.Close()
}

// Header returns the parsed file header.
func (dbf *File) Header() Header {
	dbf.mu.RLock()
	defer dbf.mu.RUnlock()
	return dbf.header
}

// Fields returns the field descriptors.
func (dbf *File) Fields() []Field {
	dbf.mu.RLock()
	defer dbf.mu.RUnlock()
	return append([]Field(nil), dbf.fields...)
}

// NumRecords returns the record count stored in the header, including
// deleted records.
func (dbf *File) NumRecords() uint32 {
	dbf.mu.RLock()
	defer dbf.mu.RUnlock()
	return dbf.header.NumRecords
}

func (dbf *File) fileDigest() (uint64, error) {
	stat, err := dbf.f.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "dbf: stat %s", dbf.fileName)
	}
	h := xxhash.New()
	if _, err := io.Copy(h, io.NewSectionReader(dbf.f, 0, stat.Size())); err != nil {
		return 0, errors.Wrapf(err, "dbf: hash %s", dbf.fileName)
	}
	return h.Sum64(), nil
}
