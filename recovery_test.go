package dbf

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecoveryPolicy(t *testing.T) {
	var p RecoveryPolicy
	p.EnsureDefaults()
	require.Equal(t, DefaultMaxRecords, p.MaxRecords)

	require.True(t, p.IsTerminator([]byte{TERMINATOR, 'X'}))
	require.False(t, p.IsTerminator([]byte{'I', 'D'}))
	require.False(t, p.IsTerminator(nil))

	require.True(t, p.ValidName("ID"))
	require.True(t, p.ValidName("HIRE DATE"))
	require.False(t, p.ValidName(""))
	require.False(t, p.ValidName("   "))
	require.False(t, p.ValidName("A\x01"))
	require.False(t, p.ValidName("né"))

	require.Equal(t, 5, p.RecordLimit(5))
	require.Equal(t, 1000, p.RecordLimit(5000))
	require.Equal(t, 1000, p.RecordLimit(^uint32(0)))
	require.Equal(t, 10, RecoveryPolicy{MaxRecords: 10}.RecordLimit(11))
	require.Equal(t, 1000, RecoveryPolicy{}.RecordLimit(2000))

	require.True(t, p.InBounds(1, 4, 5))
	require.False(t, p.InBounds(5, 5, 5))
	require.False(t, p.InBounds(-1, 1, 5))
}

func TestRecoverWellFormed(t *testing.T) {
	data := rawFile(twoFieldHeader(3, 2), twoFields, []byte{TERMINATOR},
		"    1Alice", "*   2Bob  ", "    3Carol")
	tbl, err := Recover(bytes.NewReader(data), testOptions(t))
	require.NoError(t, err)
	require.Equal(t, twoFields, tbl.Fields)
	require.Equal(t, []any{int64(1), int64(3)}, tbl.Column("ID"))
	require.Equal(t, []any{"Alice", "Carol"}, tbl.Column("NAME"))
}

func TestRecoverStopsAtInvalidName(t *testing.T) {
	data := rawFile(twoFieldHeader(1, 2), twoFields, []byte{TERMINATOR}, "    1Alice")
	// Overwrite the second descriptor's name with control bytes.
	copy(data[HeaderSize+DescriptorSize:], []byte{0x01, 0x02, 0x03})
	logger := &captureLogger{}
	tbl, err := Recover(bytes.NewReader(data), &Options{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, []string{"ID"}, tbl.Names())
	require.Equal(t, []any{int64(1)}, tbl.Column("ID"))
	require.True(t, logger.contains("invalid name"))
}

func TestRecoverTrustsHeaderLength(t *testing.T) {
	// Two junk bytes sit between the terminator and the first record; only
	// the header length says where records start.
	h := twoFieldHeader(1, 2)
	h.HeaderLength += 2
	data := rawFile(h, twoFields, []byte{TERMINATOR, 'x', 'y'}, "    9Zed  ")
	tbl, err := Recover(bytes.NewReader(data), testOptions(t))
	require.NoError(t, err)
	require.Equal(t, []any{int64(9)}, tbl.Column("ID"))
	require.Equal(t, []any{"Zed"}, tbl.Column("NAME"))
}

func TestRecoverCapsRecords(t *testing.T) {
	ids := make([]any, 1500)
	for i := range ids {
		ids[i] = i
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewTable().AddColumn("ID", ids), testOptions(t)))

	tbl, err := Recover(bytes.NewReader(buf.Bytes()), testOptions(t))
	require.NoError(t, err)
	require.Equal(t, DefaultMaxRecords, tbl.NumRows())

	opts := testOptions(t)
	opts.Recovery.MaxRecords = 10
	tbl, err = Recover(bytes.NewReader(buf.Bytes()), opts)
	require.NoError(t, err)
	require.Equal(t, 10, tbl.NumRows())
	require.Equal(t, int64(9), tbl.Column("ID")[9])
}

func TestRecoverLogsConversionFailures(t *testing.T) {
	fields := []Field{{Name: "HIRED", Type: Date, Length: 8}}
	h := Header{NumRecords: 1, HeaderLength: 65, RecordLength: 9}
	logger := &captureLogger{}
	tbl, err := Recover(bytes.NewReader(rawFile(h, fields, []byte{TERMINATOR}, " 20241340")), &Options{Logger: logger})
	require.NoError(t, err)
	require.Equal(t, []any{nil}, tbl.Column("HIRED"))
	require.True(t, logger.contains("cannot convert"))
}

func TestRecoverEmptyResults(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"nothing", nil},
		{"short header", make([]byte, 20)},
		{"no descriptors", rawFile(twoFieldHeader(1, 2), nil, []byte{TERMINATOR}, "    1Alice")},
		{"no records", rawFile(twoFieldHeader(0, 2), twoFields, []byte{TERMINATOR})},
		{"only deleted", rawFile(twoFieldHeader(1, 2), twoFields, []byte{TERMINATOR}, "*   1Alice")},
		{"zero record length", rawFile(Header{NumRecords: 1, HeaderLength: 97}, twoFields, []byte{TERMINATOR})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tbl, err := Recover(bytes.NewReader(tc.data), testOptions(t))
			require.NoError(t, err)
			require.True(t, tbl.IsEmpty())
			require.Equal(t, 0, tbl.NumColumns())
		})
	}
}

func TestRecoverRandomBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		h := Header{
			Version:      Version,
			NumRecords:   rng.Uint32(),
			HeaderLength: uint16(rng.Intn(300)),
			RecordLength: uint16(rng.Intn(100)),
		}
		var buf bytes.Buffer
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h))
		junk := make([]byte, 200)
		rng.Read(junk)
		buf.Write(junk)

		require.NotPanics(t, func() {
			tbl, err := Recover(bytes.NewReader(buf.Bytes()), &Options{Logger: NoopLogger{}})
			require.NoError(t, err)
			require.NotNil(t, tbl)
		})
	}
}

func TestRecoverTruncatedDescriptor(t *testing.T) {
	logger := &captureLogger{}
	tbl, err := Recover(bytes.NewReader(truncatedDescriptor()), &Options{Logger: logger})
	require.NoError(t, err)
	require.True(t, tbl.IsEmpty())
	require.Equal(t, 0, tbl.NumColumns())
	require.True(t, logger.contains("descriptor 0: unexpected EOF"))
	require.True(t, logger.contains("no usable field descriptors"))
}
