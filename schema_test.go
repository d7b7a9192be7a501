package dbf

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestEncodeFieldLayout(t *testing.T) {
	d := EncodeField(Field{Name: "SALARY", Type: 'f', Length: 12, Decimals: 2})
	require.Equal(t, "SALARY\x00\x00\x00\x00\x00", string(d[0:11]))
	require.Equal(t, byte('F'), d[11])
	require.Equal(t, []byte{0, 0, 0, 0}, d[12:16])
	require.Equal(t, byte(12), d[16])
	require.Equal(t, byte(2), d[17])
	require.Equal(t, make([]byte, 14), d[18:32])
}

func TestEncodeFieldTruncatesName(t *testing.T) {
	d := EncodeField(Field{Name: "HIRE_DATE_UTC", Type: Date, Length: 8})
	require.Equal(t, "HIRE_DATE_\x00", string(d[0:11]))
	f, err := DecodeField(d[:])
	require.NoError(t, err)
	require.Equal(t, "HIRE_DATE_", f.Name)
}

func TestDecodeEncodeField(t *testing.T) {
	for _, f := range []Field{
		{Name: "ID", Type: Numeric, Length: 18},
		{Name: "NAME", Type: Character, Length: 254},
		{Name: "SALARY", Type: Float, Length: 20, Decimals: 6},
		{Name: "ACTIVE", Type: Logical, Length: 1},
		{Name: "HIRED", Type: Date, Length: 8},
		{Name: "NOTES", Type: Memo, Length: 10},
		{Name: "ABCDEFGHIJ", Type: 'X', Length: 255, Decimals: 255},
		{Name: "a b", Type: Character, Length: 0},
	} {
		d := EncodeField(f)
		got, err := DecodeField(d[:])
		require.NoError(t, err)
		require.Equal(t, f, got)
	}
}

func TestDecodeFieldShort(t *testing.T) {
	_, err := DecodeField(make([]byte, 31))
	require.True(t, errors.Is(err, ErrFormat))
	require.Contains(t, err.Error(), "31 bytes")
}

func TestDecodeFieldStopsAtNUL(t *testing.T) {
	d := EncodeField(Field{Name: "ID", Type: Numeric, Length: 4})
	copy(d[3:11], "garbage!")
	f, err := DecodeField(d[:])
	require.NoError(t, err)
	require.Equal(t, "ID", f.Name)
}

func TestHeaderModTime(t *testing.T) {
	date, err := updateDate(time.Date(2024, time.February, 29, 15, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	h := newHeader(3, 2, 30, date)
	require.Equal(t, byte(124), h.LastUpdateYear)
	require.Equal(t, uint16(32+64+1), h.HeaderLength)
	require.Equal(t, 2, h.NumFields())
	got, ok := h.ModTime()
	require.True(t, ok)
	require.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), got)

	h.LastUpdateDay = 30
	_, ok = h.ModTime()
	require.False(t, ok)
	h.LastUpdateMonth = 0
	_, ok = h.ModTime()
	require.False(t, ok)
}

func TestUpdateDateRange(t *testing.T) {
	for _, year := range []int{MinYear, 2024, MaxYear} {
		date, err := updateDate(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		got, ok := Header{LastUpdateYear: date[0], LastUpdateMonth: date[1], LastUpdateDay: date[2]}.ModTime()
		require.True(t, ok)
		require.Equal(t, year, got.Year())
	}
	for _, year := range []int{1899, 2156, 2200} {
		_, err := updateDate(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC))
		require.True(t, errors.Is(err, ErrValidation), "year %d: %v", year, err)
	}
}

func TestHeaderNumFields(t *testing.T) {
	require.Equal(t, 0, Header{HeaderLength: 0}.NumFields())
	require.Equal(t, 0, Header{HeaderLength: 33}.NumFields())
	require.Equal(t, 1, Header{HeaderLength: 65}.NumFields())
	require.Equal(t, 3, Header{HeaderLength: 129}.NumFields())
}
