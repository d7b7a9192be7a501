package dbf

import (
	"strings"
	"unicode/utf8"

	"github.com/axgle/mahonia"
	"golang.org/x/text/encoding/charmap"
)

// textCodec converts between field bytes and Go strings. Without a named
// charset, bytes are read as ASCII with an ISO-8859-1 fallback and written
// as ASCII with '?' in place of anything else.
type textCodec struct {
	charset string
	encoder mahonia.Encoder
	decoder mahonia.Decoder
}

var defaultText = &textCodec{}

func newTextCodec(charset string) (*textCodec, error) {
	if charset == "" {
		return defaultText, nil
	}
	enc := mahonia.NewEncoder(charset)
	dec := mahonia.NewDecoder(charset)
	if enc == nil || dec == nil {
		return nil, ValidationErrorf("dbf: unknown encoding %q", charset)
	}
	return &textCodec{charset: charset, encoder: enc, decoder: dec}, nil
}

func (c *textCodec) decode(b []byte) string {
	if c.decoder != nil {
		return c.decoder.ConvertString(string(b))
	}
	if isASCII(b) {
		return string(b)
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(s)
}

func (c *textCodec) encode(s string) []byte {
	if c.encoder != nil {
		return []byte(c.encoder.ConvertString(s))
	}
	if isASCII([]byte(s)) {
		return []byte(s)
	}
	var sb strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('?')
		}
	}
	return []byte(sb.String())
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
