package dbf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// Field describes one column of a table file.
type Field struct {
	Name     string
	Type     FieldType
	Length   uint8
	Decimals uint8
}

func (f Field) String() string {
	return fmt.Sprintf("%s %c(%d,%d)", f.Name, byte(f.Type), f.Length, f.Decimals)
}

// EncodeField returns the 32-byte descriptor for f. The name is truncated
// to MaxNameLen bytes and NUL padded; the type tag is upper-cased.
func EncodeField(f Field) [DescriptorSize]byte {
	var d rawDescriptor
	name := f.Name
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	copy(d.Name[:], name)
	d.Type = byte(f.Type.Upper())
	d.Length = f.Length
	d.Decimal = f.Decimals

	var out [DescriptorSize]byte
	buf := bytes.NewBuffer(out[:0])
	// Writing a fixed-size struct into a bytes.Buffer cannot fail.
	_ = binary.Write(buf, binary.LittleEndian, &d)
	copy(out[:], buf.Bytes())
	return out
}

// DecodeField parses a 32-byte descriptor. The name ends at the first NUL.
func DecodeField(b []byte) (Field, error) {
	if len(b) < DescriptorSize {
		return Field{}, FormatErrorf("dbf: field descriptor too short (%d bytes)", len(b))
	}
	var d rawDescriptor
	if err := binary.Read(bytes.NewReader(b[:DescriptorSize]), binary.LittleEndian, &d); err != nil {
		return Field{}, FormatErrorf("dbf: decode field descriptor: %v", err)
	}
	index := bytes.IndexByte(d.Name[:], NUL)
	if index == -1 {
		index = len(d.Name)
	}
	return Field{
		Name:     defaultText.decode(d.Name[:index]),
		Type:     FieldType(d.Type),
		Length:   d.Length,
		Decimals: d.Decimal,
	}, nil
}

// truncateName cuts name to the part a descriptor stores.
func truncateName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}

func validName(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7E {
			return false
		}
	}
	return true
}
