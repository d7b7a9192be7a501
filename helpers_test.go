package dbf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type testLogger struct {
	t testing.TB
}

func (l testLogger) Infof(format string, args ...interface{}) {
	l.t.Logf(format, args...)
}

func (l testLogger) Errorf(format string, args ...interface{}) {
	l.t.Logf(format, args...)
}

// captureLogger records every message.
type captureLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *captureLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, args...))
}

func (l *captureLogger) Errorf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func testOptions(t testing.TB) *Options {
	return &Options{
		Logger:  testLogger{t: t},
		ModTime: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

// rawFile assembles a table file by hand. sep is written between the
// descriptors and the records; pass []byte{TERMINATOR} for a well-formed
// file.
func rawFile(h Header, fields []Field, sep []byte, records ...string) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, &h)
	for _, f := range fields {
		d := EncodeField(f)
		buf.Write(d[:])
	}
	buf.Write(sep)
	for _, r := range records {
		buf.WriteString(r)
	}
	buf.WriteByte(EOF)
	return buf.Bytes()
}

// describe renders a decoded value with its type.
func describe(v any) string {
	switch x := v.(type) {
	case nil:
		return "<nil>"
	case string:
		return fmt.Sprintf("string %q", x)
	case int64:
		return fmt.Sprintf("int64 %d", x)
	case float64:
		return "float64 " + strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return fmt.Sprintf("bool %t", x)
	case time.Time:
		return "date " + x.Format("2006-01-02")
	}
	return fmt.Sprintf("%T %v", v, v)
}
