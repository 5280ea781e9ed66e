package log

import (
	"bytes"
	"strconv"
	"time"
)

// Formatting helpers for the JSON-shaped log entries LogEvent builds.
// They write directly into the event's buffer to keep the logging path
// allocation-free.

// AppendBeginMarker writes the object start character.
func AppendBeginMarker(buf *bytes.Buffer) {
	buf.WriteByte('{')
}

// AppendEndMarker writes the object end character.
func AppendEndMarker(buf *bytes.Buffer) {
	buf.WriteByte('}')
}

// AppendLineBreak terminates an entry.
func AppendLineBreak(buf *bytes.Buffer) {
	buf.WriteByte('\n')
}

// AppendKey writes a field key, inserting a separating comma unless the
// key opens the object.
func AppendKey(buf *bytes.Buffer, key string) {
	if buf.Len() >= 1 && buf.Bytes()[buf.Len()-1] != '{' {
		buf.WriteByte(',')
	}
	AppendString(buf, key)
	buf.WriteByte(':')
}

// AppendString writes a quoted, escaped string value.
func AppendString(buf *bytes.Buffer, s string) {
	b := buf.AvailableBuffer()
	buf.Write(strconv.AppendQuote(b, s))
}

// AppendNil writes a null value.
func AppendNil(buf *bytes.Buffer) {
	buf.WriteString("null")
}

// AppendBool writes a bool value.
func AppendBool(buf *bytes.Buffer, v bool) {
	b := buf.AvailableBuffer()
	buf.Write(strconv.AppendBool(b, v))
}

// AppendInt64 writes a signed integer value.
func AppendInt64(buf *bytes.Buffer, v int64) {
	b := buf.AvailableBuffer()
	buf.Write(strconv.AppendInt(b, v, 10))
}

// AppendUint64 writes an unsigned integer value.
func AppendUint64(buf *bytes.Buffer, v uint64) {
	b := buf.AvailableBuffer()
	buf.Write(strconv.AppendUint(b, v, 10))
}

// AppendTime writes a quoted timestamp in "2006-01-02 15:04:05.000" form.
func AppendTime(buf *bytes.Buffer, t time.Time) {
	buf.WriteByte('"')
	b := buf.AvailableBuffer()
	buf.Write(t.AppendFormat(b, "2006-01-02 15:04:05.000"))
	buf.WriteByte('"')
}
