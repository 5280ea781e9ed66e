package log

import (
	"bytes"
	"encoding/hex"
	"time"
)

// LogEvent is a single structured log entry under construction. Field
// methods append key-value pairs and return the event for chaining; Msg
// finalizes the entry and hands it to the logger's appenders.
//
// A nil *LogEvent (returned when the entry is below the logger's minimum
// level) is a valid receiver for every method, so call sites never need a
// level check of their own.
type LogEvent struct {
	buf    *bytes.Buffer
	logger Logger
	level  Level
}

// newEvent creates an event with a pre-grown buffer. The logger's pool
// calls this; nothing else should.
func newEvent(l Logger) *LogEvent {
	e := &LogEvent{
		logger: l,
		level:  DebugLevel,
		buf:    &bytes.Buffer{},
	}
	e.buf.Grow(512)
	AppendBeginMarker(e.buf)
	return e
}

// Reset prepares the event for reuse by the pool.
func (e *LogEvent) Reset() {
	e.buf.Reset()
	e.level = DebugLevel
	AppendBeginMarker(e.buf)
}

// Level returns the severity of the event.
func (e *LogEvent) Level() Level {
	return e.level
}

// Str appends a string field.
func (e *LogEvent) Str(k, v string) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendString(e.buf, v)
	return e
}

// Int appends an int field.
func (e *LogEvent) Int(k string, v int) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendInt64(e.buf, int64(v))
	return e
}

// Int64 appends an int64 field.
func (e *LogEvent) Int64(k string, v int64) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendInt64(e.buf, v)
	return e
}

// Uint32 appends a uint32 field.
func (e *LogEvent) Uint32(k string, v uint32) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendUint64(e.buf, uint64(v))
	return e
}

// Uint64 appends a uint64 field.
func (e *LogEvent) Uint64(k string, v uint64) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendUint64(e.buf, v)
	return e
}

// Bool appends a bool field.
func (e *LogEvent) Bool(k string, v bool) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendBool(e.buf, v)
	return e
}

// Hex appends a byte slice field rendered as lowercase hex.
func (e *LogEvent) Hex(k string, v []byte) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendString(e.buf, hex.EncodeToString(v))
	return e
}

// Time appends a timestamp field.
func (e *LogEvent) Time(k string, t time.Time) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, k)
	AppendTime(e.buf, t)
	return e
}

// Err appends an error field, writing null for a nil error.
func (e *LogEvent) Err(v error) *LogEvent {
	if e == nil {
		return nil
	}
	AppendKey(e.buf, "error")
	if v != nil {
		AppendString(e.buf, v.Error())
	} else {
		AppendNil(e.buf)
	}
	return e
}

// Msg attaches the final message and emits the entry. It is the terminal
// call of the fluent chain.
func (e *LogEvent) Msg(v string) {
	if e == nil {
		return
	}
	e.Str("msg", v)
	e.End()
}

// End finalizes the entry and hands it to the logger. Msg calls it
// automatically; use it directly only when no message text is wanted.
func (e *LogEvent) End() {
	if e == nil {
		return
	}
	AppendEndMarker(e.buf)
	AppendLineBreak(e.buf)
	e.logger.OnEventEnd(e)
}

// Bytes exposes the formatted entry to the logger for output.
func (e *LogEvent) Bytes() []byte {
	return e.buf.Bytes()
}
