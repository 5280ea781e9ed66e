// Package msgbuf implements the bounded in-memory message log at the heart
// of drvlogd: a fixed-capacity byte region holding a FIFO sequence of
// length-prefixed frames. It is the daemon's only mutable store of
// undelivered log data.
//
// A frame is a 2-byte little-endian length prefix followed by exactly that
// many payload bytes. Frames are packed back-to-back from offset 0 with no
// padding. The buffer never resizes and never partially evicts: when a
// write does not fit, the caller clears the whole log. That trades older
// messages for O(1) eviction; loss is always signaled by absence, never by
// corruption.
//
// MessageBuffer is not safe for concurrent use. The command processor is
// its single writer and single reader, and calls are strictly sequential.
package msgbuf

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the size of the per-frame length prefix.
const HeaderSize = 2

// MessageBuffer is a fixed-size buffer providing FIFO access to read and
// write a sequence of messages.
type MessageBuffer struct {
	data     []byte
	readPos  int
	writePos int
}

// New constructs a buffer of the given capacity in bytes. The capacity
// must exceed HeaderSize; anything smaller cannot hold a single frame and
// is a construction-time contract violation, so New panics.
func New(capacity int) *MessageBuffer {
	if capacity <= HeaderSize {
		panic(fmt.Sprintf("msgbuf: capacity %d must exceed header size %d", capacity, HeaderSize))
	}
	return &MessageBuffer{data: make([]byte, capacity)}
}

// Capacity returns the buffer's fixed capacity in bytes.
func (b *MessageBuffer) Capacity() int {
	return len(b.data)
}

// CanFitNow reports whether a frame carrying n payload bytes can be
// appended in the buffer's current state. The formulation avoids
// underflow when the write cursor is near capacity.
func (b *MessageBuffer) CanFitNow(n uint16) bool {
	free := len(b.data) - b.writePos
	return free >= HeaderSize && free-HeaderSize >= int(n)
}

// CanFitEver reports whether a frame carrying n payload bytes could be
// appended to an empty buffer, independent of current state. Callers use
// it as a static precondition check, distinct from the dynamic CanFitNow.
func (b *MessageBuffer) CanFitEver(n uint16) bool {
	return len(b.data)-HeaderSize >= int(n)
}

// Append writes msg as a new frame at the write cursor. A zero-length
// message is a caller bug, not a runtime condition, and panics. Append
// returns false only when CanFitNow would have: callers are expected to
// have checked first, and treat a failure after a successful check as an
// unrecoverable logic error.
func (b *MessageBuffer) Append(msg []byte) bool {
	if len(msg) == 0 {
		panic("msgbuf: zero-length append")
	}
	if len(msg) > int(^uint16(0)) {
		panic(fmt.Sprintf("msgbuf: message of %d bytes cannot be framed", len(msg)))
	}

	n := uint16(len(msg))
	if !b.CanFitNow(n) {
		return false
	}

	binary.LittleEndian.PutUint16(b.data[b.writePos:], n)
	b.writePos += HeaderSize
	copy(b.data[b.writePos:], msg)
	b.writePos += int(n)
	return true
}

// ConsumeNextMessage returns the next unread frame's payload and advances
// the read cursor past it. It returns nil when no messages remain.
//
// The returned slice is a view into the buffer, not a copy; it is valid
// only until the next mutation (Append, Clear). A stored length that runs
// past capacity means the buffer was corrupted by a logic error, and
// panics.
func (b *MessageBuffer) ConsumeNextMessage() []byte {
	if b.readPos >= b.writePos {
		return nil
	}

	payloadLen := int(binary.LittleEndian.Uint16(b.data[b.readPos:]))
	b.readPos += HeaderSize

	start := b.readPos
	b.readPos += payloadLen
	if b.readPos > len(b.data) {
		panic(fmt.Sprintf("msgbuf: frame of %d bytes at %d runs past capacity %d",
			payloadLen, start, len(b.data)))
	}

	return b.data[start : start+payloadLen]
}

// Rewind resets the read cursor to the start of the buffer, making every
// buffered message readable again.
func (b *MessageBuffer) Rewind() {
	b.readPos = 0
}

// RewindGuard captures the current read cursor and returns a function that
// restores it. Use with defer so that an operation which consumes messages
// never permanently advances the read cursor, even when it aborts partway:
//
//	defer b.RewindGuard()()
func (b *MessageBuffer) RewindGuard() func() {
	pos := b.readPos
	return func() {
		b.readPos = pos
	}
}

// Clear discards all buffered data by resetting both cursors. It is the
// buffer's only eviction mechanism.
func (b *MessageBuffer) Clear() {
	b.readPos = 0
	b.writePos = 0
}

// UsedBytes returns the number of bytes currently occupied by frames,
// headers included.
func (b *MessageBuffer) UsedBytes() int {
	return b.writePos
}
