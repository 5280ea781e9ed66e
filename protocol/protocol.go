// Package protocol specifies the wire format of the drvlogd control
// protocol: the opcodes a datagram may carry, the fixed-size headers that
// frame them, and the global size ceiling every command obeys. All
// multi-byte fields are little-endian. This package describes data only;
// interpretation lives in the processor.
package protocol

import (
	"encoding/binary"
	"errors"
)

// Opcode identifies which command a datagram encodes.
type Opcode uint8

const (
	// OpWriteASCIIMessage appends a textual log message to the in-memory log.
	OpWriteASCIIMessage Opcode = 0
	// OpDumpBuffers renders every buffered message to the caller-supplied
	// output descriptor.
	OpDumpBuffers Opcode = 1
)

// String returns the opcode's wire name for diagnostics.
func (o Opcode) String() string {
	switch o {
	case OpWriteASCIIMessage:
		return "WriteASCIIMessage"
	case OpDumpBuffers:
		return "DumpBuffers"
	default:
		return "Unknown"
	}
}

// Severity tags an ASCII message with the importance its sender assigned.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInformational
	SeverityDebug
	SeverityVerbose
	SeverityDump
)

// String returns the severity's wire name for diagnostics.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInformational:
		return "INFO"
	case SeverityDebug:
		return "DEBUG"
	case SeverityVerbose:
		return "VERBOSE"
	case SeverityDump:
		return "DUMP"
	default:
		return "UNKNOWN"
	}
}

const (
	// MaxMessageSize bounds the total wire size of any single command.
	// Both the processor and the message log depend on it: a frame of
	// MaxMessageSize plus the processor's timestamp header must always fit
	// an empty log, which is what guarantees that an append succeeds after
	// eviction.
	MaxMessageSize = 4096

	// CommandHeaderSize is the encoded size of a Command header:
	// 1 opcode byte followed by a u16 declared payload length.
	CommandHeaderSize = 3

	// AsciiMessageHeaderSize is the encoded size of an AsciiMessage
	// sub-header: severity byte, tag-length byte, u16 data length.
	AsciiMessageHeaderSize = 4
)

// ErrShortBuffer is returned when a buffer is too small to hold the header
// being decoded.
var ErrShortBuffer = errors.New("protocol: buffer too short")

// Command is the fixed header at the start of every datagram.
//
// PayloadLen is the sender's declaration and is untrusted: it is not
// required to match the bytes actually present in the datagram. Validation
// is deliberately deferred to dump time, the expensive path.
type Command struct {
	Opcode     Opcode
	PayloadLen uint16
}

// EncodeCommand serializes c into buf, which must hold at least
// CommandHeaderSize bytes. It returns the number of bytes written.
func EncodeCommand(c Command, buf []byte) (int, error) {
	if len(buf) < CommandHeaderSize {
		return 0, ErrShortBuffer
	}
	buf[0] = byte(c.Opcode)
	binary.LittleEndian.PutUint16(buf[1:3], c.PayloadLen)
	return CommandHeaderSize, nil
}

// DecodeCommand copies a Command header out of buf. The header is copied,
// never aliased, so callers may reuse buf immediately.
func DecodeCommand(buf []byte) (Command, error) {
	if len(buf) < CommandHeaderSize {
		return Command{}, ErrShortBuffer
	}
	return Command{
		Opcode:     Opcode(buf[0]),
		PayloadLen: binary.LittleEndian.Uint16(buf[1:3]),
	}, nil
}

// AsciiMessage is the sub-header that follows a Command with
// OpWriteASCIIMessage. TagLen bytes of tag and DataLen bytes of message
// data follow it on the wire. Like Command.PayloadLen, both declared
// lengths are untrusted.
type AsciiMessage struct {
	Severity Severity
	TagLen   uint8
	DataLen  uint16
}

// EncodeAsciiMessage serializes m into buf, which must hold at least
// AsciiMessageHeaderSize bytes. It returns the number of bytes written.
func EncodeAsciiMessage(m AsciiMessage, buf []byte) (int, error) {
	if len(buf) < AsciiMessageHeaderSize {
		return 0, ErrShortBuffer
	}
	buf[0] = byte(m.Severity)
	buf[1] = m.TagLen
	binary.LittleEndian.PutUint16(buf[2:4], m.DataLen)
	return AsciiMessageHeaderSize, nil
}

// DecodeAsciiMessage copies an AsciiMessage sub-header out of buf.
func DecodeAsciiMessage(buf []byte) (AsciiMessage, error) {
	if len(buf) < AsciiMessageHeaderSize {
		return AsciiMessage{}, ErrShortBuffer
	}
	return AsciiMessage{
		Severity: Severity(buf[0]),
		TagLen:   buf[1],
		DataLen:  binary.LittleEndian.Uint16(buf[2:4]),
	}, nil
}
