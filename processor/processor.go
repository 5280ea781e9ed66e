// Package processor implements the daemon's command engine. It owns the
// message log, interprets incoming command datagrams, and renders dumps to
// caller-supplied descriptors.
//
// The engine is single-threaded: transports funnel every delivery through
// one ProcessCommand call at a time, so neither the processor nor the
// buffer beneath it needs locking.
package processor

import (
	"encoding/binary"
	"fmt"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/metrics"
	"github.com/linchenxuan/drvlogd/msgbuf"
	"github.com/linchenxuan/drvlogd/protocol"
	"github.com/linchenxuan/drvlogd/sys"
	"github.com/linchenxuan/drvlogd/utils/clamp"
	"golang.org/x/sys/unix"
)

// timestampHeaderLen is the size of the receive-time header prepended to
// every logged command: three clock readings of two u32 fields each.
const timestampHeaderLen = 24

// A max-size command plus its timestamp header must be framable with a u16
// length prefix; the conversion fails to compile otherwise.
const _ = uint16(protocol.MaxMessageSize + timestampHeaderLen)

// CommandProcessor interprets command datagrams against the message log.
// It is not safe for concurrent use.
type CommandProcessor struct {
	os  sys.OS
	buf *msgbuf.MessageBuffer

	// frame and line are reused across commands to keep the hot path
	// allocation-free.
	frame [timestampHeaderLen + protocol.MaxMessageSize]byte
	line  []byte
}

// New constructs a processor with a message log of bufferSizeBytes. The
// capacity must admit a max-size command with its timestamp header; a
// smaller buffer is a construction-time contract violation and panics.
func New(bufferSizeBytes int, osIface sys.OS) *CommandProcessor {
	p := &CommandProcessor{
		os:   osIface,
		buf:  msgbuf.New(bufferSizeBytes),
		line: make([]byte, 0, 64),
	}
	if !p.buf.CanFitEver(timestampHeaderLen + protocol.MaxMessageSize) {
		panic(fmt.Sprintf("processor: buffer of %d bytes cannot hold a max-size command", bufferSizeBytes))
	}
	return p
}

// ProcessCommand executes one received datagram. fd is the output
// descriptor that accompanied the datagram, or sys.InvalidFD; ownership
// transfers to the processor, which closes it before returning. The bool
// result reports whether the command was carried out, and is advisory:
// transports keep receiving either way.
func (p *CommandProcessor) ProcessCommand(input []byte, fd int) bool {
	if fd != sys.InvalidFD {
		defer func() {
			if err := p.os.Close(fd); err != nil {
				log.Warn().Err(err).Int("fd", fd).Msg("close output fd")
			}
		}()
	}

	cmd, err := protocol.DecodeCommand(input)
	if err != nil {
		metrics.IncrCounterWithDimGroup(metrics.NameCommandDropTotal, metrics.GroupDrvlogd, 1,
			metrics.Dimension{metrics.DimReason: metrics.ReasonShortHeader})
		log.Warn().Int("len", len(input)).Msg("datagram too short for command header")
		return false
	}

	switch cmd.Opcode {
	case protocol.OpWriteASCIIMessage:
		return p.copyCommandToLog(input)
	case protocol.OpDumpBuffers:
		return p.dumpBuffers(fd)
	default:
		metrics.IncrCounterWithDimGroup(metrics.NameCommandDropTotal, metrics.GroupDrvlogd, 1,
			metrics.Dimension{metrics.DimReason: metrics.ReasonUnknownOpcode})
		log.Warn().Int("opcode", int(cmd.Opcode)).Msg("unknown opcode")
		return false
	}
}

// BufferUsedBytes returns the bytes currently occupied in the message log.
func (p *CommandProcessor) BufferUsedBytes() int {
	return p.buf.UsedBytes()
}

// copyCommandToLog stores the raw command bytes, prefixed with a header of
// receive timestamps from all three clocks. The command is stored as
// received: declared lengths inside it are not validated here. Deferring
// validation keeps the write path cheap; readers re-clamp at render time.
func (p *CommandProcessor) copyCommandToLog(input []byte) bool {
	cmdLen := clamp.Clamp(len(input), 0, protocol.MaxMessageSize)

	pos := putTimestamp(p.frame[:0], p.os.GetTimestamp(sys.ClockMonotonic))
	pos = putTimestamp(pos, p.os.GetTimestamp(sys.ClockBoottime))
	pos = putTimestamp(pos, p.os.GetTimestamp(sys.ClockRealtime))
	entry := append(pos, input[:cmdLen]...)

	if !p.buf.CanFitEver(uint16(len(entry))) {
		panic(fmt.Sprintf("processor: entry of %d bytes can never fit the log", len(entry)))
	}
	if !p.buf.CanFitNow(uint16(len(entry))) {
		// Whole-log eviction: discard everything older rather than track
		// partial-eviction state.
		p.buf.Clear()
		metrics.IncrCounterWithGroup(metrics.NameLogEvictionTotal, metrics.GroupDrvlogd, 1)
		log.Info().Int("entryBytes", len(entry)).Msg("log buffer evicted")
	}
	if !p.buf.Append(entry) {
		panic("processor: append failed after eviction")
	}

	metrics.UpdateGaugeWithGroup(metrics.NameLogBufferUsedBytes, metrics.GroupDrvlogd,
		metrics.Value(p.buf.UsedBytes()))
	return true
}

// dumpBuffers renders every buffered entry to fd, one line per entry,
// oldest first. The read cursor is restored on every exit path, so dumping
// never consumes the log and repeated dumps yield identical output.
func (p *CommandProcessor) dumpBuffers(fd int) bool {
	metrics.IncrCounterWithGroup(metrics.NameDumpTotal, metrics.GroupDrvlogd, 1)
	if fd == sys.InvalidFD {
		log.Warn().Msg("dump request without output fd")
		return false
	}

	defer p.buf.RewindGuard()()
	p.buf.Rewind()

	for {
		entry := p.buf.ConsumeNextMessage()
		if entry == nil {
			return true
		}
		if len(entry) < timestampHeaderLen {
			panic(fmt.Sprintf("processor: logged entry of %d bytes lacks timestamp header", len(entry)))
		}

		p.line = appendDumpLine(p.line[:0], entry[:timestampHeaderLen])
		n, errno := p.os.Write(fd, p.line)
		if errno == unix.EINTR {
			// The entry was already consumed; skipping it on interruption
			// matches the at-most-once delivery of the dump path.
			metrics.IncrCounterWithGroup(metrics.NameDumpEINTRSkipTotal, metrics.GroupDrvlogd, 1)
			continue
		}
		// Failure is signaled by errno alone. A short count with errno 0
		// may garble the line, an accepted cost of forward progress.
		if errno != 0 {
			metrics.IncrCounterWithGroup(metrics.NameDumpAbortTotal, metrics.GroupDrvlogd, 1)
			log.Error().Int("written", n).Int("errno", int(errno)).Msg("dump write failed")
			return false
		}
	}
}

// putTimestamp appends one clock reading as two little-endian u32 fields.
func putTimestamp(buf []byte, ts sys.Timestamp) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, ts.Secs)
	return binary.LittleEndian.AppendUint32(buf, ts.Nsecs)
}

// appendDumpLine formats the three receive timestamps of one entry as
// "<mono> <boot> <real>\n", each rendered as seconds.microseconds with the
// fraction zero-padded to six digits and truncated, not rounded.
func appendDumpLine(buf []byte, header []byte) []byte {
	for i := 0; i < 3; i++ {
		if i > 0 {
			buf = append(buf, ' ')
		}
		secs := binary.LittleEndian.Uint32(header[i*8:])
		nsecs := binary.LittleEndian.Uint32(header[i*8+4:])
		buf = fmt.Appendf(buf, "%d.%06d", secs, nsecs/1000)
	}
	return append(buf, '\n')
}
