// Package sys abstracts the operating system calls the daemon core
// depends on: clock reads and descriptor writes. Abstracting them serves
// the same goals at each layer: tests run hermetically against a fake,
// callers get interfaces shaped for the daemon rather than raw syscalls,
// and the core stays free of platform details.
package sys

import "golang.org/x/sys/unix"

// Clock selects which of the three kernel clocks to read.
type Clock int

const (
	// ClockMonotonic counts seconds since boot, excluding time spent
	// suspended.
	ClockMonotonic Clock = iota
	// ClockBoottime counts seconds since boot, including time spent
	// suspended.
	ClockBoottime
	// ClockRealtime is the wall clock, seconds since the epoch.
	ClockRealtime
)

// String returns the clock's name for diagnostics.
func (c Clock) String() string {
	switch c {
	case ClockMonotonic:
		return "monotonic"
	case ClockBoottime:
		return "boottime"
	case ClockRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Timestamp is a clock reading. Secs saturates rather than wraps when the
// underlying value exceeds 32 bits, which keeps it sufficient through
// 2100. Nsecs is always below 1e9.
type Timestamp struct {
	Secs  uint32
	Nsecs uint32
}

// InvalidFD marks the absence of an output descriptor in a command
// delivery.
const InvalidFD = -1

// OS is the capability interface the command processor consumes. The real
// implementation lives in this package; tests inject fakes.
type OS interface {
	// GetTimestamp returns the current reading of the given clock. A
	// failing clock read, or one reporting an out-of-range nanosecond
	// value, is unrecoverable.
	GetTimestamp(c Clock) Timestamp

	// Write writes buf to fd. It returns the number of bytes written and
	// an errno-style result: zero means success. The returned count never
	// exceeds len(buf).
	Write(fd int, buf []byte) (int, unix.Errno)

	// Close releases fd.
	Close(fd int) error
}
