package sys

import (
	"golang.org/x/sys/unix"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/utils/clamp"
)

// realOS implements OS on top of the kernel.
type realOS struct{}

// NewOS returns the production OS implementation.
func NewOS() OS {
	return &realOS{}
}

func clockID(c Clock) int32 {
	switch c {
	case ClockMonotonic:
		return unix.CLOCK_MONOTONIC
	case ClockBoottime:
		return unix.CLOCK_BOOTTIME
	case ClockRealtime:
		return unix.CLOCK_REALTIME
	default:
		log.Fatal().Int("clock", int(c)).Msg("unknown clock kind")
		return 0
	}
}

// GetTimestamp reads the requested clock. Clock reads only fail for
// programming errors (bad clock id, bad address), so any failure here is
// fatal rather than reported.
func (o *realOS) GetTimestamp(c Clock) Timestamp {
	var ts unix.Timespec
	if err := unix.ClockGettime(clockID(c), &ts); err != nil {
		log.Fatal().Str("clock", c.String()).Err(err).Msg("clock_gettime failed")
	}
	if ts.Nsec < 0 || ts.Nsec >= 1e9 {
		log.Fatal().Str("clock", c.String()).Int64("nsec", ts.Nsec).
			Msg("clock_gettime returned out-of-range nanoseconds")
	}
	return Timestamp{
		Secs:  clamp.Clamp(ts.Sec, 0, clamp.MaxVal[uint32]()),
		Nsecs: uint32(ts.Nsec),
	}
}

// Write writes buf to fd, reporting the result errno-style.
func (o *realOS) Write(fd int, buf []byte) (int, unix.Errno) {
	n, err := unix.Write(fd, buf)
	if err != nil {
		errno, ok := err.(unix.Errno)
		if !ok {
			errno = unix.EIO
		}
		if n < 0 {
			n = 0
		}
		return n, errno
	}
	return n, 0
}

// Close releases fd.
func (o *realOS) Close(fd int) error {
	return unix.Close(fd)
}
