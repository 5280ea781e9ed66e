// Package unixgram implements the daemon's primary transport: a Unix
// datagram socket. Each datagram is one command. A sender may attach an
// open file descriptor via SCM_RIGHTS ancillary data; the first attached
// descriptor becomes the command's output descriptor, which is how dump
// requests name their destination.
package unixgram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/metrics"
	"github.com/linchenxuan/drvlogd/network/transport"
	"github.com/linchenxuan/drvlogd/protocol"
	"github.com/linchenxuan/drvlogd/sys"
	"golang.org/x/sys/unix"
)

// maxAttachedFDs bounds the ancillary buffer. Only the first descriptor is
// used; the rest are closed immediately.
const maxAttachedFDs = 4

// UnixGramTransportCfg holds all configuration parameters for the UnixGramTransport.
type UnixGramTransportCfg struct {
	Tag           string `mapstructure:"tag"`           // A unique identifier for this transport instance.
	Path          string `mapstructure:"path"`          // Filesystem path of the datagram socket.
	RecvRateLimit int    `mapstructure:"recvRateLimit"` // Maximum datagrams per second; 0 disables limiting.
	TokenBurst    int    `mapstructure:"tokenBurst"`    // Burst capacity for the rate limiter.
}

// Validate checks if the UnixGramTransportCfg parameters are valid.
func (c *UnixGramTransportCfg) Validate() error {
	if c.Path == "" {
		return errors.New("path cannot be empty")
	}
	if c.RecvRateLimit < 0 {
		return errors.New("recvRateLimit cannot be negative")
	}
	if c.RecvRateLimit > 0 && c.TokenBurst <= 0 {
		return errors.New("tokenBurst must be positive when rate limiting is enabled")
	}
	return nil
}

// UnixGramTransport implements the Transport interface over an AF_UNIX
// SOCK_DGRAM socket, using the raw descriptor so SCM_RIGHTS ancillary data
// can be received.
type UnixGramTransport struct {
	*UnixGramTransportCfg
	fd          int
	receiver    transport.CommandReceiver
	limiter     *transport.RecvLimiter
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	recvStopped atomic.Bool
}

// NewUnixGramTransport creates a Unix datagram transport instance from cfg.
func NewUnixGramTransport(cfg *UnixGramTransportCfg) (*UnixGramTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid UnixGramTransportCfg: %w", err)
	}
	t := &UnixGramTransport{
		UnixGramTransportCfg: cfg,
		fd:                   -1,
	}
	if cfg.RecvRateLimit > 0 {
		t.limiter = transport.NewRecvLimiter(cfg.RecvRateLimit, cfg.TokenBurst)
	}
	return t, nil
}

// FactoryName returns the name of the factory that created this plugin.
func (t *UnixGramTransport) FactoryName() string {
	return "unixgram"
}

// Start binds the datagram socket and launches the read loop. A stale
// socket file from a previous run is removed first.
func (t *UnixGramTransport) Start(opt transport.TransportOption) error {
	if opt.Receiver == nil {
		return errors.New("unixgram: receiver is nil")
	}
	t.receiver = opt.Receiver

	if err := os.Remove(t.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket '%s': %w", t.Path, err)
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("failed to create unix datagram socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: t.Path}); err != nil {
		_ = unix.Close(fd)
		return fmt.Errorf("failed to bind '%s': %w", t.Path, err)
	}
	// A receive timeout keeps the loop responsive to cancellation.
	tv := unix.Timeval{Sec: 1}
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(t.Path)
		return fmt.Errorf("failed to set receive timeout: %w", err)
	}
	t.fd = fd

	var ctx context.Context
	ctx, t.cancel = context.WithCancel(context.Background())
	t.wg.Add(1)
	go t.readLoop(ctx)
	log.Info().Str("tag", t.Tag).Str("path", t.Path).Msg("unixgram transport listening")
	return nil
}

// StopRecv stops delivering datagrams without releasing the socket.
func (t *UnixGramTransport) StopRecv() error {
	t.recvStopped.Store(true)
	return nil
}

// Stop shuts the transport down, closes the socket, and removes the socket
// file.
func (t *UnixGramTransport) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	t.wg.Wait()
	if t.fd >= 0 {
		_ = unix.Close(t.fd)
		t.fd = -1
	}
	_ = os.Remove(t.Path)
	return nil
}

// readLoop receives datagrams with ancillary data until cancelled.
func (t *UnixGramTransport) readLoop(ctx context.Context) {
	defer t.wg.Done()

	buf := make([]byte, protocol.MaxMessageSize+1)
	oob := make([]byte, unix.CmsgSpace(maxAttachedFDs*4))
	dims := metrics.Dimension{metrics.DimTransport: t.Tag}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, oobn, _, _, err := unix.Recvmsg(t.fd, buf, oob, 0)
		if err != nil {
			if t.handleRecvErr(ctx, err) {
				continue
			}
			return
		}

		outFD := t.extractOutputFD(oob[:oobn])

		if t.recvStopped.Load() {
			closeFD(outFD)
			continue
		}
		if t.limiter != nil {
			if err := t.limiter.Take(ctx); err != nil {
				closeFD(outFD)
				return
			}
		}

		metrics.IncrCounterWithDimGroup(metrics.NameDatagramRecvTotal, metrics.GroupDrvlogd, 1, dims)
		if n > protocol.MaxMessageSize {
			metrics.IncrCounterWithDimGroup(metrics.NameDatagramOversizeTotal, metrics.GroupDrvlogd, 1, dims)
			n = protocol.MaxMessageSize
		}

		t.receiver.OnRecvCommand(&transport.CommandDelivery{
			Data:      buf[:n],
			OutFD:     outFD,
			Transport: t.Tag,
		})
	}
}

// handleRecvErr classifies a receive error, returning true when the read
// loop should keep going. The receive-timeout wakeups and interrupted
// syscalls are routine; any other error is counted but never deafens the
// transport while the daemon is up. Only cancellation ends the loop.
func (t *UnixGramTransport) handleRecvErr(ctx context.Context, err error) bool {
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	metrics.IncrCounterWithDimGroup(metrics.NameDatagramRecvErrTotal, metrics.GroupDrvlogd, 1,
		metrics.Dimension{metrics.DimTransport: t.Tag})
	log.Error().Err(err).Str("tag", t.Tag).Msg("unixgram recvmsg failed")
	return true
}

// extractOutputFD parses SCM_RIGHTS ancillary data and returns the first
// attached descriptor, closing any extras. It returns sys.InvalidFD when
// no descriptor was attached or the data is unparseable.
func (t *UnixGramTransport) extractOutputFD(oob []byte) int {
	if len(oob) == 0 {
		return sys.InvalidFD
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		log.Warn().Err(err).Str("tag", t.Tag).Msg("bad ancillary data")
		return sys.InvalidFD
	}

	outFD := sys.InvalidFD
	for _, scm := range scms {
		fds, err := unix.ParseUnixRights(&scm)
		if err != nil {
			continue
		}
		for _, fd := range fds {
			if outFD == sys.InvalidFD {
				outFD = fd
			} else {
				_ = unix.Close(fd)
			}
		}
	}
	return outFD
}

func closeFD(fd int) {
	if fd != sys.InvalidFD {
		_ = unix.Close(fd)
	}
}
