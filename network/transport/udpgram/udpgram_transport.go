// Package udpgram implements a UDP datagram transport. Each datagram is one
// command; there is no reply channel, so dump commands arriving over UDP
// carry no output descriptor and will be refused by the command engine.
package udpgram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linchenxuan/drvlogd/log"
	"github.com/linchenxuan/drvlogd/metrics"
	"github.com/linchenxuan/drvlogd/network/transport"
	"github.com/linchenxuan/drvlogd/protocol"
	"github.com/linchenxuan/drvlogd/sys"
)

// UDPGramTransportCfg holds all configuration parameters for the UDPGramTransport.
type UDPGramTransportCfg struct {
	Tag           string `mapstructure:"tag"`           // A unique identifier for this transport instance.
	Addr          string `mapstructure:"addr"`          // The UDP address (e.g., "127.0.0.1:9514") to listen on.
	RecvRateLimit int    `mapstructure:"recvRateLimit"` // Maximum datagrams per second; 0 disables limiting.
	TokenBurst    int    `mapstructure:"tokenBurst"`    // Burst capacity for the rate limiter.
}

// Validate checks if the UDPGramTransportCfg parameters are valid.
func (c *UDPGramTransportCfg) Validate() error {
	if c.Addr == "" {
		return errors.New("addr cannot be empty")
	}
	if c.RecvRateLimit < 0 {
		return errors.New("recvRateLimit cannot be negative")
	}
	if c.RecvRateLimit > 0 && c.TokenBurst <= 0 {
		return errors.New("tokenBurst must be positive when rate limiting is enabled")
	}
	return nil
}

// UDPGramTransport implements the Transport interface over a UDP socket.
type UDPGramTransport struct {
	*UDPGramTransportCfg
	conn        *net.UDPConn
	receiver    transport.CommandReceiver
	limiter     *transport.RecvLimiter
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	recvStopped atomic.Bool
}

// NewUDPGramTransport creates a UDP transport instance from cfg.
func NewUDPGramTransport(cfg *UDPGramTransportCfg) (*UDPGramTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid UDPGramTransportCfg: %w", err)
	}
	t := &UDPGramTransport{UDPGramTransportCfg: cfg}
	if cfg.RecvRateLimit > 0 {
		t.limiter = transport.NewRecvLimiter(cfg.RecvRateLimit, cfg.TokenBurst)
	}
	return t, nil
}

// FactoryName returns the name of the factory that created this plugin.
func (t *UDPGramTransport) FactoryName() string {
	return "udpgram"
}

// LocalAddr returns the bound socket address, useful when the configured
// address requested an ephemeral port.
func (t *UDPGramTransport) LocalAddr() net.Addr {
	if t.conn == nil {
		return nil
	}
	return t.conn.LocalAddr()
}

// Start binds the UDP socket and launches the read loop.
func (t *UDPGramTransport) Start(opt transport.TransportOption) error {
	if opt.Receiver == nil {
		return errors.New("udpgram: receiver is nil")
	}
	t.receiver = opt.Receiver

	udpAddr, err := net.ResolveUDPAddr("udp", t.Addr)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address '%s': %w", t.Addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address '%s': %w", t.Addr, err)
	}
	t.conn = conn

	var ctx context.Context
	ctx, t.cancel = context.WithCancel(context.Background())
	t.wg.Add(1)
	go t.readLoop(ctx)
	log.Info().Str("tag", t.Tag).Str("address", conn.LocalAddr().String()).Msg("udpgram transport listening")
	return nil
}

// StopRecv stops delivering datagrams without releasing the socket.
func (t *UDPGramTransport) StopRecv() error {
	t.recvStopped.Store(true)
	return nil
}

// Stop shuts the transport down and releases the socket.
func (t *UDPGramTransport) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.wg.Wait()
	return nil
}

// readLoop receives datagrams until the context is cancelled. A short read
// deadline keeps the loop responsive to cancellation.
func (t *UDPGramTransport) readLoop(ctx context.Context) {
	defer t.wg.Done()

	// One extra byte lets an exactly-max-size datagram be told apart from a
	// truncated oversize one.
	buf := make([]byte, protocol.MaxMessageSize+1)
	dims := metrics.Dimension{metrics.DimTransport: t.Tag}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = t.conn.SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if t.handleRecvErr(ctx, err) {
				continue
			}
			return
		}

		if t.recvStopped.Load() {
			continue
		}
		if t.limiter != nil {
			if err := t.limiter.Take(ctx); err != nil {
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
			OutFD:     sys.InvalidFD,
			Transport: t.Tag,
		})
	}
}

// handleRecvErr classifies a receive error, returning true when the read
// loop should keep going. A transient error is counted but never deafens
// the transport; only cancellation or a closed socket ends the loop.
func (t *UDPGramTransport) handleRecvErr(ctx context.Context, err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
		return false
	}
	metrics.IncrCounterWithDimGroup(metrics.NameDatagramRecvErrTotal, metrics.GroupDrvlogd, 1,
		metrics.Dimension{metrics.DimTransport: t.Tag})
	log.Error().Err(err).Str("tag", t.Tag).Msg("udpgram read failed")
	return true
}
