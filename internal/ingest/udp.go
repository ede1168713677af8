package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/dustin/go-humanize"
)

// UDPListenerConfig contains configuration options for the UDP listener.
type UDPListenerConfig struct {
	Address     string
	RcvBuf      int
	LogInterval time.Duration
	Dispatcher  *Dispatcher
}

// UDPListener receives one envelope per datagram.
type UDPListener struct {
	address     string
	rcvBuf      int
	logInterval time.Duration
	dispatcher  *Dispatcher
	conn        *net.UDPConn
	packets     uint64
	bytes       uint64
}

// NewUDPListener creates a new UDP listener with the provided configuration.
func NewUDPListener(config UDPListenerConfig) *UDPListener {
	logInterval := config.LogInterval
	if logInterval == 0 {
		logInterval = time.Minute
	}
	return &UDPListener{
		address:     config.Address,
		rcvBuf:      config.RcvBuf,
		logInterval: logInterval,
		dispatcher:  config.Dispatcher,
	}
}

// Listen binds the socket. Start calls it when needed.
func (l *UDPListener) Listen() error {
	if l.conn != nil {
		return nil
	}
	addr, err := net.ResolveUDPAddr("udp", l.address)
	if err != nil {
		return fmt.Errorf("failed to resolve UDP address: %w", err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on UDP address: %w", err)
	}
	if l.rcvBuf > 0 {
		if err := conn.SetReadBuffer(l.rcvBuf); err != nil {
			logf("Warning: failed to set UDP receive buffer size to %d: %v", l.rcvBuf, err)
		}
	}
	l.conn = conn
	return nil
}

// LocalAddr returns the bound address, or nil before Listen.
func (l *UDPListener) LocalAddr() net.Addr {
	if l.conn == nil {
		return nil
	}
	return l.conn.LocalAddr()
}

// Start receives datagrams until ctx is cancelled. Malformed datagrams are
// logged and skipped.
func (l *UDPListener) Start(ctx context.Context) error {
	if err := l.Listen(); err != nil {
		return err
	}
	defer l.conn.Close()
	logf("UDP listener started on %s", l.conn.LocalAddr())

	lastLog := time.Now()
	buffer := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			logf("UDP listener stopping after %s datagrams", humanize.Comma(int64(l.packets)))
			return ctx.Err()
		default:
		}

		// Set read deadline to allow checking context cancellation.
		l.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, addr, err := l.conn.ReadFromUDP(buffer)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logf("UDP read error: %v", err)
			continue
		}

		l.packets++
		l.bytes += uint64(n)
		if err := l.dispatcher.Dispatch(buffer[:n]); err != nil {
			logf("Dropping datagram from %v: %v", addr, err)
		}

		if time.Since(lastLog) >= l.logInterval {
			logf("UDP stats: %s datagrams, %s received", humanize.Comma(int64(l.packets)), humanize.Bytes(l.bytes))
			lastLog = time.Now()
		}
	}
}

// Close closes the socket.
func (l *UDPListener) Close() error {
	if l.conn != nil {
		return l.conn.Close()
	}
	return nil
}
