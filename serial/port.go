package serial

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	bugst "go.bug.st/serial"

	"github.com/kwahlman/calrig/logger"
)

// ReadBound tells a round trip when the response is complete.
//
// If Terminator is set, reading stops once the accumulated response ends with
// it. If MaxBytes is set, reading stops once that many bytes have arrived.
// When both are set, whichever condition is met first terminates the read.
// When neither condition is met, the read ends when the port's read timeout
// elapses with no new data, and whatever arrived so far is returned.
type ReadBound struct {
	MaxBytes   int
	Terminator []byte
}

// Commander issues one command/response round trip on a serial line.
//
// Implementations must be safe for concurrent use; the calrig drivers share
// ports between the control loop and the background data poller.
type Commander interface {
	// RoundTrip writes cmd and reads the response according to bound.
	// All failures wrap ErrTransport.
	RoundTrip(ctx context.Context, cmd []byte, bound ReadBound) ([]byte, error)
	// Close releases the underlying port.
	Close() error
}

// portLocks serializes access per physical port name. Two Port values opened
// on the same device path still contend on one lock.
var portLocks = xsync.NewMapOf[string, *sync.Mutex]()

func lockFor(name string) *sync.Mutex {
	lock, _ := portLocks.LoadOrStore(name, &sync.Mutex{})
	return lock
}

// Port is a Commander backed by a physical serial port.
//
// The port is opened lazily on the first round trip and kept open until
// Close. Every round trip holds the port-name lock for its full duration.
type Port struct {
	cfg  *PortConfig
	lock *sync.Mutex

	mu   sync.Mutex // guards handle
	hand bugst.Port
}

var _ Commander = (*Port)(nil)

// NewPort creates a Port for the named device (e.g. "/dev/ttyUSB0" or "COM21").
func NewPort(name string, opts ...PortOption) (*Port, error) {
	cfg, err := NewPortConfig(name, opts...)
	if err != nil {
		return nil, err
	}

	return &Port{cfg: cfg, lock: lockFor(name)}, nil
}

func (p *Port) handle() (bugst.Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.hand != nil {
		return p.hand, nil
	}

	mode := &bugst.Mode{BaudRate: p.cfg.baudRate}

	hand, err := bugst.Open(p.cfg.name, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrTransport, p.cfg.name, err)
	}
	if err := hand.SetReadTimeout(p.cfg.readTimeout); err != nil {
		_ = hand.Close()
		return nil, fmt.Errorf("%w: set read timeout on %s: %w", ErrTransport, p.cfg.name, err)
	}

	p.hand = hand

	return p.hand, nil
}

// RoundTrip writes cmd and collects the response until bound is satisfied or
// the read timeout elapses with no new data.
func (p *Port) RoundTrip(ctx context.Context, cmd []byte, bound ReadBound) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p.lock.Lock()
	defer p.lock.Unlock()

	hand, err := p.handle()
	if err != nil {
		return nil, err
	}

	p.cfg.logger.Debug("serial command", "port", p.cfg.name, "bytes", fmt.Sprintf("% X", cmd))

	if err := writeAll(hand, cmd); err != nil {
		return nil, fmt.Errorf("%w: write to %s: %w", ErrTransport, p.cfg.name, err)
	}

	response, err := p.readBounded(hand, bound)
	if err != nil {
		return nil, err
	}

	p.cfg.logger.Debug("serial response", "port", p.cfg.name, "bytes", fmt.Sprintf("% X", response))

	return response, nil
}

// readBounded accumulates response bytes. A Read returning zero bytes means
// the read timeout expired with a silent line, which ends the response.
func (p *Port) readBounded(hand bugst.Port, bound ReadBound) ([]byte, error) {
	var response []byte

	chunk := make([]byte, 64)

	for {
		n, err := hand.Read(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: read from %s: %w", ErrTransport, p.cfg.name, err)
		}
		if n == 0 {
			// Timeout with a silent line: the device is done talking.
			return response, nil
		}

		response = append(response, chunk[:n]...)

		if len(bound.Terminator) > 0 && bytes.HasSuffix(response, bound.Terminator) {
			return response, nil
		}
		if bound.MaxBytes > 0 && len(response) >= bound.MaxBytes {
			return response[:bound.MaxBytes], nil
		}
	}
}

// Close releases the underlying handle. The Port may be reused afterwards;
// the next round trip reopens it.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.hand == nil {
		return nil
	}

	hand := p.hand
	p.hand = nil

	if err := hand.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrTransport, p.cfg.name, err)
	}

	return nil
}

func writeAll(hand bugst.Port, data []byte) error {
	for written := 0; written < len(data); {
		n, err := hand.Write(data[written:])
		written += n

		if err != nil {
			return err
		}
	}

	return nil
}

// Logger exposes the configured logger so drivers composed around a Port can
// share it.
func (p *Port) Logger() logger.Logger { return p.cfg.logger }
