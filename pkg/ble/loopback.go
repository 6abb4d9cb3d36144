package ble

import (
	"context"

	qerrors "github.com/questhmd/hmdctl/internal/errors"
)

// LoopbackChannel is an in-memory Channel implementation for tests and the
// demo command: NewLoopbackPair wires two LoopbackChannels together so a
// test can drive the dispatcher/session stack against a simulated HMD
// without a real adapter.
type LoopbackChannel struct {
	mtu    int
	toPeer chan []byte
	fromPeer chan []byte
	closed   chan struct{}
}

// NewLoopbackPair returns two connected Channels: writes on one arrive as
// reads (and notifications) on the other.
func NewLoopbackPair(mtu int) (client *LoopbackChannel, device *LoopbackChannel) {
	a := make(chan []byte, 64)
	b := make(chan []byte, 64)
	closed := make(chan struct{})

	client = &LoopbackChannel{mtu: mtu, toPeer: a, fromPeer: b, closed: closed}
	device = &LoopbackChannel{mtu: mtu, toPeer: b, fromPeer: a, closed: closed}

	return client, device
}

// MTU returns the MTU this pair was constructed with.
func (c *LoopbackChannel) MTU() int {
	return c.mtu
}

// WriteCCS delivers one fragment to the peer.
func (c *LoopbackChannel) WriteCCS(ctx context.Context, data []byte) error {
	frag := make([]byte, len(data))
	copy(frag, data)

	select {
	case <-c.closed:
		return qerrors.ErrBLEDisconnected
	default:
	}

	select {
	case c.toPeer <- frag:
		return nil
	case <-c.closed:
		return qerrors.ErrBLEDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadCCS returns the next fragment written by the peer, or an empty slice
// if none is ready yet.
func (c *LoopbackChannel) ReadCCS(ctx context.Context) ([]byte, error) {
	select {
	case <-c.closed:
		return nil, qerrors.ErrBLEDisconnected
	default:
	}

	select {
	case frag := <-c.fromPeer:
		return frag, nil
	case <-c.closed:
		return nil, qerrors.ErrBLEDisconnected
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, nil
	}
}

// Notify exposes the same channel ReadCCS drains from, so tests can exercise
// the dispatcher's notify-preferred path instead of its poll loop.
func (c *LoopbackChannel) Notify(ctx context.Context) (<-chan []byte, bool) {
	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for {
			select {
			case frag, ok := <-c.fromPeer:
				if !ok {
					return
				}
				select {
				case out <- frag:
				case <-ctx.Done():
					return
				}
			case <-c.closed:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, true
}

// Close marks the pair disconnected; subsequent reads and writes on either
// side fail with ErrBLEDisconnected.
func (c *LoopbackChannel) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}
