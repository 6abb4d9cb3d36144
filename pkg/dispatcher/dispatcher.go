// Package dispatcher drives one companion-server call at a time over a BLE
// Channel: it fragments and sends a Request, waits for the matching
// Response, and reassembles it, honoring the 30-second call timeout and the
// poll back-off cadence the CCS channel's "busy" sentinel calls for.
package dispatcher

import (
	"context"
	"time"

	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
	"github.com/questhmd/hmdctl/pkg/ble"
	"github.com/questhmd/hmdctl/pkg/framer"
	"github.com/questhmd/hmdctl/pkg/protocol"
	"github.com/questhmd/hmdctl/pkg/session"
)

// Dispatcher serializes calls to one connected HMD. Only one call may be in
// flight at a time; a second caller blocks on callMu until the first
// completes or times out.
type Dispatcher struct {
	channel ble.Channel
	session *session.Session
	codec   *protocol.Codec

	fragmenter *framer.Fragmenter

	callMu chan struct{} // 1-buffered semaphore: one call in flight
}

// New creates a Dispatcher over an already-connected Channel and a Session
// that has not yet completed its Hello handshake.
func New(channel ble.Channel, sess *session.Session) *Dispatcher {
	d := &Dispatcher{
		channel:    channel,
		session:    sess,
		codec:      protocol.NewCodec(),
		fragmenter: framer.NewFragmenter(channel.MTU()),
		callMu:     make(chan struct{}, 1),
	}
	d.callMu <- struct{}{}
	return d
}

// acquire blocks until no other call is in flight, or ctx is done.
func (d *Dispatcher) acquire(ctx context.Context) error {
	select {
	case <-d.callMu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) release() {
	d.callMu <- struct{}{}
}

// call sends one Request and waits for its Response, within a 30-second
// deadline. A non-empty plainBody is sealed with the session's crypto box
// unless method is MethodHello, since Hello is what establishes that box; an
// empty body is sent as an empty body.
func (d *Dispatcher) call(ctx context.Context, method protocol.Method, plainBody []byte) (*protocol.Response, error) {
	if err := d.acquire(ctx); err != nil {
		return nil, err
	}
	defer d.release()

	ctx, cancel := context.WithTimeout(ctx, constants.CallTimeout)
	defer cancel()

	body := plainBody
	if method != protocol.MethodHello && len(plainBody) > 0 {
		sealed, err := d.session.Seal(plainBody)
		if err != nil {
			return nil, err
		}
		body = sealed
	}

	req := &protocol.Request{
		Version: protocol.Current,
		Method:  method,
		Seq:     d.session.NextSeq(),
		Body:    body,
	}

	encoded, err := d.codec.EncodeRequest(req)
	if err != nil {
		return nil, err
	}

	fragments, err := d.fragmenter.Fragment(encoded)
	if err != nil {
		return nil, err
	}
	for _, frag := range fragments {
		if err := d.channel.WriteCCS(ctx, frag); err != nil {
			return nil, translateTransportError(err)
		}
	}

	raw, err := d.awaitResponse(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := d.codec.DecodeResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.Seq != req.Seq {
		return nil, qerrors.NewProtocolError("dispatch", qerrors.ErrProtocolError)
	}

	if method != protocol.MethodHello && len(resp.Body) > 0 {
		opened, err := d.session.Open(resp.Body)
		if err != nil {
			return nil, err
		}
		resp.Body = opened
	}

	if resp.Code != 0 {
		if method == protocol.MethodAuthenticate {
			return resp, qerrors.ErrAuthRejected
		}
		return resp, qerrors.NewProtocolError("dispatch", qerrors.ErrProtocolError)
	}

	return resp, nil
}

// awaitResponse reassembles the next complete message from the channel,
// preferring push notifications when the device supports them and falling
// back to the documented poll cadence otherwise.
func (d *Dispatcher) awaitResponse(ctx context.Context) ([]byte, error) {
	reassembler := framer.NewReassembler()

	if frags, ok := d.channel.Notify(ctx); ok {
		for {
			select {
			case frag, ok := <-frags:
				if !ok {
					return nil, qerrors.ErrBLEDisconnected
				}
				msg, complete, err := reassembler.Feed(frag)
				if err != nil {
					return nil, err
				}
				if complete {
					return msg, nil
				}
			case <-ctx.Done():
				return nil, qerrors.ErrTimeout
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil, qerrors.ErrTimeout
		default:
		}

		data, err := d.channel.ReadCCS(ctx)
		if err != nil {
			return nil, translateTransportError(err)
		}

		switch {
		case len(data) == 0:
			if err := sleepCtx(ctx, constants.EmptyReadBackoff); err != nil {
				return nil, qerrors.ErrTimeout
			}
			continue
		case len(data) == 1 && data[0] == constants.BusyByte:
			if err := sleepCtx(ctx, constants.BusyReadBackoff); err != nil {
				return nil, qerrors.ErrTimeout
			}
			continue
		}

		msg, complete, err := reassembler.Feed(data)
		if err != nil {
			return nil, err
		}
		if complete {
			return msg, nil
		}

		if err := sleepCtx(ctx, constants.IncompleteReadBackoff); err != nil {
			return nil, qerrors.ErrTimeout
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func translateTransportError(err error) error {
	if qerrors.Is(err, context.DeadlineExceeded) {
		return qerrors.ErrTimeout
	}
	return err
}
