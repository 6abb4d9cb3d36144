// Package connect drives the orchestration a caller needs end to end: scan
// for the HMD's vendor service, connect its GATT channel, load or generate
// the device secret, and run the Hello handshake through to a ready
// Dispatcher. It is the glue between pkg/ble, pkg/devicekey, pkg/session and
// pkg/dispatcher; nothing here speaks BLE or GATT directly.
package connect

import (
	"context"

	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
	"github.com/questhmd/hmdctl/pkg/ble"
	"github.com/questhmd/hmdctl/pkg/devicekey"
	"github.com/questhmd/hmdctl/pkg/dispatcher"
	"github.com/questhmd/hmdctl/pkg/session"
)

// Result bundles the ready Dispatcher and Session returned by Connect,
// plus the Channel so the caller can Close it on the way out.
type Result struct {
	Dispatcher *dispatcher.Dispatcher
	Session    *session.Session
	Channel    ble.Channel
}

// Close tears down the session and releases the underlying GATT channel.
func (r *Result) Close() error {
	r.Session.Close()
	return r.Channel.Close()
}

// Discover scans for one device advertising the companion-server vendor
// service and returns the first one seen, or ErrBLEUnavailable if ctx ends
// before any device is found.
func Discover(ctx context.Context, scanner ble.Scanner) (ble.Device, error) {
	devices, err := scanner.Scan(ctx, constants.ServiceUUID)
	if err != nil {
		return nil, err
	}

	select {
	case dev, ok := <-devices:
		if !ok {
			return nil, qerrors.ErrBLEUnavailable
		}
		return dev, nil
	case <-ctx.Done():
		return nil, qerrors.ErrBLEUnavailable
	}
}

// Connect establishes a GATT connection to dev, loads or provisions its
// device secret from store, and runs the Hello handshake through to
// StateReady. The returned Result owns the channel and session; callers
// must Close it when done.
func Connect(ctx context.Context, dev ble.Device, store *devicekey.Store) (*Result, error) {
	channel, err := dev.Connect(ctx)
	if err != nil {
		return nil, err
	}

	secret, err := store.Load(dev.Address())
	if err != nil {
		channel.Close()
		return nil, err
	}

	sess, err := session.New(secret)
	if err != nil {
		channel.Close()
		return nil, err
	}

	d := dispatcher.New(channel, sess)

	resp, err := d.Hello(ctx)
	if err != nil {
		sess.Close()
		channel.Close()
		return nil, err
	}

	if resp.SignedData.RequiresAuthentication() {
		if err := d.Authenticate(ctx, resp.SignedData.AuthenticationChallenge); err != nil {
			sess.Close()
			channel.Close()
			return nil, err
		}
	} else {
		fresh, err := devicekey.GenerateSecret()
		if err != nil {
			sess.Close()
			channel.Close()
			return nil, err
		}
		if err := d.OculusSetUserSecret(ctx, fresh); err != nil {
			sess.Close()
			channel.Close()
			return nil, err
		}
		if err := store.Save(dev.Address(), fresh); err != nil {
			sess.Close()
			channel.Close()
			return nil, err
		}
	}

	return &Result{Dispatcher: d, Session: sess, Channel: channel}, nil
}

// DiscoverAndConnect combines Discover and Connect for the common case of
// one HMD and no pre-selected device.
func DiscoverAndConnect(ctx context.Context, scanner ble.Scanner, store *devicekey.Store) (*Result, error) {
	dev, err := Discover(ctx, scanner)
	if err != nil {
		return nil, err
	}
	return Connect(ctx, dev, store)
}
