// Package ble defines the narrow BLE transport surface the rest of this
// client depends on. The actual Bluetooth stack — scanning, GATT discovery,
// connection management — is an external collaborator outside this
// package's concern; Channel and Scanner exist so the protocol, session and
// dispatcher layers can be built and tested against an in-memory substitute
// (see Loopback) without a real adapter.
package ble

import "context"

// Device is one discovered peripheral advertising the companion-server
// vendor service.
type Device interface {
	// Name is the advertised device name, if any.
	Name() string

	// Address is the platform-specific BLE address.
	Address() string

	// Connect establishes a GATT connection and returns the CCS/status
	// channel for it.
	Connect(ctx context.Context) (Channel, error)
}

// Scanner discovers devices advertising a given vendor service UUID.
type Scanner interface {
	// Scan returns a channel of discovered devices. The channel closes when
	// ctx is done or scanning otherwise stops.
	Scan(ctx context.Context, serviceUUID string) (<-chan Device, error)
}

// Channel is the command/control channel (CCS characteristic) plus the
// reserved status characteristic for one connected device.
type Channel interface {
	// MTU returns the negotiated ATT MTU, used by the framer to size
	// fragments.
	MTU() int

	// WriteCCS performs a write-with-response of one BLE fragment to the
	// CCS characteristic.
	WriteCCS(ctx context.Context, data []byte) error

	// ReadCCS reads the current value of the CCS characteristic. It may
	// return an empty slice (nothing new yet) or the single busy-sentinel
	// byte defined in internal/constants.
	ReadCCS(ctx context.Context) ([]byte, error)

	// Notify subscribes to CCS characteristic notifications, if the
	// underlying device supports it. ok is false when the device only
	// supports polling via ReadCCS.
	Notify(ctx context.Context) (fragments <-chan []byte, ok bool)

	// Close releases the GATT connection.
	Close() error
}
