// Package constants defines wire sizes, timeouts and identifiers for the
// Quest HMD companion-server protocol.
package constants

import "time"

// Protocol version and identification
const (
	// ProtocolVersion is the version field stamped into every Request envelope.
	ProtocolVersion uint32 = 1

	// AppID identifies this client to the HMD during the Hello exchange.
	AppID = "com.oculus.companion.server"

	// AppVersion is the client application version string sent in Hello.
	AppVersion = "1.0.0"
)

// BLE GATT identifiers (RFC 4122 UUID strings, lower-case canonical form).
const (
	// ServiceUUID is the vendor BLE service the HMD advertises.
	ServiceUUID = "0000feb8-0000-1000-8000-00805f9b34fb"

	// CCSCharacteristicUUID is the command/control channel characteristic.
	CCSCharacteristicUUID = "7a442881-509c-47fa-ac02-b06a37d9eb76"

	// StatusCharacteristicUUID is the reserved read-only status characteristic.
	StatusCharacteristicUUID = "7a442666-509c-47fa-ac02-b06a37d9eb76"
)

// BLE transport parameters
const (
	// DefaultMTU is the conservative default ATT MTU assumed absent negotiation.
	DefaultMTU = 23

	// ATTHeaderOverhead is the BLE ATT protocol overhead subtracted from the MTU.
	ATTHeaderOverhead = 3

	// FramerHeaderSize is the number of header bytes the framer prepends to every chunk.
	FramerHeaderSize = 2
)

// Framer sequence space
const (
	// FramerEndFlag marks the final fragment of a message.
	FramerEndFlag byte = 0x80

	// FramerSeqHighMask masks the high 5 bits of the 13-bit sequence number in header byte 0.
	FramerSeqHighMask byte = 0x1F

	// FramerSeqModulus is the modulus the fragment sequence number wraps at (2^13).
	FramerSeqModulus uint16 = 1 << 13
)

// BusyByte is the single-byte CCS reply meaning "device has nothing to give yet".
const BusyByte byte = 0xFF

// Key and secret sizes
const (
	// X25519PublicKeySize is the size of an X25519 public key in bytes.
	X25519PublicKeySize = 32

	// X25519PrivateKeySize is the size of an X25519 private key in bytes.
	X25519PrivateKeySize = 32

	// DeviceSecretSize is the size of the persistent device-claim secret in bytes.
	DeviceSecretSize = 32

	// ChallengeSize is the size of the client/HMD-generated handshake challenge in bytes.
	ChallengeSize = 16

	// BoxNonceSize is the size of the nonce prepended to every crypto-box ciphertext.
	BoxNonceSize = 24

	// BoxOverhead is the Poly1305 authentication overhead added by box.Seal.
	BoxOverhead = 16

	// HMACSize is the size of an HMAC-SHA-256 tag in bytes.
	HMACSize = 32
)

// Session/dispatcher timing
const (
	// CallTimeout is the wall-clock budget for one dispatcher call.
	CallTimeout = 30 * time.Second

	// NuxPollTimeout bounds the RetailSkipFirstTimeNux status-poll loop.
	NuxPollTimeout = 60 * time.Second

	// EmptyReadBackoff is the sleep after an empty CCS read.
	EmptyReadBackoff = 100 * time.Millisecond

	// BusyReadBackoff is the sleep after a single 0xFF "busy" CCS read.
	BusyReadBackoff = 500 * time.Millisecond

	// IncompleteReadBackoff is the sleep after a read that fed the framer but
	// did not yet complete a message.
	IncompleteReadBackoff = 50 * time.Millisecond

	// ConfirmPollInterval is the sleep between poll-to-confirm status
	// checks issued after a set-style call (DevModeSet, OtaEnabledSet).
	ConfirmPollInterval = 500 * time.Millisecond

	// ConfirmPollTimeout bounds how long a poll-to-confirm loop will wait
	// for a set-style call to take effect.
	ConfirmPollTimeout = 10 * time.Second
)

// MaxMessageSize bounds a single reassembled application message.
const MaxMessageSize = 1 << 20

// DeviceKeyFileName is the persistent device-secret file name within the
// namespaced config directory.
const DeviceKeyFileName = "device_key.bin"

// ConfigDirVendor / ConfigDirApp namespace the platform config directory the
// device-secret file lives under.
const (
	ConfigDirVendor = "questhmd"
	ConfigDirApp    = "hmdctl"
)
