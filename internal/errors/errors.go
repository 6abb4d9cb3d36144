// Package errors defines the error kinds surfaced by the Quest HMD
// companion-server client. Errors propagate to the caller verbatim; nothing
// is retried inside the core.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for BLE transport failures.
var (
	// ErrBLEUnavailable indicates no BLE adapter is present or scanning failed.
	ErrBLEUnavailable = errors.New("ble: adapter unavailable")

	// ErrBLEDisconnected indicates the transport was lost mid-call. Fatal for the session.
	ErrBLEDisconnected = errors.New("ble: disconnected")
)

// Sentinel errors for configuration/storage failures.
var (
	// ErrConfigError indicates an unusable MTU or malformed device-key file.
	ErrConfigError = errors.New("config: invalid configuration")
)

// Sentinel errors for the handshake and authentication state machine.
var (
	// ErrHandshakeFailed indicates HelloResponse was missing signed_data, the
	// peer public key was malformed, or signed_data failed to decode.
	ErrHandshakeFailed = errors.New("handshake: failed")

	// ErrAuthMissingKey indicates the HMD presented a challenge but the
	// client holds no device-secret for it.
	ErrAuthMissingKey = errors.New("auth: no device secret held")

	// ErrAuthRejected indicates the peer rejected our HMAC challenge response.
	ErrAuthRejected = errors.New("auth: rejected by peer")
)

// Sentinel errors for cryptographic operations.
var (
	// ErrCryptoFailed indicates encrypt or decrypt failed (corrupt ciphertext, tag mismatch).
	ErrCryptoFailed = errors.New("crypto: operation failed")

	// ErrInvalidKeySize indicates a key or secret has an incorrect size.
	ErrInvalidKeySize = errors.New("crypto: invalid key size")

	// ErrInvalidPublicKey indicates a peer public key is malformed.
	ErrInvalidPublicKey = errors.New("crypto: invalid public key")
)

// Sentinel errors for protocol-level failures.
var (
	// ErrProtocolError indicates envelope decode failed, a required response
	// body was missing, or an unexpected method/sequence was observed.
	ErrProtocolError = errors.New("protocol: error")

	// ErrInvalidState indicates an operation was attempted from the wrong
	// session or handshake state.
	ErrInvalidState = errors.New("protocol: invalid state")

	// ErrMessageTooLarge indicates a message exceeds the configured maximum size.
	ErrMessageTooLarge = errors.New("protocol: message too large")
)

// Sentinel errors for dispatcher call failures.
var (
	// ErrTimeout indicates the 30-second call deadline was exceeded.
	ErrTimeout = errors.New("dispatcher: call timed out")

	// ErrSessionClosed indicates an operation was attempted on a closed session.
	ErrSessionClosed = errors.New("session: closed")
)

// CryptoError wraps a cryptographic error with additional context.
type CryptoError struct {
	Op  string // Operation that failed
	Err error  // Underlying error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// NewCryptoError creates a new CryptoError.
func NewCryptoError(op string, err error) *CryptoError {
	return &CryptoError{Op: op, Err: err}
}

// ProtocolError wraps a protocol error with additional context.
type ProtocolError struct {
	Phase string // Protocol phase (e.g. "handshake", "dispatch")
	Err   error  // Underlying error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol %s: %v", e.Phase, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// NewProtocolError creates a new ProtocolError.
func NewProtocolError(phase string, err error) *ProtocolError {
	return &ProtocolError{Phase: phase, Err: err}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
