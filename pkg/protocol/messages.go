// messages.go defines the Method catalog and the typed message bodies
// exchanged over the companion-server protocol: the Hello handshake
// messages, and the Request/Response envelope that carries every call.
//
// Bodies for methods other than Hello are treated as opaque byte strings
// here — the dispatcher layer owns interpreting them for each typed call,
// since schema compilation for the HMD's method bodies is not this
// package's concern.
package protocol

import (
	qerrors "github.com/questhmd/hmdctl/internal/errors"
)

// Method identifies the RPC being invoked in a Request.
type Method uint8

// Method catalog for the companion-server protocol.
const (
	// MethodHello performs the initial key exchange. Always the first call
	// on a fresh connection; its body is never box-sealed.
	MethodHello Method = 0x01
	// MethodAuthenticate answers a claimed device's authentication challenge.
	MethodAuthenticate Method = 0x02
	// MethodOculusSetUserSecret provisions the device-claim secret for a
	// previously unclaimed device.
	MethodOculusSetUserSecret Method = 0x03

	// MethodHmdStatus queries the HMD's general status.
	MethodHmdStatus Method = 0x10
	// MethodDevModeSet toggles developer mode.
	MethodDevModeSet Method = 0x11
	// MethodDevModeStatus queries developer mode state.
	MethodDevModeStatus Method = 0x12
	// MethodOtaEnabledSet toggles OTA update eligibility.
	MethodOtaEnabledSet Method = 0x13
	// MethodOtaEnabledStatus queries OTA update eligibility.
	MethodOtaEnabledStatus Method = 0x14
	// MethodAdbModeSet toggles ADB access.
	MethodAdbModeSet Method = 0x15
	// MethodMetaSetAccessTokenCombined provisions a combined Meta access token.
	MethodMetaSetAccessTokenCombined Method = 0x16
	// MethodRetailSkipFirstTimeNux requests the device skip its first-run setup flow.
	MethodRetailSkipFirstTimeNux Method = 0x17
)

// String returns a human-readable method name.
func (m Method) String() string {
	switch m {
	case MethodHello:
		return "Hello"
	case MethodAuthenticate:
		return "Authenticate"
	case MethodOculusSetUserSecret:
		return "OculusSetUserSecret"
	case MethodHmdStatus:
		return "HmdStatus"
	case MethodDevModeSet:
		return "DevModeSet"
	case MethodDevModeStatus:
		return "DevModeStatus"
	case MethodOtaEnabledSet:
		return "OtaEnabledSet"
	case MethodOtaEnabledStatus:
		return "OtaEnabledStatus"
	case MethodAdbModeSet:
		return "AdbModeSet"
	case MethodMetaSetAccessTokenCombined:
		return "MetaSetAccessTokenCombined"
	case MethodRetailSkipFirstTimeNux:
		return "RetailSkipFirstTimeNux"
	default:
		return "Unknown"
	}
}

// Request is one call sent to the HMD.
type Request struct {
	// Version is always Current; the HMD rejects anything else.
	Version Version

	// Method identifies the call being made.
	Method Method

	// Seq is the caller-assigned sequence number. Strictly monotonic for
	// the life of the session and echoed back on the matching Response.
	Seq int32

	// Body is the call's argument payload. Nil when the method takes none.
	Body []byte
}

// Response is the HMD's reply to one Request.
type Response struct {
	// Code is zero on success. A non-zero Code outside of Authenticate
	// indicates a protocol-level failure; after Authenticate it indicates
	// the peer rejected the challenge response.
	Code int32

	// Seq echoes the Request.Seq this Response answers.
	Seq int32

	// Body is the call's result payload. Nil when the method returns none.
	Body []byte
}

// Validate reports whether r is well-formed enough to send.
func (r *Request) Validate() error {
	if r.Version != Current {
		return qerrors.ErrProtocolError
	}
	return nil
}

// Hello is the body of a Request{Method: MethodHello}.
type Hello struct {
	// ClientPublicKey is the caller's fresh X25519 ephemeral public key.
	ClientPublicKey []byte

	// ClientChallenge is 16 CSPRNG-drawn bytes generated fresh for every
	// Hello. It is not used for anything in the handshake itself; it exists
	// so the HMD's response can be tied to this particular attempt.
	ClientChallenge []byte

	// AppID identifies the calling application to the HMD.
	AppID string

	// AppVersion is the calling application's version string.
	AppVersion string
}

// Validate checks that a Hello carries a well-formed public key and challenge.
func (h *Hello) Validate() error {
	if len(h.ClientPublicKey) != 32 {
		return qerrors.ErrInvalidPublicKey
	}
	if len(h.ClientChallenge) != 16 {
		return qerrors.ErrProtocolError
	}
	return nil
}

// HelloSignedData is the portion of HelloResponse that distinguishes a
// freshly-claimed device from one that has already been claimed: a present
// AuthenticationChallenge means the HMD expects an Authenticate call signed
// with the previously provisioned device secret.
type HelloSignedData struct {
	// AuthenticationChallenge is present (16 bytes) when the device has
	// already been claimed and expects HMAC-SHA-256(device_secret,
	// challenge) back via MethodAuthenticate. Nil for an unclaimed device.
	AuthenticationChallenge []byte
}

// RequiresAuthentication reports whether the HMD expects the client to
// authenticate with a previously stored device secret rather than claim it.
func (s *HelloSignedData) RequiresAuthentication() bool {
	return len(s.AuthenticationChallenge) > 0
}

// HelloResponse is the body of the Response to a MethodHello call.
type HelloResponse struct {
	// HmdPublicKey is the HMD's fresh X25519 ephemeral public key.
	HmdPublicKey []byte

	// SignedData carries the authentication-challenge branch.
	SignedData HelloSignedData
}

// Validate checks that a HelloResponse carries a well-formed public key.
func (r *HelloResponse) Validate() error {
	if len(r.HmdPublicKey) != 32 {
		return qerrors.ErrInvalidPublicKey
	}
	return nil
}
