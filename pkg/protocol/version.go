// Package protocol defines the wire envelope for the Quest HMD
// companion-server protocol.
//
// Protocol Version: 1
//
// The protocol provides:
//   - A typed Request/Response envelope carried over the BLE CCS channel
//   - A Hello exchange that establishes an X25519 ephemeral key pair and,
//     for already-claimed devices, an HMAC-SHA-256 authentication challenge
//   - A fixed Curve25519-XSalsa20-Poly1305 crypto box protecting every
//     message after Hello
package protocol

import "github.com/questhmd/hmdctl/internal/constants"

// Version is the protocol version field stamped into every Request.
type Version uint32

// Current is the protocol version this client speaks.
const Current Version = Version(constants.ProtocolVersion)

// IsCompatible reports whether v is usable alongside other. The protocol has
// no minor-version skew allowance: versions must match exactly.
func (v Version) IsCompatible(other Version) bool {
	return v == other
}
