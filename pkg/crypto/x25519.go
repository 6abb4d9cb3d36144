// x25519.go implements X25519 Elliptic Curve Diffie-Hellman operations.
//
// X25519 (RFC 7748) is an elliptic curve Diffie-Hellman function using Curve25519.
// It provides approximately 128 bits of security against classical computers
// and is the ephemeral key exchange spec.md's handshake calls for: the client
// generates a fresh keypair per BLE connection, and box.go builds the crypto
// box from the local private key and the peer's public key.
//
// Security Properties:
//   - IND-CCA2 secure under the Computational Diffie-Hellman assumption on Curve25519
//   - Constant-time implementation prevents timing side-channels
package crypto

import (
	"crypto/ecdh"

	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
)

// KeyPair represents an ephemeral X25519 key pair.
type KeyPair struct {
	PublicKey  *ecdh.PublicKey
	PrivateKey *ecdh.PrivateKey
}

// GenerateKeyPair generates a new ephemeral X25519 key pair.
//
// Returns error if the system's CSPRNG fails.
func GenerateKeyPair() (*KeyPair, error) {
	curve := ecdh.X25519()

	privateKey, err := curve.GenerateKey(Reader)
	if err != nil {
		return nil, qerrors.NewCryptoError("KeyPair.Generate", err)
	}

	return &KeyPair{
		PublicKey:  privateKey.PublicKey(),
		PrivateKey: privateKey,
	}, nil
}

// X25519 performs X25519 Diffie-Hellman shared secret computation.
//
// Security Note: the result must never be used directly as a symmetric key.
// box.go derives the encryption context from the raw keys instead of this
// shared secret, since nacl/box performs its own HSalsa20-based derivation.
func X25519(privateKey *ecdh.PrivateKey, peerPublic *ecdh.PublicKey) ([]byte, error) {
	if privateKey == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}
	if peerPublic == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}

	sharedSecret, err := privateKey.ECDH(peerPublic)
	if err != nil {
		return nil, qerrors.NewCryptoError("X25519", err)
	}

	return sharedSecret, nil
}

// PublicKeyBytes returns the encoded bytes of the public key.
func (kp *KeyPair) PublicKeyBytes() []byte {
	return kp.PublicKey.Bytes()
}

// PrivateKeyBytes returns the encoded bytes of the private key.
// Warning: handle with care — this exposes the secret key material.
func (kp *KeyPair) PrivateKeyBytes() []byte {
	return kp.PrivateKey.Bytes()
}

// ParsePublicKey parses an X25519 public key from its encoded 32-byte form.
func ParsePublicKey(data []byte) (*ecdh.PublicKey, error) {
	if len(data) != constants.X25519PublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	curve := ecdh.X25519()
	publicKey, err := curve.NewPublicKey(data)
	if err != nil {
		return nil, qerrors.NewCryptoError("ParsePublicKey", err)
	}

	return publicKey, nil
}

// Zeroize clears the private key reference. ecdh.PrivateKey does not expose
// its underlying bytes for in-place zeroization.
func (kp *KeyPair) Zeroize() {
	kp.PrivateKey = nil
	kp.PublicKey = nil
}
