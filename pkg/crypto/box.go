// box.go implements the authenticated-encryption context spec.md §4.3 calls
// for: a Curve25519-XSalsa20-Poly1305 "crypto box", built directly on
// golang.org/x/crypto/nacl/box.
//
// Once the Hello exchange yields the peer's public key, the session derives
// one Box from its own ephemeral private key and the peer's public key.
// nacl/box performs its own key derivation internally (HSalsa20 over the
// X25519 shared point), so no separate KDF step is required here — unlike
// the AEAD ciphers a raw Diffie-Hellman shared secret would otherwise need
// run through SHAKE-256 or HKDF before use.
package crypto

import (
	"crypto/ecdh"

	"golang.org/x/crypto/nacl/box"

	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
)

// Box seals and opens messages for one peer using the local ephemeral
// private key and the peer's public key.
type Box struct {
	localPrivate [32]byte
	peerPublic   [32]byte
}

// NewBox constructs a Box from the local X25519 private key and the peer's
// public key. Both must be exactly 32 bytes.
func NewBox(local *ecdh.PrivateKey, peerPublicKey []byte) (*Box, error) {
	if local == nil {
		return nil, qerrors.ErrInvalidPublicKey
	}
	if len(peerPublicKey) != constants.X25519PublicKeySize {
		return nil, qerrors.ErrInvalidPublicKey
	}

	b := &Box{}
	copy(b.localPrivate[:], local.Bytes())
	copy(b.peerPublic[:], peerPublicKey)

	return b, nil
}

// Seal encrypts and authenticates plaintext, returning a fresh random nonce
// prepended to the ciphertext: nonce(24) || ciphertext || tag(16).
func (b *Box) Seal(plaintext []byte) ([]byte, error) {
	var nonce [24]byte
	if err := SecureRandom(nonce[:]); err != nil {
		return nil, qerrors.NewCryptoError("Box.Seal", err)
	}

	out := make([]byte, 0, constants.BoxNonceSize+len(plaintext)+constants.BoxOverhead)
	out = append(out, nonce[:]...)
	out = box.Seal(out, plaintext, &nonce, &b.peerPublic, &b.localPrivate)

	return out, nil
}

// Open decrypts and verifies a nonce || ciphertext || tag blob produced by
// the peer's matching Box.
func (b *Box) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < constants.BoxNonceSize+constants.BoxOverhead {
		return nil, qerrors.NewCryptoError("Box.Open", qerrors.ErrCryptoFailed)
	}

	var nonce [24]byte
	copy(nonce[:], sealed[:constants.BoxNonceSize])

	plaintext, ok := box.Open(nil, sealed[constants.BoxNonceSize:], &nonce, &b.peerPublic, &b.localPrivate)
	if !ok {
		return nil, qerrors.NewCryptoError("Box.Open", qerrors.ErrCryptoFailed)
	}

	return plaintext, nil
}
