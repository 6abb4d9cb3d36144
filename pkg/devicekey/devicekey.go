// Package devicekey persists the per-device claim secret the session uses
// for the HMAC-SHA-256 authenticate branch of the Hello handshake.
//
// No configuration-directory library appears anywhere in the retrieved
// corpus, so this package uses the standard library's os.UserConfigDir
// directly, namespaced under internal/constants' vendor/app pair — the
// justified stdlib choice documented in DESIGN.md.
package devicekey

import (
	"os"
	"path/filepath"

	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
	"github.com/questhmd/hmdctl/pkg/crypto"
)

// Store loads and persists one device's claim secret, keyed by the device's
// BLE address.
type Store struct {
	dir string
}

// NewStore opens the platform config directory for device-secret storage,
// creating it if necessary.
func NewStore() (*Store, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, qerrors.NewProtocolError("devicekey", qerrors.ErrConfigError)
	}

	dir := filepath.Join(base, constants.ConfigDirVendor, constants.ConfigDirApp)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, qerrors.NewProtocolError("devicekey", qerrors.ErrConfigError)
	}

	return &Store{dir: dir}, nil
}

// NewStoreAt opens a device-secret store rooted at an explicit directory,
// bypassing os.UserConfigDir. Used by tests and by callers that want an
// explicit data directory.
func NewStoreAt(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, qerrors.NewProtocolError("devicekey", qerrors.ErrConfigError)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(deviceAddress string) string {
	name := sanitize(deviceAddress) + "-" + constants.DeviceKeyFileName
	return filepath.Join(s.dir, name)
}

// Load returns the stored device secret for deviceAddress, or nil if none
// has been claimed yet. A file that exists but is not exactly
// DeviceSecretSize bytes is a corrupt store and reported as ErrConfigError.
func (s *Store) Load(deviceAddress string) ([]byte, error) {
	data, err := os.ReadFile(s.path(deviceAddress))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, qerrors.NewProtocolError("devicekey", qerrors.ErrConfigError)
	}
	if len(data) != constants.DeviceSecretSize {
		return nil, qerrors.NewProtocolError("devicekey", qerrors.ErrConfigError)
	}
	return data, nil
}

// Save persists a freshly claimed device secret for deviceAddress.
func (s *Store) Save(deviceAddress string, secret []byte) error {
	if len(secret) != constants.DeviceSecretSize {
		return qerrors.ErrInvalidKeySize
	}
	if err := os.WriteFile(s.path(deviceAddress), secret, 0o600); err != nil {
		return qerrors.NewProtocolError("devicekey", qerrors.ErrConfigError)
	}
	return nil
}

// GenerateSecret produces a fresh random device secret suitable for a new
// claim.
func GenerateSecret() ([]byte, error) {
	return crypto.SecureRandomBytes(constants.DeviceSecretSize)
}

// sanitize maps a BLE address like "AA:BB:CC:DD:EE:FF" to a filesystem-safe
// token.
func sanitize(address string) string {
	out := make([]byte, 0, len(address))
	for i := 0; i < len(address); i++ {
		c := address[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "default"
	}
	return string(out)
}
