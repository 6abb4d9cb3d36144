// Package session implements the Quest HMD companion-server session state
// machine: the X25519 Hello handshake, the crypto-box encryption context it
// establishes, and the claim/authenticate branch that follows.
//
// A Session moves through a small set of states:
//
//	Connected -> Claiming -> Ready      (device has no stored secret yet)
//	Connected -> Authenticating -> Ready (device already holds a secret)
//	any state -> Closed
//
// Every message after Hello is sealed with a Curve25519-XSalsa20-Poly1305
// crypto box derived from the ephemeral keys exchanged during Hello; Hello
// itself travels in the clear since it is what establishes that box.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	qerrors "github.com/questhmd/hmdctl/internal/errors"
	"github.com/questhmd/hmdctl/pkg/crypto"
	"github.com/questhmd/hmdctl/pkg/protocol"
)

// State represents where a Session is in its handshake lifecycle.
type State int32

const (
	// StateConnected is a fresh session: the transport is open but Hello
	// has not yet completed.
	StateConnected State = iota

	// StateClaiming means Hello reported no authentication_challenge: the
	// device has not been claimed, and the session is about to provision a
	// freshly generated device secret via OculusSetUserSecret.
	StateClaiming

	// StateAuthenticating means Hello reported an authentication_challenge:
	// the session must answer it with HMAC-SHA-256(device_secret, challenge)
	// via Authenticate.
	StateAuthenticating

	// StateReady means the claim/authenticate branch succeeded; ordinary
	// calls may proceed.
	StateReady

	// StateClosed means the session has been torn down.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateClaiming:
		return "Claiming"
	case StateAuthenticating:
		return "Authenticating"
	case StateReady:
		return "Ready"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Session tracks one BLE connection's handshake and encryption state.
type Session struct {
	state atomic.Int32

	localKeyPair *crypto.KeyPair
	box          *crypto.Box

	// deviceSecret is the persistent HMAC key claimed with or authenticated
	// against. Callers (the connect orchestration layer) load it from
	// pkg/devicekey before constructing the Session when one already exists.
	deviceSecret []byte

	seq atomic.Int32

	observer Observer

	CreatedAt     time.Time
	EstablishedAt time.Time
	LastActivity  time.Time

	BytesSent     atomic.Uint64
	BytesReceived atomic.Uint64
	PacketsSent   atomic.Uint64
	PacketsRecv   atomic.Uint64

	mu sync.RWMutex
}

// New creates a fresh Session with a new ephemeral X25519 key pair.
// deviceSecret is the previously persisted device secret, or nil if this
// device has not been claimed yet.
func New(deviceSecret []byte) (*Session, error) {
	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	s := &Session{
		localKeyPair: keyPair,
		deviceSecret: deviceSecret,
		CreatedAt:    time.Now(),
		observer:     noopObserver{},
	}
	s.state.Store(int32(StateConnected))

	return s, nil
}

// State returns the current session state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// SetObserver installs hooks for session lifecycle, handshake and crypto
// events. Call before Hello completes; nil restores the no-op observer.
func (s *Session) SetObserver(observer Observer) {
	if observer == nil {
		observer = noopObserver{}
	}
	s.observer = observer
}

// LocalPublicKey returns this session's ephemeral X25519 public key, to be
// embedded in the outgoing Hello.
func (s *Session) LocalPublicKey() []byte {
	return s.localKeyPair.PublicKeyBytes()
}

// HasDeviceSecret reports whether this session was constructed with a
// previously persisted device secret.
func (s *Session) HasDeviceSecret() bool {
	return len(s.deviceSecret) > 0
}

// CompleteHandshake consumes the HMD's HelloResponse, derives the crypto
// box, and transitions into StateClaiming or StateAuthenticating depending
// on whether the HMD presented an authentication challenge.
func (s *Session) CompleteHandshake(resp *protocol.HelloResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != StateConnected {
		return qerrors.ErrInvalidState
	}

	ctx, done := s.observer.OnHandshakeStart(context.Background())
	_ = ctx

	if err := resp.Validate(); err != nil {
		done(err)
		s.observer.OnSessionFailed(err)
		return qerrors.NewProtocolError("handshake", err)
	}

	box, err := crypto.NewBox(s.localKeyPair.PrivateKey, resp.HmdPublicKey)
	if err != nil {
		done(err)
		s.observer.OnSessionFailed(err)
		return qerrors.NewProtocolError("handshake", qerrors.ErrHandshakeFailed)
	}
	s.box = box

	if resp.SignedData.RequiresAuthentication() {
		s.state.Store(int32(StateAuthenticating))
	} else {
		s.state.Store(int32(StateClaiming))
	}

	done(nil)
	s.observer.OnSessionStart()

	return nil
}

// SignChallenge computes the HMAC-SHA-256 response to the HMD's
// authentication challenge using the stored device secret. Returns
// ErrAuthMissingKey if this session holds no device secret.
func (s *Session) SignChallenge(challenge []byte) ([]byte, error) {
	s.mu.RLock()
	secret := s.deviceSecret
	s.mu.RUnlock()

	if len(secret) == 0 {
		return nil, qerrors.ErrAuthMissingKey
	}

	return crypto.SignChallenge(secret, challenge)
}

// SetDeviceSecret stores a freshly generated device secret after a
// successful claim. Call once the OculusSetUserSecret call returns success.
func (s *Session) SetDeviceSecret(secret []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceSecret = secret
}

// DeviceSecret returns the session's current device secret, or nil if none
// has been claimed or loaded.
func (s *Session) DeviceSecret() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deviceSecret
}

// MarkReady transitions the session into StateReady once the claim or
// authenticate call has succeeded.
func (s *Session) MarkReady() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.State() {
	case StateClaiming, StateAuthenticating:
	default:
		return qerrors.ErrInvalidState
	}

	s.EstablishedAt = time.Now()
	s.state.Store(int32(StateReady))

	return nil
}

// MarkAuthFailed records that the claim/authenticate call was rejected.
func (s *Session) MarkAuthFailed() {
	s.observer.OnAuthFailure()
	s.observer.OnSessionFailed(qerrors.ErrAuthRejected)
}

// NextSeq returns the next strictly-increasing sequence number to stamp
// into an outgoing Request.
func (s *Session) NextSeq() int32 {
	return s.seq.Add(1) - 1
}

// Seal encrypts a message body with the session's crypto box. Every
// message after Hello must be sealed before it is sent.
func (s *Session) Seal(plaintext []byte) ([]byte, error) {
	s.mu.RLock()
	box := s.box
	s.mu.RUnlock()

	if box == nil {
		return nil, qerrors.ErrInvalidState
	}

	ctx, done := s.observer.OnEncrypt(context.Background(), len(plaintext))
	_ = ctx

	sealed, err := box.Seal(plaintext)
	done(err)
	if err != nil {
		return nil, err
	}

	s.BytesSent.Add(uint64(len(plaintext)))
	s.PacketsSent.Add(1)
	s.touch()

	return sealed, nil
}

// Open decrypts a message body with the session's crypto box.
func (s *Session) Open(sealed []byte) ([]byte, error) {
	s.mu.RLock()
	box := s.box
	s.mu.RUnlock()

	if box == nil {
		return nil, qerrors.ErrInvalidState
	}

	ctx, done := s.observer.OnDecrypt(context.Background(), len(sealed))
	_ = ctx

	plaintext, err := box.Open(sealed)
	done(err)
	if err != nil {
		if isProtocolError(err) {
			s.observer.OnProtocolError(err)
		} else {
			s.observer.OnAuthFailure()
		}
		return nil, err
	}

	s.BytesReceived.Add(uint64(len(plaintext)))
	s.PacketsRecv.Add(1)
	s.touch()

	return plaintext, nil
}

func (s *Session) touch() {
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
}

// Stats summarizes a session's traffic counters.
type Stats struct {
	BytesSent     uint64
	BytesReceived uint64
	PacketsSent   uint64
	PacketsRecv   uint64
	Duration      time.Duration
	State         State
}

// Stats returns the session's current traffic statistics.
func (s *Session) Stats() Stats {
	return Stats{
		BytesSent:     s.BytesSent.Load(),
		BytesReceived: s.BytesReceived.Load(),
		PacketsSent:   s.PacketsSent.Load(),
		PacketsRecv:   s.PacketsRecv.Load(),
		Duration:      time.Since(s.CreatedAt),
		State:         s.State(),
	}
}

// Close tears down the session and zeroizes key material.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() == StateClosed {
		return
	}

	s.state.Store(int32(StateClosed))

	if s.localKeyPair != nil {
		s.localKeyPair.Zeroize()
		s.localKeyPair = nil
	}
	if len(s.deviceSecret) > 0 {
		crypto.Zeroize(s.deviceSecret)
		s.deviceSecret = nil
	}
	s.box = nil

	s.observer.OnSessionEnd()
}
