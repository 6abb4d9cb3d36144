package session_test

import (
	"bytes"
	"testing"

	"github.com/questhmd/hmdctl/pkg/crypto"
	"github.com/questhmd/hmdctl/pkg/protocol"
	"github.com/questhmd/hmdctl/pkg/session"
)

// peerHello simulates the HMD side of a Hello exchange: it generates its
// own ephemeral key pair and builds the HelloResponse a real device would
// send back, with or without an authentication challenge.
func peerHello(t *testing.T, challenge []byte) (*crypto.KeyPair, *protocol.HelloResponse) {
	t.Helper()
	peer, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	return peer, &protocol.HelloResponse{
		HmdPublicKey: peer.PublicKeyBytes(),
		SignedData: protocol.HelloSignedData{
			AuthenticationChallenge: challenge,
		},
	}
}

func TestNewSessionStartsConnected(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if s.State() != session.StateConnected {
		t.Errorf("State() = %v, want Connected", s.State())
	}
	if len(s.LocalPublicKey()) != 32 {
		t.Errorf("LocalPublicKey() length = %d, want 32", len(s.LocalPublicKey()))
	}
}

func TestCompleteHandshakeUnclaimedGoesToClaiming(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, resp := peerHello(t, nil)
	if err := s.CompleteHandshake(resp); err != nil {
		t.Fatalf("CompleteHandshake() error = %v", err)
	}

	if s.State() != session.StateClaiming {
		t.Errorf("State() = %v, want Claiming", s.State())
	}
}

func TestCompleteHandshakeClaimedGoesToAuthenticating(t *testing.T) {
	s, err := session.New(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, resp := peerHello(t, bytes.Repeat([]byte{0x09}, 16))
	if err := s.CompleteHandshake(resp); err != nil {
		t.Fatalf("CompleteHandshake() error = %v", err)
	}

	if s.State() != session.StateAuthenticating {
		t.Errorf("State() = %v, want Authenticating", s.State())
	}
}

func TestSignChallengeRequiresDeviceSecret(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := s.SignChallenge(bytes.Repeat([]byte{0x01}, 16)); err == nil {
		t.Error("SignChallenge() should fail without a stored device secret")
	}
}

func TestMarkReadyRequiresClaimingOrAuthenticating(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := s.MarkReady(); err == nil {
		t.Error("MarkReady() should fail from StateConnected")
	}

	_, resp := peerHello(t, nil)
	if err := s.CompleteHandshake(resp); err != nil {
		t.Fatalf("CompleteHandshake() error = %v", err)
	}
	if err := s.MarkReady(); err != nil {
		t.Fatalf("MarkReady() error = %v", err)
	}
	if s.State() != session.StateReady {
		t.Errorf("State() = %v, want Ready", s.State())
	}
}

func TestSealOpenRoundTripAfterHandshake(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	peerKP, resp := peerHello(t, nil)
	if err := s.CompleteHandshake(resp); err != nil {
		t.Fatalf("CompleteHandshake() error = %v", err)
	}

	peerBox, err := crypto.NewBox(peerKP.PrivateKey, s.LocalPublicKey())
	if err != nil {
		t.Fatalf("NewBox() error = %v", err)
	}

	plaintext := []byte("HmdStatus request body")
	sealed, err := s.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	opened, err := peerBox.Open(sealed)
	if err != nil {
		t.Fatalf("peer Open() error = %v", err)
	}
	if !bytes.Equal(opened, plaintext) {
		t.Errorf("opened = %q, want %q", opened, plaintext)
	}

	reply, err := peerBox.Seal([]byte("HmdStatus response body"))
	if err != nil {
		t.Fatalf("peer Seal() error = %v", err)
	}
	openedReply, err := s.Open(reply)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(openedReply) != "HmdStatus response body" {
		t.Errorf("openedReply = %q", openedReply)
	}
}

func TestSealBeforeHandshakeFails(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := s.Seal([]byte("too early")); err == nil {
		t.Error("Seal() should fail before the handshake completes")
	}
}

func TestNextSeqIsStrictlyMonotonic(t *testing.T) {
	s, err := session.New(nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	seen := make(map[int32]bool)
	prev := int32(-1)
	for i := 0; i < 100; i++ {
		seq := s.NextSeq()
		if seq <= prev {
			t.Fatalf("NextSeq() = %d, want greater than previous %d", seq, prev)
		}
		if seen[seq] {
			t.Fatalf("NextSeq() returned duplicate %d", seq)
		}
		seen[seq] = true
		prev = seq
	}
}

func TestCloseZeroizesAndIsIdempotent(t *testing.T) {
	s, err := session.New(bytes.Repeat([]byte{0x99}, 32))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.Close()
	if s.State() != session.StateClosed {
		t.Errorf("State() = %v, want Closed", s.State())
	}
	s.Close() // must not panic
}
