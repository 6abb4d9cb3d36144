// Package fuzz provides fuzz tests for the parsing and cryptographic
// functions that handle untrusted BLE input.
//
// Run fuzz tests with:
//
//	go test -fuzz=FuzzReassemble -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzDecodeRequest -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzDecodeHello -fuzztime=30s ./test/fuzz/
//	go test -fuzz=FuzzBoxOpen -fuzztime=30s ./test/fuzz/
//
// Run all fuzz tests sequentially:
//
//	go test -fuzz=Fuzz -fuzztime=10s ./test/fuzz/
package fuzz

import (
	"testing"

	"github.com/questhmd/hmdctl/pkg/crypto"
	"github.com/questhmd/hmdctl/pkg/framer"
	"github.com/questhmd/hmdctl/pkg/protocol"
)

// FuzzReassemble fuzzes the BLE fragment reassembler with arbitrary packet
// bytes. This is the first thing untrusted notification data reaches.
func FuzzReassemble(f *testing.F) {
	fragmenter := framer.NewFragmenter(23)
	fragments, _ := fragmenter.Fragment([]byte("a fragmented companion-server message"))
	for _, frag := range fragments {
		f.Add(frag)
	}

	f.Add([]byte{})
	f.Add([]byte{0x00})
	f.Add([]byte{0x00, 0x00})
	f.Add([]byte{0xff, 0xff, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		r := framer.NewReassembler()
		// Should not panic regardless of input.
		_, _, _ = r.Feed(data)
	})
}

// FuzzDecodeRequest fuzzes the Request envelope decoder.
func FuzzDecodeRequest(f *testing.F) {
	codec := protocol.NewCodec()

	valid, _ := codec.EncodeRequest(&protocol.Request{
		Version: protocol.Current,
		Method:  protocol.MethodHmdStatus,
		Seq:     7,
		Body:    []byte("payload"),
	})
	f.Add(valid)

	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add([]byte{0x01, 0, 0, 0, 0})
	f.Add([]byte{0x01, 0xff, 0xff, 0xff, 0xff})

	f.Fuzz(func(t *testing.T, data []byte) {
		req, err := codec.DecodeRequest(data)
		if err != nil {
			return
		}
		if req != nil {
			if err := req.Validate(); err != nil {
				t.Logf("decoded invalid request: %v", err)
			}
		}
	})
}

// FuzzDecodeResponse fuzzes the Response envelope decoder.
func FuzzDecodeResponse(f *testing.F) {
	codec := protocol.NewCodec()

	valid, _ := codec.EncodeResponse(&protocol.Response{Code: 0, Seq: 7, Body: []byte("ok")})
	f.Add(valid)

	f.Add([]byte{})
	f.Add([]byte{0x02})
	f.Add([]byte{0x02, 0, 0, 0, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = codec.DecodeResponse(data)
	})
}

// FuzzDecodeHello fuzzes the Hello message decoder.
func FuzzDecodeHello(f *testing.F) {
	codec := protocol.NewCodec()
	kp, _ := crypto.GenerateKeyPair()

	valid := &protocol.Hello{
		ClientPublicKey: kp.PublicKeyBytes(),
		ClientChallenge: crypto.MustSecureRandomBytes(16),
		AppID:           "com.questhmd.hmdctl",
		AppVersion:      "1.0",
	}
	encoded, _ := codec.EncodeHello(valid)
	f.Add(encoded)

	f.Add([]byte{})
	f.Add([]byte{0x10})
	f.Add(make([]byte, 31))
	f.Add(make([]byte, 33))

	f.Fuzz(func(t *testing.T, data []byte) {
		hello, err := codec.DecodeHello(data)
		if err != nil {
			return
		}
		if hello != nil {
			if err := hello.Validate(); err != nil {
				t.Logf("decoded invalid hello: %v", err)
			}
		}
	})
}

// FuzzDecodeHelloResponse fuzzes the HelloResponse decoder.
func FuzzDecodeHelloResponse(f *testing.F) {
	codec := protocol.NewCodec()
	kp, _ := crypto.GenerateKeyPair()

	valid := &protocol.HelloResponse{
		HmdPublicKey: kp.PublicKeyBytes(),
		SignedData:   protocol.HelloSignedData{AuthenticationChallenge: []byte("challenge")},
	}
	encoded, _ := codec.EncodeHelloResponse(valid)
	f.Add(encoded)

	f.Add([]byte{})
	f.Add([]byte{0x11})

	f.Fuzz(func(t *testing.T, data []byte) {
		resp, err := codec.DecodeHelloResponse(data)
		if err != nil {
			return
		}
		if resp != nil {
			if err := resp.Validate(); err != nil {
				t.Logf("decoded invalid hello response: %v", err)
			}
		}
	})
}

// FuzzBoxOpen fuzzes the crypto-box decryption path with arbitrary
// ciphertext, since it processes data received over BLE before the
// session is authenticated.
func FuzzBoxOpen(f *testing.F) {
	local, _ := crypto.GenerateKeyPair()
	peer, _ := crypto.GenerateKeyPair()
	box, _ := crypto.NewBox(local.PrivateKey, peer.PublicKeyBytes())

	sealed, _ := box.Seal([]byte("plaintext"))
	f.Add(sealed)

	f.Add([]byte{})
	f.Add(make([]byte, 24))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = box.Open(data)
	})
}

// FuzzParseX25519PublicKey fuzzes X25519 public key parsing.
func FuzzParseX25519PublicKey(f *testing.F) {
	kp, _ := crypto.GenerateKeyPair()
	f.Add(kp.PublicKeyBytes())

	f.Add([]byte{})
	f.Add(make([]byte, 31))
	f.Add(make([]byte, 32))
	f.Add(make([]byte, 33))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = crypto.ParsePublicKey(data)
	})
}

// FuzzVerifyChallenge fuzzes HMAC challenge verification with arbitrary
// device secrets and signed-challenge bytes.
func FuzzVerifyChallenge(f *testing.F) {
	secret := make([]byte, 32)
	_ = crypto.SecureRandom(secret)
	challenge := []byte("0123456789abcdef")
	signed, _ := crypto.SignChallenge(secret, challenge)
	f.Add(signed)

	f.Add([]byte{})
	f.Add(make([]byte, 32))

	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = crypto.VerifyChallenge(secret, challenge, data)
	})
}
