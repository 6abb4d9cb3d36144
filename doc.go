// Package hmdctl implements a host-side client for a Meta Quest headset's
// BLE companion server.
//
// It discovers the companion-server GATT service, establishes an encrypted
// session over a fragmenting BLE transport, and exposes a typed catalog of
// remote procedure calls (developer mode, OTA toggles, HMD status, and
// claiming/authenticating the device).
//
// # Quick Start
//
// For a full discover-and-connect flow:
//
//	import "github.com/questhmd/hmdctl/pkg/connect"
//
//	store, _ := devicekey.NewStore()
//	result, err := connect.DiscoverAndConnect(ctx, scanner, store)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer result.Close()
//
//	status, _ := result.Dispatcher.HmdStatus(ctx)
//
// For direct control over the handshake and calls:
//
//	import "github.com/questhmd/hmdctl/pkg/session"
//	import "github.com/questhmd/hmdctl/pkg/dispatcher"
//
//	sess, _ := session.New(storedSecret)
//	d := dispatcher.New(channel, sess)
//	resp, _ := d.Hello(ctx)
//
// # Package Structure
//
//   - pkg/ble: Scanner/Device/Channel interfaces a BLE adapter implements
//   - pkg/framer: Byte-fragmentation and reassembly over the BLE MTU
//   - pkg/protocol: Request/Response envelope encoding
//   - pkg/crypto: X25519 key agreement, crypto-box sealing, HMAC challenges
//   - pkg/session: Per-connection state machine and encrypted call surface
//   - pkg/dispatcher: Typed method catalog and one-call-at-a-time call queue
//   - pkg/devicekey: Persistence of the claimed device secret
//   - pkg/connect: Discovery, dialing, and handshake orchestration
//   - pkg/metrics: Structured logging, tracing, and Prometheus metrics
//   - internal/constants: Protocol and timeout constants
//   - internal/errors: Typed error values for detailed error handling
//
// # Session Lifecycle
//
// A Session moves through StateConnected, then either StateClaiming (first
// pairing) or StateAuthenticating (returning device), then StateReady once
// the encrypted channel is established, and finally StateClosed.
//
// # Testing
//
// The library includes tests built on an in-memory loopback BLE channel,
// so the full handshake and call path is exercised without real hardware:
//
//	go test ./...                         # All tests
//	go test -fuzz=FuzzReassemble ./test/fuzz/
//	go test -bench=. ./test/benchmark
//
// # References
//
//   - Bluetooth Core Specification, Vol 3, Part F (ATT)
//   - RFC 7748: Elliptic Curves for Security (X25519)
//   - NaCl crypto_box: Curve25519-XSalsa20-Poly1305
package hmdctl
