// Package integration provides end-to-end integration tests for the
// companion-server client.
//
// These tests verify the complete flow from discovery through an encrypted
// handshake to typed dispatcher calls, all driven over an in-memory BLE
// loopback channel.
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/questhmd/hmdctl/pkg/ble"
	"github.com/questhmd/hmdctl/pkg/connect"
	"github.com/questhmd/hmdctl/pkg/crypto"
	"github.com/questhmd/hmdctl/pkg/devicekey"
	"github.com/questhmd/hmdctl/pkg/dispatcher"
	"github.com/questhmd/hmdctl/pkg/framer"
	"github.com/questhmd/hmdctl/pkg/metrics"
	"github.com/questhmd/hmdctl/pkg/protocol"
	"github.com/questhmd/hmdctl/pkg/session"
)

const integrationMTU = 23

// fakeHMD speaks the full companion-server protocol over a Channel, standing
// in for real BLE hardware so these tests exercise the entire client stack.
type fakeHMD struct {
	channel ble.Channel
	codec   *protocol.Codec
	keyPair *crypto.KeyPair
	box     *crypto.Box

	claimedSecret  []byte
	authChallenge  []byte
	devModeEnabled bool
	otaEnabled     bool
}

func newFakeHMD(t *testing.T, channel ble.Channel, claimedSecret, authChallenge []byte) *fakeHMD {
	t.Helper()
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	return &fakeHMD{channel: channel, codec: protocol.NewCodec(), keyPair: kp, claimedSecret: claimedSecret, authChallenge: authChallenge}
}

func (h *fakeHMD) run(ctx context.Context, t *testing.T) {
	t.Helper()
	reassembler := framer.NewReassembler()
	fragmenter := framer.NewFragmenter(integrationMTU)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		data, err := h.channel.ReadCCS(ctx)
		if err != nil {
			return
		}
		if len(data) == 0 {
			time.Sleep(time.Millisecond)
			continue
		}

		msg, complete, err := reassembler.Feed(data)
		if err != nil {
			t.Errorf("fakeHMD reassembly error: %v", err)
			return
		}
		if !complete {
			continue
		}

		req, err := h.codec.DecodeRequest(msg)
		if err != nil {
			t.Errorf("fakeHMD DecodeRequest error: %v", err)
			return
		}

		resp := h.handle(t, req)

		encoded, err := h.codec.EncodeResponse(resp)
		if err != nil {
			t.Errorf("fakeHMD EncodeResponse error: %v", err)
			return
		}
		fragments, err := fragmenter.Fragment(encoded)
		if err != nil {
			t.Errorf("fakeHMD Fragment error: %v", err)
			return
		}
		for _, frag := range fragments {
			if err := h.channel.WriteCCS(ctx, frag); err != nil {
				return
			}
		}
	}
}

func (h *fakeHMD) handle(t *testing.T, req *protocol.Request) *protocol.Response {
	t.Helper()

	switch req.Method {
	case protocol.MethodHello:
		hello, err := h.codec.DecodeHello(req.Body)
		if err != nil {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		box, err := crypto.NewBox(h.keyPair.PrivateKey, hello.ClientPublicKey)
		if err != nil {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		h.box = box

		body, err := h.codec.EncodeHelloResponse(&protocol.HelloResponse{
			HmdPublicKey: h.keyPair.PublicKeyBytes(),
			SignedData:   protocol.HelloSignedData{AuthenticationChallenge: h.authChallenge},
		})
		if err != nil {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: body}

	case protocol.MethodAuthenticate:
		plain, _ := h.box.Open(req.Body)
		ok, err := crypto.VerifyChallenge(h.claimedSecret, h.authChallenge, plain)
		if err != nil || !ok {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodOculusSetUserSecret:
		plain, _ := h.box.Open(req.Body)
		h.claimedSecret = plain
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodHmdStatus:
		sealed, _ := h.box.Seal([]byte("ok"))
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: sealed}

	case protocol.MethodDevModeSet:
		plain, _ := h.box.Open(req.Body)
		h.devModeEnabled = len(plain) > 0 && plain[0] != 0
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodDevModeStatus:
		sealed, _ := h.box.Seal(boolBody(h.devModeEnabled))
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: sealed}

	case protocol.MethodOtaEnabledSet:
		plain, _ := h.box.Open(req.Body)
		h.otaEnabled = len(plain) > 0 && plain[0] != 0
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodOtaEnabledStatus:
		sealed, _ := h.box.Seal(boolBody(h.otaEnabled))
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: sealed}

	default:
		return &protocol.Response{Code: -1, Seq: req.Seq}
	}
}

func boolBody(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

type fakeDevice struct {
	name, addr string
	channel    ble.Channel
}

func (d *fakeDevice) Name() string    { return d.name }
func (d *fakeDevice) Address() string { return d.addr }
func (d *fakeDevice) Connect(ctx context.Context) (ble.Channel, error) {
	return d.channel, nil
}

type fakeScanner struct {
	device ble.Device
}

func (s *fakeScanner) Scan(ctx context.Context, serviceUUID string) (<-chan ble.Device, error) {
	out := make(chan ble.Device, 1)
	out <- s.device
	return out, nil
}

// TestFullClaimFlow verifies the complete unclaimed-device path: discover,
// connect, Hello, provision a fresh secret, and persist it.
func TestFullClaimFlow(t *testing.T) {
	clientChannel, deviceChannel := ble.NewLoopbackPair(integrationMTU)
	hmd := newFakeHMD(t, deviceChannel, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go hmd.run(ctx, t)

	dev := &fakeDevice{name: "Quest", addr: "AA:BB:CC:DD:EE:01", channel: clientChannel}
	scanner := &fakeScanner{device: dev}

	store, err := devicekey.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt() error = %v", err)
	}

	result, err := connect.DiscoverAndConnect(ctx, scanner, store)
	if err != nil {
		t.Fatalf("DiscoverAndConnect() error = %v", err)
	}
	defer result.Close()

	if result.Session.State() != session.StateReady {
		t.Errorf("Session.State() = %v, want StateReady", result.Session.State())
	}
	if !result.Session.HasDeviceSecret() {
		t.Error("Session.HasDeviceSecret() = false after claim")
	}

	stored, err := store.Load(dev.Address())
	if err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}
	if len(stored) != 32 {
		t.Errorf("stored secret length = %d, want 32", len(stored))
	}

	if _, err := result.Dispatcher.HmdStatus(ctx); err != nil {
		t.Fatalf("HmdStatus() error = %v", err)
	}
}

// TestFullAuthenticateFlow verifies the already-claimed path using a secret
// persisted by a prior session.
func TestFullAuthenticateFlow(t *testing.T) {
	secret, err := crypto.SecureRandomBytes(32)
	if err != nil {
		t.Fatalf("SecureRandomBytes() error = %v", err)
	}
	challenge := []byte("0123456789abcdef")

	clientChannel, deviceChannel := ble.NewLoopbackPair(integrationMTU)
	hmd := newFakeHMD(t, deviceChannel, secret, challenge)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go hmd.run(ctx, t)

	dev := &fakeDevice{name: "Quest", addr: "AA:BB:CC:DD:EE:02", channel: clientChannel}
	store, err := devicekey.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt() error = %v", err)
	}
	if err := store.Save(dev.Address(), secret); err != nil {
		t.Fatalf("store.Save() error = %v", err)
	}

	result, err := connect.Connect(ctx, dev, store)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer result.Close()

	if result.Session.State() != session.StateReady {
		t.Errorf("Session.State() = %v, want StateReady", result.Session.State())
	}

	if err := result.Dispatcher.DevModeSet(ctx, true); err != nil {
		t.Fatalf("DevModeSet() error = %v", err)
	}
	enabled, err := result.Dispatcher.DevModeStatus(ctx)
	if err != nil {
		t.Fatalf("DevModeStatus() error = %v", err)
	}
	if !enabled {
		t.Error("DevModeStatus() = false after DevModeSet(true)")
	}
}

// TestConcurrentDispatcherCalls verifies the dispatcher's one-call-at-a-time
// semaphore serializes concurrent callers without data loss or deadlock.
func TestConcurrentDispatcherCalls(t *testing.T) {
	clientChannel, deviceChannel := ble.NewLoopbackPair(integrationMTU)
	hmd := newFakeHMD(t, deviceChannel, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	go hmd.run(ctx, t)

	sess, err := session.New(nil)
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	d := dispatcher.New(clientChannel, sess)

	if _, err := d.Hello(ctx); err != nil {
		t.Fatalf("Hello() error = %v", err)
	}
	if err := d.OculusSetUserSecret(ctx, make([]byte, 32)); err != nil {
		t.Fatalf("OculusSetUserSecret() error = %v", err)
	}

	const callers = 8
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := d.HmdStatus(ctx)
			errs <- err
		}()
	}
	for i := 0; i < callers; i++ {
		if err := <-errs; err != nil {
			t.Errorf("concurrent HmdStatus() error = %v", err)
		}
	}
}

// TestSessionObserverRecordsLifecycle verifies the metrics SessionObserver
// records traffic for a call made after it is attached to a session that
// Connect has already taken through the handshake.
func TestSessionObserverRecordsLifecycle(t *testing.T) {
	clientChannel, deviceChannel := ble.NewLoopbackPair(integrationMTU)
	hmd := newFakeHMD(t, deviceChannel, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go hmd.run(ctx, t)

	dev := &fakeDevice{name: "Quest", addr: "AA:BB:CC:DD:EE:03", channel: clientChannel}
	store, err := devicekey.NewStoreAt(t.TempDir())
	if err != nil {
		t.Fatalf("NewStoreAt() error = %v", err)
	}

	collector := metrics.NewCollector(metrics.Labels{"service": "hmdctl-test"})
	observer := metrics.NewSessionObserver(metrics.SessionObserverConfig{
		Collector: collector,
		Logger:    metrics.NewLogger(metrics.WithOutput(os.Stderr), metrics.WithLevel(metrics.LevelSilent)),
	})

	result, err := connect.Connect(ctx, dev, store)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	result.Session.SetObserver(observer)
	defer result.Close()

	if _, err := result.Dispatcher.HmdStatus(ctx); err != nil {
		t.Fatalf("HmdStatus() error = %v", err)
	}

	snap := collector.Snapshot()
	if snap.BytesSent == 0 {
		t.Error("Snapshot().BytesSent = 0, want > 0 after an HmdStatus call")
	}
}

// TestLargePayloadFragmentsAcrossMTU verifies a payload larger than the
// advertised MTU survives fragmentation and reassembly intact.
func TestLargePayloadFragmentsAcrossMTU(t *testing.T) {
	clientChannel, deviceChannel := ble.NewLoopbackPair(integrationMTU)

	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	fragmenter := framer.NewFragmenter(integrationMTU)
	fragments, err := fragmenter.Fragment(payload)
	if err != nil {
		t.Fatalf("Fragment() error = %v", err)
	}
	if len(fragments) < 2 {
		t.Fatalf("expected multiple fragments for a %d-byte payload at MTU %d", len(payload), integrationMTU)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan []byte, 1)
	go func() {
		r := framer.NewReassembler()
		for {
			data, err := deviceChannel.ReadCCS(ctx)
			if err != nil {
				done <- nil
				return
			}
			if len(data) == 0 {
				time.Sleep(time.Millisecond)
				continue
			}
			msg, complete, err := r.Feed(data)
			if err != nil {
				done <- nil
				return
			}
			if complete {
				done <- msg
				return
			}
		}
	}()

	for _, frag := range fragments {
		if err := clientChannel.WriteCCS(ctx, frag); err != nil {
			t.Fatalf("WriteCCS() error = %v", err)
		}
	}

	reassembled := <-done
	if string(reassembled) != string(payload) {
		t.Error("reassembled payload does not match the original")
	}
}
