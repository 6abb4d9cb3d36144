package main

import (
	"context"
	"time"

	"github.com/questhmd/hmdctl/pkg/ble"
	"github.com/questhmd/hmdctl/pkg/crypto"
	"github.com/questhmd/hmdctl/pkg/framer"
	"github.com/questhmd/hmdctl/pkg/protocol"
)

// simulatedMTU is the conservative MTU the fake companion server advertises.
const simulatedMTU = 23

// simulatedHMD plays the device side of the protocol for the demo and
// benchmark commands, since no real BLE adapter is available here.
type simulatedHMD struct {
	channel       ble.Channel
	codec         *protocol.Codec
	keyPair       *crypto.KeyPair
	box           *crypto.Box
	claimedSecret []byte
	authChallenge []byte
	devModeEnabled bool
	otaEnabled     bool
}

func newSimulatedHMD(channel ble.Channel, claimed bool) (*simulatedHMD, error) {
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	h := &simulatedHMD{channel: channel, codec: protocol.NewCodec(), keyPair: kp}
	if claimed {
		secret, err := crypto.SecureRandomBytes(32)
		if err != nil {
			return nil, err
		}
		h.claimedSecret = secret
		h.authChallenge = []byte("simulated-challenge")
	}
	return h, nil
}

func (h *simulatedHMD) run(ctx context.Context) {
	reassembler := framer.NewReassembler()
	fragmenter := framer.NewFragmenter(simulatedMTU)

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
		if err != nil || !complete {
			continue
		}

		req, err := h.codec.DecodeRequest(msg)
		if err != nil {
			continue
		}

		resp := h.handle(req)

		encoded, err := h.codec.EncodeResponse(resp)
		if err != nil {
			continue
		}
		fragments, err := fragmenter.Fragment(encoded)
		if err != nil {
			continue
		}
		for _, frag := range fragments {
			if err := h.channel.WriteCCS(ctx, frag); err != nil {
				return
			}
		}
	}
}

func (h *simulatedHMD) handle(req *protocol.Request) *protocol.Response {
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

		resp := &protocol.HelloResponse{
			HmdPublicKey: h.keyPair.PublicKeyBytes(),
			SignedData:   protocol.HelloSignedData{AuthenticationChallenge: h.authChallenge},
		}
		body, err := h.codec.EncodeHelloResponse(resp)
		if err != nil {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: body}

	case protocol.MethodAuthenticate:
		plain, err := h.box.Open(req.Body)
		if err != nil {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		ok, err := crypto.VerifyChallenge(h.claimedSecret, h.authChallenge, plain)
		if err != nil || !ok {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodOculusSetUserSecret:
		plain, err := h.box.Open(req.Body)
		if err != nil {
			return &protocol.Response{Code: -1, Seq: req.Seq}
		}
		h.claimedSecret = plain
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodHmdStatus:
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: h.seal([]byte("ok"))}

	case protocol.MethodDevModeSet:
		h.devModeEnabled = boolFromBody(h.open(req.Body))
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodDevModeStatus:
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: h.seal(boolToBody(h.devModeEnabled))}

	case protocol.MethodOtaEnabledSet:
		h.otaEnabled = boolFromBody(h.open(req.Body))
		return &protocol.Response{Code: 0, Seq: req.Seq}

	case protocol.MethodOtaEnabledStatus:
		return &protocol.Response{Code: 0, Seq: req.Seq, Body: h.seal(boolToBody(h.otaEnabled))}

	default:
		return &protocol.Response{Code: -1, Seq: req.Seq}
	}
}

func (h *simulatedHMD) open(sealed []byte) []byte {
	plain, err := h.box.Open(sealed)
	if err != nil {
		return nil
	}
	return plain
}

func (h *simulatedHMD) seal(plain []byte) []byte {
	sealed, err := h.box.Seal(plain)
	if err != nil {
		return nil
	}
	return sealed
}

func boolToBody(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func boolFromBody(body []byte) bool {
	return len(body) > 0 && body[0] != 0
}

// simulatedDevice hands back an already-connected loopback channel in place
// of a real GATT dial.
type simulatedDevice struct {
	name, addr string
	channel    ble.Channel
}

func (d *simulatedDevice) Name() string    { return d.name }
func (d *simulatedDevice) Address() string { return d.addr }
func (d *simulatedDevice) Connect(ctx context.Context) (ble.Channel, error) {
	return d.channel, nil
}

type simulatedScanner struct {
	device ble.Device
}

func (s *simulatedScanner) Scan(ctx context.Context, serviceUUID string) (<-chan ble.Device, error) {
	out := make(chan ble.Device, 1)
	out <- s.device
	return out, nil
}
