// codec.go implements serialization and deserialization of the Request and
// Response envelopes, and of the Hello handshake bodies carried inside them.
//
// Wire Format, Request:
//
//	+---------+--------+--------+---------+----------+----------+
//	| Version | Method | Seq    | HasBody | BodyLen  | Body     |
//	| 4B BE   | 1B     | 4B BE  | 1B      | 4B BE    | Variable |
//	+---------+--------+--------+---------+----------+----------+
//
// Wire Format, Response:
//
//	+--------+--------+---------+----------+----------+
//	| Code   | Seq    | HasBody | BodyLen  | Body     |
//	| 4B BE  | 4B BE  | 1B      | 4B BE    | Variable |
//	+--------+--------+---------+----------+----------+
//
// BodyLen and Body are present only when HasBody is 1.
//
// Wire Format, Hello (Request body):
//
//	+-----------------+-----------------+-------------+---------------+
//	| ClientPublicKey | ClientChallenge | AppIDLen+ID | AppVerLen+Ver |
//	| 32B             | 16B             | 1B + var    | 1B + var      |
//	+-----------------+-----------------+-------------+---------------+
//
// Wire Format, HelloResponse (Response body):
//
//	+--------------+-------------------+--------------------------+
//	| HmdPublicKey | HasChallenge       | Challenge (if present)   |
//	| 32B          | 1B                 | 16B                      |
//	+--------------+-------------------+--------------------------+
package protocol

import (
	"encoding/binary"
	"io"

	qerrors "github.com/questhmd/hmdctl/internal/errors"
)

// EnvelopeHeaderSize is the fixed portion of a Request header
// (version + method + seq + hasBody flag), excluding the optional body length.
const EnvelopeHeaderSize = 4 + 1 + 4 + 1

// MaxMessageSize is the largest body this codec will accept.
const MaxMessageSize = 1 << 20

// Codec serializes and deserializes Request/Response envelopes.
type Codec struct{}

// NewCodec creates a new protocol codec.
func NewCodec() *Codec {
	return &Codec{}
}

// EncodeRequest serializes a Request.
func (c *Codec) EncodeRequest(r *Request) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if len(r.Body) > MaxMessageSize {
		return nil, qerrors.ErrMessageTooLarge
	}

	hasBody := len(r.Body) > 0
	size := EnvelopeHeaderSize
	if hasBody {
		size += 4 + len(r.Body)
	}

	buf := make([]byte, size)
	offset := 0

	binary.BigEndian.PutUint32(buf[offset:], uint32(r.Version))
	offset += 4
	buf[offset] = byte(r.Method)
	offset++
	//nolint:gosec // G115: seq is a caller-assigned counter, sign bits preserved via cast
	binary.BigEndian.PutUint32(buf[offset:], uint32(r.Seq))
	offset += 4

	if hasBody {
		buf[offset] = 1
		offset++
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(r.Body)))
		offset += 4
		copy(buf[offset:], r.Body)
	} else {
		buf[offset] = 0
	}

	return buf, nil
}

// DecodeRequest deserializes a Request.
func (c *Codec) DecodeRequest(data []byte) (*Request, error) {
	if len(data) < EnvelopeHeaderSize {
		return nil, qerrors.ErrProtocolError
	}

	offset := 0
	r := &Request{}
	r.Version = Version(binary.BigEndian.Uint32(data[offset:]))
	offset += 4
	r.Method = Method(data[offset])
	offset++
	r.Seq = int32(binary.BigEndian.Uint32(data[offset:]))
	offset += 4

	hasBody := data[offset]
	offset++

	if hasBody == 1 {
		if len(data) < offset+4 {
			return nil, qerrors.ErrProtocolError
		}
		bodyLen := binary.BigEndian.Uint32(data[offset:])
		offset += 4
		if bodyLen > MaxMessageSize || len(data) < offset+int(bodyLen) {
			return nil, qerrors.ErrMessageTooLarge
		}
		r.Body = make([]byte, bodyLen)
		copy(r.Body, data[offset:offset+int(bodyLen)])
	}

	return r, nil
}

// EncodeResponse serializes a Response.
func (c *Codec) EncodeResponse(r *Response) ([]byte, error) {
	if len(r.Body) > MaxMessageSize {
		return nil, qerrors.ErrMessageTooLarge
	}

	hasBody := len(r.Body) > 0
	size := 4 + 4 + 1
	if hasBody {
		size += 4 + len(r.Body)
	}

	buf := make([]byte, size)
	offset := 0

	//nolint:gosec // G115: code is a signed status, sign bits preserved via cast
	binary.BigEndian.PutUint32(buf[offset:], uint32(r.Code))
	offset += 4
	//nolint:gosec // G115: seq is a caller-assigned counter, sign bits preserved via cast
	binary.BigEndian.PutUint32(buf[offset:], uint32(r.Seq))
	offset += 4

	if hasBody {
		buf[offset] = 1
		offset++
		binary.BigEndian.PutUint32(buf[offset:], uint32(len(r.Body)))
		offset += 4
		copy(buf[offset:], r.Body)
	} else {
		buf[offset] = 0
	}

	return buf, nil
}

// DecodeResponse deserializes a Response.
func (c *Codec) DecodeResponse(data []byte) (*Response, error) {
	if len(data) < 4+4+1 {
		return nil, qerrors.ErrProtocolError
	}

	offset := 0
	r := &Response{}
	r.Code = int32(binary.BigEndian.Uint32(data[offset:]))
	offset += 4
	r.Seq = int32(binary.BigEndian.Uint32(data[offset:]))
	offset += 4

	hasBody := data[offset]
	offset++

	if hasBody == 1 {
		if len(data) < offset+4 {
			return nil, qerrors.ErrProtocolError
		}
		bodyLen := binary.BigEndian.Uint32(data[offset:])
		offset += 4
		if bodyLen > MaxMessageSize || len(data) < offset+int(bodyLen) {
			return nil, qerrors.ErrMessageTooLarge
		}
		r.Body = make([]byte, bodyLen)
		copy(r.Body, data[offset:offset+int(bodyLen)])
	}

	return r, nil
}

// EncodeHello serializes a Hello handshake body.
func (c *Codec) EncodeHello(h *Hello) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if len(h.AppID) > 255 || len(h.AppVersion) > 255 {
		return nil, qerrors.ErrProtocolError
	}

	size := 32 + 16 + 1 + len(h.AppID) + 1 + len(h.AppVersion)
	buf := make([]byte, size)
	offset := 0

	copy(buf[offset:], h.ClientPublicKey)
	offset += 32

	copy(buf[offset:], h.ClientChallenge)
	offset += 16

	buf[offset] = byte(len(h.AppID))
	offset++
	copy(buf[offset:], h.AppID)
	offset += len(h.AppID)

	buf[offset] = byte(len(h.AppVersion))
	offset++
	copy(buf[offset:], h.AppVersion)

	return buf, nil
}

// DecodeHello deserializes a Hello handshake body.
func (c *Codec) DecodeHello(data []byte) (*Hello, error) {
	if len(data) < 32+16+1 {
		return nil, qerrors.ErrProtocolError
	}

	offset := 0
	h := &Hello{}
	h.ClientPublicKey = make([]byte, 32)
	copy(h.ClientPublicKey, data[offset:offset+32])
	offset += 32

	h.ClientChallenge = make([]byte, 16)
	copy(h.ClientChallenge, data[offset:offset+16])
	offset += 16

	appIDLen := int(data[offset])
	offset++
	if len(data) < offset+appIDLen+1 {
		return nil, qerrors.ErrProtocolError
	}
	h.AppID = string(data[offset : offset+appIDLen])
	offset += appIDLen

	appVerLen := int(data[offset])
	offset++
	if len(data) < offset+appVerLen {
		return nil, qerrors.ErrProtocolError
	}
	h.AppVersion = string(data[offset : offset+appVerLen])

	if err := h.Validate(); err != nil {
		return nil, err
	}

	return h, nil
}

// EncodeHelloResponse serializes a HelloResponse body.
func (c *Codec) EncodeHelloResponse(r *HelloResponse) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	hasChallenge := len(r.SignedData.AuthenticationChallenge) > 0
	if hasChallenge && len(r.SignedData.AuthenticationChallenge) != 16 {
		return nil, qerrors.ErrProtocolError
	}

	size := 32 + 1
	if hasChallenge {
		size += 16
	}

	buf := make([]byte, size)
	offset := 0
	copy(buf[offset:], r.HmdPublicKey)
	offset += 32

	if hasChallenge {
		buf[offset] = 1
		offset++
		copy(buf[offset:], r.SignedData.AuthenticationChallenge)
	} else {
		buf[offset] = 0
	}

	return buf, nil
}

// DecodeHelloResponse deserializes a HelloResponse body.
func (c *Codec) DecodeHelloResponse(data []byte) (*HelloResponse, error) {
	if len(data) < 32+1 {
		return nil, qerrors.ErrProtocolError
	}

	offset := 0
	r := &HelloResponse{}
	r.HmdPublicKey = make([]byte, 32)
	copy(r.HmdPublicKey, data[offset:offset+32])
	offset += 32

	hasChallenge := data[offset]
	offset++

	if hasChallenge == 1 {
		if len(data) < offset+16 {
			return nil, qerrors.ErrProtocolError
		}
		r.SignedData.AuthenticationChallenge = make([]byte, 16)
		copy(r.SignedData.AuthenticationChallenge, data[offset:offset+16])
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// ReadMessage reads one message prefixed with a 4-byte big-endian length
// from r. The framer does not produce this format (it uses its own 2-byte
// fragment header); this helper is for callers reading length-prefixed
// messages directly from an io.Reader.
func (c *Codec) ReadMessage(r io.Reader) ([]byte, error) {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, err
	}

	msgLen := binary.BigEndian.Uint32(lenBuf)
	if msgLen > MaxMessageSize {
		return nil, qerrors.ErrMessageTooLarge
	}

	msg := make([]byte, msgLen)
	if msgLen > 0 {
		if _, err := io.ReadFull(r, msg); err != nil {
			return nil, err
		}
	}

	return msg, nil
}
