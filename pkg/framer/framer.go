// Package framer fragments and reassembles byte strings across the BLE CCS
// channel's tiny ATT MTU.
//
// Every fragment carries a 2-byte header:
//
//	byte 0: bit 7 = end-of-message flag, bits 4-0 = high 5 bits of a 13-bit
//	        sequence number
//	byte 1: low 8 bits of the sequence number
//
// The sequence number starts at 0 for the first fragment of every message
// and rises by one per fragment, wrapping modulo 8192. Reassembly tracks the
// next sequence number it expects;
// a fragment that arrives out of order resets the in-progress message, and
// a fragment carrying sequence number 0 always restarts reassembly, which
// lets the reassembler resynchronize after a dropped fragment without
// waiting for an explicit reset signal from the transport.
package framer

import (
	"github.com/questhmd/hmdctl/internal/constants"
	qerrors "github.com/questhmd/hmdctl/internal/errors"
)

func nextSeq(seq uint16) uint16 {
	return (seq + 1) % constants.FramerSeqModulus
}

// Fragmenter splits payloads into MTU-sized fragments for one BLE connection.
// Each call to Fragment numbers its fragments from 0; it is not safe for
// concurrent use.
type Fragmenter struct {
	mtu int
	seq uint16
}

// NewFragmenter creates a Fragmenter targeting the given ATT MTU. mtu is the
// negotiated ATT MTU, not the usable payload size; ATT header overhead and
// the framer's own 2-byte header are subtracted automatically.
func NewFragmenter(mtu int) *Fragmenter {
	return &Fragmenter{mtu: mtu}
}

// chunkSize returns the number of payload bytes that fit in one fragment. An
// MTU too small to carry even one payload byte alongside the ATT and framer
// headers is a configuration error, not something to silently clamp.
func (f *Fragmenter) chunkSize() (int, error) {
	size := f.mtu - constants.ATTHeaderOverhead - constants.FramerHeaderSize
	if size < 1 {
		return 0, qerrors.ErrConfigError
	}
	return size, nil
}

// Fragment splits payload into a sequence of BLE packets, each carrying the
// 2-byte framer header plus a chunk of payload. An empty payload still
// yields exactly one (header-only) fragment, so a zero-length message can be
// sent and reassembled like any other.
func (f *Fragmenter) Fragment(payload []byte) ([][]byte, error) {
	if len(payload) > constants.MaxMessageSize {
		return nil, qerrors.ErrMessageTooLarge
	}

	chunkSize, err := f.chunkSize()
	if err != nil {
		return nil, err
	}
	numChunks := (len(payload) + chunkSize - 1) / chunkSize
	if numChunks == 0 {
		numChunks = 1
	}

	fragments := make([][]byte, 0, numChunks)
	offset := 0
	f.seq = 0
	for i := 0; i < numChunks; i++ {
		end := offset + chunkSize
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]
		last := i == numChunks-1

		pkt := make([]byte, constants.FramerHeaderSize+len(chunk))
		pkt[0] = byte(f.seq>>8) & constants.FramerSeqHighMask
		if last {
			pkt[0] |= constants.FramerEndFlag
		}
		pkt[1] = byte(f.seq)
		copy(pkt[constants.FramerHeaderSize:], chunk)

		fragments = append(fragments, pkt)
		f.seq = nextSeq(f.seq)
		offset = end
	}

	return fragments, nil
}

// Reassembler reconstructs messages from a stream of BLE fragments produced
// by a Fragmenter. It is not safe for concurrent use.
type Reassembler struct {
	synced      bool
	expectedSeq uint16
	buf         []byte
}

// NewReassembler creates an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Feed consumes one BLE fragment. It returns the reassembled message and
// true once the fragment carrying the end flag has been fed; otherwise it
// returns nil, false while the message is still being accumulated.
//
// A fragment shorter than the 2-byte header is dropped silently, same as a
// transport read glitch; it does not disturb the in-progress message. An
// out-of-order fragment is not an error either: it resets the in-progress
// message, and reassembly resumes once a fragment carrying sequence number 0
// arrives.
func (r *Reassembler) Feed(pkt []byte) ([]byte, bool, error) {
	if len(pkt) < constants.FramerHeaderSize {
		return nil, false, nil
	}

	seq := (uint16(pkt[0]&constants.FramerSeqHighMask) << 8) | uint16(pkt[1])
	end := pkt[0]&constants.FramerEndFlag != 0
	chunk := pkt[constants.FramerHeaderSize:]

	if !r.synced {
		if seq != 0 {
			return nil, false, nil
		}
		r.synced = true
		r.buf = nil
		r.expectedSeq = 0
	}

	if seq != r.expectedSeq {
		r.synced = false
		r.buf = nil
		if seq != 0 {
			return nil, false, nil
		}
		r.synced = true
	}

	r.buf = append(r.buf, chunk...)
	r.expectedSeq = nextSeq(seq)

	if len(r.buf) > constants.MaxMessageSize {
		r.reset()
		return nil, false, qerrors.ErrMessageTooLarge
	}

	if end {
		msg := r.buf
		r.reset()
		return msg, true, nil
	}

	return nil, false, nil
}

// reset clears accumulated state and drops sync, so the next message must
// start at sequence number 0; called after a complete message has been
// delivered.
func (r *Reassembler) reset() {
	r.synced = false
	r.buf = nil
	r.expectedSeq = 0
}
