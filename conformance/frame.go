package conformance

import (
	"bufio"
	"io"

	"github.com/jamzig/jamzig-sub009/codec"
)

// maxFrameBytes bounds a single frame's payload length, defending the
// target against a peer that sends a bogus length prefix.
const maxFrameBytes = 64 << 20

// WriteFrame writes payload as one varint(len) ‖ payload frame (spec.md
// §4.11). payload[0] is expected to already be the message's discriminant
// byte; WriteFrame does not interpret it.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [9]byte
	n := codec.AppendVarint(lenBuf[:0], uint64(len(payload)))
	if _, err := w.Write(n); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one varint(len) ‖ payload frame from r, a stream so the
// length prefix's byte count is not known ahead of time.
func ReadFrame(r *bufio.Reader) ([]byte, error) {
	length, err := readVarintStream(r)
	if err != nil {
		return nil, err
	}
	if length > maxFrameBytes {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// readVarintStream decodes one bijective varint (spec.md §4.1) from a
// stream, byte at a time, mirroring codec.AppendVarint's encoding but
// unable to borrow codec's slice-based decoder since the total length
// isn't known up front here.
func readVarintStream(r *bufio.Reader) (uint64, error) {
	b0, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	if b0 < 0x80 {
		return uint64(b0), nil
	}

	n := 0
	for i := 7; i >= 0; i-- {
		if b0&(1<<uint(i)) != 0 {
			n++
		} else {
			break
		}
	}

	if n == 8 {
		var tail [8]byte
		if _, err := io.ReadFull(r, tail[:]); err != nil {
			return 0, err
		}
		var x uint64
		for i := 0; i < 8; i++ {
			x |= uint64(tail[i]) << (8 * uint(i))
		}
		return x, nil
	}

	l := n
	mantissaBits := uint(7 - n)
	var high uint64
	if mantissaBits > 0 {
		mask := byte((1 << mantissaBits) - 1)
		high = uint64(b0 & mask)
	}
	tail := make([]byte, l)
	if _, err := io.ReadFull(r, tail); err != nil {
		return 0, err
	}
	var x uint64
	for i := 0; i < l; i++ {
		x |= uint64(tail[i]) << (8 * uint(i))
	}
	x |= high << (8 * uint(l))
	return x, nil
}
