// Package codec implements the bijective binary serialization scheme that
// drives every JAM wire format and state Merkle leaf (spec.md §4.1).
//
// Fixed-length integers are little-endian. Sequences are prefixed by their
// element count as a varint; fixed-length arrays are raw. Sum types are
// prefixed by a single discriminant byte. Every encode/decode pair in this
// package and its callers must be bijective: decode(encode(v)) == v.
package codec

import "bytes"

// Encoder accumulates an encoded byte stream. The zero value is ready to use.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an Encoder with a pre-sized buffer.
func NewEncoder(sizeHint int) *Encoder {
	e := &Encoder{}
	e.buf.Grow(sizeHint)
	return e
}

// Bytes returns the accumulated encoding.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Byte appends a single raw byte.
func (e *Encoder) Byte(b byte) { e.buf.WriteByte(b) }

// Raw appends b verbatim (used for fixed-length arrays).
func (e *Encoder) Raw(b []byte) { e.buf.Write(b) }

// Varint appends the bijective varint encoding of x.
func (e *Encoder) Varint(x uint64) {
	var tmp [9]byte
	n := AppendVarint(tmp[:0], x)
	e.buf.Write(n)
}

// Uint8 appends a single-byte fixed-length integer.
func (e *Encoder) Uint8(x uint8) { e.buf.WriteByte(x) }

// Uint16 appends a fixed-length little-endian u16.
func (e *Encoder) Uint16(x uint16) {
	e.buf.WriteByte(byte(x))
	e.buf.WriteByte(byte(x >> 8))
}

// Uint32 appends a fixed-length little-endian u32.
func (e *Encoder) Uint32(x uint32) {
	var b [4]byte
	b[0] = byte(x)
	b[1] = byte(x >> 8)
	b[2] = byte(x >> 16)
	b[3] = byte(x >> 24)
	e.buf.Write(b[:])
}

// Uint64 appends a fixed-length little-endian u64.
func (e *Encoder) Uint64(x uint64) {
	var b [8]byte
	for i := range b {
		b[i] = byte(x >> (8 * uint(i)))
	}
	e.buf.Write(b[:])
}

// Discriminant appends a single discriminant byte identifying a sum-type
// variant.
func (e *Encoder) Discriminant(tag byte) { e.buf.WriteByte(tag) }

// Sequence appends the varint length prefix for n elements; the caller then
// encodes each element in order.
func (e *Encoder) Sequence(n int) { e.Varint(uint64(n)) }

// VarBytes appends a length-prefixed byte string.
func (e *Encoder) VarBytes(b []byte) {
	e.Varint(uint64(len(b)))
	e.buf.Write(b)
}

// Decoder consumes bytes from a fixed buffer, tracking position.
type Decoder struct {
	b   []byte
	pos int
}

// NewDecoder wraps b for sequential decoding.
func NewDecoder(b []byte) *Decoder { return &Decoder{b: b} }

// Len returns the number of unread bytes.
func (d *Decoder) Len() int { return len(d.b) - d.pos }

// Remaining returns the unread tail without consuming it.
func (d *Decoder) Remaining() []byte { return d.b[d.pos:] }

// Byte consumes and returns a single raw byte.
func (d *Decoder) Byte() (byte, error) {
	if d.pos >= len(d.b) {
		return 0, ErrUnexpectedEnd
	}
	v := d.b[d.pos]
	d.pos++
	return v, nil
}

// Raw consumes exactly n raw bytes.
func (d *Decoder) Raw(n int) ([]byte, error) {
	if d.pos+n > len(d.b) {
		return nil, ErrUnexpectedEnd
	}
	v := d.b[d.pos : d.pos+n]
	d.pos += n
	return v, nil
}

// Varint consumes a bijective varint.
func (d *Decoder) Varint() (uint64, error) {
	x, n, err := takeVarint(d.b[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return x, nil
}

// Uint8 consumes a single-byte fixed-length integer.
func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.Byte()
	return uint8(b), err
}

// Uint16 consumes a fixed-length little-endian u16.
func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.Raw(2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// Uint32 consumes a fixed-length little-endian u32.
func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.Raw(4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// Uint64 consumes a fixed-length little-endian u64.
func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.Raw(8)
	if err != nil {
		return 0, err
	}
	var x uint64
	for i := 0; i < 8; i++ {
		x |= uint64(b[i]) << (8 * uint(i))
	}
	return x, nil
}

// Discriminant consumes a single discriminant byte and validates it is
// below numVariants, else ErrDiscriminantOutOfRange.
func (d *Decoder) Discriminant(numVariants int) (byte, error) {
	tag, err := d.Byte()
	if err != nil {
		return 0, err
	}
	if int(tag) >= numVariants {
		return 0, ErrDiscriminantOutOfRange
	}
	return tag, nil
}

// Sequence consumes the varint length prefix for a sequence.
func (d *Decoder) Sequence() (int, error) {
	n, err := d.Varint()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// VarBytes consumes a length-prefixed byte string.
func (d *Decoder) VarBytes() ([]byte, error) {
	n, err := d.Varint()
	if err != nil {
		return nil, err
	}
	return d.Raw(int(n))
}

// Done reports whether every byte of the input has been consumed.
func (d *Decoder) Done() bool { return d.pos == len(d.b) }

// CheckSorted validates that keys is strictly increasing (lexicographic byte
// order), as required of every ordered-dictionary payload (spec.md §4.1).
func CheckSorted(keys [][]byte) error {
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			return ErrKeysNotSorted
		}
	}
	return nil
}
