package bgapi

import (
	"encoding/binary"
	"fmt"
)

// Encoder appends little-endian payload fields after a reserved header. The
// first error sticks and later writes are ignored.
type Encoder struct {
	buf []byte
	err error
}

func newEncoder() *Encoder {
	return &Encoder{buf: make([]byte, HeaderLength, HeaderLength+16)}
}

func (e *Encoder) Uint8(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) Int8(v int8) { e.buf = append(e.buf, byte(v)) }

func (e *Encoder) Bool(v bool) {
	if v {
		e.Uint8(1)
	} else {
		e.Uint8(0)
	}
}

func (e *Encoder) Uint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }

func (e *Encoder) Int16(v int16) { e.Uint16(uint16(v)) }

func (e *Encoder) Uint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

func (e *Encoder) Address(a BDAddr) { e.buf = append(e.buf, a[:]...) }

func (e *Encoder) Result(r Result) { e.Uint16(uint16(r)) }

// Array writes a uint8array: a one byte length followed by the bytes.
func (e *Encoder) Array(b []byte) {
	if len(b) > 0xFF {
		if e.err == nil {
			e.err = fmt.Errorf("%w: array of %d bytes", ErrPayloadTooLarge, len(b))
		}
		return
	}
	e.buf = append(e.buf, byte(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) payload() []byte { return e.buf[HeaderLength:] }

// Decoder reads little-endian payload fields. Reading past the end sets a
// sticky ErrMalformedFrame and yields zero values from then on.
type Decoder struct {
	buf []byte
	off int
	err error
}

func newDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

func (d *Decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedFrame, n, d.off, len(d.buf))
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Uint8() uint8 {
	if b := d.next(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *Decoder) Int8() int8 { return int8(d.Uint8()) }

func (d *Decoder) Bool() bool { return d.Uint8() != 0 }

func (d *Decoder) Uint16() uint16 {
	if b := d.next(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *Decoder) Int16() int16 { return int16(d.Uint16()) }

func (d *Decoder) Uint32() uint32 {
	if b := d.next(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *Decoder) Address() BDAddr {
	var a BDAddr
	if b := d.next(len(a)); b != nil {
		copy(a[:], b)
	}
	return a
}

func (d *Decoder) Result() Result { return Result(d.Uint16()) }

// Array reads a uint8array. The returned slice is a copy; an empty array is
// nil.
func (d *Decoder) Array() []byte {
	n := int(d.Uint8())
	b := d.next(n)
	if len(b) == 0 {
		return nil
	}
	return append([]byte(nil), b...)
}

// Err returns the first decoding error.
func (d *Decoder) Err() error { return d.err }

// Remaining is the number of unread payload bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.off }
