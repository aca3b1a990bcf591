// Package protocol implements the R-Type-style wire protocol: a fixed
// 14-byte packet header, typed payload structs, and an optional run-length
// compression pass. All multi-byte fields are little-endian; that's the
// contract, not a default — every primitive read/write below is explicit
// about it the way the teacher's shared.Message (de)serializer was.
package protocol

import "encoding/binary"

// Writer is an append-only byte buffer builder for wire payloads. It never
// fails: callers size their payloads from known-fixed-width fields, so there
// is nothing for Write* to reject.
type Writer struct {
	buf []byte
}

// NewWriter returns a Writer with capacity preallocated for size bytes. A
// zero size is fine; it just grows as needed.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) U8(v uint8)  { w.buf = append(w.buf, v) }
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

func (w *Writer) U16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) U32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) F32(v float32) {
	w.U32(f32bits(v))
}

// RawBytes appends raw bytes without a length prefix. Used for payloads
// whose caller already knows the length from context (e.g. the RLE codec).
func (w *Writer) RawBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// LPString writes a length-prefixed string: u32 length followed by the raw
// bytes, per spec §6 ("lpstring").
func (w *Writer) LPString(s string) {
	w.U32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// Reader decodes a wire payload, checking remaining bytes before every
// primitive read and failing with ErrUnderflow when insufficient.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential decoding. buf is not copied; callers
// must not mutate it while a Reader over it is in use.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining reports how many bytes are left to read.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return ErrUnderflow
	}
	return nil
}

func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	return v != 0, err
}

func (r *Reader) U16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *Reader) F32() (float32, error) {
	bits, err := r.U32()
	if err != nil {
		return 0, err
	}
	return f32frombits(bits), nil
}

// RawBytes reads exactly n raw bytes.
func (r *Reader) RawBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

// LPString reads a length-prefixed string. A declared length exceeding the
// remaining buffer is ErrOverrunString, not ErrUnderflow — this is the
// check that stops an adversary-supplied huge length from driving an
// allocation (spec §4.A).
func (r *Reader) LPString() (string, error) {
	n, err := r.U32()
	if err != nil {
		return "", err
	}
	if int(n) > r.Remaining() {
		return "", ErrOverrunString
	}
	b, err := r.RawBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
