// Package codec implements the compact integer encoding used for recorded generation data.
//
// Values in [0, 192) take a single byte. Any other 32-bit value is written as a leading byte
// 192 + (v & 0x3F) followed by the remaining bits (v >> 6, unsigned) in little-endian groups of 7,
// where every byte except the last has its high bit set.
package codec

import (
	"bytes"
	"encoding/base64"

	"github.com/pkg/errors"
)

const (
	singleByteLimit = 192
	lowBitsMask     = 0x3F
	groupMask       = 0x7F
	continuation    = 0x80
)

var ErrEndOfData = errors.New("codec: unexpected end of data")

// Accumulates encoded integers
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

// Append the encoding of v. Only the low 32 bits of v are written.
func (w *Writer) WriteInt(v int) {
	if v >= 0 && v < singleByteLimit {
		w.buf.WriteByte(byte(v))
		return
	}
	u := uint32(int32(v))
	w.buf.WriteByte(byte(singleByteLimit + (u & lowBitsMask)))
	u >>= 6
	for u >= continuation {
		w.buf.WriteByte(byte(u&groupMask) | continuation)
		u >>= 7
	}
	w.buf.WriteByte(byte(u))
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Reads encoded integers from a byte slice
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Returns the number of unread bytes
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Decode the next integer.
//
// Returns ErrEndOfData if the data ends before the integer is complete.
func (r *Reader) ReadInt() (int, error) {
	b, err := r.next()
	if err != nil {
		return 0, err
	}
	if b < singleByteLimit {
		return int(b), nil
	}
	res := uint32(b - singleByteLimit)
	for shift := 6; ; shift += 7 {
		next, err := r.next()
		if err != nil {
			return 0, err
		}
		res |= uint32(next&groupMask) << shift
		if next&continuation == 0 {
			return int(int32(res)), nil
		}
	}
}

func (r *Reader) next() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.WithStack(ErrEndOfData)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// The header of a serialized recording together with the encoded leaf values
type Record struct {
	Seed     int64
	SizeHint int
	Body     *Reader
}

// Serialize a recording: the high and low halves of the seed, the size hint and then whatever writeBody appends.
// The result is base64 encoded.
func EncodeRecord(seed int64, sizeHint int, writeBody func(w *Writer)) string {
	w := NewWriter()
	w.WriteInt(int(int32(seed >> 32)))
	w.WriteInt(int(int32(seed)))
	w.WriteInt(sizeHint)
	writeBody(w)
	return base64.StdEncoding.EncodeToString(w.Bytes())
}

// Parse the header of a serialized recording. The body is left unread in the returned record.
func DecodeRecord(data string) (*Record, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrap(err, "codec: invalid base64 record")
	}
	r := NewReader(raw)
	high, err := r.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "codec: reading seed")
	}
	low, err := r.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "codec: reading seed")
	}
	hint, err := r.ReadInt()
	if err != nil {
		return nil, errors.Wrap(err, "codec: reading size hint")
	}
	return &Record{
		Seed:     int64(high)<<32 | int64(uint32(low)),
		SizeHint: hint,
		Body:     r,
	}, nil
}

// Read every remaining integer of the reader
func ReadAll(r *Reader) ([]int, error) {
	values := []int{}
	for r.Remaining() > 0 {
		v, err := r.ReadInt()
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}
