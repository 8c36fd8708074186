// Package wire holds the small byte-level helpers shared by the frame codec
// and the connection: big-endian integer packing, the padding helpers used
// by padded frame types, and zero-copy []byte/string casts.
package wire

import (
	"reflect"
	"unsafe"

	"github.com/valyala/fastrand"
)

// Uint24ToBytes writes the low 24 bits of n into b in big-endian order.
func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2] // bound check hint
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

// BytesToUint24 reads a big-endian 24-bit integer from b.
func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

// Uint32ToBytes writes n into b in big-endian order.
func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

// BytesToUint32 reads a big-endian 32-bit integer from b.
func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// AppendUint32Bytes appends the big-endian encoding of n to dst.
func AppendUint32Bytes(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

// AppendUint24Bytes appends the big-endian encoding of the low 24 bits of n to dst.
func AppendUint24Bytes(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>16), byte(n>>8), byte(n))
}

// Resize grows b (reusing its backing array where possible) to exactly neededLen.
func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// CutPadding strips a leading pad-length byte and the trailing pad bytes
// from a padded frame payload. It returns ErrPadding if the declared pad
// length would consume more than the whole payload.
func CutPadding(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPadding
	}
	pad := int(payload[0])
	if pad >= len(payload) {
		return nil, ErrPadding
	}
	return payload[1 : len(payload)-pad], nil
}

// AddPadding prefixes b with a pad-length byte and suffixes it with a
// random amount of padding, returning the new padded slice. The pad length
// is chosen with a non-cryptographic fast RNG; the pad bytes themselves are
// zero on the wire per RFC 7540 §6.1.
func AddPadding(b []byte, maxPad int) []byte {
	if maxPad <= 0 {
		maxPad = 256
	}
	n := int(fastrand.Uint32n(uint32(maxPad)))
	nn := len(b)

	out := make([]byte, nn+n+1)
	out[0] = byte(n)
	copy(out[1:], b)
	return out
}

// ErrPadding is returned when a padded frame's declared pad length cannot
// fit inside the frame payload.
var ErrPadding = errPadding{}

type errPadding struct{}

func (errPadding) Error() string { return "pad length exceeds payload length" }

// FastBytesToString casts b to a string without copying. The caller must not
// mutate b afterwards.
func FastBytesToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}

// FastStringToBytes casts s to a byte slice without copying. The returned
// slice must not be mutated.
func FastStringToBytes(s string) []byte {
	sh := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{Data: sh.Data, Len: sh.Len, Cap: sh.Len}
	return *(*[]byte)(unsafe.Pointer(&bh))
}
