package engine

import (
	"sync"

	"github.com/h2kit/engine/wire"
)

// FrameHeaderSize is the fixed 9-octet size of a frame header, per
// RFC 7540 §4.1.
const FrameHeaderSize = 9

// defaultMaxFrameSize is SETTINGS_MAX_FRAME_SIZE's RFC 7540 §6.5.2 default.
const defaultMaxFrameSize = 1 << 14

var frameHeaderPool = sync.Pool{
	New: func() interface{} { return &FrameHeader{} },
}

// FrameHeader is the 9-octet envelope around a frame body. The engine is
// transport-agnostic: FrameHeader never touches an io.Reader or
// io.Writer, it only parses and produces byte slices handed to it by its
// caller.
//
// Use AcquireFrameHeader/ReleaseFrameHeader instead of allocating one
// directly; a FrameHeader must not be shared across goroutines.
type FrameHeader struct {
	length int
	kind   FrameType
	flags  Flags
	stream uint32

	maxLen uint32

	payload []byte
	body    Frame
}

// AcquireFrameHeader returns a FrameHeader from the pool.
func AcquireFrameHeader() *FrameHeader {
	fr := frameHeaderPool.Get().(*FrameHeader)
	fr.Reset()
	return fr
}

// ReleaseFrameHeader releases fr's body back to its pool and returns fr
// itself to the pool.
func ReleaseFrameHeader(fr *FrameHeader) {
	if fr.body != nil {
		ReleaseFrame(fr.body)
	}
	frameHeaderPool.Put(fr)
}

// Reset clears fr for reuse.
func (fr *FrameHeader) Reset() {
	fr.length = 0
	fr.kind = 0
	fr.flags = 0
	fr.stream = 0
	fr.maxLen = defaultMaxFrameSize
	fr.payload = fr.payload[:0]
	fr.body = nil
}

func (fr *FrameHeader) Type() FrameType  { return fr.kind }
func (fr *FrameHeader) Flags() Flags     { return fr.flags }
func (fr *FrameHeader) SetFlags(f Flags) { fr.flags = f }
func (fr *FrameHeader) Stream() uint32   { return fr.stream }
func (fr *FrameHeader) SetStream(id uint32) { fr.stream = id & (1<<31 - 1) }
func (fr *FrameHeader) Len() int         { return fr.length }
func (fr *FrameHeader) MaxLen() uint32   { return fr.maxLen }
func (fr *FrameHeader) SetMaxLen(n uint32) { fr.maxLen = n }

// Body returns the decoded frame payload.
func (fr *FrameHeader) Body() Frame { return fr.body }

// SetBody attaches a body and takes its Type() as fr's own.
func (fr *FrameHeader) SetBody(b Frame) {
	fr.kind = b.Type()
	fr.body = b
}

func (fr *FrameHeader) setPayload(b []byte) {
	fr.payload = append(fr.payload[:0], b...)
}

// ParseHeader reads the 9 leading bytes of raw as a frame header. It does
// not touch the payload; call ReadPayload after to consume the body.
func (fr *FrameHeader) ParseHeader(raw []byte) error {
	if len(raw) < FrameHeaderSize {
		return ErrShortBuffer
	}
	fr.length = int(wire.BytesToUint24(raw[:3]))
	fr.kind = FrameType(raw[3])
	fr.flags = Flags(raw[4])
	fr.stream = wire.BytesToUint32(raw[5:9]) & (1<<31 - 1)

	if fr.maxLen != 0 && fr.length > int(fr.maxLen) {
		return NewConnError(FrameSizeError, "frame payload exceeds negotiated maximum")
	}
	return nil
}

// ReadPayload consumes fr.length bytes from raw as the frame payload and
// decodes it into a pooled Frame body. It returns the bytes consumed.
func (fr *FrameHeader) ReadPayload(raw []byte) (int, error) {
	if len(raw) < fr.length {
		return 0, ErrShortBuffer
	}

	fr.payload = wire.Resize(fr.payload, fr.length)
	copy(fr.payload, raw[:fr.length])

	fr.body = AcquireFrame(fr.kind)
	if err := fr.body.Deserialize(fr); err != nil {
		return fr.length, err
	}
	return fr.length, nil
}

// AppendTo serializes fr's header and body and appends the result to dst.
func (fr *FrameHeader) AppendTo(dst []byte) []byte {
	fr.body.Serialize(fr)
	fr.length = len(fr.payload)

	var hdr [FrameHeaderSize]byte
	wire.Uint24ToBytes(hdr[:3], uint32(fr.length))
	hdr[3] = byte(fr.kind)
	hdr[4] = byte(fr.flags)
	wire.Uint32ToBytes(hdr[5:9], fr.stream)

	dst = append(dst, hdr[:]...)
	dst = append(dst, fr.payload...)
	return dst
}
