package engine

import "github.com/h2kit/engine/wire"

var _ Frame = (*RstStreamFrame)(nil)

// RstStreamFrame immediately terminates a stream with an error code.
//
// https://tools.ietf.org/html/rfc7540#section-6.4
type RstStreamFrame struct {
	code ErrorCode
}

func (r *RstStreamFrame) Type() FrameType  { return FrameResetStream }
func (r *RstStreamFrame) Reset()           { r.code = 0 }
func (r *RstStreamFrame) Code() ErrorCode  { return r.code }
func (r *RstStreamFrame) SetCode(c ErrorCode) { r.code = c }

func (r *RstStreamFrame) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 4 {
		return ErrMissingBytes
	}
	r.code = ErrorCode(wire.BytesToUint32(fr.payload[:4]))
	return nil
}

func (r *RstStreamFrame) Serialize(fr *FrameHeader) {
	fr.payload = wire.AppendUint32Bytes(fr.payload[:0], uint32(r.code))
}
