package engine

import "github.com/h2kit/engine/wire"

var _ Frame = (*GoAwayFrame)(nil)

// GoAwayFrame announces that the sender will not open or process any
// stream above lastStreamID and why it's shutting down.
//
// https://tools.ietf.org/html/rfc7540#section-6.8
type GoAwayFrame struct {
	lastStreamID uint32
	code         ErrorCode
	debug        []byte
}

func (g *GoAwayFrame) Type() FrameType { return FrameGoAway }

func (g *GoAwayFrame) Reset() {
	g.lastStreamID = 0
	g.code = 0
	g.debug = g.debug[:0]
}

func (g *GoAwayFrame) LastStreamID() uint32      { return g.lastStreamID }
func (g *GoAwayFrame) SetLastStreamID(id uint32) { g.lastStreamID = id & (1<<31 - 1) }
func (g *GoAwayFrame) Code() ErrorCode           { return g.code }
func (g *GoAwayFrame) SetCode(c ErrorCode)       { g.code = c }
func (g *GoAwayFrame) DebugData() []byte         { return g.debug }
func (g *GoAwayFrame) SetDebugData(b []byte)     { g.debug = append(g.debug[:0], b...) }

func (g *GoAwayFrame) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 8 {
		return ErrMissingBytes
	}
	g.lastStreamID = wire.BytesToUint32(fr.payload[:4]) & (1<<31 - 1)
	g.code = ErrorCode(wire.BytesToUint32(fr.payload[4:8]))
	g.debug = append(g.debug[:0], fr.payload[8:]...)
	return nil
}

func (g *GoAwayFrame) Serialize(fr *FrameHeader) {
	payload := wire.AppendUint32Bytes(fr.payload[:0], g.lastStreamID)
	payload = wire.AppendUint32Bytes(payload, uint32(g.code))
	payload = append(payload, g.debug...)
	fr.setPayload(payload)
}
