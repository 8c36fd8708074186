package engine

import (
	"errors"

	"github.com/h2kit/engine/wire"
)

var _ Frame = (*WindowUpdateFrame)(nil)

// errZeroIncrement is translated by the connection dispatcher into a
// connection-fatal or stream-fatal ProtocolError depending on whether the
// frame targeted stream 0 or a specific stream.
var errZeroIncrement = errors.New("http2: window update increment must not be zero")

// WindowUpdateFrame increments a flow-control window, either the
// connection's (stream id 0) or a single stream's.
//
// https://tools.ietf.org/html/rfc7540#section-6.9
type WindowUpdateFrame struct {
	increment uint32
}

func (w *WindowUpdateFrame) Type() FrameType      { return FrameWindowUpdate }
func (w *WindowUpdateFrame) Reset()               { w.increment = 0 }
func (w *WindowUpdateFrame) Increment() uint32     { return w.increment }
func (w *WindowUpdateFrame) SetIncrement(n uint32) { w.increment = n & (1<<31 - 1) }

func (w *WindowUpdateFrame) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 4 {
		return ErrMissingBytes
	}
	w.increment = wire.BytesToUint32(fr.payload[:4]) & (1<<31 - 1)
	if w.increment == 0 {
		return errZeroIncrement
	}
	return nil
}

func (w *WindowUpdateFrame) Serialize(fr *FrameHeader) {
	fr.payload = wire.AppendUint32Bytes(fr.payload[:0], w.increment)
}
