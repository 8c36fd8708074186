package engine

import "sync"

// Frame is implemented by every frame body type. A body knows nothing
// about sockets: Deserialize/Serialize only ever touch the FrameHeader's
// already-buffered payload.
type Frame interface {
	Type() FrameType
	Reset()
	Deserialize(fr *FrameHeader) error
	Serialize(fr *FrameHeader)
}

// FrameWithHeaderBlock is implemented by the frame types that carry a
// (possibly partial) HPACK header block fragment: HEADERS, PUSH_PROMISE,
// and CONTINUATION.
type FrameWithHeaderBlock interface {
	Frame
	HeaderBlock() []byte
}

var framePools = map[FrameType]*sync.Pool{
	FrameData:         {New: func() interface{} { return &DataFrame{} }},
	FrameHeaders:      {New: func() interface{} { return &HeadersFrame{} }},
	FramePriority:     {New: func() interface{} { return &PriorityFrame{} }},
	FrameResetStream:  {New: func() interface{} { return &RstStreamFrame{} }},
	FrameSettings:     {New: func() interface{} { return &SettingsFrame{} }},
	FramePushPromise:  {New: func() interface{} { return &PushPromiseFrame{} }},
	FramePing:         {New: func() interface{} { return &PingFrame{} }},
	FrameGoAway:       {New: func() interface{} { return &GoAwayFrame{} }},
	FrameWindowUpdate: {New: func() interface{} { return &WindowUpdateFrame{} }},
	FrameContinuation: {New: func() interface{} { return &ContinuationFrame{} }},
}

var unknownFramePool = sync.Pool{
	New: func() interface{} { return &UnknownFrame{} },
}

// AcquireFrame returns a pooled, reset Frame body for kind. Frame types
// the engine doesn't interpret (ALTSVC, ORIGIN, anything higher) come back
// as an *UnknownFrame that just retains the raw payload.
func AcquireFrame(kind FrameType) Frame {
	pool, ok := framePools[kind]
	if !ok {
		fr := unknownFramePool.Get().(*UnknownFrame)
		fr.Reset()
		fr.kind = kind
		return fr
	}
	fr := pool.Get().(Frame)
	fr.Reset()
	return fr
}

// ReleaseFrame returns fr to its type's pool.
func ReleaseFrame(fr Frame) {
	if fr == nil {
		return
	}
	if u, ok := fr.(*UnknownFrame); ok {
		unknownFramePool.Put(u)
		return
	}
	if pool, ok := framePools[fr.Type()]; ok {
		pool.Put(fr)
	}
}

// UnknownFrame preserves the raw payload of a frame type the engine
// doesn't assign semantics to, so a caller can still inspect or relay it.
type UnknownFrame struct {
	kind    FrameType
	payload []byte
}

func (u *UnknownFrame) Type() FrameType { return u.kind }

func (u *UnknownFrame) Reset() {
	u.kind = 0
	u.payload = u.payload[:0]
}

func (u *UnknownFrame) Payload() []byte { return u.payload }

func (u *UnknownFrame) Deserialize(fr *FrameHeader) error {
	u.kind = fr.Type()
	u.payload = append(u.payload[:0], fr.payload...)
	return nil
}

func (u *UnknownFrame) Serialize(fr *FrameHeader) {
	fr.setPayload(u.payload)
}
