package engine

import "github.com/h2kit/engine/hpack"

// Emitter is a minimal typed pub-sub primitive: the engine's single
// event-notification mechanism for everything a Connection or Stream
// wants to tell an embedder about, without depending on the embedder's
// dispatch model (no goroutines, no channels — emit runs handlers
// synchronously and in registration order, the caller's stack).
type Emitter[T any] struct {
	handlers []func(T)
}

// On registers handler to be called on every future emit.
func (e *Emitter[T]) On(handler func(T)) {
	e.handlers = append(e.handlers, handler)
}

// emit runs every registered handler with evt, in registration order.
func (e *Emitter[T]) emit(evt T) {
	for _, h := range e.handlers {
		h(evt)
	}
}

// FrameEvent is emitted for every frame the connection receives or sends.
// For a received frame it comes before any type-specific event; for a sent
// frame it comes once the frame is queued.
type FrameEvent struct {
	Header *FrameHeader
	Sent   bool
}

// StreamEvent is emitted whenever a stream changes state.
type StreamEvent struct {
	Stream *Stream
	State  StreamState
}

// HeadersEvent is emitted once a stream's header block has been fully
// reassembled and decoded.
type HeadersEvent struct {
	Stream *Stream
	Fields []*hpack.HeaderField
}

// DataEvent is emitted for each DATA frame delivered to a stream.
type DataEvent struct {
	Stream    *Stream
	Data      []byte
	EndStream bool
}

// GoAwayEvent is emitted when a GOAWAY frame is received.
type GoAwayEvent struct {
	LastStreamID uint32
	Code         ErrorCode
	DebugData    []byte
}

// PongEvent is emitted for every PING ack received, whether or not its
// payload matches a ping this side sent.
type PongEvent struct {
	Data [8]byte
}

// CloseEvent is emitted once when the connection finishes shutting down.
type CloseEvent struct {
	Err error
}

// PromiseEvent is emitted when a PUSH_PROMISE's header block has been
// fully reassembled.
type PromiseEvent struct {
	Stream         *Stream
	PromisedStream *Stream
	Fields         []*hpack.HeaderField
}
