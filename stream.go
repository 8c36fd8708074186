package engine

import "github.com/h2kit/engine/hpack"

// StreamState is one of the seven states in RFC 7540 §5.1's stream
// lifecycle.
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

var streamStateNames = [...]string{
	"idle", "reserved(local)", "reserved(remote)", "open",
	"half-closed(local)", "half-closed(remote)", "closed",
}

func (s StreamState) String() string {
	if int(s) < len(streamStateNames) {
		return streamStateNames[s]
	}
	return "unknown"
}

// Stream is one HTTP/2 stream: its identifier, lifecycle state, flow
// control windows, queued DATA, and header-validation bookkeeping (header
// blocks are reassembled on the Connection, not here). A Stream is owned
// by exactly one Connection and is never touched from more than one
// goroutine at a time.
type Stream struct {
	id    uint32
	state StreamState

	// sendWindow is this stream's send-direction flow-control window: how many
	// octets of DATA the connection may still send on it.
	sendWindow int
	// recvWindow is how many octets of DATA the peer may still send before
	// this side issues a WINDOW_UPDATE.
	recvWindow int

	weight    uint8
	parentID  uint32
	exclusive bool

	closedLocal  bool
	closedRemote bool

	// sendQueue holds DATA bytes WriteData couldn't fit into the window at
	// the time of the call, replayed as WINDOW_UPDATE frames arrive.
	sendQueue flowBuffer

	// headersReceived is set once this stream's first complete header block
	// (the request or response headers) has been processed; any later
	// header block is trailers.
	headersReceived bool
	// trailerNames, once set, is the set of header names a trailer block
	// following this stream's headers is allowed to carry, taken from a
	// "trailer" header in that first block.
	trailerNames map[string]struct{}

	hasContentLength bool
	contentLength    int64
	dataReceived     int64

	// data is a free slot for an embedder to stash its own per-stream
	// context (a request object, a buffer, anything), mirroring the way
	// the reference stream type carried an opaque payload alongside the
	// protocol bookkeeping.
	data interface{}
}

// NewStream creates an idle stream with id whose send and receive windows
// both start at initialWindow. A Connection then sets the send window from
// the peer's settings_initial_window_size and the receive window from its
// own.
func NewStream(id uint32, initialWindow int) *Stream {
	return &Stream{
		id:         id,
		state:      StreamIdle,
		sendWindow: initialWindow,
		recvWindow: initialWindow,
		weight:     16,
	}
}

func (s *Stream) ID() uint32          { return s.id }
func (s *Stream) State() StreamState  { return s.state }
func (s *Stream) Data() interface{}   { return s.data }
func (s *Stream) SetData(v interface{}) { s.data = v }

// SendWindow returns the number of octets of DATA this side may still
// send on the stream.
func (s *Stream) SendWindow() int { return s.sendWindow }

// RecvWindow returns the number of octets of DATA the peer may still send
// before a WINDOW_UPDATE must be issued.
func (s *Stream) RecvWindow() int { return s.recvWindow }

func (s *Stream) Weight() uint8    { return s.weight }
func (s *Stream) ParentID() uint32 { return s.parentID }
func (s *Stream) Exclusive() bool  { return s.exclusive }

// SetPriority records the stream's dependency tree placement without
// implementing a scheduler: the engine tracks the declared tree shape so
// an embedder can read it, but does not use it to order its own writes.
func (s *Stream) SetPriority(parentID uint32, weight uint8, exclusive bool) {
	s.parentID = parentID
	s.weight = weight
	s.exclusive = exclusive
}

// transition validates and applies a state change, returning a
// StreamError if the edge isn't legal from the current state.
func (s *Stream) transition(to StreamState) error {
	if !streamTransitionAllowed(s.state, to) {
		return NewStreamError(s.id, ProtocolError, s.state.String()+" -> "+to.String()+" is not a valid transition")
	}
	s.state = to
	return nil
}

func streamTransitionAllowed(from, to StreamState) bool {
	if from == to {
		return true
	}
	switch from {
	case StreamIdle:
		switch to {
		case StreamOpen, StreamReservedLocal, StreamReservedRemote:
			return true
		}
	case StreamReservedLocal:
		switch to {
		case StreamHalfClosedRemote, StreamClosed:
			return true
		}
	case StreamReservedRemote:
		switch to {
		case StreamHalfClosedLocal, StreamClosed:
			return true
		}
	case StreamOpen:
		switch to {
		case StreamHalfClosedLocal, StreamHalfClosedRemote, StreamClosed:
			return true
		}
	case StreamHalfClosedLocal:
		return to == StreamClosed
	case StreamHalfClosedRemote:
		return to == StreamClosed
	}
	return false
}

// closeLocal marks this side as done sending on the stream, advancing
// open -> half-closed(local) or half-closed(remote)/reserved(remote) -> closed.
func (s *Stream) closeLocal() error {
	s.closedLocal = true
	switch s.state {
	case StreamOpen:
		return s.transition(StreamHalfClosedLocal)
	case StreamHalfClosedRemote, StreamReservedRemote:
		return s.transition(StreamClosed)
	}
	return nil
}

// closeRemote marks the peer as done sending, the mirror of closeLocal.
func (s *Stream) closeRemote() error {
	s.closedRemote = true
	switch s.state {
	case StreamOpen:
		return s.transition(StreamHalfClosedRemote)
	case StreamHalfClosedLocal, StreamReservedLocal:
		return s.transition(StreamClosed)
	}
	return nil
}

// IsPseudoHeaderOrder reports whether fields place all pseudo-headers
// (names starting with ':') before any regular header, which RFC 7540
// §8.1.2.1 requires within a single header block.
func IsPseudoHeaderOrder(fields []*hpack.HeaderField) bool {
	seenRegular := false
	for _, f := range fields {
		if f.IsPseudo() {
			if seenRegular {
				return false
			}
			continue
		}
		seenRegular = true
	}
	return true
}
