package engine

import (
	"errors"
	"fmt"
)

// ErrShortBuffer is returned by FrameHeader.ParseHeader and ReadPayload when
// handed fewer bytes than a frame header or its declared payload requires.
// Connection.Receive never returns it: it buffers the partial frame and
// waits for the rest to arrive.
var ErrShortBuffer = errors.New("http2: short buffer")

// ErrMissingBytes is returned by a frame body's Deserialize when the
// payload is shorter than the fixed-size fields the frame type requires.
var ErrMissingBytes = errors.New("http2: frame payload too short")

// ErrorCode is one of the HTTP/2 error codes defined in RFC 7540 §7, used
// on RST_STREAM and GOAWAY frames and carried in the error types below.
type ErrorCode uint32

const (
	NoError              ErrorCode = 0x0
	ProtocolError        ErrorCode = 0x1
	InternalError        ErrorCode = 0x2
	FlowControlError     ErrorCode = 0x3
	SettingsTimeoutError ErrorCode = 0x4
	StreamClosedError    ErrorCode = 0x5
	FrameSizeError       ErrorCode = 0x6
	RefusedStreamError   ErrorCode = 0x7
	CancelError          ErrorCode = 0x8
	CompressionError     ErrorCode = 0x9
	ConnectError         ErrorCode = 0xa
	EnhanceYourCalmError ErrorCode = 0xb
	InadequateSecurity   ErrorCode = 0xc
	HTTP11Required       ErrorCode = 0xd
)

var errorCodeNames = [...]string{
	"NO_ERROR", "PROTOCOL_ERROR", "INTERNAL_ERROR", "FLOW_CONTROL_ERROR",
	"SETTINGS_TIMEOUT", "STREAM_CLOSED", "FRAME_SIZE_ERROR", "REFUSED_STREAM",
	"CANCEL", "COMPRESSION_ERROR", "CONNECT_ERROR", "ENHANCE_YOUR_CALM",
	"INADEQUATE_SECURITY", "HTTP_1_1_REQUIRED",
}

func (e ErrorCode) String() string {
	if int(e) < len(errorCodeNames) {
		return errorCodeNames[e]
	}
	return fmt.Sprintf("UNKNOWN_ERROR(0x%x)", uint32(e))
}

// ConnError reports a connection-fatal failure: the engine reacts to it by
// arranging a GOAWAY with the carried code and tearing the connection down.
// A HandshakeError is a ConnError raised when a server sees a bad client
// connection preface; the connection handles it like any other ConnError,
// GOAWAY included.
type ConnError struct {
	Code      ErrorCode
	Msg       string
	Handshake bool
}

func (e *ConnError) Error() string {
	if e.Handshake {
		return fmt.Sprintf("http2: handshake failed: %s (%s)", e.Msg, e.Code)
	}
	return fmt.Sprintf("http2: connection error: %s (%s)", e.Msg, e.Code)
}

// NewConnError builds a connection-fatal error.
func NewConnError(code ErrorCode, msg string) *ConnError {
	return &ConnError{Code: code, Msg: msg}
}

// NewHandshakeError builds a connection-fatal error raised before the
// handshake completes.
func NewHandshakeError(msg string) *ConnError {
	return &ConnError{Code: ProtocolError, Msg: msg, Handshake: true}
}

// StreamError reports a stream-fatal failure: the engine reacts to it by
// resetting the named stream with the carried code, leaving the connection
// itself unaffected.
type StreamError struct {
	StreamID uint32
	Code     ErrorCode
	Msg      string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("http2: stream %d error: %s (%s)", e.StreamID, e.Msg, e.Code)
}

// NewStreamError builds a stream-fatal error for stream id.
func NewStreamError(id uint32, code ErrorCode, msg string) *StreamError {
	return &StreamError{StreamID: id, Code: code, Msg: msg}
}

// StreamLimitExceeded is returned by Connection.OpenStream when the peer's
// SETTINGS_MAX_CONCURRENT_STREAMS bound has already been reached locally.
type StreamLimitExceeded struct {
	Limit uint32
}

func (e *StreamLimitExceeded) Error() string {
	return fmt.Sprintf("http2: concurrent stream limit of %d exceeded", e.Limit)
}

// ConnectionClosed is returned by operations attempted after the connection
// has already sent or received a GOAWAY and finished shutting down.
type ConnectionClosed struct{}

func (ConnectionClosed) Error() string { return "http2: connection closed" }

// StreamAlreadyClosed is returned by WriteHeaders/WriteData when called on
// a stream whose state is already StreamClosed. It is local misuse: the
// call fails synchronously and nothing reaches the wire.
type StreamAlreadyClosed struct {
	StreamID uint32
}

func (e StreamAlreadyClosed) Error() string {
	return fmt.Sprintf("http2: stream %d is closed", e.StreamID)
}
