package engine

import (
	"strconv"
	"strings"

	"github.com/h2kit/engine/hpack"
	"github.com/h2kit/engine/wire"
)

// Role distinguishes which end of the connection this Connection plays;
// it governs stream id parity and who sends the preface.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

type connState uint8

const (
	stateOpen connState = iota
	stateGoAwayReceived
	stateClosed
)

// headerAssembly tracks a HEADERS/PUSH_PROMISE block being reassembled
// across CONTINUATION frames. Only one can be in flight at a time per
// RFC 7540 §6.10: frames for other streams are a connection error while
// it's open.
type headerAssembly struct {
	active       bool
	streamID     uint32
	promised     uint32 // non-zero if this block belongs to a PUSH_PROMISE
	isPush       bool
	endStream    bool
	block        []byte
}

// Connection is the transport-agnostic HTTP/2 connection state machine:
// frame codec, HPACK contexts, settings, stream table, and flow control
// for one connection, driven entirely by Receive and the Write* methods.
// It never touches a socket, a goroutine, or a lock; callers own the I/O
// and must not call a Connection from more than one goroutine at once.
type Connection struct {
	role  Role
	state connState

	Local  Settings
	Remote Settings
	pendingLocalSettings pendingSettings

	hpackEnc *hpack.Encoder
	hpackDec *hpack.Decoder

	streams      Streams
	nextStreamID uint32
	maxPeerID    uint32 // highest stream id opened by the peer, for GOAWAY

	connSendWindow int
	connRecvWindow int

	assembly headerAssembly

	in  []byte // bytes carried over between Receive calls (short reads)
	out []byte // bytes queued to be written out by the caller

	// H2CUpgrade marks a connection that reached HTTP/2 via the HTTP/1.1
	// Upgrade mechanism (RFC 7540 §3.2) rather than TLS ALPN or prior
	// knowledge. The 24-octet connection preface string is skipped in that
	// case: the Upgrade exchange already confirmed the protocol, and the
	// client's first frame is a SETTINGS frame instead. Set this before the
	// first call to Receive or Outbound; it has no effect afterwards.
	H2CUpgrade bool

	primed bool // whether the initial preface/SETTINGS have been queued yet

	prefaceRemaining string // server: remaining bytes of the client preface still expected

	onFrame   Emitter[FrameEvent]
	onStream  Emitter[StreamEvent]
	onHeaders Emitter[HeadersEvent]
	onData    Emitter[DataEvent]
	onGoAway  Emitter[GoAwayEvent]
	onPong    Emitter[PongEvent]
	onClose   Emitter[CloseEvent]
	onPromise Emitter[PromiseEvent]

	lastPingData   [8]byte
	pingInFlight   bool
	goAwayReceived bool
}

// NewConnection creates a Connection for role. It queues no bytes itself:
// the handshake bytes the role sends first (the preface and SETTINGS for a
// client, SETTINGS for a server) are queued by prime on the first Receive
// or Outbound call.
func NewConnection(role Role) *Connection {
	c := &Connection{
		role:   role,
		Local:  DefaultSettings(),
		Remote: DefaultSettings(),
	}

	c.hpackEnc = hpack.NewEncoder(int(c.Local.HeaderTableSize))
	c.hpackDec = hpack.NewDecoder(int(c.Local.HeaderTableSize))

	// The connection-level flow control window is independent of
	// SETTINGS_INITIAL_WINDOW_SIZE (RFC 7540 §6.9.2): it starts at the fixed
	// default and changes only via WINDOW_UPDATE, never via SETTINGS.
	c.connSendWindow = defaultInitialWindowSize
	c.connRecvWindow = defaultInitialWindowSize

	if role == RoleClient {
		c.nextStreamID = 1
	} else {
		c.nextStreamID = 2
	}

	return c
}

// prime queues whichever handshake bytes this role sends first, honoring
// H2CUpgrade. It runs once, on the first Receive or Outbound call, so a
// caller has a chance to set H2CUpgrade right after NewConnection.
func (c *Connection) prime() {
	if c.primed {
		return
	}
	c.primed = true

	if c.role == RoleClient {
		if !c.H2CUpgrade {
			c.out = append(c.out, ConnectionPreface...)
		}
		c.queueSettings(c.Local)
		return
	}

	if !c.H2CUpgrade {
		c.prefaceRemaining = ConnectionPreface
	}
	c.queueSettings(c.Local)
}

func (c *Connection) queueSettings(s Settings) {
	sf := &SettingsFrame{}
	sf.Add(SettingHeaderTableSize, s.HeaderTableSize)
	if !s.EnablePush {
		sf.Add(SettingEnablePush, 0)
	}
	sf.Add(SettingMaxConcurrentStreams, s.MaxConcurrentStreams)
	sf.Add(SettingInitialWindowSize, s.InitialWindowSize)
	sf.Add(SettingMaxFrameSize, s.MaxFrameSize)
	if s.MaxHeaderListSize != 0 {
		sf.Add(SettingMaxHeaderListSize, s.MaxHeaderListSize)
	}

	c.pendingLocalSettings.push(sf.Pairs())
	c.writeFrame(0, sf)
}

// Outbound drains and returns the bytes queued to be written to the
// peer, resetting the internal buffer. Call it after Receive and after
// any Write* call.
func (c *Connection) Outbound() []byte {
	c.prime()
	b := c.out
	c.out = nil
	return b
}

func (c *Connection) writeFrame(streamID uint32, body Frame) {
	fr := AcquireFrameHeader()
	fr.SetStream(streamID)
	fr.SetBody(body)
	c.out = fr.AppendTo(c.out)
	c.onFrame.emit(FrameEvent{Header: fr, Sent: true})
	ReleaseFrameHeader(fr)
}

// OnFrame registers a handler invoked for every frame sent or received.
func (c *Connection) OnFrame(h func(FrameEvent)) { c.onFrame.On(h) }

// OnStream registers a handler invoked whenever a stream changes state.
func (c *Connection) OnStream(h func(StreamEvent)) { c.onStream.On(h) }

// OnHeaders registers a handler invoked once a stream's header block is
// fully reassembled and decoded.
func (c *Connection) OnHeaders(h func(HeadersEvent)) { c.onHeaders.On(h) }

// OnData registers a handler invoked for each DATA frame delivered.
func (c *Connection) OnData(h func(DataEvent)) { c.onData.On(h) }

// OnGoAway registers a handler invoked when a GOAWAY is received.
func (c *Connection) OnGoAway(h func(GoAwayEvent)) { c.onGoAway.On(h) }

// OnPong registers a handler invoked when a PING ack is received.
func (c *Connection) OnPong(h func(PongEvent)) { c.onPong.On(h) }

// OnClose registers a handler invoked once when the connection finishes
// shutting down, successfully or not.
func (c *Connection) OnClose(h func(CloseEvent)) { c.onClose.On(h) }

// OnPromise registers a handler invoked once a PUSH_PROMISE's header
// block is fully reassembled.
func (c *Connection) OnPromise(h func(PromiseEvent)) { c.onPromise.On(h) }

// Receive feeds newly-arrived bytes into the connection. It parses as
// many complete frames as data contains, dispatching events and queuing
// any reactive output (SETTINGS acks, WINDOW_UPDATEs, RST_STREAMs) for
// the next Outbound call. A short read (an incomplete frame) is buffered
// internally and completed by a future Receive call; it is not an error.
func (c *Connection) Receive(data []byte) error {
	c.prime()

	if c.state == stateClosed {
		return ConnectionClosed{}
	}

	c.in = append(c.in, data...)

	for {
		if c.role == RoleServer && c.prefaceRemaining != "" {
			n := len(c.prefaceRemaining)
			if len(c.in) < n {
				if !hasPrefix(c.prefaceRemaining, c.in) {
					return c.fail(NewHandshakeError("bad connection preface"))
				}
				return nil
			}
			if !hasPrefix(c.prefaceRemaining, c.in[:n]) {
				return c.fail(NewHandshakeError("bad connection preface"))
			}
			c.in = c.in[n:]
			c.prefaceRemaining = ""
			continue
		}

		if len(c.in) < FrameHeaderSize {
			return nil
		}

		fr := AcquireFrameHeader()
		fr.SetMaxLen(c.Local.MaxFrameSize)
		if err := fr.ParseHeader(c.in); err != nil {
			ReleaseFrameHeader(fr)
			if cerr, ok := err.(*ConnError); ok {
				return c.fail(cerr)
			}
			return err
		}

		total := FrameHeaderSize + fr.Len()
		if len(c.in) < total {
			ReleaseFrameHeader(fr)
			return nil
		}

		if _, err := fr.ReadPayload(c.in[FrameHeaderSize:total]); err != nil {
			streamID := fr.Stream()
			ReleaseFrameHeader(fr)
			c.in = c.in[total:]
			if err := c.handleFrameError(streamID, err); err != nil {
				return err
			}
			continue
		}

		c.in = c.in[total:]

		c.onFrame.emit(FrameEvent{Header: fr, Sent: false})
		err := c.dispatch(fr)
		streamID := fr.Stream()
		ReleaseFrameHeader(fr)
		if err != nil {
			if err := c.handleFrameError(streamID, err); err != nil {
				return err
			}
		}
	}
}

func hasPrefix(want string, got []byte) bool {
	if len(got) > len(want) {
		return false
	}
	return want[:len(got)] == wire.FastBytesToString(got)
}

func (c *Connection) handleFrameError(streamID uint32, err error) error {
	switch e := err.(type) {
	case *ConnError:
		return c.fail(e)
	case *StreamError:
		c.resetStream(e.StreamID, e.Code)
		return nil
	default:
		if err == errZeroIncrement {
			if streamID == 0 {
				return c.fail(NewConnError(ProtocolError, "connection window update increment is zero"))
			}
			c.resetStream(streamID, ProtocolError)
			return nil
		}
		if err == wire.ErrPadding {
			return c.fail(NewConnError(ProtocolError, "pad length exceeds payload length"))
		}
		return c.fail(NewConnError(InternalError, err.Error()))
	}
}

func (c *Connection) fail(err *ConnError) error {
	if c.state != stateClosed {
		c.writeGoAway(err.Code, []byte(err.Msg))
		c.state = stateClosed
		c.onClose.emit(CloseEvent{Err: err})
	}
	return err
}

func (c *Connection) writeGoAway(code ErrorCode, debug []byte) {
	ga := &GoAwayFrame{}
	ga.SetLastStreamID(c.maxPeerID)
	ga.SetCode(code)
	ga.SetDebugData(debug)
	c.writeFrame(0, ga)
}

func (c *Connection) resetStream(id uint32, code ErrorCode) {
	rst := &RstStreamFrame{}
	rst.SetCode(code)
	c.writeFrame(id, rst)
	if st := c.streams.Remove(id); st != nil {
		st.state = StreamClosed
		c.onStream.emit(StreamEvent{Stream: st, State: StreamClosed})
	}
}

func (c *Connection) dispatch(fr *FrameHeader) error {
	if c.assembly.active && fr.Type() != FrameContinuation {
		return NewConnError(ProtocolError, "frame interleaved with an in-progress header block")
	}

	switch fr.Type() {
	case FrameSettings:
		return c.handleSettings(fr.Body().(*SettingsFrame))
	case FramePing:
		return c.handlePing(fr.Body().(*PingFrame))
	case FrameGoAway:
		return c.handleGoAway(fr.Body().(*GoAwayFrame))
	case FrameWindowUpdate:
		return c.handleWindowUpdate(fr.Stream(), fr.Body().(*WindowUpdateFrame))
	case FrameHeaders:
		return c.handleHeaders(fr.Stream(), fr.Body().(*HeadersFrame))
	case FrameContinuation:
		return c.handleContinuation(fr.Stream(), fr.Body().(*ContinuationFrame))
	case FramePushPromise:
		return c.handlePushPromise(fr.Stream(), fr.Body().(*PushPromiseFrame))
	case FrameData:
		return c.handleData(fr.Stream(), fr.Body().(*DataFrame))
	case FramePriority:
		return c.handlePriority(fr.Stream(), fr.Body().(*PriorityFrame))
	case FrameResetStream:
		return c.handleRstStream(fr.Stream(), fr.Body().(*RstStreamFrame))
	default:
		return nil // ALTSVC, ORIGIN, and anything unrecognized is ignored
	}
}

func (c *Connection) handleSettings(sf *SettingsFrame) error {
	if sf.Ack() {
		// Local already reflects the desired state from the moment the
		// SETTINGS frame was queued; popAck just confirms the peer caught up
		// and detects an ACK with nothing outstanding.
		if _, ok := c.pendingLocalSettings.popAck(); !ok {
			return NewConnError(ProtocolError, "unexpected SETTINGS ack")
		}
		return nil
	}

	oldWindow := c.Remote.InitialWindowSize
	for _, p := range sf.Pairs() {
		if err := c.Remote.Apply(p); err != nil {
			return err
		}
	}
	if c.Remote.InitialWindowSize != oldWindow {
		delta := initialWindowDelta(oldWindow, c.Remote.InitialWindowSize)
		var overflow error
		c.streams.Each(func(st *Stream) {
			if overflow != nil {
				return
			}
			w, err := applyWindowDelta(st.sendWindow, delta)
			if err != nil {
				overflow = err
				return
			}
			st.sendWindow = w
		})
		if overflow != nil {
			return overflow
		}
	}

	c.hpackEnc.SetMaxTableSize(int(c.Remote.HeaderTableSize))

	ack := &SettingsFrame{}
	ack.SetAck(true)
	c.writeFrame(0, ack)
	return nil
}

func (c *Connection) handlePing(p *PingFrame) error {
	if p.Ack() {
		data := [8]byte(p.Data())
		if c.pingInFlight && data == c.lastPingData {
			c.pingInFlight = false
		}
		c.onPong.emit(PongEvent{Data: data})
		return nil
	}
	reply := &PingFrame{}
	reply.SetAck(true)
	reply.SetData(p.Data())
	c.writeFrame(0, reply)
	return nil
}

func (c *Connection) handleGoAway(ga *GoAwayFrame) error {
	if c.goAwayReceived {
		return NewConnError(ProtocolError, "second GOAWAY received")
	}
	c.goAwayReceived = true
	if c.state == stateOpen {
		c.state = stateGoAwayReceived
	}
	c.onGoAway.emit(GoAwayEvent{LastStreamID: ga.LastStreamID(), Code: ga.Code(), DebugData: ga.DebugData()})
	return nil
}

func (c *Connection) handleWindowUpdate(streamID uint32, wu *WindowUpdateFrame) error {
	if streamID == 0 {
		w, err := applyWindowDelta(c.connSendWindow, int(wu.Increment()))
		if err != nil {
			return err
		}
		c.connSendWindow = w
		c.flushAllQueues()
		return nil
	}

	st := c.streams.Get(streamID)
	if st == nil {
		if c.streams.WasRecentlyClosed(streamID) {
			return nil
		}
		return NewStreamError(streamID, ProtocolError, "window update for unknown stream")
	}
	w, err := applyWindowDelta(st.sendWindow, int(wu.Increment()))
	if err != nil {
		return &StreamError{StreamID: streamID, Code: err.(*ConnError).Code, Msg: err.Error()}
	}
	st.sendWindow = w
	c.flushStreamQueue(st)
	return nil
}

// flushStreamQueue replays st's queued DATA as far as both the stream's
// and the connection's send windows allow.
func (c *Connection) flushStreamQueue(st *Stream) {
	st.sendQueue.drain(func(data []byte, endStream bool) (int, bool) {
		if c.connSendWindow <= 0 || st.sendWindow <= 0 {
			return 0, true
		}
		n := len(data)
		if n > c.connSendWindow {
			n = c.connSendWindow
		}
		if n > st.sendWindow {
			n = st.sendWindow
		}
		c.connSendWindow -= n
		st.sendWindow -= n

		df := &DataFrame{}
		df.SetData(data[:n])
		final := endStream && n == len(data)
		df.SetEndStream(final)
		c.writeFrame(st.id, df)

		if final {
			if err := st.closeLocal(); err == nil {
				c.onStream.emit(StreamEvent{Stream: st, State: st.state})
			}
		}
		return n, c.connSendWindow == 0 || st.sendWindow == 0
	})
}

// flushAllQueues replays every stream's queued DATA, called when the
// connection-level window grows.
func (c *Connection) flushAllQueues() {
	c.streams.Each(func(st *Stream) {
		if c.connSendWindow <= 0 {
			return
		}
		c.flushStreamQueue(st)
	})
}

func (c *Connection) handlePriority(streamID uint32, p *PriorityFrame) error {
	if p.Weight() == 0 {
		return NewConnError(ProtocolError, "PRIORITY weight must not be zero")
	}
	if st := c.streams.Get(streamID); st != nil {
		st.SetPriority(p.StreamDependency(), p.Weight(), p.Exclusive())
	}
	return nil
}

func (c *Connection) handleRstStream(streamID uint32, rst *RstStreamFrame) error {
	st := c.streams.Remove(streamID)
	if st == nil {
		if c.streams.WasRecentlyClosed(streamID) {
			return nil
		}
		return NewConnError(ProtocolError, "RST_STREAM for unknown stream")
	}
	st.state = StreamClosed
	c.onStream.emit(StreamEvent{Stream: st, State: StreamClosed})
	return nil
}

func (c *Connection) handleHeaders(streamID uint32, h *HeadersFrame) error {
	st := c.streams.Get(streamID)
	if st == nil {
		if streamID <= c.maxPeerID || streamID%2 == c.localParity() {
			return NewConnError(ProtocolError, "HEADERS for invalid stream id")
		}
		st = NewStream(streamID, int(c.Local.InitialWindowSize))
		st.sendWindow = int(c.Remote.InitialWindowSize)
		c.maxPeerID = streamID
		c.streams.Insert(st)
		if err := st.transition(StreamOpen); err != nil {
			return err
		}
		c.onStream.emit(StreamEvent{Stream: st, State: StreamOpen})
	}

	if h.HasPriority() {
		st.SetPriority(h.StreamDependency(), h.Weight(), h.Exclusive())
	}

	c.assembly = headerAssembly{
		active:    true,
		streamID:  streamID,
		endStream: h.EndStream(),
	}
	c.assembly.block = append(c.assembly.block[:0], h.HeaderBlock()...)

	if h.EndHeaders() {
		return c.finishHeaderBlock()
	}
	return nil
}

func (c *Connection) handleContinuation(streamID uint32, cf *ContinuationFrame) error {
	if !c.assembly.active || c.assembly.streamID != streamID {
		return NewConnError(ProtocolError, "CONTINUATION without a matching header block in progress")
	}
	c.assembly.block = append(c.assembly.block, cf.HeaderBlock()...)
	if cf.EndHeaders() {
		return c.finishHeaderBlock()
	}
	return nil
}

func (c *Connection) handlePushPromise(streamID uint32, pp *PushPromiseFrame) error {
	if !c.Local.EnablePush {
		return NewConnError(ProtocolError, "PUSH_PROMISE received with push disabled")
	}

	promised := NewStream(pp.PromisedStreamID(), int(c.Local.InitialWindowSize))
	promised.sendWindow = int(c.Remote.InitialWindowSize)
	c.streams.Insert(promised)
	if err := promised.transition(StreamReservedRemote); err != nil {
		return err
	}
	c.onStream.emit(StreamEvent{Stream: promised, State: StreamReservedRemote})

	c.assembly = headerAssembly{
		active:   true,
		streamID: streamID,
		promised: pp.PromisedStreamID(),
		isPush:   true,
	}
	c.assembly.block = append(c.assembly.block[:0], pp.HeaderBlock()...)

	if pp.EndHeaders() {
		return c.finishHeaderBlock()
	}
	return nil
}

func (c *Connection) finishHeaderBlock() error {
	a := c.assembly
	c.assembly = headerAssembly{}

	var fields []*hpack.HeaderField
	err := c.hpackDec.DecodeBlock(a.block, func(hf *hpack.HeaderField) error {
		cp := hpack.AcquireHeaderField()
		cp.Set(hf.Name(), hf.Value())
		cp.SetSensitive(hf.IsSensitive())
		fields = append(fields, cp)
		return nil
	})
	if err != nil {
		return NewConnError(CompressionError, err.Error())
	}

	if a.isPush {
		promisedStream := c.streams.Get(a.promised)
		originStream := c.streams.Get(a.streamID)
		if promisedStream != nil {
			if err := c.validateHeaderFields(promisedStream, fields, pseudoRequest, false); err != nil {
				return err
			}
		}
		c.onPromise.emit(PromiseEvent{Stream: originStream, PromisedStream: promisedStream, Fields: fields})
		return nil
	}

	st := c.streams.Get(a.streamID)
	if st == nil {
		return nil // stream was reset while its header block was in flight
	}

	kind := pseudoResponse
	if c.role == RoleServer {
		kind = pseudoRequest
	}
	if err := c.validateHeaderFields(st, fields, kind, st.headersReceived); err != nil {
		return err
	}
	st.headersReceived = true

	c.onHeaders.emit(HeadersEvent{Stream: st, Fields: fields})

	if a.endStream {
		if err := c.checkContentLength(st); err != nil {
			return err
		}
		if err := st.closeRemote(); err != nil {
			return err
		}
		c.onStream.emit(StreamEvent{Stream: st, State: st.state})
		if st.state == StreamClosed {
			c.streams.Remove(st.id)
		}
	}
	return nil
}

// pseudoHeaderKind distinguishes which required pseudo-header set a
// complete, non-trailer header block must satisfy.
type pseudoHeaderKind int

const (
	pseudoRequest pseudoHeaderKind = iota
	pseudoResponse
)

// validateHeaderFields enforces RFC 7540 §8.1.2's pseudo-header rules
// against a fully reassembled header block: pseudo-headers must precede
// regular ones, request/response streams must carry exactly their required
// pseudo-header set, header names must be lowercase, and a trailer block
// may carry only names declared by a prior "trailer" header and no
// pseudo-headers at all. A violation resets only st, leaving the
// connection otherwise unaffected.
func (c *Connection) validateHeaderFields(st *Stream, fields []*hpack.HeaderField, kind pseudoHeaderKind, trailers bool) error {
	for _, f := range fields {
		if hasUpperByte(f.Name()) {
			return NewStreamError(st.id, ProtocolError, "uppercase header name: "+f.Name())
		}
	}

	if !IsPseudoHeaderOrder(fields) {
		return NewStreamError(st.id, ProtocolError, "pseudo-headers must precede regular headers")
	}

	if trailers {
		for _, f := range fields {
			if f.IsPseudo() {
				return NewStreamError(st.id, ProtocolError, "trailers must not carry pseudo-headers")
			}
			if _, ok := st.trailerNames[f.Name()]; !ok {
				return NewStreamError(st.id, ProtocolError, "trailer name not declared by a prior trailer header: "+f.Name())
			}
		}
		return nil
	}

	seen := map[string]string{}
	for _, f := range fields {
		if f.IsPseudo() {
			seen[f.Name()] = f.Value()
		}
	}

	switch kind {
	case pseudoRequest:
		method := seen[":method"]
		if method == "" {
			return NewStreamError(st.id, ProtocolError, "request missing :method")
		}
		if method != "CONNECT" && seen[":path"] == "" {
			return NewStreamError(st.id, ProtocolError, "request missing non-empty :path")
		}
		for _, name := range [...]string{":scheme", ":method", ":path", ":authority"} {
			if name == ":authority" && (method == "GET" || method == "HEAD") {
				continue
			}
			if name == ":path" && method == "CONNECT" {
				continue
			}
			if _, ok := seen[name]; !ok {
				return NewStreamError(st.id, ProtocolError, "request missing pseudo-header "+name)
			}
		}
		for name := range seen {
			switch name {
			case ":scheme", ":method", ":path", ":authority":
			default:
				return NewStreamError(st.id, ProtocolError, "unexpected pseudo-header on request: "+name)
			}
		}
	case pseudoResponse:
		if _, ok := seen[":status"]; !ok {
			return NewStreamError(st.id, ProtocolError, "response missing :status")
		}
		if len(seen) != 1 {
			return NewStreamError(st.id, ProtocolError, "unexpected pseudo-header on response")
		}
	}

	if cl := findHeader(fields, "content-length"); cl != "" {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil {
			return NewStreamError(st.id, ProtocolError, "malformed content-length")
		}
		st.hasContentLength = true
		st.contentLength = n
	}

	if trailer := findHeader(fields, "trailer"); trailer != "" {
		st.trailerNames = parseTrailerNames(trailer)
	}

	return nil
}

// checkContentLength compares a stream's declared content-length, if any,
// against the DATA bytes actually delivered once end_stream is reached.
func (c *Connection) checkContentLength(st *Stream) error {
	if st.hasContentLength && st.dataReceived != st.contentLength {
		return NewStreamError(st.id, ProtocolError, "content-length does not match received DATA")
	}
	return nil
}

func hasUpperByte(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			return true
		}
	}
	return false
}

func findHeader(fields []*hpack.HeaderField, name string) string {
	for _, f := range fields {
		if !f.IsPseudo() && f.Name() == name {
			return f.Value()
		}
	}
	return ""
}

func parseTrailerNames(v string) map[string]struct{} {
	names := map[string]struct{}{}
	for _, part := range strings.Split(v, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names[name] = struct{}{}
		}
	}
	return names
}

func (c *Connection) handleData(streamID uint32, d *DataFrame) error {
	st := c.streams.Get(streamID)
	if st == nil {
		if c.streams.WasRecentlyClosed(streamID) {
			return nil
		}
		return NewConnError(ProtocolError, "DATA for unknown stream")
	}

	n := len(d.Data())
	if n > c.connRecvWindow || n > st.recvWindow {
		return NewConnError(FlowControlError, "DATA exceeds advertised window")
	}
	c.connRecvWindow -= n
	st.recvWindow -= n
	st.dataReceived += int64(n)

	c.onData.emit(DataEvent{Stream: st, Data: d.Data(), EndStream: d.EndStream()})

	if d.EndStream() {
		if err := c.checkContentLength(st); err != nil {
			return err
		}
		if err := st.closeRemote(); err != nil {
			return err
		}
		c.onStream.emit(StreamEvent{Stream: st, State: st.state})
		if st.state == StreamClosed {
			c.streams.Remove(st.id)
		}
	}

	c.replenishWindows(st, n)
	return nil
}

// replenishWindows issues WINDOW_UPDATE frames once consumed bytes pass
// half of the advertised window, the common heuristic for keeping the
// update frequency low without starving the sender. The connection-level
// window is topped back up to its fixed default; a stream's window is
// topped up to the locally advertised SETTINGS_INITIAL_WINDOW_SIZE.
func (c *Connection) replenishWindows(st *Stream, consumed int) {
	connThreshold := defaultInitialWindowSize / 2
	if defaultInitialWindowSize-c.connRecvWindow >= connThreshold {
		inc := defaultInitialWindowSize - c.connRecvWindow
		c.connRecvWindow += inc
		wu := &WindowUpdateFrame{}
		wu.SetIncrement(uint32(inc))
		c.writeFrame(0, wu)
	}

	streamThreshold := int(c.Local.InitialWindowSize) / 2
	if st != nil && int(c.Local.InitialWindowSize)-st.recvWindow >= streamThreshold {
		inc := int(c.Local.InitialWindowSize) - st.recvWindow
		st.recvWindow += inc
		wu := &WindowUpdateFrame{}
		wu.SetIncrement(uint32(inc))
		c.writeFrame(st.id, wu)
	}
}

func (c *Connection) localParity() uint32 {
	if c.role == RoleClient {
		return 1
	}
	return 0
}

// OpenStream allocates and registers a new locally-initiated stream,
// enforcing the peer's SETTINGS_MAX_CONCURRENT_STREAMS bound.
func (c *Connection) OpenStream() (*Stream, error) {
	if c.state != stateOpen {
		return nil, ConnectionClosed{}
	}

	var active uint32
	c.streams.Each(func(st *Stream) {
		if st.state == StreamOpen || st.state == StreamHalfClosedRemote {
			active++
		}
	})
	if active >= c.Remote.MaxConcurrentStreams {
		return nil, &StreamLimitExceeded{Limit: c.Remote.MaxConcurrentStreams}
	}

	id := c.nextStreamID
	c.nextStreamID += 2

	st := NewStream(id, int(c.Remote.InitialWindowSize))
	st.recvWindow = int(c.Local.InitialWindowSize)
	c.streams.Insert(st)
	return st, nil
}

// WriteHeaders encodes fields with the connection's HPACK encoder and
// queues a HEADERS frame (splitting into CONTINUATION frames if the
// block exceeds the peer's max frame size).
func (c *Connection) WriteHeaders(st *Stream, fields []*hpack.HeaderField, endStream bool) error {
	if st.state == StreamClosed {
		return StreamAlreadyClosed{StreamID: st.id}
	}
	if st.state == StreamIdle {
		if err := st.transition(StreamOpen); err != nil {
			return err
		}
		c.onStream.emit(StreamEvent{Stream: st, State: StreamOpen})
	}

	block := c.hpackEnc.EncodeHeaderBlock(nil, fields)
	c.writeHeaderBlock(st.id, block, endStream, false, 0)

	if endStream {
		if err := st.closeLocal(); err != nil {
			return err
		}
		c.onStream.emit(StreamEvent{Stream: st, State: st.state})
	}
	return nil
}

func (c *Connection) writeHeaderBlock(streamID uint32, block []byte, endStream, isPush bool, promisedID uint32) {
	maxFrame := int(c.Remote.MaxFrameSize)
	first := block
	rest := []byte(nil)
	if len(block) > maxFrame {
		first, rest = block[:maxFrame], block[maxFrame:]
	}

	if isPush {
		pp := &PushPromiseFrame{}
		pp.SetPromisedStreamID(promisedID)
		pp.SetHeaderBlock(first)
		pp.SetEndHeaders(len(rest) == 0)
		c.writeFrame(streamID, pp)
	} else {
		hf := &HeadersFrame{}
		hf.SetHeaderBlock(first)
		hf.SetEndStream(endStream)
		hf.SetEndHeaders(len(rest) == 0)
		c.writeFrame(streamID, hf)
	}

	for len(rest) > 0 {
		chunk := rest
		if len(chunk) > maxFrame {
			chunk = chunk[:maxFrame]
		}
		rest = rest[len(chunk):]

		cf := &ContinuationFrame{}
		cf.SetHeaderBlock(chunk)
		cf.SetEndHeaders(len(rest) == 0)
		c.writeFrame(streamID, cf)
	}
}

// WriteData queues a DATA frame, fragmenting and deferring to the stream's
// flow buffer when the current window can't carry all of data at once. If
// the stream already has data queued, the new write is appended behind it
// rather than sent ahead, preserving write order.
func (c *Connection) WriteData(st *Stream, data []byte, endStream bool) error {
	if st.state == StreamClosed {
		return StreamAlreadyClosed{StreamID: st.id}
	}
	if !st.sendQueue.empty() {
		st.sendQueue.push(data, endStream)
		return nil
	}

	n := canSend(st.sendWindow, c.connSendWindow, len(data))
	if n > 0 {
		st.sendWindow -= n
		c.connSendWindow -= n
		df := &DataFrame{}
		df.SetData(data[:n])
		df.SetEndStream(endStream && n == len(data))
		c.writeFrame(st.id, df)
	}

	if n < len(data) {
		st.sendQueue.push(data[n:], endStream)
		return nil
	}
	if endStream {
		if err := st.closeLocal(); err != nil {
			return err
		}
		c.onStream.emit(StreamEvent{Stream: st, State: st.state})
	}
	return nil
}

// Ping queues a PING frame carrying data.
func (c *Connection) Ping(data [8]byte) {
	c.lastPingData = data
	c.pingInFlight = true
	p := &PingFrame{}
	p.SetData(data[:])
	c.writeFrame(0, p)
}

// PingInFlight reports whether a PING sent with Ping is still awaiting its ack.
func (c *Connection) PingInFlight() bool { return c.pingInFlight }

// Close queues a GOAWAY with code and closes the connection at once: later
// Receive calls return ConnectionClosed.
func (c *Connection) Close(code ErrorCode, debug []byte) {
	if c.state == stateClosed {
		return
	}
	c.writeGoAway(code, debug)
	c.state = stateClosed
	c.onClose.emit(CloseEvent{})
}
