package engine

import (
	"testing"

	"github.com/h2kit/engine/hpack"
	"github.com/h2kit/engine/wire"
	"github.com/stretchr/testify/require"
)

// pipe wires a client and a server Connection together: each Outbound
// feeds the other's Receive, simulating a lossless duplex transport.
type pipe struct {
	client *Connection
	server *Connection
}

func newPipe() *pipe {
	return &pipe{
		client: NewClient(ClientOpts{}),
		server: NewServer(ServerOpts{}),
	}
}

// settle exchanges bytes back and forth until both sides stop producing
// output, short of an actual network round-trip count limit.
func (p *pipe) settle(t *testing.T) {
	t.Helper()
	for i := 0; i < 10; i++ {
		cOut := p.client.Outbound()
		sOut := p.server.Outbound()
		if len(cOut) == 0 && len(sOut) == 0 {
			return
		}
		if len(cOut) > 0 {
			require.NoError(t, p.server.Receive(cOut))
		}
		if len(sOut) > 0 {
			require.NoError(t, p.client.Receive(sOut))
		}
	}
	t.Fatal("pipe did not settle after 10 rounds")
}

func TestHandshakeExchangesPrefaceAndSettings(t *testing.T) {
	p := newPipe()
	p.settle(t)

	require.Equal(t, 0, len(p.client.pendingLocalSettings.queue))
	require.Equal(t, 0, len(p.server.pendingLocalSettings.queue))
	require.Equal(t, DefaultSettings(), p.client.Remote)
	require.Equal(t, DefaultSettings(), p.server.Remote)
}

func TestH2CUpgradeSkipsPreface(t *testing.T) {
	client := NewClient(ClientOpts{H2CUpgrade: true})
	server := NewServer(ServerOpts{H2CUpgrade: true})

	out := client.Outbound()
	require.False(t, hasPrefix(ConnectionPreface, out))
	require.NoError(t, server.Receive(out))
	require.Equal(t, DefaultSettings(), server.Remote)
}

func TestServerRejectsBadPreface(t *testing.T) {
	server := NewServer(ServerOpts{})
	err := server.Receive([]byte("GET / HTTP/1.1\r\n\r\n"))
	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
	require.True(t, connErr.Handshake)
}

func TestSettingsOverrideAppliedBeforePriming(t *testing.T) {
	client := NewClient(ClientOpts{Settings: Settings{InitialWindowSize: 1 << 20}})
	require.Equal(t, uint32(1<<20), client.Local.InitialWindowSize)

	out := client.Outbound()
	server := NewServer(ServerOpts{})
	require.NoError(t, server.Receive(out))
	require.Equal(t, uint32(1<<20), server.Remote.InitialWindowSize)
}

func TestInitialWindowSizeChangeAdjustsOpenStreams(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)
	require.NoError(t, p.client.WriteHeaders(st, reqFields(), false))
	p.settle(t)

	before := st.sendWindow

	srvSettings := &SettingsFrame{}
	srvSettings.Add(SettingInitialWindowSize, p.server.Local.InitialWindowSize+1000)
	p.server.Local.InitialWindowSize += 1000
	p.server.pendingLocalSettings.push(srvSettings.Pairs())
	p.server.writeFrame(0, srvSettings)
	p.settle(t)

	require.Equal(t, before+1000, st.sendWindow)
}

func TestPingRoundTrip(t *testing.T) {
	p := newPipe()
	p.settle(t)

	require.False(t, p.client.PingInFlight())
	p.client.Ping([8]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.True(t, p.client.PingInFlight())

	var got PongEvent
	p.client.OnPong(func(e PongEvent) { got = e })
	p.settle(t)

	require.False(t, p.client.PingInFlight())
	require.Equal(t, [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, got.Data)
}

func TestGoAwayEmitsEvent(t *testing.T) {
	p := newPipe()
	p.settle(t)

	var got GoAwayEvent
	p.client.OnGoAway(func(e GoAwayEvent) { got = e })
	p.server.Close(ProtocolError, []byte("bye"))
	p.settle(t)

	require.Equal(t, ProtocolError, got.Code)
	require.Equal(t, []byte("bye"), got.DebugData)
}

func reqFields() []*hpack.HeaderField {
	m := hpack.AcquireHeaderField()
	m.Set(":method", "GET")
	p := hpack.AcquireHeaderField()
	p.Set(":path", "/")
	a := hpack.AcquireHeaderField()
	a.Set(":authority", "example.com")
	s := hpack.AcquireHeaderField()
	s.Set(":scheme", "https")
	return []*hpack.HeaderField{m, p, a, s}
}

func TestHeadersRoundTripThroughHPACK(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	var got HeadersEvent
	p.server.OnHeaders(func(e HeadersEvent) { got = e })

	require.NoError(t, p.client.WriteHeaders(st, reqFields(), true))
	p.settle(t)

	require.Len(t, got.Fields, 4)
	require.Equal(t, ":method", got.Fields[0].Name())
	require.Equal(t, "GET", got.Fields[0].Value())
	require.Equal(t, StreamHalfClosedRemote, got.Stream.State())
}

func TestHeadersSplitAcrossContinuation(t *testing.T) {
	p := newPipe()
	p.settle(t)
	// force tiny frames so one HEADERS block needs CONTINUATION.
	p.server.Local.MaxFrameSize = defaultSettingsMaxFrameSize
	p.client.Remote.MaxFrameSize = 16

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	var got HeadersEvent
	var frames int
	p.server.OnFrame(func(e FrameEvent) {
		if !e.Sent && e.Header.Type() == FrameContinuation {
			frames++
		}
	})
	p.server.OnHeaders(func(e HeadersEvent) { got = e })

	fields := reqFields()
	// a value too large for static/dynamic indexing to compress under the
	// 16-byte frame cap, guaranteeing the block spans multiple frames.
	big := hpack.AcquireHeaderField()
	big.Set("x-trace", "0123456789abcdefghijklmnopqrstuvwxyz0123456789")
	fields = append(fields, big)

	require.NoError(t, p.client.WriteHeaders(st, fields, true))
	p.settle(t)

	require.Len(t, got.Fields, 5)
	require.Positive(t, frames)
}

func TestDataFlowControlQueuesOnExhaustedWindow(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)
	require.NoError(t, p.client.WriteHeaders(st, reqFields(), false))
	p.settle(t)

	st.sendWindow = 4
	p.client.connSendWindow = 4

	payload := []byte("0123456789")
	require.NoError(t, p.client.WriteData(st, payload, true))

	out := p.client.Outbound()
	require.NotEmpty(t, out)
	require.False(t, st.sendQueue.empty())

	var gotData []byte
	var gotEndStream bool
	p.server.OnData(func(e DataEvent) {
		gotData = append(gotData, e.Data...)
		if e.EndStream {
			gotEndStream = true
		}
	})

	require.NoError(t, p.server.Receive(out))
	p.settle(t)

	// the server, as the data's receiver, grants the client enough send
	// window (both stream- and connection-level) to drain the rest.
	wu := &WindowUpdateFrame{}
	wu.SetIncrement(100)
	p.server.writeFrame(st.id, wu)
	wuConn := &WindowUpdateFrame{}
	wuConn.SetIncrement(100)
	p.server.writeFrame(0, wuConn)
	require.NoError(t, p.client.Receive(p.server.Outbound()))
	p.settle(t)

	require.Equal(t, payload, gotData)
	require.True(t, gotEndStream)
	require.True(t, st.sendQueue.empty())
}

func TestOpenStreamEnforcesMaxConcurrentStreams(t *testing.T) {
	c := NewClient(ClientOpts{})
	c.Remote.MaxConcurrentStreams = 1

	st1, err := c.OpenStream()
	require.NoError(t, err)
	require.NoError(t, st1.transition(StreamOpen))

	_, err = c.OpenStream()
	var limitErr *StreamLimitExceeded
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, uint32(1), limitErr.Limit)
}

func TestReceiveAfterCloseReturnsConnectionClosed(t *testing.T) {
	c := NewServer(ServerOpts{})
	c.state = stateClosed
	err := c.Receive([]byte("x"))
	require.ErrorIs(t, err, ConnectionClosed{})
}

func TestHeadersRejectsPseudoHeaderAfterRegular(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	regular := hpack.AcquireHeaderField()
	regular.Set("x-foo", "bar")
	fields := append([]*hpack.HeaderField{regular}, reqFields()...)

	require.NoError(t, p.client.WriteHeaders(st, fields, true))
	p.settle(t)

	require.Nil(t, p.server.streams.Get(st.id))
}

func TestHeadersMissingRequiredPseudoHeaderResetsStream(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	m := hpack.AcquireHeaderField()
	m.Set(":method", "GET")
	a := hpack.AcquireHeaderField()
	a.Set(":authority", "example.com")
	s := hpack.AcquireHeaderField()
	s.Set(":scheme", "https")
	fields := []*hpack.HeaderField{m, a, s} // no :path

	require.NoError(t, p.client.WriteHeaders(st, fields, true))
	p.settle(t)

	require.Nil(t, p.server.streams.Get(st.id))
}

func TestHeadersAllowsAuthorityOmittedOnGet(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	m := hpack.AcquireHeaderField()
	m.Set(":method", "GET")
	path := hpack.AcquireHeaderField()
	path.Set(":path", "/")
	s := hpack.AcquireHeaderField()
	s.Set(":scheme", "https")
	fields := []*hpack.HeaderField{m, path, s} // no :authority

	var got HeadersEvent
	p.server.OnHeaders(func(e HeadersEvent) { got = e })

	require.NoError(t, p.client.WriteHeaders(st, fields, true))
	p.settle(t)

	require.NotNil(t, p.server.streams.Get(st.id))
	require.Len(t, got.Fields, 3)
}

func TestHeadersUppercaseNameResetsStream(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	bad := hpack.AcquireHeaderField()
	bad.Set("X-Foo", "bar")
	fields := append(reqFields(), bad)

	require.NoError(t, p.client.WriteHeaders(st, fields, true))
	p.settle(t)

	require.Nil(t, p.server.streams.Get(st.id))
}

func TestContentLengthMismatchResetsStream(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	cl := hpack.AcquireHeaderField()
	cl.Set("content-length", "5")
	fields := append(reqFields(), cl)
	require.NoError(t, p.client.WriteHeaders(st, fields, false))
	p.settle(t)

	require.NoError(t, p.client.WriteData(st, []byte("abc"), true))
	p.settle(t)

	require.Nil(t, p.server.streams.Get(st.id))
}

func TestContentLengthMatchingSucceeds(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	cl := hpack.AcquireHeaderField()
	cl.Set("content-length", "3")
	fields := append(reqFields(), cl)
	require.NoError(t, p.client.WriteHeaders(st, fields, false))
	p.settle(t)

	var gotEndStream bool
	p.server.OnData(func(e DataEvent) {
		if e.EndStream {
			gotEndStream = true
		}
	})

	require.NoError(t, p.client.WriteData(st, []byte("abc"), true))
	p.settle(t)

	require.True(t, gotEndStream)
	require.NotNil(t, p.server.streams.Get(st.id))
}

func TestTrailersRejectUndeclaredName(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	require.NoError(t, p.client.WriteHeaders(st, reqFields(), false))
	p.settle(t)

	trailer := hpack.AcquireHeaderField()
	trailer.Set("x-checksum", "abc123")
	require.NoError(t, p.client.WriteHeaders(st, []*hpack.HeaderField{trailer}, true))
	p.settle(t)

	require.Nil(t, p.server.streams.Get(st.id))
}

func TestTrailersAllowDeclaredName(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	var events int
	var lastFields []*hpack.HeaderField
	p.server.OnHeaders(func(e HeadersEvent) {
		events++
		lastFields = e.Fields
	})

	decl := hpack.AcquireHeaderField()
	decl.Set("trailer", "x-checksum")
	fields := append(reqFields(), decl)
	require.NoError(t, p.client.WriteHeaders(st, fields, false))
	p.settle(t)

	trailer := hpack.AcquireHeaderField()
	trailer.Set("x-checksum", "abc123")
	require.NoError(t, p.client.WriteHeaders(st, []*hpack.HeaderField{trailer}, true))
	p.settle(t)

	require.Equal(t, 2, events)
	require.Len(t, lastFields, 1)
	require.Equal(t, "x-checksum", lastFields[0].Name())

	srvStream := p.server.streams.Get(st.id)
	require.NotNil(t, srvStream)
	require.Equal(t, StreamHalfClosedRemote, srvStream.State())
}

func TestTrailersRejectPseudoHeader(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)

	decl := hpack.AcquireHeaderField()
	decl.Set("trailer", "x-checksum")
	fields := append(reqFields(), decl)
	require.NoError(t, p.client.WriteHeaders(st, fields, false))
	p.settle(t)

	badTrailer := hpack.AcquireHeaderField()
	badTrailer.Set(":status", "200")
	require.NoError(t, p.client.WriteHeaders(st, []*hpack.HeaderField{badTrailer}, true))
	p.settle(t)

	require.Nil(t, p.server.streams.Get(st.id))
}

func TestWriteOnClosedStreamReturnsStreamAlreadyClosed(t *testing.T) {
	c := NewClient(ClientOpts{})
	st := NewStream(1, 65535)
	st.state = StreamClosed

	var closedErr StreamAlreadyClosed
	require.ErrorAs(t, c.WriteHeaders(st, reqFields(), false), &closedErr)
	require.Equal(t, uint32(1), closedErr.StreamID)

	closedErr = StreamAlreadyClosed{}
	require.ErrorAs(t, c.WriteData(st, []byte("x"), false), &closedErr)
	require.Equal(t, uint32(1), closedErr.StreamID)
}

func TestOpenStreamAfterGoAwayReturnsConnectionClosed(t *testing.T) {
	p := newPipe()
	p.settle(t)

	p.server.Close(NoError, nil)
	p.settle(t)

	_, err := p.client.OpenStream()
	require.ErrorIs(t, err, ConnectionClosed{})
}

func TestSecondGoAwayIsProtocolError(t *testing.T) {
	p := newPipe()
	p.settle(t)

	ga := &GoAwayFrame{}
	ga.SetLastStreamID(0)
	ga.SetCode(NoError)
	p.server.writeFrame(0, ga)
	require.NoError(t, p.client.Receive(p.server.Outbound()))

	ga2 := &GoAwayFrame{}
	ga2.SetLastStreamID(0)
	ga2.SetCode(NoError)
	p.server.writeFrame(0, ga2)
	err := p.client.Receive(p.server.Outbound())

	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, ProtocolError, connErr.Code)
}

func TestPaddedDataBadPadLengthIsProtocolError(t *testing.T) {
	p := newPipe()
	p.settle(t)

	st, err := p.client.OpenStream()
	require.NoError(t, err)
	require.NoError(t, p.client.WriteHeaders(st, reqFields(), false))
	p.settle(t)

	// pad length byte (5) claims more padding than the 1 remaining payload byte.
	payload := []byte{5, 'a'}
	var hdr [FrameHeaderSize]byte
	wire.Uint24ToBytes(hdr[:3], uint32(len(payload)))
	hdr[3] = byte(FrameData)
	hdr[4] = byte(FlagPadded)
	wire.Uint32ToBytes(hdr[5:9], st.id)
	raw := append(hdr[:], payload...)

	err = p.server.Receive(raw)
	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, ProtocolError, connErr.Code)
}
