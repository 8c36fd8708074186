package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameHeaderRoundTrip(t *testing.T) {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)

	fr.SetStream(3)
	fr.SetFlags(FlagEndStream)
	d := &DataFrame{}
	d.SetData([]byte("hello"))
	d.SetEndStream(true)
	fr.SetBody(d)

	buf := fr.AppendTo(nil)
	require.Equal(t, FrameHeaderSize+len("hello"), len(buf))

	got := AcquireFrameHeader()
	defer ReleaseFrameHeader(got)
	require.NoError(t, got.ParseHeader(buf))
	require.Equal(t, FrameData, got.Type())
	require.Equal(t, uint32(3), got.Stream())
	require.True(t, got.Flags().Has(FlagEndStream))

	n, err := got.ReadPayload(buf[FrameHeaderSize:])
	require.NoError(t, err)
	require.Equal(t, len("hello"), n)

	body, ok := got.Body().(*DataFrame)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), body.Data())
	require.True(t, body.EndStream())
}

func TestFrameHeaderParseShortBuffer(t *testing.T) {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	require.ErrorIs(t, fr.ParseHeader([]byte{0, 0, 1}), ErrShortBuffer)
}

func TestFrameHeaderRejectsOversizePayload(t *testing.T) {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	fr.SetMaxLen(16)

	raw := make([]byte, FrameHeaderSize)
	// length field set to 17, one over the negotiated max.
	raw[0], raw[1], raw[2] = 0, 0, 17
	err := fr.ParseHeader(raw)
	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, FrameSizeError, connErr.Code)
}

func TestSettingsFrameSerializeDeserialize(t *testing.T) {
	sf := &SettingsFrame{}
	sf.Add(SettingInitialWindowSize, 1<<20)
	sf.Add(SettingMaxConcurrentStreams, 100)

	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	fr.SetBody(sf)
	buf := fr.AppendTo(nil)

	got := AcquireFrameHeader()
	defer ReleaseFrameHeader(got)
	require.NoError(t, got.ParseHeader(buf))
	n, err := got.ReadPayload(buf[FrameHeaderSize:])
	require.NoError(t, err)
	require.Equal(t, len(buf)-FrameHeaderSize, n)

	body := got.Body().(*SettingsFrame)
	require.False(t, body.Ack())
	require.Equal(t, []SettingPair{
		{SettingInitialWindowSize, 1 << 20},
		{SettingMaxConcurrentStreams, 100},
	}, body.Pairs())
}

func TestSettingsAckCarriesNoPayload(t *testing.T) {
	sf := &SettingsFrame{}
	sf.SetAck(true)

	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	fr.SetBody(sf)
	buf := fr.AppendTo(nil)
	require.Equal(t, FrameHeaderSize, len(buf))
}

func TestSettingsPayloadNotMultipleOfSixIsFrameSizeError(t *testing.T) {
	s := &SettingsFrame{}
	hdr := AcquireFrameHeader()
	defer ReleaseFrameHeader(hdr)
	hdr.setPayload([]byte{0, 1, 0, 0})
	err := s.Deserialize(hdr)
	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, FrameSizeError, connErr.Code)
}

func TestPingFrameEchoesData(t *testing.T) {
	p := &PingFrame{}
	p.SetData([]byte("12345678"))
	p.SetAck(true)

	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	fr.SetBody(p)
	buf := fr.AppendTo(nil)

	got := AcquireFrameHeader()
	defer ReleaseFrameHeader(got)
	require.NoError(t, got.ParseHeader(buf))
	_, err := got.ReadPayload(buf[FrameHeaderSize:])
	require.NoError(t, err)

	body := got.Body().(*PingFrame)
	require.True(t, body.Ack())
	require.Equal(t, []byte("12345678"), body.Data())
}

func TestWindowUpdateRejectsZeroIncrement(t *testing.T) {
	w := &WindowUpdateFrame{}
	hdr := AcquireFrameHeader()
	defer ReleaseFrameHeader(hdr)
	hdr.setPayload([]byte{0, 0, 0, 0})
	require.ErrorIs(t, w.Deserialize(hdr), errZeroIncrement)
}

func TestUnknownFrameTypeRoundTripsOpaquely(t *testing.T) {
	fr := AcquireFrameHeader()
	defer ReleaseFrameHeader(fr)
	fr.SetStream(0)
	body := AcquireFrame(FrameAltSvc).(*UnknownFrame)
	body.kind = FrameAltSvc
	body.payload = append(body.payload[:0], []byte("h2=\":443\"")...)
	fr.SetBody(body)

	buf := fr.AppendTo(nil)
	got := AcquireFrameHeader()
	defer ReleaseFrameHeader(got)
	require.NoError(t, got.ParseHeader(buf))
	require.Equal(t, FrameAltSvc, got.Type())
	_, err := got.ReadPayload(buf[FrameHeaderSize:])
	require.NoError(t, err)
	require.Equal(t, []byte("h2=\":443\""), got.Body().(*UnknownFrame).Payload())
}
