package engine

import (
	"testing"

	"github.com/h2kit/engine/hpack"
	"github.com/stretchr/testify/require"
)

func TestStreamLifecycleOpenToClosed(t *testing.T) {
	st := NewStream(1, 65535)
	require.Equal(t, StreamIdle, st.State())

	require.NoError(t, st.transition(StreamOpen))
	require.NoError(t, st.closeLocal())
	require.Equal(t, StreamHalfClosedLocal, st.State())

	require.NoError(t, st.closeRemote())
	require.Equal(t, StreamClosed, st.State())
}

func TestStreamLifecycleReservedPush(t *testing.T) {
	st := NewStream(2, 65535)
	require.NoError(t, st.transition(StreamReservedLocal))
	require.NoError(t, st.closeRemote())
	require.Equal(t, StreamClosed, st.State())
}

func TestStreamTransitionRejectsInvalidEdge(t *testing.T) {
	st := NewStream(1, 65535)
	require.NoError(t, st.transition(StreamOpen))
	require.NoError(t, st.transition(StreamClosed))

	err := st.transition(StreamOpen)
	var streamErr *StreamError
	require.ErrorAs(t, err, &streamErr)
	require.Equal(t, ProtocolError, streamErr.Code)
}

func TestIsPseudoHeaderOrder(t *testing.T) {
	m := hpack.AcquireHeaderField()
	m.Set(":method", "GET")
	p := hpack.AcquireHeaderField()
	p.Set(":path", "/")
	ua := hpack.AcquireHeaderField()
	ua.Set("user-agent", "test")

	require.True(t, IsPseudoHeaderOrder([]*hpack.HeaderField{m, p, ua}))
	require.False(t, IsPseudoHeaderOrder([]*hpack.HeaderField{m, ua, p}))
}

func TestStreamPriorityBookkeeping(t *testing.T) {
	st := NewStream(3, 65535)
	require.Equal(t, uint8(16), st.Weight())

	st.SetPriority(1, 200, true)
	require.Equal(t, uint32(1), st.ParentID())
	require.Equal(t, uint8(200), st.Weight())
	require.True(t, st.Exclusive())
}
