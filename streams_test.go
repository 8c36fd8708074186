package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamsInsertGetRemove(t *testing.T) {
	var streams Streams
	streams.Insert(NewStream(5, 65535))
	streams.Insert(NewStream(1, 65535))
	streams.Insert(NewStream(3, 65535))

	require.Equal(t, 3, streams.Len())
	require.Equal(t, uint32(1), streams.Get(1).ID())
	require.Equal(t, uint32(3), streams.Get(3).ID())
	require.Nil(t, streams.Get(7))

	var ids []uint32
	streams.Each(func(st *Stream) { ids = append(ids, st.ID()) })
	require.Equal(t, []uint32{1, 3, 5}, ids)

	removed := streams.Remove(3)
	require.Equal(t, uint32(3), removed.ID())
	require.Equal(t, 2, streams.Len())
	require.Nil(t, streams.Get(3))
	require.True(t, streams.WasRecentlyClosed(3))
	require.False(t, streams.WasRecentlyClosed(1))
}

func TestStreamsRecentlyClosedRingAgesOut(t *testing.T) {
	var streams Streams
	for i := uint32(0); i < recentlyClosedCap+5; i++ {
		streams.Insert(NewStream(i, 65535))
		streams.Remove(i)
	}

	// the oldest closures (ids 0..4) should have aged out of the ring.
	require.False(t, streams.WasRecentlyClosed(0))
	require.True(t, streams.WasRecentlyClosed(recentlyClosedCap+4))
}

func TestStreamsRemoveUnknownIsNoop(t *testing.T) {
	var streams Streams
	streams.Insert(NewStream(1, 65535))
	require.Nil(t, streams.Remove(99))
	require.Equal(t, 1, streams.Len())
}
