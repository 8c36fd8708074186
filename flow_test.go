package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlowBufferDrainsInOrder(t *testing.T) {
	var fb flowBuffer
	fb.push([]byte("abc"), false)
	fb.push([]byte("def"), true)

	var got []byte
	var sawEndStream bool
	fb.drain(func(data []byte, endStream bool) (int, bool) {
		got = append(got, data...)
		if endStream {
			sawEndStream = true
		}
		return len(data), false
	})

	require.Equal(t, []byte("abcdef"), got)
	require.True(t, sawEndStream)
	require.True(t, fb.empty())
}

func TestFlowBufferStopsAndRequeuesOnPartialSend(t *testing.T) {
	var fb flowBuffer
	fb.push([]byte("0123456789"), true)

	calls := 0
	fb.drain(func(data []byte, endStream bool) (int, bool) {
		calls++
		return 4, true // only 4 of 10 bytes accepted, sender now blocked
	})

	require.Equal(t, 1, calls)
	require.False(t, fb.empty())
	require.Equal(t, []byte("456789"), fb.pending[0].data)
	require.True(t, fb.pending[0].endStream)
}

func TestApplyWindowDeltaOverflow(t *testing.T) {
	_, err := applyWindowDelta(maxWindowSize-1, 10)
	var connErr *ConnError
	require.ErrorAs(t, err, &connErr)
	require.Equal(t, FlowControlError, connErr.Code)
}

func TestApplyWindowDeltaWithinRange(t *testing.T) {
	w, err := applyWindowDelta(100, -50)
	require.NoError(t, err)
	require.Equal(t, 50, w)
}

func TestInitialWindowDelta(t *testing.T) {
	require.Equal(t, 1000, initialWindowDelta(65535, 66535))
	require.Equal(t, -1000, initialWindowDelta(66535, 65535))
}

func TestCanSend(t *testing.T) {
	require.Equal(t, 5, canSend(5, 10, 20))
	require.Equal(t, 5, canSend(10, 5, 20))
	require.Equal(t, 0, canSend(-1, 10, 20))
	require.Equal(t, 3, canSend(10, 10, 3))
}
