package engine

// flowChunk is one caller-supplied write that didn't fully fit the window
// at the time it was made. endStream carries whether the write should
// close the stream once this chunk (and only this chunk, since it's the
// tail of one WriteData call) is fully drained.
type flowChunk struct {
	data      []byte
	endStream bool
}

// flowBuffer queues DATA bytes a caller asked to send on a stream but
// that didn't fit the current flow-control window, replaying them as
// WINDOW_UPDATE frames arrive. RFC 7540 §6.9.1 requires every sender to
// do this kind of bookkeeping; here it's explicit state instead of a
// blocked goroutine, consistent with the engine's synchronous model.
type flowBuffer struct {
	pending []flowChunk
}

func (f *flowBuffer) push(b []byte, endStream bool) {
	cp := append([]byte(nil), b...)
	f.pending = append(f.pending, flowChunk{data: cp, endStream: endStream})
}

func (f *flowBuffer) empty() bool { return len(f.pending) == 0 }

// drain pops queued chunks and hands them to send, stopping the moment
// send reports it could not take a full chunk (returned n < len(data)),
// re-queuing the remainder at the front. send should only treat
// endStream as final once it reports n == len(data).
func (f *flowBuffer) drain(send func(data []byte, endStream bool) (n int, blocked bool)) {
	for len(f.pending) > 0 {
		chunk := f.pending[0]
		n, blocked := send(chunk.data, chunk.endStream)
		if n == len(chunk.data) {
			f.pending = f.pending[1:]
			if blocked {
				return
			}
			continue
		}
		f.pending[0].data = chunk.data[n:]
		return
	}
}

// applyWindowDelta adjusts a window by delta, returning a FlowControlError
// if the result would exceed 2^31-1. A negative result is returned as is.
func applyWindowDelta(window, delta int) (int, error) {
	next := window + delta
	if next > maxWindowSize {
		return window, NewConnError(FlowControlError, "flow control window overflow")
	}
	return next, nil
}

// initialWindowDelta is the adjustment every open stream's send window
// needs applying when a SETTINGS_INITIAL_WINDOW_SIZE change takes effect
// mid-connection (RFC 7540 §6.9.2): old streams keep their consumed-byte
// position but their ceiling moves by the same delta as the setting.
func initialWindowDelta(oldValue, newValue uint32) int {
	return int(newValue) - int(oldValue)
}

// canSend reports how many of want bytes fit in the smaller of the
// stream's and the connection's send windows.
func canSend(streamWindow, connWindow, want int) int {
	n := want
	if streamWindow < n {
		n = streamWindow
	}
	if connWindow < n {
		n = connWindow
	}
	if n < 0 {
		n = 0
	}
	return n
}
