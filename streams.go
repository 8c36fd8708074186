package engine

import "sort"

// recentlyClosedCap bounds the recently-closed stream id set the
// connection keeps around purely to distinguish "never existed" from
// "existed and was already closed" when a frame arrives late for a
// stream id below the high-water mark. RFC 7540 doesn't mandate a size
// for this memory, leaving it implementation-defined; 64 entries comfortably
// covers the reordering window a single connection sees in practice
// without growing unbounded under a very chatty peer.
const recentlyClosedCap = 64

// Streams is a sorted-by-id container of live streams, plus a small
// fixed-capacity FIFO of ids that were recently closed (so a frame
// arriving for one can be told apart from a frame for a stream id that
// was never opened at all).
type Streams struct {
	list          []*Stream
	closedIDs     []uint32
	closedIdx     int
	closedFilled  bool
}

// Insert adds s, keeping list sorted by id.
func (s *Streams) Insert(st *Stream) {
	i := sort.Search(len(s.list), func(i int) bool { return s.list[i].id >= st.id })
	if i == len(s.list) {
		s.list = append(s.list, st)
		return
	}
	s.list = append(s.list, nil)
	copy(s.list[i+1:], s.list[i:])
	s.list[i] = st
}

// Get returns the live stream with id, or nil.
func (s *Streams) Get(id uint32) *Stream {
	i := sort.Search(len(s.list), func(i int) bool { return s.list[i].id >= id })
	if i < len(s.list) && s.list[i].id == id {
		return s.list[i]
	}
	return nil
}

// Remove deletes the stream with id from the live set and records it in
// the recently-closed ring.
func (s *Streams) Remove(id uint32) *Stream {
	i := sort.Search(len(s.list), func(i int) bool { return s.list[i].id >= id })
	if i >= len(s.list) || s.list[i].id != id {
		return nil
	}
	st := s.list[i]
	s.list = append(s.list[:i], s.list[i+1:]...)
	s.markClosed(id)
	return st
}

func (s *Streams) markClosed(id uint32) {
	if cap(s.closedIDs) < recentlyClosedCap {
		s.closedIDs = make([]uint32, recentlyClosedCap)
	}
	s.closedIDs[s.closedIdx] = id
	s.closedIdx++
	if s.closedIdx == recentlyClosedCap {
		s.closedIdx = 0
		s.closedFilled = true
	}
}

// WasRecentlyClosed reports whether id is remembered as having been
// closed recently (bounded by recentlyClosedCap; older closures age out).
func (s *Streams) WasRecentlyClosed(id uint32) bool {
	n := s.closedIdx
	if s.closedFilled {
		n = recentlyClosedCap
	}
	for i := 0; i < n; i++ {
		if s.closedIDs[i] == id {
			return true
		}
	}
	return false
}

// Len returns the number of live streams.
func (s *Streams) Len() int { return len(s.list) }

// Each calls fn for every live stream.
func (s *Streams) Each(fn func(*Stream)) {
	for _, st := range s.list {
		fn(st)
	}
}
