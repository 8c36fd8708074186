package engine

import "github.com/h2kit/engine/wire"

var _ FrameWithHeaderBlock = (*HeadersFrame)(nil)

// HeadersFrame opens a stream (or attaches trailers to one) and carries a
// header block fragment, possibly continued by CONTINUATION frames.
//
// https://tools.ietf.org/html/rfc7540#section-6.2
type HeadersFrame struct {
	padded     bool
	endStream  bool
	endHeaders bool

	hasPriority bool
	exclusive   bool
	streamDep   uint32
	weight      uint8

	block []byte
}

func (h *HeadersFrame) Type() FrameType { return FrameHeaders }

func (h *HeadersFrame) Reset() {
	h.padded = false
	h.endStream = false
	h.endHeaders = false
	h.hasPriority = false
	h.exclusive = false
	h.streamDep = 0
	h.weight = 0
	h.block = h.block[:0]
}

func (h *HeadersFrame) HeaderBlock() []byte { return h.block }
func (h *HeadersFrame) SetHeaderBlock(b []byte) { h.block = append(h.block[:0], b...) }
func (h *HeadersFrame) AppendHeaderBlock(b []byte) { h.block = append(h.block, b...) }

func (h *HeadersFrame) EndStream() bool     { return h.endStream }
func (h *HeadersFrame) SetEndStream(v bool) { h.endStream = v }
func (h *HeadersFrame) EndHeaders() bool    { return h.endHeaders }
func (h *HeadersFrame) SetEndHeaders(v bool) { h.endHeaders = v }
func (h *HeadersFrame) Padded() bool        { return h.padded }
func (h *HeadersFrame) SetPadded(v bool)    { h.padded = v }

// HasPriority reports whether the frame carries the optional stream
// dependency/weight fields (RFC 7540 §6.2's PRIORITY flag).
func (h *HeadersFrame) HasPriority() bool { return h.hasPriority }

func (h *HeadersFrame) StreamDependency() uint32 { return h.streamDep }
func (h *HeadersFrame) Exclusive() bool          { return h.exclusive }
func (h *HeadersFrame) Weight() uint8            { return h.weight }

// SetPriority attaches the optional stream dependency/weight fields.
func (h *HeadersFrame) SetPriority(dep uint32, exclusive bool, weight uint8) {
	h.hasPriority = true
	h.streamDep = dep
	h.exclusive = exclusive
	h.weight = weight
}

func (h *HeadersFrame) Deserialize(fr *FrameHeader) error {
	flags := fr.Flags()
	payload := fr.payload

	if flags.Has(FlagPadded) {
		var err error
		payload, err = wire.CutPadding(payload)
		if err != nil {
			return err
		}
		h.padded = true
	}

	if flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return ErrMissingBytes
		}
		dep := wire.BytesToUint32(payload[:4])
		h.exclusive = dep&0x80000000 != 0
		h.streamDep = dep & (1<<31 - 1)
		h.weight = payload[4]
		h.hasPriority = true
		payload = payload[5:]
	}

	h.endStream = flags.Has(FlagEndStream)
	h.endHeaders = flags.Has(FlagEndHeaders)
	h.block = append(h.block[:0], payload...)
	return nil
}

func (h *HeadersFrame) Serialize(fr *FrameHeader) {
	if h.endStream {
		fr.SetFlags(fr.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	payload := fr.payload[:0]

	if h.hasPriority {
		fr.SetFlags(fr.Flags().Add(FlagPriority))
		dep := h.streamDep & (1<<31 - 1)
		if h.exclusive {
			dep |= 0x80000000
		}
		payload = wire.AppendUint32Bytes(payload, dep)
		payload = append(payload, h.weight)
	}

	payload = append(payload, h.block...)

	if h.padded {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = wire.AddPadding(payload, 256)
	}

	fr.setPayload(payload)
}
