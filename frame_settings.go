package engine

import "github.com/h2kit/engine/wire"

var _ Frame = (*SettingsFrame)(nil)

// SettingIdentifier names a recognized SETTINGS key (RFC 7540 §6.5.2).
type SettingIdentifier uint16

const (
	SettingHeaderTableSize      SettingIdentifier = 0x1
	SettingEnablePush           SettingIdentifier = 0x2
	SettingMaxConcurrentStreams SettingIdentifier = 0x3
	SettingInitialWindowSize    SettingIdentifier = 0x4
	SettingMaxFrameSize         SettingIdentifier = 0x5
	SettingMaxHeaderListSize    SettingIdentifier = 0x6
)

// SettingPair is one (identifier, value) tuple as it appears on the wire.
// The frame keeps pairs in arrival order rather than collapsing them into
// a struct, since a peer is allowed to repeat a key and later occurrences
// win (RFC 7540 §6.5).
type SettingPair struct {
	ID    SettingIdentifier
	Value uint32
}

// SettingsFrame communicates configuration parameters, or (with the ACK
// flag) acknowledges the peer's.
//
// https://tools.ietf.org/html/rfc7540#section-6.5
type SettingsFrame struct {
	ack   bool
	pairs []SettingPair
}

func (s *SettingsFrame) Type() FrameType { return FrameSettings }

func (s *SettingsFrame) Reset() {
	s.ack = false
	s.pairs = s.pairs[:0]
}

func (s *SettingsFrame) Ack() bool     { return s.ack }
func (s *SettingsFrame) SetAck(v bool) { s.ack = v }
func (s *SettingsFrame) Pairs() []SettingPair { return s.pairs }

// Add appends a (id, value) pair to be sent.
func (s *SettingsFrame) Add(id SettingIdentifier, value uint32) {
	s.pairs = append(s.pairs, SettingPair{ID: id, Value: value})
}

func (s *SettingsFrame) Deserialize(fr *FrameHeader) error {
	s.ack = fr.Flags().Has(FlagAck)
	if s.ack {
		if len(fr.payload) != 0 {
			return NewConnError(FrameSizeError, "SETTINGS ack must carry no payload")
		}
		return nil
	}

	if len(fr.payload)%6 != 0 {
		return NewConnError(FrameSizeError, "SETTINGS payload not a multiple of 6")
	}

	for b := fr.payload; len(b) > 0; b = b[6:] {
		id := SettingIdentifier(uint16(b[0])<<8 | uint16(b[1]))
		value := wire.BytesToUint32(b[2:6])
		s.pairs = append(s.pairs, SettingPair{ID: id, Value: value})
	}
	return nil
}

func (s *SettingsFrame) Serialize(fr *FrameHeader) {
	if s.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
		fr.setPayload(nil)
		return
	}

	payload := fr.payload[:0]
	for _, p := range s.pairs {
		payload = append(payload, byte(p.ID>>8), byte(p.ID))
		payload = wire.AppendUint32Bytes(payload, p.Value)
	}
	fr.setPayload(payload)
}
