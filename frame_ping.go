package engine

var _ Frame = (*PingFrame)(nil)

// PingFrame measures round-trip time and verifies the peer is responsive.
//
// https://tools.ietf.org/html/rfc7540#section-6.7
type PingFrame struct {
	ack  bool
	data [8]byte
}

func (p *PingFrame) Type() FrameType { return FramePing }
func (p *PingFrame) Reset()          { p.ack = false; p.data = [8]byte{} }
func (p *PingFrame) Ack() bool       { return p.ack }
func (p *PingFrame) SetAck(v bool)   { p.ack = v }
func (p *PingFrame) Data() []byte    { return p.data[:] }

func (p *PingFrame) SetData(b []byte) {
	copy(p.data[:], b)
}

func (p *PingFrame) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 8 {
		return ErrMissingBytes
	}
	p.ack = fr.Flags().Has(FlagAck)
	copy(p.data[:], fr.payload[:8])
	return nil
}

func (p *PingFrame) Serialize(fr *FrameHeader) {
	if p.ack {
		fr.SetFlags(fr.Flags().Add(FlagAck))
	}
	fr.setPayload(p.data[:])
}
