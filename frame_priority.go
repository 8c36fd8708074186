package engine

import "github.com/h2kit/engine/wire"

var _ Frame = (*PriorityFrame)(nil)

// PriorityFrame carries a stream's dependency tree placement: a parent
// stream id, whether that dependency is exclusive, and a weight.
//
// https://tools.ietf.org/html/rfc7540#section-6.3
type PriorityFrame struct {
	exclusive bool
	streamDep uint32
	weight    uint8
}

func (p *PriorityFrame) Type() FrameType { return FramePriority }

func (p *PriorityFrame) Reset() {
	p.exclusive = false
	p.streamDep = 0
	p.weight = 0
}

func (p *PriorityFrame) StreamDependency() uint32 { return p.streamDep }
func (p *PriorityFrame) SetStreamDependency(id uint32) { p.streamDep = id & (1<<31 - 1) }
func (p *PriorityFrame) Exclusive() bool           { return p.exclusive }
func (p *PriorityFrame) SetExclusive(v bool)       { p.exclusive = v }

// Weight returns the raw weight octet as encoded on the wire: the weight
// minus one (0..255 for weights 1..256).
func (p *PriorityFrame) Weight() uint8     { return p.weight }
func (p *PriorityFrame) SetWeight(w uint8) { p.weight = w }

func (p *PriorityFrame) Deserialize(fr *FrameHeader) error {
	if len(fr.payload) < 5 {
		return ErrMissingBytes
	}
	dep := wire.BytesToUint32(fr.payload[:4])
	p.exclusive = dep&0x80000000 != 0
	p.streamDep = dep & (1<<31 - 1)
	p.weight = fr.payload[4]
	return nil
}

func (p *PriorityFrame) Serialize(fr *FrameHeader) {
	dep := p.streamDep & (1<<31 - 1)
	if p.exclusive {
		dep |= 0x80000000
	}
	fr.payload = wire.AppendUint32Bytes(fr.payload[:0], dep)
	fr.payload = append(fr.payload, p.weight)
}
