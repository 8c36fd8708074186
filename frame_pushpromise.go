package engine

import "github.com/h2kit/engine/wire"

var _ FrameWithHeaderBlock = (*PushPromiseFrame)(nil)

// PushPromiseFrame notifies the peer of a stream the sender intends to
// push, carrying the pushed request's header block fragment.
//
// https://tools.ietf.org/html/rfc7540#section-6.6
type PushPromiseFrame struct {
	padded       bool
	endHeaders   bool
	promisedID   uint32
	block        []byte
}

func (p *PushPromiseFrame) Type() FrameType { return FramePushPromise }

func (p *PushPromiseFrame) Reset() {
	p.padded = false
	p.endHeaders = false
	p.promisedID = 0
	p.block = p.block[:0]
}

func (p *PushPromiseFrame) HeaderBlock() []byte         { return p.block }
func (p *PushPromiseFrame) SetHeaderBlock(b []byte)     { p.block = append(p.block[:0], b...) }
func (p *PushPromiseFrame) PromisedStreamID() uint32    { return p.promisedID }
func (p *PushPromiseFrame) SetPromisedStreamID(id uint32) { p.promisedID = id & (1<<31 - 1) }
func (p *PushPromiseFrame) EndHeaders() bool            { return p.endHeaders }
func (p *PushPromiseFrame) SetEndHeaders(v bool)        { p.endHeaders = v }
func (p *PushPromiseFrame) Padded() bool                { return p.padded }
func (p *PushPromiseFrame) SetPadded(v bool)            { p.padded = v }

func (p *PushPromiseFrame) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		var err error
		payload, err = wire.CutPadding(payload)
		if err != nil {
			return err
		}
		p.padded = true
	}

	if len(payload) < 4 {
		return ErrMissingBytes
	}

	p.promisedID = wire.BytesToUint32(payload[:4]) & (1<<31 - 1)
	p.block = append(p.block[:0], payload[4:]...)
	p.endHeaders = fr.Flags().Has(FlagEndHeaders)
	return nil
}

func (p *PushPromiseFrame) Serialize(fr *FrameHeader) {
	if p.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}

	payload := wire.AppendUint32Bytes(fr.payload[:0], p.promisedID)
	payload = append(payload, p.block...)

	if p.padded {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = wire.AddPadding(payload, 256)
	}

	fr.setPayload(payload)
}
