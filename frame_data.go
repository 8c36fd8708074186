package engine

import "github.com/h2kit/engine/wire"

var _ Frame = (*DataFrame)(nil)

// DataFrame carries stream payload bytes.
//
// https://tools.ietf.org/html/rfc7540#section-6.1
type DataFrame struct {
	endStream bool
	padded    bool
	b         []byte
}

func (d *DataFrame) Type() FrameType { return FrameData }

func (d *DataFrame) Reset() {
	d.endStream = false
	d.padded = false
	d.b = d.b[:0]
}

// Data returns the frame's payload bytes, padding already removed.
func (d *DataFrame) Data() []byte { return d.b }

// SetData replaces the frame's payload.
func (d *DataFrame) SetData(b []byte) { d.b = append(d.b[:0], b...) }

// Append appends b to the frame's payload.
func (d *DataFrame) Append(b []byte) { d.b = append(d.b, b...) }

func (d *DataFrame) EndStream() bool        { return d.endStream }
func (d *DataFrame) SetEndStream(v bool)    { d.endStream = v }
func (d *DataFrame) Padded() bool           { return d.padded }
func (d *DataFrame) SetPadded(v bool)       { d.padded = v }

func (d *DataFrame) Deserialize(fr *FrameHeader) error {
	payload := fr.payload

	if fr.Flags().Has(FlagPadded) {
		var err error
		payload, err = wire.CutPadding(payload)
		if err != nil {
			return err
		}
		d.padded = true
	}

	d.endStream = fr.Flags().Has(FlagEndStream)
	d.b = append(d.b[:0], payload...)
	return nil
}

func (d *DataFrame) Serialize(fr *FrameHeader) {
	if d.endStream {
		fr.SetFlags(fr.Flags().Add(FlagEndStream))
	}

	payload := d.b
	if d.padded {
		fr.SetFlags(fr.Flags().Add(FlagPadded))
		payload = wire.AddPadding(payload, 256)
	}
	fr.setPayload(payload)
}
