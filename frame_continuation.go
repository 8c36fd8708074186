package engine

var _ FrameWithHeaderBlock = (*ContinuationFrame)(nil)

// ContinuationFrame carries the remainder of a header block fragment that
// didn't fit in the preceding HEADERS/PUSH_PROMISE frame.
//
// https://tools.ietf.org/html/rfc7540#section-6.10
type ContinuationFrame struct {
	endHeaders bool
	block      []byte
}

func (c *ContinuationFrame) Type() FrameType { return FrameContinuation }

func (c *ContinuationFrame) Reset() {
	c.endHeaders = false
	c.block = c.block[:0]
}

func (c *ContinuationFrame) HeaderBlock() []byte     { return c.block }
func (c *ContinuationFrame) SetHeaderBlock(b []byte) { c.block = append(c.block[:0], b...) }
func (c *ContinuationFrame) EndHeaders() bool        { return c.endHeaders }
func (c *ContinuationFrame) SetEndHeaders(v bool)    { c.endHeaders = v }

func (c *ContinuationFrame) Deserialize(fr *FrameHeader) error {
	c.endHeaders = fr.Flags().Has(FlagEndHeaders)
	c.block = append(c.block[:0], fr.payload...)
	return nil
}

func (c *ContinuationFrame) Serialize(fr *FrameHeader) {
	if c.endHeaders {
		fr.SetFlags(fr.Flags().Add(FlagEndHeaders))
	}
	fr.setPayload(c.block)
}
