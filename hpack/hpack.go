// Package hpack implements RFC 7541 header compression: the static and
// dynamic header tables, the Huffman string codec, the N-prefix integer
// codec, and the encoder/decoder that turn a header list into (and out of)
// a header block fragment. It has no knowledge of frames, streams, or
// connections; callers feed it raw header block bytes and get HeaderFields
// back, or vice versa.
package hpack

import "fmt"

// HuffmanMode selects the encoder's string-encoding strategy.
type HuffmanMode uint8

const (
	HuffmanShorter HuffmanMode = iota // pick whichever of plain/huffman is smaller
	HuffmanAlways
	HuffmanNever
)

// IndexMode selects which representations the encoder is allowed to use
// when indexing would otherwise apply.
type IndexMode uint8

const (
	IndexAll    IndexMode = iota // incremental indexing allowed
	IndexStatic                  // only ever reference the static table; never grow the dynamic table
	IndexNever                   // always a literal without indexing; never grow the dynamic table
)

// DefaultHeaderTableSize is RFC 7541's default dynamic table size bound.
const DefaultHeaderTableSize = 4096

// Decoder turns header block fragments back into header fields. Each
// connection direction owns exactly one Decoder and one Encoder; the
// dynamic table they carry is connection-scoped state, not per-stream.
type Decoder struct {
	table *DynamicTable
}

// NewDecoder returns a Decoder with an empty dynamic table bounded by
// maxTableSize (normally the local settings_header_table_size).
func NewDecoder(maxTableSize int) *Decoder {
	return &Decoder{table: NewDynamicTable(maxTableSize)}
}

// Table exposes the decoder's dynamic table, e.g. so a connection can read
// its current size for diagnostics.
func (d *Decoder) Table() *DynamicTable { return d.table }

// SetMaxTableSize lowers (or raises) the ceiling the decoder will honour
// for a future dynamic-table-size-update command, driven by a local
// settings_header_table_size change.
func (d *Decoder) SetMaxTableSize(n int) { d.table.SetMaxLimit(n) }

// DecodeBlock decodes a complete header block fragment, calling emit for
// every (name, value) pair in wire order. Any dynamic-table-size-update
// commands must appear at the start of the block, before any other
// command; seeing one afterwards is a compression error.
func (d *Decoder) DecodeBlock(payload []byte, emit func(hf *HeaderField) error) error {
	sawNonUpdate := false

	for len(payload) > 0 {
		first := payload[0]

		switch {
		case first&0x80 == 0x80: // indexed header field
			var idx uint64
			var err error
			payload, idx, err = readInt(7, payload)
			if err != nil {
				return err
			}
			if idx == 0 {
				return ErrCompression
			}
			sawNonUpdate = true

			name, value, ok := d.lookup(int(idx))
			if !ok {
				return errIndexNotFound
			}
			hf := AcquireHeaderField()
			hf.SetName(name)
			hf.SetValue(value)
			err = emit(hf)
			ReleaseHeaderField(hf)
			if err != nil {
				return err
			}

		case first&0xc0 == 0x40: // literal with incremental indexing
			sawNonUpdate = true
			var hf *HeaderField
			var err error
			payload, hf, err = d.readLiteral(6, payload)
			if err != nil {
				return err
			}
			d.table.Insert(hf.Name(), hf.Value())
			err = emit(hf)
			ReleaseHeaderField(hf)
			if err != nil {
				return err
			}

		case first&0xe0 == 0x20: // dynamic table size update
			if sawNonUpdate {
				return errMisplacedUpdate
			}
			var n uint64
			var err error
			payload, n, err = readInt(5, payload)
			if err != nil {
				return err
			}
			d.table.SetLimit(int(n))

		case first&0xf0 == 0x10: // literal never indexed
			sawNonUpdate = true
			var hf *HeaderField
			var err error
			payload, hf, err = d.readLiteral(4, payload)
			if err != nil {
				return err
			}
			hf.SetSensitive(true)
			err = emit(hf)
			ReleaseHeaderField(hf)
			if err != nil {
				return err
			}

		case first&0xf0 == 0x00: // literal without indexing
			sawNonUpdate = true
			var hf *HeaderField
			var err error
			payload, hf, err = d.readLiteral(4, payload)
			if err != nil {
				return err
			}
			err = emit(hf)
			ReleaseHeaderField(hf)
			if err != nil {
				return err
			}

		default:
			return ErrCompression
		}
	}

	return nil
}

func (d *Decoder) lookup(idx int) (name, value string, ok bool) {
	if idx <= StaticTableSize {
		return lookupStatic(idx)
	}
	return d.table.At(idx - StaticTableSize)
}

// readLiteral reads a literal representation (name index/string, then
// value string) whose prefix occupies the low nbits bits of the first byte.
func (d *Decoder) readLiteral(nbits uint8, b []byte) ([]byte, *HeaderField, error) {
	b, idx, err := readInt(nbits, b)
	if err != nil {
		return nil, nil, err
	}

	hf := AcquireHeaderField()

	if idx == 0 {
		b, err = readHuffmanOrRaw(b, func(s []byte) { hf.SetNameBytes(s) })
	} else {
		name, _, ok := d.lookup(int(idx))
		if !ok {
			ReleaseHeaderField(hf)
			return nil, nil, errIndexNotFound
		}
		hf.SetName(name)
	}
	if err != nil {
		ReleaseHeaderField(hf)
		return nil, nil, err
	}

	b, err = readHuffmanOrRaw(b, func(s []byte) { hf.SetValueBytes(s) })
	if err != nil {
		ReleaseHeaderField(hf)
		return nil, nil, err
	}

	return b, hf, nil
}

func readHuffmanOrRaw(b []byte, set func([]byte)) ([]byte, error) {
	if len(b) == 0 {
		return nil, ErrCompression
	}
	huff := b[0]&0x80 == 0x80

	b, n, err := readInt(7, b)
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) < n {
		return nil, ErrCompression
	}

	raw := b[:n]
	rest := b[n:]

	if huff {
		decoded, err := HuffmanDecode(nil, raw)
		if err != nil {
			return nil, err
		}
		set(decoded)
	} else {
		set(raw)
	}

	return rest, nil
}

// Encoder produces header block fragments from a header list.
type Encoder struct {
	table   *DynamicTable
	Huffman HuffmanMode
	Index   IndexMode

	pendingSizeUpdate bool
	pendingSize       int
}

// NewEncoder returns an Encoder with an empty dynamic table bounded by
// maxTableSize, defaulting to HuffmanShorter/IndexAll -- the same defaults
// most HPACK implementations in the wild ship with.
func NewEncoder(maxTableSize int) *Encoder {
	return &Encoder{
		table:   NewDynamicTable(maxTableSize),
		Huffman: HuffmanShorter,
		Index:   IndexAll,
	}
}

// Table exposes the encoder's dynamic table.
func (e *Encoder) Table() *DynamicTable { return e.table }

// SetMaxTableSize changes the table's ceiling and arranges for the next
// EncodeHeaderBlock call to lead with a dynamic-table-size-update command,
// so the peer's decoder stays in sync before any literal references the
// new bound.
func (e *Encoder) SetMaxTableSize(n int) {
	e.table.SetMaxLimit(n)
	e.pendingSizeUpdate = true
	e.pendingSize = n
}

// EncodeHeaderBlock appends the encoding of every field in fields to dst in
// order, per the encoder's Huffman/Index policy.
func (e *Encoder) EncodeHeaderBlock(dst []byte, fields []*HeaderField) []byte {
	if e.pendingSizeUpdate {
		dst = appendInt(append(dst, 0x20), 5, uint64(e.pendingSize))
		e.pendingSizeUpdate = false
	}
	for _, hf := range fields {
		dst = e.EncodeField(dst, hf.Name(), hf.Value(), hf.IsSensitive())
	}
	return dst
}

// EncodeField appends the encoding of a single (name, value) pair to dst.
func (e *Encoder) EncodeField(dst []byte, name, value string, sensitive bool) []byte {
	if neverIndexNames[name] {
		sensitive = true
	}

	if idx, nameOnly, found := findStatic(name, value); found && !nameOnly {
		return e.appendIndexed(dst, idx)
	}
	if idx, nameOnly, found := e.table.Find(name, value); found && !nameOnly {
		return e.appendIndexed(dst, StaticTableSize+idx)
	}

	// Neither table held an exact (name, value) match above; a name-only
	// match still lets the literal reference the name by index instead of
	// spelling it out.
	nameIdx, hasNameIdx := 0, false
	if idx, _, found := findStatic(name, value); found {
		nameIdx, hasNameIdx = idx, true
	} else if idx, _, found := e.table.Find(name, value); found {
		nameIdx, hasNameIdx = StaticTableSize+idx, true
	}

	switch {
	case sensitive:
		return e.appendLiteral(dst, 0x10, 4, name, value, nameIdx, hasNameIdx)
	case e.Index == IndexNever:
		return e.appendLiteral(dst, 0x00, 4, name, value, nameIdx, hasNameIdx)
	case e.Index == IndexStatic:
		return e.appendLiteral(dst, 0x00, 4, name, value, nameIdx, hasNameIdx)
	default: // IndexAll
		e.table.Insert(name, value)
		return e.appendLiteral(dst, 0x40, 6, name, value, nameIdx, hasNameIdx)
	}
}

func (e *Encoder) appendIndexed(dst []byte, idx int) []byte {
	return appendInt(append(dst, 0x80), 7, uint64(idx))
}

func (e *Encoder) appendLiteral(dst []byte, tag byte, nbits uint8, name, value string, nameIdx int, hasNameIdx bool) []byte {
	dst = append(dst, tag)
	if hasNameIdx {
		dst = appendInt(dst, nbits, uint64(nameIdx))
	} else {
		dst = appendInt(dst, nbits, 0)
		dst = e.appendString(dst, name)
	}
	dst = e.appendString(dst, value)
	return dst
}

func (e *Encoder) appendString(dst []byte, s string) []byte {
	raw := []byte(s)

	useHuffman := false
	switch e.Huffman {
	case HuffmanAlways:
		useHuffman = true
	case HuffmanNever:
		useHuffman = false
	case HuffmanShorter:
		useHuffman = HuffmanEncodedLen(raw) < len(raw)
	}

	if !useHuffman {
		dst = appendInt(append(dst, 0), 7, uint64(len(raw)))
		return append(dst, raw...)
	}

	lenPos := len(dst)
	dst = append(dst, 0)
	encoded := HuffmanEncode(nil, raw)
	dst = appendInt(dst, 7, uint64(len(encoded)))
	dst[lenPos] |= 0x80 // H bit: bit 7 of the first length byte, regardless of how many continuation bytes follow
	return append(dst, encoded...)
}

// ValidateHuffmanMode returns an error if m is not one of the defined
// HuffmanMode values, for validating a value coming from outside the package.
func ValidateHuffmanMode(m HuffmanMode) error {
	switch m {
	case HuffmanShorter, HuffmanAlways, HuffmanNever:
		return nil
	default:
		return fmt.Errorf("hpack: invalid huffman mode %d", m)
	}
}
