package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type decoded struct{ name, value string }

func decodeAll(t *testing.T, dec *Decoder, block []byte) []decoded {
	t.Helper()
	var got []decoded
	err := dec.DecodeBlock(block, func(hf *HeaderField) error {
		got = append(got, decoded{hf.Name(), hf.Value()})
		return nil
	})
	require.NoError(t, err)
	return got
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewEncoder(DefaultHeaderTableSize)
	dec := NewDecoder(DefaultHeaderTableSize)

	fields := []*HeaderField{
		{}, {}, {}, {},
	}
	fields[0].Set(":method", "GET")
	fields[1].Set(":path", "/")
	fields[2].Set(":authority", "www.example.org")
	fields[3].Set("custom-key", "custom-value")

	block := enc.EncodeHeaderBlock(nil, fields)
	got := decodeAll(t, dec, block)

	require.Equal(t, []decoded{
		{":method", "GET"},
		{":path", "/"},
		{":authority", "www.example.org"},
		{"custom-key", "custom-value"},
	}, got)
}

func TestEncodeDecodeRepeatedRequestsUseDynamicTable(t *testing.T) {
	enc := NewEncoder(DefaultHeaderTableSize)
	dec := NewDecoder(DefaultHeaderTableSize)

	f1 := AcquireHeaderField()
	f1.Set("custom-key", "custom-value")

	block1 := enc.EncodeHeaderBlock(nil, []*HeaderField{f1})
	got1 := decodeAll(t, dec, block1)
	require.Equal(t, []decoded{{"custom-key", "custom-value"}}, got1)

	block2 := enc.EncodeHeaderBlock(nil, []*HeaderField{f1})
	// second time the pair is fully indexed from the dynamic table: a
	// single indexed-header-field byte referencing dynamic index 1.
	require.Equal(t, []byte{0x80 | byte(StaticTableSize+1)}, block2)

	got2 := decodeAll(t, dec, block2)
	require.Equal(t, []decoded{{"custom-key", "custom-value"}}, got2)

	ReleaseHeaderField(f1)
}

func TestDecodeRejectsMisplacedSizeUpdate(t *testing.T) {
	dec := NewDecoder(DefaultHeaderTableSize)

	// indexed field (:method: GET) followed by a dynamic-table-size-update,
	// which is only legal at the start of a block.
	block := []byte{0x82, 0x20}
	err := dec.DecodeBlock(block, func(*HeaderField) error { return nil })
	require.ErrorIs(t, err, errMisplacedUpdate)
}

func TestDecodeLeadingSizeUpdateIsAccepted(t *testing.T) {
	dec := NewDecoder(DefaultHeaderTableSize)

	block := []byte{0x3f, 0x01, 0x82} // size update to 32, then :method: GET
	got := decodeAll(t, dec, block)
	require.Equal(t, []decoded{{":method", "GET"}}, got)
	require.Equal(t, 32, dec.Table().Limit())
}

func TestEncodeNeverIndexedNamesAreSensitive(t *testing.T) {
	enc := NewEncoder(DefaultHeaderTableSize)
	dec := NewDecoder(DefaultHeaderTableSize)

	block := enc.EncodeField(nil, "cookie", "secret=1", false)
	require.Equal(t, byte(0x10), block[0]&0xf0)

	var hf *HeaderField
	err := dec.DecodeBlock(block, func(f *HeaderField) error {
		hf = f
		return nil
	})
	require.NoError(t, err)
	require.True(t, hf.IsSensitive())
	require.Equal(t, 0, dec.Table().Len())
}

func TestEncodeHuffmanNeverMode(t *testing.T) {
	enc := NewEncoder(DefaultHeaderTableSize)
	enc.Huffman = HuffmanNever
	enc.Index = IndexNever

	block := enc.EncodeField(nil, "x-custom", "plain-value", false)
	dec := NewDecoder(DefaultHeaderTableSize)
	got := decodeAll(t, dec, block)
	require.Equal(t, []decoded{{"x-custom", "plain-value"}}, got)
	require.Equal(t, 0, dec.Table().Len())
}
