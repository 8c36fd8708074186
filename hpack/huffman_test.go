package hpack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHuffmanRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"www.example.org",
		"no-cache",
		"custom-key",
		"custom-value",
		"a",
		"The quick brown fox jumps over the lazy dog 1234567890",
	}

	for _, s := range cases {
		enc := HuffmanEncode(nil, []byte(s))
		dec, err := HuffmanDecode(nil, enc)
		require.NoError(t, err)
		require.Equal(t, s, string(dec))
	}
}

func TestHuffmanKnownEncoding(t *testing.T) {
	// RFC 7541 C.4.1: "www.example.com" encodes to this exact sequence.
	want := []byte{
		0xf1, 0xe3, 0xc2, 0xe5, 0xf2, 0x3a, 0x6b, 0xa0,
		0xab, 0x90, 0xf4, 0xff,
	}
	got := HuffmanEncode(nil, []byte("www.example.com"))
	require.Equal(t, want, got)

	dec, err := HuffmanDecode(nil, want)
	require.NoError(t, err)
	require.Equal(t, "www.example.com", string(dec))
}

func TestHuffmanDecodeRejectsEOSSymbol(t *testing.T) {
	// The 30-bit EOS code left-justified into 4 bytes, MSB first.
	eos := []byte{0xff, 0xff, 0xff, 0xfc}
	_, err := HuffmanDecode(nil, eos)
	require.Error(t, err)
}

func TestHuffmanDecodeRejectsBadPadding(t *testing.T) {
	// '0' is 5 bits (00000), followed by three zero bits instead of 1-padding.
	bad := []byte{0x00}
	_, err := HuffmanDecode(nil, bad)
	require.Error(t, err)
}

func TestHuffmanEncodedLenMatchesOutput(t *testing.T) {
	src := []byte("www.example.org")
	require.Equal(t, len(HuffmanEncode(nil, src)), HuffmanEncodedLen(src))
}
