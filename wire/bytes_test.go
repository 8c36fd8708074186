package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUint24RoundTrip(t *testing.T) {
	b := make([]byte, 3)
	Uint24ToBytes(b, 0xABCDEF)
	require.Equal(t, uint32(0xABCDEF), BytesToUint24(b))
}

func TestUint32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	Uint32ToBytes(b, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), BytesToUint32(b))

	appended := AppendUint32Bytes(nil, 0x01020304)
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, appended)
}

func TestCutPadding(t *testing.T) {
	payload := []byte{2, 'h', 'i', 0, 0}
	out, err := CutPadding(payload)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), out)
}

func TestCutPaddingOverflow(t *testing.T) {
	_, err := CutPadding([]byte{5, 'h', 'i'})
	require.ErrorIs(t, err, ErrPadding)
}

func TestAddPaddingRoundTrip(t *testing.T) {
	padded := AddPadding([]byte("payload"), 16)
	out, err := CutPadding(padded)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), out)
}

func TestFastStringBytesRoundTrip(t *testing.T) {
	s := "round-trip"
	b := FastStringToBytes(s)
	require.Equal(t, s, FastBytesToString(b))
}
