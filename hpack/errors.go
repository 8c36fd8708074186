package hpack

import (
	"errors"
	"fmt"
)

// ErrCompression is returned for any malformed header block: bad integer
// encoding, a reference to a table index that doesn't exist, a size update
// that doesn't lead the block, or a Huffman string that cannot be decoded.
// Per the calling connection's error handling, this is always connection-fatal.
var ErrCompression = errors.New("hpack: compression error")

var (
	errIntegerOverflow = fmt.Errorf("%w: integer overflow", ErrCompression)
	errIndexNotFound   = fmt.Errorf("%w: header index not found", ErrCompression)
	errHuffmanPadding  = fmt.Errorf("%w: invalid huffman padding", ErrCompression)
	errHuffmanEOS      = fmt.Errorf("%w: huffman stream encodes EOS", ErrCompression)
	errMisplacedUpdate = fmt.Errorf("%w: dynamic table size update must lead the header block", ErrCompression)
)
