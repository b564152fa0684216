// Package varint appends and reads LEB128-style variable-length unsigned
// integers, used for the small header fields in a marshaled bitmap where a
// fixed 8-byte field would waste space on the common case of a small value.
package varint

import (
	"encoding/binary"
	"fmt"
)

// Append appends the variable-length encoding of v to dst and returns the
// extended slice.
func Append(dst []byte, v uint64) []byte {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return append(dst, buf[:n]...)
}

// Read decodes a variable-length unsigned integer from the start of data,
// returning the value and the number of bytes consumed.
func Read(data []byte) (v uint64, n int, err error) {
	v, n = binary.Uvarint(data)
	if n == 0 {
		return 0, 0, fmt.Errorf("varint: truncated value")
	}
	if n < 0 {
		return 0, 0, fmt.Errorf("varint: value overflows uint64")
	}
	return v, n, nil
}
