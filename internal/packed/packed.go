// Package packed implements a random-access, fixed-width-record bit vector:
// the one primitive every vector inside an RRR bitmap is built from.
//
// Bits are stored in a slice of 64-bit words, little-endian within a word:
// bit i lives in word i/64 at position i%64. A Vector is allocated once,
// written sequentially, optionally shrunk with Resize, and is read-only
// after that -- mirroring the lifecycle the RRR structure requires of its
// four underlying vectors.
package packed

import (
	"encoding/binary"
	"fmt"

	"github.com/opencoff/go-rrrbits/internal/bitutil"
)

// Vector is a packed array of bits, optionally addressable as a sequence of
// fixed-width records.
type Vector struct {
	words      []uint64
	size       uint64 // logical bit length; size <= len(words)*64
	recordBits uint   // 0 when the vector isn't used in record mode
}

// New allocates a zero-filled vector of at least nbits bits, rounded up to
// the next whole 64-bit word.
func New(nbits uint64) *Vector {
	nwords := (nbits + 63) / 64
	return &Vector{
		words: make([]uint64, nwords),
		size:  nbits,
	}
}

// NewRecord allocates a vector sized to hold count fixed-width records of
// width bits each, and remembers width for ReadRecord/WriteRecord.
func NewRecord(width uint, count uint64) *Vector {
	bitutil.Assertf(width >= 1 && width <= 64, "packed: record width %d out of range", width)
	v := New(uint64(width) * count)
	v.recordBits = width
	return v
}

// Size returns the number of logical bits in the vector.
func (v *Vector) Size() uint64 { return v.size }

// Words returns the number of 64-bit words backing the vector.
func (v *Vector) Words() uint64 { return uint64(len(v.words)) }

// RecordBits returns the fixed record width, or 0 if the vector was
// allocated with New rather than NewRecord.
func (v *Vector) RecordBits() uint { return v.recordBits }

// Count returns the number of records the vector holds in record mode.
func (v *Vector) Count() uint64 {
	if v.recordBits == 0 {
		return 0
	}
	return v.size / uint64(v.recordBits)
}

// Read returns the width-bit unsigned integer whose bit j equals bit pos+j
// of the vector, 1 <= width <= 64, pos+width <= Size().
func (v *Vector) Read(pos, width uint64) uint64 {
	bitutil.Assertf(width >= 1 && width <= 64, "packed: Read width %d out of range", width)
	bitutil.Assertf(pos+width <= v.size, "packed: Read(%d, %d) exceeds size %d", pos, width, v.size)

	wordIdx := pos / 64
	bitOff := pos % 64

	lo := v.words[wordIdx] >> bitOff
	if bitOff+width > 64 {
		shift := 64 - bitOff
		lo |= v.words[wordIdx+1] << shift
	}
	if width < 64 {
		lo &= (uint64(1) << width) - 1
	}
	return lo
}

// ReadPadded behaves like Read, except that bits at or beyond Size() read as
// zero instead of panicking -- the zero-extension the spec requires of a
// partial tail block.
func (v *Vector) ReadPadded(pos, width uint64) uint64 {
	bitutil.Assertf(width >= 1 && width <= 64, "packed: ReadPadded width %d out of range", width)
	if pos >= v.size {
		return 0
	}
	if avail := v.size - pos; avail < width {
		return v.Read(pos, avail)
	}
	return v.Read(pos, width)
}

// Write stores the low width bits of value at pos and returns pos+width.
// Behavior is undefined if value has bits set above width.
func (v *Vector) Write(pos, width, value uint64) uint64 {
	bitutil.Assertf(width >= 1 && width <= 64, "packed: Write width %d out of range", width)
	bitutil.Assertf(pos+width <= v.size, "packed: Write(%d, %d) exceeds size %d", pos, width, v.size)

	var mask uint64 = ^uint64(0)
	if width < 64 {
		mask = (uint64(1) << width) - 1
	}
	val := value & mask

	wordIdx := pos / 64
	bitOff := pos % 64

	v.words[wordIdx] = (v.words[wordIdx] &^ (mask << bitOff)) | (val << bitOff)
	if bitOff+width > 64 {
		shift := 64 - bitOff
		overflow := bitOff + width - 64
		omask := (uint64(1) << overflow) - 1
		v.words[wordIdx+1] = (v.words[wordIdx+1] &^ omask) | (val >> shift)
	}
	return pos + width
}

// ReadRecord reads record k; equivalent to Read(k*RecordBits(), RecordBits()).
func (v *Vector) ReadRecord(k uint64) uint64 {
	w := uint64(v.recordBits)
	return v.Read(k*w, w)
}

// WriteRecord writes record k; equivalent to Write(k*RecordBits(), RecordBits(), value).
func (v *Vector) WriteRecord(k uint64, value uint64) uint64 {
	w := uint64(v.recordBits)
	return v.Write(k*w, w, value)
}

// Resize shrinks the vector's logical size to newSize, reclaiming any words
// no longer needed. Growing is not supported: a vector's capacity is
// declared once at allocation time.
func (v *Vector) Resize(newSize uint64) {
	bitutil.Assertf(newSize <= v.size, "packed: Resize(%d) would grow size %d", newSize, v.size)

	newWords := (newSize + 63) / 64
	if newWords < uint64(len(v.words)) {
		words := make([]uint64, newWords)
		copy(words, v.words[:newWords])
		v.words = words
	}
	v.size = newSize
}

// MarshalBinary encodes the vector in a portable little-endian format:
// an 8-byte size, an 8-byte record width, an 8-byte word count, then the
// words themselves.
func (v *Vector) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 24+8*len(v.words))
	le := binary.LittleEndian

	le.PutUint64(buf[0:8], v.size)
	le.PutUint64(buf[8:16], uint64(v.recordBits))
	le.PutUint64(buf[16:24], uint64(len(v.words)))

	off := 24
	for _, w := range v.words {
		le.PutUint64(buf[off:], w)
		off += 8
	}
	return buf, nil
}

// MarshalBinarySize returns the size in bytes of a subsequent MarshalBinary call.
func (v *Vector) MarshalBinarySize() int {
	return 24 + 8*len(v.words)
}

// UnmarshalVector reconstructs a Vector previously written by MarshalBinary,
// returning the number of bytes consumed.
func UnmarshalVector(data []byte) (*Vector, int, error) {
	if len(data) < 24 {
		return nil, 0, fmt.Errorf("packed: truncated header (%d bytes)", len(data))
	}

	le := binary.LittleEndian
	size := le.Uint64(data[0:8])
	recordBits := le.Uint64(data[8:16])
	nwords := le.Uint64(data[16:24])

	need := 24 + 8*int(nwords)
	if len(data) < need {
		return nil, 0, fmt.Errorf("packed: truncated body: need %d bytes, have %d", need, len(data))
	}

	words := make([]uint64, nwords)
	off := 24
	for i := range words {
		words[i] = le.Uint64(data[off:])
		off += 8
	}

	v := &Vector{
		words:      words,
		size:       size,
		recordBits: uint(recordBits),
	}
	return v, need, nil
}
