// Package bitutil collects the small bit-twiddling helpers the rest of the
// module builds on: population count, leading/trailing zero counts, and the
// "minimum bits needed to represent N values" helper used to size every
// packed field in the RRR encoding.
package bitutil

import (
	"fmt"
	"math/bits"
)

// PopCount64 returns the number of set bits in x.
func PopCount64(x uint64) uint64 {
	return uint64(bits.OnesCount64(x))
}

// LeadingZeros64 returns the number of leading zero bits in x; 64 for x == 0.
func LeadingZeros64(x uint64) uint64 {
	return uint64(bits.LeadingZeros64(x))
}

// TrailingZeros64 returns the number of trailing zero bits in x; 64 for x == 0.
func TrailingZeros64(x uint64) uint64 {
	return uint64(bits.TrailingZeros64(x))
}

// NBits returns the minimum number of bits needed to represent the values
// [0, x) as an unsigned integer, i.e. ceil(lg(x)). NBits(0) and NBits(1) are
// both 0: zero or one distinct values need no bits to distinguish them.
func NBits(x uint64) uint64 {
	if x < 2 {
		return 0
	}
	return uint64(bits.Len64(x - 1))
}

// Assertf panics if cond is false. It is used at the boundaries the
// specification calls "programming errors" -- out-of-range packed-vector
// access, invalid codec parameters -- which are fatal by contract rather
// than recoverable.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
