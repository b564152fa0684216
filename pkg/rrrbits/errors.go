package rrrbits

import "errors"

// Sentinel errors returned by Build and by the optional marshal path.
// Query-path violations (out-of-range packed-vector access, bad codec
// parameters) are programming errors and panic instead -- see Build's doc
// comment.
var (
	// ErrEmptyInput is returned by Build when the source bit vector has
	// zero length; there is nothing to encode.
	ErrEmptyInput = errors.New("rrrbits: input bit vector is empty")

	// ErrInvalidBlockBits is returned by Build when the requested block
	// size u is outside [1, 64].
	ErrInvalidBlockBits = errors.New("rrrbits: block size must be in [1, 64]")

	// ErrInvalidMarkerBits is returned by Build when the requested marker
	// spacing s is smaller than the block size u.
	ErrInvalidMarkerBits = errors.New("rrrbits: marker spacing must be >= block size")

	// ErrCorrupt is returned by Unmarshal when the serialized form is
	// truncated, badly framed, or structurally inconsistent. Checksum
	// failures are reported as ErrChecksumMismatch instead.
	ErrCorrupt = errors.New("rrrbits: data corruption detected")

	// ErrUnsupportedVersion is returned by Unmarshal for a format version
	// this build doesn't know how to read.
	ErrUnsupportedVersion = errors.New("rrrbits: unsupported serialized version")

	// ErrChecksumMismatch is returned by Unmarshal when the stored
	// checksum doesn't match the recomputed one.
	ErrChecksumMismatch = errors.New("rrrbits: checksum mismatch")
)
