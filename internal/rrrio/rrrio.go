// Package rrrio frames an opaque payload with a magic number, a version
// byte, a BLAKE3 digest, and a CRC32C header checksum, the same layered
// integrity scheme the rest of this module's teacher uses for its on-disk
// segments (magic/version header, CRC32C for structural fields, BLAKE3 for
// bulk payload content).
package rrrio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"lukechampine.com/blake3"
)

const (
	magic          uint32 = 0x31525252 // "RRR1" little-endian
	version        uint8  = 1
	digestSize            = 32
	headerSize            = 4 + 1 + 3 + 8 + digestSize + 4 // magic, version, reserved, bodyLen, digest, headerCRC
	headerCRCStart        = headerSize - 4
)

var (
	// ErrTruncated means data is shorter than its own declared framing.
	ErrTruncated = errors.New("rrrio: truncated frame")
	// ErrBadMagic means the leading magic number does not match.
	ErrBadMagic = errors.New("rrrio: bad magic number")
	// ErrUnsupportedVersion means the frame's version byte is unrecognized.
	ErrUnsupportedVersion = errors.New("rrrio: unsupported frame version")
	// ErrHeaderChecksum means the header's own CRC32C does not verify.
	ErrHeaderChecksum = errors.New("rrrio: header checksum mismatch")
	// ErrBodyDigest means the body's BLAKE3 digest does not match the one
	// recorded in the header.
	ErrBodyDigest = errors.New("rrrio: body digest mismatch")
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// Frame wraps body in a self-describing, integrity-checked frame:
//
//	magic(4) | version(1) | reserved(3) | bodyLen(8) | blake3(32) | headerCRC(4) | body
func Frame(body []byte) []byte {
	buf := make([]byte, headerSize+len(body))

	binary.LittleEndian.PutUint32(buf[0:4], magic)
	buf[4] = version
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(body)))

	digest := blake3.Sum256(body)
	copy(buf[16:16+digestSize], digest[:])

	crc := crc32.Checksum(buf[:headerCRCStart], crcTable)
	binary.LittleEndian.PutUint32(buf[headerCRCStart:headerSize], crc)

	copy(buf[headerSize:], body)
	return buf
}

// Unframe validates and unwraps a frame produced by Frame, returning the
// body and the number of bytes of data consumed.
func Unframe(data []byte) (body []byte, consumed int, err error) {
	if len(data) < headerSize {
		return nil, 0, fmt.Errorf("rrrio: header needs %d bytes, have %d: %w", headerSize, len(data), ErrTruncated)
	}

	if got := binary.LittleEndian.Uint32(data[0:4]); got != magic {
		return nil, 0, fmt.Errorf("rrrio: magic %#x: %w", got, ErrBadMagic)
	}
	if got := data[4]; got != version {
		return nil, 0, fmt.Errorf("rrrio: version %d: %w", got, ErrUnsupportedVersion)
	}

	wantCRC := binary.LittleEndian.Uint32(data[headerCRCStart:headerSize])
	if gotCRC := crc32.Checksum(data[:headerCRCStart], crcTable); gotCRC != wantCRC {
		return nil, 0, fmt.Errorf("rrrio: header crc %#x, want %#x: %w", gotCRC, wantCRC, ErrHeaderChecksum)
	}

	bodyLen := binary.LittleEndian.Uint64(data[8:16])
	end := headerSize + bodyLen
	if uint64(len(data)) < end {
		return nil, 0, fmt.Errorf("rrrio: body needs %d bytes, have %d: %w", end, len(data), ErrTruncated)
	}

	body = data[headerSize:end]
	wantDigest := data[16 : 16+digestSize]
	gotDigest := blake3.Sum256(body)
	if string(gotDigest[:]) != string(wantDigest) {
		return nil, 0, fmt.Errorf("rrrio: body digest: %w", ErrBodyDigest)
	}

	return body, int(end), nil
}
