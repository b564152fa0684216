package rrrbits

import (
	"errors"
	"fmt"

	"github.com/opencoff/go-rrrbits/internal/packed"
	"github.com/opencoff/go-rrrbits/internal/rrrio"
	"github.com/opencoff/go-rrrbits/internal/varint"
)

// MarshalBinary serializes the bitmap into a self-describing, checksummed
// frame: a small varint-encoded header (size, rank, block size, marker
// spacing) followed by the four packed vectors that make up the structure,
// the whole thing wrapped by internal/rrrio with a BLAKE3 digest and a
// CRC32C-checked header.
func (bm *Bitmap) MarshalBinary() ([]byte, error) {
	body := varint.Append(nil, bm.size)
	body = varint.Append(body, bm.rank)
	body = varint.Append(body, uint64(bm.u))
	body = varint.Append(body, uint64(bm.s))

	parts := []*packed.Vector{bm.classes, bm.offsets, bm.markedRanks, bm.markedOffsets}
	for _, p := range parts {
		enc, err := p.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("rrrbits: marshal: %w", err)
		}
		body = append(body, enc...)
	}

	return rrrio.Frame(body), nil
}

// Unmarshal decodes a bitmap previously produced by MarshalBinary.
func Unmarshal(data []byte) (*Bitmap, error) {
	body, _, err := rrrio.Unframe(data)
	if err != nil {
		return nil, mapFrameErr(err)
	}

	size, rank, u64, s64, pos, err := readHeader(body)
	if err != nil {
		return nil, fmt.Errorf("rrrbits: unmarshal: %w: %w", ErrCorrupt, err)
	}
	u, s := uint(u64), uint(s64)
	if u < 1 || u > 64 || s < u {
		return nil, fmt.Errorf("rrrbits: unmarshal: block size %d, marker size %d: %w", u, s, ErrCorrupt)
	}

	vectors := make([]*packed.Vector, 4)
	for i := range vectors {
		v, n, err := packed.UnmarshalVector(body[pos:])
		if err != nil {
			return nil, fmt.Errorf("rrrbits: unmarshal: vector %d: %w: %w", i, ErrCorrupt, err)
		}
		vectors[i] = v
		pos += n
	}

	nblocks := (size + uint64(u) - 1) / uint64(u)
	blocksPerMarker := uint64(s) / uint64(u)
	if blocksPerMarker == 0 {
		blocksPerMarker = 1
	}
	nmarkers := nblocks / blocksPerMarker

	bm := &Bitmap{
		size:            size,
		rank:            rank,
		u:               u,
		s:               s,
		nblocks:         nblocks,
		nmarkers:        nmarkers,
		blocksPerMarker: blocksPerMarker,
		classes:         vectors[0],
		offsets:         vectors[1],
		markedRanks:     vectors[2],
		markedOffsets:   vectors[3],
	}
	if bm.classes.Count() != nblocks || bm.markedRanks.Count() != nmarkers || bm.markedOffsets.Count() != nmarkers {
		return nil, fmt.Errorf("rrrbits: unmarshal: vector shape disagrees with header: %w", ErrCorrupt)
	}

	return bm, nil
}

// readHeader decodes the four varint header fields from the start of body,
// returning their values and the number of bytes consumed.
func readHeader(body []byte) (size, rank, u, s uint64, consumed int, err error) {
	fields := make([]uint64, 4)
	pos := 0
	for i := range fields {
		v, n, ferr := varint.Read(body[pos:])
		if ferr != nil {
			return 0, 0, 0, 0, 0, fmt.Errorf("header field %d: %w", i, ferr)
		}
		fields[i] = v
		pos += n
	}
	return fields[0], fields[1], fields[2], fields[3], pos, nil
}

func mapFrameErr(err error) error {
	switch {
	case errors.Is(err, rrrio.ErrUnsupportedVersion):
		return fmt.Errorf("rrrbits: %w: %w", ErrUnsupportedVersion, err)
	case errors.Is(err, rrrio.ErrHeaderChecksum), errors.Is(err, rrrio.ErrBodyDigest):
		return fmt.Errorf("rrrbits: %w: %w", ErrChecksumMismatch, err)
	default:
		return fmt.Errorf("rrrbits: %w: %w", ErrCorrupt, err)
	}
}
