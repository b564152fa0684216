// Package rrrbits implements an RRR succinct bitmap: a compressed
// representation of an immutable bit string that answers Access, Rank1, and
// Select1 in O(1) expected time while using space close to the zeroth-order
// entropy of the input, n*H0(B) + o(n) bits, rather than n bits.
//
// The encoding follows Raman, Raman & Rao, "Succinct Indexable Dictionaries
// with Applications to Encoding k-ary Trees and Multisets": the bit string
// is cut into fixed-size blocks, each block is replaced by a (class, offset)
// pair via the combinatorial number system (package
// github.com/opencoff/go-rrrbits/internal/combi), and periodic markers let
// queries jump to within O(1) blocks of their answer before falling back to
// a short linear scan.
//
// A Bitmap is built once via Build and is read-only afterward: there is no
// way to mutate it, and every exported method besides Build is safe to call
// concurrently from multiple goroutines without external synchronization.
package rrrbits

import (
	"fmt"
	"math"

	"github.com/opencoff/go-rrrbits/internal/bitutil"
	"github.com/opencoff/go-rrrbits/internal/combi"
	"github.com/opencoff/go-rrrbits/internal/packed"
)

// Bitmap is a compressed, immutable bit string supporting Access, Rank1,
// Rank0, and Select1 in O(1) expected time.
//
// There is no exported "Building" state: Build either returns a fully
// sealed, queryable Bitmap or an error. Once constructed, a Bitmap has
// exactly one externally visible state -- sealed -- and every method is a
// pure function of its receiver and its argument.
type Bitmap struct {
	size uint64 // n, the length of the original bit string
	rank uint64 // total number of 1-bits

	u uint // block_nbits
	s uint // marker_nbits, as requested (see blocksPerMarker for the value actually used)

	nblocks  uint64
	nmarkers uint64

	// blocksPerMarker is s rounded down to a whole number of blocks (at
	// least one): markers sit only at block boundaries, so a query never
	// has to account for a marker landing mid-block.
	blocksPerMarker uint64

	classes       *packed.Vector // nblocks records, ceil(lg(u+1)) bits each
	offsets       *packed.Vector // variable-width offset per block, concatenated
	markedRanks   *packed.Vector // nmarkers records, ceil(lg(n+1)) bits each
	markedOffsets *packed.Vector // nmarkers records, ceil(lg(|offsets|+1)) bits each
}

// Build encodes the first bits.Size() bits of the given source vector into a
// sealed RRR bitmap, using block size u = opts.BlockBits and marker spacing
// s = opts.MarkerBits. Bits at or beyond bits.Size() are treated as zero,
// per the packed.Vector contract.
//
// Build returns an error for bad parameters (empty input, u outside
// [1, 64], s < u); these are the only fallible preconditions in the package.
// Everything past this point treats the same class of violation as a
// programming error and panics instead.
func Build(bits *packed.Vector, opts BuildOptions) (*Bitmap, error) {
	opts = opts.withDefaults()

	if bits.Size() == 0 {
		return nil, ErrEmptyInput
	}
	u := opts.BlockBits
	s := opts.MarkerBits
	if u < 1 || u > 64 {
		return nil, fmt.Errorf("rrrbits: build: block size %d: %w", u, ErrInvalidBlockBits)
	}
	if s < u {
		return nil, fmt.Errorf("rrrbits: build: marker size %d < block size %d: %w", s, u, ErrInvalidMarkerBits)
	}

	n := bits.Size()
	nblocks := (n + uint64(u) - 1) / uint64(u)

	blocksPerMarker := uint64(s) / uint64(u)
	if blocksPerMarker == 0 {
		blocksPerMarker = 1
	}
	nmarkers := nblocks / blocksPerMarker

	classWidth := uint(bitutil.NBits(uint64(u) + 1))
	classes := packed.NewRecord(classWidth, nblocks)

	offsetMax := combi.OffsetWidth(u, uint64(u)/2)
	offsets := packed.New(nblocks * offsetMax)

	rankWidth := uint(bitutil.NBits(n + 1))
	markedRanks := packed.NewRecord(rankWidth, nmarkers)

	offsetPosWidth := uint(bitutil.NBits(nblocks*offsetMax + 1))
	if offsetPosWidth == 0 {
		// u == 1 stores no offset bits at all, but a record needs at least one bit.
		offsetPosWidth = 1
	}
	markedOffsets := packed.NewRecord(offsetPosWidth, nmarkers)

	var rank uint64
	var offsetAt uint64
	var markerAt uint64

	for k := uint64(0); k < nblocks; k++ {
		block := bits.ReadPadded(k*uint64(u), uint64(u))
		class := bitutil.PopCount64(block)
		width := combi.OffsetWidth(u, class)

		classes.WriteRecord(k, class)
		if width > 0 {
			offset := combi.Encode(u, class, block)
			offsetAt = offsets.Write(offsetAt, width, offset)
		}
		rank += class

		// Markers sit only at block boundaries: place one every
		// blocksPerMarker blocks, storing the cumulative rank/offset
		// immediately after the block that completes the group.
		if markerAt < nmarkers && (k+1)%blocksPerMarker == 0 {
			markedRanks.WriteRecord(markerAt, rank)
			markedOffsets.WriteRecord(markerAt, offsetAt)
			opts.Logger.Debug("rrrbits: marker placed",
				"marker", markerAt, "block", k, "rank", rank, "offset", offsetAt)
			markerAt++
		}
	}

	offsets.Resize(offsetAt)

	bm := &Bitmap{
		size:            n,
		rank:            rank,
		u:               u,
		s:               s,
		nblocks:         nblocks,
		nmarkers:        nmarkers,
		blocksPerMarker: blocksPerMarker,
		classes:         classes,
		offsets:         offsets,
		markedRanks:     markedRanks,
		markedOffsets:   markedOffsets,
	}

	opts.Logger.Info("rrrbits: build complete",
		"size", n, "rank", rank, "nblocks", nblocks, "nmarkers", nmarkers,
		"offset_bits", offsetAt, "entropy_bits_per_bit", bm.Entropy())

	return bm, nil
}

// Size returns n, the length of the original bit string.
func (bm *Bitmap) Size() uint64 { return bm.size }

// Rank returns the total number of 1-bits, i.e. Rank1(Size()).
func (bm *Bitmap) Rank() uint64 { return bm.rank }

// locate seeds (classIdx, off[, rank]) for position i using the marker
// immediately at or before i, the jump-in step shared by Access and Rank1.
func (bm *Bitmap) locate(i uint64) (classIdx, off, rank uint64) {
	blockIdx := i / uint64(bm.u)
	q := blockIdx / bm.blocksPerMarker
	if q > 0 {
		classIdx = q * bm.blocksPerMarker
		off = bm.markedOffsets.ReadRecord(q - 1)
		rank = bm.markedRanks.ReadRecord(q - 1)
	}
	return
}

// blockAt decodes the block at classIdx, given the bit cursor off into the
// offsets vector.
func (bm *Bitmap) blockAt(classIdx, off uint64) (block, class uint64) {
	class = bm.classes.ReadRecord(classIdx)
	width := combi.OffsetWidth(bm.u, class)
	var offset uint64
	if width > 0 {
		offset = bm.offsets.Read(off, width)
	}
	return combi.Decode(bm.u, class, offset), class
}

// Access returns bit i of the original bit string, 0 <= i < Size().
func (bm *Bitmap) Access(i uint64) uint8 {
	bitutil.Assertf(i < bm.size, "rrrbits: Access(%d) out of range [0,%d)", i, bm.size)

	classIdx, off, _ := bm.locate(i)
	rel := i - classIdx*uint64(bm.u)

	for rel >= uint64(bm.u) {
		class := bm.classes.ReadRecord(classIdx)
		off += combi.OffsetWidth(bm.u, class)
		classIdx++
		rel -= uint64(bm.u)
	}

	block, _ := bm.blockAt(classIdx, off)
	return uint8((block >> rel) & 1)
}

// Rank1 returns the number of 1-bits in [0, i). Rank1 saturates at Rank()
// for i >= Size().
func (bm *Bitmap) Rank1(i uint64) uint64 {
	if i >= bm.size {
		return bm.rank
	}

	classIdx, off, rank := bm.locate(i)
	rel := i - classIdx*uint64(bm.u)

	for rel >= uint64(bm.u) {
		class := bm.classes.ReadRecord(classIdx)
		rank += class
		off += combi.OffsetWidth(bm.u, class)
		classIdx++
		rel -= uint64(bm.u)
	}

	block, _ := bm.blockAt(classIdx, off)
	var mask uint64
	if rel > 0 {
		mask = (uint64(1) << rel) - 1
	}
	return rank + bitutil.PopCount64(block&mask)
}

// Rank0 returns the number of 0-bits in [0, i).
func (bm *Bitmap) Rank0(i uint64) uint64 {
	if i > bm.size {
		i = bm.size
	}
	return i - bm.Rank1(i)
}

// findMarker returns the largest marker index m+1 such that
// markedRanks[m] < j, or 0 if no such marker exists.
func (bm *Bitmap) findMarker(j uint64) uint64 {
	lo, hi := int64(0), int64(bm.nmarkers)-1
	best := int64(-1)
	for lo <= hi {
		mid := lo + (hi-lo)/2
		if bm.markedRanks.ReadRecord(uint64(mid)) < j {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if best < 0 {
		return 0
	}
	return uint64(best + 1)
}

// Select1 returns the position (0-indexed) of the j-th 1-bit, 1 <= j.
// It returns 0 for j == 0 or j > Rank(); callers that need to distinguish
// "not found" from a genuine match at position 0 should check j against
// Rank() first.
func (bm *Bitmap) Select1(j uint64) uint64 {
	if j == 0 || j > bm.rank {
		return 0
	}

	markerAt := bm.findMarker(j)
	classIdx := markerAt * bm.blocksPerMarker

	var rank, off uint64
	if markerAt > 0 {
		off = bm.markedOffsets.ReadRecord(markerAt - 1)
		rank = bm.markedRanks.ReadRecord(markerAt - 1)
	}

	var class uint64
	for classIdx < bm.nblocks {
		class = bm.classes.ReadRecord(classIdx)
		if rank+class >= j {
			break
		}
		rank += class
		off += combi.OffsetWidth(bm.u, class)
		classIdx++
	}

	width := combi.OffsetWidth(bm.u, class)
	var offset uint64
	if width > 0 {
		offset = bm.offsets.Read(off, width)
	}
	block := combi.Decode(bm.u, class, offset)

	var pos uint64
	for rank < j {
		pos = bitutil.TrailingZeros64(block)
		block &^= uint64(1) << pos
		rank++
	}
	return pos + classIdx*uint64(bm.u)
}

// Select0 is intentionally not implemented. The source this package is
// derived from left it as an open question, and no caller of this package
// needs it; adding it would require either a second marker vector tracking
// zero-counts or on-the-fly u-class bookkeeping in Select1, neither of
// which has a concrete consumer today.

// Entropy returns H0(B), the zeroth-order empirical entropy of the original
// bit string in bits per input bit: (n0/n)*lg(n/n0) + (n1/n)*lg(n/n1).
func (bm *Bitmap) Entropy() float64 {
	n := float64(bm.size)
	n1 := float64(bm.rank)
	n0 := n - n1

	var h float64
	if n0 > 0 {
		h += (n0 / n) * math.Log2(n/n0)
	}
	if n1 > 0 {
		h += (n1 / n) * math.Log2(n/n1)
	}
	return h
}

// BitmapStats summarizes the size of the four packed vectors backing a
// Bitmap, for diagnostics and for cmd/rrrstat.
type BitmapStats struct {
	Size       uint64
	Rank       uint64
	BlockBits  uint
	MarkerBits uint
	NumBlocks  uint64
	NumMarkers uint64

	ClassesBits       uint64
	OffsetsBits       uint64
	MarkedRanksBits   uint64
	MarkedOffsetsBits uint64

	Entropy float64
}

// TotalBits returns the combined size of the four packed vectors: the
// actual space this Bitmap occupies, for comparison against Size() and
// against Size()*Entropy().
func (s BitmapStats) TotalBits() uint64 {
	return s.ClassesBits + s.OffsetsBits + s.MarkedRanksBits + s.MarkedOffsetsBits
}

// Stats reports the structural sizes of a Bitmap.
func (bm *Bitmap) Stats() BitmapStats {
	return BitmapStats{
		Size:              bm.size,
		Rank:              bm.rank,
		BlockBits:         bm.u,
		MarkerBits:        bm.s,
		NumBlocks:         bm.nblocks,
		NumMarkers:        bm.nmarkers,
		ClassesBits:       bm.classes.Size(),
		OffsetsBits:       bm.offsets.Size(),
		MarkedRanksBits:   bm.markedRanks.Size(),
		MarkedOffsetsBits: bm.markedOffsets.Size(),
		Entropy:           bm.Entropy(),
	}
}
