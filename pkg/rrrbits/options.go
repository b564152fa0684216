package rrrbits

// BuildOptions tunes how Build lays out an RRR bitmap. The zero value is
// not valid; use DefaultBuildOptions as a starting point.
type BuildOptions struct {
	// BlockBits is u, the number of original bits packed into each
	// combinatorially-coded block. Must be in [1, 64].
	BlockBits uint

	// MarkerBits is s, the approximate spacing in original bits between
	// rank/offset markers. Must be >= BlockBits. Markers only sit at
	// block boundaries, so the actual spacing used is MarkerBits/BlockBits
	// rounded down to a whole number of blocks (at least one).
	MarkerBits uint

	// Logger receives progress messages during Build. Defaults to a
	// no-op logger if nil.
	Logger Logger
}

// DefaultBuildOptions returns a BuildOptions with a block size and marker
// spacing that track the worked compression table in the RRR paper: u=63
// keeps the per-block class field at 6 bits (u=64 would need 7) while
// staying just under the 64-bit block ceiling, and a marker
// every 8 blocks (s=504) bounds the block-scan portion of a query to a
// small constant without bloating the marker vectors.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		BlockBits:  63,
		MarkerBits: 504,
		Logger:     NewNullLogger(),
	}
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Logger == nil {
		o.Logger = NewNullLogger()
	}
	return o
}
