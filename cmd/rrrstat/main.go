// Command rrrstat builds an RRR bitmap from a file of '0'/'1' characters (or
// a randomly generated input) and reports its compressed size against the
// zeroth-order entropy bound.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"golang.org/x/sys/unix"

	"github.com/opencoff/go-rrrbits/internal/packed"
	"github.com/opencoff/go-rrrbits/pkg/rrrbits"
)

// mmapThreshold is the file size at or above which rrrstat memory-maps the input
// instead of reading it into a buffer.
const mmapThreshold = 16 << 20

func main() {
	file := flag.String("file", "", "path to a file of '0'/'1' characters; if empty, a random bit string is generated")
	randBits := flag.Uint64("random-bits", 1_000_000, "length of the random bit string, when -file is not given")
	prob := flag.Float64("p", 0.1, "probability a generated bit is 1, when -file is not given")
	seed := flag.Int64("seed", 1, "PRNG seed for the generated bit string")
	u := flag.Uint("u", rrrbits.DefaultBuildOptions().BlockBits, "block size in bits")
	s := flag.Uint("s", rrrbits.DefaultBuildOptions().MarkerBits, "approximate marker spacing in bits")
	verbose := flag.Bool("v", false, "log build progress")
	dump := flag.String("dump", "", "if set, write the marshaled bitmap to this path")
	flag.Parse()

	var bits *packed.Vector
	var err error
	if *file != "" {
		bits, err = loadBitFile(*file)
	} else {
		bits = randomBits(*randBits, *prob, *seed)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "rrrstat:", err)
		os.Exit(1)
	}

	opts := rrrbits.DefaultBuildOptions()
	opts.BlockBits = *u
	opts.MarkerBits = *s
	if *verbose {
		opts.Logger = rrrbits.NewDefaultLogger()
	}

	bm, err := rrrbits.Build(bits, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rrrstat: build:", err)
		os.Exit(1)
	}

	report(bm)

	if *dump != "" {
		data, err := bm.MarshalBinary()
		if err != nil {
			fmt.Fprintln(os.Stderr, "rrrstat: marshal:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*dump, data, 0644); err != nil {
			fmt.Fprintln(os.Stderr, "rrrstat: write:", err)
			os.Exit(1)
		}
		fmt.Printf("wrote %d bytes to %s\n", len(data), *dump)
	}
}

func report(bm *rrrbits.Bitmap) {
	st := bm.Stats()
	rawBits := st.Size
	compressedBits := st.TotalBits()
	entropyBits := st.Entropy * float64(st.Size)

	fmt.Printf("size            : %d bits\n", st.Size)
	fmt.Printf("rank (ones)     : %d\n", st.Rank)
	fmt.Printf("block size (u)  : %d\n", st.BlockBits)
	fmt.Printf("marker size (s) : %d\n", st.MarkerBits)
	fmt.Printf("blocks          : %d\n", st.NumBlocks)
	fmt.Printf("markers         : %d\n", st.NumMarkers)
	fmt.Printf("H0(B)           : %.4f bits/bit\n", st.Entropy)
	fmt.Printf("entropy bound   : %.0f bits\n", entropyBits)
	fmt.Printf("classes vector  : %d bits\n", st.ClassesBits)
	fmt.Printf("offsets vector  : %d bits\n", st.OffsetsBits)
	fmt.Printf("marked ranks    : %d bits\n", st.MarkedRanksBits)
	fmt.Printf("marked offsets  : %d bits\n", st.MarkedOffsetsBits)
	fmt.Printf("compressed total: %d bits (%.2f%% of raw)\n",
		compressedBits, 100*float64(compressedBits)/float64(rawBits))
}

// randomBits generates a packed.Vector of n bits, each independently 1 with
// probability p.
func randomBits(n uint64, p float64, seed int64) *packed.Vector {
	rnd := rand.New(rand.NewSource(seed))
	v := packed.New(n)
	for i := uint64(0); i < n; i++ {
		if rnd.Float64() < p {
			v.Write(i, 1, 1)
		}
	}
	return v
}

// loadBitFile reads a file of '0'/'1' (and ignored whitespace) characters
// into a packed.Vector, memory-mapping files of at least mmapThreshold bytes rather than
// reading them into a heap buffer.
func loadBitFile(path string) (*packed.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	if st.Size() >= mmapThreshold {
		return loadBitFileMmap(path, st.Size())
	}
	return parseBits(bufio.NewReader(f), uint64(st.Size()))
}

func loadBitFileMmap(path string, size int64) (*packed.Vector, error) {
	fd, err := unix.Open(path, unix.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer unix.Close(fd)

	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	defer unix.Munmap(data)
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	v := packed.New(uint64(len(data)))
	var i uint64
	for _, c := range data {
		switch c {
		case '0':
			i++
		case '1':
			v.Write(i, 1, 1)
			i++
		}
	}
	v.Resize(i)
	return v, nil
}

// parseBits reads at most sizeHint bytes, so the bit count it produces can
// never exceed the vector allocated for it.
func parseBits(r *bufio.Reader, sizeHint uint64) (*packed.Vector, error) {
	v := packed.New(sizeHint)
	var i uint64
	for read := uint64(0); read < sizeHint; read++ {
		c, err := r.ReadByte()
		if err != nil {
			break
		}
		switch c {
		case '0':
			i++
		case '1':
			v.Write(i, 1, 1)
			i++
		}
	}
	v.Resize(i)
	return v, nil
}
